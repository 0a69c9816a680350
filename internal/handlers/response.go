package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"hub-helio-backend/internal/middleware"
	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/services"
	"hub-helio-backend/internal/views"
)

// invalidator is satisfied by *services.Invalidator.
type invalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID, set views.Set)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return errorRespWithFields(code, message, nil, r)
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *services.ValidationError
		nf *services.NotFoundError
		ce *services.ConflictError
		se *services.StoreError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", ve.Error(), ve.Fields, r))
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", nf.Message, r))
	case errors.As(err, &ce):
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", ce.Message, r))
	case errors.As(err, &se):
		log.Printf("store error [%s] %s %s: %v", r.Header.Get(middleware.RequestIDHeader), r.Method, r.URL.Path, se)
		writeJSON(w, http.StatusBadGateway, errorResp("STORE_ERROR", "Falha ao acessar o banco de dados", r))
	default:
		log.Printf("unexpected error [%s] %s %s: %v", r.Header.Get(middleware.RequestIDHeader), r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Ocorreu um erro inesperado", r))
	}
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// Every failure comes back as a *services.ValidationError.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return &services.ValidationError{Message: "Corpo da requisição inválido"}
	}
	return validateStruct(dst)
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &services.ValidationError{Message: "Corpo da requisição inválido"}
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fieldPath(fe)] = fieldMessage(fe)
	}
	return &services.ValidationError{Message: "Dados inválidos", Fields: fields}
}

// fieldPath drops the struct name from the namespace: "itens[0].materia_nome".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Campo obrigatório"
	case "max":
		return "Excede o tamanho máximo (" + fe.Param() + ")"
	case "min":
		return "Abaixo do mínimo (" + fe.Param() + ")"
	case "gt", "gte", "lt", "lte":
		return "Valor fora do intervalo permitido"
	case "oneof":
		return "Valor deve ser um de: " + fe.Param()
	case "datetime":
		return "Data inválida, use AAAA-MM-DD"
	case "url":
		return "URL inválida"
	default:
		return "Valor inválido"
	}
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &services.ValidationError{Message: "Identificador inválido", Fields: map[string]string{"id": "Identificador inválido"}}
	}
	return id, nil
}

// respond writes the payload and hands the stale views to the invalidator.
func respond(w http.ResponseWriter, r *http.Request, inv invalidator, status int, payload interface{}, set views.Set) {
	if inv != nil && len(set) > 0 {
		inv.Invalidate(r.Context(), middleware.GetUserID(r.Context()), set)
	}
	writeJSON(w, status, payload)
}
