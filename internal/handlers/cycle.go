package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"hub-helio-backend/internal/middleware"
	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/services"
)

// cycleActions is the study-cycle surface of *services.CycleService.
type cycleActions interface {
	Location() *time.Location
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*models.CycleSession, error)
	CreateSession(ctx context.Context, userID uuid.UUID, req models.CreateSessionRequest) (*services.ActionResult, error)
	SeedTemplate(ctx context.Context, userID uuid.UUID, req models.SeedRequest) (*services.ActionResult, error)
	Reorder(ctx context.Context, userID uuid.UUID, sessionIDs []int64) (*services.ActionResult, error)
	BulkDeleteSessions(ctx context.Context, userID uuid.UUID, sessionIDs []int64) (*services.ActionResult, error)
	AutoSave(ctx context.Context, userID uuid.UUID, sessionID int64, patch models.SessionPatch) (*services.ActionResult, error)
	DeleteSession(ctx context.Context, userID uuid.UUID, sessionID int64) (*services.ActionResult, error)
	ToggleCompletion(ctx context.Context, userID uuid.UUID, sessionID int64, completing bool) (*services.ActionResult, error)
	ToggleFinalized(ctx context.Context, userID uuid.UUID, sessionID int64, finalized bool) (*services.ActionResult, error)
	UpdateStudyOrReviewDate(ctx context.Context, userID uuid.UUID, sessionID int64, field, date string) (*services.ActionResult, error)
	ListReviews(ctx context.Context, userID uuid.UUID, status, from, to string) ([]models.Review, error)
	ToggleReviewCompleted(ctx context.Context, userID uuid.UUID, reviewID int64, completed bool) (*services.ActionResult, error)
}

type cycleExporter interface {
	ExportCycle(ctx context.Context, userID uuid.UUID, w io.Writer) error
}

type CycleHandler struct {
	cycle    cycleActions
	exporter cycleExporter
	inv      invalidator
}

func NewCycleHandler(cycle cycleActions, exporter cycleExporter, inv invalidator) *CycleHandler {
	return &CycleHandler{cycle: cycle, exporter: exporter, inv: inv}
}

type idsRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,max=500,dive,gt=0"`
}

type completedRequest struct {
	Concluida *bool `json:"concluida" validate:"required"`
}

type finalizedRequest struct {
	Finalizada *bool `json:"finalizada" validate:"required"`
}

type dateRequest struct {
	Campo string `json:"campo" validate:"required"`
	Data  string `json:"data"`
}

func (h *CycleHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.cycle.ListSessions(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (h *CycleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.result(w, r, http.StatusCreated)(h.cycle.CreateSession(r.Context(), middleware.GetUserID(r.Context()), req))
}

func (h *CycleHandler) Seed(w http.ResponseWriter, r *http.Request) {
	var req models.SeedRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.result(w, r, http.StatusCreated)(h.cycle.SeedTemplate(r.Context(), middleware.GetUserID(r.Context()), req))
}

func (h *CycleHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.result(w, r, http.StatusOK)(h.cycle.Reorder(r.Context(), middleware.GetUserID(r.Context()), req.IDs))
}

func (h *CycleHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.result(w, r, http.StatusOK)(h.cycle.BulkDeleteSessions(r.Context(), middleware.GetUserID(r.Context()), req.IDs))
}

func (h *CycleHandler) AutoSave(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var patch models.SessionPatch
	if err := decodeAndValidate(r, &patch); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.result(w, r, http.StatusOK)(h.cycle.AutoSave(r.Context(), middleware.GetUserID(r.Context()), id, patch))
}

func (h *CycleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.result(w, r, http.StatusOK)(h.cycle.DeleteSession(r.Context(), middleware.GetUserID(r.Context()), id))
}

func (h *CycleHandler) ToggleCompletion(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req completedRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.result(w, r, http.StatusOK)(h.cycle.ToggleCompletion(r.Context(), middleware.GetUserID(r.Context()), id, *req.Concluida))
}

func (h *CycleHandler) ToggleFinalized(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req finalizedRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.result(w, r, http.StatusOK)(h.cycle.ToggleFinalized(r.Context(), middleware.GetUserID(r.Context()), id, *req.Finalizada))
}

func (h *CycleHandler) UpdateDate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req dateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.result(w, r, http.StatusOK)(h.cycle.UpdateStudyOrReviewDate(r.Context(), middleware.GetUserID(r.Context()), id, req.Campo, req.Data))
}

func (h *CycleHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.exporter.ExportCycle(r.Context(), middleware.GetUserID(r.Context()), &buf); err != nil {
		handleServiceError(w, r, err)
		return
	}

	name := fmt.Sprintf("ciclo-%s.xlsx", time.Now().In(h.cycle.Location()).Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *CycleHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reviews, err := h.cycle.ListReviews(r.Context(), middleware.GetUserID(r.Context()), q.Get("status"), q.Get("de"), q.Get("ate"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reviews": reviews})
}

func (h *CycleHandler) ToggleReview(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req completedRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.result(w, r, http.StatusOK)(h.cycle.ToggleReviewCompleted(r.Context(), middleware.GetUserID(r.Context()), id, *req.Concluida))
}

// result writes an action outcome and invalidates the views it names.
func (h *CycleHandler) result(w http.ResponseWriter, r *http.Request, status int) func(*services.ActionResult, error) {
	return func(res *services.ActionResult, err error) {
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		respond(w, r, h.inv, status, res, res.Views)
	}
}
