package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"hub-helio-backend/internal/middleware"
	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/services"
	"hub-helio-backend/internal/tree"
	"hub-helio-backend/internal/views"
)

type treeOps[T any] interface {
	Tree(ctx context.Context, userID uuid.UUID) ([]*tree.Node[T], error)
	Get(ctx context.Context, userID uuid.UUID, id int64) (T, error)
	Move(ctx context.Context, userID uuid.UUID, id int64, parentID *int64) (views.Set, error)
	Delete(ctx context.Context, userID uuid.UUID, id int64) (views.Set, error)
}

// TreeRoutes serves the read, move and delete endpoints every nested
// collection shares.
type TreeRoutes[T any] struct {
	ops treeOps[T]
	inv invalidator
}

func (t *TreeRoutes[T]) Tree(w http.ResponseWriter, r *http.Request) {
	roots, err := t.ops.Tree(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tree": roots})
}

func (t *TreeRoutes[T]) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	item, err := t.ops.Get(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"item": item})
}

func (t *TreeRoutes[T]) Move(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req models.MoveRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	set, err := t.ops.Move(r.Context(), middleware.GetUserID(r.Context()), id, req.ParentID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, t.inv, http.StatusOK, map[string]interface{}{"id": id, "parent_id": req.ParentID}, set)
}

func (t *TreeRoutes[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	set, err := t.ops.Delete(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, t.inv, http.StatusOK, map[string]interface{}{"deleted": id}, set)
}

type LibraryHandler struct {
	Paginas    *TreeRoutes[*models.Pagina]
	Anotacoes  *TreeRoutes[*models.Anotacao]
	Documentos *TreeRoutes[*models.Documento]
	Recursos   *TreeRoutes[*models.Recurso]

	lib *services.LibraryService
	inv invalidator
}

func NewLibraryHandler(lib *services.LibraryService, inv invalidator) *LibraryHandler {
	return &LibraryHandler{
		Paginas:    &TreeRoutes[*models.Pagina]{ops: lib.Paginas, inv: inv},
		Anotacoes:  &TreeRoutes[*models.Anotacao]{ops: lib.Anotacoes, inv: inv},
		Documentos: &TreeRoutes[*models.Documento]{ops: lib.Documentos, inv: inv},
		Recursos:   &TreeRoutes[*models.Recurso]{ops: lib.Recursos, inv: inv},
		lib:        lib,
		inv:        inv,
	}
}

func (h *LibraryHandler) CreatePagina(w http.ResponseWriter, r *http.Request) {
	var req models.PaginaRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	res, err := h.lib.CreatePagina(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusCreated, res, res.Views)
}

func (h *LibraryHandler) UpdatePagina(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req models.PaginaRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	res, err := h.lib.UpdatePagina(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusOK, res, res.Views)
}

func (h *LibraryHandler) CreateAnotacao(w http.ResponseWriter, r *http.Request) {
	var req models.AnotacaoRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	res, err := h.lib.CreateAnotacao(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusCreated, res, res.Views)
}

func (h *LibraryHandler) UpdateAnotacao(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req models.AnotacaoRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	res, err := h.lib.UpdateAnotacao(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusOK, res, res.Views)
}

func (h *LibraryHandler) AnotacaoHTML(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	html, err := h.lib.AnotacaoHTML(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "html": html})
}

func (h *LibraryHandler) CreateDocumento(w http.ResponseWriter, r *http.Request) {
	var req models.DocumentoRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	res, err := h.lib.CreateDocumento(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusCreated, res, res.Views)
}

func (h *LibraryHandler) UpdateDocumento(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req models.DocumentoRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	res, err := h.lib.UpdateDocumento(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusOK, res, res.Views)
}

func (h *LibraryHandler) CreateRecurso(w http.ResponseWriter, r *http.Request) {
	var req models.RecursoRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	res, err := h.lib.CreateRecurso(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusCreated, res, res.Views)
}

func (h *LibraryHandler) UpdateRecurso(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req models.RecursoRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	res, err := h.lib.UpdateRecurso(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusOK, res, res.Views)
}
