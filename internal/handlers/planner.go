package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"hub-helio-backend/internal/middleware"
	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/services"
	"hub-helio-backend/internal/views"
)

// PlannerHandler serves reminders, exams and tasks.
type PlannerHandler struct {
	planner *services.PlannerService
	inv     invalidator
}

func NewPlannerHandler(planner *services.PlannerService, inv invalidator) *PlannerHandler {
	return &PlannerHandler{planner: planner, inv: inv}
}

func (h *PlannerHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	items, err := h.planner.ListReminders(r.Context(), middleware.GetUserID(r.Context()), r.URL.Query().Get("mes"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lembretes": items})
}

func (h *PlannerHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var req models.ReminderRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	res, err := h.planner.CreateReminder(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusCreated, res, res.Views)
}

func (h *PlannerHandler) UpdateReminder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req models.ReminderRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	res, err := h.planner.UpdateReminder(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusOK, res, res.Views)
}

func (h *PlannerHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	h.deleteBy(w, r, h.planner.DeleteReminder)
}

func (h *PlannerHandler) ListConcursos(w http.ResponseWriter, r *http.Request) {
	items, err := h.planner.ListConcursos(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"concursos": items})
}

func (h *PlannerHandler) CreateConcurso(w http.ResponseWriter, r *http.Request) {
	var req models.ConcursoRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	res, err := h.planner.CreateConcurso(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusCreated, res, res.Views)
}

func (h *PlannerHandler) UpdateConcurso(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req models.ConcursoRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	res, err := h.planner.UpdateConcurso(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusOK, res, res.Views)
}

func (h *PlannerHandler) DeleteConcurso(w http.ResponseWriter, r *http.Request) {
	h.deleteBy(w, r, h.planner.DeleteConcurso)
}

func (h *PlannerHandler) ListTarefas(w http.ResponseWriter, r *http.Request) {
	items, err := h.planner.ListTarefas(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tarefas": items})
}

func (h *PlannerHandler) CreateTarefa(w http.ResponseWriter, r *http.Request) {
	var req models.TarefaRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	res, err := h.planner.CreateTarefa(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusCreated, res, res.Views)
}

func (h *PlannerHandler) UpdateTarefa(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req models.TarefaRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	res, err := h.planner.UpdateTarefa(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusOK, res, res.Views)
}

func (h *PlannerHandler) ToggleTarefa(w http.ResponseWriter, r *http.Request) {
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
	res, err := h.planner.ToggleTarefa(r.Context(), middleware.GetUserID(r.Context()), id, *req.Concluida)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusOK, res, res.Views)
}

func (h *PlannerHandler) ReorderTarefas(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	set, err := h.planner.ReorderTarefas(r.Context(), middleware.GetUserID(r.Context()), req.IDs)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusOK, map[string]interface{}{"ids": req.IDs}, set)
}

func (h *PlannerHandler) DeleteTarefa(w http.ResponseWriter, r *http.Request) {
	h.deleteBy(w, r, h.planner.DeleteTarefa)
}

func (h *PlannerHandler) deleteBy(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, userID uuid.UUID, id int64) (views.Set, error)) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	set, err := del(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusOK, map[string]interface{}{"deleted": id}, set)
}
