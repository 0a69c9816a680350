package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"hub-helio-backend/internal/middleware"
	"hub-helio-backend/internal/models"
)

type calendarViews interface {
	Month(ctx context.Context, userID uuid.UUID, month string) (*models.CalendarMonth, error)
	Dashboard(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error)
}

// CalendarHandler serves the two cached aggregate views.
type CalendarHandler struct {
	calendar calendarViews
}

func NewCalendarHandler(calendar calendarViews) *CalendarHandler {
	return &CalendarHandler{calendar: calendar}
}

func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	month, err := h.calendar.Month(r.Context(), middleware.GetUserID(r.Context()), r.URL.Query().Get("mes"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, month)
}

func (h *CalendarHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.calendar.Dashboard(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
