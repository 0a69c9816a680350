package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hub-helio-backend/internal/middleware"
	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/services"
)

type FlashcardHandler struct {
	flashcards *services.FlashcardService
	inv        invalidator
}

func NewFlashcardHandler(flashcards *services.FlashcardService, inv invalidator) *FlashcardHandler {
	return &FlashcardHandler{flashcards: flashcards, inv: inv}
}

// Generate queues an async generation job and answers 202 with its id.
func (h *FlashcardHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateFlashcardsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	job, deck, err := h.flashcards.Generate(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":  job.ID,
		"deck_id": deck.ID,
		"status":  job.Status,
	})
}

func (h *FlashcardHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.flashcards.ListDecks(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"decks": decks})
}

func (h *FlashcardHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	deck, err := h.flashcards.GetDeck(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deck)
}

func (h *FlashcardHandler) GetDeckStats(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	stats, err := h.flashcards.DeckStats(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *FlashcardHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	set, err := h.flashcards.DeleteDeck(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusOK, map[string]interface{}{"deleted": id}, set)
}

func (h *FlashcardHandler) RateCard(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req models.CardRatingRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	res, err := h.flashcards.RateCard(r.Context(), middleware.GetUserID(r.Context()), id, req.Rating)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respond(w, r, h.inv, http.StatusOK, res, res.Views)
}

func (h *FlashcardHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Identificador de tarefa inválido", r))
		return
	}
	job, err := h.flashcards.GetJob(r.Context(), middleware.GetUserID(r.Context()), jobID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
