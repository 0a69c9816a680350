package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type FlashcardDeck struct {
	ID         int64           `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Titulo     string          `json:"titulo"`
	OrigemTipo string          `json:"origem_tipo"` // "anotacao" | "documento" | "recurso"
	OrigemID   int64           `json:"origem_id"`
	ConfigJSON json.RawMessage `json:"config"`
	CardCount  int             `json:"card_count"`
	CreatedAt  time.Time       `json:"created_at"`
}

type FlashcardCard struct {
	ID             int64      `json:"id"`
	DeckID         int64      `json:"deck_id"`
	Frente         string     `json:"frente"`
	Verso          string     `json:"verso"`
	Dica           *string    `json:"dica"`
	Difficulty     int        `json:"difficulty"` // 1=easy, 2=medium, 3=hard
	IntervalDays   int        `json:"interval_days"`
	EaseFactor     float64    `json:"ease_factor"`
	Repetitions    int        `json:"repetitions"`
	NextReviewAt   time.Time  `json:"next_review_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"`
}

type GenerateFlashcardsRequest struct {
	OrigemTipo   string `json:"origem_tipo" validate:"required,oneof=anotacao documento recurso"`
	OrigemID     int64  `json:"origem_id" validate:"required,gt=0"`
	Titulo       string `json:"titulo" validate:"max=200"`
	NumCards     int    `json:"num_cards" validate:"omitempty,gte=1,lte=50"`
	IncludeDicas bool   `json:"include_dicas"`
}

type CardRatingRequest struct {
	Rating int `json:"rating" validate:"gte=0,lte=3"` // 0=Again, 1=Hard, 2=Good, 3=Easy
}

type DeckStats struct {
	TotalCards  int     `json:"total_cards"`
	Mastered    int     `json:"mastered"`
	Learning    int     `json:"learning"`
	New         int     `json:"new"`
	DueToday    int     `json:"due_today"`
	MasteryRate float64 `json:"mastery_rate"`
}

type DeckDetail struct {
	*FlashcardDeck
	Cards []FlashcardCard `json:"cards"`
}
