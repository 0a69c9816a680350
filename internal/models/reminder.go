package models

import (
	"time"

	"github.com/google/uuid"
)

// Reminder is a standalone calendar note (table lembretes).
type Reminder struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Titulo    string    `json:"titulo"`
	Data      string    `json:"data"` // YYYY-MM-DD
	Cor       string    `json:"cor"`
	CreatedAt time.Time `json:"created_at"`
}

type ReminderRequest struct {
	Titulo string `json:"titulo" validate:"required,max=200"`
	Data   string `json:"data" validate:"required,datetime=2006-01-02"`
	Cor    string `json:"cor" validate:"omitempty,max=32"`
}
