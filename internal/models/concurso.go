package models

import (
	"time"

	"github.com/google/uuid"
)

// Concurso is a tracked exam (table concursos).
type Concurso struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Nome      string    `json:"nome"`
	Banca     string    `json:"banca"`
	Cargo     string    `json:"cargo"`
	DataProva *string   `json:"data_prova"` // YYYY-MM-DD
	Status    string    `json:"status"`     // "interesse" | "inscrito" | "realizado" | "aprovado"
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"created_at"`
}

type ConcursoRequest struct {
	Nome      string  `json:"nome" validate:"required,max=200"`
	Banca     string  `json:"banca" validate:"max=120"`
	Cargo     string  `json:"cargo" validate:"max=200"`
	DataProva *string `json:"data_prova" validate:"omitempty,datetime=2006-01-02"`
	Status    string  `json:"status" validate:"omitempty,oneof=interesse inscrito realizado aprovado"`
	Link      string  `json:"link" validate:"omitempty,url,max=1000"`
}
