package models

import (
	"time"

	"github.com/google/uuid"
)

// Tarefa is a to-do item (table tarefas).
type Tarefa struct {
	ID         int64     `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Titulo     string    `json:"titulo"`
	Concluida  bool      `json:"concluida"`
	DataLimite *string   `json:"data_limite"` // YYYY-MM-DD
	Prioridade string    `json:"prioridade"`  // "baixa" | "media" | "alta"
	Ordem      int       `json:"ordem"`
	CreatedAt  time.Time `json:"created_at"`
}

type TarefaRequest struct {
	Titulo     string  `json:"titulo" validate:"required,max=300"`
	DataLimite *string `json:"data_limite" validate:"omitempty,datetime=2006-01-02"`
	Prioridade string  `json:"prioridade" validate:"omitempty,oneof=baixa media alta"`
}
