package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Pagina is a subject page ("disciplina"); pages nest through parent_id.
type Pagina struct {
	ID         int64           `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	ParentID   *int64          `json:"parent_id"`
	Titulo     string          `json:"titulo"`
	Icone      string          `json:"icone"`
	Conteudo   json.RawMessage `json:"conteudo,omitempty"`
	Ordem      int             `json:"ordem"`
	ConcursoID *int64          `json:"concurso_id"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type PaginaRequest struct {
	ParentID   *int64          `json:"parent_id" validate:"omitempty,gt=0"`
	Titulo     string          `json:"titulo" validate:"required,max=200"`
	Icone      string          `json:"icone" validate:"max=16"`
	Conteudo   json.RawMessage `json:"conteudo"`
	ConcursoID *int64          `json:"concurso_id" validate:"omitempty,gt=0"`
}

// Anotacao is a markdown note; folders are notes with IsPasta set.
type Anotacao struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ParentID  *int64    `json:"parent_id"`
	Titulo    string    `json:"titulo"`
	Conteudo  string    `json:"conteudo"`
	IsPasta   bool      `json:"is_pasta"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AnotacaoRequest struct {
	ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	Titulo   string `json:"titulo" validate:"required,max=200"`
	Conteudo string `json:"conteudo" validate:"max=200000"`
	IsPasta  bool   `json:"is_pasta"`
}

// Documento holds a rich-text editor document as opaque JSON.
type Documento struct {
	ID        int64           `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	ParentID  *int64          `json:"parent_id"`
	Titulo    string          `json:"titulo"`
	Icone     string          `json:"icone"`
	Conteudo  json.RawMessage `json:"conteudo,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type DocumentoRequest struct {
	ParentID *int64          `json:"parent_id" validate:"omitempty,gt=0"`
	Titulo   string          `json:"titulo" validate:"required,max=200"`
	Icone    string          `json:"icone" validate:"max=16"`
	Conteudo json.RawMessage `json:"conteudo"`
}

// Recurso is a library entry; folders use tipo "pasta".
type Recurso struct {
	ID        int64           `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	ParentID  *int64          `json:"parent_id"`
	Titulo    string          `json:"titulo"`
	Tipo      string          `json:"tipo"` // "link" | "video" | "pdf" | "pasta"
	URL       string          `json:"url"`
	Descricao string          `json:"descricao"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type RecursoRequest struct {
	ParentID  *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	Titulo    string `json:"titulo" validate:"max=300"`
	Tipo      string `json:"tipo" validate:"required,oneof=link video pdf pasta"`
	URL       string `json:"url" validate:"omitempty,url,max=2000"`
	Descricao string `json:"descricao" validate:"max=5000"`
}

type MoveRequest struct {
	ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
}
