package models

import (
	"time"

	"github.com/google/uuid"
)

// CycleSession is one slot of the repeating study cycle (table ciclo_sessoes).
type CycleSession struct {
	ID                int64      `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	Ordem             int        `json:"ordem"`
	DisciplinaID      *int64     `json:"disciplina_id"`
	DisciplinaTitulo  *string    `json:"disciplina_titulo,omitempty"`
	MateriaNome       string     `json:"materia_nome"`
	FocoSugerido      string     `json:"foco_sugerido"`
	DiarioDeBordo     string     `json:"diario_de_bordo"`
	QuestoesAcertos   int        `json:"questoes_acertos"`
	QuestoesTotal     int        `json:"questoes_total"`
	Concluida         bool       `json:"concluida"`
	MateriaFinalizada bool       `json:"materia_finalizada"`
	DataEstudo        *time.Time `json:"data_estudo"`
	DataRevisao1      *time.Time `json:"data_revisao_1"`
	DataRevisao2      *time.Time `json:"data_revisao_2"`
	DataRevisao3      *time.Time `json:"data_revisao_3"`
	CreatedAt         time.Time  `json:"created_at"`
}

// SessionDates is the four schedule columns written together. Nil clears a column.
type SessionDates struct {
	DataEstudo   *time.Time
	DataRevisao1 *time.Time
	DataRevisao2 *time.Time
	DataRevisao3 *time.Time
}

// Review is a spaced-repetition reminder derived from a completed session (table revisoes).
type Review struct {
	ID            int64     `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	CicloSessaoID int64     `json:"ciclo_sessao_id"`
	TipoRevisao   string    `json:"tipo_revisao"` // "24h" | "7 dias" | "30 dias"
	DataRevisao   string    `json:"data_revisao"` // YYYY-MM-DD
	Concluida     bool      `json:"concluida"`
	MateriaNome   string    `json:"materia_nome"`
	FocoSugerido  string    `json:"foco_sugerido"`
	CreatedAt     time.Time `json:"created_at"`
}

type CreateSessionRequest struct {
	DisciplinaID *int64 `json:"disciplina_id" validate:"omitempty,gt=0"`
	MateriaNome  string `json:"materia_nome" validate:"required,max=200"`
	FocoSugerido string `json:"foco_sugerido" validate:"max=2000"`
}

// SessionPatch carries the auto-saved fields; nil means "leave as is".
type SessionPatch struct {
	DisciplinaID    *int64  `json:"disciplina_id" validate:"omitempty,gt=0"`
	MateriaNome     *string `json:"materia_nome" validate:"omitempty,max=200"`
	FocoSugerido    *string `json:"foco_sugerido" validate:"omitempty,max=2000"`
	DiarioDeBordo   *string `json:"diario_de_bordo" validate:"omitempty,max=20000"`
	QuestoesAcertos *int    `json:"questoes_acertos" validate:"omitempty,gte=0"`
	QuestoesTotal   *int    `json:"questoes_total" validate:"omitempty,gte=0"`
}

func (p SessionPatch) Empty() bool {
	return p.DisciplinaID == nil && p.MateriaNome == nil && p.FocoSugerido == nil &&
		p.DiarioDeBordo == nil && p.QuestoesAcertos == nil && p.QuestoesTotal == nil
}

type SeedItem struct {
	DisciplinaID *int64 `json:"disciplina_id" validate:"omitempty,gt=0"`
	MateriaNome  string `json:"materia_nome" validate:"required,max=200"`
	Quantidade   int    `json:"quantidade" validate:"gte=1,lte=20"`
}

type SeedRequest struct {
	Itens   []SeedItem `json:"itens" validate:"required,min=1,max=100,dive"`
	Replace bool       `json:"substituir"`
}

type ReviewFilter struct {
	OnlyPending bool
	From        string
	To          string
}
