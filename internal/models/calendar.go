package models

// CalendarEvent is one entry of the merged month view.
type CalendarEvent struct {
	Tipo      string `json:"tipo"` // "lembrete" | "revisao" | "estudo" | "prova" | "tarefa"
	ID        int64  `json:"id"`
	Data      string `json:"data"` // YYYY-MM-DD
	Titulo    string `json:"titulo"`
	Detalhe   string `json:"detalhe,omitempty"`
	Cor       string `json:"cor,omitempty"`
	Concluida bool   `json:"concluida"`
}

type NextExam struct {
	ID            int64  `json:"id"`
	Nome          string `json:"nome"`
	DataProva     string `json:"data_prova"`
	DiasRestantes int    `json:"dias_restantes"`
}

type DashboardStats struct {
	SessoesTotal       int       `json:"sessoes_total"`
	SessoesConcluidas  int       `json:"sessoes_concluidas"`
	SessoesFinalizadas int       `json:"sessoes_finalizadas"`
	QuestoesAcertos    int       `json:"questoes_acertos"`
	QuestoesTotal      int       `json:"questoes_total"`
	Aproveitamento     float64   `json:"aproveitamento"`
	RevisoesHoje       int       `json:"revisoes_hoje"`
	RevisoesAtrasadas  int       `json:"revisoes_atrasadas"`
	TarefasPendentes   int       `json:"tarefas_pendentes"`
	ProximaProva       *NextExam `json:"proxima_prova"`
	ProximasRevisoes   []Review  `json:"proximas_revisoes"`
}

// CalendarMonth is the cached payload of the calendar view.
type CalendarMonth struct {
	Mes     string          `json:"mes"` // YYYY-MM
	De      string          `json:"de"`
	Ate     string          `json:"ate"`
	Eventos []CalendarEvent `json:"eventos"`
}
