package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hub-helio-backend/internal/models"
)

// DashboardRepo runs the read-only aggregate queries behind the calendar
// and dashboard views.
type DashboardRepo struct {
	pool *pgxpool.Pool
}

func NewDashboardRepo(pool *pgxpool.Pool) *DashboardRepo {
	return &DashboardRepo{pool: pool}
}

// CalendarEvents merges every dated entity between from and to (inclusive).
// Study timestamps are bucketed into days in the tz time zone.
func (r *DashboardRepo) CalendarEvents(ctx context.Context, userID uuid.UUID, from, to, tz string) ([]models.CalendarEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT 'lembrete', id, to_char(data, 'YYYY-MM-DD'), titulo, '', cor, FALSE
		FROM lembretes WHERE user_id = $1 AND data BETWEEN $2::date AND $3::date
		UNION ALL
		SELECT 'revisao', id, to_char(data_revisao, 'YYYY-MM-DD'), materia_nome, tipo_revisao, '', concluida
		FROM revisoes WHERE user_id = $1 AND data_revisao BETWEEN $2::date AND $3::date
		UNION ALL
		SELECT 'estudo', id, to_char(data_estudo AT TIME ZONE $4, 'YYYY-MM-DD'), materia_nome, foco_sugerido, '', concluida
		FROM ciclo_sessoes WHERE user_id = $1 AND data_estudo IS NOT NULL
			AND (data_estudo AT TIME ZONE $4)::date BETWEEN $2::date AND $3::date
		UNION ALL
		SELECT 'prova', id, to_char(data_prova, 'YYYY-MM-DD'), nome, banca, '', status IN ('realizado', 'aprovado')
		FROM concursos WHERE user_id = $1 AND data_prova BETWEEN $2::date AND $3::date
		UNION ALL
		SELECT 'tarefa', id, to_char(data_limite, 'YYYY-MM-DD'), titulo, prioridade, '', concluida
		FROM tarefas WHERE user_id = $1 AND data_limite BETWEEN $2::date AND $3::date
		ORDER BY 3, 1, 2`,
		userID, from, to, tz,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.CalendarEvent{}
	for rows.Next() {
		var e models.CalendarEvent
		if err := rows.Scan(&e.Tipo, &e.ID, &e.Data, &e.Titulo, &e.Detalhe, &e.Cor, &e.Concluida); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Stats fills the counters of the dashboard; today is YYYY-MM-DD in the
// user's calendar.
func (r *DashboardRepo) Stats(ctx context.Context, userID uuid.UUID, today string) (*models.DashboardStats, error) {
	st := &models.DashboardStats{}

	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE concluida),
			COUNT(*) FILTER (WHERE materia_finalizada),
			COALESCE(SUM(questoes_acertos), 0),
			COALESCE(SUM(questoes_total), 0)
		FROM ciclo_sessoes WHERE user_id = $1`, userID,
	).Scan(&st.SessoesTotal, &st.SessoesConcluidas, &st.SessoesFinalizadas, &st.QuestoesAcertos, &st.QuestoesTotal)
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE data_revisao = $2::date),
			COUNT(*) FILTER (WHERE data_revisao < $2::date)
		FROM revisoes WHERE user_id = $1 AND concluida = FALSE`, userID, today,
	).Scan(&st.RevisoesHoje, &st.RevisoesAtrasadas)
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM tarefas WHERE user_id = $1 AND concluida = FALSE", userID,
	).Scan(&st.TarefasPendentes)
	if err != nil {
		return nil, err
	}

	return st, nil
}

// NextExam returns the earliest exam dated today or later, or nil.
func (r *DashboardRepo) NextExam(ctx context.Context, userID uuid.UUID, today string) (*models.NextExam, error) {
	ne := &models.NextExam{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, nome, to_char(data_prova, 'YYYY-MM-DD'), (data_prova - $2::date)
		FROM concursos
		WHERE user_id = $1 AND data_prova >= $2::date
		ORDER BY data_prova ASC, id ASC LIMIT 1`, userID, today,
	).Scan(&ne.ID, &ne.Nome, &ne.DataProva, &ne.DiasRestantes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ne, nil
}

// UpcomingReviews lists pending reviews from today on, soonest first.
func (r *DashboardRepo) UpcomingReviews(ctx context.Context, userID uuid.UUID, today string, limit int) ([]models.Review, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+reviewColumns+` FROM revisoes
		WHERE user_id = $1 AND concluida = FALSE AND data_revisao >= $2::date
		ORDER BY data_revisao ASC, id ASC LIMIT $3`, userID, today, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}
