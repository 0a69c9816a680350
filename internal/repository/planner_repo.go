package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hub-helio-backend/internal/models"
)

// PlannerRepo holds the flat planning entities: reminders, exams and tasks.
type PlannerRepo struct {
	pool *pgxpool.Pool
}

func NewPlannerRepo(pool *pgxpool.Pool) *PlannerRepo {
	return &PlannerRepo{pool: pool}
}

// Reminders

const reminderColumns = `id, user_id, titulo, to_char(data, 'YYYY-MM-DD'), cor, created_at`

func scanReminder(row scanner) (*models.Reminder, error) {
	rm := &models.Reminder{}
	if err := row.Scan(&rm.ID, &rm.UserID, &rm.Titulo, &rm.Data, &rm.Cor, &rm.CreatedAt); err != nil {
		return nil, err
	}
	return rm, nil
}

// ListReminders returns reminders with from <= data <= to (YYYY-MM-DD).
func (r *PlannerRepo) ListReminders(ctx context.Context, userID uuid.UUID, from, to string) ([]*models.Reminder, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+reminderColumns+` FROM lembretes
		WHERE user_id = $1 AND data BETWEEN $2::date AND $3::date ORDER BY data ASC, id ASC`,
		userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*models.Reminder{}
	for rows.Next() {
		rm, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

func (r *PlannerRepo) CreateReminder(ctx context.Context, rm *models.Reminder) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO lembretes (user_id, titulo, data, cor) VALUES ($1, $2, $3::date, $4)
		RETURNING id, created_at`,
		rm.UserID, rm.Titulo, rm.Data, rm.Cor,
	).Scan(&rm.ID, &rm.CreatedAt)
}

func (r *PlannerRepo) UpdateReminder(ctx context.Context, rm *models.Reminder) error {
	return r.pool.QueryRow(ctx, `
		UPDATE lembretes SET titulo = $1, data = $2::date, cor = $3
		WHERE id = $4 AND user_id = $5 RETURNING created_at`,
		rm.Titulo, rm.Data, rm.Cor, rm.ID, rm.UserID,
	).Scan(&rm.CreatedAt)
}

func (r *PlannerRepo) DeleteReminder(ctx context.Context, userID uuid.UUID, id int64) (bool, error) {
	return r.deleteOwned(ctx, "DELETE FROM lembretes WHERE id = $1 AND user_id = $2", userID, id)
}

// Exams

const concursoColumns = `id, user_id, nome, banca, cargo, to_char(data_prova, 'YYYY-MM-DD'), status, link, created_at`

func scanConcurso(row scanner) (*models.Concurso, error) {
	c := &models.Concurso{}
	if err := row.Scan(&c.ID, &c.UserID, &c.Nome, &c.Banca, &c.Cargo, &c.DataProva, &c.Status, &c.Link, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PlannerRepo) ListConcursos(ctx context.Context, userID uuid.UUID) ([]*models.Concurso, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+concursoColumns+` FROM concursos
		WHERE user_id = $1 ORDER BY data_prova ASC NULLS LAST, nome ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*models.Concurso{}
	for rows.Next() {
		c, err := scanConcurso(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PlannerRepo) CreateConcurso(ctx context.Context, c *models.Concurso) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO concursos (user_id, nome, banca, cargo, data_prova, status, link)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7) RETURNING id, created_at`,
		c.UserID, c.Nome, c.Banca, c.Cargo, c.DataProva, c.Status, c.Link,
	).Scan(&c.ID, &c.CreatedAt)
}

func (r *PlannerRepo) UpdateConcurso(ctx context.Context, c *models.Concurso) error {
	return r.pool.QueryRow(ctx, `
		UPDATE concursos SET nome = $1, banca = $2, cargo = $3, data_prova = $4::date, status = $5, link = $6
		WHERE id = $7 AND user_id = $8 RETURNING created_at`,
		c.Nome, c.Banca, c.Cargo, c.DataProva, c.Status, c.Link, c.ID, c.UserID,
	).Scan(&c.CreatedAt)
}

func (r *PlannerRepo) DeleteConcurso(ctx context.Context, userID uuid.UUID, id int64) (bool, error) {
	return r.deleteOwned(ctx, "DELETE FROM concursos WHERE id = $1 AND user_id = $2", userID, id)
}

// Tasks

const tarefaColumns = `id, user_id, titulo, concluida, to_char(data_limite, 'YYYY-MM-DD'), prioridade, ordem, created_at`

func scanTarefa(row scanner) (*models.Tarefa, error) {
	t := &models.Tarefa{}
	if err := row.Scan(&t.ID, &t.UserID, &t.Titulo, &t.Concluida, &t.DataLimite, &t.Prioridade, &t.Ordem, &t.CreatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *PlannerRepo) ListTarefas(ctx context.Context, userID uuid.UUID) ([]*models.Tarefa, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+tarefaColumns+` FROM tarefas
		WHERE user_id = $1 ORDER BY concluida ASC, ordem ASC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*models.Tarefa{}
	for rows.Next() {
		t, err := scanTarefa(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PlannerRepo) CreateTarefa(ctx context.Context, t *models.Tarefa) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO tarefas (user_id, titulo, data_limite, prioridade, ordem)
		VALUES ($1, $2, $3::date, $4, (SELECT COALESCE(MAX(ordem), 0) + 1 FROM tarefas WHERE user_id = $1))
		RETURNING id, ordem, created_at`,
		t.UserID, t.Titulo, t.DataLimite, t.Prioridade,
	).Scan(&t.ID, &t.Ordem, &t.CreatedAt)
}

func (r *PlannerRepo) UpdateTarefa(ctx context.Context, t *models.Tarefa) error {
	return r.pool.QueryRow(ctx, `
		UPDATE tarefas SET titulo = $1, data_limite = $2::date, prioridade = $3
		WHERE id = $4 AND user_id = $5 RETURNING concluida, ordem, created_at`,
		t.Titulo, t.DataLimite, t.Prioridade, t.ID, t.UserID,
	).Scan(&t.Concluida, &t.Ordem, &t.CreatedAt)
}

func (r *PlannerRepo) SetTarefaConcluida(ctx context.Context, userID uuid.UUID, id int64, done bool) (*models.Tarefa, error) {
	return scanTarefa(r.pool.QueryRow(ctx, `
		UPDATE tarefas SET concluida = $1 WHERE id = $2 AND user_id = $3
		RETURNING `+tarefaColumns, done, id, userID))
}

// ReorderTarefas writes ordem = position+1 and reports how many rows matched.
func (r *PlannerRepo) ReorderTarefas(ctx context.Context, userID uuid.UUID, ids []int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tarefas t SET ordem = o.pos
		FROM unnest($1::bigint[]) WITH ORDINALITY AS o(id, pos)
		WHERE t.id = o.id AND t.user_id = $2`, ids, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PlannerRepo) DeleteTarefa(ctx context.Context, userID uuid.UUID, id int64) (bool, error) {
	return r.deleteOwned(ctx, "DELETE FROM tarefas WHERE id = $1 AND user_id = $2", userID, id)
}

func (r *PlannerRepo) deleteOwned(ctx context.Context, query string, userID uuid.UUID, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
