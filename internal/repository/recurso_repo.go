package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hub-helio-backend/internal/models"
)

type RecursoRepo struct {
	pool *pgxpool.Pool
}

func NewRecursoRepo(pool *pgxpool.Pool) *RecursoRepo {
	return &RecursoRepo{pool: pool}
}

const recursoColumns = `id, user_id, parent_id, titulo, tipo, url, descricao, metadata, created_at`

func scanRecurso(row scanner) (*models.Recurso, error) {
	rc := &models.Recurso{}
	err := row.Scan(&rc.ID, &rc.UserID, &rc.ParentID, &rc.Titulo, &rc.Tipo, &rc.URL, &rc.Descricao, &rc.Metadata, &rc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func (r *RecursoRepo) List(ctx context.Context, userID uuid.UUID) ([]*models.Recurso, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+recursoColumns+` FROM recursos
		WHERE user_id = $1 ORDER BY (tipo = 'pasta') DESC, titulo ASC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*models.Recurso{}
	for rows.Next() {
		rc, err := scanRecurso(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rc)
	}
	return items, rows.Err()
}

func (r *RecursoRepo) Get(ctx context.Context, userID uuid.UUID, id int64) (*models.Recurso, error) {
	return scanRecurso(r.pool.QueryRow(ctx,
		`SELECT `+recursoColumns+` FROM recursos WHERE id = $1 AND user_id = $2`, id, userID))
}

func (r *RecursoRepo) Create(ctx context.Context, rc *models.Recurso) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO recursos (user_id, parent_id, titulo, tipo, url, descricao, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		rc.UserID, rc.ParentID, rc.Titulo, rc.Tipo, rc.URL, rc.Descricao, nullJSON(rc.Metadata),
	).Scan(&rc.ID, &rc.CreatedAt)
}

func (r *RecursoRepo) Update(ctx context.Context, rc *models.Recurso) error {
	return r.pool.QueryRow(ctx, `
		UPDATE recursos SET titulo = $1, tipo = $2, url = $3, descricao = $4, metadata = COALESCE($5, metadata)
		WHERE id = $6 AND user_id = $7
		RETURNING parent_id, metadata, created_at`,
		rc.Titulo, rc.Tipo, rc.URL, rc.Descricao, nullJSON(rc.Metadata), rc.ID, rc.UserID,
	).Scan(&rc.ParentID, &rc.Metadata, &rc.CreatedAt)
}

func (r *RecursoRepo) Move(ctx context.Context, userID uuid.UUID, id int64, parentID *int64) (bool, error) {
	return moveNode(ctx, r.pool, tableRecursos, userID, id, parentID)
}

func (r *RecursoRepo) Delete(ctx context.Context, userID uuid.UUID, id int64) (bool, error) {
	return deleteNode(ctx, r.pool, tableRecursos, userID, id)
}
