package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hub-helio-backend/internal/models"
)

type AnotacaoRepo struct {
	pool *pgxpool.Pool
}

func NewAnotacaoRepo(pool *pgxpool.Pool) *AnotacaoRepo {
	return &AnotacaoRepo{pool: pool}
}

const anotacaoColumns = `id, user_id, parent_id, titulo, conteudo, is_pasta, created_at, updated_at`

func scanAnotacao(row scanner) (*models.Anotacao, error) {
	a := &models.Anotacao{}
	err := row.Scan(&a.ID, &a.UserID, &a.ParentID, &a.Titulo, &a.Conteudo, &a.IsPasta, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AnotacaoRepo) List(ctx context.Context, userID uuid.UUID) ([]*models.Anotacao, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, parent_id, titulo, '', is_pasta, created_at, updated_at
		FROM anotacoes WHERE user_id = $1 ORDER BY is_pasta DESC, titulo ASC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []*models.Anotacao{}
	for rows.Next() {
		a, err := scanAnotacao(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, a)
	}
	return notes, rows.Err()
}

func (r *AnotacaoRepo) Get(ctx context.Context, userID uuid.UUID, id int64) (*models.Anotacao, error) {
	return scanAnotacao(r.pool.QueryRow(ctx,
		`SELECT `+anotacaoColumns+` FROM anotacoes WHERE id = $1 AND user_id = $2`, id, userID))
}

func (r *AnotacaoRepo) Create(ctx context.Context, a *models.Anotacao) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO anotacoes (user_id, parent_id, titulo, conteudo, is_pasta)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		a.UserID, a.ParentID, a.Titulo, a.Conteudo, a.IsPasta,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *AnotacaoRepo) Update(ctx context.Context, a *models.Anotacao) error {
	return r.pool.QueryRow(ctx, `
		UPDATE anotacoes SET titulo = $1, conteudo = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
		RETURNING parent_id, is_pasta, created_at, updated_at`,
		a.Titulo, a.Conteudo, a.ID, a.UserID,
	).Scan(&a.ParentID, &a.IsPasta, &a.CreatedAt, &a.UpdatedAt)
}

func (r *AnotacaoRepo) Move(ctx context.Context, userID uuid.UUID, id int64, parentID *int64) (bool, error) {
	return moveNode(ctx, r.pool, tableAnotacoes, userID, id, parentID)
}

func (r *AnotacaoRepo) Delete(ctx context.Context, userID uuid.UUID, id int64) (bool, error) {
	return deleteNode(ctx, r.pool, tableAnotacoes, userID, id)
}
