package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hub-helio-backend/internal/models"
)

type DocumentoRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentoRepo(pool *pgxpool.Pool) *DocumentoRepo {
	return &DocumentoRepo{pool: pool}
}

func scanDocumento(row scanner) (*models.Documento, error) {
	d := &models.Documento{}
	err := row.Scan(&d.ID, &d.UserID, &d.ParentID, &d.Titulo, &d.Icone, &d.Conteudo, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DocumentoRepo) List(ctx context.Context, userID uuid.UUID) ([]*models.Documento, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, parent_id, titulo, icone, NULL::jsonb, created_at, updated_at
		FROM documentos WHERE user_id = $1 ORDER BY titulo ASC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []*models.Documento{}
	for rows.Next() {
		d, err := scanDocumento(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *DocumentoRepo) Get(ctx context.Context, userID uuid.UUID, id int64) (*models.Documento, error) {
	return scanDocumento(r.pool.QueryRow(ctx, `
		SELECT id, user_id, parent_id, titulo, icone, conteudo, created_at, updated_at
		FROM documentos WHERE id = $1 AND user_id = $2`, id, userID))
}

func (r *DocumentoRepo) Create(ctx context.Context, d *models.Documento) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO documentos (user_id, parent_id, titulo, icone, conteudo)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		d.UserID, d.ParentID, d.Titulo, d.Icone, nullJSON(d.Conteudo),
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

func (r *DocumentoRepo) Update(ctx context.Context, d *models.Documento) error {
	return r.pool.QueryRow(ctx, `
		UPDATE documentos SET titulo = $1, icone = $2, conteudo = COALESCE($3, conteudo), updated_at = NOW()
		WHERE id = $4 AND user_id = $5
		RETURNING parent_id, created_at, updated_at`,
		d.Titulo, d.Icone, nullJSON(d.Conteudo), d.ID, d.UserID,
	).Scan(&d.ParentID, &d.CreatedAt, &d.UpdatedAt)
}

func (r *DocumentoRepo) Move(ctx context.Context, userID uuid.UUID, id int64, parentID *int64) (bool, error) {
	return moveNode(ctx, r.pool, tableDocumentos, userID, id, parentID)
}

func (r *DocumentoRepo) Delete(ctx context.Context, userID uuid.UUID, id int64) (bool, error) {
	return deleteNode(ctx, r.pool, tableDocumentos, userID, id)
}
