package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hub-helio-backend/internal/models"
)

type PaginaRepo struct {
	pool *pgxpool.Pool
}

func NewPaginaRepo(pool *pgxpool.Pool) *PaginaRepo {
	return &PaginaRepo{pool: pool}
}

const paginaColumns = `id, user_id, parent_id, titulo, icone, conteudo, ordem, concurso_id, created_at, updated_at`

func scanPagina(row scanner) (*models.Pagina, error) {
	p := &models.Pagina{}
	err := row.Scan(&p.ID, &p.UserID, &p.ParentID, &p.Titulo, &p.Icone, &p.Conteudo, &p.Ordem, &p.ConcursoID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List omits the editor document; the tree only needs titles.
func (r *PaginaRepo) List(ctx context.Context, userID uuid.UUID) ([]*models.Pagina, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, parent_id, titulo, icone, NULL::jsonb, ordem, concurso_id, created_at, updated_at
		FROM paginas WHERE user_id = $1 ORDER BY ordem ASC, titulo ASC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paginas := []*models.Pagina{}
	for rows.Next() {
		p, err := scanPagina(rows)
		if err != nil {
			return nil, err
		}
		paginas = append(paginas, p)
	}
	return paginas, rows.Err()
}

func (r *PaginaRepo) Get(ctx context.Context, userID uuid.UUID, id int64) (*models.Pagina, error) {
	return scanPagina(r.pool.QueryRow(ctx,
		`SELECT `+paginaColumns+` FROM paginas WHERE id = $1 AND user_id = $2`, id, userID))
}

func (r *PaginaRepo) Create(ctx context.Context, p *models.Pagina) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO paginas (user_id, parent_id, titulo, icone, conteudo, ordem, concurso_id)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(ordem), 0) + 1 FROM paginas WHERE user_id = $1), $6)
		RETURNING id, ordem, created_at, updated_at`,
		p.UserID, p.ParentID, p.Titulo, p.Icone, nullJSON(p.Conteudo), p.ConcursoID,
	).Scan(&p.ID, &p.Ordem, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PaginaRepo) Update(ctx context.Context, p *models.Pagina) error {
	return r.pool.QueryRow(ctx, `
		UPDATE paginas SET titulo = $1, icone = $2, conteudo = COALESCE($3, conteudo), concurso_id = $4, updated_at = NOW()
		WHERE id = $5 AND user_id = $6
		RETURNING parent_id, ordem, created_at, updated_at`,
		p.Titulo, p.Icone, nullJSON(p.Conteudo), p.ConcursoID, p.ID, p.UserID,
	).Scan(&p.ParentID, &p.Ordem, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PaginaRepo) Move(ctx context.Context, userID uuid.UUID, id int64, parentID *int64) (bool, error) {
	return moveNode(ctx, r.pool, tablePaginas, userID, id, parentID)
}

func (r *PaginaRepo) Delete(ctx context.Context, userID uuid.UUID, id int64) (bool, error) {
	return deleteNode(ctx, r.pool, tablePaginas, userID, id)
}

// nullJSON maps an absent document to SQL NULL instead of invalid jsonb.
func nullJSON(raw []byte) []byte {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}
