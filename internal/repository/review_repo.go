package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hub-helio-backend/internal/models"
)

type ReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

func (r *ReviewRepo) List(ctx context.Context, userID uuid.UUID, filter models.ReviewFilter) ([]models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM revisoes WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.OnlyPending {
		query += " AND concluida = false"
	}
	if filter.From != "" {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND data_revisao >= $%d::date", len(args))
	}
	if filter.To != "" {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND data_revisao <= $%d::date", len(args))
	}
	query += " ORDER BY data_revisao ASC, id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
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

func (r *ReviewRepo) SetCompleted(ctx context.Context, userID uuid.UUID, id int64, completed bool) (*models.Review, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE revisoes SET concluida = $1
		WHERE id = $2 AND user_id = $3
		RETURNING `+reviewColumns,
		completed, id, userID,
	)
	rv, err := scanReview(row)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

// DueByUser groups pending reviews due on or before date, per owner.
func (r *ReviewRepo) DueByUser(ctx context.Context, date string) (map[uuid.UUID][]models.Review, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+reviewColumns+` FROM revisoes
		WHERE concluida = false AND data_revisao <= $1::date
		ORDER BY user_id, data_revisao ASC, id ASC`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	due := make(map[uuid.UUID][]models.Review)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		due[rv.UserID] = append(due[rv.UserID], rv)
	}
	return due, rows.Err()
}
