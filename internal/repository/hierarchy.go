package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tables whose rows nest through parent_id.
const (
	tablePaginas    = "paginas"
	tableAnotacoes  = "anotacoes"
	tableDocumentos = "documentos"
	tableRecursos   = "recursos"
)

// moveNode sets parent_id; a nil parent makes the row a root.
func moveNode(ctx context.Context, pool *pgxpool.Pool, table string, userID uuid.UUID, id int64, parentID *int64) (bool, error) {
	query := fmt.Sprintf("UPDATE %s SET parent_id = $1 WHERE id = $2 AND user_id = $3", table)
	tag, err := pool.Exec(ctx, query, parentID, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// deleteNode removes one row and hands its children to its own parent.
func deleteNode(ctx context.Context, pool *pgxpool.Pool, table string, userID uuid.UUID, id int64) (bool, error) {
	deleted := false
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		var parentID *int64
		err := tx.QueryRow(ctx,
			fmt.Sprintf("SELECT parent_id FROM %s WHERE id = $1 AND user_id = $2 FOR UPDATE", table),
			id, userID,
		).Scan(&parentID)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			fmt.Sprintf("UPDATE %s SET parent_id = $1 WHERE parent_id = $2 AND user_id = $3", table),
			parentID, id, userID,
		); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1 AND user_id = $2", table), id, userID)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return deleted, err
}
