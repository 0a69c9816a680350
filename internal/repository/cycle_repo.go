package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/schedule"
)

// CycleTx is the set of statements a study-cycle action can run inside one
// transaction. Every statement is scoped to the transaction's user.
type CycleTx interface {
	GetSession(ctx context.Context, id int64) (*models.CycleSession, error)
	InsertSession(ctx context.Context, s *models.CycleSession) error
	NextOrdem(ctx context.Context) (int, error)
	UpdateFields(ctx context.Context, s *models.CycleSession) error
	UpdateDates(ctx context.Context, id int64, concluida bool, d models.SessionDates) error
	SetSessionDate(ctx context.Context, id int64, field schedule.Field, t time.Time) error
	SetFinalized(ctx context.Context, id int64, finalized bool) error
	SetOrdem(ctx context.Context, id int64, ordem int) (int64, error)
	DeleteSessions(ctx context.Context, ids []int64) (int64, error)
	DeleteAllSessions(ctx context.Context) (int64, error)

	ListReviews(ctx context.Context, sessionID int64) ([]models.Review, error)
	InsertReviews(ctx context.Context, reviews []models.Review) error
	UpdateReviewDate(ctx context.Context, sessionID int64, kind schedule.Kind, date string) (int64, error)
	UpsertReviewDate(ctx context.Context, rv *models.Review) error
	DeleteReviews(ctx context.Context, sessionIDs []int64) (int64, error)
}

type CycleRepo struct {
	pool *pgxpool.Pool
}

func NewCycleRepo(pool *pgxpool.Pool) *CycleRepo {
	return &CycleRepo{pool: pool}
}

// InTx runs fn in a single transaction; any error rolls everything back.
func (r *CycleRepo) InTx(ctx context.Context, userID uuid.UUID, fn func(tx CycleTx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&cycleTx{tx: tx, userID: userID})
	})
}

const sessionColumns = `s.id, s.user_id, s.ordem, s.disciplina_id, p.titulo, s.materia_nome, s.foco_sugerido,
	s.diario_de_bordo, s.questoes_acertos, s.questoes_total, s.concluida, s.materia_finalizada,
	s.data_estudo, s.data_revisao_1, s.data_revisao_2, s.data_revisao_3, s.created_at`

const sessionFrom = `FROM ciclo_sessoes s LEFT JOIN paginas p ON p.id = s.disciplina_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.CycleSession, error) {
	s := &models.CycleSession{}
	err := row.Scan(
		&s.ID, &s.UserID, &s.Ordem, &s.DisciplinaID, &s.DisciplinaTitulo, &s.MateriaNome, &s.FocoSugerido,
		&s.DiarioDeBordo, &s.QuestoesAcertos, &s.QuestoesTotal, &s.Concluida, &s.MateriaFinalizada,
		&s.DataEstudo, &s.DataRevisao1, &s.DataRevisao2, &s.DataRevisao3, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *CycleRepo) List(ctx context.Context, userID uuid.UUID) ([]*models.CycleSession, error) {
	query := `SELECT ` + sessionColumns + ` ` + sessionFrom + `
		WHERE s.user_id = $1 ORDER BY s.ordem ASC, s.id ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []*models.CycleSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

type cycleTx struct {
	tx     pgx.Tx
	userID uuid.UUID
}

func (t *cycleTx) GetSession(ctx context.Context, id int64) (*models.CycleSession, error) {
	query := `SELECT ` + sessionColumns + ` ` + sessionFrom + `
		WHERE s.id = $1 AND s.user_id = $2 FOR UPDATE OF s`
	return scanSession(t.tx.QueryRow(ctx, query, id, t.userID))
}

func (t *cycleTx) InsertSession(ctx context.Context, s *models.CycleSession) error {
	s.UserID = t.userID
	return t.tx.QueryRow(ctx, `
		INSERT INTO ciclo_sessoes (user_id, ordem, disciplina_id, materia_nome, foco_sugerido)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, t.userID, s.Ordem, s.DisciplinaID, s.MateriaNome, s.FocoSugerido).Scan(&s.ID, &s.CreatedAt)
}

func (t *cycleTx) NextOrdem(ctx context.Context) (int, error) {
	var next int
	err := t.tx.QueryRow(ctx,
		"SELECT COALESCE(MAX(ordem), 0) + 1 FROM ciclo_sessoes WHERE user_id = $1",
		t.userID,
	).Scan(&next)
	return next, err
}

func (t *cycleTx) UpdateFields(ctx context.Context, s *models.CycleSession) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE ciclo_sessoes
		SET disciplina_id = $1, materia_nome = $2, foco_sugerido = $3, diario_de_bordo = $4,
			questoes_acertos = $5, questoes_total = $6
		WHERE id = $7 AND user_id = $8
	`, s.DisciplinaID, s.MateriaNome, s.FocoSugerido, s.DiarioDeBordo,
		s.QuestoesAcertos, s.QuestoesTotal, s.ID, t.userID)
	return err
}

func (t *cycleTx) UpdateDates(ctx context.Context, id int64, concluida bool, d models.SessionDates) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE ciclo_sessoes
		SET concluida = $1, data_estudo = $2, data_revisao_1 = $3, data_revisao_2 = $4, data_revisao_3 = $5
		WHERE id = $6 AND user_id = $7
	`, concluida, d.DataEstudo, d.DataRevisao1, d.DataRevisao2, d.DataRevisao3, id, t.userID)
	return err
}

var dateColumns = map[schedule.Field]string{
	schedule.FieldStudyDate: "data_estudo",
	schedule.FieldReview1:   "data_revisao_1",
	schedule.FieldReview2:   "data_revisao_2",
	schedule.FieldReview3:   "data_revisao_3",
}

func (t *cycleTx) SetSessionDate(ctx context.Context, id int64, field schedule.Field, ts time.Time) error {
	column, ok := dateColumns[field]
	if !ok {
		return fmt.Errorf("unknown date field %q", field)
	}
	query := fmt.Sprintf("UPDATE ciclo_sessoes SET %s = $1 WHERE id = $2 AND user_id = $3", column)
	_, err := t.tx.Exec(ctx, query, ts, id, t.userID)
	return err
}

func (t *cycleTx) SetFinalized(ctx context.Context, id int64, finalized bool) error {
	_, err := t.tx.Exec(ctx,
		"UPDATE ciclo_sessoes SET materia_finalizada = $1 WHERE id = $2 AND user_id = $3",
		finalized, id, t.userID,
	)
	return err
}

func (t *cycleTx) SetOrdem(ctx context.Context, id int64, ordem int) (int64, error) {
	tag, err := t.tx.Exec(ctx,
		"UPDATE ciclo_sessoes SET ordem = $1 WHERE id = $2 AND user_id = $3",
		ordem, id, t.userID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *cycleTx) DeleteSessions(ctx context.Context, ids []int64) (int64, error) {
	tag, err := t.tx.Exec(ctx,
		"DELETE FROM ciclo_sessoes WHERE user_id = $1 AND id = ANY($2)",
		t.userID, ids,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *cycleTx) DeleteAllSessions(ctx context.Context) (int64, error) {
	if _, err := t.tx.Exec(ctx, "DELETE FROM revisoes WHERE user_id = $1", t.userID); err != nil {
		return 0, err
	}
	tag, err := t.tx.Exec(ctx, "DELETE FROM ciclo_sessoes WHERE user_id = $1", t.userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const reviewColumns = `id, user_id, ciclo_sessao_id, tipo_revisao, to_char(data_revisao, 'YYYY-MM-DD'),
	concluida, materia_nome, foco_sugerido, created_at`

func scanReview(row scanner) (models.Review, error) {
	var rv models.Review
	err := row.Scan(
		&rv.ID, &rv.UserID, &rv.CicloSessaoID, &rv.TipoRevisao, &rv.DataRevisao,
		&rv.Concluida, &rv.MateriaNome, &rv.FocoSugerido, &rv.CreatedAt,
	)
	return rv, err
}

func (t *cycleTx) ListReviews(ctx context.Context, sessionID int64) ([]models.Review, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+reviewColumns+` FROM revisoes
		WHERE ciclo_sessao_id = $1 AND user_id = $2 ORDER BY data_revisao ASC, id ASC`,
		sessionID, t.userID,
	)
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

// InsertReviews sends all rows in one batch and fills in their ids.
func (t *cycleTx) InsertReviews(ctx context.Context, reviews []models.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rv := range reviews {
		batch.Queue(`
			INSERT INTO revisoes (user_id, ciclo_sessao_id, tipo_revisao, data_revisao, concluida, materia_nome, foco_sugerido)
			VALUES ($1, $2, $3, $4::date, $5, $6, $7)
			RETURNING id, created_at
		`, t.userID, rv.CicloSessaoID, rv.TipoRevisao, rv.DataRevisao, rv.Concluida, rv.MateriaNome, rv.FocoSugerido)
	}

	br := t.tx.SendBatch(ctx, batch)
	for i := range reviews {
		if err := br.QueryRow().Scan(&reviews[i].ID, &reviews[i].CreatedAt); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert review %s: %w", reviews[i].TipoRevisao, err)
		}
		reviews[i].UserID = t.userID
	}
	return br.Close()
}

func (t *cycleTx) UpdateReviewDate(ctx context.Context, sessionID int64, kind schedule.Kind, date string) (int64, error) {
	tag, err := t.tx.Exec(ctx, `
		UPDATE revisoes SET data_revisao = $1::date
		WHERE ciclo_sessao_id = $2 AND tipo_revisao = $3 AND user_id = $4
	`, date, sessionID, string(kind), t.userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UpsertReviewDate creates the (session, kind) review or moves its date,
// keeping concluida on an existing row.
func (t *cycleTx) UpsertReviewDate(ctx context.Context, rv *models.Review) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO revisoes (user_id, ciclo_sessao_id, tipo_revisao, data_revisao, concluida, materia_nome, foco_sugerido)
		VALUES ($1, $2, $3, $4::date, FALSE, $5, $6)
		ON CONFLICT (ciclo_sessao_id, tipo_revisao) DO UPDATE SET data_revisao = EXCLUDED.data_revisao
		RETURNING id, concluida, created_at
	`, t.userID, rv.CicloSessaoID, rv.TipoRevisao, rv.DataRevisao, rv.MateriaNome, rv.FocoSugerido,
	).Scan(&rv.ID, &rv.Concluida, &rv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert review %s: %w", rv.TipoRevisao, err)
	}
	rv.UserID = t.userID
	return nil
}

func (t *cycleTx) DeleteReviews(ctx context.Context, sessionIDs []int64) (int64, error) {
	tag, err := t.tx.Exec(ctx,
		"DELETE FROM revisoes WHERE user_id = $1 AND ciclo_sessao_id = ANY($2)",
		t.userID, sessionIDs,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
