package repository

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hub-helio-backend/internal/models"
)

type FlashcardRepo struct {
	pool *pgxpool.Pool
}

func NewFlashcardRepo(pool *pgxpool.Pool) *FlashcardRepo {
	return &FlashcardRepo{pool: pool}
}

// Deck operations

func (r *FlashcardRepo) CreateDeck(ctx context.Context, d *models.FlashcardDeck) error {
	config := []byte(d.ConfigJSON)
	if len(config) == 0 || !json.Valid(config) {
		config = []byte("{}")
	}

	query := `INSERT INTO flashcard_decks (user_id, titulo, origem_tipo, origem_id, config_json, card_count)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		d.UserID, d.Titulo, d.OrigemTipo, d.OrigemID, config, d.CardCount,
	).Scan(&d.ID, &d.CreatedAt)
}

const deckColumns = `id, user_id, titulo, origem_tipo, origem_id, config_json, card_count, created_at`

func scanDeck(row scanner) (*models.FlashcardDeck, error) {
	d := &models.FlashcardDeck{}
	err := row.Scan(&d.ID, &d.UserID, &d.Titulo, &d.OrigemTipo, &d.OrigemID, &d.ConfigJSON, &d.CardCount, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetDeck loads any deck by id; the worker uses it without an owner.
func (r *FlashcardRepo) GetDeck(ctx context.Context, id int64) (*models.FlashcardDeck, error) {
	return scanDeck(r.pool.QueryRow(ctx, `SELECT `+deckColumns+` FROM flashcard_decks WHERE id = $1`, id))
}

func (r *FlashcardRepo) GetDeckForUser(ctx context.Context, userID uuid.UUID, id int64) (*models.FlashcardDeck, error) {
	return scanDeck(r.pool.QueryRow(ctx,
		`SELECT `+deckColumns+` FROM flashcard_decks WHERE id = $1 AND user_id = $2`, id, userID))
}

func (r *FlashcardRepo) ListDecksByUser(ctx context.Context, userID uuid.UUID) ([]*models.FlashcardDeck, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+deckColumns+` FROM flashcard_decks WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	decks := []*models.FlashcardDeck{}
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

func (r *FlashcardRepo) DeleteDeck(ctx context.Context, userID uuid.UUID, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM flashcard_decks WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Card operations

// ReplaceCards swaps the deck's cards for the given set in one transaction.
func (r *FlashcardRepo) ReplaceCards(ctx context.Context, deckID int64, cards []models.FlashcardCard) error {
	firstReview := time.Now().AddDate(0, 0, 1)

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM flashcard_cards WHERE deck_id = $1", deckID); err != nil {
			return err
		}

		for i := range cards {
			cards[i].DeckID = deckID
			if cards[i].Difficulty < 1 || cards[i].Difficulty > 3 {
				cards[i].Difficulty = 2
			}
			err := tx.QueryRow(ctx,
				`INSERT INTO flashcard_cards (deck_id, frente, verso, dica, difficulty, interval_days, ease_factor, repetitions, next_review_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
				deckID, cards[i].Frente, cards[i].Verso, cards[i].Dica, cards[i].Difficulty, 1, 2.50, 0, firstReview,
			).Scan(&cards[i].ID)
			if err != nil {
				return err
			}
		}

		_, err := tx.Exec(ctx, "UPDATE flashcard_decks SET card_count = $1 WHERE id = $2", len(cards), deckID)
		return err
	})
}

func (r *FlashcardRepo) GetCardsByDeck(ctx context.Context, deckID int64) ([]models.FlashcardCard, error) {
	query := `SELECT id, deck_id, frente, verso, dica, difficulty,
		interval_days, ease_factor, repetitions, next_review_at, last_reviewed_at
		FROM flashcard_cards WHERE deck_id = $1 ORDER BY next_review_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := []models.FlashcardCard{}
	for rows.Next() {
		c := models.FlashcardCard{}
		err := rows.Scan(
			&c.ID, &c.DeckID, &c.Frente, &c.Verso, &c.Dica, &c.Difficulty,
			&c.IntervalDays, &c.EaseFactor, &c.Repetitions, &c.NextReviewAt, &c.LastReviewedAt,
		)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// SM2 applies one SuperMemo-2 step. rating: 0=Again, 1=Hard, 2=Good, 3=Easy.
func SM2(interval int, easeFactor float64, repetitions, rating int) (int, float64, int) {
	if rating < 2 {
		repetitions = 0
		interval = 1
	} else {
		repetitions++
		switch repetitions {
		case 1:
			interval = 1
		case 2:
			interval = 6
		default:
			interval = int(math.Round(float64(interval) * easeFactor))
		}
	}

	// EF' = EF + (0.1 - (3 - rating) * (0.08 + (3 - rating) * 0.02))
	easeFactor = easeFactor + (0.1 - float64(3-rating)*(0.08+float64(3-rating)*0.02))
	if easeFactor < 1.3 {
		easeFactor = 1.3
	}
	return interval, easeFactor, repetitions
}

// RateCard rates a card owned by userID. Returns pgx.ErrNoRows for
// unknown or foreign cards.
func (r *FlashcardRepo) RateCard(ctx context.Context, userID uuid.UUID, cardID int64, rating int) (*models.FlashcardCard, error) {
	var card *models.FlashcardCard

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var interval, repetitions int
		var easeFactor float64
		err := tx.QueryRow(ctx, `
			SELECT c.interval_days, c.ease_factor, c.repetitions
			FROM flashcard_cards c JOIN flashcard_decks d ON d.id = c.deck_id
			WHERE c.id = $1 AND d.user_id = $2
			FOR UPDATE OF c`,
			cardID, userID,
		).Scan(&interval, &easeFactor, &repetitions)
		if err != nil {
			return err
		}

		interval, easeFactor, repetitions = SM2(interval, easeFactor, repetitions, rating)
		nextReview := time.Now().AddDate(0, 0, interval)

		c := models.FlashcardCard{}
		err = tx.QueryRow(ctx,
			`UPDATE flashcard_cards SET interval_days = $1, ease_factor = $2, repetitions = $3,
			 next_review_at = $4, last_reviewed_at = NOW() WHERE id = $5
			 RETURNING id, deck_id, frente, verso, dica, difficulty, interval_days, ease_factor, repetitions, next_review_at, last_reviewed_at`,
			interval, easeFactor, repetitions, nextReview, cardID,
		).Scan(
			&c.ID, &c.DeckID, &c.Frente, &c.Verso, &c.Dica, &c.Difficulty,
			&c.IntervalDays, &c.EaseFactor, &c.Repetitions, &c.NextReviewAt, &c.LastReviewedAt,
		)
		if err != nil {
			return err
		}
		card = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (r *FlashcardRepo) GetDeckStats(ctx context.Context, deckID int64) (*models.DeckStats, error) {
	stats := &models.DeckStats{}

	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE repetitions >= 3 AND ease_factor >= 2.5),
			COUNT(*) FILTER (WHERE repetitions > 0 AND (repetitions < 3 OR ease_factor < 2.5)),
			COUNT(*) FILTER (WHERE repetitions = 0),
			COUNT(*) FILTER (WHERE next_review_at < CURRENT_DATE + 1)
		FROM flashcard_cards WHERE deck_id = $1`,
		deckID,
	).Scan(&stats.TotalCards, &stats.Mastered, &stats.Learning, &stats.New, &stats.DueToday)
	if err != nil {
		return nil, err
	}

	if stats.TotalCards > 0 {
		stats.MasteryRate = float64(stats.Mastered) / float64(stats.TotalCards) * 100
	}

	return stats, nil
}
