package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/views"
)

type deckStore interface {
	CreateDeck(ctx context.Context, d *models.FlashcardDeck) error
	GetDeck(ctx context.Context, id int64) (*models.FlashcardDeck, error)
	GetDeckForUser(ctx context.Context, userID uuid.UUID, id int64) (*models.FlashcardDeck, error)
	ListDecksByUser(ctx context.Context, userID uuid.UUID) ([]*models.FlashcardDeck, error)
	DeleteDeck(ctx context.Context, userID uuid.UUID, id int64) (bool, error)
	ReplaceCards(ctx context.Context, deckID int64, cards []models.FlashcardCard) error
	GetCardsByDeck(ctx context.Context, deckID int64) ([]models.FlashcardCard, error)
	RateCard(ctx context.Context, userID uuid.UUID, cardID int64, rating int) (*models.FlashcardCard, error)
	GetDeckStats(ctx context.Context, deckID int64) (*models.DeckStats, error)
}

type jobStore interface {
	Create(ctx context.Context, j *models.Job) error
	GetForUser(ctx context.Context, userID, id uuid.UUID) (*models.Job, error)
}

type jobQueue interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// CardGenerator is implemented by *GeminiService.
type CardGenerator interface {
	GenerateCards(ctx context.Context, cfg models.GenerateFlashcardsRequest, content string) ([]models.FlashcardCard, error)
}

type transcriptSource interface {
	GetTranscript(videoID string) (string, error)
}

type noteGetter interface {
	Get(ctx context.Context, userID uuid.UUID, id int64) (*models.Anotacao, error)
}

type documentGetter interface {
	Get(ctx context.Context, userID uuid.UUID, id int64) (*models.Documento, error)
}

type resourceGetter interface {
	Get(ctx context.Context, userID uuid.UUID, id int64) (*models.Recurso, error)
}

const (
	deckNotFound = "Baralho não encontrado"
	// sources longer than this are cut before reaching the model
	maxSourceChars = 60000
)

// FlashcardSources resolves the study material a deck is generated from.
type FlashcardSources struct {
	Notes       noteGetter
	Documents   documentGetter
	Resources   resourceGetter
	Transcripts transcriptSource
}

// FlashcardService queues deck generation and serves decks and SM-2 reviews.
// Without a generator, cards come from the line parser.
type FlashcardService struct {
	decks     deckStore
	jobs      jobStore
	queue     jobQueue
	generator CardGenerator
	sources   FlashcardSources
}

func NewFlashcardService(decks deckStore, jobs jobStore, queue jobQueue, generator CardGenerator, sources FlashcardSources) *FlashcardService {
	return &FlashcardService{decks: decks, jobs: jobs, queue: queue, generator: generator, sources: sources}
}

// Generate creates an empty deck for the source and queues the job that fills it.
func (s *FlashcardService) Generate(ctx context.Context, userID uuid.UUID, req models.GenerateFlashcardsRequest) (*models.Job, *models.FlashcardDeck, error) {
	if req.OrigemID <= 0 {
		return nil, nil, invalid("origem_id", "Origem inválida")
	}
	if req.NumCards < 0 || req.NumCards > 50 {
		return nil, nil, invalid("num_cards", "Quantidade deve estar entre 1 e 50")
	}

	title, err := s.sourceTitle(ctx, userID, req.OrigemTipo, req.OrigemID)
	if err != nil {
		return nil, nil, err
	}
	if t := strings.TrimSpace(req.Titulo); t != "" {
		title = t
	}
	req.Titulo = title

	cfg, _ := json.Marshal(req)
	deck := &models.FlashcardDeck{
		UserID:     userID,
		Titulo:     title,
		OrigemTipo: req.OrigemTipo,
		OrigemID:   req.OrigemID,
		ConfigJSON: cfg,
	}
	if err := s.decks.CreateDeck(ctx, deck); err != nil {
		return nil, nil, storeErr("create deck", err, deckNotFound)
	}

	job := &models.Job{
		UserID:      userID,
		Type:        models.JobTypeFlashcardGeneration,
		ReferenceID: deck.ID,
		ConfigJSON:  cfg,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, nil, storeErr("create job", err, deckNotFound)
	}

	payload, _ := json.Marshal(job)
	if err := s.queue.LPush(ctx, models.QueueName(job.Type), string(payload)).Err(); err != nil {
		return nil, nil, &StoreError{Op: "enqueue job", Err: err}
	}
	return job, deck, nil
}

// sourceTitle checks that the source exists, belongs to the user and can
// hold text, and returns its title.
func (s *FlashcardService) sourceTitle(ctx context.Context, userID uuid.UUID, kind string, id int64) (string, error) {
	missing := "Origem não encontrada"
	switch kind {
	case "anotacao":
		n, err := s.sources.Notes.Get(ctx, userID, id)
		if err != nil {
			return "", storeErr("load note", notFoundAsInvalid(err, "origem_id", missing), missing)
		}
		if n.IsPasta {
			return "", invalid("origem_id", "Pastas não podem gerar flashcards")
		}
		return n.Titulo, nil
	case "documento":
		d, err := s.sources.Documents.Get(ctx, userID, id)
		if err != nil {
			return "", storeErr("load document", notFoundAsInvalid(err, "origem_id", missing), missing)
		}
		return d.Titulo, nil
	case "recurso":
		r, err := s.sources.Resources.Get(ctx, userID, id)
		if err != nil {
			return "", storeErr("load resource", notFoundAsInvalid(err, "origem_id", missing), missing)
		}
		if r.Tipo == "pasta" {
			return "", invalid("origem_id", "Pastas não podem gerar flashcards")
		}
		return r.Titulo, nil
	}
	return "", invalid("origem_tipo", "Origem deve ser anotacao, documento ou recurso")
}

// sourceText loads the text cards are generated from.
func (s *FlashcardService) sourceText(ctx context.Context, userID uuid.UUID, kind string, id int64) (string, error) {
	var text string
	switch kind {
	case "anotacao":
		n, err := s.sources.Notes.Get(ctx, userID, id)
		if err != nil {
			return "", fmt.Errorf("failed to load note %d: %w", id, err)
		}
		text = n.Conteudo
	case "documento":
		d, err := s.sources.Documents.Get(ctx, userID, id)
		if err != nil {
			return "", fmt.Errorf("failed to load document %d: %w", id, err)
		}
		text = PlainText(d.Conteudo)
	case "recurso":
		r, err := s.sources.Resources.Get(ctx, userID, id)
		if err != nil {
			return "", fmt.Errorf("failed to load resource %d: %w", id, err)
		}
		text = r.Descricao
		if r.Tipo == "video" && s.sources.Transcripts != nil {
			if videoID := VideoID(r.URL); videoID != "" {
				transcript, err := s.sources.Transcripts.GetTranscript(videoID)
				if err != nil {
					log.Printf("Transcript unavailable for resource %d (%s): %v", id, videoID, err)
				} else {
					text = strings.TrimSpace(text + "\n" + transcript)
				}
			}
		}
	default:
		return "", fmt.Errorf("unknown flashcard source type: %s", kind)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("source %s %d has no text", kind, id)
	}
	if len(text) > maxSourceChars {
		cut := maxSourceChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text, nil
}

// Process fills the deck a generation job points at. progress receives
// step updates for the user's socket.
func (s *FlashcardService) Process(ctx context.Context, job *models.Job, progress func(step int, name string)) error {
	if progress == nil {
		progress = func(int, string) {}
	}

	deck, err := s.decks.GetDeck(ctx, job.ReferenceID)
	if err != nil {
		return fmt.Errorf("failed to get flashcard deck: %w", err)
	}
	var cfg models.GenerateFlashcardsRequest
	if len(deck.ConfigJSON) > 0 {
		if err := json.Unmarshal(deck.ConfigJSON, &cfg); err != nil {
			log.Printf("Deck %d has unreadable config, using defaults: %v", deck.ID, err)
		}
	}

	progress(2, "Lendo material de estudo")
	text, err := s.sourceText(ctx, deck.UserID, deck.OrigemTipo, deck.OrigemID)
	if err != nil {
		return err
	}

	progress(3, "Gerando flashcards")
	var cards []models.FlashcardCard
	if s.generator != nil {
		cards, err = s.generator.GenerateCards(ctx, cfg, text)
		if err != nil {
			log.Printf("Generator failed for deck %d, falling back to line parser: %v", deck.ID, err)
		}
	}
	if len(cards) == 0 {
		cards = ParseCardLines(text)
	}
	cards = validateFlashcardCards(cards, cfg)
	if len(cards) == 0 {
		if err != nil {
			return fmt.Errorf("no flashcards generated: %w", err)
		}
		return fmt.Errorf("no flashcards could be built from %s %d", deck.OrigemTipo, deck.OrigemID)
	}

	progress(4, "Salvando baralho")
	if err := s.decks.ReplaceCards(ctx, deck.ID, cards); err != nil {
		return fmt.Errorf("failed to save flashcards: %w", err)
	}
	log.Printf("Deck %d filled with %d cards", deck.ID, len(cards))
	return nil
}

func (s *FlashcardService) ListDecks(ctx context.Context, userID uuid.UUID) ([]*models.FlashcardDeck, error) {
	decks, err := s.decks.ListDecksByUser(ctx, userID)
	if err != nil {
		return nil, storeErr("list decks", err, deckNotFound)
	}
	return decks, nil
}

func (s *FlashcardService) GetDeck(ctx context.Context, userID uuid.UUID, id int64) (*models.DeckDetail, error) {
	if id <= 0 {
		return nil, invalid("id", "Identificador inválido")
	}
	deck, err := s.decks.GetDeckForUser(ctx, userID, id)
	if err != nil {
		return nil, storeErr("get deck", err, deckNotFound)
	}
	cards, err := s.decks.GetCardsByDeck(ctx, id)
	if err != nil {
		return nil, storeErr("get cards", err, deckNotFound)
	}
	return &models.DeckDetail{FlashcardDeck: deck, Cards: cards}, nil
}

func (s *FlashcardService) DeckStats(ctx context.Context, userID uuid.UUID, id int64) (*models.DeckStats, error) {
	if id <= 0 {
		return nil, invalid("id", "Identificador inválido")
	}
	if _, err := s.decks.GetDeckForUser(ctx, userID, id); err != nil {
		return nil, storeErr("get deck", err, deckNotFound)
	}
	stats, err := s.decks.GetDeckStats(ctx, id)
	if err != nil {
		return nil, storeErr("deck stats", err, deckNotFound)
	}
	return stats, nil
}

func (s *FlashcardService) DeleteDeck(ctx context.Context, userID uuid.UUID, id int64) (views.Set, error) {
	if id <= 0 {
		return nil, invalid("id", "Identificador inválido")
	}
	ok, err := s.decks.DeleteDeck(ctx, userID, id)
	if err != nil {
		return nil, storeErr("delete deck", err, deckNotFound)
	}
	if !ok {
		return nil, &NotFoundError{Message: deckNotFound}
	}
	return views.Of(views.Flashcards), nil
}

// RateCard applies an SM-2 review (0 again, 1 hard, 2 good, 3 easy).
func (s *FlashcardService) RateCard(ctx context.Context, userID uuid.UUID, cardID int64, rating int) (*Change[*models.FlashcardCard], error) {
	if cardID <= 0 {
		return nil, invalid("id", "Identificador inválido")
	}
	if rating < 0 || rating > 3 {
		return nil, invalid("rating", "Avaliação deve estar entre 0 e 3")
	}
	card, err := s.decks.RateCard(ctx, userID, cardID, rating)
	if err != nil {
		return nil, storeErr("rate card", err, "Cartão não encontrado")
	}
	return &Change[*models.FlashcardCard]{Item: card, Views: views.Of(views.Flashcards)}, nil
}

func (s *FlashcardService) GetJob(ctx context.Context, userID, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.jobs.GetForUser(ctx, userID, jobID)
	if err != nil {
		return nil, storeErr("get job", err, "Tarefa em segundo plano não encontrada")
	}
	return job, nil
}
