package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"hub-helio-backend/internal/models"
)

type GeminiService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // Token bucket
}

func NewGeminiService(apiKey, modelName string, concurrentReqs int) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.3)
	model.SetTopP(0.95)
	model.ResponseMIMEType = "application/json"

	if concurrentReqs < 1 {
		concurrentReqs = 1
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:   client,
		model:    model,
		rateChan: rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// GenerateCards asks the model for a JSON array of cards built from content.
func (s *GeminiService) GenerateCards(ctx context.Context, cfg models.GenerateFlashcardsRequest, content string) ([]models.FlashcardCard, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	resp, err := s.model.GenerateContent(ctx, genai.Text(buildFlashcardPrompt(cfg, content)))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Printf("WARNING: Gemini candidate %d stopped due to %s", i, cand.FinishReason)
		}
	}

	cards, err := parseCardJSON(extractText(resp))
	if err != nil {
		return nil, err
	}
	return validateFlashcardCards(cards, cfg), nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

// parseCardJSON tolerates code fences and prose around the array.
func parseCardJSON(rawText string) ([]models.FlashcardCard, error) {
	rawText = strings.TrimSpace(rawText)
	rawText = strings.TrimPrefix(rawText, "```json")
	rawText = strings.TrimPrefix(rawText, "```")
	rawText = strings.TrimSuffix(rawText, "```")
	rawText = strings.TrimSpace(rawText)

	type cardJSON struct {
		Frente     string  `json:"frente"`
		Verso      string  `json:"verso"`
		Dica       *string `json:"dica"`
		Difficulty int     `json:"difficulty"`
	}

	var cards []cardJSON
	if err := json.Unmarshal([]byte(rawText), &cards); err != nil {
		start := strings.Index(rawText, "[")
		end := strings.LastIndex(rawText, "]")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("model response is not a JSON array")
		}
		if err := json.Unmarshal([]byte(rawText[start:end+1]), &cards); err != nil {
			return nil, fmt.Errorf("failed to decode model cards: %w", err)
		}
	}

	out := make([]models.FlashcardCard, len(cards))
	for i, c := range cards {
		out[i] = models.FlashcardCard{
			Frente:     c.Frente,
			Verso:      c.Verso,
			Dica:       c.Dica,
			Difficulty: c.Difficulty,
		}
	}
	return out, nil
}

func buildFlashcardPrompt(cfg models.GenerateFlashcardsRequest, content string) string {
	var b strings.Builder

	b.WriteString("Você cria flashcards para estudantes de concursos públicos. Gere flashcards a partir do conteúdo abaixo.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON array. No preamble, no markdown, no backticks.\n\n")
	b.WriteString(fmt.Sprintf("Generate exactly %d flashcards, written in Brazilian Portuguese.\n", cardLimit(cfg)))
	if cfg.IncludeDicas {
		b.WriteString("Every card must include a short memory hint in \"dica\".\n")
	} else {
		b.WriteString("Set \"dica\" to null.\n")
	}

	b.WriteString(`
Rules:
- "frente" is a question or a term, under 20 words
- "verso" is a self-contained answer, under 60 words
- No two cards may test the same concept

JSON schema per card:
{"frente": "string", "verso": "string", "dica": "string|null", "difficulty": 1|2|3}
`)

	b.WriteString("\n---CONTEUDO---\n")
	b.WriteString(content)
	b.WriteString("\n---FIM---\n")

	return b.String()
}

const defaultCardCount = 10

func cardLimit(cfg models.GenerateFlashcardsRequest) int {
	if cfg.NumCards <= 0 {
		return defaultCardCount
	}
	return cfg.NumCards
}

// validateFlashcardCards trims and dedupes cards, caps them at the requested
// count and makes the hint field follow cfg.IncludeDicas.
func validateFlashcardCards(cards []models.FlashcardCard, cfg models.GenerateFlashcardsRequest) []models.FlashcardCard {
	limit := cardLimit(cfg)
	seen := make(map[string]bool, len(cards))
	out := make([]models.FlashcardCard, 0, len(cards))

	for _, c := range cards {
		c.Frente = strings.TrimSpace(c.Frente)
		c.Verso = strings.TrimSpace(c.Verso)
		if c.Frente == "" || c.Verso == "" {
			continue
		}
		key := strings.ToLower(c.Frente)
		if seen[key] {
			continue
		}
		seen[key] = true

		if c.Difficulty < 1 || c.Difficulty > 3 {
			c.Difficulty = 2
		}

		if !cfg.IncludeDicas {
			c.Dica = nil
		} else if c.Dica == nil || strings.TrimSpace(*c.Dica) == "" {
			hint := hintFrom(c.Verso)
			c.Dica = &hint
		}

		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out
}

// hintFrom reveals the first words of the answer.
func hintFrom(verso string) string {
	words := strings.Fields(verso)
	if len(words) <= 3 {
		return "Começa com: " + words[0]
	}
	return "Começa com: " + strings.Join(words[:3], " ") + "..."
}
