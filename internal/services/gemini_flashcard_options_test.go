package services

import (
	"strings"
	"testing"

	"hub-helio-backend/internal/models"
)

func TestValidateFlashcardCards_IncludeDicasGeneratesHint(t *testing.T) {
	input := []models.FlashcardCard{
		{
			Frente:     "O que é controle de constitucionalidade difuso?",
			Verso:      "Controle exercido por qualquer juiz ou tribunal no caso concreto.",
			Difficulty: 2,
		},
	}

	cfg := models.GenerateFlashcardsRequest{NumCards: 1, IncludeDicas: true}

	got := validateFlashcardCards(input, cfg)
	if len(got) != 1 {
		t.Fatalf("expected 1 card, got %d", len(got))
	}
	if got[0].Dica == nil || *got[0].Dica == "" {
		t.Fatalf("expected dica to be present when include_dicas=true")
	}
	if !strings.HasPrefix(*got[0].Dica, "Começa com: Controle exercido por") {
		t.Errorf("unexpected hint %q", *got[0].Dica)
	}
}

func TestValidateFlashcardCards_IncludeDicasDisabledForceNil(t *testing.T) {
	dica := "lembre do STF"

	input := []models.FlashcardCard{
		{Frente: "Súmula vinculante", Verso: "Editada pelo STF.", Dica: &dica, Difficulty: 2},
	}

	got := validateFlashcardCards(input, models.GenerateFlashcardsRequest{NumCards: 1})
	if len(got) != 1 {
		t.Fatalf("expected 1 card, got %d", len(got))
	}
	if got[0].Dica != nil {
		t.Fatalf("expected dica to be nil when include_dicas=false")
	}
}

func TestValidateFlashcardCards_TrimsDedupesAndCaps(t *testing.T) {
	input := []models.FlashcardCard{
		{Frente: "  Art. 5º  ", Verso: " Direitos fundamentais ", Difficulty: 9},
		{Frente: "art. 5º", Verso: "duplicado"},
		{Frente: "", Verso: "sem frente"},
		{Frente: "Art. 37", Verso: "Princípios da administração"},
		{Frente: "Art. 60", Verso: "Cláusulas pétreas"},
	}

	got := validateFlashcardCards(input, models.GenerateFlashcardsRequest{NumCards: 2})
	if len(got) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(got))
	}
	if got[0].Frente != "Art. 5º" || got[0].Verso != "Direitos fundamentais" {
		t.Errorf("expected trimmed first card, got %+v", got[0])
	}
	if got[0].Difficulty != 2 {
		t.Errorf("expected out-of-range difficulty to default to 2, got %d", got[0].Difficulty)
	}
	if got[1].Frente != "Art. 37" {
		t.Errorf("expected duplicate and empty cards to be skipped, got %q", got[1].Frente)
	}
}

func TestParseCardJSON_ToleratesFencesAndProse(t *testing.T) {
	raw := "Aqui estão:\n```json\n[{\"frente\":\"A\",\"verso\":\"B\",\"dica\":null,\"difficulty\":1}]\n```"

	cards, err := parseCardJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 1 || cards[0].Frente != "A" || cards[0].Verso != "B" || cards[0].Difficulty != 1 {
		t.Errorf("unexpected cards: %+v", cards)
	}

	if _, err := parseCardJSON("sem json aqui"); err == nil {
		t.Errorf("expected error for a response without an array")
	}
}
