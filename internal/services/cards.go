package services

import (
	"regexp"
	"strings"

	"hub-helio-backend/internal/models"
)

var (
	listMarker   = regexp.MustCompile(`^(?:[-*+]\s+|\d+[.)]\s+)`)
	questionLine = regexp.MustCompile(`(?i)^(?:p|pergunta|q)\s*[:.]\s*(.+)$`)
	answerLine   = regexp.MustCompile(`(?i)^(?:r|resposta|a)\s*[:.]\s*(.+)$`)
)

// ParseCardLines extracts cards from plain text without a model. It reads
//
//	frente :: verso
//	frente - verso
//	P: pergunta / R: resposta   (same line or two consecutive lines)
//
// and ignores everything else.
func ParseCardLines(text string) []models.FlashcardCard {
	var cards []models.FlashcardCard
	var pending string

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))

		if m := questionLine.FindStringSubmatch(line); m != nil {
			q := m[1]
			if i := strings.Index(q, "/"); i > 0 {
				if a := answerLine.FindStringSubmatch(strings.TrimSpace(q[i+1:])); a != nil {
					cards = appendCard(cards, q[:i], a[1])
					pending = ""
					continue
				}
			}
			pending = q
			continue
		}
		if m := answerLine.FindStringSubmatch(line); m != nil && pending != "" {
			cards = appendCard(cards, pending, m[1])
			pending = ""
			continue
		}
		pending = ""

		if front, back, ok := strings.Cut(line, "::"); ok {
			cards = appendCard(cards, front, back)
			continue
		}
		if front, back, ok := strings.Cut(line, " - "); ok {
			cards = appendCard(cards, front, back)
		}
	}
	return cards
}

func appendCard(cards []models.FlashcardCard, front, back string) []models.FlashcardCard {
	front = strings.TrimSpace(front)
	back = strings.TrimSpace(back)
	if front == "" || back == "" {
		return cards
	}
	return append(cards, models.FlashcardCard{Frente: front, Verso: back, Difficulty: 2})
}
