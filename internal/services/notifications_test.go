package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"hub-helio-backend/internal/models"
)

type stubDue struct {
	due      map[uuid.UUID][]models.Review
	lastDate string
	err      error
}

func (s *stubDue) DueByUser(ctx context.Context, date string) (map[uuid.UUID][]models.Review, error) {
	s.lastDate = date
	return s.due, s.err
}

type recordingPublisher struct {
	msgs map[uuid.UUID][]models.WSMessage
}

func (p *recordingPublisher) PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) error {
	if p.msgs == nil {
		p.msgs = map[uuid.UUID][]models.WSMessage{}
	}
	p.msgs[userID] = append(p.msgs[userID], msg)
	return nil
}

type memMarker struct {
	keys map[string]bool
	err  error
}

func (m *memMarker) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	if m.err != nil {
		return redis.NewBoolResult(false, m.err)
	}
	if m.keys == nil {
		m.keys = map[string]bool{}
	}
	if m.keys[key] {
		return redis.NewBoolResult(false, nil)
	}
	m.keys[key] = true
	return redis.NewBoolResult(true, nil)
}

func TestReviewDigest_Run(t *testing.T) {
	loc := saoPaulo(t)
	alice, bob := uuid.New(), uuid.New()

	var many []models.Review
	for i := 0; i < 12; i++ {
		many = append(many, models.Review{ID: int64(i + 1), UserID: bob, DataRevisao: "2024-03-10", TipoRevisao: "24h"})
	}
	store := &stubDue{due: map[uuid.UUID][]models.Review{
		alice: {
			{ID: 1, UserID: alice, DataRevisao: "2024-03-08", TipoRevisao: "7 dias"},
			{ID: 2, UserID: alice, DataRevisao: "2024-03-10", TipoRevisao: "24h"},
		},
		bob: many,
	}}
	pub := &recordingPublisher{}
	s := NewReviewDigestScheduler("0 7 * * *", store, pub, &memMarker{}, loc)

	// 02:00 UTC on the 11th is still the 10th in São Paulo
	now := time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC)
	if sent := s.Run(context.Background(), now); sent != 2 {
		t.Fatalf("expected 2 digests, got %d", sent)
	}
	if store.lastDate != "2024-03-10" {
		t.Errorf("expected local date, got %s", store.lastDate)
	}

	msg := pub.msgs[alice][0]
	digest, ok := msg.Payload.(models.ReviewsDue)
	if msg.Type != "reviews_due" || !ok {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if digest.Count != 2 || digest.Overdue != 1 || digest.Date != "2024-03-10" {
		t.Errorf("unexpected digest: %+v", digest)
	}

	bobDigest := pub.msgs[bob][0].Payload.(models.ReviewsDue)
	if bobDigest.Count != 12 || len(bobDigest.Items) != digestItemsLimit {
		t.Errorf("expected full count and capped items, got %d/%d", bobDigest.Count, len(bobDigest.Items))
	}

	if sent := s.Run(context.Background(), now); sent != 0 {
		t.Errorf("expected no repeat digest on the same day, got %d", sent)
	}
}

func TestReviewDigest_MarkerAndStoreFailures(t *testing.T) {
	user := uuid.New()
	store := &stubDue{due: map[uuid.UUID][]models.Review{user: {{ID: 1, UserID: user, DataRevisao: "2024-03-10"}}}}
	pub := &recordingPublisher{}
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	s := NewReviewDigestScheduler("0 7 * * *", store, pub, &memMarker{err: errors.New("redis down")}, time.UTC)
	if sent := s.Run(context.Background(), now); sent != 1 {
		t.Errorf("expected send when the marker is unavailable, got %d", sent)
	}

	store.err = fmt.Errorf("query failed")
	if sent := s.Run(context.Background(), now); sent != 0 {
		t.Errorf("expected nothing sent on store failure, got %d", sent)
	}
}

func TestReviewDigest_StartRejectsBadCron(t *testing.T) {
	s := NewReviewDigestScheduler("every morning", &stubDue{}, &recordingPublisher{}, nil, time.UTC)
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatalf("expected error for invalid cron expression")
	}

	ok := NewReviewDigestScheduler("0 7 * * *", &stubDue{}, &recordingPublisher{}, nil, time.UTC)
	if err := ok.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok.Stop()
}
