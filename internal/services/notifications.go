package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/schedule"
)

const (
	digestItemsLimit = 10
	digestMarkTTL    = 36 * time.Hour
)

type dueReviewStore interface {
	DueByUser(ctx context.Context, date string) (map[uuid.UUID][]models.Review, error)
}

type updatePublisher interface {
	PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) error
}

type digestMarker interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// ReviewDigestScheduler pushes a daily "reviews due" message to every user
// with pending reviews due today or earlier.
type ReviewDigestScheduler struct {
	scheduler *gocron.Scheduler
	cronExpr  string
	reviews   dueReviewStore
	publisher updatePublisher
	marker    digestMarker
	loc       *time.Location
}

func NewReviewDigestScheduler(cronExpr string, reviews dueReviewStore, publisher updatePublisher, marker digestMarker, loc *time.Location) *ReviewDigestScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReviewDigestScheduler{
		scheduler: gocron.NewScheduler(loc),
		cronExpr:  cronExpr,
		reviews:   reviews,
		publisher: publisher,
		marker:    marker,
		loc:       loc,
	}
}

func (s *ReviewDigestScheduler) Start() error {
	if _, err := s.scheduler.Cron(s.cronExpr).Do(func() {
		s.Run(context.Background(), time.Now())
	}); err != nil {
		return fmt.Errorf("invalid review digest schedule %q: %w", s.cronExpr, err)
	}
	s.scheduler.StartAsync()
	log.Printf("Review digest scheduled (%s, %s)", s.cronExpr, s.loc)
	return nil
}

func (s *ReviewDigestScheduler) Stop() {
	s.scheduler.Stop()
}

// Run sends the digest for the day of now and returns how many users got one.
func (s *ReviewDigestScheduler) Run(ctx context.Context, now time.Time) int {
	today := schedule.DateOnly(now, s.loc)

	due, err := s.reviews.DueByUser(ctx, today)
	if err != nil {
		log.Printf("review digest: failed to load due reviews: %v", err)
		return 0
	}

	sent := 0
	for userID, items := range due {
		if len(items) == 0 {
			continue
		}
		if !s.markSent(ctx, userID, today) {
			continue
		}

		digest := buildDigest(today, items)
		if err := s.publisher.PublishUpdate(ctx, userID, models.WSMessage{Type: "reviews_due", Payload: digest}); err != nil {
			log.Printf("review digest: failed to publish for user %s: %v", userID, err)
			continue
		}
		sent++
	}
	if sent > 0 {
		log.Printf("review digest: notified %d users for %s", sent, today)
	}
	return sent
}

// markSent claims the (user, day) slot so restarts and replicas don't
// repeat a digest. Without a marker every run sends.
func (s *ReviewDigestScheduler) markSent(ctx context.Context, userID uuid.UUID, day string) bool {
	if s.marker == nil {
		return true
	}
	key := "review_digest:" + userID.String() + ":" + day
	ok, err := s.marker.SetNX(ctx, key, "1", digestMarkTTL).Result()
	if err != nil {
		log.Printf("review digest: marker failed for user %s, sending anyway: %v", userID, err)
		return true
	}
	return ok
}

func buildDigest(today string, items []models.Review) models.ReviewsDue {
	d := models.ReviewsDue{Date: today, Count: len(items)}
	for _, rv := range items {
		if rv.DataRevisao < today {
			d.Overdue++
		}
	}
	if len(items) > digestItemsLimit {
		items = items[:digestItemsLimit]
	}
	d.Items = items
	return d
}
