package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/schedule"
	"hub-helio-backend/internal/views"
)

type dashboardStore interface {
	CalendarEvents(ctx context.Context, userID uuid.UUID, from, to, tz string) ([]models.CalendarEvent, error)
	Stats(ctx context.Context, userID uuid.UUID, today string) (*models.DashboardStats, error)
	NextExam(ctx context.Context, userID uuid.UUID, today string) (*models.NextExam, error)
	UpcomingReviews(ctx context.Context, userID uuid.UUID, today string, limit int) ([]models.Review, error)
}

const upcomingReviewsLimit = 5

// CalendarService builds the two aggregate read views, calendar and
// dashboard, and keeps them in the view cache until a mutation drops them.
type CalendarService struct {
	store dashboardStore
	cache *ViewCache
	loc   *time.Location
	now   func() time.Time
}

func NewCalendarService(store dashboardStore, cache *ViewCache, loc *time.Location) *CalendarService {
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarService{store: store, cache: cache, loc: loc, now: time.Now}
}

// Month returns every dated event of month ("YYYY-MM", empty for the current one).
func (s *CalendarService) Month(ctx context.Context, userID uuid.UUID, month string) (*models.CalendarMonth, error) {
	from, to, err := monthRange(month, s.now(), s.loc)
	if err != nil {
		return nil, err
	}

	return GetOrBuild(ctx, s.cache, userID, views.Calendario, from[:7], func(ctx context.Context) (*models.CalendarMonth, error) {
		events, err := s.store.CalendarEvents(ctx, userID, from, to, s.loc.String())
		if err != nil {
			return nil, storeErr("calendar events", err, "Calendário indisponível")
		}
		return &models.CalendarMonth{Mes: from[:7], De: from, Ate: to, Eventos: events}, nil
	})
}

// Dashboard summarizes cycle progress, question accuracy, due reviews,
// the next exam and pending tasks as of today.
func (s *CalendarService) Dashboard(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error) {
	today := schedule.DateOnly(s.now(), s.loc)

	return GetOrBuild(ctx, s.cache, userID, views.Dashboard, today, func(ctx context.Context) (*models.DashboardStats, error) {
		st, err := s.store.Stats(ctx, userID, today)
		if err != nil {
			return nil, storeErr("dashboard stats", err, "Painel indisponível")
		}
		st.Aproveitamento = accuracy(st.QuestoesAcertos, st.QuestoesTotal)

		if st.ProximaProva, err = s.store.NextExam(ctx, userID, today); err != nil {
			return nil, storeErr("next exam", err, "Painel indisponível")
		}
		if st.ProximasRevisoes, err = s.store.UpcomingReviews(ctx, userID, today, upcomingReviewsLimit); err != nil {
			return nil, storeErr("upcoming reviews", err, "Painel indisponível")
		}
		return st, nil
	})
}

// accuracy is the hit percentage rounded to one decimal.
func accuracy(hits, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(hits)*1000/float64(total)) / 10
}
