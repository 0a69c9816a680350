package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/views"
)

type stubDashboard struct {
	eventCalls int
	statsCalls int
	lastRange  [3]string
	lastToday  string
	stats      models.DashboardStats
	next       *models.NextExam
	err        error
}

func (s *stubDashboard) CalendarEvents(ctx context.Context, userID uuid.UUID, from, to, tz string) ([]models.CalendarEvent, error) {
	s.eventCalls++
	s.lastRange = [3]string{from, to, tz}
	if s.err != nil {
		return nil, s.err
	}
	return []models.CalendarEvent{
		{Tipo: "revisao", ID: 1, Data: "2024-03-11", Titulo: "Constitucional", Detalhe: "24h"},
	}, nil
}

func (s *stubDashboard) Stats(ctx context.Context, userID uuid.UUID, today string) (*models.DashboardStats, error) {
	s.statsCalls++
	s.lastToday = today
	if s.err != nil {
		return nil, s.err
	}
	st := s.stats
	return &st, nil
}

func (s *stubDashboard) NextExam(ctx context.Context, userID uuid.UUID, today string) (*models.NextExam, error) {
	return s.next, nil
}

func (s *stubDashboard) UpcomingReviews(ctx context.Context, userID uuid.UUID, today string, limit int) ([]models.Review, error) {
	return []models.Review{{ID: 7, TipoRevisao: "7 dias", DataRevisao: "2024-03-17"}}, nil
}

func newTestCalendar(t *testing.T, store *stubDashboard, cache *ViewCache) *CalendarService {
	loc := saoPaulo(t)
	svc := NewCalendarService(store, cache, loc)
	// 01:30 UTC on the 11th is still the 10th in São Paulo
	svc.now = func() time.Time { return time.Date(2024, 3, 11, 1, 30, 0, 0, time.UTC) }
	return svc
}

func TestCalendar_MonthCachedUntilInvalidated(t *testing.T) {
	rdb := newFakeRedis()
	cache := NewViewCache(rdb, time.Minute)
	store := &stubDashboard{}
	svc := newTestCalendar(t, store, cache)
	ctx := context.Background()
	user := uuid.New()

	m, err := svc.Month(ctx, user, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Mes != "2024-03" || m.De != "2024-03-01" || m.Ate != "2024-03-31" || len(m.Eventos) != 1 {
		t.Errorf("unexpected month: %+v", m)
	}
	if store.lastRange[2] != "America/Sao_Paulo" {
		t.Errorf("expected zone name passed to the query, got %q", store.lastRange[2])
	}

	if _, err := svc.Month(ctx, user, "2024-03"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.eventCalls != 1 {
		t.Errorf("expected cached second read, got %d queries", store.eventCalls)
	}

	if _, err := svc.Month(ctx, user, "2024-04"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.eventCalls != 2 {
		t.Errorf("expected a query for another month, got %d", store.eventCalls)
	}

	NewInvalidator(rdb).Invalidate(ctx, user, views.Of(views.Calendario))
	if _, err := svc.Month(ctx, user, "2024-03"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.eventCalls != 3 {
		t.Errorf("expected rebuild after invalidation, got %d queries", store.eventCalls)
	}
}

func TestCalendar_MonthErrors(t *testing.T) {
	svc := newTestCalendar(t, &stubDashboard{err: errors.New("timeout")}, nil)
	ctx := context.Background()

	var ve *ValidationError
	if _, err := svc.Month(ctx, uuid.New(), "03/2024"); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	var se *StoreError
	if _, err := svc.Month(ctx, uuid.New(), "2024-03"); !errors.As(err, &se) {
		t.Errorf("expected StoreError, got %v", err)
	}
}

func TestCalendar_Dashboard(t *testing.T) {
	store := &stubDashboard{
		stats: models.DashboardStats{SessoesTotal: 12, SessoesConcluidas: 4, QuestoesAcertos: 37, QuestoesTotal: 45},
		next:  &models.NextExam{ID: 3, Nome: "TRF 3", DataProva: "2024-05-05", DiasRestantes: 56},
	}
	svc := newTestCalendar(t, store, nil)

	st, err := svc.Dashboard(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastToday != "2024-03-10" {
		t.Errorf("expected today in São Paulo, got %s", store.lastToday)
	}
	if st.Aproveitamento != 82.2 {
		t.Errorf("expected 82.2%% accuracy, got %v", st.Aproveitamento)
	}
	if st.ProximaProva == nil || st.ProximaProva.DiasRestantes != 56 {
		t.Errorf("unexpected next exam: %+v", st.ProximaProva)
	}
	if len(st.ProximasRevisoes) != 1 {
		t.Errorf("expected upcoming reviews, got %+v", st.ProximasRevisoes)
	}
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		hits, total int
		want        float64
	}{
		{0, 0, 0},
		{10, 10, 100},
		{1, 3, 33.3},
		{2, 3, 66.7},
	}
	for _, tc := range tests {
		if got := accuracy(tc.hits, tc.total); got != tc.want {
			t.Errorf("accuracy(%d, %d) = %v, want %v", tc.hits, tc.total, got, tc.want)
		}
	}
}
