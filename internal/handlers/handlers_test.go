package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hub-helio-backend/internal/middleware"
	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/services"
	"hub-helio-backend/internal/tree"
	"hub-helio-backend/internal/views"
)

type recordingInvalidator struct {
	calls []views.Set
	users []uuid.UUID
}

func (i *recordingInvalidator) Invalidate(ctx context.Context, userID uuid.UUID, set views.Set) {
	i.calls = append(i.calls, set)
	i.users = append(i.users, userID)
}

func asUser(userID uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), userID)))
		})
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.RequestIDHeader, "req-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.APIError {
	t.Helper()
	var body models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("error body did not decode: %v", err)
	}
	return body.Error
}

// ─── Error mapping ───

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &services.ValidationError{Message: "Data inválida", Fields: map[string]string{"data": "Data inválida"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not found", &services.NotFoundError{Message: "Sessão de estudo não encontrada"}, http.StatusNotFound, "NOT_FOUND"},
		{"conflict", &services.ConflictError{Message: "x"}, http.StatusConflict, "CONFLICT"},
		{"store", &services.StoreError{Op: "toggle", Err: errors.New("conn reset")}, http.StatusBadGateway, "STORE_ERROR"},
		{"wrapped store", errors.Join(errors.New("ctx"), &services.StoreError{Op: "x", Err: errors.New("y")}), http.StatusBadGateway, "STORE_ERROR"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(middleware.RequestIDHeader, "req-42")
			rr := httptest.NewRecorder()
			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rr.Code)
			}
			apiErr := decodeError(t, rr)
			if apiErr.Code != tc.wantCode || apiErr.RequestID != "req-42" {
				t.Errorf("unexpected error body: %+v", apiErr)
			}
		})
	}
}

func TestDecodeAndValidate(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
		var dst models.ReminderRequest
		var ve *services.ValidationError
		if err := decodeAndValidate(req, &dst); !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("fields keyed by json name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"titulo":"","data":"10/03/2024"}`))
		var dst models.ReminderRequest
		var ve *services.ValidationError
		if err := decodeAndValidate(req, &dst); !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := ve.Fields["titulo"]; !ok {
			t.Errorf("expected titulo field error, got %v", ve.Fields)
		}
		if _, ok := ve.Fields["data"]; !ok {
			t.Errorf("expected data field error, got %v", ve.Fields)
		}
	})

	t.Run("nested items", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"itens":[{"materia_nome":"","quantidade":1}]}`))
		var dst models.SeedRequest
		var ve *services.ValidationError
		if err := decodeAndValidate(req, &dst); !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := ve.Fields["itens[0].materia_nome"]; !ok {
			t.Errorf("expected nested path, got %v", ve.Fields)
		}
	})

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"titulo":"Simulado","data":"2024-03-10"}`))
		var dst models.ReminderRequest
		if err := decodeAndValidate(req, &dst); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

// ─── Cycle handler ───

type fakeCycle struct {
	cycleActions

	toggled   []bool
	field     string
	date      string
	ids       []int64
	result    *services.ActionResult
	err       error
	reviewArg [3]string
}

func (f *fakeCycle) Location() *time.Location { return time.UTC }

func (f *fakeCycle) ToggleCompletion(ctx context.Context, userID uuid.UUID, sessionID int64, completing bool) (*services.ActionResult, error) {
	f.toggled = append(f.toggled, completing)
	return f.result, f.err
}

func (f *fakeCycle) UpdateStudyOrReviewDate(ctx context.Context, userID uuid.UUID, sessionID int64, field, date string) (*services.ActionResult, error) {
	f.field, f.date = field, date
	return f.result, f.err
}

func (f *fakeCycle) BulkDeleteSessions(ctx context.Context, userID uuid.UUID, sessionIDs []int64) (*services.ActionResult, error) {
	f.ids = sessionIDs
	return f.result, f.err
}

func (f *fakeCycle) ListReviews(ctx context.Context, userID uuid.UUID, status, from, to string) ([]models.Review, error) {
	f.reviewArg = [3]string{status, from, to}
	return []models.Review{{ID: 1, TipoRevisao: "24h", DataRevisao: "2024-03-11"}}, nil
}

type fakeExporter struct{ err error }

func (f *fakeExporter) ExportCycle(ctx context.Context, userID uuid.UUID, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := w.Write([]byte("PK-xlsx"))
	return err
}

func cycleRouter(h *CycleHandler, userID uuid.UUID) http.Handler {
	r := chi.NewRouter()
	r.Use(asUser(userID))
	r.Post("/ciclo/bulk-delete", h.BulkDelete)
	r.Get("/ciclo/export", h.Export)
	r.Put("/ciclo/{id}/concluida", h.ToggleCompletion)
	r.Put("/ciclo/{id}/datas", h.UpdateDate)
	r.Get("/revisoes", h.ListReviews)
	return r
}

func TestCycleHandler_ToggleCompletion(t *testing.T) {
	userID := uuid.New()
	inv := &recordingInvalidator{}
	cycle := &fakeCycle{result: &services.ActionResult{
		Session: &models.CycleSession{ID: 7, Concluida: true},
		Views:   views.Schedule(),
	}}
	router := cycleRouter(NewCycleHandler(cycle, &fakeExporter{}, inv), userID)

	rr := doJSON(t, router, http.MethodPut, "/ciclo/7/concluida", map[string]bool{"concluida": true})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(cycle.toggled) != 1 || !cycle.toggled[0] {
		t.Errorf("expected toggle(true), got %v", cycle.toggled)
	}
	if len(inv.calls) != 1 || !inv.calls[0].Has(views.Revisoes) || inv.users[0] != userID {
		t.Errorf("expected schedule views invalidated for the caller, got %v", inv.calls)
	}

	var body map[string]json.RawMessage
	json.NewDecoder(rr.Body).Decode(&body)
	if _, ok := body["session"]; !ok {
		t.Errorf("expected session in body, got %v", body)
	}
}

func TestCycleHandler_Validation(t *testing.T) {
	inv := &recordingInvalidator{}
	cycle := &fakeCycle{}
	router := cycleRouter(NewCycleHandler(cycle, &fakeExporter{}, inv), uuid.New())

	tests := []struct {
		name string
		path string
		body interface{}
	}{
		{"missing flag", "/ciclo/7/concluida", map[string]string{}},
		{"bad id", "/ciclo/abc/concluida", map[string]bool{"concluida": true}},
		{"zero id", "/ciclo/0/concluida", map[string]bool{"concluida": true}},
		{"bad json", "/ciclo/7/concluida", "{"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, router, http.MethodPut, tc.path, tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			if apiErr := decodeError(t, rr); apiErr.Code != "VALIDATION_ERROR" || apiErr.RequestID != "req-1" {
				t.Errorf("unexpected error: %+v", apiErr)
			}
		})
	}
	if len(cycle.toggled) != 0 || len(inv.calls) != 0 {
		t.Errorf("invalid requests must not reach the service")
	}
}

func TestCycleHandler_ServiceErrors(t *testing.T) {
	inv := &recordingInvalidator{}
	cycle := &fakeCycle{err: &services.NotFoundError{Message: "Sessão de estudo não encontrada"}}
	router := cycleRouter(NewCycleHandler(cycle, &fakeExporter{}, inv), uuid.New())

	rr := doJSON(t, router, http.MethodPut, "/ciclo/9/datas", map[string]string{"campo": "data_revisao_2", "data": "2024-04-01"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if cycle.field != "data_revisao_2" || cycle.date != "2024-04-01" {
		t.Errorf("unexpected args: %s %s", cycle.field, cycle.date)
	}

	cycle.err = &services.StoreError{Op: "bulk delete", Err: errors.New("timeout")}
	rr = doJSON(t, router, http.MethodPost, "/ciclo/bulk-delete", map[string][]int64{"ids": {1, 2}})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	if len(inv.calls) != 0 {
		t.Errorf("failed actions must not invalidate")
	}
}

func TestCycleHandler_BulkDeleteRejectsBadIDs(t *testing.T) {
	cycle := &fakeCycle{result: &services.ActionResult{Views: views.Schedule()}}
	router := cycleRouter(NewCycleHandler(cycle, &fakeExporter{}, &recordingInvalidator{}), uuid.New())

	for _, body := range []interface{}{
		map[string][]int64{"ids": {}},
		map[string][]int64{"ids": {3, -1}},
	} {
		if rr := doJSON(t, router, http.MethodPost, "/ciclo/bulk-delete", body); rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for %v, got %d", body, rr.Code)
		}
	}

	if rr := doJSON(t, router, http.MethodPost, "/ciclo/bulk-delete", map[string][]int64{"ids": {3, 4}}); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(cycle.ids) != 2 {
		t.Errorf("expected ids passed through, got %v", cycle.ids)
	}
}

func TestCycleHandler_Export(t *testing.T) {
	router := cycleRouter(NewCycleHandler(&fakeCycle{}, &fakeExporter{}, nil), uuid.New())

	rr := doJSON(t, router, http.MethodGet, "/ciclo/export", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, `attachment; filename="ciclo-`) {
		t.Errorf("unexpected Content-Disposition: %q", cd)
	}
	if rr.Body.String() != "PK-xlsx" {
		t.Errorf("unexpected body: %q", rr.Body.String())
	}

	failing := cycleRouter(NewCycleHandler(&fakeCycle{}, &fakeExporter{err: &services.StoreError{Op: "export", Err: errors.New("x")}}, nil), uuid.New())
	rr = doJSON(t, failing, http.MethodGet, "/ciclo/export", nil)
	if rr.Code != http.StatusBadGateway || rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected JSON 502, got %d %s", rr.Code, rr.Header().Get("Content-Type"))
	}
}

func TestCycleHandler_ListReviewsQuery(t *testing.T) {
	cycle := &fakeCycle{}
	router := cycleRouter(NewCycleHandler(cycle, &fakeExporter{}, nil), uuid.New())

	rr := doJSON(t, router, http.MethodGet, "/revisoes?status=todas&de=2024-03-01&ate=2024-03-31", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if cycle.reviewArg != [3]string{"todas", "2024-03-01", "2024-03-31"} {
		t.Errorf("unexpected query args: %v", cycle.reviewArg)
	}
}

// ─── Tree routes ───

type fakeTree struct {
	nodes    []*tree.Node[*models.Documento]
	movedTo  *int64
	moveErr  error
	deleted  int64
	getErr   error
	moveSets views.Set
}

func (f *fakeTree) Tree(ctx context.Context, userID uuid.UUID) ([]*tree.Node[*models.Documento], error) {
	return f.nodes, nil
}

func (f *fakeTree) Get(ctx context.Context, userID uuid.UUID, id int64) (*models.Documento, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &models.Documento{ID: id, Titulo: "Edital"}, nil
}

func (f *fakeTree) Move(ctx context.Context, userID uuid.UUID, id int64, parentID *int64) (views.Set, error) {
	f.movedTo = parentID
	return f.moveSets, f.moveErr
}

func (f *fakeTree) Delete(ctx context.Context, userID uuid.UUID, id int64) (views.Set, error) {
	f.deleted = id
	return views.Of(views.Documentos), nil
}

func TestTreeRoutes(t *testing.T) {
	inv := &recordingInvalidator{}
	ops := &fakeTree{
		nodes:    []*tree.Node[*models.Documento]{{Item: &models.Documento{ID: 1, Titulo: "Raiz"}}},
		moveSets: views.Of(views.Documentos),
	}
	routes := &TreeRoutes[*models.Documento]{ops: ops, inv: inv}

	r := chi.NewRouter()
	r.Use(asUser(uuid.New()))
	r.Get("/documentos/tree", routes.Tree)
	r.Get("/documentos/{id}", routes.Get)
	r.Put("/documentos/{id}/mover", routes.Move)
	r.Delete("/documentos/{id}", routes.Delete)

	rr := doJSON(t, r, http.MethodGet, "/documentos/tree", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Raiz") {
		t.Fatalf("unexpected tree response: %d %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, r, http.MethodPut, "/documentos/3/mover", map[string]int64{"parent_id": 1})
	if rr.Code != http.StatusOK || ops.movedTo == nil || *ops.movedTo != 1 {
		t.Fatalf("unexpected move: %d %v", rr.Code, ops.movedTo)
	}

	rr = doJSON(t, r, http.MethodPut, "/documentos/3/mover", map[string]interface{}{"parent_id": nil})
	if rr.Code != http.StatusOK || ops.movedTo != nil {
		t.Fatalf("expected move to root, got %d %v", rr.Code, ops.movedTo)
	}

	ops.moveErr = &services.ValidationError{Message: "Uma pasta não pode ser movida para dentro de si mesma"}
	rr = doJSON(t, r, http.MethodPut, "/documentos/3/mover", map[string]int64{"parent_id": 4})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	rr = doJSON(t, r, http.MethodDelete, "/documentos/5", nil)
	if rr.Code != http.StatusOK || ops.deleted != 5 {
		t.Fatalf("unexpected delete: %d %d", rr.Code, ops.deleted)
	}
	if len(inv.calls) != 3 {
		t.Errorf("expected 3 invalidations (2 moves + delete), got %d", len(inv.calls))
	}

	ops.getErr = &services.NotFoundError{Message: "Documento não encontrado"}
	if rr = doJSON(t, r, http.MethodGet, "/documentos/99", nil); rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

// ─── Calendar ───

type fakeCalendar struct{ month string }

func (f *fakeCalendar) Month(ctx context.Context, userID uuid.UUID, month string) (*models.CalendarMonth, error) {
	f.month = month
	if month == "2024-13" {
		return nil, &services.ValidationError{Message: "Mês inválido"}
	}
	return &models.CalendarMonth{Mes: month, Eventos: []models.CalendarEvent{}}, nil
}

func (f *fakeCalendar) Dashboard(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error) {
	return &models.DashboardStats{}, nil
}

func TestCalendarHandler(t *testing.T) {
	cal := &fakeCalendar{}
	h := NewCalendarHandler(cal)
	r := chi.NewRouter()
	r.Use(asUser(uuid.New()))
	r.Get("/calendario", h.Month)
	r.Get("/dashboard", h.Dashboard)

	if rr := doJSON(t, r, http.MethodGet, "/calendario?mes=2024-03", nil); rr.Code != http.StatusOK || cal.month != "2024-03" {
		t.Errorf("unexpected calendar response: %d %s", rr.Code, cal.month)
	}
	if rr := doJSON(t, r, http.MethodGet, "/calendario?mes=2024-13", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
	if rr := doJSON(t, r, http.MethodGet, "/dashboard", nil); rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}
