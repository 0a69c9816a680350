package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/views"
)

// memTreeStore is an in-memory treeStore keyed through accessor funcs.
type memTreeStore[T any] struct {
	items     []T
	next      int64
	id        func(T) int64
	setID     func(T, int64)
	setParent func(T, *int64)
}

func (m *memTreeStore[T]) List(ctx context.Context, userID uuid.UUID) ([]T, error) {
	return append([]T(nil), m.items...), nil
}

func (m *memTreeStore[T]) Get(ctx context.Context, userID uuid.UUID, id int64) (T, error) {
	for _, item := range m.items {
		if m.id(item) == id {
			return item, nil
		}
	}
	var zero T
	return zero, pgx.ErrNoRows
}

func (m *memTreeStore[T]) Create(ctx context.Context, item T) error {
	m.next++
	m.setID(item, m.next)
	m.items = append(m.items, item)
	return nil
}

func (m *memTreeStore[T]) Update(ctx context.Context, item T) error {
	for i, existing := range m.items {
		if m.id(existing) == m.id(item) {
			m.items[i] = item
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memTreeStore[T]) Move(ctx context.Context, userID uuid.UUID, id int64, parentID *int64) (bool, error) {
	for _, item := range m.items {
		if m.id(item) == id {
			m.setParent(item, parentID)
			return true, nil
		}
	}
	return false, nil
}

func (m *memTreeStore[T]) Delete(ctx context.Context, userID uuid.UUID, id int64) (bool, error) {
	for i, item := range m.items {
		if m.id(item) == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newNoteStore(notes ...*models.Anotacao) *memTreeStore[*models.Anotacao] {
	return &memTreeStore[*models.Anotacao]{
		items:     notes,
		next:      100,
		id:        func(a *models.Anotacao) int64 { return a.ID },
		setID:     func(a *models.Anotacao, id int64) { a.ID = id },
		setParent: func(a *models.Anotacao, p *int64) { a.ParentID = p },
	}
}

func newResourceStore() *memTreeStore[*models.Recurso] {
	return &memTreeStore[*models.Recurso]{
		next:      100,
		id:        func(r *models.Recurso) int64 { return r.ID },
		setID:     func(r *models.Recurso, id int64) { r.ID = id },
		setParent: func(r *models.Recurso, p *int64) { r.ParentID = p },
	}
}

type stubVideos struct {
	meta *VideoMetadata
	err  error
}

func (s *stubVideos) Metadata(videoURL string) (*VideoMetadata, error) {
	return s.meta, s.err
}

func ptr(v int64) *int64 { return &v }

func newLibrary(notes *memTreeStore[*models.Anotacao], res *memTreeStore[*models.Recurso], videos videoLookup) *LibraryService {
	return NewLibraryService(nil, notes, nil, res, videos)
}

func noteFixture() *memTreeStore[*models.Anotacao] {
	return newNoteStore(
		&models.Anotacao{ID: 1, Titulo: "Constitucional", IsPasta: true},
		&models.Anotacao{ID: 2, ParentID: ptr(1), Titulo: "Controle", IsPasta: true},
		&models.Anotacao{ID: 3, ParentID: ptr(2), Titulo: "ADI", Conteudo: "# ADI\n\n**STF** julga"},
		&models.Anotacao{ID: 4, Titulo: "Administrativo", IsPasta: true},
	)
}

func TestLibrary_AnotacaoTree(t *testing.T) {
	svc := newLibrary(noteFixture(), newResourceStore(), nil)

	roots, err := svc.Anotacoes.Tree(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}
	if roots[0].Item.ID != 1 || len(roots[0].Children) != 1 || roots[0].Children[0].Children[0].Item.ID != 3 {
		t.Errorf("unexpected tree shape: %+v", roots[0])
	}
}

func TestLibrary_MoveValidation(t *testing.T) {
	tests := []struct {
		name   string
		id     int64
		parent *int64
	}{
		{"into itself", 2, ptr(2)},
		{"into own descendant", 1, ptr(2)},
		{"into a note", 4, ptr(3)},
		{"into unknown parent", 3, ptr(999)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newLibrary(noteFixture(), newResourceStore(), nil)
			_, err := svc.Anotacoes.Move(context.Background(), uuid.New(), tc.id, tc.parent)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := ve.Fields["parent_id"]; !ok {
				t.Errorf("expected parent_id field error, got %+v", ve.Fields)
			}
		})
	}
}

func TestLibrary_MoveAndDelete(t *testing.T) {
	store := noteFixture()
	svc := newLibrary(store, newResourceStore(), nil)
	ctx := context.Background()
	user := uuid.New()

	set, err := svc.Anotacoes.Move(ctx, user, 3, ptr(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !set.Has(views.Anotacoes) {
		t.Errorf("expected anotacoes view, got %v", set.List())
	}
	note, _ := store.Get(ctx, user, 3)
	if note.ParentID == nil || *note.ParentID != 4 {
		t.Errorf("expected parent 4, got %v", note.ParentID)
	}

	if _, err := svc.Anotacoes.Move(ctx, user, 3, nil); err != nil {
		t.Fatalf("moving to root: %v", err)
	}

	var nf *NotFoundError
	if _, err := svc.Anotacoes.Delete(ctx, user, 42); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
	if _, err := svc.Anotacoes.Delete(ctx, user, 4); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLibrary_CreateAnotacao(t *testing.T) {
	store := noteFixture()
	svc := newLibrary(store, newResourceStore(), nil)
	ctx := context.Background()

	ch, err := svc.CreateAnotacao(ctx, uuid.New(), models.AnotacaoRequest{ParentID: ptr(4), Titulo: "  Atos  ", Conteudo: "texto"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.Item.ID == 0 || ch.Item.Titulo != "Atos" {
		t.Errorf("unexpected note: %+v", ch.Item)
	}

	folder, err := svc.CreateAnotacao(ctx, uuid.New(), models.AnotacaoRequest{Titulo: "Pasta", Conteudo: "ignorado", IsPasta: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if folder.Item.Conteudo != "" {
		t.Errorf("folders carry no content, got %q", folder.Item.Conteudo)
	}

	var ve *ValidationError
	if _, err := svc.CreateAnotacao(ctx, uuid.New(), models.AnotacaoRequest{Titulo: " "}); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for blank title, got %v", err)
	}
}

func TestLibrary_AnotacaoHTML(t *testing.T) {
	svc := newLibrary(noteFixture(), newResourceStore(), nil)
	ctx := context.Background()

	out, err := svc.AnotacaoHTML(ctx, uuid.New(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "<h1>ADI</h1>") || !strings.Contains(out, "<strong>STF</strong>") {
		t.Errorf("unexpected html: %q", out)
	}

	var ve *ValidationError
	if _, err := svc.AnotacaoHTML(ctx, uuid.New(), 1); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for a folder, got %v", err)
	}
	var nf *NotFoundError
	if _, err := svc.AnotacaoHTML(ctx, uuid.New(), 77); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestLibrary_CreateRecurso(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()

	t.Run("video enriched from metadata", func(t *testing.T) {
		videos := &stubVideos{meta: &VideoMetadata{VideoID: "dQw4w9WgXcQ", Title: "Aula de Direito Penal", Channel: "Canal"}}
		svc := newLibrary(newNoteStore(), newResourceStore(), videos)

		ch, err := svc.CreateRecurso(ctx, user, models.RecursoRequest{Tipo: "video", URL: "https://youtu.be/dQw4w9WgXcQ"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ch.Item.Titulo != "Aula de Direito Penal" {
			t.Errorf("expected title from metadata, got %q", ch.Item.Titulo)
		}
		var meta VideoMetadata
		if err := json.Unmarshal(ch.Item.Metadata, &meta); err != nil || meta.Channel != "Canal" {
			t.Errorf("expected stored metadata, got %s (%v)", ch.Item.Metadata, err)
		}
		if !ch.Views.Has(views.Biblioteca) {
			t.Errorf("expected biblioteca view")
		}
	})

	t.Run("lookup failure keeps the url as title", func(t *testing.T) {
		svc := newLibrary(newNoteStore(), newResourceStore(), &stubVideos{err: errors.New("offline")})
		ch, err := svc.CreateRecurso(ctx, user, models.RecursoRequest{Tipo: "video", URL: "https://youtu.be/dQw4w9WgXcQ"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ch.Item.Titulo != "https://youtu.be/dQw4w9WgXcQ" || ch.Item.Metadata != nil {
			t.Errorf("unexpected resource: %+v", ch.Item)
		}
	})

	invalidCases := []struct {
		name  string
		req   models.RecursoRequest
		field string
	}{
		{"link without url", models.RecursoRequest{Tipo: "link", Titulo: "STF"}, "url"},
		{"video not on youtube", models.RecursoRequest{Tipo: "video", URL: "https://vimeo.com/1"}, "url"},
		{"link without title", models.RecursoRequest{Tipo: "link", URL: "https://stf.jus.br"}, "titulo"},
		{"unknown type", models.RecursoRequest{Tipo: "audio", Titulo: "x", URL: "https://x.y"}, "tipo"},
		{"parent is not a folder", models.RecursoRequest{Tipo: "pasta", Titulo: "x", ParentID: ptr(5)}, "parent_id"},
	}
	for _, tc := range invalidCases {
		t.Run(tc.name, func(t *testing.T) {
			res := newResourceStore()
			res.items = []*models.Recurso{{ID: 5, Tipo: "link", Titulo: "STF", URL: "https://stf.jus.br"}}
			svc := newLibrary(newNoteStore(), res, nil)

			_, err := svc.CreateRecurso(ctx, user, tc.req)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := ve.Fields[tc.field]; !ok {
				t.Errorf("expected %s field error, got %+v", tc.field, ve.Fields)
			}
		})
	}
}
