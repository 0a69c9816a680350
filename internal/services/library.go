package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/tree"
	"hub-helio-backend/internal/views"
)

// treeStore is what every parent-linked repository offers.
type treeStore[T any] interface {
	List(ctx context.Context, userID uuid.UUID) ([]T, error)
	Get(ctx context.Context, userID uuid.UUID, id int64) (T, error)
	Create(ctx context.Context, item T) error
	Update(ctx context.Context, item T) error
	Move(ctx context.Context, userID uuid.UUID, id int64, parentID *int64) (bool, error)
	Delete(ctx context.Context, userID uuid.UUID, id int64) (bool, error)
}

// Change is the outcome of a CRUD mutation plus the views it made stale.
type Change[T any] struct {
	Item  T         `json:"item"`
	Views views.Set `json:"-"`
}

// treeService holds the operations shared by all nested entities.
type treeService[T any] struct {
	store    treeStore[T]
	id       func(T) int64
	parent   func(T) *int64
	folder   func(T) bool // nil: any node may hold children
	views    views.Set
	notFound string
}

func (s *treeService[T]) Tree(ctx context.Context, userID uuid.UUID) ([]*tree.Node[T], error) {
	items, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, storeErr("list tree", err, s.notFound)
	}
	roots := tree.Build(items, s.id, s.parent)
	if roots == nil {
		roots = []*tree.Node[T]{}
	}
	return roots, nil
}

func (s *treeService[T]) Get(ctx context.Context, userID uuid.UUID, id int64) (T, error) {
	var zero T
	if id <= 0 {
		return zero, invalid("id", "Identificador inválido")
	}
	item, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return zero, storeErr("get node", err, s.notFound)
	}
	return item, nil
}

// checkParent validates a new parent for node id (0 for a node being created).
func (s *treeService[T]) checkParent(ctx context.Context, userID uuid.UUID, id int64, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return invalid("parent_id", "Um item não pode ser pai de si mesmo")
	}

	items, err := s.store.List(ctx, userID)
	if err != nil {
		return storeErr("list tree", err, s.notFound)
	}

	var parent T
	found := false
	for _, item := range items {
		if s.id(item) == *parentID {
			parent, found = item, true
			break
		}
	}
	if !found {
		return invalid("parent_id", "Item de destino não encontrado")
	}
	if s.folder != nil && !s.folder(parent) {
		return invalid("parent_id", "O destino precisa ser uma pasta")
	}

	if id > 0 {
		for _, d := range tree.Descendants(items, s.id, s.parent, id) {
			if d == *parentID {
				return invalid("parent_id", "Não é possível mover um item para dentro dele mesmo")
			}
		}
	}
	return nil
}

func (s *treeService[T]) Move(ctx context.Context, userID uuid.UUID, id int64, parentID *int64) (views.Set, error) {
	if id <= 0 {
		return nil, invalid("id", "Identificador inválido")
	}
	if err := s.checkParent(ctx, userID, id, parentID); err != nil {
		return nil, err
	}
	ok, err := s.store.Move(ctx, userID, id, parentID)
	if err != nil {
		return nil, storeErr("move node", err, s.notFound)
	}
	if !ok {
		return nil, &NotFoundError{Message: s.notFound}
	}
	return s.views, nil
}

// Delete removes one node; its children move up to its parent.
func (s *treeService[T]) Delete(ctx context.Context, userID uuid.UUID, id int64) (views.Set, error) {
	if id <= 0 {
		return nil, invalid("id", "Identificador inválido")
	}
	ok, err := s.store.Delete(ctx, userID, id)
	if err != nil {
		return nil, storeErr("delete node", err, s.notFound)
	}
	if !ok {
		return nil, &NotFoundError{Message: s.notFound}
	}
	return s.views, nil
}

func (s *treeService[T]) create(ctx context.Context, userID uuid.UUID, item T, parentID *int64) (*Change[T], error) {
	if err := s.checkParent(ctx, userID, 0, parentID); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, item); err != nil {
		return nil, storeErr("create node", err, s.notFound)
	}
	return &Change[T]{Item: item, Views: s.views}, nil
}

func (s *treeService[T]) update(ctx context.Context, item T) (*Change[T], error) {
	if s.id(item) <= 0 {
		return nil, invalid("id", "Identificador inválido")
	}
	if err := s.store.Update(ctx, item); err != nil {
		return nil, storeErr("update node", err, s.notFound)
	}
	return &Change[T]{Item: item, Views: s.views}, nil
}

type videoLookup interface {
	Metadata(videoURL string) (*VideoMetadata, error)
}

// LibraryService serves the four nested collections: subject pages, notes,
// documents and library resources.
type LibraryService struct {
	Paginas    *treeService[*models.Pagina]
	Anotacoes  *treeService[*models.Anotacao]
	Documentos *treeService[*models.Documento]
	Recursos   *treeService[*models.Recurso]
	videos     videoLookup
}

func NewLibraryService(
	paginas treeStore[*models.Pagina],
	anotacoes treeStore[*models.Anotacao],
	documentos treeStore[*models.Documento],
	recursos treeStore[*models.Recurso],
	videos videoLookup,
) *LibraryService {
	return &LibraryService{
		Paginas: &treeService[*models.Pagina]{
			store:  paginas,
			id:     func(p *models.Pagina) int64 { return p.ID },
			parent: func(p *models.Pagina) *int64 { return p.ParentID },
			// the cycle shows subject titles
			views:    views.Of(views.Paginas, views.Ciclo),
			notFound: "Página não encontrada",
		},
		Anotacoes: &treeService[*models.Anotacao]{
			store:    anotacoes,
			id:       func(a *models.Anotacao) int64 { return a.ID },
			parent:   func(a *models.Anotacao) *int64 { return a.ParentID },
			folder:   func(a *models.Anotacao) bool { return a.IsPasta },
			views:    views.Of(views.Anotacoes),
			notFound: "Anotação não encontrada",
		},
		Documentos: &treeService[*models.Documento]{
			store:    documentos,
			id:       func(d *models.Documento) int64 { return d.ID },
			parent:   func(d *models.Documento) *int64 { return d.ParentID },
			views:    views.Of(views.Documentos),
			notFound: "Documento não encontrado",
		},
		Recursos: &treeService[*models.Recurso]{
			store:    recursos,
			id:       func(r *models.Recurso) int64 { return r.ID },
			parent:   func(r *models.Recurso) *int64 { return r.ParentID },
			folder:   func(r *models.Recurso) bool { return r.Tipo == "pasta" },
			views:    views.Of(views.Biblioteca),
			notFound: "Recurso não encontrado",
		},
		videos: videos,
	}
}

func (s *LibraryService) CreatePagina(ctx context.Context, userID uuid.UUID, req models.PaginaRequest) (*Change[*models.Pagina], error) {
	titulo := strings.TrimSpace(req.Titulo)
	if titulo == "" {
		return nil, invalid("titulo", "Título é obrigatório")
	}
	p := &models.Pagina{
		UserID:     userID,
		ParentID:   req.ParentID,
		Titulo:     titulo,
		Icone:      req.Icone,
		Conteudo:   req.Conteudo,
		ConcursoID: req.ConcursoID,
	}
	return s.Paginas.create(ctx, userID, p, req.ParentID)
}

// UpdatePagina rewrites title, icon and exam link; content is kept when the
// request carries none. Use Move to change the parent.
func (s *LibraryService) UpdatePagina(ctx context.Context, userID uuid.UUID, id int64, req models.PaginaRequest) (*Change[*models.Pagina], error) {
	titulo := strings.TrimSpace(req.Titulo)
	if titulo == "" {
		return nil, invalid("titulo", "Título é obrigatório")
	}
	return s.Paginas.update(ctx, &models.Pagina{
		ID:         id,
		UserID:     userID,
		Titulo:     titulo,
		Icone:      req.Icone,
		Conteudo:   req.Conteudo,
		ConcursoID: req.ConcursoID,
	})
}

func (s *LibraryService) CreateAnotacao(ctx context.Context, userID uuid.UUID, req models.AnotacaoRequest) (*Change[*models.Anotacao], error) {
	titulo := strings.TrimSpace(req.Titulo)
	if titulo == "" {
		return nil, invalid("titulo", "Título é obrigatório")
	}
	a := &models.Anotacao{
		UserID:   userID,
		ParentID: req.ParentID,
		Titulo:   titulo,
		Conteudo: req.Conteudo,
		IsPasta:  req.IsPasta,
	}
	if a.IsPasta {
		a.Conteudo = ""
	}
	return s.Anotacoes.create(ctx, userID, a, req.ParentID)
}

func (s *LibraryService) UpdateAnotacao(ctx context.Context, userID uuid.UUID, id int64, req models.AnotacaoRequest) (*Change[*models.Anotacao], error) {
	titulo := strings.TrimSpace(req.Titulo)
	if titulo == "" {
		return nil, invalid("titulo", "Título é obrigatório")
	}
	return s.Anotacoes.update(ctx, &models.Anotacao{
		ID:       id,
		UserID:   userID,
		Titulo:   titulo,
		Conteudo: req.Conteudo,
	})
}

// AnotacaoHTML renders a note's markdown body.
func (s *LibraryService) AnotacaoHTML(ctx context.Context, userID uuid.UUID, id int64) (string, error) {
	note, err := s.Anotacoes.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if note.IsPasta {
		return "", invalid("id", "Pastas não têm conteúdo")
	}
	out, err := RenderMarkdown(note.Conteudo)
	if err != nil {
		return "", err
	}
	return out, nil
}

func (s *LibraryService) CreateDocumento(ctx context.Context, userID uuid.UUID, req models.DocumentoRequest) (*Change[*models.Documento], error) {
	titulo := strings.TrimSpace(req.Titulo)
	if titulo == "" {
		return nil, invalid("titulo", "Título é obrigatório")
	}
	d := &models.Documento{
		UserID:   userID,
		ParentID: req.ParentID,
		Titulo:   titulo,
		Icone:    req.Icone,
		Conteudo: req.Conteudo,
	}
	return s.Documentos.create(ctx, userID, d, req.ParentID)
}

func (s *LibraryService) UpdateDocumento(ctx context.Context, userID uuid.UUID, id int64, req models.DocumentoRequest) (*Change[*models.Documento], error) {
	titulo := strings.TrimSpace(req.Titulo)
	if titulo == "" {
		return nil, invalid("titulo", "Título é obrigatório")
	}
	return s.Documentos.update(ctx, &models.Documento{
		ID:       id,
		UserID:   userID,
		Titulo:   titulo,
		Icone:    req.Icone,
		Conteudo: req.Conteudo,
	})
}

// CreateRecurso stores a library entry. Video links are looked up on
// YouTube so the title and thumbnail can be filled in.
func (s *LibraryService) CreateRecurso(ctx context.Context, userID uuid.UUID, req models.RecursoRequest) (*Change[*models.Recurso], error) {
	rc, err := s.buildRecurso(userID, 0, req)
	if err != nil {
		return nil, err
	}
	return s.Recursos.create(ctx, userID, rc, req.ParentID)
}

func (s *LibraryService) UpdateRecurso(ctx context.Context, userID uuid.UUID, id int64, req models.RecursoRequest) (*Change[*models.Recurso], error) {
	rc, err := s.buildRecurso(userID, id, req)
	if err != nil {
		return nil, err
	}
	return s.Recursos.update(ctx, rc)
}

func (s *LibraryService) buildRecurso(userID uuid.UUID, id int64, req models.RecursoRequest) (*models.Recurso, error) {
	rc := &models.Recurso{
		ID:        id,
		UserID:    userID,
		ParentID:  req.ParentID,
		Titulo:    strings.TrimSpace(req.Titulo),
		Tipo:      req.Tipo,
		URL:       strings.TrimSpace(req.URL),
		Descricao: req.Descricao,
	}

	switch rc.Tipo {
	case "pasta":
		rc.URL = ""
	case "link", "pdf", "video":
		if rc.URL == "" {
			return nil, invalid("url", "URL é obrigatória")
		}
	default:
		return nil, invalid("tipo", "Tipo deve ser link, video, pdf ou pasta")
	}

	if rc.Tipo == "video" {
		if VideoID(rc.URL) == "" {
			return nil, invalid("url", "URL de vídeo do YouTube inválida")
		}
		s.enrichVideo(rc)
	}

	if rc.Titulo == "" {
		return nil, invalid("titulo", "Título é obrigatório")
	}
	return rc, nil
}

// enrichVideo fills metadata (and a missing title) from YouTube. Lookup
// failures leave the resource as typed.
func (s *LibraryService) enrichVideo(rc *models.Recurso) {
	if s.videos == nil {
		return
	}
	meta, err := s.videos.Metadata(rc.URL)
	if err != nil {
		log.Printf("Video metadata lookup failed for %s: %v", rc.URL, err)
		if rc.Titulo == "" {
			rc.Titulo = rc.URL
		}
		return
	}
	if rc.Titulo == "" {
		rc.Titulo = meta.Title
	}
	if raw, err := json.Marshal(meta); err == nil {
		rc.Metadata = raw
	}
}

// notFoundAsInvalid turns a missing referenced row into a field error.
func notFoundAsInvalid(err error, field, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return invalid(field, msg)
	}
	return err
}
