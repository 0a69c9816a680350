package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/repository"
	"hub-helio-backend/internal/schedule"
	"hub-helio-backend/internal/views"
)

const sessionNotFound = "Sessão de estudo não encontrada"

type cycleStore interface {
	InTx(ctx context.Context, userID uuid.UUID, fn func(tx repository.CycleTx) error) error
	List(ctx context.Context, userID uuid.UUID) ([]*models.CycleSession, error)
}

type reviewStore interface {
	List(ctx context.Context, userID uuid.UUID, filter models.ReviewFilter) ([]models.Review, error)
	SetCompleted(ctx context.Context, userID uuid.UUID, id int64, completed bool) (*models.Review, error)
}

// ActionResult is what a mutating cycle action returns: the rows it touched
// and the views whose cached state is now stale.
type ActionResult struct {
	Session  *models.CycleSession   `json:"session,omitempty"`
	Sessions []*models.CycleSession `json:"sessions,omitempty"`
	Reviews  []models.Review        `json:"reviews,omitempty"`
	Review   *models.Review         `json:"review,omitempty"`
	Deleted  int64                  `json:"deleted,omitempty"`
	Views    views.Set              `json:"-"`
}

type CycleService struct {
	store   cycleStore
	reviews reviewStore
	loc     *time.Location
	now     func() time.Time
}

func NewCycleService(store cycleStore, reviews reviewStore, loc *time.Location) *CycleService {
	if loc == nil {
		loc = time.UTC
	}
	return &CycleService{store: store, reviews: reviews, loc: loc, now: time.Now}
}

func (s *CycleService) Location() *time.Location { return s.loc }

func (s *CycleService) ListSessions(ctx context.Context, userID uuid.UUID) ([]*models.CycleSession, error) {
	sessions, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, storeErr("list sessions", err, sessionNotFound)
	}
	return sessions, nil
}

// ToggleCompletion marks a session studied now and schedules its three
// reviews, or clears its schedule when completing is false.
func (s *CycleService) ToggleCompletion(ctx context.Context, userID uuid.UUID, sessionID int64, completing bool) (*ActionResult, error) {
	if sessionID <= 0 {
		return nil, invalid("id", "Identificador de sessão inválido")
	}

	res := &ActionResult{}
	err := s.store.InTx(ctx, userID, func(tx repository.CycleTx) error {
		session, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}

		if !completing {
			if err := tx.UpdateDates(ctx, sessionID, false, models.SessionDates{}); err != nil {
				return err
			}
			if _, err := tx.DeleteReviews(ctx, []int64{sessionID}); err != nil {
				return err
			}
			session.Concluida = false
			applyDates(session, models.SessionDates{})
			res.Session = session
			res.Reviews = []models.Review{}
			return nil
		}

		if err := reopen(ctx, tx, session); err != nil {
			return err
		}

		plan := schedule.NewPlan(s.now().In(s.loc))
		dates := planDates(plan)
		if err := tx.UpdateDates(ctx, sessionID, true, dates); err != nil {
			return err
		}
		if _, err := tx.DeleteReviews(ctx, []int64{sessionID}); err != nil {
			return err
		}

		reviews := make([]models.Review, 0, len(schedule.Kinds()))
		for _, kind := range schedule.Kinds() {
			reviews = append(reviews, models.Review{
				CicloSessaoID: sessionID,
				TipoRevisao:   string(kind),
				DataRevisao:   schedule.DateOnly(plan.Due(kind), s.loc),
				Concluida:     false,
				MateriaNome:   session.MateriaNome,
				FocoSugerido:  session.FocoSugerido,
			})
		}
		if err := tx.InsertReviews(ctx, reviews); err != nil {
			return err
		}

		session.Concluida = true
		applyDates(session, dates)
		res.Session = session
		res.Reviews = reviews
		return nil
	})
	if err != nil {
		return nil, storeErr("toggle completion", err, sessionNotFound)
	}

	res.Views = views.Schedule()
	return res, nil
}

// UpdateStudyOrReviewDate moves one date of a session. Moving the study date
// shifts all three reviews, creating any that are missing; moving a review
// date touches only that review.
func (s *CycleService) UpdateStudyOrReviewDate(ctx context.Context, userID uuid.UUID, sessionID int64, field, date string) (*ActionResult, error) {
	if sessionID <= 0 {
		return nil, invalid("id", "Identificador de sessão inválido")
	}
	f, err := schedule.ParseField(field)
	if err != nil {
		return nil, invalid("campo", fmt.Sprintf("Campo de data desconhecido: %q", field))
	}
	newDate, err := schedule.ParseDate(date, s.loc)
	if err != nil {
		return nil, invalid("data", "Data inválida")
	}

	res := &ActionResult{}
	err = s.store.InTx(ctx, userID, func(tx repository.CycleTx) error {
		session, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}

		if err := reopen(ctx, tx, session); err != nil {
			return err
		}

		if f == schedule.FieldStudyDate {
			plan := schedule.NewPlan(newDate)
			dates := planDates(plan)
			if err := tx.UpdateDates(ctx, sessionID, session.Concluida, dates); err != nil {
				return err
			}
			for _, kind := range schedule.Kinds() {
				rv := &models.Review{
					CicloSessaoID: sessionID,
					TipoRevisao:   string(kind),
					DataRevisao:   schedule.DateOnly(plan.Due(kind), s.loc),
					MateriaNome:   session.MateriaNome,
					FocoSugerido:  session.FocoSugerido,
				}
				if err := tx.UpsertReviewDate(ctx, rv); err != nil {
					return err
				}
			}
			applyDates(session, dates)
		} else {
			kind, _ := f.Kind()
			if err := tx.SetSessionDate(ctx, sessionID, f, newDate); err != nil {
				return err
			}
			if _, err := tx.UpdateReviewDate(ctx, sessionID, kind, schedule.DateOnly(newDate, s.loc)); err != nil {
				return err
			}
			setDate(session, f, newDate)
		}

		reviews, err := tx.ListReviews(ctx, sessionID)
		if err != nil {
			return err
		}
		res.Session = session
		res.Reviews = reviews
		return nil
	})
	if err != nil {
		return nil, storeErr("update session date", err, sessionNotFound)
	}

	res.Views = views.Schedule()
	return res, nil
}

// reopen lifts materia_finalizada before a retired subject gets dates again.
func reopen(ctx context.Context, tx repository.CycleTx, session *models.CycleSession) error {
	if !session.MateriaFinalizada {
		return nil
	}
	if err := tx.SetFinalized(ctx, session.ID, false); err != nil {
		return err
	}
	session.MateriaFinalizada = false
	return nil
}

// ToggleFinalized retires a subject from the cycle. Finalizing clears the
// schedule and its reviews; un-finalizing only lifts the flag.
func (s *CycleService) ToggleFinalized(ctx context.Context, userID uuid.UUID, sessionID int64, finalized bool) (*ActionResult, error) {
	if sessionID <= 0 {
		return nil, invalid("id", "Identificador de sessão inválido")
	}

	res := &ActionResult{}
	err := s.store.InTx(ctx, userID, func(tx repository.CycleTx) error {
		session, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}

		if finalized {
			if err := tx.UpdateDates(ctx, sessionID, false, models.SessionDates{}); err != nil {
				return err
			}
			if _, err := tx.DeleteReviews(ctx, []int64{sessionID}); err != nil {
				return err
			}
			session.Concluida = false
			applyDates(session, models.SessionDates{})
			res.Reviews = []models.Review{}
		}
		if err := tx.SetFinalized(ctx, sessionID, finalized); err != nil {
			return err
		}

		session.MateriaFinalizada = finalized
		res.Session = session
		return nil
	})
	if err != nil {
		return nil, storeErr("toggle finalized", err, sessionNotFound)
	}

	res.Views = views.Schedule()
	return res, nil
}

// BulkDeleteSessions removes the given sessions and their reviews.
func (s *CycleService) BulkDeleteSessions(ctx context.Context, userID uuid.UUID, sessionIDs []int64) (*ActionResult, error) {
	ids, verr := uniqueIDs(sessionIDs)
	if verr != nil {
		return nil, verr
	}

	res := &ActionResult{}
	err := s.store.InTx(ctx, userID, func(tx repository.CycleTx) error {
		if _, err := tx.DeleteReviews(ctx, ids); err != nil {
			return err
		}
		n, err := tx.DeleteSessions(ctx, ids)
		if err != nil {
			return err
		}
		res.Deleted = n
		return nil
	})
	if err != nil {
		return nil, storeErr("bulk delete sessions", err, sessionNotFound)
	}

	res.Views = views.Schedule()
	return res, nil
}

func (s *CycleService) DeleteSession(ctx context.Context, userID uuid.UUID, sessionID int64) (*ActionResult, error) {
	if sessionID <= 0 {
		return nil, invalid("id", "Identificador de sessão inválido")
	}
	res, err := s.BulkDeleteSessions(ctx, userID, []int64{sessionID})
	if err != nil {
		return nil, err
	}
	if res.Deleted == 0 {
		return nil, &NotFoundError{Message: sessionNotFound}
	}
	return res, nil
}

func (s *CycleService) CreateSession(ctx context.Context, userID uuid.UUID, req models.CreateSessionRequest) (*ActionResult, error) {
	name := strings.TrimSpace(req.MateriaNome)
	if name == "" {
		return nil, invalid("materia_nome", "Nome da matéria é obrigatório")
	}

	res := &ActionResult{}
	err := s.store.InTx(ctx, userID, func(tx repository.CycleTx) error {
		ordem, err := tx.NextOrdem(ctx)
		if err != nil {
			return err
		}
		session := &models.CycleSession{
			Ordem:        ordem,
			DisciplinaID: req.DisciplinaID,
			MateriaNome:  name,
			FocoSugerido: req.FocoSugerido,
		}
		if err := tx.InsertSession(ctx, session); err != nil {
			return err
		}
		res.Session = session
		return nil
	})
	if err != nil {
		return nil, storeErr("create session", err, sessionNotFound)
	}

	res.Views = views.Of(views.Ciclo, views.Dashboard)
	return res, nil
}

// SeedTemplate appends a cycle built from subject quotas, interleaving
// subjects round-robin. With Replace the current cycle is dropped first.
func (s *CycleService) SeedTemplate(ctx context.Context, userID uuid.UUID, req models.SeedRequest) (*ActionResult, error) {
	if len(req.Itens) == 0 {
		return nil, invalid("itens", "Informe ao menos uma matéria")
	}
	for i, item := range req.Itens {
		if strings.TrimSpace(item.MateriaNome) == "" {
			return nil, invalid(fmt.Sprintf("itens[%d].materia_nome", i), "Nome da matéria é obrigatório")
		}
		if item.Quantidade < 1 {
			return nil, invalid(fmt.Sprintf("itens[%d].quantidade", i), "Quantidade deve ser ao menos 1")
		}
	}

	res := &ActionResult{}
	err := s.store.InTx(ctx, userID, func(tx repository.CycleTx) error {
		if req.Replace {
			n, err := tx.DeleteAllSessions(ctx)
			if err != nil {
				return err
			}
			res.Deleted = n
		}
		ordem, err := tx.NextOrdem(ctx)
		if err != nil {
			return err
		}

		for _, item := range interleave(req.Itens) {
			session := &models.CycleSession{
				Ordem:        ordem,
				DisciplinaID: item.DisciplinaID,
				MateriaNome:  strings.TrimSpace(item.MateriaNome),
			}
			if err := tx.InsertSession(ctx, session); err != nil {
				return err
			}
			res.Sessions = append(res.Sessions, session)
			ordem++
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("seed cycle", err, sessionNotFound)
	}

	res.Views = views.Schedule()
	return res, nil
}

// interleave expands quotas into a sequence that never repeats a subject
// while another one still has slots left.
func interleave(items []models.SeedItem) []models.SeedItem {
	left := make([]int, len(items))
	total := 0
	for i, item := range items {
		left[i] = item.Quantidade
		total += item.Quantidade
	}

	out := make([]models.SeedItem, 0, total)
	for len(out) < total {
		for i, item := range items {
			if left[i] > 0 {
				out = append(out, item)
				left[i]--
			}
		}
	}
	return out
}

// AutoSave applies a partial edit of the free-form session fields.
func (s *CycleService) AutoSave(ctx context.Context, userID uuid.UUID, sessionID int64, patch models.SessionPatch) (*ActionResult, error) {
	if sessionID <= 0 {
		return nil, invalid("id", "Identificador de sessão inválido")
	}
	if patch.Empty() {
		return nil, invalid("body", "Nenhum campo para atualizar")
	}

	res := &ActionResult{}
	err := s.store.InTx(ctx, userID, func(tx repository.CycleTx) error {
		session, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}

		if patch.DisciplinaID != nil {
			session.DisciplinaID = patch.DisciplinaID
		}
		if patch.MateriaNome != nil {
			name := strings.TrimSpace(*patch.MateriaNome)
			if name == "" {
				return invalid("materia_nome", "Nome da matéria é obrigatório")
			}
			session.MateriaNome = name
		}
		if patch.FocoSugerido != nil {
			session.FocoSugerido = *patch.FocoSugerido
		}
		if patch.DiarioDeBordo != nil {
			session.DiarioDeBordo = *patch.DiarioDeBordo
		}
		if patch.QuestoesAcertos != nil {
			session.QuestoesAcertos = *patch.QuestoesAcertos
		}
		if patch.QuestoesTotal != nil {
			session.QuestoesTotal = *patch.QuestoesTotal
		}

		if session.QuestoesAcertos < 0 || session.QuestoesTotal < 0 {
			return invalid("questoes_total", "Contagem de questões não pode ser negativa")
		}
		if session.QuestoesAcertos > session.QuestoesTotal {
			return invalid("questoes_acertos", "Acertos não podem exceder o total de questões")
		}

		if err := tx.UpdateFields(ctx, session); err != nil {
			return err
		}
		res.Session = session
		return nil
	})
	if err != nil {
		return nil, storeErr("autosave session", err, sessionNotFound)
	}

	res.Views = views.Of(views.Ciclo, views.Dashboard)
	return res, nil
}

// Reorder persists ordem = position (1-based) for the given ids.
func (s *CycleService) Reorder(ctx context.Context, userID uuid.UUID, sessionIDs []int64) (*ActionResult, error) {
	ids, verr := uniqueIDs(sessionIDs)
	if verr != nil {
		return nil, verr
	}
	if len(ids) != len(sessionIDs) {
		return nil, invalid("ids", "Lista de ordem contém identificadores repetidos")
	}

	err := s.store.InTx(ctx, userID, func(tx repository.CycleTx) error {
		for i, id := range ids {
			n, err := tx.SetOrdem(ctx, id, i+1)
			if err != nil {
				return err
			}
			if n == 0 {
				return &NotFoundError{Message: sessionNotFound}
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("reorder sessions", err, sessionNotFound)
	}

	return &ActionResult{Views: views.Of(views.Ciclo)}, nil
}

func (s *CycleService) ListReviews(ctx context.Context, userID uuid.UUID, status, from, to string) ([]models.Review, error) {
	filter := models.ReviewFilter{}
	switch status {
	case "", "pendentes":
		filter.OnlyPending = true
	case "todas":
	default:
		return nil, invalid("status", "Status deve ser 'pendentes' ou 'todas'")
	}

	for field, v := range map[string]string{"de": from, "ate": to} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(schedule.DateLayout, v); err != nil {
			return nil, invalid(field, "Data deve estar no formato AAAA-MM-DD")
		}
	}
	filter.From = from
	filter.To = to

	reviews, err := s.reviews.List(ctx, userID, filter)
	if err != nil {
		return nil, storeErr("list reviews", err, "Revisão não encontrada")
	}
	return reviews, nil
}

func (s *CycleService) ToggleReviewCompleted(ctx context.Context, userID uuid.UUID, reviewID int64, completed bool) (*ActionResult, error) {
	if reviewID <= 0 {
		return nil, invalid("id", "Identificador de revisão inválido")
	}
	rv, err := s.reviews.SetCompleted(ctx, userID, reviewID, completed)
	if err != nil {
		return nil, storeErr("toggle review", err, "Revisão não encontrada")
	}
	return &ActionResult{
		Review: rv,
		Views:  views.Of(views.Revisoes, views.Calendario, views.Dashboard),
	}, nil
}

func uniqueIDs(ids []int64) ([]int64, *ValidationError) {
	if len(ids) == 0 {
		return nil, invalid("ids", "Informe ao menos um identificador")
	}
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, invalid("ids", "Identificador inválido")
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func planDates(p schedule.Plan) models.SessionDates {
	study, r1, r7, r30 := p.StudyDate, p.Review1, p.Review7, p.Review30
	return models.SessionDates{
		DataEstudo:   &study,
		DataRevisao1: &r1,
		DataRevisao2: &r7,
		DataRevisao3: &r30,
	}
}

func applyDates(s *models.CycleSession, d models.SessionDates) {
	s.DataEstudo = d.DataEstudo
	s.DataRevisao1 = d.DataRevisao1
	s.DataRevisao2 = d.DataRevisao2
	s.DataRevisao3 = d.DataRevisao3
}

func setDate(s *models.CycleSession, f schedule.Field, t time.Time) {
	switch f {
	case schedule.FieldStudyDate:
		s.DataEstudo = &t
	case schedule.FieldReview1:
		s.DataRevisao1 = &t
	case schedule.FieldReview2:
		s.DataRevisao2 = &t
	case schedule.FieldReview3:
		s.DataRevisao3 = &t
	}
}
