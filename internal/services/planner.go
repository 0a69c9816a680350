package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/schedule"
	"hub-helio-backend/internal/views"
)

type plannerStore interface {
	ListReminders(ctx context.Context, userID uuid.UUID, from, to string) ([]*models.Reminder, error)
	CreateReminder(ctx context.Context, rm *models.Reminder) error
	UpdateReminder(ctx context.Context, rm *models.Reminder) error
	DeleteReminder(ctx context.Context, userID uuid.UUID, id int64) (bool, error)

	ListConcursos(ctx context.Context, userID uuid.UUID) ([]*models.Concurso, error)
	CreateConcurso(ctx context.Context, c *models.Concurso) error
	UpdateConcurso(ctx context.Context, c *models.Concurso) error
	DeleteConcurso(ctx context.Context, userID uuid.UUID, id int64) (bool, error)

	ListTarefas(ctx context.Context, userID uuid.UUID) ([]*models.Tarefa, error)
	CreateTarefa(ctx context.Context, t *models.Tarefa) error
	UpdateTarefa(ctx context.Context, t *models.Tarefa) error
	SetTarefaConcluida(ctx context.Context, userID uuid.UUID, id int64, done bool) (*models.Tarefa, error)
	ReorderTarefas(ctx context.Context, userID uuid.UUID, ids []int64) (int64, error)
	DeleteTarefa(ctx context.Context, userID uuid.UUID, id int64) (bool, error)
}

const (
	reminderNotFound = "Lembrete não encontrado"
	concursoNotFound = "Concurso não encontrado"
	tarefaNotFound   = "Tarefa não encontrada"
)

var (
	reminderViews = views.Of(views.Calendario, views.Dashboard)
	concursoViews = views.Of(views.Concursos, views.Calendario, views.Dashboard)
	tarefaViews   = views.Of(views.Tarefas, views.Calendario, views.Dashboard)
)

// PlannerService manages reminders, exams and tasks.
type PlannerService struct {
	store plannerStore
	loc   *time.Location
	now   func() time.Time
}

func NewPlannerService(store plannerStore, loc *time.Location) *PlannerService {
	if loc == nil {
		loc = time.UTC
	}
	return &PlannerService{store: store, loc: loc, now: time.Now}
}

// monthRange turns "YYYY-MM" into the first and last day of that month.
// An empty month means the current one in loc.
func monthRange(month string, now time.Time, loc *time.Location) (string, string, error) {
	var start time.Time
	if month == "" {
		n := now.In(loc)
		start = time.Date(n.Year(), n.Month(), 1, 0, 0, 0, 0, loc)
	} else {
		t, err := time.ParseInLocation("2006-01", month, loc)
		if err != nil {
			return "", "", invalid("mes", "Mês deve estar no formato AAAA-MM")
		}
		start = t
	}
	end := start.AddDate(0, 1, -1)
	return start.Format(schedule.DateLayout), end.Format(schedule.DateLayout), nil
}

func validDate(field string, v *string) error {
	if v == nil || *v == "" {
		return nil
	}
	if _, err := time.Parse(schedule.DateLayout, *v); err != nil {
		return invalid(field, "Data deve estar no formato AAAA-MM-DD")
	}
	return nil
}

func emptyToNil(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	return v
}

// Reminders

func (s *PlannerService) ListReminders(ctx context.Context, userID uuid.UUID, month string) ([]*models.Reminder, error) {
	from, to, err := monthRange(month, s.now(), s.loc)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ListReminders(ctx, userID, from, to)
	if err != nil {
		return nil, storeErr("list reminders", err, reminderNotFound)
	}
	return out, nil
}

func (s *PlannerService) reminderFrom(userID uuid.UUID, id int64, req models.ReminderRequest) (*models.Reminder, error) {
	titulo := strings.TrimSpace(req.Titulo)
	if titulo == "" {
		return nil, invalid("titulo", "Título é obrigatório")
	}
	if req.Data == "" {
		return nil, invalid("data", "Data é obrigatória")
	}
	if err := validDate("data", &req.Data); err != nil {
		return nil, err
	}
	return &models.Reminder{ID: id, UserID: userID, Titulo: titulo, Data: req.Data, Cor: req.Cor}, nil
}

func (s *PlannerService) CreateReminder(ctx context.Context, userID uuid.UUID, req models.ReminderRequest) (*Change[*models.Reminder], error) {
	rm, err := s.reminderFrom(userID, 0, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateReminder(ctx, rm); err != nil {
		return nil, storeErr("create reminder", err, reminderNotFound)
	}
	return &Change[*models.Reminder]{Item: rm, Views: reminderViews}, nil
}

func (s *PlannerService) UpdateReminder(ctx context.Context, userID uuid.UUID, id int64, req models.ReminderRequest) (*Change[*models.Reminder], error) {
	if id <= 0 {
		return nil, invalid("id", "Identificador inválido")
	}
	rm, err := s.reminderFrom(userID, id, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateReminder(ctx, rm); err != nil {
		return nil, storeErr("update reminder", err, reminderNotFound)
	}
	return &Change[*models.Reminder]{Item: rm, Views: reminderViews}, nil
}

func (s *PlannerService) DeleteReminder(ctx context.Context, userID uuid.UUID, id int64) (views.Set, error) {
	return s.deleteOne(ctx, userID, id, s.store.DeleteReminder, reminderNotFound, reminderViews)
}

// Exams

func (s *PlannerService) ListConcursos(ctx context.Context, userID uuid.UUID) ([]*models.Concurso, error) {
	out, err := s.store.ListConcursos(ctx, userID)
	if err != nil {
		return nil, storeErr("list exams", err, concursoNotFound)
	}
	return out, nil
}

func (s *PlannerService) concursoFrom(userID uuid.UUID, id int64, req models.ConcursoRequest) (*models.Concurso, error) {
	nome := strings.TrimSpace(req.Nome)
	if nome == "" {
		return nil, invalid("nome", "Nome do concurso é obrigatório")
	}
	if err := validDate("data_prova", req.DataProva); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = "interesse"
	}
	return &models.Concurso{
		ID:        id,
		UserID:    userID,
		Nome:      nome,
		Banca:     strings.TrimSpace(req.Banca),
		Cargo:     strings.TrimSpace(req.Cargo),
		DataProva: emptyToNil(req.DataProva),
		Status:    status,
		Link:      strings.TrimSpace(req.Link),
	}, nil
}

func (s *PlannerService) CreateConcurso(ctx context.Context, userID uuid.UUID, req models.ConcursoRequest) (*Change[*models.Concurso], error) {
	c, err := s.concursoFrom(userID, 0, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateConcurso(ctx, c); err != nil {
		return nil, storeErr("create exam", err, concursoNotFound)
	}
	return &Change[*models.Concurso]{Item: c, Views: concursoViews}, nil
}

func (s *PlannerService) UpdateConcurso(ctx context.Context, userID uuid.UUID, id int64, req models.ConcursoRequest) (*Change[*models.Concurso], error) {
	if id <= 0 {
		return nil, invalid("id", "Identificador inválido")
	}
	c, err := s.concursoFrom(userID, id, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateConcurso(ctx, c); err != nil {
		return nil, storeErr("update exam", err, concursoNotFound)
	}
	return &Change[*models.Concurso]{Item: c, Views: concursoViews}, nil
}

func (s *PlannerService) DeleteConcurso(ctx context.Context, userID uuid.UUID, id int64) (views.Set, error) {
	return s.deleteOne(ctx, userID, id, s.store.DeleteConcurso, concursoNotFound, concursoViews)
}

// Tasks

func (s *PlannerService) ListTarefas(ctx context.Context, userID uuid.UUID) ([]*models.Tarefa, error) {
	out, err := s.store.ListTarefas(ctx, userID)
	if err != nil {
		return nil, storeErr("list tasks", err, tarefaNotFound)
	}
	return out, nil
}

func (s *PlannerService) tarefaFrom(userID uuid.UUID, id int64, req models.TarefaRequest) (*models.Tarefa, error) {
	titulo := strings.TrimSpace(req.Titulo)
	if titulo == "" {
		return nil, invalid("titulo", "Título é obrigatório")
	}
	if err := validDate("data_limite", req.DataLimite); err != nil {
		return nil, err
	}
	prioridade := req.Prioridade
	if prioridade == "" {
		prioridade = "media"
	}
	return &models.Tarefa{
		ID:         id,
		UserID:     userID,
		Titulo:     titulo,
		DataLimite: emptyToNil(req.DataLimite),
		Prioridade: prioridade,
	}, nil
}

func (s *PlannerService) CreateTarefa(ctx context.Context, userID uuid.UUID, req models.TarefaRequest) (*Change[*models.Tarefa], error) {
	t, err := s.tarefaFrom(userID, 0, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateTarefa(ctx, t); err != nil {
		return nil, storeErr("create task", err, tarefaNotFound)
	}
	return &Change[*models.Tarefa]{Item: t, Views: tarefaViews}, nil
}

func (s *PlannerService) UpdateTarefa(ctx context.Context, userID uuid.UUID, id int64, req models.TarefaRequest) (*Change[*models.Tarefa], error) {
	if id <= 0 {
		return nil, invalid("id", "Identificador inválido")
	}
	t, err := s.tarefaFrom(userID, id, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateTarefa(ctx, t); err != nil {
		return nil, storeErr("update task", err, tarefaNotFound)
	}
	return &Change[*models.Tarefa]{Item: t, Views: tarefaViews}, nil
}

func (s *PlannerService) ToggleTarefa(ctx context.Context, userID uuid.UUID, id int64, done bool) (*Change[*models.Tarefa], error) {
	if id <= 0 {
		return nil, invalid("id", "Identificador inválido")
	}
	t, err := s.store.SetTarefaConcluida(ctx, userID, id, done)
	if err != nil {
		return nil, storeErr("toggle task", err, tarefaNotFound)
	}
	return &Change[*models.Tarefa]{Item: t, Views: tarefaViews}, nil
}

// ReorderTarefas persists the given order; every id must belong to the user.
func (s *PlannerService) ReorderTarefas(ctx context.Context, userID uuid.UUID, ids []int64) (views.Set, error) {
	unique, verr := uniqueIDs(ids)
	if verr != nil {
		return nil, verr
	}
	if len(unique) != len(ids) {
		return nil, invalid("ids", "Lista de ordem contém identificadores repetidos")
	}
	n, err := s.store.ReorderTarefas(ctx, userID, unique)
	if err != nil {
		return nil, storeErr("reorder tasks", err, tarefaNotFound)
	}
	if n != int64(len(unique)) {
		return nil, &NotFoundError{Message: tarefaNotFound}
	}
	return views.Of(views.Tarefas), nil
}

func (s *PlannerService) DeleteTarefa(ctx context.Context, userID uuid.UUID, id int64) (views.Set, error) {
	return s.deleteOne(ctx, userID, id, s.store.DeleteTarefa, tarefaNotFound, tarefaViews)
}

func (s *PlannerService) deleteOne(
	ctx context.Context,
	userID uuid.UUID,
	id int64,
	del func(context.Context, uuid.UUID, int64) (bool, error),
	notFound string,
	set views.Set,
) (views.Set, error) {
	if id <= 0 {
		return nil, invalid("id", "Identificador inválido")
	}
	ok, err := del(ctx, userID, id)
	if err != nil {
		return nil, storeErr("delete", err, notFound)
	}
	if !ok {
		return nil, &NotFoundError{Message: notFound}
	}
	return set, nil
}
