package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/schedule"
)

type sessionLister interface {
	List(ctx context.Context, userID uuid.UUID) ([]*models.CycleSession, error)
}

type reviewLister interface {
	List(ctx context.Context, userID uuid.UUID, filter models.ReviewFilter) ([]models.Review, error)
}

type concursoLister interface {
	ListConcursos(ctx context.Context, userID uuid.UUID) ([]*models.Concurso, error)
}

const (
	sheetCiclo     = "Ciclo"
	sheetRevisoes  = "Revisões"
	sheetConcursos = "Concursos"
)

// ExportService writes the user's cycle, reviews and exams as an xlsx workbook.
type ExportService struct {
	sessions  sessionLister
	reviews   reviewLister
	concursos concursoLister
	loc       *time.Location
}

func NewExportService(sessions sessionLister, reviews reviewLister, concursos concursoLister, loc *time.Location) *ExportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ExportService{sessions: sessions, reviews: reviews, concursos: concursos, loc: loc}
}

func (s *ExportService) ExportCycle(ctx context.Context, userID uuid.UUID, w io.Writer) error {
	sessions, err := s.sessions.List(ctx, userID)
	if err != nil {
		return storeErr("export sessions", err, sessionNotFound)
	}
	reviews, err := s.reviews.List(ctx, userID, models.ReviewFilter{})
	if err != nil {
		return storeErr("export reviews", err, "Revisão não encontrada")
	}
	concursos, err := s.concursos.ListConcursos(ctx, userID)
	if err != nil {
		return storeErr("export exams", err, concursoNotFound)
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F4E78"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	cycleRows := make([][]interface{}, 0, len(sessions))
	for _, ss := range sessions {
		disciplina := ""
		if ss.DisciplinaTitulo != nil {
			disciplina = *ss.DisciplinaTitulo
		}
		cycleRows = append(cycleRows, []interface{}{
			ss.Ordem, ss.MateriaNome, disciplina, ss.FocoSugerido,
			yesNo(ss.Concluida), yesNo(ss.MateriaFinalizada),
			ss.QuestoesAcertos, ss.QuestoesTotal,
			s.day(ss.DataEstudo), s.day(ss.DataRevisao1), s.day(ss.DataRevisao2), s.day(ss.DataRevisao3),
		})
	}

	reviewRows := make([][]interface{}, 0, len(reviews))
	for _, rv := range reviews {
		reviewRows = append(reviewRows, []interface{}{
			rv.DataRevisao, rv.TipoRevisao, rv.MateriaNome, rv.FocoSugerido, yesNo(rv.Concluida),
		})
	}

	examRows := make([][]interface{}, 0, len(concursos))
	for _, c := range concursos {
		data := ""
		if c.DataProva != nil {
			data = *c.DataProva
		}
		examRows = append(examRows, []interface{}{c.Nome, c.Banca, c.Cargo, data, c.Status, c.Link})
	}

	sheets := []struct {
		name    string
		headers []interface{}
		rows    [][]interface{}
	}{
		{sheetCiclo, []interface{}{"Ordem", "Matéria", "Disciplina", "Foco sugerido", "Concluída", "Finalizada",
			"Acertos", "Questões", "Estudo", "Revisão 24h", "Revisão 7 dias", "Revisão 30 dias"}, cycleRows},
		{sheetRevisoes, []interface{}{"Data", "Tipo", "Matéria", "Foco sugerido", "Concluída"}, reviewRows},
		{sheetConcursos, []interface{}{"Concurso", "Banca", "Cargo", "Data da prova", "Status", "Link"}, examRows},
	}

	for i, sh := range sheets {
		if i == 0 {
			f.SetSheetName("Sheet1", sh.name)
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", sh.name, err)
		}
		if err := writeSheet(f, sh.name, header, sh.headers, sh.rows); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, headers []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	return f.SetColWidth(sheet, "A", lastCol, 18)
}

func (s *ExportService) day(t *time.Time) string {
	if t == nil {
		return ""
	}
	return schedule.DateOnly(*t, s.loc)
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}
