package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldwise/visits-service/internal/model"
	"github.com/fieldwise/visits-service/internal/schedule"
)

type ExcelGenerator interface {
	Generate(report model.ScheduleReport) ([]byte, error)
}

type PDFGenerator interface {
	Generate(sheet model.DaySheet) ([]byte, error)
}

// ReportService renders schedule exports on top of the query facade.
type ReportService struct {
	store   Store
	queries *QueryService
	excel   ExcelGenerator
	pdf     PDFGenerator
}

func NewReportService(store Store, queries *QueryService, excel ExcelGenerator, pdf PDFGenerator) *ReportService {
	return &ReportService{
		store:   store,
		queries: queries,
		excel:   excel,
		pdf:     pdf,
	}
}

type ExportResult struct {
	FileName string
	Content  []byte
}

// ExportSchedule renders the per-worker schedule of a calendar range as
// an XLSX workbook.
func (s *ReportService) ExportSchedule(ctx context.Context, rangeLabel string, date *time.Time) (*ExportResult, error) {
	report, err := s.queries.ScheduleReport(ctx, rangeLabel, date)
	if err != nil {
		return nil, err
	}

	content, err := s.excel.Generate(*report)
	if err != nil {
		return nil, fmt.Errorf("render schedule: %w", err)
	}

	fileName := fmt.Sprintf("schedule-%s-%s.xlsx",
		report.PeriodStart.Format("20060102"),
		report.PeriodEnd.Format("20060102"))
	return &ExportResult{FileName: fileName, Content: content}, nil
}

// ExportDaySheet renders one worker's route for one day as a PDF.
// Cancelled visits stay off the sheet.
func (s *ReportService) ExportDaySheet(ctx context.Context, workerID uuid.UUID, date time.Time) (*ExportResult, error) {
	worker, err := s.store.GetWorker(ctx, workerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: worker", ErrNotFound)
		}
		return nil, fmt.Errorf("load worker: %w", err)
	}

	day := schedule.DateOnly(date)
	visits, err := s.queries.Visits(ctx, VisitQuery{
		RangeLabel: schedule.RangeDate,
		Date:       &day,
		WorkerID:   &workerID,
	})
	if err != nil {
		return nil, err
	}

	sheet := model.DaySheet{Worker: *worker, Date: day}
	for _, v := range visits {
		if v.Status == model.VisitStatusCancelled {
			continue
		}
		sheet.Visits = append(sheet.Visits, v)
	}

	content, err := s.pdf.Generate(sheet)
	if err != nil {
		return nil, fmt.Errorf("render day sheet: %w", err)
	}

	fileName := fmt.Sprintf("daysheet-%s-%s.pdf",
		sanitizeFileName(worker.Name), day.Format("20060102"))
	return &ExportResult{FileName: fileName, Content: content}, nil
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
