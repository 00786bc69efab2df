package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/acadplan/timetable-api/internal/models"
	appErrors "github.com/acadplan/timetable-api/pkg/errors"
	"github.com/acadplan/timetable-api/pkg/export"
)

var timetableHeaders = []string{"Course Code", "Course Name", "Instructor", "Room", "Time Slot"}

type exportResultLister interface {
	ListResults(ctx context.Context, filter models.ResultFilter) ([]models.ScheduleResult, error)
}

// ExportService renders a generated timetable as CSV or PDF.
type ExportService struct {
	results exportResultLister
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
}

// NewExportService creates an export service.
func NewExportService(results exportResultLister, csv *export.CSVExporter, pdf *export.PDFExporter) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{results: results, csv: csv, pdf: pdf}
}

// Render produces timetable bytes in the requested format together with the
// response content type.
func (s *ExportService) Render(ctx context.Context, semester, year int, format string) ([]byte, string, error) {
	results, err := s.results.ListResults(ctx, models.ResultFilter{Semester: semester, Year: year})
	if err != nil {
		return nil, "", err
	}
	dataset := buildTimetableDataset(results)

	switch strings.ToLower(format) {
	case "", "csv":
		raw, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return raw, "text/csv", nil
	case "pdf":
		raw, err := s.pdf.Render(dataset, fmt.Sprintf("Timetable semester %d, year %d", semester, year))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return raw, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func buildTimetableDataset(results []models.ScheduleResult) export.Dataset {
	rows := make([]map[string]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, map[string]string{
			"Course Code": r.CourseCode,
			"Course Name": r.CourseName,
			"Instructor":  r.InstructorName,
			"Room":        r.RoomName,
			"Time Slot":   r.SlotLabel,
		})
	}
	return export.Dataset{Headers: timetableHeaders, Rows: rows}
}
