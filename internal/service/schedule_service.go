package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/pkg/clock"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/export"
)

// Export formats supported by the timetable export.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type scheduleRegistrations interface {
	Courses(ctx context.Context, studentID string) ([]models.Course, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ScheduleConfig bounds the hourly timetable grid.
type ScheduleConfig struct {
	DayStart string
	DayEnd   string
}

// ExportFile is a rendered timetable document.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ScheduleService renders a student's registrations as a weekly timetable.
type ScheduleService struct {
	registrations scheduleRegistrations
	csv           csvRenderer
	pdf           pdfRenderer
	logger        *zap.Logger
	start         int
	end           int
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(registrations scheduleRegistrations, cfg ScheduleConfig, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) (*ScheduleService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if cfg.DayStart == "" {
		cfg.DayStart = "09:00"
	}
	if cfg.DayEnd == "" {
		cfg.DayEnd = "17:00"
	}
	start, err := clock.ToMinutes(cfg.DayStart)
	if err != nil {
		return nil, fmt.Errorf("schedule day start: %w", err)
	}
	end, err := clock.ToMinutes(cfg.DayEnd)
	if err != nil {
		return nil, fmt.Errorf("schedule day end: %w", err)
	}
	if end < start {
		return nil, fmt.Errorf("schedule day end %s precedes start %s", cfg.DayEnd, cfg.DayStart)
	}
	return &ScheduleService{registrations: registrations, csv: csv, pdf: pdf, logger: logger, start: start, end: end}, nil
}

// BuildTimetable lays courses out in hourly slots from start to end inclusive. A course
// occupies a slot when the slot time falls inside its meeting interval.
func BuildTimetable(courses []models.Course, start, end int) (*models.Timetable, error) {
	intervals := make([]clock.Interval, len(courses))
	for i, course := range courses {
		interval, err := course.Interval()
		if err != nil {
			return nil, err
		}
		intervals[i] = interval
	}

	table := &models.Timetable{
		Days:         append([]models.Weekday(nil), models.Weekdays...),
		TotalCredits: models.TotalCredits(courses),
	}
	for slot := start; slot <= end; slot += 60 {
		row := models.TimetableRow{Time: clock.FormatMinutes(slot), Cells: make([]models.TimetableCell, 0, len(models.Weekdays))}
		for _, day := range models.Weekdays {
			cell := models.TimetableCell{Day: day}
			for i := range courses {
				if courses[i].Day == day && intervals[i].Contains(slot) {
					course := courses[i]
					cell.Course = &course
					break
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// Timetable returns the student's weekly grid.
func (s *ScheduleService) Timetable(ctx context.Context, studentID string) (*models.Timetable, error) {
	courses, err := s.registrations.Courses(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return BuildTimetable(courses, s.start, s.end)
}

// Export renders the student's timetable as CSV or PDF.
func (s *ScheduleService) Export(ctx context.Context, studentID, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	table, err := s.Timetable(ctx, studentID)
	if err != nil {
		return nil, err
	}
	data := timetableDataset(table)

	file := &ExportFile{Filename: "timetable." + format}
	switch format {
	case ExportFormatPDF:
		file.ContentType = "application/pdf"
		file.Data, err = s.pdf.Render(data)
	default:
		file.ContentType = "text/csv"
		file.Data, err = s.csv.Render(data)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	s.logger.Debug("timetable exported", zap.String("student_id", studentID), zap.String("format", format), zap.Int("bytes", len(file.Data)))
	return file, nil
}

func timetableDataset(table *models.Timetable) export.Dataset {
	headers := []string{"Time"}
	for _, day := range table.Days {
		headers = append(headers, string(day))
	}
	rows := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		record := []string{row.Time}
		for _, cell := range row.Cells {
			value := ""
			if cell.Course != nil {
				value = cell.Course.Code + " " + cell.Course.Name
				if interval, err := cell.Course.Interval(); err == nil {
					value = fmt.Sprintf("%s (%s)", value, interval)
				}
			}
			record = append(record, value)
		}
		rows = append(rows, record)
	}
	return export.Dataset{
		Title:   "Weekly Timetable",
		Headers: headers,
		Rows:    rows,
		Footer:  fmt.Sprintf("Total credits: %d", table.TotalCredits),
	}
}
