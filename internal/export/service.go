package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/forms-intake/internal/entity"
	"github.com/joseph-ayodele/forms-intake/internal/repository"
)

const (
	sheetSubmissions = "Submissions"
	sheetFields      = "Fields"
	dateLayout       = "2006-01-02"
)

// Service produces XLSX workbooks of stored submissions.
type Service struct {
	submissions repository.FormSubmissionRepository
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(submissions repository.FormSubmissionRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{submissions: submissions, logger: logger, now: time.Now}
}

// Window turns optional calendar dates into a half-open [from, to) range over created_at.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> everything.
func (s *Service) Window(from, to *time.Time) (*time.Time, *time.Time) {
	day := func(t time.Time) time.Time {
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	var lo, hi *time.Time
	if from != nil {
		f := day(*from)
		lo = &f
	}
	if to != nil {
		t := day(*to).AddDate(0, 0, 1)
		hi = &t
	} else if lo != nil {
		t := day(s.now()).AddDate(0, 0, 1)
		hi = &t
	}
	return lo, hi
}

// SubmissionsXLSX returns a workbook with one row per submission created in the window, plus a
// second sheet listing every extracted field.
func (s *Service) SubmissionsXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()
	lo, hi := s.Window(from, to)
	subs, err := s.submissions.ListCreatedBetween(ctx, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetSubmissions); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetFields); err != nil {
		return nil, err
	}

	headers := []string{
		"Acknowledgment ID",
		"Created (UTC)",
		"Form Type",
		"Confidence",
		"Status",
		"Missing Fields",
		"Customer Name",
		"Customer Email",
		"Branch Code",
		"Original Filename",
		"Stored File",
	}
	if err := writeRow(f, sheetSubmissions, 1, toAny(headers)); err != nil {
		return nil, err
	}
	if err := writeRow(f, sheetFields, 1, []any{"Acknowledgment ID", "Field", "Value"}); err != nil {
		return nil, err
	}

	row, fieldRow := 2, 2
	for _, sub := range subs {
		var confidence any = ""
		if sub.ConfidenceScore != nil {
			confidence = *sub.ConfidenceScore
		}
		values := []any{
			sub.AcknowledgmentID,
			sub.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			sub.FormType,
			confidence,
			string(sub.Status),
			strings.Join(sub.MissingFields, ", "),
			deref(sub.CustomerName),
			deref(sub.CustomerEmail),
			deref(sub.BranchCode),
			deref(sub.OriginalFilename),
			sub.UploadedFilePath,
		}
		if err := writeRow(f, sheetSubmissions, row, values); err != nil {
			return nil, err
		}
		row++

		for _, k := range sortedKeys(sub) {
			if err := writeRow(f, sheetFields, fieldRow, []any{sub.AcknowledgmentID, k, sub.StructuredData[k]}); err != nil {
				return nil, err
			}
			fieldRow++
		}
	}

	_ = f.SetColWidth(sheetSubmissions, "A", "A", 28) // ack id
	_ = f.SetColWidth(sheetSubmissions, "B", "B", 20)
	_ = f.SetColWidth(sheetSubmissions, "C", "C", 28)
	_ = f.SetColWidth(sheetSubmissions, "D", "E", 12)
	_ = f.SetColWidth(sheetSubmissions, "F", "F", 40)
	_ = f.SetColWidth(sheetSubmissions, "G", "J", 24)
	_ = f.SetColWidth(sheetSubmissions, "K", "K", 60) // path
	_ = f.SetColWidth(sheetFields, "A", "A", 28)
	_ = f.SetColWidth(sheetFields, "B", "B", 28)
	_ = f.SetColWidth(sheetFields, "C", "C", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(subs),
		"field_rows", fieldRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// ParseDate accepts "" (no bound) or YYYY-MM-DD.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return &t, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func sortedKeys(sub *entity.FormSubmission) []string {
	keys := make([]string, 0, len(sub.StructuredData))
	for k := range sub.StructuredData {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
