package repository

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"

	"github.com/joseph-ayodele/forms-intake/constants"
	"github.com/joseph-ayodele/forms-intake/internal/common"
	"github.com/joseph-ayodele/forms-intake/internal/entity"
)

var submissionColumns = []string{
	"id", "acknowledgment_id", "form_type", "confidence_score", "extracted_text",
	"structured_data", "missing_fields", "status", "customer_email", "customer_name",
	"branch_code", "uploaded_file_path", "original_filename", "content_type",
	"created_at", "updated_at",
}

type FormSubmissionRepository interface {
	// Create inserts s and fills in ID, CreatedAt and UpdatedAt. A taken acknowledgment ID
	// yields common.ErrDuplicate.
	Create(ctx context.Context, s *entity.FormSubmission) (*entity.FormSubmission, error)
	GetByID(ctx context.Context, id int64) (*entity.FormSubmission, error)
	GetByAcknowledgmentID(ctx context.Context, ackID string) (*entity.FormSubmission, error)
	ListCreatedBetween(ctx context.Context, from, to *time.Time) ([]*entity.FormSubmission, error)
	UpdateValidation(ctx context.Context, id int64, data map[string]string, missing []string, status constants.SubmissionStatus) error
}

type formSubmissionRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewFormSubmissionRepository(db *DB, logger *slog.Logger) FormSubmissionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &formSubmissionRepo{db: db, logger: logger}
}

func (r *formSubmissionRepo) Create(ctx context.Context, s *entity.FormSubmission) (*entity.FormSubmission, error) {
	data, err := marshalJSON(s.StructuredData)
	if err != nil {
		return nil, fmt.Errorf("encode structured_data: %w", err)
	}
	missing := s.MissingFields
	if missing == nil {
		missing = []string{}
	}
	missingJSON, err := marshalJSON(missing)
	if err != nil {
		return nil, fmt.Errorf("encode missing_fields: %w", err)
	}
	status := s.Status
	if status == "" {
		status = constants.StatusPending
	}
	now := time.Now().UTC()

	ib := entsql.Dialect(r.db.Dialect).Insert(TableFormSubmissions).
		Columns(submissionColumns[1:]...).
		Values(
			s.AcknowledgmentID, s.FormType, s.ConfidenceScore, nullString(s.ExtractedText),
			data, missingJSON, string(status), s.CustomerEmail, s.CustomerName,
			s.BranchCode, nullString(s.UploadedFilePath), s.OriginalFilename, nullString(s.ContentType),
			now, now,
		)

	id, err := insertID(ctx, r.db, ib)
	if err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			r.logger.Warn("acknowledgment id already taken", "ack_id", s.AcknowledgmentID)
			return nil, fmt.Errorf("%w: acknowledgment id %s", common.ErrDuplicate, s.AcknowledgmentID)
		}
		r.logger.Error("failed to insert form submission", "ack_id", s.AcknowledgmentID, "error", err)
		return nil, fmt.Errorf("%w: insert form submission: %v", common.ErrDatabase, err)
	}

	out := *s
	out.ID = id
	out.Status = status
	out.MissingFields = missing
	out.CreatedAt = now
	out.UpdatedAt = now
	r.logger.Debug("form submission stored", "id", id, "ack_id", s.AcknowledgmentID, "status", status)
	return &out, nil
}

// insertID runs ib and returns the new primary key. Postgres reports it via RETURNING,
// SQLite via last_insert_rowid.
func insertID(ctx context.Context, db *DB, ib *entsql.InsertBuilder) (int64, error) {
	if db.Dialect == dialect.Postgres {
		query, args := ib.Returning("id").Query()
		var rows entsql.Rows
		if err := db.Driver.Query(ctx, query, args, &rows); err != nil {
			return 0, err
		}
		defer func() { _ = rows.Close() }()
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return 0, err
			}
			return 0, errors.New("insert returned no id")
		}
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		return id, rows.Err()
	}

	query, args := ib.Query()
	var res stdsql.Result
	if err := db.Driver.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *formSubmissionRepo) GetByID(ctx context.Context, id int64) (*entity.FormSubmission, error) {
	return r.getOne(ctx, entsql.EQ("id", id), fmt.Sprintf("submission %d", id))
}

func (r *formSubmissionRepo) GetByAcknowledgmentID(ctx context.Context, ackID string) (*entity.FormSubmission, error) {
	return r.getOne(ctx, entsql.EQ("acknowledgment_id", ackID), "acknowledgment "+ackID)
}

func (r *formSubmissionRepo) getOne(ctx context.Context, pred *entsql.Predicate, what string) (*entity.FormSubmission, error) {
	sb := entsql.Dialect(r.db.Dialect).
		Select(submissionColumns...).
		From(entsql.Table(TableFormSubmissions)).
		Where(pred).
		Limit(1)
	list, err := r.query(ctx, sb)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, common.NotFoundError(what)
	}
	return list[0], nil
}

func (r *formSubmissionRepo) ListCreatedBetween(ctx context.Context, from, to *time.Time) ([]*entity.FormSubmission, error) {
	sb := entsql.Dialect(r.db.Dialect).
		Select(submissionColumns...).
		From(entsql.Table(TableFormSubmissions))
	var preds []*entsql.Predicate
	if from != nil {
		preds = append(preds, entsql.GTE("created_at", from.UTC()))
	}
	if to != nil {
		preds = append(preds, entsql.LT("created_at", to.UTC()))
	}
	if len(preds) > 0 {
		sb = sb.Where(entsql.And(preds...))
	}
	sb = sb.OrderBy("created_at", "id")
	return r.query(ctx, sb)
}

func (r *formSubmissionRepo) UpdateValidation(ctx context.Context, id int64, data map[string]string, missing []string, status constants.SubmissionStatus) error {
	dataJSON, err := marshalJSON(data)
	if err != nil {
		return fmt.Errorf("encode structured_data: %w", err)
	}
	if missing == nil {
		missing = []string{}
	}
	missingJSON, err := marshalJSON(missing)
	if err != nil {
		return fmt.Errorf("encode missing_fields: %w", err)
	}
	ub := entsql.Dialect(r.db.Dialect).Update(TableFormSubmissions).
		Set("structured_data", dataJSON).
		Set("missing_fields", missingJSON).
		Set("status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("id", id))
	query, args := ub.Query()
	var res stdsql.Result
	if err := r.db.Driver.Exec(ctx, query, args, &res); err != nil {
		r.logger.Error("failed to update form submission", "id", id, "error", err)
		return fmt.Errorf("%w: update form submission: %v", common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return common.NotFoundError(fmt.Sprintf("submission %d", id))
	}
	return nil
}

func (r *formSubmissionRepo) query(ctx context.Context, sb *entsql.Selector) ([]*entity.FormSubmission, error) {
	query, args := sb.Query()
	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, query, args, &rows); err != nil {
		r.logger.Error("failed to query form submissions", "error", err)
		return nil, fmt.Errorf("%w: query form submissions: %v", common.ErrDatabase, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.FormSubmission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan form submission: %v", common.ErrDatabase, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate form submissions: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func scanSubmission(rows entsql.Rows) (*entity.FormSubmission, error) {
	var (
		s                             entity.FormSubmission
		confidence                    stdsql.NullFloat64
		text, path, contentType       stdsql.NullString
		email, name, branch, original stdsql.NullString
		status                        string
		data, missing                 []byte
	)
	if err := rows.Scan(
		&s.ID, &s.AcknowledgmentID, &s.FormType, &confidence, &text,
		&data, &missing, &status, &email, &name,
		&branch, &path, &original, &contentType,
		&s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if confidence.Valid {
		v := confidence.Float64
		s.ConfidenceScore = &v
	}
	s.ExtractedText = text.String
	s.UploadedFilePath = path.String
	s.ContentType = contentType.String
	s.CustomerEmail = ptrString(email)
	s.CustomerName = ptrString(name)
	s.BranchCode = ptrString(branch)
	s.OriginalFilename = ptrString(original)
	s.Status = constants.SubmissionStatus(status)
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()

	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.StructuredData); err != nil {
			return nil, fmt.Errorf("decode structured_data: %w", err)
		}
	}
	s.MissingFields = []string{}
	if len(missing) > 0 {
		if err := json.Unmarshal(missing, &s.MissingFields); err != nil {
			return nil, fmt.Errorf("decode missing_fields: %w", err)
		}
	}
	return &s, nil
}

// marshalJSON encodes v as a JSON string; nil maps are stored as NULL.
func marshalJSON(v any) (any, error) {
	if m, ok := v.(map[string]string); ok && m == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func ptrString(ns stdsql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
