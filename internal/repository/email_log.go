package repository

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/forms-intake/constants"
	"github.com/joseph-ayodele/forms-intake/internal/common"
	"github.com/joseph-ayodele/forms-intake/internal/entity"
)

var emailLogColumns = []string{
	"id", "submission_id", "email_type", "recipient", "subject", "body", "sent_at", "status", "error_message",
}

type EmailLogRepository interface {
	Create(ctx context.Context, l *entity.EmailLog) (*entity.EmailLog, error)
	ListBySubmission(ctx context.Context, submissionID int64) ([]*entity.EmailLog, error)
}

type emailLogRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewEmailLogRepository(db *DB, logger *slog.Logger) EmailLogRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &emailLogRepo{db: db, logger: logger}
}

func (r *emailLogRepo) Create(ctx context.Context, l *entity.EmailLog) (*entity.EmailLog, error) {
	sentAt := l.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	sentAt = sentAt.UTC()
	status := l.Status
	if status == "" {
		status = constants.EmailSent
	}

	ib := entsql.Dialect(r.db.Dialect).Insert(TableEmailLogs).
		Columns(emailLogColumns[1:]...).
		Values(l.SubmissionID, string(l.EmailType), l.Recipient, nullString(l.Subject), nullString(l.Body),
			sentAt, string(status), l.ErrorMessage)
	id, err := insertID(ctx, r.db, ib)
	if err != nil {
		r.logger.Error("failed to insert email log", "submission_id", l.SubmissionID, "error", err)
		return nil, fmt.Errorf("%w: insert email log: %v", common.ErrDatabase, err)
	}

	out := *l
	out.ID = id
	out.SentAt = sentAt
	out.Status = status
	return &out, nil
}

func (r *emailLogRepo) ListBySubmission(ctx context.Context, submissionID int64) ([]*entity.EmailLog, error) {
	query, args := entsql.Dialect(r.db.Dialect).
		Select(emailLogColumns...).
		From(entsql.Table(TableEmailLogs)).
		Where(entsql.EQ("submission_id", submissionID)).
		OrderBy("sent_at", "id").
		Query()

	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: query email logs: %v", common.ErrDatabase, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.EmailLog
	for rows.Next() {
		var (
			l                           entity.EmailLog
			emailType, status           string
			subject, body, errorMessage stdsql.NullString
		)
		if err := rows.Scan(&l.ID, &l.SubmissionID, &emailType, &l.Recipient, &subject, &body,
			&l.SentAt, &status, &errorMessage); err != nil {
			return nil, fmt.Errorf("%w: scan email log: %v", common.ErrDatabase, err)
		}
		l.EmailType = constants.EmailType(emailType)
		l.Status = constants.EmailStatus(status)
		l.Subject = subject.String
		l.Body = body.String
		l.ErrorMessage = ptrString(errorMessage)
		l.SentAt = l.SentAt.UTC()
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate email logs: %v", common.ErrDatabase, err)
	}
	return out, nil
}
