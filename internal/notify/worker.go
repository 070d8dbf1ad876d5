package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/joseph-ayodele/forms-intake/constants"
	"github.com/joseph-ayodele/forms-intake/internal/entity"
	"github.com/joseph-ayodele/forms-intake/internal/repository"
)

// Worker handles email tasks. Every delivery attempt leaves one email_logs row.
type Worker struct {
	mailer Mailer
	logs   repository.EmailLogRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewWorker(mailer Mailer, logs repository.EmailLogRepository, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{mailer: mailer, logs: logs, logger: logger, now: time.Now}
}

// Mux registers the worker's handlers.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailSend, w.HandleEmail)
	return mux
}

// HandleEmail renders and sends one email. Bad payloads are not retried; send failures are.
func (w *Worker) HandleEmail(ctx context.Context, task *asynq.Task) error {
	p, err := decodeEmailPayload(task)
	if err != nil {
		w.logger.Error("notify.payload.invalid", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	subject, body, err := Render(p)
	if err != nil {
		w.logger.Error("notify.render.failed", "ack_id", p.AcknowledgmentID, "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	start := time.Now()
	sendErr := w.mailer.Send(ctx, p.Recipient, subject, body)

	entry := &entity.EmailLog{
		SubmissionID: p.SubmissionID,
		EmailType:    p.EmailType,
		Recipient:    p.Recipient,
		Subject:      subject,
		Body:         body,
		SentAt:       w.now().UTC(),
		Status:       constants.EmailSent,
	}
	if sendErr != nil {
		msg := sendErr.Error()
		entry.Status = constants.EmailFailed
		entry.ErrorMessage = &msg
	}
	if _, err := w.logs.Create(ctx, entry); err != nil {
		w.logger.Error("notify.log.failed", "ack_id", p.AcknowledgmentID, "error", err)
	}

	if sendErr != nil {
		w.logger.Warn("notify.send.failed",
			"ack_id", p.AcknowledgmentID,
			"email_type", p.EmailType,
			"error", sendErr,
		)
		return sendErr
	}
	w.logger.Info("notify.send.ok",
		"ack_id", p.AcknowledgmentID,
		"email_type", p.EmailType,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
