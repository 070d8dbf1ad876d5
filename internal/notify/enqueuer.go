package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/joseph-ayodele/forms-intake/constants"
	"github.com/joseph-ayodele/forms-intake/internal/entity"
)

// taskClient is the part of *asynq.Client the enqueuer needs.
type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Enqueuer turns persisted submissions into email tasks.
type Enqueuer struct {
	client   taskClient
	maxRetry int
	logger   *slog.Logger
}

// NewEnqueuer connects to Redis at opt.
func NewEnqueuer(opt asynq.RedisClientOpt, logger *slog.Logger) *Enqueuer {
	return newEnqueuer(asynq.NewClient(opt), logger)
}

func newEnqueuer(client taskClient, logger *slog.Logger) *Enqueuer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enqueuer{client: client, maxRetry: defaultMaxRetry, logger: logger}
}

// PayloadFor builds the email task for s. ok is false when s has no customer email.
// Ready submissions get an acknowledgment; pending ones a follow-up listing the missing fields.
func PayloadFor(s *entity.FormSubmission) (EmailPayload, bool) {
	if s == nil || s.CustomerEmail == nil || *s.CustomerEmail == "" {
		return EmailPayload{}, false
	}
	emailType := constants.EmailAcknowledgment
	if s.Status != constants.StatusReady {
		emailType = constants.EmailFollowup
	}
	p := EmailPayload{
		SubmissionID:     s.ID,
		EmailType:        emailType,
		Recipient:        *s.CustomerEmail,
		AcknowledgmentID: s.AcknowledgmentID,
		FormType:         s.FormType,
		MissingFields:    s.MissingFields,
	}
	if s.CustomerName != nil {
		p.CustomerName = *s.CustomerName
	}
	if p.MissingFields == nil {
		p.MissingFields = []string{}
	}
	return p, true
}

// SubmissionProcessed queues the email for s, if it has somewhere to go.
func (e *Enqueuer) SubmissionProcessed(ctx context.Context, s *entity.FormSubmission) error {
	p, ok := PayloadFor(s)
	if !ok {
		e.logger.Debug("notify.skip.no_recipient", "ack_id", s.AcknowledgmentID)
		return nil
	}
	task, err := NewEmailTask(p)
	if err != nil {
		return err
	}
	info, err := e.client.EnqueueContext(ctx, task, asynq.MaxRetry(e.maxRetry))
	if err != nil {
		return fmt.Errorf("enqueue email task: %w", err)
	}
	e.logger.Info("notify.enqueued",
		"ack_id", p.AcknowledgmentID,
		"email_type", p.EmailType,
		"task_id", info.ID,
		"queue", info.Queue,
	)
	return nil
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}
