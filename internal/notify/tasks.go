// Package notify queues customer emails for processed submissions and delivers them from a worker.
package notify

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/joseph-ayodele/forms-intake/constants"
)

const (
	// TypeEmailSend is enqueued once per persisted submission that carries a customer email.
	TypeEmailSend = "email:send"

	defaultMaxRetry = 5
)

// EmailPayload is serialized into the task so the worker needs no database read to render.
type EmailPayload struct {
	SubmissionID     int64               `json:"submission_id"`
	EmailType        constants.EmailType `json:"email_type"`
	Recipient        string              `json:"recipient"`
	CustomerName     string              `json:"customer_name,omitempty"`
	AcknowledgmentID string              `json:"acknowledgment_id"`
	FormType         string              `json:"form_type"`
	MissingFields    []string            `json:"missing_fields"`
}

func NewEmailTask(p EmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TypeEmailSend, data), nil
}

func decodeEmailPayload(task *asynq.Task) (EmailPayload, error) {
	var p EmailPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode payload: %w", err)
	}
	if p.SubmissionID == 0 || p.Recipient == "" {
		return p, fmt.Errorf("payload is missing submission_id or recipient")
	}
	return p, nil
}
