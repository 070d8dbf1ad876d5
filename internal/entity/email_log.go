package entity

import (
	"time"

	"github.com/joseph-ayodele/forms-intake/constants"
)

// EmailLog records one attempted notification for a submission.
type EmailLog struct {
	ID           int64                 `json:"id"`
	SubmissionID int64                 `json:"submission_id"`
	EmailType    constants.EmailType   `json:"email_type"`
	Recipient    string                `json:"recipient"`
	Subject      string                `json:"subject"`
	Body         string                `json:"body"`
	SentAt       time.Time             `json:"sent_at"`
	Status       constants.EmailStatus `json:"status"`
	ErrorMessage *string               `json:"error_message,omitempty"`
}
