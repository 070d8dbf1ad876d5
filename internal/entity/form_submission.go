package entity

import (
	"time"

	"github.com/joseph-ayodele/forms-intake/constants"
)

// FormSubmission is one processed upload, as stored in form_submissions.
type FormSubmission struct {
	ID               int64                      `json:"id"`
	AcknowledgmentID string                     `json:"acknowledgment_id"`
	FormType         string                     `json:"form_type"`
	ConfidenceScore  *float64                   `json:"confidence_score,omitempty"`
	ExtractedText    string                     `json:"extracted_text,omitempty"`
	StructuredData   map[string]string          `json:"structured_data,omitempty"`
	MissingFields    []string                   `json:"missing_fields"`
	Status           constants.SubmissionStatus `json:"status"`
	CustomerEmail    *string                    `json:"customer_email,omitempty"`
	CustomerName     *string                    `json:"customer_name,omitempty"`
	BranchCode       *string                    `json:"branch_code,omitempty"`
	UploadedFilePath string                     `json:"uploaded_file_path"`
	OriginalFilename *string                    `json:"original_filename,omitempty"`
	ContentType      string                     `json:"content_type"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}
