package constants

// SubmissionStatus is the derived completeness of a form submission.
type SubmissionStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending SubmissionStatus = "pending" // required fields missing
	StatusReady   SubmissionStatus = "ready"   // all required fields present
)

type EmailType string

const (
	EmailAcknowledgment EmailType = "acknowledgment"
	EmailFollowup       EmailType = "followup"
)

type EmailStatus string

const (
	EmailSent   EmailStatus = "sent"
	EmailFailed EmailStatus = "failed"
)
