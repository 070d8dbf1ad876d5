package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/forms-intake/constants"
	"github.com/joseph-ayodele/forms-intake/internal/ackid"
	"github.com/joseph-ayodele/forms-intake/internal/common"
	"github.com/joseph-ayodele/forms-intake/internal/entity"
	"github.com/joseph-ayodele/forms-intake/internal/llm"
	"github.com/joseph-ayodele/forms-intake/internal/repository"
	"github.com/joseph-ayodele/forms-intake/internal/storage"
	"github.com/joseph-ayodele/forms-intake/internal/validation"
)

// maxAckAttempts bounds redraws of the acknowledgment ID after unique violations.
const maxAckAttempts = 3

// Upload is one validated file handed to the workflow.
type Upload struct {
	Filename    string // client-supplied, kept for audit only
	ContentType string
	Data        []byte
}

// Summary is what a successful submission reports back.
type Summary struct {
	ID               int64                      `json:"id"`
	AcknowledgmentID string                     `json:"acknowledgment_id"`
	UploadedFilePath string                     `json:"uploaded_file_path"`
	FormType         string                     `json:"form_type"`
	ConfidenceScore  *float64                   `json:"confidence_score,omitempty"`
	Status           constants.SubmissionStatus `json:"status"`
	MissingFields    []string                   `json:"missing_fields"`
}

// StatusView is the read-only projection served by status lookups.
type StatusView struct {
	AcknowledgmentID string                     `json:"acknowledgment_id"`
	FormType         string                     `json:"form_type"`
	Status           constants.SubmissionStatus `json:"status"`
	MissingFields    []string                   `json:"missing_fields"`
}

// Notifier is told about every persisted submission. Failures never fail the submission.
type Notifier interface {
	SubmissionProcessed(ctx context.Context, s *entity.FormSubmission) error
}

// Deps are the collaborators of a Processor. Notifier is optional.
type Deps struct {
	Classifier  llm.Classifier
	Extractor   llm.TextExtractor
	Parser      llm.StructuredParser
	Store       storage.Store
	Submissions repository.FormSubmissionRepository
	Notifier    Notifier
}

// Processor runs Classify -> Extract -> Parse -> Validate -> Persist for one upload.
type Processor struct {
	deps     Deps
	logger   *slog.Logger
	newAckID func() string
}

func NewProcessor(deps Deps, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{deps: deps, logger: logger, newAckID: ackid.New}
}

// Submit runs the whole workflow exactly once. On any failure the stored upload is removed,
// nothing is written to the database and a *StageError is returned.
func (p *Processor) Submit(ctx context.Context, up Upload) (Summary, error) {
	start := time.Now()
	if !constants.IsAllowedContentType(up.ContentType) {
		return Summary{}, common.InvalidInputErrorf("unsupported file type %q", up.ContentType)
	}
	if len(up.Data) == 0 {
		return Summary{}, common.InvalidInputError("empty file")
	}
	contentType := constants.NormalizeContentType(up.ContentType)

	ack := p.newAckID()
	ctx = common.WithAcknowledgmentID(ctx, ack)
	log := p.logger.With("ack_id", ack)
	if rid := common.RequestIDFromContext(ctx); rid != "" {
		log = log.With("req_id", rid)
	}
	log.Info("pipeline.received", "content_type", contentType, "bytes", len(up.Data))

	name := storage.ObjectName(contentType)
	location, err := p.deps.Store.Save(ctx, name, up.Data, contentType)
	if err != nil {
		log.Error("pipeline.store.failed", "error", err)
		return Summary{}, &StageError{Stage: StageStore, Err: err}
	}
	fail := func(stage Stage, err error) (Summary, error) {
		log.Error("pipeline."+string(stage)+".failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		p.discard(ctx, log, location)
		return Summary{}, &StageError{Stage: stage, Err: err}
	}

	doc := llm.Document{Name: name, ContentType: contentType, Data: up.Data}

	// Classified
	cls, err := p.deps.Classifier.Classify(ctx, doc)
	if err != nil {
		return fail(StageClassify, err)
	}
	formType := strings.TrimSpace(cls.FormType)
	if formType == "" {
		return fail(StageClassify, common.UpstreamError("classify", errors.New("empty form type")))
	}
	if cls.Confidence != nil {
		log = log.With("confidence", *cls.Confidence)
	}
	log.Info("pipeline.classify.ok", "form_type", formType)

	// TextExtracted
	ext, err := p.deps.Extractor.ExtractText(ctx, doc)
	if err != nil {
		return fail(StageExtract, err)
	}
	if !ext.Success || strings.TrimSpace(ext.Text) == "" {
		return fail(StageExtract, ErrNoText)
	}
	log.Info("pipeline.ocr.ok", "method", ext.Method, "text_len", len(ext.Text))

	// Parsed
	parsed, err := p.deps.Parser.Parse(ctx, ext.Text, formType)
	if err != nil {
		return fail(StageParse, err)
	}
	log.Info("pipeline.parse.ok", "fields", len(parsed.Data))

	// Validated
	res := validation.Validate(parsed.Data, formType)
	log.Info("pipeline.validate.ok", "status", res.Status, "missing", res.MissingFields)

	// Persisted
	sub := &entity.FormSubmission{
		AcknowledgmentID: ack,
		FormType:         formType,
		ConfidenceScore:  cls.Confidence,
		ExtractedText:    ext.Text,
		StructuredData:   parsed.Data,
		MissingFields:    res.MissingFields,
		Status:           res.Status,
		CustomerEmail:    optional(parsed.Data["email"]),
		CustomerName:     optional(parsed.Data["customer_name"]),
		BranchCode:       optional(parsed.Data["branch_code"]),
		UploadedFilePath: location,
		OriginalFilename: optional(up.Filename),
		ContentType:      contentType,
	}
	saved, err := p.persist(ctx, log, sub)
	if err != nil {
		return fail(StagePersist, err)
	}
	if saved.AcknowledgmentID != ack {
		ctx = common.WithAcknowledgmentID(ctx, saved.AcknowledgmentID)
		log = log.With("ack_id", saved.AcknowledgmentID)
	}
	log.Info("pipeline.persist.ok", "id", saved.ID, "elapsed_ms", time.Since(start).Milliseconds())

	if p.deps.Notifier != nil {
		if err := p.deps.Notifier.SubmissionProcessed(ctx, saved); err != nil {
			log.Warn("pipeline.notify.failed", "error", err)
		}
	}

	return Summary{
		ID:               saved.ID,
		AcknowledgmentID: saved.AcknowledgmentID,
		UploadedFilePath: saved.UploadedFilePath,
		FormType:         saved.FormType,
		ConfidenceScore:  saved.ConfidenceScore,
		Status:           saved.Status,
		MissingFields:    saved.MissingFields,
	}, nil
}

// persist inserts sub, drawing a fresh acknowledgment ID when the current one is taken.
func (p *Processor) persist(ctx context.Context, log *slog.Logger, sub *entity.FormSubmission) (*entity.FormSubmission, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAckAttempts; attempt++ {
		saved, err := p.deps.Submissions.Create(ctx, sub)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, common.ErrDuplicate) {
			return nil, err
		}
		lastErr = err
		prev := sub.AcknowledgmentID
		sub.AcknowledgmentID = p.newAckID()
		log.Warn("pipeline.persist.ack_collision", "attempt", attempt, "previous", prev, "next", sub.AcknowledgmentID)
	}
	return nil, fmt.Errorf("acknowledgment id collisions after %d attempts: %w", maxAckAttempts, lastErr)
}

func (p *Processor) discard(ctx context.Context, log *slog.Logger, location string) {
	if err := p.deps.Store.Delete(context.WithoutCancel(ctx), location); err != nil {
		log.Warn("pipeline.store.cleanup_failed", "location", location, "error", err)
	}
}

// Status looks a submission up by acknowledgment ID. Unknown IDs yield common.ErrNotFound.
func (p *Processor) Status(ctx context.Context, ackID string) (StatusView, error) {
	ackID = strings.TrimSpace(ackID)
	if ackID == "" {
		return StatusView{}, common.NotFoundError("acknowledgment id is empty")
	}
	sub, err := p.deps.Submissions.GetByAcknowledgmentID(ctx, ackID)
	if err != nil {
		return StatusView{}, err
	}
	missing := sub.MissingFields
	if missing == nil {
		missing = []string{}
	}
	return StatusView{
		AcknowledgmentID: sub.AcknowledgmentID,
		FormType:         sub.FormType,
		Status:           sub.Status,
		MissingFields:    missing,
	}, nil
}

// Revalidate re-runs the validation engine over the stored structured data and saves the outcome.
// It never calls the inference stages again.
func (p *Processor) Revalidate(ctx context.Context, ackID string) (StatusView, error) {
	sub, err := p.deps.Submissions.GetByAcknowledgmentID(ctx, ackID)
	if err != nil {
		return StatusView{}, err
	}
	res := validation.Validate(sub.StructuredData, sub.FormType)
	if err := p.deps.Submissions.UpdateValidation(ctx, sub.ID, sub.StructuredData, res.MissingFields, res.Status); err != nil {
		return StatusView{}, err
	}
	p.logger.Info("pipeline.revalidate.ok", "ack_id", ackID, "status", res.Status, "missing", res.MissingFields)
	return StatusView{
		AcknowledgmentID: sub.AcknowledgmentID,
		FormType:         sub.FormType,
		Status:           res.Status,
		MissingFields:    res.MissingFields,
	}, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
