package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/joseph-ayodele/forms-intake/constants"
	"github.com/joseph-ayodele/forms-intake/internal/common"
	"github.com/joseph-ayodele/forms-intake/internal/export"
	"github.com/joseph-ayodele/forms-intake/internal/ocr"
	"github.com/joseph-ayodele/forms-intake/internal/pipeline"
)

const (
	uploadField     = "file"
	uploadMessage   = "File processed via OpenAI pipeline and saved to database"
	multipartMemory = 8 << 20
	// room for multipart boundaries and headers on top of the file itself
	multipartSlack = 64 << 10
)

// Submissions is the workflow the handlers drive.
type Submissions interface {
	Submit(ctx context.Context, up pipeline.Upload) (pipeline.Summary, error)
	Status(ctx context.Context, ackID string) (pipeline.StatusView, error)
}

// Exporter renders stored submissions as a workbook.
type Exporter interface {
	SubmissionsXLSX(ctx context.Context, from, to *time.Time) ([]byte, error)
}

type Handler struct {
	submissions Submissions
	exporter    Exporter
	maxFileSize int64
	logger      *slog.Logger
}

// NewHandler wires the handlers. exporter may be nil, which turns the export route into a 404.
func NewHandler(submissions Submissions, exporter Exporter, maxFileSize int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxFileSize <= 0 {
		maxFileSize = constants.DefaultMaxFileSize
	}
	return &Handler{submissions: submissions, exporter: exporter, maxFileSize: maxFileSize, logger: logger}
}

type uploadResponse struct {
	Success bool `json:"success"`
	pipeline.Summary
	Message string `json:"message"`
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartSlack)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	declared := header.Header.Get("Content-Type")
	if !constants.IsAllowedContentType(declared) {
		h.logger.Info("upload.rejected.type", "req_id", common.RequestIDFromContext(r.Context()), "content_type", declared)
		writeError(w, http.StatusBadRequest, "Unsupported file type")
		return
	}
	contentType := constants.NormalizeContentType(declared)

	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read file")
		return
	}
	if int64(len(data)) > h.maxFileSize {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "Empty file")
		return
	}
	if problem := contentProblem(contentType, data); problem != "" {
		h.logger.Info("upload.rejected.content", "req_id", common.RequestIDFromContext(r.Context()), "problem", problem)
		writeError(w, http.StatusBadRequest, problem)
		return
	}

	sum, err := h.submissions.Submit(r.Context(), pipeline.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Success: true, Summary: sum, Message: uploadMessage})
}

// contentProblem compares the declared type with the sniffed one and makes sure PDFs open.
// It returns the client-facing detail, or "" when the file is acceptable.
func contentProblem(contentType string, data []byte) string {
	sniffed := constants.NormalizeContentType(http.DetectContentType(data))
	if sniffed != contentType {
		return "File content does not match declared type " + contentType
	}
	if constants.IsPDF(contentType) {
		if _, err := ocr.InspectPDF(data); err != nil {
			return "Invalid PDF file"
		}
	}
	return ""
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ack := chi.URLParam(r, "acknowledgmentID")
	view, err := h.submissions.Status(r.Context(), ack)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	q := r.URL.Query()
	from, err := export.ParseDate(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := export.ParseDate(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if from != nil && to != nil && to.Before(*from) {
		writeError(w, http.StatusBadRequest, "to must not be before from")
		return
	}

	xlsx, err := h.exporter.SubmissionsXLSX(r.Context(), from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	name := fmt.Sprintf("submissions-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(xlsx)
}

// fail maps workflow errors to status codes. Internal detail never reaches the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	rid := common.RequestIDFromContext(r.Context())
	switch {
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, common.ErrInvalidInput):
		var appErr *common.AppError
		detail := "Invalid input"
		if errors.As(err, &appErr) {
			detail = appErr.Message
		}
		writeError(w, http.StatusBadRequest, detail)
	default:
		if stage, ok := pipeline.FailedStage(err); ok {
			h.logger.Error("http.pipeline.failed", "req_id", rid, "stage", stage, "error", err)
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("%s failed", stage))
			return
		}
		h.logger.Error("http.internal", "req_id", rid, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
