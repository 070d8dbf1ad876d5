package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"regexp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/forms-intake/constants"
	"github.com/joseph-ayodele/forms-intake/internal/api"
	"github.com/joseph-ayodele/forms-intake/internal/common"
	"github.com/joseph-ayodele/forms-intake/internal/export"
	"github.com/joseph-ayodele/forms-intake/internal/llm"
	"github.com/joseph-ayodele/forms-intake/internal/pipeline"
	"github.com/joseph-ayodele/forms-intake/internal/repository"
	"github.com/joseph-ayodele/forms-intake/internal/samples"
	"github.com/joseph-ayodele/forms-intake/internal/storage"
)

type stubClassifier struct {
	label string
	err   error
	calls int
}

func (s *stubClassifier) Classify(context.Context, llm.Document) (llm.Classification, error) {
	s.calls++
	if s.err != nil {
		return llm.Classification{}, s.err
	}
	c := 0.95
	return llm.Classification{FormType: s.label, Confidence: &c, Raw: s.label}, nil
}

type stubExtractor struct{}

func (stubExtractor) ExtractText(context.Context, llm.Document) (llm.Extraction, error) {
	return llm.Extraction{Text: "CHEQUE BOOK REQUEST\nName: Jane Doe", Success: true, Method: llm.MethodVision}, nil
}

type stubParser struct {
	data map[string]string
}

func (s *stubParser) Parse(context.Context, string, string) (llm.ParseResult, error) {
	return llm.ParseResult{Data: s.data}, nil
}

type uploadBody struct {
	Success          bool     `json:"success"`
	ID               int64    `json:"id"`
	AcknowledgmentID string   `json:"acknowledgment_id"`
	UploadedFilePath string   `json:"uploaded_file_path"`
	FormType         string   `json:"form_type"`
	Status           string   `json:"status"`
	MissingFields    []string `json:"missing_fields"`
	Message          string   `json:"message"`
}

type detailBody struct {
	Detail string `json:"detail"`
}

func multipartUpload(filename, contentType string, data []byte) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	Expect(err).NotTo(HaveOccurred())
	_, err = part.Write(data)
	Expect(err).NotTo(HaveOccurred())
	Expect(mw.Close()).To(Succeed())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(rec *httptest.ResponseRecorder, v any) {
	Expect(json.Unmarshal(rec.Body.Bytes(), v)).To(Succeed(), rec.Body.String())
}

var ackPattern = regexp.MustCompile(`^ACK-\d{8}-[0-9A-F]{8}$`)

var _ = Describe("HTTP API", func() {
	var (
		ctx        context.Context
		uploadDir  string
		db         *repository.DB
		classifier *stubClassifier
		parser     *stubParser
		router     http.Handler
		pngData    []byte
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		tmp := GinkgoT().TempDir()
		uploadDir = filepath.Join(tmp, "uploads")

		var err error
		db, err = repository.Open(ctx, repository.Config{DSN: "file:" + filepath.Join(tmp, "api.db")}, logger)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { repository.Close(db, logger) })
		Expect(repository.Migrate(ctx, db)).To(Succeed())

		store, err := storage.NewLocal(uploadDir, logger)
		Expect(err).NotTo(HaveOccurred())

		classifier = &stubClassifier{label: string(constants.ChequeBookRequest)}
		parser = &stubParser{data: map[string]string{
			"form_type":        string(constants.ChequeBookRequest),
			"customer_name":    "Jane Doe",
			"account_number":   "123456789012",
			"number_of_leaves": "50",
			"email":            "jane@example.com",
		}}
		subs := repository.NewFormSubmissionRepository(db, logger)
		proc := pipeline.NewProcessor(pipeline.Deps{
			Classifier:  classifier,
			Extractor:   stubExtractor{},
			Parser:      parser,
			Store:       store,
			Submissions: subs,
		}, logger)

		h := api.NewHandler(proc, export.NewService(subs, logger), 1<<20, logger)
		router = api.NewRouter(h, logger)

		pngData, err = samples.RenderPNG(constants.ChequeBookRequest)
		Expect(err).NotTo(HaveOccurred())
	})

	storedFiles := func() []os.DirEntry {
		entries, err := os.ReadDir(uploadDir)
		Expect(err).NotTo(HaveOccurred())
		return entries
	}

	Describe("GET /health", func() {
		It("reports ok and echoes a request id", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(MatchJSON(`{"status":"ok"}`))
			Expect(rec.Header().Get("X-Request-ID")).NotTo(BeEmpty())
		})

		It("keeps a caller supplied request id", func() {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("X-Request-ID", "abc-123")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Header().Get("X-Request-ID")).To(Equal("abc-123"))
		})
	})

	Describe("POST /api/upload", func() {
		It("rejects text/plain before storing or classifying", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, multipartUpload("notes.txt", "text/plain", []byte("hello")))

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			var body detailBody
			decode(rec, &body)
			Expect(body.Detail).To(Equal("Unsupported file type"))
			Expect(classifier.calls).To(BeZero())
			Expect(storedFiles()).To(BeEmpty())
		})

		It("rejects a request without a file part", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/upload", bytes.NewBufferString("--x--\r\n"))
			req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects content that does not match the declared type", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, multipartUpload("fake.png", "image/png", []byte("%PDF-1.4 not really a png")))

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(classifier.calls).To(BeZero())
		})

		It("rejects a file over the size limit with 413", func() {
			big := append(append([]byte{}, pngData...), make([]byte, 2<<20)...)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, multipartUpload("big.png", "image/png", big))

			Expect(rec.Code).To(Equal(http.StatusRequestEntityTooLarge))
			Expect(storedFiles()).To(BeEmpty())
		})

		It("processes a complete form and makes it retrievable by status", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, multipartUpload("cheque.png", "image/png", pngData))

			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			var body uploadBody
			decode(rec, &body)
			Expect(body.Success).To(BeTrue())
			Expect(body.AcknowledgmentID).To(MatchRegexp(ackPattern.String()))
			Expect(body.FormType).To(Equal(string(constants.ChequeBookRequest)))
			Expect(body.Status).To(Equal("ready"))
			Expect(body.MissingFields).To(BeEmpty())
			Expect(body.Message).To(Equal("File processed via OpenAI pipeline and saved to database"))
			Expect(storedFiles()).To(HaveLen(1))

			rec = httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status/"+body.AcknowledgmentID, nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(MatchJSON(`{
				"acknowledgment_id": "` + body.AcknowledgmentID + `",
				"form_type": "Cheque Book Request",
				"status": "ready",
				"missing_fields": []
			}`))
		})

		It("marks a form with a blank required field as pending", func() {
			parser.data["account_number"] = "   "
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, multipartUpload("cheque.png", "image/png", pngData))

			Expect(rec.Code).To(Equal(http.StatusOK))
			var body uploadBody
			decode(rec, &body)
			Expect(body.Status).To(Equal("pending"))
			Expect(body.MissingFields).To(Equal([]string{"account_number"}))
		})

		It("accepts a PDF upload", func() {
			pdf, err := samples.RenderPDF(constants.ChequeBookRequest)
			Expect(err).NotTo(HaveOccurred())
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, multipartUpload("cheque.pdf", "application/pdf", pdf))
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
		})

		It("reports the failed stage and leaves nothing behind", func() {
			classifier.err = common.UpstreamError("classify", errors.New("rate limited"))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, multipartUpload("cheque.png", "image/png", pngData))

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(rec.Body.String()).To(MatchJSON(`{"detail":"classification failed"}`))
			Expect(storedFiles()).To(BeEmpty())
		})
	})

	Describe("GET /api/status/{acknowledgment_id}", func() {
		It("returns 404 for an unknown id", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status/ACK-20260101-DEADBEEF", nil))

			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(rec.Body.String()).To(MatchJSON(`{"detail":"Not found"}`))
		})
	})

	Describe("GET /api/submissions/export", func() {
		It("returns a workbook", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, multipartUpload("cheque.png", "image/png", pngData))
			Expect(rec.Code).To(Equal(http.StatusOK))

			rec = httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/submissions/export", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Disposition")).To(HavePrefix("attachment;"))
			Expect(rec.Body.Bytes()[:2]).To(Equal([]byte("PK")))
		})

		It("rejects malformed dates", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/submissions/export?from=yesterday", nil))
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects an inverted window", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/submissions/export?from=2026-02-01&to=2026-01-01", nil))
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
