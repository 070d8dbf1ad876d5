package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/forms-intake/constants"
	"github.com/joseph-ayodele/forms-intake/internal/llm"
)

type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	Pdftoppm      string // binary name or absolute path; if empty -> "pdftoppm"
	TesseractLang string // default "eng"
	TessdataDir   string
	DPI           int // rasterization DPI for scanned PDFs, default 300
	MaxPages      int // 0 = no limit
	TempDir       string
}

// Tesseract is a local llm.TextExtractor: images go straight to tesseract, PDFs use their text
// layer and are rasterized with pdftoppm only when that layer is empty.
type Tesseract struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

var _ llm.TextExtractor = (*Tesseract)(nil)

func NewTesseract(cfg Config, runner Runner, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Tesseract{cfg: cfg, runner: runner, logger: logger}
}

func (t *Tesseract) ExtractText(ctx context.Context, doc llm.Document) (llm.Extraction, error) {
	rid := uuid.New().String()
	start := time.Now()
	t.logger.Info("ocr.tesseract.start", "req_id", rid, "name", doc.Name, "content_type", doc.ContentType, "bytes", len(doc.Data))

	var (
		text   string
		method string
		err    error
	)
	switch {
	case constants.IsPDF(doc.ContentType):
		text, method, err = t.extractPDF(ctx, doc)
	case constants.IsImage(doc.ContentType):
		method = llm.MethodTesseract
		text, err = t.extractImage(ctx, doc)
	default:
		err = fmt.Errorf("unsupported content type %q", doc.ContentType)
	}
	if err != nil {
		t.logger.Error("ocr.tesseract.failed", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.Extraction{Method: method}, err
	}

	text = Normalize(text)
	t.logger.Info("ocr.tesseract.ok",
		"req_id", rid,
		"method", method,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.Extraction{Text: text, Success: text != "", Method: method}, nil
}

func (t *Tesseract) extractImage(ctx context.Context, doc llm.Document) (string, error) {
	dir, err := os.MkdirTemp(t.cfg.TempDir, "forms-ocr-*")
	if err != nil {
		return "", err
	}
	defer t.removeAll(dir)

	path := filepath.Join(dir, "page."+constants.ExtForContentType(doc.ContentType))
	if err := os.WriteFile(path, doc.Data, 0o600); err != nil {
		return "", fmt.Errorf("write temp image: %w", err)
	}
	return t.tesseractOCR(ctx, path)
}

func (t *Tesseract) extractPDF(ctx context.Context, doc llm.Document) (string, string, error) {
	text, _, err := PDFText(doc.Data)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, llm.MethodPDFText, nil
	}
	if err != nil {
		t.logger.Warn("ocr.pdf.text_layer_failed", "error", err)
	}

	dir, err := os.MkdirTemp(t.cfg.TempDir, "forms-ocr-*")
	if err != nil {
		return "", llm.MethodTesseract, err
	}
	defer t.removeAll(dir)

	in := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(in, doc.Data, 0o600); err != nil {
		return "", llm.MethodTesseract, fmt.Errorf("write temp pdf: %w", err)
	}

	prefix := filepath.Join(dir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := t.runner.Run(ctx, t.cfg.Pdftoppm, t.logger, "-r", fmt.Sprintf("%d", t.cfg.DPI), "-png", in, prefix)
	if err != nil {
		return "", llm.MethodTesseract, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	// prefix-1.png, prefix-2.png, ...
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if t.cfg.MaxPages > 0 && len(matches) > t.cfg.MaxPages {
		matches = matches[:t.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", llm.MethodTesseract, fmt.Errorf("pdftoppm produced no pages")
	}

	var b strings.Builder
	for _, img := range matches {
		txt, err := t.tesseractOCR(ctx, img)
		if err != nil {
			return "", llm.MethodTesseract, err
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(txt)
	}
	return b.String(), llm.MethodTesseract, nil
}

// tesseract <file> stdout -l <lang>
func (t *Tesseract) tesseractOCR(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", t.cfg.TesseractLang}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, t.logger, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

func (t *Tesseract) removeAll(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		t.logger.Warn("ocr.tempdir.cleanup_failed", "dir", dir, "error", err)
	}
}
