package llm

import "context"

// Document is one uploaded file handed to the inference stages.
type Document struct {
	Name        string // storage name, never the client filename
	ContentType string // validated MIME type
	Data        []byte
}

// Classification is the classifier's verdict. FormType is propagated as the model returned it
// when it does not match a known label.
type Classification struct {
	FormType   string
	Confidence *float64
	Raw        string
}

// Extraction is the OCR result. Success=false means nothing usable was read.
type Extraction struct {
	Text    string
	Success bool
	Method  string // "vision", "pdf-text", "pdf-file", "tesseract"
}

// ParseResult holds the template-shaped document produced from OCR text.
type ParseResult struct {
	Data map[string]string
	Raw  []byte
}

type Classifier interface {
	Classify(ctx context.Context, doc Document) (Classification, error)
}

type TextExtractor interface {
	ExtractText(ctx context.Context, doc Document) (Extraction, error)
}

type StructuredParser interface {
	Parse(ctx context.Context, text, formType string) (ParseResult, error)
}

const (
	MethodVision    = "vision"
	MethodPDFText   = "pdf-text"
	MethodPDFFile   = "pdf-file"
	MethodTesseract = "tesseract"
)
