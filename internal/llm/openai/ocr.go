package openai

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"

	"github.com/joseph-ayodele/forms-intake/constants"
	"github.com/joseph-ayodele/forms-intake/internal/common"
	"github.com/joseph-ayodele/forms-intake/internal/llm"
	"github.com/joseph-ayodele/forms-intake/internal/ocr"
)

// ExtractText transcribes doc. PDF text layers are read locally; images and scanned PDFs go to
// the vision model.
func (c *Client) ExtractText(ctx context.Context, doc llm.Document) (llm.Extraction, error) {
	rid := uuid.New().String()
	start := time.Now()

	if constants.IsPDF(doc.ContentType) {
		text, pages, err := ocr.PDFText(doc.Data)
		if err != nil {
			c.logger.Warn("llm.ocr.pdf_text_failed", "req_id", rid, "error", err)
		} else if text != "" {
			c.logger.Info("llm.ocr.ok",
				"req_id", rid,
				"method", llm.MethodPDFText,
				"pages", pages,
				"text_len", len(text),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.Extraction{Text: text, Success: true, Method: llm.MethodPDFText}, nil
		}
	}

	if err := c.checkKey(); err != nil {
		return llm.Extraction{}, err
	}
	method := llm.MethodVision
	if constants.IsPDF(doc.ContentType) {
		method = llm.MethodPDFFile
	}
	c.logger.Info("llm.ocr.start",
		"req_id", rid,
		"ack_id", common.AcknowledgmentIDFromContext(ctx),
		"model", c.cfg.Model,
		"method", method,
		"bytes", len(doc.Data),
	)

	out, err := c.respond(ctx, "ocr", rid, responses.ResponseNewParams{
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{userMessage(llm.OCRPrompt, &doc)},
		},
		MaxOutputTokens: openai.Int(ocrMaxTokens),
	})
	if err != nil {
		return llm.Extraction{Method: method}, err
	}

	text := ocr.Normalize(out)
	if text == "" {
		c.logger.Warn("llm.ocr.empty", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.Extraction{Method: method}, nil
	}
	c.logger.Info("llm.ocr.ok",
		"req_id", rid,
		"method", method,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.Extraction{Text: text, Success: true, Method: method}, nil
}
