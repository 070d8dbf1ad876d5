package openai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"

	"github.com/joseph-ayodele/forms-intake/constants"
	"github.com/joseph-ayodele/forms-intake/internal/common"
	"github.com/joseph-ayodele/forms-intake/internal/llm"
	"github.com/joseph-ayodele/forms-intake/internal/ocr"
)

// Classify asks the model which of the known banking forms doc is. Images (and PDFs without a
// text layer) are attached; PDFs with text are classified from that text.
func (c *Client) Classify(ctx context.Context, doc llm.Document) (llm.Classification, error) {
	if err := c.checkKey(); err != nil {
		return llm.Classification{}, err
	}
	rid := uuid.New().String()
	start := time.Now()
	c.logger.Info("llm.classify.start",
		"req_id", rid,
		"ack_id", common.AcknowledgmentIDFromContext(ctx),
		"model", c.cfg.Model,
		"content_type", doc.ContentType,
		"bytes", len(doc.Data),
	)

	msg := userMessage(llm.BuildClassifyPrompt(), &doc)
	if constants.IsPDF(doc.ContentType) {
		if text, _, err := ocr.PDFText(doc.Data); err == nil && text != "" {
			msg = userMessage(llm.BuildClassifyTextPrompt(text), nil)
		}
	}

	out, err := c.respond(ctx, "classify", rid, responses.ResponseNewParams{
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{msg},
		},
		MaxOutputTokens: openai.Int(classifyMaxTokens),
	})
	if err != nil {
		return llm.Classification{}, err
	}
	if out == "" {
		c.logger.Error("llm.classify.empty", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.Classification{}, common.UpstreamError("classify", errors.New("model returned an empty response"))
	}

	cls, known := interpretClassification(out)
	if !known {
		c.logger.Warn("llm.classify.unknown_label", "req_id", rid, "form_type", cls.FormType)
	}
	c.logger.Info("llm.classify.ok",
		"req_id", rid,
		"form_type", cls.FormType,
		"confidence", *cls.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return cls, nil
}

// interpretClassification accepts either a bare label or {"form_type", "confidence"} JSON.
// Labels are mapped onto the closed set when they match; otherwise they pass through as-is.
func interpretClassification(raw string) (llm.Classification, bool) {
	label := raw
	conf := defaultConfidence

	if obj, ok := llm.ExtractJSONObject(raw); ok {
		var v struct {
			FormType   string   `json:"form_type"`
			Confidence *float64 `json:"confidence"`
		}
		if err := json.Unmarshal([]byte(obj), &v); err == nil && strings.TrimSpace(v.FormType) != "" {
			label = v.FormType
			if v.Confidence != nil {
				conf = *v.Confidence
			}
		}
	}
	label = cleanLabel(label)
	conf = min(max(conf, 0), 1)

	known := false
	if ft, ok := constants.CanonicalFormType(label); ok {
		label = string(ft)
		known = true
	}
	return llm.Classification{FormType: label, Confidence: &conf, Raw: raw}, known
}

func cleanLabel(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	for _, p := range []string{"Form type:", "Form Type:", "form_type:", "Type:"} {
		s = strings.TrimPrefix(s, p)
	}
	s = strings.Trim(strings.TrimSpace(s), "\"'`*.")
	return strings.TrimSpace(s)
}
