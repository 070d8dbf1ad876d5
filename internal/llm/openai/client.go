package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"

	"github.com/joseph-ayodele/forms-intake/internal/common"
	"github.com/joseph-ayodele/forms-intake/internal/llm"
)

var (
	_ llm.Classifier       = (*Client)(nil)
	_ llm.TextExtractor    = (*Client)(nil)
	_ llm.StructuredParser = (*Client)(nil)
)

func (c *Client) checkKey() error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return common.ConfigError("OPENAI_API_KEY is not set")
	}
	return nil
}

// respond sends one Responses API request and returns the trimmed output text.
func (c *Client) respond(ctx context.Context, op, rid string, params responses.ResponseNewParams) (string, error) {
	params.Model = c.model
	start := time.Now()

	resp, err := c.api.Responses.New(ctx, params)
	if err != nil {
		attrs := []any{"req_id", rid, "ack_id", common.AcknowledgmentIDFromContext(ctx), "error", err, "elapsed_ms", time.Since(start).Milliseconds()}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			attrs = append(attrs, "status", apiErr.StatusCode)
		}
		c.logger.Error("llm."+op+".http_error", attrs...)
		return "", common.UpstreamError(op, fmt.Errorf("call OpenAI: %w", err))
	}

	out := strings.TrimSpace(resp.OutputText())
	c.logger.Debug("llm."+op+".response",
		"req_id", rid,
		"response_id", resp.ID,
		"output_len", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// attachment builds the inline content part for an image or PDF document.
func attachment(doc llm.Document) responses.ResponseInputContentUnionParam {
	dataURL := llm.DataURL(doc.ContentType, doc.Data)
	if strings.HasPrefix(doc.ContentType, "image/") {
		return responses.ResponseInputContentUnionParam{
			OfInputImage: &responses.ResponseInputImageParam{
				ImageURL: openai.String(dataURL),
				Detail:   responses.ResponseInputImageDetailAuto,
			},
		}
	}
	name := doc.Name
	if name == "" {
		name = "form.pdf"
	}
	return responses.ResponseInputContentUnionParam{
		OfInputFile: &responses.ResponseInputFileParam{
			FileData: openai.String(dataURL),
			Filename: openai.String(name),
		},
	}
}

// userMessage pairs a text prompt with an optional document attachment.
func userMessage(prompt string, doc *llm.Document) responses.ResponseInputItemUnionParam {
	content := responses.ResponseInputMessageContentListParam{
		{OfInputText: &responses.ResponseInputTextParam{Text: prompt}},
	}
	if doc != nil {
		content = append(content, attachment(*doc))
	}
	return responses.ResponseInputItemParamOfMessage(content, responses.EasyInputMessageRoleUser)
}
