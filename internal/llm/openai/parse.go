package openai

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"github.com/joseph-ayodele/forms-intake/internal/common"
	"github.com/joseph-ayodele/forms-intake/internal/llm"
	"github.com/joseph-ayodele/forms-intake/internal/validation"
)

// Parse fills the form type's JSON template from OCR text. The reply must be exactly one JSON
// object; prose, fences or a schema failure after coercion is a parse error.
func (c *Client) Parse(ctx context.Context, text, formType string) (llm.ParseResult, error) {
	if err := c.checkKey(); err != nil {
		return llm.ParseResult{}, err
	}
	rid := uuid.New().String()
	start := time.Now()

	tmpl := validation.ParseTemplate(formType)
	schema := llm.BuildFormJSONSchema(tmpl)
	c.logger.Info("llm.parse.start",
		"req_id", rid,
		"ack_id", common.AcknowledgmentIDFromContext(ctx),
		"model", c.cfg.Model,
		"form_type", formType,
		"template", tmpl.FormType,
		"text_len", len(text),
	)

	out, err := c.respond(ctx, "parse", rid, responses.ResponseNewParams{
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(llm.ParseSystemPrompt, responses.EasyInputMessageRoleSystem),
				responses.ResponseInputItemParamOfMessage(llm.BuildParsePrompt(tmpl, formType, text), responses.EasyInputMessageRoleUser),
			},
		},
		Temperature: openai.Float(parseTemperature),
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			},
		},
	})
	if err != nil {
		return llm.ParseResult{}, err
	}

	obj, ok := llm.StrictJSONObject(out)
	if !ok {
		c.logger.Error("llm.parse.decode_error",
			"req_id", rid,
			"output", llm.Truncate(out, 512),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ParseResult{Raw: []byte(out)}, common.ParseError("model output is not a JSON object", errors.New(llm.Truncate(out, 200)))
	}

	data, coerced, changed, err := llm.CoerceToTemplate([]byte(obj), tmpl, formType, c.logger)
	if err != nil {
		c.logger.Error("llm.parse.coerce_failed", "req_id", rid, "error", err)
		return llm.ParseResult{Raw: []byte(obj)}, common.ParseError("model output does not fit the template", err)
	}
	if err := llm.ValidateJSONAgainstSchema(schema, coerced); err != nil {
		c.logger.Error("llm.parse.schema_validation_failed",
			"req_id", rid,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ParseResult{Raw: coerced}, common.ParseError("schema validation failed", err)
	}

	c.logger.Info("llm.parse.ok",
		"req_id", rid,
		"fields", len(data),
		"coerced", len(changed),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.ParseResult{Data: data, Raw: coerced}, nil
}
