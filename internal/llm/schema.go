package llm

import (
	"github.com/joseph-ayodele/forms-intake/internal/validation"
)

// BuildFormJSONSchema returns the JSON-Schema (draft 2020-12 subset) of a parsed form as a generic map.
// Every template key is a required string; nothing else is allowed.
func BuildFormJSONSchema(t validation.Template) map[string]any {
	props := make(map[string]any, len(t.Fields))
	for _, k := range t.Fields {
		props[k] = map[string]any{"type": "string"}
	}
	if _, ok := props["form_type"]; ok {
		props["form_type"] = map[string]any{"type": "string", "minLength": 1}
	}
	if _, ok := props["email"]; ok {
		// blank is allowed; the validation engine reports it as missing when required
		props["email"] = map[string]any{"type": "string", "maxLength": 255}
	}

	required := make([]string, len(t.Fields))
	copy(required, t.Fields)

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

// TemplateSkeleton is the empty JSON template shown to the model, with form_type prefilled.
func TemplateSkeleton(t validation.Template, formType string) map[string]string {
	out := make(map[string]string, len(t.Fields))
	for _, k := range t.Fields {
		out[k] = ""
	}
	if _, ok := out["form_type"]; ok {
		out["form_type"] = formType
	}
	return out
}
