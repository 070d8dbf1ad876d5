package llm

import (
	"encoding/json"
	"strings"

	"github.com/joseph-ayodele/forms-intake/constants"
	"github.com/joseph-ayodele/forms-intake/internal/validation"
)

const (
	// ParseSystemPrompt is the system message of every parse call.
	ParseSystemPrompt = "You are a JSON API. Always return ONLY valid JSON."

	// OCRPrompt asks the vision model for a verbatim transcription.
	OCRPrompt = "Extract ALL readable text (including handwriting) from this banking form."

	// maxPromptText caps the OCR text embedded in classify/parse prompts.
	maxPromptText = 12000
)

// BuildClassifyPrompt lists the closed set of labels and asks for a small JSON verdict.
// A bare label in reply is accepted as well.
func BuildClassifyPrompt() string {
	labels := constants.FormTypeStrings()
	parts := []string{
		"Classify this banking form into one of the following types: " + strings.Join(labels, ", ") + ".",
		"Return ONLY the form type name, or a JSON object {\"form_type\": \"<name>\", \"confidence\": <0..1>}.",
	}
	return strings.Join(parts, " ")
}

// BuildClassifyTextPrompt classifies from an already extracted text layer.
func BuildClassifyTextPrompt(text string) string {
	var b strings.Builder
	b.WriteString(BuildClassifyPrompt())
	b.WriteString("\n\nForm text:\n")
	b.WriteString(Truncate(text, maxPromptText))
	return b.String()
}

// BuildParsePrompt embeds the template (with form_type prefilled) and the OCR text.
func BuildParsePrompt(t validation.Template, formType, text string) string {
	skeleton := TemplateSkeleton(t, formType)
	tmpl := orderedJSON(t.Fields, skeleton)

	var b strings.Builder
	b.WriteString("Extract information from this ")
	b.WriteString(formType)
	b.WriteString(" banking form and fill the following JSON template.\n")
	b.WriteString("Template (keys and types must be preserved):\n")
	b.WriteString(tmpl)
	b.WriteString("\n\nSource text:\n")
	b.WriteString(Truncate(text, maxPromptText))
	b.WriteString("\n\nReturn ONLY valid JSON, no explanations. Use \"\" for values that are not on the form.")
	return b.String()
}

// orderedJSON renders m with keys in template order, which map encoding would not keep.
func orderedJSON(keys []string, m map[string]string) string {
	var b strings.Builder
	b.WriteString("{\n")
	for i, k := range keys {
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(m[k])
		b.WriteString("  ")
		b.Write(kb)
		b.WriteString(": ")
		b.Write(vb)
		if i < len(keys)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n[...truncated...]"
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
