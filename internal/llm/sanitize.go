package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/forms-intake/internal/validation"
)

// CoerceToTemplate reshapes a model reply into the template's key set:
//   - scalars become strings (numbers keep their literal digits, bools as true/false, null as "")
//   - objects and arrays become their compact JSON encoding
//   - keys outside the template are dropped
//   - template keys the model left out are filled with ""
//   - form_type falls back to formType when blank
//
// A reply that is not a JSON object fails. It returns the coerced map, its JSON encoding and the
// list of adjustments made.
func CoerceToTemplate(raw []byte, t validation.Template, formType string, logger *slog.Logger) (map[string]string, []byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	if m == nil {
		return nil, nil, nil, fmt.Errorf("sanitize: reply is not a JSON object")
	}

	allowed := make(map[string]struct{}, len(t.Fields))
	for _, k := range t.Fields {
		allowed[k] = struct{}{}
	}

	out := make(map[string]string, len(t.Fields))
	var changed []string
	for k, v := range m {
		if _, ok := allowed[k]; !ok {
			changed = append(changed, k+"(unknown)")
			continue
		}
		switch x := v.(type) {
		case string:
			out[k] = strings.TrimSpace(x)
		case json.Number:
			out[k] = x.String()
			changed = append(changed, k+"(number)")
		case bool:
			out[k] = strconv.FormatBool(x)
			changed = append(changed, k+"(bool)")
		case nil:
			out[k] = ""
			changed = append(changed, k+"(null)")
		default:
			b, err := json.Marshal(x)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("sanitize: field %q: %w", k, err)
			}
			out[k] = string(b)
			changed = append(changed, k+"(nested)")
		}
	}
	for _, k := range t.Fields {
		if _, ok := out[k]; !ok {
			out[k] = ""
			changed = append(changed, k+"(absent)")
		}
	}
	if _, ok := allowed["form_type"]; ok && out["form_type"] == "" {
		out["form_type"] = formType
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, nil, changed, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Debug("llm.parse.coerce", "changed", changed)
	}
	return out, b, changed, nil
}
