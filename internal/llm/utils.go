package llm

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// DataURL encodes data as a base64 data: URL for inline image/file inputs.
func DataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ExtractJSONObject returns the first {...} block of a model reply, tolerating markdown fences
// and leading prose. ok is false when no object-shaped span exists.
func ExtractJSONObject(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	candidate := s[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", false
	}
	return candidate, true
}

// StrictJSONObject accepts s only when, after trimming whitespace, it is a single JSON object.
func StrictJSONObject(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") || !json.Valid([]byte(s)) {
		return "", false
	}
	return s, true
}
