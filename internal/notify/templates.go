package notify

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/joseph-ayodele/forms-intake/constants"
)

type emailTemplate struct {
	subject *template.Template
	body    *template.Template
}

var funcs = template.FuncMap{
	"humanize": func(field string) string {
		s := strings.ReplaceAll(field, "_", " ")
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

var templates = map[constants.EmailType]emailTemplate{
	constants.EmailAcknowledgment: {
		subject: template.Must(template.New("ack_subject").Parse(
			`We received your {{.FormType}} ({{.AcknowledgmentID}})`)),
		body: template.Must(template.New("ack_body").Funcs(funcs).Parse(
			`Dear {{if .CustomerName}}{{.CustomerName}}{{else}}Customer{{end}},

Your {{.FormType}} form has been received and is complete.
Acknowledgment ID: {{.AcknowledgmentID}}

Quote this ID when contacting your branch about this request.
`)),
	},
	constants.EmailFollowup: {
		subject: template.Must(template.New("followup_subject").Parse(
			`Action needed on your {{.FormType}} ({{.AcknowledgmentID}})`)),
		body: template.Must(template.New("followup_body").Funcs(funcs).Parse(
			`Dear {{if .CustomerName}}{{.CustomerName}}{{else}}Customer{{end}},

We received your {{.FormType}} form (acknowledgment ID {{.AcknowledgmentID}}),
but the following details are missing or unreadable:
{{range .MissingFields}}
  - {{humanize .}}{{end}}

Please visit your branch or submit a corrected form.
`)),
	},
}

// Render produces the subject and plain-text body for p.
func Render(p EmailPayload) (string, string, error) {
	t, ok := templates[p.EmailType]
	if !ok {
		return "", "", fmt.Errorf("unknown email type %q", p.EmailType)
	}
	var subj, body bytes.Buffer
	if err := t.subject.Execute(&subj, p); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	if err := t.body.Execute(&body, p); err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return subj.String(), body.String(), nil
}
