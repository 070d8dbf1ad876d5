// Package validation decides whether extracted form data is complete.
package validation

import (
	"strings"

	"github.com/joseph-ayodele/forms-intake/constants"
)

type Result struct {
	IsComplete    bool                       `json:"is_complete"`
	MissingFields []string                   `json:"missing_fields"`
	Status        constants.SubmissionStatus `json:"status"`
}

// Validate reports the required fields of formType that are absent or blank in data.
// Types without a required list are always complete.
func Validate(data map[string]string, formType string) Result {
	missing := make([]string, 0)
	for _, field := range RequiredFields(formType) {
		if strings.TrimSpace(data[field]) == "" {
			missing = append(missing, field)
		}
	}
	status := constants.StatusReady
	if len(missing) > 0 {
		status = constants.StatusPending
	}
	return Result{
		IsComplete:    len(missing) == 0,
		MissingFields: missing,
		Status:        status,
	}
}
