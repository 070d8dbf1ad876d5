// Package ackid generates the tracking tokens handed back to submitters.
package ackid

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const Prefix = "ACK"

var pattern = regexp.MustCompile(`^ACK-\d{8}-[0-9A-F]{8}$`)

// New returns ACK-YYYYMMDD-XXXXXXXX for the current UTC date.
// Uniqueness is probabilistic; the unique index on acknowledgment_id is the real guarantee.
func New() string {
	return NewAt(time.Now())
}

// NewAt is New with an explicit clock.
func NewAt(t time.Time) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return Prefix + "-" + t.UTC().Format("20060102") + "-" + strings.ToUpper(hex[:8])
}

// Valid reports whether s has the acknowledgment id shape.
func Valid(s string) bool {
	return pattern.MatchString(s)
}
