package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID      contextKey = "request_id"
	ContextKeyAcknowledgment contextKey = "acknowledgment_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithAcknowledgmentID tags the context with the submission being processed.
func WithAcknowledgmentID(ctx context.Context, ackID string) context.Context {
	return context.WithValue(ctx, ContextKeyAcknowledgment, ackID)
}

func AcknowledgmentIDFromContext(ctx context.Context) string {
	if ackID, ok := ctx.Value(ContextKeyAcknowledgment).(string); ok {
		return ackID
	}
	return ""
}
