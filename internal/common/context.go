package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyRFPID     contextKey = "rfp_id"
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

// WithRFPID adds the RFP being processed to the context
func WithRFPID(ctx context.Context, rfpID string) context.Context {
	return context.WithValue(ctx, ContextKeyRFPID, rfpID)
}

// RFPIDFromContext extracts the RFP ID from context
func RFPIDFromContext(ctx context.Context) string {
	if rfpID, ok := ctx.Value(ContextKeyRFPID).(string); ok {
		return rfpID
	}
	return ""
}
