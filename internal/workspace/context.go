package workspace

import (
	"context"
	"errors"
	"fmt"
)

// Key for workspace ID in context
type contextKey string

const (
	workspaceIDKey contextKey = "workspaceID"
	requestIDKey   contextKey = "requestID"
)

// ErrNoWorkspaceInContext is returned when no workspace ID is found in context
var ErrNoWorkspaceInContext = errors.New("no workspace ID found in context")

// ErrNoRequestIDInContext is returned when no request ID is found in context
var ErrNoRequestIDInContext = errors.New("no request ID found in context")

// WithID returns a new context carrying the given workspace ID.
func WithID(ctx context.Context, workspaceID string) context.Context {
	return context.WithValue(ctx, workspaceIDKey, workspaceID)
}

// FromContext extracts the workspace ID from the context.
func FromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(workspaceIDKey).(string)
	if !ok || id == "" {
		return "", ErrNoWorkspaceInContext
	}
	return id, nil
}

// MustFromContext extracts the workspace ID or panics. Intended for code
// paths where the ID has already been validated upstream.
func MustFromContext(ctx context.Context) string {
	id, err := FromContext(ctx)
	if err != nil {
		panic(fmt.Sprintf("workspace: %v", err))
	}
	return id
}

// WithRequestID returns a new context carrying the given request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from the context.
func RequestIDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(requestIDKey).(string)
	if !ok || id == "" {
		return "", ErrNoRequestIDInContext
	}
	return id, nil
}
