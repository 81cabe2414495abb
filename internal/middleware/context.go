package middleware

import "context"

// context keys are unexported to avoid collisions
type ctxKey string

const (
	ctxKeySession ctxKey = "session"
)

// WithSession stores session data in ctx.
func WithSession(ctx context.Context, s *SessionData) context.Context {
	return context.WithValue(ctx, ctxKeySession, s)
}

// SessionFromContext returns the session attached by the session middleware.
func SessionFromContext(ctx context.Context) (*SessionData, bool) {
	s, ok := ctx.Value(ctxKeySession).(*SessionData)
	return s, ok && s != nil
}

// SessionID returns the current session id, or "" outside a session.
func SessionID(ctx context.Context) string {
	if s, ok := SessionFromContext(ctx); ok {
		return s.ID
	}
	return ""
}
