package middleware

import (
	"context"
	"net/http"
)

const ctxKeyIsHTMX ctxKey = "is_htmx"

// HTMX marks requests coming from htmx so handlers can answer with fragments.
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is := r.Header.Get("HX-Request") == "true"
		next.ServeHTTP(w, r.WithContext(WithHTMX(r.Context(), is)))
	})
}

// WithHTMX marks the request as an htmx request.
func WithHTMX(ctx context.Context, is bool) context.Context {
	return context.WithValue(ctx, ctxKeyIsHTMX, is)
}

// IsHTMX reports whether this is an htmx request.
func IsHTMX(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeyIsHTMX).(bool)
	return v
}
