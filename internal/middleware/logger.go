package middleware

import (
	"net/http"
	"time"

	chiMid "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Nixjoyer/Jump-Ship/internal/platform/observability"
)

// RequestLogger emits one structured log per request and exposes a request
// scoped logger to handlers via observability.FromContext.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	base = observability.OrNop(base)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			logger := base
			if rid := chiMid.GetReqID(r.Context()); rid != "" {
				logger = logger.With(zap.String("requestId", rid))
			}
			if sid := SessionID(r.Context()); sid != "" {
				logger = logger.With(zap.String("sessionId", sid))
			}

			next.ServeHTTP(rw, r.WithContext(observability.WithLogger(r.Context(), logger)))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("remoteIp", r.RemoteAddr),
			}
			switch {
			case rw.status >= http.StatusInternalServerError:
				logger.Error("request", fields...)
			case rw.status >= http.StatusBadRequest:
				logger.Warn("request", fields...)
			default:
				logger.Info("request", fields...)
			}
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
