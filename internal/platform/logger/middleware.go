package logger

import (
	"log/slog"
	"net/http"
	"time"
)

// loggedWriter wraps http.ResponseWriter to record the status code and
// the number of body bytes written.
type loggedWriter struct {
	http.ResponseWriter
	status  int
	written int
}

func (w *loggedWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggedWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += n
	return n, err
}

// RequestLogger returns middleware that emits one structured line per
// request. Ingest payloads can be large, so the response size is logged
// alongside method, path, status and elapsed time.
func RequestLogger(log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lw := &loggedWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(lw, r)
			log.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote", r.RemoteAddr),
				slog.Int("status", lw.status),
				slog.Int("bytes", lw.written),
				slog.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
