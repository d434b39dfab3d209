package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const callerIDKey contextKey = "callerID"

// withCallerID parses the X-User-ID header attached by the upstream auth
// layer into the request context. The header is trusted; requests without
// it still pass through, handlers that need an identity reject them.
func withCallerID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get("X-User-ID"); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), callerIDKey, id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// callerID returns the caller identity from the request context
func callerID(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value(callerIDKey).(int64)
	return id, ok
}

// requestLogging logs every request with method, path, status and duration
func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rw.statusCode,
			"duration": time.Since(start),
			"remote":   r.RemoteAddr,
		}).Info("http request")
	})
}

// responseWriter wraps http.ResponseWriter to capture the HTTP status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.wroteHeader = true
	}
	return rw.ResponseWriter.Write(b)
}
