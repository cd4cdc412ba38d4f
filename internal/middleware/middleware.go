package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"greenlens/internal/response"
	"greenlens/internal/services"
)

// SlowRequestThreshold marks requests that are logged at Warn
const SlowRequestThreshold = 2 * time.Second

// EnhancedLogging logs request completion with status, size and duration
func EnhancedLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := GetRequestStart(r.Context())
		requestLogger := GetRequestLogger(r.Context())

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		fields := []zap.Field{
			zap.Int("status", rw.status),
			zap.Duration("duration", duration),
			zap.Int64("response_size", rw.bytesWritten),
			zap.String("remote_addr", getClientIP(r)),
		}

		switch {
		case rw.status >= http.StatusInternalServerError:
			requestLogger.Error("Request completed", fields...)
		case duration > SlowRequestThreshold:
			requestLogger.Warn("Slow request completed", fields...)
		default:
			requestLogger.Info("Request completed", fields...)
		}
	})
}

// RecoverPanic turns a handler panic into a 500 JSON response
func RecoverPanic(builder *response.Builder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					GetRequestLogger(r.Context()).Error("Panic recovered",
						zap.Any("panic", rec),
						zap.ByteString("stack", debug.Stack()),
					)
					builder.WriteError(w, r, services.NewInternalError("request panicked", fmt.Errorf("%v", rec)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORS sets cross-origin headers and answers preflight requests
func CORS(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, X-User-ID")
			w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status       int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(data []byte) (int, error) {
	written, err := rw.ResponseWriter.Write(data)
	rw.bytesWritten += int64(written)
	return written, err
}
