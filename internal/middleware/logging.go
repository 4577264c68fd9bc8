package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/sipico/microtales/internal/logging"
)

// HTTPLogging creates a middleware that logs every request at INFO with its
// status and duration, and at DEBUG also logs masked headers and bodies.
//
// Token-bearing paths are masked with logging.MaskPath, and the JSON fields
// named in sensitive are masked with logging.MaskJSONBody.
func HTTPLogging(sensitive []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := Logger(r.Context())
			debug := logger.Enabled(r.Context(), slog.LevelDebug)
			path := logging.MaskPath(r.URL.Path)

			if debug {
				logRequest(logger, r, path, sensitive)
			}

			rec := &responseRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				capture:        debug,
			}

			start := time.Now()
			next.ServeHTTP(rec, r)
			duration := time.Since(start)

			logger.Info("request handled",
				"method", r.Method,
				"path", path,
				"status_code", rec.statusCode,
				"duration_ms", duration.Milliseconds(),
			)

			if debug {
				logger.Debug("HTTP Response",
					"method", r.Method,
					"url", path,
					"status_code", rec.statusCode,
					"headers", maskHeaders(rec.Header()),
					"body", maskBody(rec.body.Bytes(), sensitive),
				)
			}
		})
	}
}

type readCloser struct {
	io.Reader
	io.Closer
}

// logRequest logs the incoming HTTP request
func logRequest(logger *slog.Logger, r *http.Request, path string, sensitive []string) {
	var reqBody []byte
	if r.Body != nil {
		var err error
		reqBody, err = io.ReadAll(r.Body)
		// Restore body for handler. After a failed read the handler sees the
		// same error, e.g. *http.MaxBytesError.
		r.Body = readCloser{io.MultiReader(bytes.NewReader(reqBody), r.Body), r.Body}
		if err != nil {
			logger.Debug("Failed to read request body", "error", err)
			return
		}
	}

	logger.Debug("HTTP Request",
		"method", r.Method,
		"url", path,
		"query_params", r.URL.RawQuery,
		"headers", maskHeaders(r.Header),
		"body", maskBody(reqBody, sensitive),
	)
}

// maskHeaders masks sensitive header values
func maskHeaders(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for k, v := range headers {
		if len(v) > 0 {
			result[k] = logging.MaskHeader(k, v[0])
		}
	}
	return result
}

// maskBody masks sensitive data in request/response body
func maskBody(body []byte, sensitive []string) string {
	if len(body) == 0 {
		return ""
	}
	if !utf8.Valid(body) {
		return logging.FormatBinaryData(body)
	}
	return string(logging.MaskJSONBody(body, sensitive))
}

// responseRecorder captures the status code, and the body when capture is set.
type responseRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	capture     bool
	body        bytes.Buffer
}

// WriteHeader captures the status code and writes it to the response.
func (r *responseRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.statusCode = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

// Write captures the response body and writes it to the response.
func (r *responseRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	if r.capture {
		r.body.Write(b)
	}
	return r.ResponseWriter.Write(b)
}
