package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxLoggedBody caps request and response bodies in debug logs
const maxLoggedBody = 4096

var sensitiveKeys = map[string]bool{
	"password":       true,
	"login_password": true,
	"access_token":   true,
	"reason":         true,
}

// responseWriter wraps http.ResponseWriter to capture status code and response body
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
	body       *bytes.Buffer
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	if rw.body != nil && rw.body.Len() < maxLoggedBody {
		rw.body.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

// Logging logs every request. Completion is logged at INFO for 2xx/3xx, WARN for
// 4xx and ERROR for 5xx. At DEBUG level query parameters and JSON bodies are
// added with credentials and disciplinary reasons masked.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		debug := slog.Default().Enabled(r.Context(), slog.LevelDebug)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		attrs := []any{
			"remote_ip", r.RemoteAddr,
			"user_agent", r.UserAgent(),
			"method", r.Method,
			"path", r.URL.Path,
		}

		if debug {
			wrapped.body = &bytes.Buffer{}

			var requestBody []byte
			if r.Body != nil {
				requestBody, _ = io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewReader(requestBody))
			}

			debugAttrs := attrs
			if len(r.URL.Query()) > 0 {
				debugAttrs = append(debugAttrs, "query_params", r.URL.Query())
			}
			if len(requestBody) > 0 {
				debugAttrs = append(debugAttrs, "request_body", redactBody(requestBody))
			}
			slog.Debug("Incoming request", debugAttrs...)
		}

		next.ServeHTTP(wrapped, r)

		var level slog.Level
		var msg string
		switch {
		case wrapped.statusCode >= 500:
			level, msg = slog.LevelError, "Request failed with error"
		case wrapped.statusCode >= 400:
			level, msg = slog.LevelWarn, "Request failed"
		default:
			level, msg = slog.LevelInfo, "Request completed"
		}

		attrs = append(attrs,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		if debug && wrapped.body.Len() > 0 {
			attrs = append(attrs, "response_body", redactBody(wrapped.body.Bytes()))
		}

		slog.Log(r.Context(), level, msg, attrs...)
	})
}

// redactBody masks sensitive keys of a JSON body. Non-JSON bodies are truncated only.
func redactBody(body []byte) string {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		if len(body) > maxLoggedBody {
			body = body[:maxLoggedBody]
		}
		return string(body)
	}
	out, err := json.Marshal(redact(v))
	if err != nil {
		return ""
	}
	if len(out) > maxLoggedBody {
		out = out[:maxLoggedBody]
	}
	return string(out)
}

func redact(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if sensitiveKeys[k] {
				t[k] = "***"
				continue
			}
			t[k] = redact(val)
		}
		return t
	case []any:
		for i := range t {
			t[i] = redact(t[i])
		}
		return t
	}
	return v
}
