package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// responseWriter captures status code and bytes written for the access log.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.wroteHeader = true
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingConfig controls which requests reach the access log.
type LoggingConfig struct {
	// LogStaticFiles enables log lines for image and thumbnail responses,
	// which dominate traffic and are usually noise.
	LogStaticFiles bool
}

var staticExtensions = []string{
	".css", ".js", ".ico", ".svg", ".jpg", ".jpeg", ".png", ".gif", ".webp",
}

var healthCheckPaths = map[string]bool{
	"/health": true,
	"/livez":  true,
	"/readyz": true,
}

// sanitizeLogField strips control characters so a crafted request cannot
// forge log lines or inject terminal escapes.
func sanitizeLogField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r < 0x20 || r == 0x7f:
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Logger returns access-log middleware writing one line per request:
// date time client-ip method path query status bytes time-taken-ms user-agent.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipAccessLog(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			logRequest(r, wrapped, time.Since(start))
		})
	}
}

func logRequest(r *http.Request, rw *responseWriter, duration time.Duration) {
	now := time.Now().UTC()

	query := sanitizeLogField(r.URL.RawQuery)
	if query == "" {
		query = "-"
	}
	userAgent := sanitizeLogField(r.Header.Get("User-Agent"))
	if userAgent == "" {
		userAgent = "-"
	} else if strings.ContainsAny(userAgent, " \t\"") {
		userAgent = "\"" + strings.ReplaceAll(userAgent, "\"", "\"\"") + "\""
	}

	log.Println(fmt.Sprintf("%s %s %s %s %s %s %d %d %d %s",
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		sanitizeLogField(clientIP(r)),
		sanitizeLogField(r.Method),
		sanitizeLogField(r.URL.Path),
		query,
		rw.statusCode,
		rw.bytesWritten,
		duration.Milliseconds(),
		userAgent,
	))
}

func skipAccessLog(path string, config LoggingConfig) bool {
	if healthCheckPaths[path] {
		return true
	}
	if config.LogStaticFiles {
		return false
	}
	lower := strings.ToLower(path)
	for _, ext := range staticExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
