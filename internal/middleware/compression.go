package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// compressMinSize is the smallest body worth compressing. JSON listings run
// well past this; tiny error bodies are cheaper uncompressed.
const compressMinSize = 1024

var compressibleTypes = map[string]bool{
	"application/json": true,
	"text/plain":       true,
	"text/html":        true,
	"text/css":         true,
	"image/svg+xml":    true,
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

// gzipResponseWriter buffers the start of the body so the compress decision
// can consider both size and content type before any header is committed.
type gzipResponseWriter struct {
	http.ResponseWriter
	gz         *gzip.Writer
	buffer     []byte
	statusCode int
	decided    bool
	compress   bool
}

func (g *gzipResponseWriter) WriteHeader(code int) {
	if !g.decided {
		g.statusCode = code
	}
}

func (g *gzipResponseWriter) Write(data []byte) (int, error) {
	if g.decided {
		if g.compress {
			return g.gz.Write(data)
		}
		return g.ResponseWriter.Write(data)
	}

	g.buffer = append(g.buffer, data...)
	if len(g.buffer) > compressMinSize {
		g.decide()
	}
	return len(data), nil
}

// decide commits the compression choice and flushes the buffer.
func (g *gzipResponseWriter) decide() {
	if g.decided {
		return
	}
	g.decided = true

	mediaType := strings.ToLower(strings.TrimSpace(
		strings.Split(g.Header().Get("Content-Type"), ";")[0]))
	g.compress = len(g.buffer) >= compressMinSize && compressibleTypes[mediaType]

	if g.compress {
		g.Header().Del("Content-Length")
		g.Header().Set("Content-Encoding", "gzip")
		g.Header().Add("Vary", "Accept-Encoding")

		g.gz = gzipWriterPool.Get().(*gzip.Writer)
		g.gz.Reset(g.ResponseWriter)
		g.ResponseWriter.WriteHeader(g.statusCode)
		_, _ = g.gz.Write(g.buffer)
	} else {
		g.ResponseWriter.WriteHeader(g.statusCode)
		_, _ = g.ResponseWriter.Write(g.buffer)
	}
	g.buffer = nil
}

func (g *gzipResponseWriter) close() error {
	g.decide()
	if g.gz != nil {
		err := g.gz.Close()
		gzipWriterPool.Put(g.gz)
		g.gz = nil
		return err
	}
	return nil
}

func (g *gzipResponseWriter) Flush() {
	g.decide()
	if g.gz != nil {
		_ = g.gz.Flush()
	}
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Compression returns middleware that gzips compressible responses for
// clients that accept it. Image bodies pass through untouched.
func Compression() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gzw := &gzipResponseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				buffer:         make([]byte, 0, compressMinSize+1),
			}
			defer func() {
				_ = gzw.close()
			}()

			next.ServeHTTP(gzw, r)
		})
	}
}
