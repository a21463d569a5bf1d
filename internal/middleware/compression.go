package middleware

import (
	"compress/gzip"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig controls gzip compression of API responses.
type CompressionConfig struct {
	// MinSize is the smallest body, in bytes, worth compressing.
	MinSize int
	// Types lists the media types that are compressed.
	Types []string
}

// DefaultCompressionConfig compresses JSON and text bodies of 1KB or more.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Types:   []string{"application/json", "text/plain"},
	}
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

// gzipWriter holds the first MinSize bytes back until it can decide whether
// the response is worth compressing.
type gzipWriter struct {
	http.ResponseWriter
	config  CompressionConfig
	status  int
	pending []byte
	decided bool
	gz      *gzip.Writer
}

func (g *gzipWriter) Unwrap() http.ResponseWriter {
	return g.ResponseWriter
}

func (g *gzipWriter) WriteHeader(code int) {
	if !g.decided {
		g.status = code
	}
}

func (g *gzipWriter) Write(p []byte) (int, error) {
	if g.decided {
		if g.gz != nil {
			return g.gz.Write(p)
		}
		return g.ResponseWriter.Write(p)
	}

	g.pending = append(g.pending, p...)
	if len(g.pending) >= g.config.MinSize {
		if err := g.decide(); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (g *gzipWriter) compressible() bool {
	mediaType, _, err := mime.ParseMediaType(g.Header().Get("Content-Type"))
	if err != nil {
		return false
	}
	for _, t := range g.config.Types {
		if mediaType == t {
			return true
		}
	}
	return false
}

func (g *gzipWriter) decide() error {
	g.decided = true
	h := g.Header()

	if len(g.pending) >= g.config.MinSize && h.Get("Content-Encoding") == "" && g.compressible() {
		h.Del("Content-Length")
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")
		g.gz = gzipWriterPool.Get().(*gzip.Writer)
		g.gz.Reset(g.ResponseWriter)
	}

	g.ResponseWriter.WriteHeader(g.status)

	pending := g.pending
	g.pending = nil
	if len(pending) == 0 {
		return nil
	}
	if g.gz != nil {
		_, err := g.gz.Write(pending)
		return err
	}
	_, err := g.ResponseWriter.Write(pending)
	return err
}

func (g *gzipWriter) Flush() {
	if !g.decided {
		_ = g.decide()
	}
	if g.gz != nil {
		_ = g.gz.Flush()
	}
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (g *gzipWriter) close() error {
	if !g.decided {
		if err := g.decide(); err != nil {
			return err
		}
	}
	if g.gz == nil {
		return nil
	}
	err := g.gz.Close()
	gzipWriterPool.Put(g.gz)
	g.gz = nil
	return err
}

// Compression gzips responses for clients that accept it. Bodies below
// MinSize and non-listed content types pass through unchanged.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			gw := &gzipWriter{ResponseWriter: w, config: config, status: http.StatusOK}
			defer gw.close()
			next.ServeHTTP(gw, r)
		})
	}
}
