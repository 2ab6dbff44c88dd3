package middleware

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// brotliMinLength is the smallest body worth compressing. Below it the
// envelope overhead dominates and the bytes ship as-is.
const brotliMinLength = 1024

type brotliWriter struct {
	gin.ResponseWriter
	bw      *brotli.Writer
	pending bytes.Buffer
	started bool
}

func (w *brotliWriter) Write(data []byte) (int, error) {
	if w.started {
		return w.bw.Write(data)
	}

	w.pending.Write(data)
	if w.pending.Len() < brotliMinLength {
		return len(data), nil
	}

	w.started = true
	w.ResponseWriter.Header().Set("Content-Encoding", "br")
	w.ResponseWriter.Header().Del("Content-Length")
	if _, err := w.bw.Write(w.pending.Bytes()); err != nil {
		return 0, err
	}
	w.pending.Reset()
	return len(data), nil
}

func (w *brotliWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// finish either closes the compressor or, for short bodies that never
// crossed the threshold, writes the buffered bytes uncompressed.
func (w *brotliWriter) finish() error {
	if w.started {
		return w.bw.Close()
	}
	if w.pending.Len() == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.pending.Bytes())
	return err
}

// Brotli compresses responses for clients that accept the br encoding.
// Question payloads for image-heavy tests are the main winners.
func Brotli() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		w := &brotliWriter{
			ResponseWriter: c.Writer,
			bw:             brotli.NewWriterLevel(c.Writer, brotli.DefaultCompression),
		}
		c.Writer = w

		defer func() {
			if err := w.finish(); err != nil {
				_ = c.Error(err)
			}
		}()

		c.Next()
	}
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		if strings.TrimSpace(strings.ToLower(enc)) == "br" {
			return true
		}
	}
	return false
}
