// Package gzippedhttp holds the middlewares that gzip the API responses for
// clients sending "Accept-Encoding: gzip" and unpack gzip request bodies.
package gzippedhttp

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
		return w
	},
}

// compressedReader unpacks a gzip request body and closes both readers.
type compressedReader struct {
	r  io.ReadCloser
	zr *gzip.Reader
}

func newCompressedReader(body io.ReadCloser) (*compressedReader, error) {
	zr, err := gzip.NewReader(body)
	if err != nil {
		return nil, err
	}

	return &compressedReader{r: body, zr: zr}, nil
}

func (c *compressedReader) Read(p []byte) (int, error) {
	return c.zr.Read(p)
}

func (c *compressedReader) Close() error {
	if err := c.r.Close(); err != nil {
		return err
	}
	return c.zr.Close()
}

// compressedResponseWriter starts the gzip stream on the first body write,
// so bodiless responses (GET /ping) go out untouched.
type compressedResponseWriter struct {
	http.ResponseWriter
	zw            *gzip.Writer
	status        int
	headerWritten bool
}

func (c *compressedResponseWriter) WriteHeader(statusCode int) {
	if c.headerWritten || c.status != 0 {
		return
	}
	c.status = statusCode
}

func (c *compressedResponseWriter) Write(p []byte) (int, error) {
	if c.zw == nil {
		c.start(p)
	}
	return c.zw.Write(p)
}

func (c *compressedResponseWriter) start(firstChunk []byte) {
	header := c.Header()
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", http.DetectContentType(firstChunk))
	}
	header.Set("Content-Encoding", "gzip")
	header.Add("Vary", "Accept-Encoding")
	header.Del("Content-Length")

	c.zw = gzipWriterPool.Get().(*gzip.Writer)
	c.zw.Reset(c.ResponseWriter)
	c.flushHeader()
}

func (c *compressedResponseWriter) flushHeader() {
	if c.headerWritten {
		return
	}
	c.headerWritten = true
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.ResponseWriter.WriteHeader(c.status)
}

// Close finishes the gzip stream, or sends the pending status if nothing was written.
func (c *compressedResponseWriter) Close() error {
	if c.zw == nil {
		c.flushHeader()
		return nil
	}

	err := c.zw.Close()
	gzipWriterPool.Put(c.zw)
	c.zw = nil

	return err
}

// GzipResponse compresses the response when the client accepts gzip.
// A panicking handler leaves the writer unclosed so the recoverer can still answer.
func GzipResponse(h http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if !strings.Contains(req.Header.Get("Accept-Encoding"), "gzip") {
			h.ServeHTTP(res, req)
			return
		}

		compressed := &compressedResponseWriter{ResponseWriter: res}
		h.ServeHTTP(compressed, req)
		_ = compressed.Close()
	})
}

// UngzipRequest replaces a "Content-Encoding: gzip" body with its unpacked stream.
func UngzipRequest(h http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if !strings.Contains(req.Header.Get("Content-Encoding"), "gzip") {
			h.ServeHTTP(res, req)
			return
		}

		body, err := newCompressedReader(req.Body)
		if err != nil {
			http.Error(res, "the request body is not valid gzip", http.StatusBadRequest)
			return
		}
		defer body.Close()

		req.Body = body
		req.Header.Del("Content-Encoding")
		req.ContentLength = -1
		h.ServeHTTP(res, req)
	})
}
