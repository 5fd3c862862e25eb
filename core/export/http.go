package export

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
)

// HTTPSaver delivers an export as an attachment on a gin response. The body
// is gzip-encoded when the request accepts it.
type HTTPSaver struct {
	c *gin.Context
}

// NewHTTPSaver wraps the response of c.
func NewHTTPSaver(c *gin.Context) *HTTPSaver {
	return &HTTPSaver{c: c}
}

// Save writes the attachment headers and body.
func (s *HTTPSaver) Save(ctx context.Context, filename, contentType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))

	if !acceptsGzip(s.c.GetHeader("Accept-Encoding")) {
		s.c.Data(http.StatusOK, contentType, data)
		return nil
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("failed to compress export: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to compress export: %w", err)
	}
	s.c.Header("Content-Encoding", "gzip")
	s.c.Header("Vary", "Accept-Encoding")
	s.c.Data(http.StatusOK, contentType, buf.Bytes())
	return nil
}

// acceptsGzip reports whether an Accept-Encoding header allows gzip. An
// explicit gzip entry wins over the "*" wildcard; a zero q-value refuses.
func acceptsGzip(header string) bool {
	wildcard := false
	for _, part := range strings.Split(header, ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		coding = strings.TrimSpace(coding)
		switch {
		case strings.EqualFold(coding, "gzip"):
			return quality(params) > 0
		case coding == "*":
			wildcard = quality(params) > 0
		}
	}
	return wildcard
}

// quality returns the q parameter of an encoding entry, 1 when absent and 0
// when malformed.
func quality(params string) float64 {
	for _, param := range strings.Split(params, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "q") {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0
		}
		return q
	}
	return 1
}
