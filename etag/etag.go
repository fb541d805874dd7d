// Package etag adds weak entity tags to successful GET responses and
// answers matching If-None-Match requests with 304. Handlers always run, so
// side effects such as view counting happen on every request.
package etag

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
)

type bufferedWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.body.WriteString(s)
}

// Tag computes the weak ETag of body.
func Tag(body []byte) string {
	return fmt.Sprintf(`W/"%016x"`, xxhash.Sum64(body))
}

func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		original := c.Writer
		writer := &bufferedWriter{
			ResponseWriter: original,
			body:           bytes.NewBuffer(nil),
		}
		c.Writer = writer

		c.Next()

		c.Writer = original

		if original.Status() == http.StatusOK && writer.body.Len() > 0 {
			tag := Tag(writer.body.Bytes())
			original.Header().Set("ETag", tag)
			original.Header().Set("Cache-Control", "private, no-cache")

			if matches(c.GetHeader("If-None-Match"), tag) {
				original.Header().Del("Content-Type")
				original.WriteHeader(http.StatusNotModified)
				original.WriteHeaderNow()
				return
			}
		}

		if writer.body.Len() > 0 {
			original.Write(writer.body.Bytes())
		}
	}
}

// matches implements the weak comparison of If-None-Match.
func matches(header, tag string) bool {
	if header == "" {
		return false
	}
	if strings.TrimSpace(header) == "*" {
		return true
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if strings.TrimPrefix(candidate, "W/") == strings.TrimPrefix(tag, "W/") {
			return true
		}
	}
	return false
}
