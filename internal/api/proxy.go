package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// The proxy handlers below relay requests to the backend verbatim: copy the
// body, forward the bearer token if present, return the upstream status and
// payload untouched. Only transport failures are translated.

// proxy forwards to a fixed upstream path.
func (s *Server) proxy(method, path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.relay(c, method, path)
	}
}

// proxyWithQuery forwards to a fixed path, preserving the query string.
func (s *Server) proxyWithQuery(method, path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		target := path
		if raw := c.Request.URL.RawQuery; raw != "" {
			target += "?" + raw
		}
		s.relay(c, method, target)
	}
}

// proxyNamed forwards to path/:name.
func (s *Server) proxyNamed(method, prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.relay(c, method, prefix+"/"+c.Param("name"))
	}
}

func (s *Server) relay(c *gin.Context, method, path string) {
	var body []byte
	if c.Request.Body != nil {
		var err error
		body, err = io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":  "INVALID_PAYLOAD",
				"error": "failed to read request body",
			})
			return
		}
	}

	status, respBody, err := s.backend.Raw(c.Request.Context(), method, path, Token(c), body)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if len(respBody) == 0 {
		c.Status(status)
		return
	}
	c.Data(status, "application/json", respBody)
}
