package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/circlapp/circl-link-agent/internal/requestid"
	"github.com/circlapp/circl-link-agent/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

func newRequestIDEngine(seen *string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/", func(c *gin.Context) {
		*seen = requestid.FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequestID_PreservesIncoming(t *testing.T) {
	var seen string
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	newRequestIDEngine(&seen).ServeHTTP(w, req)

	if seen != "req-123" || w.Header().Get("X-Request-ID") != "req-123" {
		t.Errorf("context id = %q, header = %q, want req-123", seen, w.Header().Get("X-Request-ID"))
	}
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	var seen string
	w := httptest.NewRecorder()
	newRequestIDEngine(&seen).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("no request id in context")
	}
	if w.Header().Get("X-Request-ID") != seen {
		t.Errorf("header = %q, context = %q", w.Header().Get("X-Request-ID"), seen)
	}
}

func TestRequestID_OversizedIncomingReplaced(t *testing.T) {
	var seen string
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 500))
	newRequestIDEngine(&seen).ServeHTTP(w, req)

	if len(seen) > 128 || seen == "" {
		t.Errorf("request id = %q, want a generated id", seen)
	}
}
