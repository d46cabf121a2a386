package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func requestIDRouter(seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/ok", func(c *gin.Context) {
		*seen = RequestIDFromContext(c)
		c.Status(http.StatusOK)
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func TestRequestIDKeepsSafeHeader(t *testing.T) {
	var seen string
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-Id", "req-42.a:b")
	requestIDRouter(&seen).ServeHTTP(w, req)

	if seen != "req-42.a:b" || w.Header().Get("X-Request-Id") != "req-42.a:b" {
		t.Fatalf("expected header id kept, got %q / %q", seen, w.Header().Get("X-Request-Id"))
	}
}

func TestRequestIDReplacesUnsafeHeader(t *testing.T) {
	for _, bad := range []string{"", "has space", "line\nbreak", strings.Repeat("a", 65)} {
		var seen string
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		if bad != "" {
			req.Header["X-Request-Id"] = []string{bad}
		}
		requestIDRouter(&seen).ServeHTTP(w, req)

		if seen == "" || seen == bad || len(seen) != 36 {
			t.Fatalf("header %q: expected generated uuid, got %q", bad, seen)
		}
	}
}

func TestRecoveryReturns500(t *testing.T) {
	var seen string
	w := httptest.NewRecorder()
	requestIDRouter(&seen).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"internal_error"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}
