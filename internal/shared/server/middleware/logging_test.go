package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"fraud-digest-backend/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	telemetry.SetLogger(zap.New(core))
	t.Cleanup(func() { telemetry.SetLogger(zap.NewNop()) })

	router := gin.New()
	router.Use(RequestID(), Logging())
	router.POST("/api/v1/submissions", func(c *gin.Context) {
		c.Set(SubmittedURLKey, "https://news.example/a")
		c.JSON(http.StatusAccepted, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", nil)
	req.Header.Set("X-Request-Id", "req-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	entries := logs.FilterMessage("request.complete").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-123" {
		t.Fatalf("unexpected request_id %v", fields["request_id"])
	}
	if fields["method"] != http.MethodPost || fields["path"] != "/api/v1/submissions" {
		t.Fatalf("unexpected method/path %v %v", fields["method"], fields["path"])
	}
	if fields["status"] != int64(http.StatusAccepted) {
		t.Fatalf("unexpected status %#v", fields["status"])
	}
	if fields["url"] != "https://news.example/a" {
		t.Fatalf("unexpected url %v", fields["url"])
	}
	if _, ok := fields["duration_ms"]; !ok {
		t.Fatalf("expected duration_ms")
	}
	if resp.Header().Get("X-Request-Id") != "req-123" {
		t.Fatalf("expected request id echoed in header")
	}
}

func TestLoggingSkipsOptions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	telemetry.SetLogger(zap.New(core))
	t.Cleanup(func() { telemetry.SetLogger(zap.NewNop()) })

	router := gin.New()
	router.Use(Logging())
	router.OPTIONS("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodOptions, "/x", nil))
	if logs.Len() != 0 {
		t.Fatalf("expected no logs for OPTIONS, got %d", logs.Len())
	}
}
