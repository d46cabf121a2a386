package intake

import (
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fraud-digest-backend/internal/queue"
	"fraud-digest-backend/internal/shared/server/middleware"
	"fraud-digest-backend/internal/shared/server/respond"
	"fraud-digest-backend/internal/shared/telemetry"
)

const messageVersion = 1

// Handler accepts article submissions and publishes them as job messages.
type Handler struct {
	Queue queue.Client
	Now   func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(q queue.Client) *Handler {
	return &Handler{Queue: q, Now: time.Now}
}

// RegisterRoutes attaches submission routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/submissions", h.submit)
}

type submitRequest struct {
	URL   string `json:"url"`
	Email string `json:"email"`
}

func (h *Handler) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "request body must be JSON with url and email", nil)
		return
	}

	articleURL, email, details := validate(req)
	if len(details) > 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid submission", details)
		return
	}
	c.Set(middleware.SubmittedURLKey, articleURL)

	requestID := middleware.RequestIDFromContext(c)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	msg := queue.Message{
		URL:        articleURL,
		Email:      email,
		RequestID:  requestID,
		EnqueuedAt: h.Now().UTC().Format(time.RFC3339),
		Version:    messageVersion,
	}
	if h.Queue == nil {
		respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", "submissions are not being accepted", nil)
		return
	}
	if err := h.Queue.Send(c.Request.Context(), msg); err != nil {
		telemetry.Error("intake.enqueue_failed", map[string]any{
			"request_id": requestID,
			"url":        articleURL,
			"error":      err.Error(),
		})
		respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", "could not accept the submission, please try again", nil)
		return
	}

	telemetry.Info("intake.enqueued", map[string]any{
		"request_id": requestID,
		"url":        articleURL,
	})
	respond.Accepted(c, gin.H{
		"requestId": requestID,
		"status":    "queued",
	})
}

func validate(req submitRequest) (string, string, []map[string]string) {
	var details []map[string]string

	rawURL := strings.TrimSpace(req.URL)
	parsed, err := url.Parse(rawURL)
	if rawURL == "" || err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		details = append(details, map[string]string{"field": "url", "issue": "must be an absolute http or https URL"})
	}

	email := ""
	if addr, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		details = append(details, map[string]string{"field": "email", "issue": "must be a valid email address"})
	} else {
		email = addr.Address
	}
	return rawURL, email, details
}
