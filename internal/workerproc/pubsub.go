package workerproc

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"fraud-digest-backend/internal/shared/telemetry"
)

type pushEnvelope struct {
	Message struct {
		Data       string            `json:"data"`
		MessageID  string            `json:"messageId"`
		Attributes map[string]string `json:"attributes"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// PushHandler serves Pub/Sub push deliveries. A 2xx response acknowledges the message and any
// other status makes Pub/Sub redeliver it.
func PushHandler(proc Processor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var env pushEnvelope
		if err := c.ShouldBindJSON(&env); err != nil {
			telemetry.Error("pubsub.envelope_invalid", map[string]any{"error": err.Error()})
			c.Status(http.StatusNoContent)
			return
		}

		fields := map[string]any{
			"pubsub_message_id": env.Message.MessageID,
			"subscription":      env.Subscription,
		}

		var body string
		if raw, err := base64.StdEncoding.DecodeString(env.Message.Data); err == nil {
			body = string(raw)
		} else {
			// some publishers send the payload unencoded
			body = env.Message.Data
		}

		err := HandleMessage(c.Request.Context(), proc, body)
		if ShouldAck(err) {
			telemetry.Info("pubsub.message.acked", fields)
			c.Status(http.StatusNoContent)
			return
		}
		fields["error"] = err.Error()
		telemetry.Error("pubsub.message.nacked", fields)
		c.Status(http.StatusInternalServerError)
	}
}
