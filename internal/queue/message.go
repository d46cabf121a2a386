package queue

import "encoding/json"

// Message is the job payload carried on the queue.
type Message struct {
	URL        string `json:"url"`
	Email      string `json:"email"`
	RequestID  string `json:"requestId,omitempty"`
	EnqueuedAt string `json:"enqueuedAt,omitempty"`
	Version    int    `json:"version,omitempty"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
