package workerproc

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"

	"fraud-digest-backend/internal/queue"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ParseError reports a message body that could not be turned into a job. Raw keeps the
// original payload for diagnostics.
type ParseError struct {
	Raw    string
	Meta   MessageMeta
	Reason string
}

func (e ParseError) Error() string {
	if e.Reason == "" {
		return "parse message"
	}
	return "parse message: " + e.Reason
}

type wireJob struct {
	URL            string `json:"url"`
	Email          string `json:"email"`
	RequesterEmail string `json:"requester_email"`
	RequestID      string `json:"requestId"`
	EnqueuedAt     string `json:"enqueuedAt"`
	Version        int    `json:"version"`
}

// A key counts only at the start of the body or after a delimiter.
const (
	keyPrefix    = `(?i)(?:^|[{,;\s])["']?`
	valuePattern = `["']?\s*:\s*(?:"([^"]*)"|'([^']*)'|([^\s,;}"']+))`
)

var (
	urlField   = regexp.MustCompile(keyPrefix + `url` + valuePattern)
	emailField = regexp.MustCompile(keyPrefix + `(?:requester_email|email)` + valuePattern)
)

// ParseMessage turns a raw body into a queue message. It tries strict JSON first and then a
// pattern match on url and email keys, quoted or bare, when the body is not JSON at all. A JSON
// body never falls through to the pattern match. Both fields must be non-empty.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ParseError{Raw: body, Meta: meta, Reason: "empty body"}
	}

	msg, decoded, ok := decodeStrict(body)
	if decoded {
		if ok {
			return msg, meta, nil
		}
		return queue.Message{}, meta, ParseError{Raw: body, Meta: meta, Reason: "url and email are required"}
	}
	if msg, ok := decodeTolerant(body); ok {
		return msg, meta, nil
	}
	return queue.Message{}, meta, ParseError{Raw: body, Meta: meta, Reason: "url and email are required"}
}

// decodeStrict reports whether body decoded as a JSON object and, if so, whether it carries both
// fields.
func decodeStrict(body string) (msg queue.Message, decoded, ok bool) {
	var w wireJob
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return queue.Message{}, false, false
	}
	email := strings.TrimSpace(w.Email)
	if email == "" {
		email = strings.TrimSpace(w.RequesterEmail)
	}
	msg = queue.Message{
		URL:        strings.TrimSpace(w.URL),
		Email:      email,
		RequestID:  strings.TrimSpace(w.RequestID),
		EnqueuedAt: w.EnqueuedAt,
		Version:    w.Version,
	}
	return msg, true, msg.URL != "" && msg.Email != ""
}

func decodeTolerant(body string) (queue.Message, bool) {
	msg := queue.Message{
		URL:   firstValue(urlField, body),
		Email: firstValue(emailField, body),
	}
	return msg, msg.URL != "" && msg.Email != ""
}

func firstValue(re *regexp.Regexp, body string) string {
	m := re.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	for _, v := range m[1:] {
		if v = strings.TrimSpace(v); v != "" && !strings.EqualFold(v, "null") {
			return v
		}
	}
	return ""
}
