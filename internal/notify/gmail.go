package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/mail"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	gmailSendScope  = "https://www.googleapis.com/auth/gmail.send"
	defaultGmailAPI = "https://gmail.googleapis.com"
)

// GmailConfig holds the OAuth client and stored refresh token used to send mail.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Sender       string
	// TokenURL and APIBase override the Google endpoints.
	TokenURL string
	APIBase  string
}

// GmailNotifier sends HTML mail through the Gmail API.
type GmailNotifier struct {
	client  *http.Client
	apiBase string
	sender  string
}

// NewGmailNotifier builds a notifier whose HTTP client refreshes access tokens as needed.
func NewGmailNotifier(ctx context.Context, cfg GmailConfig) (*GmailNotifier, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("gmail notifier: client id, client secret and refresh token are required")
	}
	endpoint := google.Endpoint
	if cfg.TokenURL != "" {
		endpoint = oauth2.Endpoint{TokenURL: cfg.TokenURL, AuthStyle: oauth2.AuthStyleInParams}
	}
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmailSendScope},
		Endpoint:     endpoint,
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	apiBase := strings.TrimRight(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = defaultGmailAPI
	}
	sender := strings.TrimSpace(cfg.Sender)
	if sender == "" {
		sender = "me"
	}
	return &GmailNotifier{
		client:  oauth2.NewClient(ctx, ts),
		apiBase: apiBase,
		sender:  sender,
	}, nil
}

// Notify sends one message to to.
func (g *GmailNotifier) Notify(ctx context.Context, to, subject, htmlBody string) error {
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return NotifyError{To: to, Err: fmt.Errorf("invalid recipient: %w", err)}
	}

	raw := buildMIME(g.sender, addr.Address, subject, htmlBody)
	payload, err := json.Marshal(map[string]string{
		"raw": base64.URLEncoding.EncodeToString(raw),
	})
	if err != nil {
		return NotifyError{To: to, Err: err}
	}

	endpoint := g.apiBase + "/gmail/v1/users/me/messages/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return NotifyError{To: to, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return NotifyError{To: to, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return NotifyError{To: to, Err: fmt.Errorf("gmail send status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}
	return nil
}

func buildMIME(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	if from != "me" {
		b.WriteString("From: " + from + "\r\n")
	}
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

var _ Notifier = (*GmailNotifier)(nil)
