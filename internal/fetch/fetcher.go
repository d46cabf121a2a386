package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultTimeout = 15 * time.Second
	maxBodyBytes   = 10 << 20
	userAgent      = "fraud-digest/1.0 (+article-analysis)"
)

// FetchError reports a network failure or non-2xx response for url.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	if e.Err == nil {
		return "fetch " + e.URL
	}
	return "fetch " + e.URL + ": " + e.Err.Error()
}

func (e FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves a page and returns the text of its paragraphs.
type Fetcher struct {
	client *http.Client
}

// NewFetcher wires an HTTP client; a nil client gets one with timeout (DefaultTimeout when zero).
func NewFetcher(client *http.Client, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Fetcher{client: client}
}

// Fetch performs a single GET. Paragraph texts are joined in document order by one space; a page
// without paragraphs yields "" and no error. PDF and DOCX responses yield the document text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", FetchError{URL: url, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body := io.LimitReader(resp.Body, maxBodyBytes)
	if kind := documentKind(resp.Header.Get("Content-Type")); kind != "" {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", FetchError{URL: url, Err: fmt.Errorf("read body: %w", err)}
		}
		text, err := documentText(data, kind)
		if err != nil {
			return "", FetchError{URL: url, Err: err}
		}
		return text, nil
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", FetchError{URL: url, Err: fmt.Errorf("parse document: %w", err)}
	}
	return paragraphText(doc), nil
}

func paragraphText(doc *goquery.Document) string {
	parts := make([]string, 0)
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}
