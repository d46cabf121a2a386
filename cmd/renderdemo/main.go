package main

import (
	"flag"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"fraud-digest-backend/internal/analyses"
	"fraud-digest-backend/internal/notify"
)

const sampleURL = "https://news.example/2026/01/acme-settles-fraud-charges"

func main() {
	outDir := flag.String("out", "./out", "directory for rendered notification previews")
	flag.Parse()

	written, err := writePreviews(*outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render failed: %v\n", err)
		os.Exit(1)
	}
	for _, path := range written {
		fmt.Printf("OK: wrote %s\n", path)
	}
}

func writePreviews(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	previews := []struct {
		name   string
		render func() (string, string, error)
		expect []string
	}{
		{
			name:   "success.html",
			render: func() (string, string, error) { return notify.RenderSuccess(sampleURL, sampleEntities()) },
			expect: []string{sampleURL, "Acme Holdings", "ORG"},
		},
		{
			name:   "success_empty.html",
			render: func() (string, string, error) { return notify.RenderSuccess(sampleURL, []analyses.Entity{}) },
			expect: []string{sampleURL},
		},
		{
			name:   "failure.html",
			render: func() (string, string, error) { return notify.RenderFailure(sampleURL) },
			expect: []string{sampleURL},
		},
	}

	written := make([]string, 0, len(previews))
	for _, p := range previews {
		subject, body, err := p.render()
		if err != nil {
			return written, fmt.Errorf("%s: %w", p.name, err)
		}
		if err := validatePreview(body, p.expect); err != nil {
			return written, fmt.Errorf("%s: %w", p.name, err)
		}
		path := filepath.Join(dir, p.name)
		page := "<!-- Subject: " + subject + " -->\n" + body
		if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func validatePreview(body string, expect []string) error {
	unescaped := html.UnescapeString(body)
	for _, want := range expect {
		if !strings.Contains(unescaped, want) {
			return fmt.Errorf("rendered body is missing %q", want)
		}
	}
	return nil
}

func sampleEntities() []analyses.Entity {
	return []analyses.Entity{
		{Text: "Acme Holdings", Label: "ORG"},
		{Text: "Securities and Exchange Commission", Label: "ORG"},
		{Text: "Jordan Lee", Label: "PERSON"},
		{Text: "Austin", Label: "GPE"},
		{Text: "$4.2 million", Label: "MONEY"},
	}
}
