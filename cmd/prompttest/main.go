package main

// Run the configured entity extractor against one article:
//   go run ./cmd/prompttest -url https://news.example/story
//   go run ./cmd/prompttest -file article.txt -provider gemini

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"fraud-digest-backend/internal/analyses"
	"fraud-digest-backend/internal/bootstrap"
	"fraud-digest-backend/internal/entities"
	"fraud-digest-backend/internal/fetch"
	"fraud-digest-backend/internal/llm"
	"fraud-digest-backend/internal/shared/config"
)

type output struct {
	Source        string            `json:"source"`
	Backend       string            `json:"backend"`
	PromptVersion string            `json:"promptVersion,omitempty"`
	Chars         int               `json:"chars"`
	Entities      []analyses.Entity `json:"entities"`
	ElapsedMs     int64             `json:"elapsedMs"`
}

func main() {
	cfg := config.Load()

	articleURL := flag.String("url", "", "Article URL to fetch")
	filePath := flag.String("file", "", "Path to a plain-text article (use - for stdin)")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider (openai or gemini)")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	backend := flag.String("backend", cfg.ExtractorBackend, "Extractor backend (llm or nlp)")
	showPrompt := flag.Bool("prompt", false, "Print the prompt instead of calling the backend")
	outPath := flag.String("out", "", "Path to write JSON output (optional)")
	flag.Parse()

	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(*provider))
	cfg.LLMModel = strings.TrimSpace(*model)
	cfg.ExtractorBackend = strings.ToLower(strings.TrimSpace(*backend))

	ctx := context.Background()
	source, text, err := loadText(ctx, cfg, *articleURL, *filePath)
	if err != nil {
		exitErr(err.Error())
	}
	maxChars := cfg.ExtractMaxChars
	if maxChars <= 0 {
		maxChars = entities.DefaultMaxChars
	}

	if *showPrompt {
		fmt.Println(llm.EntityPrompt(entities.Truncate(text, maxChars)))
		return
	}

	extractor, err := bootstrap.BuildExtractor(ctx, cfg)
	if err != nil {
		exitErr(fmt.Sprintf("build extractor: %v", err))
	}

	started := time.Now()
	found := extractor.Extract(ctx, text)
	out := output{
		Source:    source,
		Backend:   cfg.ExtractorBackend,
		Chars:     len([]rune(text)),
		Entities:  found,
		ElapsedMs: time.Since(started).Milliseconds(),
	}
	if cfg.ExtractorBackend == "llm" {
		out.Backend = cfg.ExtractorBackend + "/" + cfg.LLMProvider
		out.PromptVersion = llm.EntityPromptVersion
	}

	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	pretty = append(pretty, '\n')

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

func loadText(ctx context.Context, cfg config.Config, articleURL, filePath string) (string, string, error) {
	articleURL = strings.TrimSpace(articleURL)
	filePath = strings.TrimSpace(filePath)
	switch {
	case articleURL != "" && filePath != "":
		return "", "", fmt.Errorf("use either -url or -file, not both")
	case articleURL != "":
		text, err := fetch.NewFetcher(nil, cfg.FetchTimeout).Fetch(ctx, articleURL)
		if err != nil {
			return "", "", err
		}
		return articleURL, text, nil
	case filePath == "-":
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return "stdin", string(raw), nil
	case filePath != "":
		raw, err := os.ReadFile(filePath)
		if err != nil {
			return "", "", fmt.Errorf("read article: %w", err)
		}
		return filePath, string(raw), nil
	default:
		return "", "", fmt.Errorf("-url or -file is required")
	}
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
