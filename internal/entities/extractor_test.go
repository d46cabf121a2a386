package entities

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"fraud-digest-backend/internal/analyses"
)

type recordingBackend struct {
	calls int
	got   string
	out   []analyses.Entity
	err   error
}

func (r *recordingBackend) Name() string { return "recording" }

func (r *recordingBackend) Entities(ctx context.Context, text string) ([]analyses.Entity, error) {
	r.calls++
	r.got = text
	return r.out, r.err
}

type stubCompleter struct {
	out    string
	err    error
	prompt string
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.out, s.err
}

func TestExtractEmptyTextSkipsBackend(t *testing.T) {
	backend := &recordingBackend{}
	got := NewExtractor(backend, 0).Extract(context.Background(), "")
	if backend.calls != 0 {
		t.Fatalf("backend should not be called for empty text")
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestExtractTruncatesTo15000(t *testing.T) {
	backend := &recordingBackend{out: []analyses.Entity{}}
	text := strings.Repeat("a", 20000)

	NewExtractor(backend, 0).Extract(context.Background(), text)

	if n := utf8.RuneCountInString(backend.got); n != 15000 {
		t.Fatalf("backend received %d chars, want 15000", n)
	}
}

func TestTruncateCountsCharacters(t *testing.T) {
	text := strings.Repeat("é", 10)
	got := Truncate(text, 4)
	if got != "éééé" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if Truncate("short", 10) != "short" {
		t.Fatalf("short text should be unchanged")
	}
}

func TestExtractBackendErrorDegrades(t *testing.T) {
	backend := &recordingBackend{err: errors.New("service down")}
	got := NewExtractor(backend, 0).Extract(context.Background(), "Acme Corp sued Globex.")
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty result on backend error, got %#v", got)
	}
}

func TestExtractNonJSONModelOutputDegrades(t *testing.T) {
	completer := &stubCompleter{out: "Sure! Here are the entities you asked for: Acme Corp (ORG)."}
	ex := NewExtractor(NewLLMBackend("openai", completer), 0)

	got := ex.Extract(context.Background(), "Acme Corp reported losses.")
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %#v", got)
	}
	if !strings.HasSuffix(completer.prompt, "Acme Corp reported losses.") {
		t.Fatalf("prompt should end with the article text")
	}
}

func TestExtractLLMFencedArray(t *testing.T) {
	completer := &stubCompleter{out: "Here you go:\n```json\n[{\"entity\":\"Acme Corp\",\"label\":\"ORG\"},{\"entity\":\"Ohio\",\"label\":\"GPE\"}]\n```"}
	got := NewExtractor(NewLLMBackend("gemini", completer), 0).Extract(context.Background(), "text")

	want := []analyses.Entity{{Text: "Acme Corp", Label: "ORG"}, {Text: "Ohio", Label: "GPE"}}
	if len(got) != len(want) {
		t.Fatalf("expected %d entities, got %#v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entity %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseEntityArray(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "plain", raw: `[{"entity":"Jane Doe","label":"PERSON"}]`, want: 1},
		{name: "text key", raw: `[{"text":"Jane Doe","label":"PERSON"}]`, want: 1},
		{name: "empty array", raw: `[]`, want: 0},
		{name: "blank entity skipped", raw: `[{"entity":" ","label":"ORG"},{"entity":"X","label":"ORG"}]`, want: 1},
		{name: "no brackets", raw: `nothing here`, wantErr: true},
		{name: "reversed brackets", raw: `] then [`, wantErr: true},
		{name: "broken json", raw: `[{"entity": "A", }]`, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEntityArray(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %#v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEntityArray: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d entities, got %#v", tt.want, got)
			}
		})
	}
}
