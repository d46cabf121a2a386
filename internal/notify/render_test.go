package notify

import (
	"strings"
	"testing"

	"fraud-digest-backend/internal/analyses"
)

func TestRenderSuccessListsEntities(t *testing.T) {
	_, body, err := RenderSuccess("https://news.example/a", []analyses.Entity{
		{Text: "Acme Corp", Label: "ORG"},
		{Text: "<script>", Label: "MISC"},
	})
	if err != nil {
		t.Fatalf("RenderSuccess: %v", err)
	}
	if !strings.Contains(body, "<td>Acme Corp</td><td>ORG</td>") {
		t.Fatalf("missing entity row:\n%s", body)
	}
	if strings.Contains(body, "<script>") {
		t.Fatalf("entity text was not escaped:\n%s", body)
	}
}

func TestRenderSuccessEmpty(t *testing.T) {
	_, body, err := RenderSuccess("https://news.example/a", nil)
	if err != nil {
		t.Fatalf("RenderSuccess: %v", err)
	}
	if !strings.Contains(body, "No named entities") {
		t.Fatalf("expected empty notice:\n%s", body)
	}
}

func TestRenderFailureNamesURL(t *testing.T) {
	subject, body, err := RenderFailure("https://news.example/missing")
	if err != nil {
		t.Fatalf("RenderFailure: %v", err)
	}
	if subject == "" || !strings.Contains(body, "https://news.example/missing") {
		t.Fatalf("unexpected failure message %q:\n%s", subject, body)
	}
}
