package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"fraud-digest-backend/internal/analyses"
)

var successTmpl = template.Must(template.New("success").Parse(`<html><body>
<p>Your article analysis is ready.</p>
<p><a href="{{.URL}}">{{.URL}}</a></p>
{{if .Entities}}<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Entity</th><th>Label</th></tr>
{{range .Entities}}<tr><td>{{.Text}}</td><td>{{.Label}}</td></tr>
{{end}}</table>{{else}}<p>No named entities were found in this article.</p>{{end}}
</body></html>`))

var failureTmpl = template.Must(template.New("failure").Parse(`<html><body>
<p>We could not analyze the article you submitted.</p>
<p><a href="{{.URL}}">{{.URL}}</a></p>
<p>The page could not be retrieved or contained no readable article text. Please check the address and submit it again.</p>
</body></html>`))

// RenderSuccess builds the results message with a table of entities.
func RenderSuccess(url string, entities []analyses.Entity) (subject, body string, err error) {
	var buf bytes.Buffer
	data := struct {
		URL      string
		Entities []analyses.Entity
	}{URL: url, Entities: entities}
	if err := successTmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render success message: %w", err)
	}
	return "Your article analysis is ready", buf.String(), nil
}

// RenderFailure builds the failure notice. It names the URL only.
func RenderFailure(url string) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := failureTmpl.Execute(&buf, struct{ URL string }{URL: url}); err != nil {
		return "", "", fmt.Errorf("render failure message: %w", err)
	}
	return "We could not analyze your article", buf.String(), nil
}
