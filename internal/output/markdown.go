package output

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/joseph-ayodele/rfp-agent/internal/proposal"
)

var markdownTmpl = template.Must(template.New("proposal").Funcs(template.FuncMap{
	"money":   func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	"visuals": visualsFor,
}).Parse(`# {{.Title}}
{{range .Content.Sections}}
## {{.Title}}

{{.Body}}
{{- range visuals $.Visuals .Key}}

> Suggested visual ({{.Type}}): {{.Description}}{{end}}
{{end}}
## Cost Proposal

| Labor Category | Hours | Rate | Cost |
|---|---:|---:|---:|
{{- range .Cost.Labor}}
| {{.Category}} | {{printf "%.0f" .Hours}} | {{money .Rate}} | {{money .Cost}} |{{end}}
| **Subtotal** | | | {{money .Cost.Subtotal}} |
| **Contingency** | | | {{money .Cost.Contingency}} |
| **Total** | | | {{money .Cost.Total}} |

{{.Cost.Summary}}

## Review Summary

Stage: {{.Review.ReviewStage}}. Score: {{printf "%.0f" .Review.Score}}/100.
{{range .Review.DetailedFeedback}}
- [{{.Severity}}] {{.Section}}: {{.Comment}}{{end}}
`))

func visualsFor(all []proposal.VisualRecommendation, section string) []proposal.VisualRecommendation {
	var out []proposal.VisualRecommendation
	for _, v := range all {
		if v.Section == section {
			out = append(out, v)
		}
	}
	return out
}

func renderMarkdown(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdownTmpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}
