package proposal

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/joseph-ayodele/rfp-agent/internal/knowledge"
)

const relevantLimit = 3

// KnowledgeSource supplies past insights for the past performance section.
type KnowledgeSource interface {
	FindRelevant(industry, domain string, keywords []string, limit int) ([]knowledge.SearchResult, error)
}

var sectionTemplates = template.Must(template.New("sections").Funcs(template.FuncMap{
	"lower": strings.ToLower,
	"join":  strings.Join,
}).Parse(`
{{define "executive_summary"}}{{.Title}} responds to the needs of {{.A.ClientIndustry}} in {{.A.ProjectDomain}}.
{{- if .A.ProjectTitle}} For {{.A.ProjectTitle}}, we{{else}} We{{end}} offer a solution shaped around the following themes:
{{range .S.WinThemes}}
- {{.}}{{end}}
{{- if .S.Differentiators}}

What sets us apart:
{{range .S.Differentiators}}
- {{.}}{{end}}{{end}}{{end}}

{{define "understanding"}}We understand that {{if .A.ProjectTitle}}{{.A.ProjectTitle}}{{else}}this effort{{end}} requires {{len .A.Requirements}} documented requirement(s).
{{- if .A.SubmissionDeadline}} Responses are due {{.A.SubmissionDeadline}}.{{end}}
{{- if .A.AgencyPriorities}}

The agency has stated these priorities:
{{range .A.AgencyPriorities}}
- {{.}}{{end}}{{end}}
{{- if .A.Requirements}}

Key requirements:
{{range .A.Requirements}}
- {{.ID}}{{end}}{{end}}{{end}}

{{define "technical_approach"}}Our technical approach{{if .A.TechnicalKeywords}} draws on {{join .A.TechnicalKeywords ", "}}{{end}}.
{{- range .Technical}}

{{.ID}}: {{.RequirementText}} {{.ResponseStrategy}}{{end}}{{end}}

{{define "management_approach"}}A dedicated program manager will own schedule, reporting and risk for the engagement.
{{- if .A.EvaluationCriteria}} Our plan is measured against the stated evaluation criteria: {{lower (join .A.EvaluationCriteria ", ")}}.{{end}}
{{- range .Management}}

{{.ID}}: {{.RequirementText}} {{.ResponseStrategy}}{{end}}{{end}}

{{define "past_performance"}}{{if .References}}Relevant experience from previous pursuits:
{{range .References}}
- {{.Title}}: {{.Content}}{{end}}{{else}}No directly comparable past performance is recorded yet; references will be provided on request.{{end}}{{end}}

{{define "compliance_responses"}}{{if .Matrix}}{{range $i, $m := .Matrix}}{{if $i}}
{{end}}- {{$m.ID}} ({{$m.ProposalSection}}, {{$m.Status}}): {{$m.ResponseStrategy}}{{end}}{{else}}No explicit requirements were identified in the RFP.{{end}}{{end}}
`))

type contentData struct {
	Title      string
	A          Analysis
	S          Strategy
	Matrix     []ComplianceItem
	Technical  []ComplianceItem
	Management []ComplianceItem
	References []knowledge.SearchResult
}

// ContentGenerator renders the proposal sections from analysis and strategy.
type ContentGenerator struct {
	kb     KnowledgeSource
	logger *slog.Logger
}

// NewContentGenerator accepts a nil kb, in which case no references are cited.
func NewContentGenerator(kb KnowledgeSource, logger *slog.Logger) *ContentGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentGenerator{kb: kb, logger: logger}
}

func (g *ContentGenerator) GenerateProposalContent(a Analysis, matrix []ComplianceItem, s Strategy) (Content, error) {
	data := contentData{Title: a.ProposalTitle, A: a, S: s, Matrix: matrix}
	if data.Title == "" {
		data.Title = "This proposal"
	}
	for _, m := range matrix {
		if m.ProposalSection == ProposalSectionManagement || m.ProposalSection == ProposalSectionStaffing {
			data.Management = append(data.Management, m)
		} else {
			data.Technical = append(data.Technical, m)
		}
	}

	if g.kb != nil {
		refs, err := g.kb.FindRelevant(a.ClientIndustry, a.ProjectDomain, a.TechnicalKeywords, relevantLimit)
		if err != nil {
			g.logger.Warn("knowledge lookup failed; continuing without references", "rfp_id", a.RFPID, "error", err)
		}
		data.References = refs
	}

	content := Content{Sections: make([]Section, 0, len(SectionOrder))}
	for _, key := range SectionOrder {
		var buf bytes.Buffer
		if err := sectionTemplates.ExecuteTemplate(&buf, key, data); err != nil {
			return Content{}, fmt.Errorf("render %s: %w", key, err)
		}
		content.Sections = append(content.Sections, Section{
			Key:   key,
			Title: SectionTitle(key),
			Body:  strings.TrimSpace(buf.String()),
		})
	}
	g.logger.Debug("proposal content generated", "rfp_id", a.RFPID, "sections", len(content.Sections), "references", len(data.References))
	return content, nil
}
