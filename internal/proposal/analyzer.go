package proposal

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

const (
	defaultIndustry = "General"
	defaultDomain   = "General Services"
	maxComplexity   = 2.0
)

var (
	reLabel       = regexp.MustCompile(`(?i)^\s*(project title|client industry|project domain|submission deadline|evaluation criteria|agency priority|agency priorities|technical keywords)\s*:\s*(.*)$`)
	reExplicitReq = regexp.MustCompile(`(?i)requirement id:\s*([^\s.]+(?:\.[^\s.]+)*)\.\s*requirement text:\s*(.+)`)
	reSentence    = regexp.MustCompile(`[^.!?\n]+[.!?]?`)
	reObligation  = regexp.MustCompile(`(?i)\b(must|shall|required to)\b`)
)

// Analyzer pulls labelled fields and obligation sentences out of RFP text.
type Analyzer struct {
	logger *slog.Logger
}

func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: logger}
}

func (a *Analyzer) ExtractKeyInformation(text string) Analysis {
	out := Analysis{
		ClientIndustry:     defaultIndustry,
		ProjectDomain:      defaultDomain,
		EvaluationCriteria: []string{},
		AgencyPriorities:   []string{},
		TechnicalKeywords:  []string{},
		Requirements:       []Requirement{},
	}
	seen := map[string]bool{}
	addReq := func(id, reqText string) {
		reqText = strings.TrimSpace(reqText)
		key := strings.ToLower(strings.TrimRight(reqText, "."))
		if reqText == "" || seen[key] {
			return
		}
		seen[key] = true
		if id == "" {
			id = fmt.Sprintf("REQ-%03d", len(out.Requirements)+1)
		}
		out.Requirements = append(out.Requirements, Requirement{ID: id, Text: reqText})
	}

	var rest []string
	for _, line := range strings.Split(text, "\n") {
		if m := reExplicitReq.FindStringSubmatch(line); m != nil {
			addReq(m[1], m[2])
			continue
		}
		m := reLabel.FindStringSubmatch(line)
		if m == nil {
			rest = append(rest, line)
			continue
		}
		value := strings.TrimSpace(m[2])
		switch strings.ToLower(m[1]) {
		case "project title":
			out.ProjectTitle = trimPeriod(value)
		case "client industry":
			if v := trimPeriod(value); v != "" {
				out.ClientIndustry = v
			}
		case "project domain":
			if v := trimPeriod(value); v != "" {
				out.ProjectDomain = v
			}
		case "submission deadline":
			out.SubmissionDeadline = trimPeriod(value)
		case "evaluation criteria":
			out.EvaluationCriteria = append(out.EvaluationCriteria, splitList(value)...)
		case "agency priority", "agency priorities":
			if v := trimPeriod(value); v != "" {
				out.AgencyPriorities = append(out.AgencyPriorities, v)
			}
		case "technical keywords":
			out.TechnicalKeywords = append(out.TechnicalKeywords, splitList(value)...)
		}
	}

	for _, s := range reSentence.FindAllString(strings.Join(rest, "\n"), -1) {
		if reObligation.MatchString(s) {
			addReq("", s)
		}
	}

	out.ComplexityScore = complexity(len(out.Requirements))
	a.logger.Debug("rfp analysed",
		"requirements", len(out.Requirements),
		"keywords", len(out.TechnicalKeywords),
		"industry", out.ClientIndustry,
		"complexity", out.ComplexityScore,
	)
	return out
}

func complexity(requirements int) float64 {
	c := 1.0 + 0.05*float64(requirements)
	if c > maxComplexity {
		return maxComplexity
	}
	return c
}

func trimPeriod(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), "."))
}

// splitList splits "a, b, and c." into [a b c].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(trimPeriod(s), ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimSpace(strings.TrimPrefix(part, "and "))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
