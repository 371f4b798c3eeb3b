package proposal

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

const minSectionWords = 30

var severityPenalty = map[string]float64{
	SeverityHigh:   15,
	SeverityMedium: 5,
	SeverityLow:    1,
}

var reWord = regexp.MustCompile(`[A-Za-z][A-Za-z\-]+`)

var stopWords = map[string]bool{
	"about": true, "after": true, "their": true, "there": true, "these": true,
	"those": true, "which": true, "while": true, "would": true, "shall": true,
	"should": true, "provide": true, "system": true, "required": true, "other": true,
}

type Reviewer struct {
	logger *slog.Logger
}

func NewReviewer(logger *slog.Logger) *Reviewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reviewer{logger: logger}
}

// PerformReview checks section completeness and requirement coverage and
// scores the draft out of 100.
func (r *Reviewer) PerformReview(c Content, a Analysis, matrix []ComplianceItem, stage string) Review {
	rev := Review{ReviewStage: stage, DetailedFeedback: []Feedback{}}

	for _, key := range SectionOrder {
		body, ok := c.Get(key)
		words := len(strings.Fields(body))
		switch {
		case !ok || words == 0:
			rev.DetailedFeedback = append(rev.DetailedFeedback, Feedback{
				Section: key, Comment: "Section is missing or empty.", Severity: SeverityHigh,
			})
		case words < minSectionWords && key != SectionComplianceResponses:
			rev.DetailedFeedback = append(rev.DetailedFeedback, Feedback{
				Section:  key,
				Comment:  fmt.Sprintf("Section is brief (%d words); add specifics.", words),
				Severity: SeverityLow,
			})
		}
	}

	var corpus strings.Builder
	for _, s := range c.Sections {
		if s.Key == SectionUnderstanding {
			continue
		}
		corpus.WriteString(strings.ToLower(s.Body))
		corpus.WriteByte('\n')
	}
	text := corpus.String()

	reqs := a.Requirements
	if len(reqs) == 0 {
		for _, m := range matrix {
			reqs = append(reqs, Requirement{ID: m.ID, Text: m.RequirementText})
		}
	}
	covered := 0
	for _, req := range reqs {
		if isCovered(req.Text, text) {
			covered++
			continue
		}
		rev.DetailedFeedback = append(rev.DetailedFeedback, Feedback{
			Section:  SectionComplianceResponses,
			Comment:  fmt.Sprintf("Requirement %s may not be fully addressed.", req.ID),
			Severity: SeverityHigh,
		})
	}
	rev.Coverage = 1
	if len(reqs) > 0 {
		rev.Coverage = float64(covered) / float64(len(reqs))
	}

	score := 100.0
	for _, f := range rev.DetailedFeedback {
		score -= severityPenalty[f.Severity]
	}
	rev.Score = max(score, 0)

	if len(rev.DetailedFeedback) == 0 {
		rev.DetailedFeedback = append(rev.DetailedFeedback, Feedback{
			Section: "overall", Comment: "No issues found at " + stage + ".", Severity: SeverityInfo,
		})
	}
	r.logger.Debug("review complete", "stage", stage, "score", rev.Score, "coverage", rev.Coverage)
	return rev
}

// isCovered reports whether at least half the significant words of req appear in text.
func isCovered(req, text string) bool {
	var terms []string
	for _, w := range reWord.FindAllString(strings.ToLower(req), -1) {
		if len(w) > 4 && !stopWords[w] {
			terms = append(terms, w)
		}
	}
	if len(terms) == 0 {
		return true
	}
	hits := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			hits++
		}
	}
	return hits*2 >= len(terms)
}
