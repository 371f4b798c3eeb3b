package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/rfp-agent/internal/proposal"
)

func sampleDoc() Document {
	return Document{
		Title: "Sky Analytics: Phase 3 Proposal",
		Content: proposal.Content{Sections: []proposal.Section{
			{Key: proposal.SectionExecutiveSummary, Title: "Executive Summary", Body: "We deliver.\n\n- Theme one"},
			{Key: proposal.SectionTechnicalApproach, Title: "Technical Approach", Body: "Architecture first."},
		}},
		Visuals: []proposal.VisualRecommendation{
			{Section: proposal.SectionTechnicalApproach, Type: "Architecture Diagram", Description: "High-level view"},
		},
		Cost: proposal.CostProposal{
			Labor:    []proposal.LaborLine{{Category: "Program Manager", Hours: 160, Rate: 150, Cost: 24000}},
			Subtotal: 24000, Contingency: 2400, Total: 26400, Summary: "Total is $26400.00.",
		},
		Review: proposal.Review{ReviewStage: "Gold Team Final Review", Score: 85, DetailedFeedback: []proposal.Feedback{
			{Section: "past_performance", Comment: "Section is missing or empty.", Severity: "High"},
		}},
		Compliance: []proposal.ComplianceItem{
			{ID: "R-001", RequirementText: "Must analyse imagery.", ProposalSection: "Technical Approach", Status: "Pending", ResponseStrategy: "Address R-001."},
		},
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "sky_analytics_phase_3_proposal", Slug("Sky Analytics: Phase 3 Proposal"))
	assert.Equal(t, "proposal", Slug("!!!"))
	assert.LessOrEqual(t, len(Slug(strings.Repeat("a b ", 100))), 80)
}

func TestGenerateProposalDocument(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	g := NewGenerator(dir, nil)
	g.now = func() time.Time { return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC) }
	g.suffix = func() string { return "a1b2c3d4" }

	paths, err := g.GenerateProposalDocument(sampleDoc())
	require.NoError(t, err)
	require.Len(t, paths, 3)
	stem := filepath.Join(dir, "sky_analytics_phase_3_proposal_20250601_093000_a1b2c3d4")
	assert.Equal(t, stem+".md", paths[KeyMarkdown])
	assert.Equal(t, stem+".html", paths[KeyHTML])
	assert.Equal(t, stem+".xlsx", paths[KeyWorkbook])

	md, err := os.ReadFile(paths[KeyMarkdown])
	require.NoError(t, err)
	text := string(md)
	assert.True(t, strings.HasPrefix(text, "# Sky Analytics: Phase 3 Proposal\n"))
	assert.Contains(t, text, "## Executive Summary\n\nWe deliver.")
	assert.Contains(t, text, "> Suggested visual (Architecture Diagram): High-level view")
	assert.Contains(t, text, "| Program Manager | 160 | $150.00 | $24000.00 |")
	assert.Contains(t, text, "| **Total** | | | $26400.00 |")
	assert.Contains(t, text, "- [High] past_performance: Section is missing or empty.")
	assert.Less(t, strings.Index(text, "Executive Summary"), strings.Index(text, "Technical Approach"))

	html, err := os.ReadFile(paths[KeyHTML])
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h2>Executive Summary</h2>")
	assert.Contains(t, string(html), "<table>")
	assert.Contains(t, string(html), "<title>Sky Analytics: Phase 3 Proposal</title>")

	wb, err := excelize.OpenFile(paths[KeyWorkbook])
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"Compliance", "Cost", "Review"}, wb.GetSheetList())

	v, err := wb.GetCellValue("Compliance", "A2")
	require.NoError(t, err)
	assert.Equal(t, "R-001", v)
	v, err = wb.GetCellValue("Cost", "A5")
	require.NoError(t, err)
	assert.Equal(t, "Total", v)
	v, err = wb.GetCellValue("Review", "C3")
	require.NoError(t, err)
	assert.Equal(t, "Section is missing or empty.", v)
}

func TestGenerateProposalDocument_SameTitleSameSecond(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(dir, nil)
	g.now = func() time.Time { return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC) }

	first, err := g.GenerateProposalDocument(sampleDoc())
	require.NoError(t, err)
	second, err := g.GenerateProposalDocument(sampleDoc())
	require.NoError(t, err)

	for _, key := range []string{KeyMarkdown, KeyHTML, KeyWorkbook} {
		assert.NotEqual(t, first[key], second[key], key)
		assert.FileExists(t, first[key])
		assert.FileExists(t, second[key])
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 6)
}

func TestGenerateProposalDocument_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewGenerator(file, nil).GenerateProposalDocument(sampleDoc())
	assert.Error(t, err)
}
