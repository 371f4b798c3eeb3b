package proposal

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/rfp-agent/internal/knowledge"
)

const sampleRFP = `This is a sample RFP document for testing.
Project Title: NextGen Sky Analytics Platform
Client Industry: Aerospace & Defense
Project Domain: Advanced Data Analytics
Requirement ID: R-001. Requirement Text: The platform must provide real-time analytics of satellite imagery.
Requirement ID: R-002. Requirement Text: The system must integrate with existing ground control systems.
Submission Deadline: November 15, 2025.
Evaluation Criteria: Technical feasibility, innovation in analytics, and integration capability.
Agency Priority: We seek cutting-edge analytical solutions with proven integration patterns.
Technical Keywords: satellite, real-time, analytics, integration, AI, machine learning
The contractor shall deliver monthly status reports. Offerors are required to submit key personnel resumes.`

type mockKB struct {
	mock.Mock
}

func (m *mockKB) FindRelevant(industry, domain string, keywords []string, limit int) ([]knowledge.SearchResult, error) {
	args := m.Called(industry, domain, keywords, limit)
	res, _ := args.Get(0).([]knowledge.SearchResult)
	return res, args.Error(1)
}

func analyse(t *testing.T) Analysis {
	t.Helper()
	a := NewAnalyzer(nil).ExtractKeyInformation(sampleRFP)
	a.RFPID = "RFP-TEST"
	a.ProposalTitle = "Sky Analytics Proposal"
	return a
}

func TestAnalyzer_ExtractKeyInformation(t *testing.T) {
	a := analyse(t)

	assert.Equal(t, "NextGen Sky Analytics Platform", a.ProjectTitle)
	assert.Equal(t, "Aerospace & Defense", a.ClientIndustry)
	assert.Equal(t, "Advanced Data Analytics", a.ProjectDomain)
	assert.Equal(t, "November 15, 2025", a.SubmissionDeadline)
	assert.Equal(t, []string{"Technical feasibility", "innovation in analytics", "integration capability"}, a.EvaluationCriteria)
	assert.Equal(t, []string{"We seek cutting-edge analytical solutions with proven integration patterns"}, a.AgencyPriorities)
	assert.Equal(t, []string{"satellite", "real-time", "analytics", "integration", "AI", "machine learning"}, a.TechnicalKeywords)

	require.Len(t, a.Requirements, 4)
	assert.Equal(t, Requirement{ID: "R-001", Text: "The platform must provide real-time analytics of satellite imagery."}, a.Requirements[0])
	assert.Equal(t, "R-002", a.Requirements[1].ID)
	assert.Equal(t, "REQ-003", a.Requirements[2].ID)
	assert.Equal(t, "The contractor shall deliver monthly status reports.", a.Requirements[2].Text)
	assert.Equal(t, "REQ-004", a.Requirements[3].ID)
	assert.InDelta(t, 1.2, a.ComplexityScore, 1e-9)
}

func TestAnalyzer_Defaults(t *testing.T) {
	a := NewAnalyzer(nil).ExtractKeyInformation("Nothing labelled here.")
	assert.Equal(t, "General", a.ClientIndustry)
	assert.Equal(t, "General Services", a.ProjectDomain)
	assert.Empty(t, a.Requirements)
	assert.NotNil(t, a.TechnicalKeywords)
	assert.Equal(t, 1.0, a.ComplexityScore)
}

func TestAnalyzer_ComplexityCapped(t *testing.T) {
	text := "The vendor must do a distinct thing number X.\n"
	for i := 0; i < 30; i++ {
		text += "Item " + string(rune('a'+i%26)) + strings.Repeat("z", i) + " must be delivered.\n"
	}
	a := NewAnalyzer(nil).ExtractKeyInformation(text)
	assert.Greater(t, len(a.Requirements), 20)
	assert.Equal(t, 2.0, a.ComplexityScore)
}

func TestCompliance_MatrixAndStrategy(t *testing.T) {
	a := analyse(t)
	c := NewCompliance(nil)

	matrix := c.GenerateComplianceMatrix(a)
	require.Len(t, matrix, 4)
	assert.Equal(t, ProposalSectionTechnical, matrix[0].ProposalSection)
	assert.Equal(t, "Pending", matrix[0].Status)
	assert.Contains(t, matrix[0].ResponseStrategy, "our satellite capabilities")
	assert.Equal(t, ProposalSectionManagement, matrix[2].ProposalSection)
	assert.Equal(t, ProposalSectionStaffing, matrix[3].ProposalSection)

	s := c.DevelopInitialStrategy(a)
	assert.Len(t, s.WinThemes, 4)
	assert.Equal(t, "Excel in technical feasibility", s.WinThemes[1])
	assert.Contains(t, s.Differentiators, "Proven expertise in satellite")
	assert.Contains(t, s.Differentiators, "Domain experience in Aerospace & Defense")

	empty := c.DevelopInitialStrategy(Analysis{})
	assert.Len(t, empty.WinThemes, 1)
}

func TestContentGenerator_UsesKnowledge(t *testing.T) {
	a := analyse(t)
	c := NewCompliance(nil)
	matrix := c.GenerateComplianceMatrix(a)
	s := c.DevelopInitialStrategy(a)

	kb := new(mockKB)
	kb.On("FindRelevant", "Aerospace & Defense", "Advanced Data Analytics", a.TechnicalKeywords, 3).
		Return([]knowledge.SearchResult{{Title: "Generic Insight", Content: "Always address client pain points directly."}}, nil)

	content, err := NewContentGenerator(kb, nil).GenerateProposalContent(a, matrix, s)
	require.NoError(t, err)
	kb.AssertExpectations(t)

	require.Len(t, content.Sections, len(SectionOrder))
	for i, key := range SectionOrder {
		assert.Equal(t, key, content.Sections[i].Key)
		assert.NotEmpty(t, content.Sections[i].Body, key)
	}
	pp, _ := content.Get(SectionPastPerformance)
	assert.Contains(t, pp, "- Generic Insight: Always address client pain points directly.")

	exec, _ := content.Get(SectionExecutiveSummary)
	assert.True(t, strings.HasPrefix(exec, "Sky Analytics Proposal responds to the needs of Aerospace & Defense"))
	assert.Contains(t, exec, "- Deliver on agency priority:")

	tech, _ := content.Get(SectionTechnicalApproach)
	assert.Contains(t, tech, "R-001: The platform must provide real-time analytics")
	mgmt, _ := content.Get(SectionManagementApproach)
	assert.Contains(t, mgmt, "REQ-003: The contractor shall deliver monthly status reports.")

	cr, _ := content.Get(SectionComplianceResponses)
	assert.Equal(t, 4, strings.Count(cr, "\n")+1)
}

func TestContentGenerator_KnowledgeFailureIsNotFatal(t *testing.T) {
	a := analyse(t)
	kb := new(mockKB)
	kb.On("FindRelevant", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("disk gone"))

	content, err := NewContentGenerator(kb, nil).GenerateProposalContent(a, nil, Strategy{})
	require.NoError(t, err)
	pp, _ := content.Get(SectionPastPerformance)
	assert.Contains(t, pp, "No directly comparable past performance")
	cr, _ := content.Get(SectionComplianceResponses)
	assert.Equal(t, "No explicit requirements were identified in the RFP.", cr)
}

func TestVisualIntegrator(t *testing.T) {
	in := Content{Sections: []Section{
		{Key: SectionManagementApproach, Body: "Our timeline has three phases. The team reports weekly."},
		{Key: SectionTechnicalApproach, Body: "The platform architecture integrates with ground systems."},
		{Key: SectionPastPerformance, Body: "Nothing relevant."},
	}}
	out := NewVisualIntegrator(nil).IdentifyAndIntegrateVisuals(in)

	assert.Equal(t, in.Sections, out.Sections)
	assert.Empty(t, in.Visuals)
	require.Len(t, out.Visuals, 3)
	assert.Equal(t, VisualRecommendation{Section: SectionManagementApproach, Type: "Gantt Chart", Description: "Project timeline with phases and milestones"}, out.Visuals[0])
	assert.Equal(t, "Organizational Chart", out.Visuals[1].Type)
	assert.Equal(t, "Architecture Diagram", out.Visuals[2].Type)
}

func TestCostModel(t *testing.T) {
	cp := NewCostModel(nil).DevelopCostProposal(Analysis{ProjectTitle: "Sky"}, 1.0)
	// 160*150 + 240*165 + 480*140 + 240*110 + 80*95
	assert.Equal(t, 164800.0, cp.Subtotal)
	assert.Equal(t, 16480.0, cp.Contingency)
	assert.Equal(t, 181280.0, cp.Total)
	assert.Len(t, cp.Labor, 5)
	assert.Contains(t, cp.Summary, "Sky")
	assert.Contains(t, cp.Summary, "$181280.00")

	scaled := NewCostModel(nil).DevelopCostProposal(Analysis{}, 1.5)
	assert.Equal(t, 247200.0, scaled.Subtotal)

	def := NewCostModel(nil).DevelopCostProposal(Analysis{}, 0)
	assert.Equal(t, 1.1, def.ComplexityScore)
}

func TestReviewer(t *testing.T) {
	a := analyse(t)
	c := NewCompliance(nil)
	matrix := c.GenerateComplianceMatrix(a)
	content, err := NewContentGenerator(nil, nil).GenerateProposalContent(a, matrix, c.DevelopInitialStrategy(a))
	require.NoError(t, err)

	rev := NewReviewer(nil).PerformReview(content, a, matrix, "Gold Team Final Review")
	assert.Equal(t, "Gold Team Final Review", rev.ReviewStage)
	assert.Equal(t, 1.0, rev.Coverage)
	assert.NotEmpty(t, rev.DetailedFeedback)
	assert.LessOrEqual(t, rev.Score, 100.0)

	// drop everything but the executive summary
	thin := Content{Sections: content.Sections[:1]}
	rev = NewReviewer(nil).PerformReview(thin, a, matrix, "Red Team")
	highs := 0
	for _, f := range rev.DetailedFeedback {
		if f.Severity == SeverityHigh {
			highs++
		}
	}
	assert.GreaterOrEqual(t, highs, 5)
	assert.Less(t, rev.Coverage, 1.0)
	assert.GreaterOrEqual(t, rev.Score, 0.0)
}

func TestReviewer_CleanDraft(t *testing.T) {
	long := strings.Repeat("word ", 40)
	var c Content
	for _, key := range SectionOrder {
		c.Sections = append(c.Sections, Section{Key: key, Body: long})
	}
	rev := NewReviewer(nil).PerformReview(c, Analysis{}, nil, "Pink Team")
	assert.Equal(t, 100.0, rev.Score)
	require.Len(t, rev.DetailedFeedback, 1)
	assert.Equal(t, SeverityInfo, rev.DetailedFeedback[0].Severity)
}
