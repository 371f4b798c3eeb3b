// Package proposal holds the deterministic stages between text extraction
// and document output: analysis, compliance and strategy, content, visuals,
// costing and review.
package proposal

// Section keys in output order.
const (
	SectionExecutiveSummary    = "executive_summary"
	SectionUnderstanding       = "understanding"
	SectionTechnicalApproach   = "technical_approach"
	SectionManagementApproach  = "management_approach"
	SectionPastPerformance     = "past_performance"
	SectionComplianceResponses = "compliance_responses"
)

// SectionOrder lists every generated section key in document order.
var SectionOrder = []string{
	SectionExecutiveSummary,
	SectionUnderstanding,
	SectionTechnicalApproach,
	SectionManagementApproach,
	SectionPastPerformance,
	SectionComplianceResponses,
}

var sectionTitles = map[string]string{
	SectionExecutiveSummary:    "Executive Summary",
	SectionUnderstanding:       "Understanding of Requirements",
	SectionTechnicalApproach:   "Technical Approach",
	SectionManagementApproach:  "Management Approach",
	SectionPastPerformance:     "Past Performance",
	SectionComplianceResponses: "Compliance Responses",
}

// SectionTitle returns the display title for a section key.
func SectionTitle(key string) string {
	if t, ok := sectionTitles[key]; ok {
		return t
	}
	return key
}

type Requirement struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Analysis is the keyword-level reading of an RFP.
type Analysis struct {
	RFPID              string        `json:"rfp_id"`
	ProposalTitle      string        `json:"proposal_title"`
	ProjectTitle       string        `json:"project_title,omitempty"`
	ClientIndustry     string        `json:"client_industry"`
	ProjectDomain      string        `json:"project_domain"`
	SubmissionDeadline string        `json:"submission_deadline,omitempty"`
	EvaluationCriteria []string      `json:"evaluation_criteria"`
	AgencyPriorities   []string      `json:"agency_priorities"`
	TechnicalKeywords  []string      `json:"technical_keywords"`
	Requirements       []Requirement `json:"requirements"`
	ComplexityScore    float64       `json:"complexity_score"`
}

type ComplianceItem struct {
	ID               string `json:"id"`
	RequirementText  string `json:"requirement_text"`
	ProposalSection  string `json:"proposal_section"`
	Status           string `json:"status"`
	ResponseStrategy string `json:"response_strategy"`
}

type Strategy struct {
	WinThemes       []string `json:"win_themes"`
	Differentiators []string `json:"differentiators"`
}

type Section struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

type VisualRecommendation struct {
	Section     string `json:"section"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Content is the ordered proposal body plus any suggested visuals.
type Content struct {
	Sections []Section             `json:"sections"`
	Visuals  []VisualRecommendation `json:"visual_recommendations,omitempty"`
}

// Get returns the body of the section with key.
func (c Content) Get(key string) (string, bool) {
	for _, s := range c.Sections {
		if s.Key == key {
			return s.Body, true
		}
	}
	return "", false
}

type LaborLine struct {
	Category string  `json:"category"`
	Hours    float64 `json:"hours"`
	Rate     float64 `json:"rate"`
	Cost     float64 `json:"cost"`
}

type CostProposal struct {
	Labor           []LaborLine `json:"labor"`
	ComplexityScore float64     `json:"complexity_score"`
	Subtotal        float64     `json:"subtotal"`
	Contingency     float64     `json:"contingency"`
	Total           float64     `json:"total"`
	Summary         string      `json:"summary"`
}

// Review severities.
const (
	SeverityHigh   = "High"
	SeverityMedium = "Medium"
	SeverityLow    = "Low"
	SeverityInfo   = "Info"
)

type Feedback struct {
	Section  string `json:"section"`
	Comment  string `json:"comment"`
	Severity string `json:"severity"`
}

type Review struct {
	ReviewStage      string     `json:"review_stage"`
	Score            float64    `json:"score"`
	Coverage         float64    `json:"requirement_coverage"`
	DetailedFeedback []Feedback `json:"detailed_feedback"`
}
