package proposal

import (
	"fmt"
	"log/slog"
	"strings"
)

// Proposal sections a requirement can be assigned to.
const (
	ProposalSectionTechnical  = "Technical Approach"
	ProposalSectionManagement = "Management Approach"
	ProposalSectionSecurity   = "Security & Compliance"
	ProposalSectionStaffing   = "Staffing Plan"
	ProposalSectionCost       = "Cost Proposal"
)

const statusPending = "Pending"

// checked in order; first hit wins
var sectionRules = []struct {
	section  string
	keywords []string
}{
	{ProposalSectionCost, []string{"price", "pricing", "cost", "budget", "invoice"}},
	{ProposalSectionStaffing, []string{"staff", "personnel", "team", "resume", "key person"}},
	{ProposalSectionSecurity, []string{"security", "secure", "encrypt", "privacy", "fedramp", "audit"}},
	{ProposalSectionManagement, []string{"schedule", "report", "manage", "milestone", "timeline", "project plan"}},
}

type Compliance struct {
	logger *slog.Logger
}

func NewCompliance(logger *slog.Logger) *Compliance {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compliance{logger: logger}
}

// GenerateComplianceMatrix produces one pending item per requirement.
func (c *Compliance) GenerateComplianceMatrix(a Analysis) []ComplianceItem {
	items := make([]ComplianceItem, 0, len(a.Requirements))
	for _, r := range a.Requirements {
		section := sectionFor(r.Text)
		items = append(items, ComplianceItem{
			ID:               r.ID,
			RequirementText:  r.Text,
			ProposalSection:  section,
			Status:           statusPending,
			ResponseStrategy: responseStrategy(r, section, a.TechnicalKeywords),
		})
	}
	c.logger.Debug("compliance matrix generated", "items", len(items))
	return items
}

// DevelopInitialStrategy derives win themes and differentiators.
func (c *Compliance) DevelopInitialStrategy(a Analysis) Strategy {
	s := Strategy{WinThemes: []string{}, Differentiators: []string{}}
	for _, p := range a.AgencyPriorities {
		s.WinThemes = append(s.WinThemes, "Deliver on agency priority: "+p)
	}
	for _, crit := range a.EvaluationCriteria {
		s.WinThemes = append(s.WinThemes, "Excel in "+strings.ToLower(crit))
	}
	if len(s.WinThemes) == 0 {
		s.WinThemes = append(s.WinThemes, "Low-risk delivery backed by proven methods")
	}
	for _, kw := range a.TechnicalKeywords {
		s.Differentiators = append(s.Differentiators, "Proven expertise in "+kw)
	}
	if a.ClientIndustry != "" && a.ClientIndustry != defaultIndustry {
		s.Differentiators = append(s.Differentiators, "Domain experience in "+a.ClientIndustry)
	}
	return s
}

func sectionFor(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range sectionRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.section
			}
		}
	}
	return ProposalSectionTechnical
}

func responseStrategy(r Requirement, section string, keywords []string) string {
	proof := "relevant past performance"
	lower := strings.ToLower(r.Text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			proof = "our " + kw + " capabilities"
			break
		}
	}
	return fmt.Sprintf("Address %s in the %s section, citing %s.", r.ID, section, proof)
}
