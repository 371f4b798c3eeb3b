package proposal

import (
	"log/slog"
	"strings"
)

var visualRules = []struct {
	keywords    []string
	kind        string
	description string
}{
	{[]string{"timeline", "schedule", "milestone", "phase"}, "Gantt Chart", "Project timeline with phases and milestones"},
	{[]string{"architecture", "integration", "integrate", "platform", "system"}, "Architecture Diagram", "High-level solution architecture and integration points"},
	{[]string{"team", "staff", "personnel", "program manager"}, "Organizational Chart", "Team structure and reporting lines"},
	{[]string{"process", "workflow", "methodology"}, "Process Flow Diagram", "Delivery workflow from intake to acceptance"},
	{[]string{"cost", "budget", "pricing"}, "Cost Breakdown Table", "Labor categories, hours and totals"},
	{[]string{"compliance", "requirement"}, "Compliance Matrix Table", "Requirement-to-section traceability"},
}

type VisualIntegrator struct {
	logger *slog.Logger
}

func NewVisualIntegrator(logger *slog.Logger) *VisualIntegrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisualIntegrator{logger: logger}
}

// IdentifyAndIntegrateVisuals returns a copy of c with at most one
// recommendation per (section, visual type).
func (v *VisualIntegrator) IdentifyAndIntegrateVisuals(c Content) Content {
	out := Content{Sections: append([]Section(nil), c.Sections...)}
	for _, s := range c.Sections {
		body := strings.ToLower(s.Body)
		for _, rule := range visualRules {
			for _, kw := range rule.keywords {
				if strings.Contains(body, kw) {
					out.Visuals = append(out.Visuals, VisualRecommendation{
						Section:     s.Key,
						Type:        rule.kind,
						Description: rule.description,
					})
					break
				}
			}
		}
	}
	v.logger.Debug("visuals recommended", "count", len(out.Visuals))
	return out
}
