package proposal

import (
	"fmt"
	"log/slog"
	"math"
)

const (
	contingencyRate   = 0.10
	defaultComplexity = 1.1
)

// standard labor mix for a mid-sized engagement
var baseLabor = []LaborLine{
	{Category: "Program Manager", Hours: 160, Rate: 150},
	{Category: "Solution Architect", Hours: 240, Rate: 165},
	{Category: "Senior Engineer", Hours: 480, Rate: 140},
	{Category: "QA Engineer", Hours: 240, Rate: 110},
	{Category: "Technical Writer", Hours: 80, Rate: 95},
}

type CostModel struct {
	logger *slog.Logger
}

func NewCostModel(logger *slog.Logger) *CostModel {
	if logger == nil {
		logger = slog.Default()
	}
	return &CostModel{logger: logger}
}

// DevelopCostProposal prices the base labor mix scaled by complexity.
// A non-positive complexity uses 1.1.
func (m *CostModel) DevelopCostProposal(a Analysis, complexity float64) CostProposal {
	if complexity <= 0 {
		complexity = defaultComplexity
	}
	cp := CostProposal{ComplexityScore: complexity, Labor: make([]LaborLine, 0, len(baseLabor))}
	for _, l := range baseLabor {
		l.Cost = roundCents(l.Hours * l.Rate * complexity)
		cp.Subtotal += l.Cost
		cp.Labor = append(cp.Labor, l)
	}
	cp.Subtotal = roundCents(cp.Subtotal)
	cp.Contingency = roundCents(cp.Subtotal * contingencyRate)
	cp.Total = roundCents(cp.Subtotal + cp.Contingency)

	name := a.ProjectTitle
	if name == "" {
		name = a.ProposalTitle
	}
	if name == "" {
		name = "the proposed effort"
	}
	cp.Summary = fmt.Sprintf("Estimated total cost for %s is $%.2f (labor $%.2f plus %.0f%% contingency), at complexity %.2f.",
		name, cp.Total, cp.Subtotal, contingencyRate*100, complexity)
	m.logger.Debug("cost proposal developed", "rfp_id", a.RFPID, "total", cp.Total)
	return cp
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
