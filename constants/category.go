package constants

import (
	"strings"
)

// Category names a knowledge-store collection.
type Category string

const (
	AllCategories    Category = "all"
	RFPInsights      Category = "rfp_insights"
	ProposalFeedback Category = "proposal_feedback"
	BestPractices    Category = "best_practices"
	LessonsLearned   Category = "lessons_learned"
)

var allCategories = []Category{
	RFPInsights,
	ProposalFeedback,
	BestPractices,
	LessonsLearned,
}

var categoryNames = map[Category]string{
	AllCategories:    "All Items",
	RFPInsights:      "RFP Insights",
	ProposalFeedback: "Proposal Feedback",
	BestPractices:    "Best Practices",
	LessonsLearned:   "Lessons Learned",
}

// Categories returns the concrete collections in display order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// DisplayName returns the human label of c.
func (c Category) DisplayName() string {
	return categoryNames[c]
}

// FileName returns the flat-file name backing c.
func (c Category) FileName() string {
	return string(c) + ".json"
}

func Canonicalize(input string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return AllCategories, true
	}

	// synonyms map
	synonyms := map[string]Category{
		"insights":  RFPInsights,
		"insight":   RFPInsights,
		"feedback":  ProposalFeedback,
		"practices": BestPractices,
		"lessons":   LessonsLearned,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	if Category(normalized) == AllCategories {
		return AllCategories, true
	}
	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}

	return AllCategories, false
}
