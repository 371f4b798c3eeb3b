package knowledge

type RFPInsight struct {
	ID             string   `json:"id"`
	Timestamp      string   `json:"timestamp"`
	RFPID          string   `json:"rfp_id"`
	InsightType    string   `json:"insight_type"`
	Content        string   `json:"content"`
	Keywords       []string `json:"keywords"`
	Outcome        string   `json:"outcome,omitempty"`
	ClientIndustry string   `json:"client_industry,omitempty"`
	ProjectDomain  string   `json:"project_domain,omitempty"`
	RelatedSection string   `json:"related_section,omitempty"`
}

type ProposalFeedback struct {
	ID              string `json:"id"`
	Timestamp       string `json:"timestamp"`
	RFPID           string `json:"rfp_id"`
	ProposalVersion string `json:"proposal_version"`
	FeedbackSource  string `json:"feedback_source"`
	FeedbackText    string `json:"feedback_text"`
	Sentiment       string `json:"sentiment,omitempty"`
	RelatedSection  string `json:"related_section,omitempty"`
}

type BestPractice struct {
	ID            string   `json:"id"`
	Timestamp     string   `json:"timestamp"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Category      string   `json:"category,omitempty"`
	Keywords      []string `json:"keywords"`
	Applicability string   `json:"applicability,omitempty"`
}

type LessonLearned struct {
	ID             string   `json:"id"`
	Timestamp      string   `json:"timestamp"`
	RFPID          string   `json:"rfp_id"`
	LessonTitle    string   `json:"lesson_title"`
	Description    string   `json:"description"`
	Impact         string   `json:"impact,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
	Keywords       []string `json:"keywords"`
	RelatedSection string   `json:"related_section,omitempty"`
}

// SearchResult is the category-neutral view returned by Search and FindRelevant.
type SearchResult struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Keywords []string `json:"keywords"`
	Date     string   `json:"date"`
}

// CategoryInfo is one entry of the categories listing.
type CategoryInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
