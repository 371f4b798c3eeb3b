// Package knowledge is the flat-file, append-only store of past RFP insights,
// proposal feedback, best practices and lessons learned.
package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/rfp-agent/constants"
	"github.com/joseph-ayodele/rfp-agent/internal/common"
)

// Store keeps one JSON array file per category under dir. Writes are
// serialized and land through a temp file + rename.
type Store struct {
	dir     string
	mu      sync.Mutex
	schemas map[constants.Category]*jsonschema.Schema
	logger  *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create knowledge dir: %w", err)
	}
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	s := &Store{
		dir:     dir,
		schemas: schemas,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, cat := range constants.Categories() {
		path := s.path(cat)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := writeAtomic(path, []byte("[]")); err != nil {
				return nil, fmt.Errorf("init %s: %w", cat, err)
			}
		}
	}
	return s, nil
}

func (s *Store) path(cat constants.Category) string {
	return filepath.Join(s.dir, cat.FileName())
}

func (s *Store) StoreRFPInsight(in RFPInsight) (RFPInsight, error) {
	in.ID, in.Timestamp = s.stamp()
	if in.Keywords == nil {
		in.Keywords = []string{}
	}
	return in, s.appendRecord(constants.RFPInsights, in)
}

func (s *Store) StoreProposalFeedback(in ProposalFeedback) (ProposalFeedback, error) {
	in.ID, in.Timestamp = s.stamp()
	return in, s.appendRecord(constants.ProposalFeedback, in)
}

func (s *Store) StoreBestPractice(in BestPractice) (BestPractice, error) {
	in.ID, in.Timestamp = s.stamp()
	if in.Keywords == nil {
		in.Keywords = []string{}
	}
	return in, s.appendRecord(constants.BestPractices, in)
}

func (s *Store) StoreLessonLearned(in LessonLearned) (LessonLearned, error) {
	in.ID, in.Timestamp = s.stamp()
	if in.Keywords == nil {
		in.Keywords = []string{}
	}
	return in, s.appendRecord(constants.LessonsLearned, in)
}

func (s *Store) stamp() (string, string) {
	return s.newID(), s.now().UTC().Format(time.RFC3339)
}

func (s *Store) appendRecord(cat constants.Category, rec any) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", cat, err)
	}
	if err := validate(s.schemas[cat], data); err != nil {
		return common.NewAppError("INVALID_RECORD", string(cat), fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRaw(cat)
	if err != nil {
		return err
	}
	records = append(records, data)
	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", cat, err)
	}
	if err := writeAtomic(s.path(cat), out); err != nil {
		return fmt.Errorf("write %s: %w", cat, err)
	}
	s.logger.Debug("knowledge record stored", "category", cat, "count", len(records))
	return nil
}

// readRaw treats a missing or corrupt file as empty; corruption is logged.
func (s *Store) readRaw(cat constants.Category) ([]json.RawMessage, error) {
	b, err := os.ReadFile(s.path(cat))
	if errors.Is(err, os.ErrNotExist) {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", cat, err)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(b, &records); err != nil {
		s.logger.Warn("knowledge file is not a JSON array; treating as empty", "category", cat, "error", err)
		return []json.RawMessage{}, nil
	}
	return records, nil
}

func read[T any](s *Store, cat constants.Category) ([]T, error) {
	s.mu.Lock()
	raw, err := s.readRaw(cat)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			s.logger.Warn("skipping malformed knowledge record", "category", cat, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Categories lists "all" followed by every concrete collection.
func (s *Store) Categories() []CategoryInfo {
	out := []CategoryInfo{{ID: string(constants.AllCategories), Name: constants.AllCategories.DisplayName()}}
	for _, c := range constants.Categories() {
		out = append(out, CategoryInfo{ID: string(c), Name: c.DisplayName()})
	}
	return out
}

// Search returns records whose main text contains query (case-insensitive);
// an empty query matches everything.
func (s *Store) Search(query string, category constants.Category) ([]SearchResult, error) {
	all, err := s.results(category)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all, nil
	}
	out := make([]SearchResult, 0)
	for _, r := range all {
		if strings.Contains(strings.ToLower(r.Content), q) || strings.Contains(strings.ToLower(r.Title), q) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) results(category constants.Category) ([]SearchResult, error) {
	cats := constants.Categories()
	if category != constants.AllCategories && category != "" {
		cats = []constants.Category{category}
	}
	out := make([]SearchResult, 0)
	for _, cat := range cats {
		rs, err := s.categoryResults(cat)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return out, nil
}

func (s *Store) categoryResults(cat constants.Category) ([]SearchResult, error) {
	var out []SearchResult
	switch cat {
	case constants.RFPInsights:
		recs, err := read[RFPInsight](s, cat)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			out = append(out, SearchResult{ID: r.ID, Title: r.InsightType, Content: r.Content, Category: string(cat), Keywords: r.Keywords, Date: r.Timestamp})
		}
	case constants.ProposalFeedback:
		recs, err := read[ProposalFeedback](s, cat)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			out = append(out, SearchResult{ID: r.ID, Title: r.FeedbackSource, Content: r.FeedbackText, Category: string(cat), Keywords: []string{}, Date: r.Timestamp})
		}
	case constants.BestPractices:
		recs, err := read[BestPractice](s, cat)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			out = append(out, SearchResult{ID: r.ID, Title: r.Title, Content: r.Description, Category: string(cat), Keywords: r.Keywords, Date: r.Timestamp})
		}
	case constants.LessonsLearned:
		recs, err := read[LessonLearned](s, cat)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			out = append(out, SearchResult{ID: r.ID, Title: r.LessonTitle, Content: r.Description, Category: string(cat), Keywords: r.Keywords, Date: r.Timestamp})
		}
	default:
		return nil, fmt.Errorf("%w: unknown category %q", common.ErrInvalidInput, cat)
	}
	return out, nil
}

type scored struct {
	SearchResult
	score int
}

// FindRelevant ranks insights and best practices by industry, domain and
// keyword overlap and returns at most limit with a positive score.
func (s *Store) FindRelevant(industry, domain string, keywords []string, limit int) ([]SearchResult, error) {
	insights, err := read[RFPInsight](s, constants.RFPInsights)
	if err != nil {
		return nil, err
	}
	practices, err := read[BestPractice](s, constants.BestPractices)
	if err != nil {
		return nil, err
	}

	kws := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kws = append(kws, k)
		}
	}

	var ranked []scored
	for _, r := range insights {
		score := overlap(kws, r.Keywords, r.Content)
		if industry != "" && strings.EqualFold(r.ClientIndustry, industry) {
			score += 2
		}
		if domain != "" && strings.EqualFold(r.ProjectDomain, domain) {
			score += 2
		}
		if score > 0 {
			ranked = append(ranked, scored{SearchResult{ID: r.ID, Title: r.InsightType, Content: r.Content, Category: string(constants.RFPInsights), Keywords: r.Keywords, Date: r.Timestamp}, score})
		}
	}
	for _, r := range practices {
		score := overlap(kws, r.Keywords, r.Description)
		if industry != "" && strings.Contains(strings.ToLower(r.Applicability), strings.ToLower(industry)) {
			score++
		}
		if strings.EqualFold(strings.TrimSpace(r.Applicability), "all proposals") {
			score++
		}
		if score > 0 {
			ranked = append(ranked, scored{SearchResult{ID: r.ID, Title: r.Title, Content: r.Description, Category: string(constants.BestPractices), Keywords: r.Keywords, Date: r.Timestamp}, score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].Date > ranked[j].Date
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]SearchResult, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.SearchResult)
	}
	return out, nil
}

func overlap(want, have []string, text string) int {
	lowerText := strings.ToLower(text)
	n := 0
	for _, w := range want {
		matched := strings.Contains(lowerText, w)
		for _, h := range have {
			if strings.EqualFold(h, w) {
				matched = true
				break
			}
		}
		if matched {
			n++
		}
	}
	return n
}
