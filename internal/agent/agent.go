// Package agent sequences the nine proposal stages for one RFP.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/joseph-ayodele/rfp-agent/internal/common"
	"github.com/joseph-ayodele/rfp-agent/internal/knowledge"
	"github.com/joseph-ayodele/rfp-agent/internal/metrics"
	"github.com/joseph-ayodele/rfp-agent/internal/output"
	"github.com/joseph-ayodele/rfp-agent/internal/proposal"
	"github.com/joseph-ayodele/rfp-agent/internal/textextract"
)

const (
	DefaultReviewStage = "Gold Team Final Review"
	kbOutcome          = "Processed"
	proposalVersion    = "v1.0"
	complianceInsights = 3
)

type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, path string) textextract.Result
}

type KnowledgeStore interface {
	proposal.KnowledgeSource
	StoreRFPInsight(knowledge.RFPInsight) (knowledge.RFPInsight, error)
	StoreProposalFeedback(knowledge.ProposalFeedback) (knowledge.ProposalFeedback, error)
	StoreBestPractice(knowledge.BestPractice) (knowledge.BestPractice, error)
	StoreLessonLearned(knowledge.LessonLearned) (knowledge.LessonLearned, error)
}

type OutputWriter interface {
	GenerateProposalDocument(doc output.Document) (map[string]string, error)
}

type Agent struct {
	processor   DocumentProcessor
	kb          KnowledgeStore
	out         OutputWriter
	reviewStage string

	analyzer   *proposal.Analyzer
	compliance *proposal.Compliance
	content    *proposal.ContentGenerator
	visuals    *proposal.VisualIntegrator
	cost       *proposal.CostModel
	reviewer   *proposal.Reviewer

	logger *slog.Logger
}

func New(processor DocumentProcessor, kb KnowledgeStore, out OutputWriter, reviewStage string, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	if reviewStage == "" {
		reviewStage = DefaultReviewStage
	}
	var src proposal.KnowledgeSource
	if kb != nil {
		src = kb
	}
	return &Agent{
		processor:   processor,
		kb:          kb,
		out:         out,
		reviewStage: reviewStage,
		analyzer:    proposal.NewAnalyzer(logger),
		compliance:  proposal.NewCompliance(logger),
		content:     proposal.NewContentGenerator(src, logger),
		visuals:     proposal.NewVisualIntegrator(logger),
		cost:        proposal.NewCostModel(logger),
		reviewer:    proposal.NewReviewer(logger),
		logger:      logger,
	}
}

// run holds whatever the stages produced so far.
type run struct {
	rfpID, title string

	analysis    *proposal.Analysis
	matrix      []proposal.ComplianceItem
	strategy    proposal.Strategy
	content     proposal.Content
	withVisuals proposal.Content
	cost        proposal.CostProposal
	review      proposal.Review
	paths       map[string]string
}

// ExtractText is stage 1 on its own. A Failed result or empty text is an error.
func (a *Agent) ExtractText(ctx context.Context, path string) (textextract.Result, error) {
	res := a.processor.ProcessDocument(ctx, path)
	if !res.OK() {
		return res, fmt.Errorf("process %s: %w", path, res.Err)
	}
	if res.Text == "" {
		return res, fmt.Errorf("process %s: %w: document has no text", path, common.ErrEmptyResult)
	}
	return res, nil
}

// Analyze runs stages 1 and 2 only.
func (a *Agent) Analyze(ctx context.Context, path, rfpID string) (proposal.Analysis, error) {
	ctx = common.WithRFPID(ctx, rfpID)
	res, err := a.ExtractText(ctx, path)
	if err != nil {
		a.loggerFor(ctx).Warn("rfp analysis failed", "path", path, "reason", res.Reason(), "error", err)
		return proposal.Analysis{}, err
	}
	analysis := a.analyzer.ExtractKeyInformation(res.Text)
	analysis.RFPID = rfpID
	a.loggerFor(ctx).Info("rfp analyzed", "path", path, "method", res.Method)
	return analysis, nil
}

// loggerFor tags the agent logger with the rfp and request ids carried by ctx.
func (a *Agent) loggerFor(ctx context.Context) *slog.Logger {
	logger := a.logger
	if id := common.RFPIDFromContext(ctx); id != "" {
		logger = logger.With("rfp_id", id)
	}
	if id := common.RequestIDFromContext(ctx); id != "" {
		logger = logger.With("request_id", id)
	}
	return logger
}

// ProcessRFP runs the full pipeline and returns the generated file paths by kind.
//
// A stage 1 failure aborts immediately, without touching the knowledge base.
// A failure in stages 2-8 is logged and returned, but stage 9 still records
// whatever was produced before it.
func (a *Agent) ProcessRFP(ctx context.Context, path, rfpID, title string) (map[string]string, error) {
	ctx = common.WithRFPID(ctx, rfpID)
	logger := a.loggerFor(ctx)
	logger.Info("rfp processing started", "path", path, "title", title)

	logger.Info("stage 1: input processing")
	res, err := a.ExtractText(ctx, path)
	if err != nil {
		logger.Error("failed to process input document; aborting", "path", path, "reason", res.Reason(), "error", err)
		metrics.PipelineRunsTotal.WithLabelValues("aborted").Inc()
		return nil, err
	}
	logger.Info("document processed", "method", res.Method, "chars", utf8.RuneCountInString(res.Text))

	r := &run{rfpID: rfpID, title: title}
	stageErr := a.runStages(ctx, logger, r, res.Text)
	if stageErr != nil {
		logger.Error("error during rfp pipeline (stages 2-8)", "error", stageErr)
	}

	logger.Info("stage 9: knowledge base update")
	a.updateKnowledge(logger, r)

	outcome := "ok"
	if stageErr != nil {
		outcome = "partial"
	}
	metrics.PipelineRunsTotal.WithLabelValues(outcome).Inc()
	logger.Info("rfp processing finished", "outputs", len(r.paths))

	if stageErr != nil {
		return nil, stageErr
	}
	return r.paths, nil
}

func (a *Agent) runStages(ctx context.Context, logger *slog.Logger, r *run, text string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: panic: %v", common.ErrInternal, p)
		}
	}()

	logger.Info("stage 2: rfp analysis")
	analysis := a.analyzer.ExtractKeyInformation(text)
	analysis.RFPID = r.rfpID
	analysis.ProposalTitle = r.title
	r.analysis = &analysis

	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Info("stage 3: compliance and strategy")
	r.matrix = a.compliance.GenerateComplianceMatrix(analysis)
	r.strategy = a.compliance.DevelopInitialStrategy(analysis)
	logger.Info("compliance matrix generated", "items", len(r.matrix), "win_themes", len(r.strategy.WinThemes))

	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Info("stage 4: content generation")
	content, err := a.content.GenerateProposalContent(analysis, r.matrix, r.strategy)
	if err != nil {
		return fmt.Errorf("content generation: %w", err)
	}
	r.content = content

	logger.Info("stage 5: visual integration")
	r.withVisuals = a.visuals.IdentifyAndIntegrateVisuals(content)

	logger.Info("stage 6: costing")
	r.cost = a.cost.DevelopCostProposal(analysis, analysis.ComplexityScore)

	logger.Info("stage 7: review", "stage", a.reviewStage)
	r.review = a.reviewer.PerformReview(r.withVisuals, analysis, r.matrix, a.reviewStage)

	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Info("stage 8: output generation")
	paths, err := a.out.GenerateProposalDocument(output.Document{
		Title:      r.title,
		Content:    r.withVisuals,
		Visuals:    r.withVisuals.Visuals,
		Cost:       r.cost,
		Review:     r.review,
		Compliance: r.matrix,
	})
	if err != nil {
		return fmt.Errorf("output generation: %w", err)
	}
	r.paths = paths
	logger.Info("proposal documents generated", "paths", paths)
	return nil
}

func (a *Agent) updateKnowledge(logger *slog.Logger, r *run) {
	if a.kb == nil {
		return
	}
	var errs []error
	keep := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if r.analysis != nil {
		an := *r.analysis
		body, err := json.MarshalIndent(an, "", "  ")
		keep(err)
		if err == nil {
			_, err = a.kb.StoreRFPInsight(knowledge.RFPInsight{
				RFPID:          r.rfpID,
				InsightType:    "Initial RFP Analysis Summary",
				Content:        string(body),
				Keywords:       append(append([]string{}, an.AgencyPriorities...), "analysis"),
				Outcome:        kbOutcome,
				ClientIndustry: an.ClientIndustry,
				ProjectDomain:  an.ProjectDomain,
			})
			keep(err)
		}
	}

	industry, domain := "", ""
	if r.analysis != nil {
		industry, domain = r.analysis.ClientIndustry, r.analysis.ProjectDomain
	}
	for i, item := range r.matrix {
		if i == complianceInsights {
			break
		}
		id := item.ID
		if id == "" {
			id = fmt.Sprintf("Item_%d", i+1)
		}
		_, err := a.kb.StoreRFPInsight(knowledge.RFPInsight{
			RFPID:          r.rfpID,
			InsightType:    "Compliance Item: " + id,
			Content:        item.RequirementText,
			Keywords:       []string{"compliance", id},
			Outcome:        kbOutcome,
			ClientIndustry: industry,
			ProjectDomain:  domain,
			RelatedSection: "Compliance Matrix " + id,
		})
		keep(err)
	}

	for _, fb := range r.review.DetailedFeedback {
		_, err := a.kb.StoreProposalFeedback(knowledge.ProposalFeedback{
			RFPID:           r.rfpID,
			ProposalVersion: proposalVersion,
			FeedbackSource:  r.review.ReviewStage,
			FeedbackText:    fb.Comment,
			Sentiment:       fb.Severity,
			RelatedSection:  fb.Section,
		})
		keep(err)
	}

	if len(r.strategy.WinThemes) > 0 {
		themes, _ := json.Marshal(r.strategy.WinThemes)
		applies := "General"
		if industry != "" {
			applies = industry
		}
		_, err := a.kb.StoreBestPractice(knowledge.BestPractice{
			Title:         "Strategy Highlights for " + r.title,
			Description:   string(themes),
			Category:      "Proposal Strategy",
			Keywords:      []string{"strategy", r.rfpID},
			Applicability: applies + " RFPs",
		})
		keep(err)
	}

	if summary, ok := r.content.Get(proposal.SectionExecutiveSummary); ok && summary != "" && r.cost.Summary != "" {
		_, err := a.kb.StoreLessonLearned(knowledge.LessonLearned{
			RFPID:          r.rfpID,
			LessonTitle:    "Post-Generation Sanity Check",
			Description:    "Ensured all key components (summary, costing) were generated.",
			Impact:         "Positive - Process Verification",
			Recommendation: "Continue automated checks for completeness.",
			Keywords:       []string{"process", "validation"},
			RelatedSection: "Overall Process",
		})
		keep(err)
	}

	if err := errors.Join(errs...); err != nil {
		logger.Error("error during knowledge base update", "error", err)
		return
	}
	logger.Info("knowledge base update completed")
}
