// Package app wires configuration into the long-lived agent components
// shared by the command line tools.
package app

import (
	"io"
	"log/slog"

	"github.com/joseph-ayodele/rfp-agent/internal/agent"
	"github.com/joseph-ayodele/rfp-agent/internal/cache"
	"github.com/joseph-ayodele/rfp-agent/internal/common"
	"github.com/joseph-ayodele/rfp-agent/internal/knowledge"
	"github.com/joseph-ayodele/rfp-agent/internal/ocr"
	"github.com/joseph-ayodele/rfp-agent/internal/output"
	"github.com/joseph-ayodele/rfp-agent/internal/textextract"
)

type App struct {
	Config    *common.Config
	Processor *textextract.Processor
	Knowledge *knowledge.Store
	Output    *output.Generator
	Agent     *agent.Agent

	cache  cache.Cache
	logger *slog.Logger
}

// OCRConfig maps the ocr config section onto the tool backend settings.
func OCRConfig(c common.OCRConfig) ocr.Config {
	return ocr.Config{
		Pdftotext:     c.Pdftotext,
		Pdftoppm:      c.Pdftoppm,
		Tesseract:     c.Tesseract,
		TesseractLang: c.TesseractLang,
		TessdataDir:   c.TessdataDir,
		DPI:           c.DPI,
		ToolTimeout:   c.ToolTimeout,
		PDFTextEngine: c.PDFTextEngine,
		OCREngine:     c.OCREngine,
	}
}

// NewProcessor builds the ingestion subsystem alone, for tools that only extract text.
func NewProcessor(cfg *common.Config, logger *slog.Logger) (*textextract.Processor, cache.Cache, error) {
	backend, err := ocr.NewBackend(OCRConfig(cfg.OCR), logger)
	if err != nil {
		return nil, nil, common.NewAppError("CONFIG_ERROR", "build ocr backend", err)
	}
	c, err := cache.New(cfg.Cache, logger)
	if err != nil {
		return nil, nil, err
	}
	// no live fallback run outlives a job deadline
	p := textextract.NewProcessor(textextract.Config{
		MinDirectChars: cfg.OCR.MinDirectChars,
		ScratchDir:     cfg.OCR.ScratchDir,
		MaxPages:       cfg.OCR.MaxPages,
		StaleScopeAge:  cfg.Agent.ProcessTimeout,
	}, backend, logger, textextract.WithCache(c))
	return p, c, nil
}

func New(cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	proc, c, err := NewProcessor(cfg, logger)
	if err != nil {
		return nil, err
	}
	kb, err := knowledge.NewStore(cfg.Agent.KnowledgeDir, logger)
	if err != nil {
		closeCache(c, logger)
		return nil, err
	}
	out := output.NewGenerator(cfg.Agent.OutputDir, logger)

	return &App{
		Config:    cfg,
		Processor: proc,
		Knowledge: kb,
		Output:    out,
		Agent:     agent.New(proc, kb, out, cfg.Agent.ReviewStage, logger),
		cache:     c,
		logger:    logger,
	}, nil
}

func (a *App) Close() {
	closeCache(a.cache, a.logger)
}

func closeCache(c cache.Cache, logger *slog.Logger) {
	if cl, ok := c.(io.Closer); ok {
		if err := cl.Close(); err != nil {
			logger.Warn("failed to close cache", "error", err)
		}
	}
}
