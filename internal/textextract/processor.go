// Package textextract turns an input document into normalized plain text.
//
// The Processor routes by extension, reads text and word documents directly,
// and for PDFs tries the embedded text layer before falling back to page
// rasterization plus OCR. Failures never escape as panics or bare errors:
// every call returns a Result that is either Ok(text) or Failed(reason).
package textextract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/rfp-agent/constants"
	"github.com/joseph-ayodele/rfp-agent/internal/cache"
	"github.com/joseph-ayodele/rfp-agent/internal/common"
	"github.com/joseph-ayodele/rfp-agent/internal/metrics"
	"github.com/joseph-ayodele/rfp-agent/internal/ocr"
)

type Config struct {
	// MinDirectChars is the rune count of normalized PDF text below which OCR
	// fallback runs. <= 0 selects constants.DefaultMinDirectChars.
	MinDirectChars int
	// ScratchDir holds one sub-directory per fallback run.
	ScratchDir string
	// MaxPages caps OCR'd pages per PDF; 0 = no limit.
	MaxPages int
	// StaleScopeAge is how old a leftover scope must be before NewProcessor
	// removes it. <= 0 selects one hour.
	StaleScopeAge time.Duration
}

func (c Config) withDefaults() Config {
	if c.MinDirectChars <= 0 {
		c.MinDirectChars = constants.DefaultMinDirectChars
	}
	if c.ScratchDir == "" {
		c.ScratchDir = filepath.Join(os.TempDir(), "pdf_pages_for_ocr")
	}
	if c.StaleScopeAge <= 0 {
		c.StaleScopeAge = time.Hour
	}
	return c
}

type Processor struct {
	cfg     Config
	backend ocr.Backend
	cache   cache.Cache
	logger  *slog.Logger
}

type Option func(*Processor)

// WithCache enables result caching; a nil cache leaves caching off.
func WithCache(c cache.Cache) Option {
	return func(p *Processor) { p.cache = c }
}

func NewProcessor(cfg Config, backend ocr.Backend, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{cfg: cfg.withDefaults(), backend: backend, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	p.sweepStaleScopes(time.Now())
	return p
}

// Route returns the media kind for path by extension, or "" when unsupported.
func Route(path string) constants.Kind {
	return constants.MapExtToKind(filepath.Ext(path))
}

// ProcessDocument extracts and normalizes the text of the file at path.
func (p *Processor) ProcessDocument(ctx context.Context, path string) (res Result) {
	start := time.Now()
	kind := Route(path)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic during text extraction", "path", path, "kind", kind, "panic", r)
			res = failed(kind, fmt.Errorf("%w: panic: %v", common.ErrParse, r))
		}
		res.Duration = time.Since(start)
		p.observe(path, res)
	}()

	p.logger.Debug("processing document", "path", path, "kind", kind)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return failed(kind, fmt.Errorf("%w: %s", common.ErrFileNotFound, path))
	}
	if kind == "" {
		return failed(kind, fmt.Errorf("%w: %q", common.ErrUnsupportedType, filepath.Ext(path)))
	}

	key := p.cacheKey(path, kind)
	if cached, hit := p.lookup(ctx, key, kind); hit {
		return cached
	}

	switch kind {
	case constants.TEXT:
		res = p.extractText(path)
	case constants.WORD:
		res = p.extractDOCX(path)
	case constants.PDF:
		res = p.extractPDF(ctx, path)
	case constants.IMAGE:
		res = p.extractImage(ctx, path)
	}

	// degraded runs (aborted fallback, failed pages) are retried next time
	if res.OK() && res.Text != "" && len(res.Warnings) == 0 {
		p.store(ctx, key, res)
	}
	return res
}

var utf8BOM = []byte("\xef\xbb\xbf")

func (p *Processor) extractText(path string) Result {
	b, err := os.ReadFile(path)
	if err != nil {
		return failed(constants.TEXT, fmt.Errorf("%w: read %s: %v", common.ErrParse, path, err))
	}
	b = bytes.TrimPrefix(b, utf8BOM)
	if !utf8.Valid(b) {
		return failed(constants.TEXT, fmt.Errorf("%w: %s is not valid UTF-8", common.ErrParse, path))
	}
	return ok(constants.TEXT, constants.MethodPlainText, Normalize(string(b)))
}

func (p *Processor) extractDOCX(path string) Result {
	text, err := readDOCX(path)
	if err != nil {
		return failed(constants.WORD, fmt.Errorf("%w: docx %s: %v", common.ErrParse, path, err))
	}
	return ok(constants.WORD, constants.MethodDOCX, Normalize(text))
}

func (p *Processor) extractImage(ctx context.Context, path string) Result {
	text, err := p.backend.OCRImage(ctx, path)
	if err != nil {
		return failed(constants.IMAGE, toolErr(err))
	}
	res := ok(constants.IMAGE, constants.MethodImageOCR, Normalize(text))
	res.Pages = 1
	return res
}

// toolErr makes sure a backend error carries a taxonomy sentinel.
func toolErr(err error) error {
	if common.ReasonCode(err) == "Internal" {
		return fmt.Errorf("%w: %v", common.ErrToolInvocation, err)
	}
	return err
}

func (p *Processor) cacheKey(path string, kind constants.Kind) string {
	if p.cache == nil {
		return ""
	}
	key, err := cache.Key(path, string(kind))
	if err != nil {
		p.logger.Warn("failed to hash document for cache", "path", path, "error", err)
		return ""
	}
	return key
}

func (p *Processor) lookup(ctx context.Context, key string, kind constants.Kind) (Result, bool) {
	if key == "" {
		return Result{}, false
	}
	e, hit, err := p.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		p.logger.Warn("extraction cache lookup failed", "key", key, "error", err)
		return Result{}, false
	case !hit:
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return Result{}, false
	}
	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	res := ok(kind, e.Method, e.Text)
	res.Pages = e.Pages
	return res, true
}

func (p *Processor) store(ctx context.Context, key string, res Result) {
	if key == "" {
		return
	}
	if err := p.cache.Set(ctx, key, cache.Entry{Text: res.Text, Method: res.Method, Pages: res.Pages}); err != nil {
		p.logger.Warn("extraction cache store failed", "key", key, "error", err)
	}
}

func (p *Processor) observe(path string, res Result) {
	kind := string(res.Kind)
	if kind == "" {
		kind = "unknown"
	}
	metrics.DocumentsTotal.WithLabelValues(kind, metrics.Outcome(res.Err)).Inc()
	metrics.ExtractDuration.WithLabelValues(kind).Observe(res.Duration.Seconds())

	if res.Err != nil {
		level := slog.LevelWarn
		if errors.Is(res.Err, common.ErrParse) || errors.Is(res.Err, common.ErrToolNotAvailable) {
			level = slog.LevelError
		}
		p.logger.Log(context.Background(), level, "text extraction failed",
			"path", path,
			"kind", kind,
			"reason", res.Reason(),
			"duration_ms", res.Duration.Milliseconds(),
			"error", res.Err,
		)
		return
	}
	p.logger.Info("text extracted",
		"path", path,
		"kind", kind,
		"method", res.Method,
		"pages", res.Pages,
		"chars", utf8.RuneCountInString(res.Text),
		"warnings", len(res.Warnings),
		"duration_ms", res.Duration.Milliseconds(),
	)
}
