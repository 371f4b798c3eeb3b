package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/joseph-ayodele/rfp-agent/internal/common"
	"github.com/joseph-ayodele/rfp-agent/internal/metrics"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	TessdataDir   string
	DPI           int // rasterization DPI for scanned PDFs, default 300

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default

	// ToolTimeout bounds every external tool call; default 2m.
	ToolTimeout time.Duration

	PDFTextEngine string // "pdftotext" (default) | "native"
	OCREngine     string // "tesseract" (default) | "gosseract"
}

func (c Config) withDefaults() Config {
	if c.Pdftotext == "" {
		c.Pdftotext = "pdftotext"
	}
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.TesseractLang == "" {
		c.TesseractLang = "eng"
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if c.ToolTimeout <= 0 {
		c.ToolTimeout = 2 * time.Minute
	}
	return c
}

// PDFTextExtractor pulls the embedded text layer out of a PDF.
type PDFTextExtractor interface {
	PDFText(ctx context.Context, path string) (string, error)
}

// Rasterizer renders each PDF page to <outPrefix>-<N>.png.
// Page numbers are zero-padded so a lexicographic sort equals page order.
type Rasterizer interface {
	RasterizePDF(ctx context.Context, pdfPath, outPrefix string) error
}

// Recognizer turns one bitmap image into text.
type Recognizer interface {
	OCRImage(ctx context.Context, imagePath string) (string, error)
}

// Backend is everything the ingestion subsystem needs from external tools.
type Backend interface {
	PDFTextExtractor
	Rasterizer
	Recognizer
}

type composite struct {
	PDFTextExtractor
	Rasterizer
	Recognizer
}

// Compose assembles a Backend from independently chosen engines.
func Compose(t PDFTextExtractor, r Rasterizer, o Recognizer) Backend {
	return composite{PDFTextExtractor: t, Rasterizer: r, Recognizer: o}
}

// NewBackend wires the engines selected in cfg around the poppler/tesseract tools.
func NewBackend(cfg Config, logger *slog.Logger) (Backend, error) {
	tools := NewTools(cfg, logger)
	cfg = tools.cfg

	var text PDFTextExtractor = tools
	switch cfg.PDFTextEngine {
	case "", "pdftotext":
	case "native":
		text = NewNativePDF(logger)
	default:
		return nil, fmt.Errorf("unknown pdf text engine: %q", cfg.PDFTextEngine)
	}

	var rec Recognizer = tools
	switch cfg.OCREngine {
	case "", "tesseract":
	case "gosseract":
		g, err := NewGosseract(cfg, logger)
		if err != nil {
			return nil, err
		}
		rec = g
	default:
		return nil, fmt.Errorf("unknown ocr engine: %q", cfg.OCREngine)
	}

	return Compose(text, tools, rec), nil
}

// Tools drives the poppler-utils and tesseract command line programs.
type Tools struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTools(cfg Config, logger *slog.Logger) *Tools {
	return NewToolsWithRunner(cfg, execRunner{}, logger)
}

// NewToolsWithRunner is NewTools with an injected command runner.
func NewToolsWithRunner(cfg Config, r Runner, logger *slog.Logger) *Tools {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{cfg: cfg.withDefaults(), runner: r, logger: logger}
}

var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)

func (t *Tools) PDFText(ctx context.Context, path string) (string, error) {
	// pdftotext -enc UTF-8 -eol unix <path> -
	out, err := t.run(ctx, "pdftotext", t.cfg.Pdftotext, "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (t *Tools) RasterizePDF(ctx context.Context, pdfPath, outPrefix string) error {
	// pdftoppm -r 300 -png <in.pdf> <scope/page>
	_, err := t.run(ctx, "pdftoppm", t.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", t.cfg.DPI), "-png", pdfPath, outPrefix)
	return err
}

func (t *Tools) OCRImage(ctx context.Context, imagePath string) (string, error) {
	args := []string{imagePath, "stdout", "-l", t.cfg.TesseractLang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", fmt.Sprintf("%d", t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, err := t.run(ctx, "tesseract", t.cfg.Tesseract, args...)
	if err != nil {
		return "", err
	}
	// minor cleanup of obvious line noise
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}

// run executes one tool under the configured timeout and maps failures
// onto ErrToolNotAvailable / ErrToolInvocation.
func (t *Tools) run(ctx context.Context, tool, bin string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.ToolTimeout)
	defer cancel()

	start := time.Now()
	out, errb, err := t.runner.Run(ctx, bin, args...)
	err = classify(ctx, tool, errb, err)
	metrics.ToolInvocationsTotal.WithLabelValues(tool, metrics.Outcome(err)).Inc()

	attrs := []any{
		"tool", tool,
		"args", strings.Join(args, " "),
		"duration_ms", time.Since(start).Milliseconds(),
		"stdout_bytes", len(out),
	}
	if err != nil {
		t.logger.Warn("tool invocation failed", append(attrs, "error", err)...)
	} else {
		t.logger.Debug("tool invocation ok", attrs...)
	}
	return out, err
}

func classify(ctx context.Context, tool string, stderr []byte, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Errorf("%s: %w: %v", tool, common.ErrToolNotAvailable, err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: timed out", tool, common.ErrToolInvocation)
	case len(stderr) > 0:
		return fmt.Errorf("%s: %w: %v: %s", tool, common.ErrToolInvocation, err, truncate(string(stderr), 512))
	default:
		return fmt.Errorf("%s: %w: %v", tool, common.ErrToolInvocation, err)
	}
}
