package textextract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/rfp-agent/constants"
	"github.com/joseph-ayodele/rfp-agent/internal/common"
	"github.com/joseph-ayodele/rfp-agent/internal/metrics"
)

func (p *Processor) extractPDF(ctx context.Context, path string) Result {
	var warnings []string

	direct, pages := "", 0
	raw, err := p.backend.PDFText(ctx, path)
	if err != nil {
		p.logger.Warn("direct pdf text extraction failed, will attempt ocr", "path", path, "error", err)
		warnings = append(warnings, err.Error())
	} else {
		direct = Normalize(raw)
		// pdftotext terminates every page with a form feed
		pages = max(strings.Count(raw, "\f"), 1)
	}

	n := utf8.RuneCountInString(direct)
	if direct != "" && n >= p.cfg.MinDirectChars {
		res := ok(constants.PDF, constants.MethodPDFText, direct)
		res.Pages = pages
		res.Warnings = warnings
		return res
	}

	p.logger.Info("direct pdf text insufficient, attempting ocr",
		"path", path, "chars", n, "threshold", p.cfg.MinDirectChars)
	text, ocrPages, warns, err := p.ocrFallback(ctx, path)
	warnings = append(warnings, warns...)
	metrics.OCRFallbackTotal.WithLabelValues(fallbackOutcome(text, err)).Inc()

	if err == nil && text != "" {
		res := ok(constants.PDF, constants.MethodPDFOCR, text)
		res.Pages = ocrPages
		res.Warnings = warnings
		return res
	}

	if err != nil {
		p.logger.Warn("ocr fallback aborted", "path", path, "error", err)
		warnings = append(warnings, err.Error())
	}
	if direct != "" {
		res := ok(constants.PDF, constants.MethodPDFText, direct)
		res.Pages = pages
		res.Warnings = warnings
		return res
	}

	var res Result
	if err != nil {
		res = failed(constants.PDF, err)
	} else {
		res = failed(constants.PDF, fmt.Errorf("%w: no text from %s", common.ErrEmptyResult, path))
	}
	res.Warnings = warnings
	return res
}

func fallbackOutcome(text string, err error) string {
	switch {
	case err != nil:
		return "error"
	case text == "":
		return "empty"
	default:
		return "ok"
	}
}

// ocrFallback rasterizes the PDF into a private scratch scope, OCRs each page
// in order and deletes every page image as soon as it has been read.
func (p *Processor) ocrFallback(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	scope, err := p.acquireScope()
	if err != nil {
		return "", 0, nil, fmt.Errorf("%w: scratch scope: %v", common.ErrToolInvocation, err)
	}
	defer p.releaseScope(scope)

	prefix := filepath.Join(scope, "page")
	if err := p.backend.RasterizePDF(ctx, path, prefix); err != nil {
		return "", 0, nil, toolErr(err)
	}

	images, err := pageImages(scope)
	if err != nil {
		return "", 0, nil, fmt.Errorf("%w: list page images: %v", common.ErrToolInvocation, err)
	}
	if len(images) == 0 {
		return "", 0, []string{"rasterizer produced no page images"}, nil
	}
	if p.cfg.MaxPages > 0 && len(images) > p.cfg.MaxPages {
		warnings = append(warnings, fmt.Sprintf("ocr limited to first %d of %d pages", p.cfg.MaxPages, len(images)))
		images = images[:p.cfg.MaxPages]
	}

	texts := make([]string, 0, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return "", 0, warnings, fmt.Errorf("%w: %v", common.ErrToolInvocation, err)
		}
		p.logger.Debug("ocr page", "path", path, "page", i+1, "pages", len(images))
		txt, err := p.backend.OCRImage(ctx, img)
		if err != nil {
			p.logger.Warn("page ocr failed", "path", path, "page", i+1, "error", err)
			warnings = append(warnings, fmt.Sprintf("page %d: %v", i+1, err))
			txt = ""
		}
		texts = append(texts, Normalize(txt))
		if err := os.Remove(img); err != nil {
			p.logger.Warn("failed to remove page image", "image", img, "error", err)
		}
	}

	return Normalize(strings.Join(texts, constants.PageBreak)), len(images), warnings, nil
}

// pageImages lists the rasterized pages in scope. The directory is read
// rather than globbed since the scratch path may contain glob metacharacters.
func pageImages(scope string) ([]string, error) {
	entries, err := os.ReadDir(scope)
	if err != nil {
		return nil, err
	}
	var images []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(name, "page-") && strings.HasSuffix(name, ".png") {
			images = append(images, filepath.Join(scope, name))
		}
	}
	// pdftoppm zero-pads page numbers, so lexical order is page order
	sort.Strings(images)
	return images, nil
}

// acquireScope creates <scratch>/<uuid>. A concurrent release may remove an
// empty scratch base between MkdirAll steps, so creation is retried.
func (p *Processor) acquireScope() (string, error) {
	scope := filepath.Join(p.cfg.ScratchDir, uuid.NewString())
	var err error
	for range 3 {
		if err = os.MkdirAll(scope, 0o700); err == nil {
			return scope, nil
		}
	}
	return "", err
}

func (p *Processor) releaseScope(scope string) {
	if err := os.RemoveAll(scope); err != nil {
		p.logger.Warn("failed to remove scratch scope", "dir", scope, "error", err)
	}
	// best effort: fails harmlessly while other runs still own a scope
	_ = os.Remove(p.cfg.ScratchDir)
}

// sweepStaleScopes removes scopes left behind by a run that never reached
// releaseScope, e.g. a killed process. Only uuid-named directories older than
// StaleScopeAge are touched; a live scope's mtime moves as each page image is
// removed.
func (p *Processor) sweepStaleScopes(now time.Time) {
	entries, err := os.ReadDir(p.cfg.ScratchDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() || uuid.Validate(e.Name()) != nil {
			continue
		}
		info, err := e.Info()
		if err != nil || now.Sub(info.ModTime()) < p.cfg.StaleScopeAge {
			continue
		}
		dir := filepath.Join(p.cfg.ScratchDir, e.Name())
		if err := os.RemoveAll(dir); err != nil {
			p.logger.Warn("failed to remove stale scratch scope", "dir", dir, "error", err)
			continue
		}
		p.logger.Info("removed stale scratch scope", "dir", dir, "age", now.Sub(info.ModTime()))
	}
}
