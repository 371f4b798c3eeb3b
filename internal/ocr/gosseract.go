//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/otiai10/gosseract/v2"

	"github.com/joseph-ayodele/rfp-agent/internal/common"
	"github.com/joseph-ayodele/rfp-agent/internal/metrics"
)

// Gosseract runs OCR in-process through libtesseract.
type Gosseract struct {
	lang   string
	logger *slog.Logger
}

func NewGosseract(cfg Config, logger *slog.Logger) (*Gosseract, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Gosseract{lang: cfg.TesseractLang, logger: logger}, nil
}

func (g *Gosseract) OCRImage(ctx context.Context, imagePath string) (text string, err error) {
	defer func() {
		metrics.ToolInvocationsTotal.WithLabelValues("gosseract", metrics.Outcome(err)).Inc()
	}()
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("gosseract: %w: %v", common.ErrToolInvocation, err)
	}

	client := gosseract.NewClient()
	defer func() {
		if cerr := client.Close(); cerr != nil {
			g.logger.Warn("failed to close gosseract client", "error", cerr)
		}
	}()
	if err := client.SetLanguage(g.lang); err != nil {
		return "", fmt.Errorf("gosseract: %w: %v", common.ErrToolInvocation, err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("gosseract: %w: %v", common.ErrToolInvocation, err)
	}
	text, err = client.Text()
	if err != nil {
		return "", fmt.Errorf("gosseract: %w: %v", common.ErrToolInvocation, err)
	}
	return text, nil
}
