package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/rfp-agent/internal/common"
	"github.com/joseph-ayodele/rfp-agent/internal/metrics"
)

// NativePDF reads the PDF text layer in-process, without poppler.
type NativePDF struct {
	logger *slog.Logger
}

func NewNativePDF(logger *slog.Logger) *NativePDF {
	if logger == nil {
		logger = slog.Default()
	}
	return &NativePDF{logger: logger}
}

func (n *NativePDF) PDFText(ctx context.Context, path string) (text string, err error) {
	defer func() {
		metrics.ToolInvocationsTotal.WithLabelValues("native-pdf", metrics.Outcome(err)).Inc()
	}()
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("native-pdf: %w: %v", common.ErrToolInvocation, err)
	}
	// the reader panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			n.logger.Warn("native pdf reader panicked", "path", path, "panic", r)
			text, err = "", fmt.Errorf("native-pdf: %w: %v", common.ErrParse, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("native-pdf: %w: %v", common.ErrToolInvocation, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			n.logger.Warn("failed to close pdf", "path", path, "error", cerr)
		}
	}()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("native-pdf: %w: %v", common.ErrToolInvocation, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("native-pdf: %w: %v", common.ErrToolInvocation, err)
	}
	n.logger.Debug("native pdf text extracted", "path", path, "pages", r.NumPage(), "bytes", buf.Len())
	return buf.String(), nil
}
