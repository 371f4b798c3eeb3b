//go:build !gosseract

package ocr

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/rfp-agent/internal/common"
)

// NewGosseract reports that the in-process engine was not compiled in;
// build with -tags gosseract (requires libtesseract) to enable it.
func NewGosseract(_ Config, _ *slog.Logger) (Recognizer, error) {
	return nil, fmt.Errorf("gosseract: %w: binary built without the gosseract tag", common.ErrToolNotAvailable)
}
