package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/rfp-agent/internal/common"
)

// SaveUpload stores r under dir as the secured form of name and returns the
// written path. At most maxBytes are accepted when maxBytes > 0.
func SaveUpload(dir, name string, r io.Reader, maxBytes int64) (string, error) {
	safe := SecureFilename(name)
	if safe == "" {
		return "", fmt.Errorf("%w: no usable file name", common.ErrInvalidInput)
	}
	if !AllowedUploadExt(filepath.Ext(safe)) {
		return "", fmt.Errorf("%w: file type not allowed: %s", common.ErrUnsupportedType, filepath.Ext(safe))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(dir, safe)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && maxBytes > 0 && n > maxBytes {
		err = fmt.Errorf("%w: upload exceeds %d bytes", common.ErrInvalidInput, maxBytes)
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, common.ErrInvalidInput) {
			return "", err
		}
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, nil
}
