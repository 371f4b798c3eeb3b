// Package cache memoizes successful text extractions by file content.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/rfp-agent/internal/common"
)

// Entry is what gets stored for one extracted document.
type Entry struct {
	Text   string `json:"text"`
	Method string `json:"method"`
	Pages  int    `json:"pages"`
}

// Cache is the lookup/store contract used by the text extraction processor.
// A miss is (Entry{}, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, e Entry) error
}

// Key hashes the file content together with the document kind.
func Key(path, kind string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return kind + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

// New builds the cache selected by cfg.Driver. The "none" driver returns nil.
func New(cfg common.CacheConfig, logger *slog.Logger) (Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(cfg.TTL, cfg.MaxEntries), nil
	case "redis":
		r, err := NewRedis(cfg, logger)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache driver: %q", cfg.Driver)
	}
}
