package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/rfp-agent/constants"
)

// ScanResult is one supported document found by ScanDirectory.
type ScanResult struct {
	Path string
	Kind constants.Kind
	Err  string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Failed  uint32
}

// ScanDirectory walks root and returns every file whose extension maps to a
// supported document kind. Unreadable entries are reported, not fatal.
func ScanDirectory(root string, skipHidden bool) ([]ScanResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}

	var results []ScanResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Scanned++
			results = append(results, ScanResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++

		kind := constants.MapExtToKind(filepath.Ext(path))
		if kind == "" {
			return nil
		}
		stats.Matched++
		results = append(results, ScanResult{Path: path, Kind: kind})
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}
