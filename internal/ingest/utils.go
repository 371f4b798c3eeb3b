package ingest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/rfp-agent/constants"
	"github.com/joseph-ayodele/rfp-agent/internal/common"
)

// AllowedUploadExt checks if a file extension may be uploaded through the API.
func AllowedUploadExt(ext string) bool {
	_, ok := constants.UploadExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

var reUnsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces name to a flat ASCII file name that cannot escape its directory.
// It returns "" when nothing usable is left.
func SecureFilename(name string) string {
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = reUnsafeName.ReplaceAllString(name, "")
	return strings.TrimLeft(name, "._")
}

// ResolveWithin returns the absolute form of path, which must stay inside root.
// Relative paths are taken relative to root. Symlinks are followed when the
// target exists, so a link inside root cannot point out of it.
func ResolveWithin(root, path string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", common.WrapError(err, "resolve root")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(absRoot, path)
	}
	path = filepath.Clean(path)
	if !within(absRoot, path) {
		return "", fmt.Errorf("%w: path is outside %s", common.ErrInvalidInput, filepath.Base(absRoot))
	}

	realRoot, rootErr := filepath.EvalSymlinks(absRoot)
	realPath, pathErr := filepath.EvalSymlinks(path)
	if rootErr == nil && pathErr == nil && !within(realRoot, realPath) {
		return "", fmt.Errorf("%w: path resolves outside %s", common.ErrInvalidInput, filepath.Base(absRoot))
	}
	return path, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
