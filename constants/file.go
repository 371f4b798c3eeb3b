package constants

import "strings"

// Kind is the media kind inferred for an input document.
type Kind string

const (
	TEXT  Kind = "text"
	WORD  Kind = "word-document"
	PDF   Kind = "pdf"
	IMAGE Kind = "image"
)

// PageBreak separates per-page OCR output in a rasterized PDF.
const PageBreak = "\n\n--- Page Break ---\n\n"

// DefaultMinDirectChars is the direct PDF text length below which OCR fallback runs.
const DefaultMinDirectChars = 100

// extToKind holds every extension the ingestion subsystem accepts (lowercase, sans '.').
var extToKind = map[string]Kind{
	"txt":  TEXT,
	"docx": WORD,
	"doc":  WORD,
	"pdf":  PDF,
	"png":  IMAGE,
	"jpg":  IMAGE,
	"jpeg": IMAGE,
	"tiff": IMAGE,
	"bmp":  IMAGE,
	"gif":  IMAGE,
}

// UploadExtensions holds the extensions accepted by the upload endpoint.
var UploadExtensions = map[string]struct{}{
	"txt":  {},
	"pdf":  {},
	"docx": {},
	"doc":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToKind returns the media kind for ext, or "" when unsupported.
func MapExtToKind(ext string) Kind {
	return extToKind[NormalizeExt(ext)]
}

// SupportedExt reports whether ext maps to a known media kind.
func SupportedExt(ext string) bool {
	return MapExtToKind(ext) != ""
}
