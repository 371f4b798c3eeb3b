// Package output renders a finished proposal to disk as Markdown, HTML and
// an XLSX compliance workbook.
package output

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/joseph-ayodele/rfp-agent/internal/proposal"
)

// Keys of the map returned by GenerateProposalDocument.
const (
	KeyMarkdown = "markdown_proposal"
	KeyHTML     = "html_proposal"
	KeyWorkbook = "compliance_workbook"
)

// Document is everything the output stage renders.
type Document struct {
	Title      string
	Content    proposal.Content
	Visuals    []proposal.VisualRecommendation
	Cost       proposal.CostProposal
	Review     proposal.Review
	Compliance []proposal.ComplianceItem
}

type Generator struct {
	dir    string
	md     goldmark.Markdown
	logger *slog.Logger
	now    func() time.Time
	suffix func() string // disambiguates runs that share a title and second
}

func NewGenerator(dir string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		dir:    dir,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger: logger,
		now:    time.Now,
		suffix: func() string { return uuid.NewString()[:8] },
	}
}

var reNonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases title and joins its alphanumeric runs with '_'.
func Slug(title string) string {
	s := strings.Trim(reNonSlug.ReplaceAllString(strings.ToLower(title), "_"), "_")
	if s == "" {
		return "proposal"
	}
	if len(s) > 80 {
		s = strings.TrimRight(s[:80], "_")
	}
	return s
}

// GenerateProposalDocument writes <slug>_<timestamp>_<suffix>.{md,html,xlsx} and
// returns their paths by kind. Any write failure aborts the whole stage.
func (g *Generator) GenerateProposalDocument(doc Document) (map[string]string, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	stem := filepath.Join(g.dir, Slug(doc.Title)+"_"+g.now().Format("20060102_150405")+"_"+g.suffix())

	md, err := renderMarkdown(doc)
	if err != nil {
		return nil, err
	}
	var html bytes.Buffer
	html.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	template.HTMLEscape(&html, []byte(doc.Title))
	html.WriteString("</title></head><body>\n")
	if err := g.md.Convert(md, &html); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	html.WriteString("</body></html>\n")

	xlsx, err := buildWorkbook(doc)
	if err != nil {
		return nil, err
	}

	paths := map[string]string{
		KeyMarkdown: stem + ".md",
		KeyHTML:     stem + ".html",
		KeyWorkbook: stem + ".xlsx",
	}
	for key, data := range map[string][]byte{KeyMarkdown: md, KeyHTML: html.Bytes(), KeyWorkbook: xlsx} {
		if err := os.WriteFile(paths[key], data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", key, err)
		}
	}
	g.logger.Info("proposal documents written", "title", doc.Title, "markdown", paths[KeyMarkdown])
	return paths, nil
}
