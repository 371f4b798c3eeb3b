package textextract

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeBackend writes each page's text into its page image, so OCR of an image
// simply reads the file back.
type fakeBackend struct {
	mu sync.Mutex

	pdfText   string
	pdfErr    error
	pages     []string
	reverse   bool // write page files last-to-first
	rasterErr error
	ocrErr    map[string]error // by page text
	panicMsg  string

	calls map[string]int
	seen  []string // OCR'd image paths, in call order
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: map[string]int{}, ocrErr: map[string]error{}}
}

func (f *fakeBackend) count(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeBackend) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) PDFText(_ context.Context, path string) (string, error) {
	f.count("pdftext")
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.pdfErr != nil {
		return "", f.pdfErr
	}
	return strings.ReplaceAll(f.pdfText, "{file}", filepath.Base(path)), nil
}

func (f *fakeBackend) RasterizePDF(_ context.Context, pdfPath, outPrefix string) error {
	f.count("rasterize")
	if f.rasterErr != nil {
		return f.rasterErr
	}
	order := make([]int, len(f.pages))
	for i := range order {
		order[i] = i
		if f.reverse {
			order[i] = len(f.pages) - 1 - i
		}
	}
	// pdftoppm pads page numbers to the digit count of the last page
	width := len(fmt.Sprint(len(f.pages)))
	for _, i := range order {
		text := strings.ReplaceAll(f.pages[i], "{file}", filepath.Base(pdfPath))
		name := fmt.Sprintf("%s-%0*d.png", outPrefix, width, i+1)
		if err := os.WriteFile(name, []byte(text), 0o600); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeBackend) OCRImage(_ context.Context, imagePath string) (string, error) {
	f.count("ocr")
	b, err := os.ReadFile(imagePath)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	f.seen = append(f.seen, imagePath)
	f.mu.Unlock()
	if e, ok := f.ocrErr[string(b)]; ok {
		return "", e
	}
	return string(b), nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func writeDOCX(t *testing.T, dir, name string, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="` + wordNS + `"><w:body>` + body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return p
}

func para(text string) string {
	if text == "" {
		return `<w:p/>`
	}
	return `<w:p><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	var out []string
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			out = append(out, path)
		}
		return nil
	})
	return out
}
