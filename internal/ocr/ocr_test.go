package ocr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/rfp-agent/internal/common"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []call
	stdout []byte
	stderr []byte
	err    error
	block  bool
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.block {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}
	return f.stdout, f.stderr, f.err
}

func TestTools_PDFText_Args(t *testing.T) {
	r := &fakeRunner{stdout: []byte("hello")}
	tools := NewToolsWithRunner(Config{}, r, nil)

	text, err := tools.PDFText(context.Background(), "/tmp/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	require.Len(t, r.calls, 1)
	assert.Equal(t, "pdftotext", r.calls[0].name)
	assert.Equal(t, []string{"-enc", "UTF-8", "-eol", "unix", "/tmp/a.pdf", "-"}, r.calls[0].args)
}

func TestTools_RasterizePDF_Args(t *testing.T) {
	r := &fakeRunner{}
	tools := NewToolsWithRunner(Config{Pdftoppm: "/usr/bin/pdftoppm", DPI: 150}, r, nil)

	require.NoError(t, tools.RasterizePDF(context.Background(), "in.pdf", "/scratch/x/page"))
	require.Len(t, r.calls, 1)
	assert.Equal(t, "/usr/bin/pdftoppm", r.calls[0].name)
	assert.Equal(t, []string{"-r", "150", "-png", "in.pdf", "/scratch/x/page"}, r.calls[0].args)
}

func TestTools_OCRImage_ArgsAndCleanup(t *testing.T) {
	r := &fakeRunner{stdout: []byte("Line one\n-----\nLine two\n")}
	tools := NewToolsWithRunner(Config{PSM: 6, OEM: 1, TessdataDir: "/td"}, r, nil)

	text, err := tools.OCRImage(context.Background(), "p.png")
	require.NoError(t, err)
	assert.Equal(t, "Line one\n\nLine two\n", text)
	assert.Equal(t, []string{"p.png", "stdout", "-l", "eng", "--psm", "6", "--oem", "1", "--tessdata-dir", "/td"}, r.calls[0].args)
}

func TestTools_MissingBinary(t *testing.T) {
	r := &fakeRunner{err: &exec.Error{Name: "pdftoppm", Err: exec.ErrNotFound}}
	tools := NewToolsWithRunner(Config{}, r, nil)

	err := tools.RasterizePDF(context.Background(), "in.pdf", "out")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrToolNotAvailable)
	assert.Equal(t, "ToolNotAvailable", common.ReasonCode(err))
}

func TestTools_Timeout(t *testing.T) {
	r := &fakeRunner{block: true}
	tools := NewToolsWithRunner(Config{ToolTimeout: 20 * time.Millisecond}, r, nil)

	_, err := tools.OCRImage(context.Background(), "p.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrToolInvocation)
	assert.Contains(t, err.Error(), "timed out")
}

func TestTools_FailureIncludesStderr(t *testing.T) {
	r := &fakeRunner{stderr: []byte("Syntax Error: Couldn't read xref table"), err: errors.New("exit status 1")}
	tools := NewToolsWithRunner(Config{}, r, nil)

	_, err := tools.PDFText(context.Background(), "bad.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrToolInvocation)
	assert.Contains(t, err.Error(), "xref table")
}

func TestTools_ExecRunnerLogsOncePerInvocation(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tools := NewTools(Config{Pdftotext: "rfp-agent-no-such-pdftotext"}, logger)

	_, err := tools.PDFText(context.Background(), "in.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrToolNotAvailable)

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "tool invocation failed")
	assert.Contains(t, lines[0], "tool=pdftotext")
	assert.Contains(t, lines[0], `args="-enc UTF-8 -eol unix in.pdf -"`)
}

func TestNewBackend_Engines(t *testing.T) {
	b, err := NewBackend(Config{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, b)

	b, err = NewBackend(Config{PDFTextEngine: "native"}, nil)
	require.NoError(t, err)
	_, isNative := b.(composite).PDFTextExtractor.(*NativePDF)
	assert.True(t, isNative)

	_, err = NewBackend(Config{PDFTextEngine: "acrobat"}, nil)
	assert.Error(t, err)

	_, err = NewBackend(Config{OCREngine: "abbyy"}, nil)
	assert.Error(t, err)
}

func TestNativePDF_MissingFile(t *testing.T) {
	_, err := NewNativePDF(nil).PDFText(context.Background(), "/nonexistent/file.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrToolInvocation)
}
