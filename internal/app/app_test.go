package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/rfp-agent/internal/common"
)

func testConfig(t *testing.T) *common.Config {
	dir := t.TempDir()
	return &common.Config{
		OCR: common.OCRConfig{
			PDFTextEngine: "pdftotext",
			OCREngine:     "tesseract",
			ToolTimeout:   time.Second,
			ScratchDir:    filepath.Join(dir, "scratch"),
		},
		Cache: common.CacheConfig{Driver: "memory", TTL: time.Minute},
		Agent: common.AgentConfig{
			OutputDir:    filepath.Join(dir, "out"),
			KnowledgeDir: filepath.Join(dir, "kb"),
		},
	}
}

func TestNew_RunsTextPipeline(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	rfp := filepath.Join(t.TempDir(), "rfp.txt")
	require.NoError(t, os.WriteFile(rfp, []byte("Client Industry: Healthcare\nThe vendor must provide secure hosting."), 0o644))

	paths, err := a.Agent.ProcessRFP(context.Background(), rfp, "RFP-APP", "Hosting Proposal")
	require.NoError(t, err)
	assert.Len(t, paths, 3)
	for _, p := range paths {
		assert.Equal(t, cfg.Agent.OutputDir, filepath.Dir(p))
	}
	for _, name := range []string{"rfp_insights.json", "best_practices.json"} {
		assert.FileExists(t, filepath.Join(cfg.Agent.KnowledgeDir, name))
	}
}

func TestNew_BadEngine(t *testing.T) {
	cfg := testConfig(t)
	cfg.OCR.OCREngine = "cuneiform"
	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFIG_ERROR")
}

func TestNew_NoCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Driver = "none"
	a, err := New(cfg, nil)
	require.NoError(t, err)
	a.Close()
}
