package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joseph-ayodele/rfp-agent/internal/app"
	"github.com/joseph-ayodele/rfp-agent/internal/common"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.Log, os.Stderr)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <file>")
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	// a one-off extraction should not be served from a previous run
	cfg.Cache.Driver = "none"

	proc, _, err := app.NewProcessor(cfg, logger)
	if err != nil {
		logger.Error("build processor", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res := proc.ProcessDocument(ctx, os.Args[1])
	if !res.OK() {
		logger.Error("text extraction failed",
			"path", os.Args[1], "reason", res.Reason(), "error", res.Err, "duration_ms", res.Duration.Milliseconds())
		os.Exit(1)
	}

	logger.Info("text extraction OK",
		"kind", res.Kind,
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(res.Text),
		"warnings", len(res.Warnings),
		"duration_ms", res.Duration.Milliseconds(),
	)
	fmt.Println(res.Text)
}
