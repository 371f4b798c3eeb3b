package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/google/uuid"

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

	if len(os.Args) != 3 {
		logger.Error("usage", "cmd", "rfp-agent <rfp-file> <proposal-title>")
		os.Exit(2)
	}
	path, title := os.Args[1], os.Args[2]

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialise agent", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	rfpID := "AGENT-RUN-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	paths, err := a.Agent.ProcessRFP(ctx, path, rfpID, title)
	if err != nil {
		logger.Error("rfp processing failed", "rfp_id", rfpID, "error", err)
		os.Exit(1)
	}

	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Printf("Generated proposal files for %s:\n", rfpID)
	for _, k := range keys {
		fmt.Printf("  %s: %s\n", k, paths[k])
	}
}
