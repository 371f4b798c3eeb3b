package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/rfp-agent/internal/app"
	"github.com/joseph-ayodele/rfp-agent/internal/async"
	"github.com/joseph-ayodele/rfp-agent/internal/common"
	"github.com/joseph-ayodele/rfp-agent/internal/ingest"
	"github.com/joseph-ayodele/rfp-agent/internal/server"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.Log, os.Stdout)
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

	queue := async.NewProcessorQueue(a.Agent, logger,
		async.WithWorkers(cfg.Agent.Workers),
		async.WithQueueSize(cfg.Agent.QueueSize),
		async.WithProcessTimeout(cfg.Agent.ProcessTimeout),
	)

	if cfg.Watch.Enabled {
		if err := os.MkdirAll(cfg.Watch.InboxDir, 0o755); err != nil {
			logger.Error("failed to create inbox", "dir", cfg.Watch.InboxDir, "error", err)
			os.Exit(1)
		}
		events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{cfg.Watch.InboxDir},
			InitialScan: true,
			Debounce:    cfg.Watch.Debounce,
			Logger:      logger,
		})
		if err != nil {
			logger.Error("failed to start inbox watcher", "error", err)
			os.Exit(1)
		}
		go enqueueInbox(ctx, queue, events, errs, logger)
		logger.Info("watching inbox", "dir", cfg.Watch.InboxDir)
	}

	// gRPC
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	docRoots := []string{cfg.Server.UploadDir}
	if cfg.Watch.Enabled {
		docRoots = append(docRoots, cfg.Watch.InboxDir)
	}
	grpcServer, _ := server.NewGRPCServer(server.NewDocumentService(a.Processor, docRoots, logger))
	go func() {
		logger.Info("gRPC listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	// HTTP
	api := server.NewAPI(cfg.Server, a.Agent, queue, a.Knowledge, logger)
	httpServer := api.NewHTTPServer()
	go func() {
		logger.Info("HTTP listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	queue.Shutdown(shutdownCtx)
}

// enqueueInbox turns each document dropped into the inbox into a proposal job
// titled after its file name.
func enqueueInbox(ctx context.Context, q async.Queue, events <-chan string, errs <-chan error, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("inbox watcher error", "error", err)
		case path, ok := <-events:
			if !ok {
				return
			}
			stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			rfpID := fmt.Sprintf("INBOX-%s", strings.ToUpper(uuid.NewString()[:8]))
			id, err := q.Enqueue(ctx, async.Job{Path: path, RFPID: rfpID, Title: stem + " Proposal"})
			if err != nil {
				logger.Error("failed to enqueue inbox document", "path", path, "error", err)
				continue
			}
			logger.Info("inbox document queued", "path", path, "job_id", id, "rfp_id", rfpID)
		}
	}
}
