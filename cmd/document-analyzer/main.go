package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/joseph-ayodele/document-analyzer/constants"
	"github.com/joseph-ayodele/document-analyzer/internal/analysis"
	"github.com/joseph-ayodele/document-analyzer/internal/app"
	"github.com/joseph-ayodele/document-analyzer/internal/async"
	"github.com/joseph-ayodele/document-analyzer/internal/common"
	"github.com/joseph-ayodele/document-analyzer/internal/ingest"
	svc "github.com/joseph-ayodele/document-analyzer/internal/server"
	"github.com/joseph-ayodele/document-analyzer/internal/telemetry"
)

func main() {
	if err := common.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg := common.LoadConfig()
	logger := common.NewLogger(os.Stdout, true, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	addr := cfg.Server.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.WithQueue())
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	documents := svc.NewDocumentServer(svc.Deps{
		Docs:      a.Docs,
		Analyses:  a.Analyses,
		Blobs:     a.Blobs,
		Ingestor:  a.Ingestor,
		Processor: a.Processor,
		Queue:     a.Queue,
		Exporter:  a.Exporter,
		Logger:    logger,
	})
	grpcServer, _ := svc.NewGRPCServer(documents, a.Metrics, logger)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		a.Close(context.Background())
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("document-analyzer listening", "addr", addr)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	if cfg.Server.MetricsAddr != "" {
		g.Go(func() error {
			return telemetry.Serve(gctx, cfg.Server.MetricsAddr, a.Registry, logger)
		})
	}
	if len(cfg.Analysis.InboxDirs) > 0 {
		g.Go(func() error {
			return runInbox(gctx, cfg, a, logger)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		a.Queue.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
	}
	a.Close(context.Background())
	logger.Info("document-analyzer stopped")
}

// runInbox ingests files dropped into the configured directories and queues
// a full analysis for each new document.
func runInbox(ctx context.Context, cfg *common.Config, a *app.App, logger *slog.Logger) error {
	category, ok := constants.Canonicalize(cfg.Analysis.InboxCategory)
	if !ok {
		return common.NewValidationError("unsupported INBOX_CATEGORY " + cfg.Analysis.InboxCategory)
	}
	return ingest.RunInbox(ctx, ingest.InboxConfig{
		Watch: ingest.WatchConfig{
			Roots:       cfg.Analysis.InboxDirs,
			InitialScan: true,
			Debounce:    500 * time.Millisecond,
			SkipHidden:  true,
			Logger:      logger,
		},
		OwnerID:  cfg.Analysis.InboxOwner,
		Category: category,
	}, a.Ingestor, func(ctx context.Context, res ingest.IngestionResult) error {
		id, err := uuid.Parse(res.DocumentID)
		if err != nil {
			return err
		}
		ctx, requestID := common.EnsureRequestID(ctx)
		return a.Queue.Enqueue(ctx, async.Job{
			DocumentID:  id,
			OwnerID:     cfg.Analysis.InboxOwner,
			Category:    category,
			Options:     analysis.AllOptions(),
			SubmittedAt: time.Now(),
			RequestID:   requestID,
		})
	})
}
