package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/document-analyzer/constants"
	"github.com/joseph-ayodele/document-analyzer/internal/analysis"
	"github.com/joseph-ayodele/document-analyzer/internal/app"
	"github.com/joseph-ayodele/document-analyzer/internal/common"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem    = flag.Bool("inmem", true, "use an in-memory SQLite database")
		dir      = flag.String("dir", "", "directory to analyse documents from (required)")
		owner    = flag.String("owner", "local-batch", "owner id the documents are stored under")
		catStr   = flag.String("category", "Financial", "document category: Financial or Legal")
		steps    = flag.String("options", "all", "analysis steps: all or a list of extract,summarize,anomaly,compliance")
		out      = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		fromStr  = flag.String("from", "", "from date YYYY-MM-DD")
		toStr    = flag.String("to", "", "to date YYYY-MM-DD")
		rules    = flag.String("rules", "", "YAML rules file overriding the built-in tables")
		verbose  = flag.Bool("v", false, "debug logging")
		noHidden = flag.Bool("skip-hidden", true, "skip hidden files and directories")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	category, ok := constants.Canonicalize(*catStr)
	if !ok {
		printError("Error: unsupported --category %q\n", *catStr)
		os.Exit(1)
	}
	opts, err := analysis.ParseOptions(*steps)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "analyses.xlsx")
	}
	from, err := parseDate(*fromStr)
	if err != nil {
		printError("Error: invalid --from date format, use YYYY-MM-DD: %v\n", err)
		os.Exit(1)
	}
	to, err := parseDate(*toStr)
	if err != nil {
		printError("Error: invalid --to date format, use YYYY-MM-DD: %v\n", err)
		os.Exit(1)
	}

	if err := common.LoadDotEnv(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	cfg := common.LoadConfig()
	if *rules != "" {
		cfg.Analysis.RulesFile = *rules
	}
	if *verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	logger := common.NewLogger(os.Stderr, false, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var appOpts []app.Option
	if *inmem {
		appOpts = append(appOpts, app.InMemory())
		if cfg.Storage.Backend == common.StorageFS {
			tmp, err := os.MkdirTemp("", "doc-batch-*")
			if err != nil {
				logger.Error("failed to create upload dir", "error", err)
				os.Exit(1)
			}
			defer os.RemoveAll(tmp)
			cfg.Storage.UploadDir = tmp
		}
	}
	a, err := app.New(ctx, cfg, logger, appOpts...)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	logger.Info("starting ingestion", "dir", *dir, "owner", *owner, "category", category.String())
	results, stats, err := a.Ingestor.IngestDirectory(ctx, *owner, category, *dir, *noHidden)
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		os.Exit(1)
	}
	logger.Info("ingestion complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"deduplicated", stats.Deduplicated)

	var analysed, skipped, failures int
	for _, res := range results {
		if res.Err != "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		_, _, err := a.Processor.AnalyzeAndStore(ctx, res.DocumentID, *owner, opts, category)
		switch {
		case err == nil:
			analysed++
		case errors.Is(err, common.ErrAlreadyAnalyzed):
			logger.Info("document already analysed", "path", res.SourcePath, "document_id", res.DocumentID)
			skipped++
		default:
			logger.Error("failed to analyse document", "path", res.SourcePath, "document_id", res.DocumentID, "error", err)
			failures++
		}
	}

	logger.Info("exporting to XLSX", "output", *out)
	xlsx, err := a.Exporter.ExportAnalysesXLSX(ctx, *owner, from, to)
	if err != nil {
		logger.Error("failed to export analyses", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Batch analysis complete!\n")
	fmt.Printf("- Files ingested: %d\n", stats.Succeeded)
	fmt.Printf("- Documents analysed: %d\n", analysed)
	fmt.Printf("- Already analysed: %d\n", skipped)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Output: %s\n", *out)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
