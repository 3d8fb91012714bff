package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joseph-ayodele/document-analyzer/constants"
	"github.com/joseph-ayodele/document-analyzer/internal/analysis"
	"github.com/joseph-ayodele/document-analyzer/internal/common"
	"github.com/joseph-ayodele/document-analyzer/internal/export"
	"github.com/joseph-ayodele/document-analyzer/internal/extract"
	"github.com/joseph-ayodele/document-analyzer/internal/ocr"
	"github.com/joseph-ayodele/document-analyzer/internal/pipeline"
)

type output struct {
	Comparison analysis.ComparisonResult  `json:"comparison"`
	Analyses   map[string]analysis.Record `json:"analyses,omitempty"`
}

func main() {
	var (
		xlsxOut = flag.String("xlsx", "", "also write the comparison to this XLSX file")
		steps   = flag.String("analyze", "", "also analyse each file with these steps (all or extract,summarize,anomaly,compliance)")
		catStr  = flag.String("category", "Financial", "category used with -analyze")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: doc-compare [flags] <file-a> <file-b>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	pathA, pathB := flag.Arg(0), flag.Arg(1)

	opts, err := analysis.ParseOptions(*steps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	category, ok := constants.Canonicalize(*catStr)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unsupported -category %q\n", *catStr)
		os.Exit(2)
	}

	_ = common.LoadDotEnv()
	cfg := common.LoadConfig()
	if *verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	logger := common.NewLogger(os.Stderr, false, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	ocrx := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.PDFToTextPath,
		Pdftoppm:      cfg.OCR.PDFToPPMPath,
		Tesseract:     cfg.OCR.TesseractPath,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		DPI:           cfg.OCR.PDFRasterDPI,
		Timeout:       cfg.OCR.Timeout,
	}, logger)
	source := extract.NewFileTextSource(extract.NewOCRAdapter(ocrx, logger))

	var rules *analysis.RuleSet
	if cfg.Analysis.RulesFile != "" {
		if rules, err = analysis.LoadRulesFile(cfg.Analysis.RulesFile); err != nil {
			logger.Error("failed to load rules", "path", cfg.Analysis.RulesFile, "error", err)
			os.Exit(1)
		}
	}
	proc := pipeline.NewProcessor(analysis.NewEngine(rules, analysis.WithLogger(logger)), source,
		pipeline.WithLogger(logger),
		pipeline.WithTextTimeout(cfg.Analysis.TextSourceTimeout),
	)

	start := time.Now()
	res, err := proc.Compare(ctx, pathA, pathB)
	if err != nil {
		logger.Error("comparison failed", "error", err)
		os.Exit(1)
	}
	out := output{Comparison: res}
	if opts.Any() {
		out.Analyses = make(map[string]analysis.Record, 2)
		for _, p := range []string{pathA, pathB} {
			rec, err := proc.Analyze(ctx, p, opts, category)
			if err != nil {
				logger.Error("analysis failed", "path", p, "error", err)
				os.Exit(1)
			}
			out.Analyses[p] = rec
		}
	}
	logger.Debug("comparison done", "duration_ms", time.Since(start).Milliseconds())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("failed to write result", "error", err)
		os.Exit(1)
	}

	if *xlsxOut != "" {
		b, err := export.ComparisonXLSX(res)
		if err != nil {
			logger.Error("failed to build workbook", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxOut, b, 0o644); err != nil {
			logger.Error("failed to write workbook", "path", *xlsxOut, "error", err)
			os.Exit(1)
		}
		logger.Info("wrote comparison workbook", "path", *xlsxOut)
	}
}
