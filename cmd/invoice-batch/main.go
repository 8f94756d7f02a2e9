// invoice-batch runs the capture pipeline headless, either once over files
// named on the command line or continuously over a watched hot folder, and
// prints each extracted record. Useful for smoke tests and scripted runs
// without the browser surface.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docupay/invoice-capture/internal/common"
	"github.com/docupay/invoice-capture/internal/dispatch"
	"github.com/docupay/invoice-capture/internal/llm"
	"github.com/docupay/invoice-capture/internal/llm/openai"
	"github.com/docupay/invoice-capture/internal/ocr"
	"github.com/docupay/invoice-capture/internal/pipeline"
	"github.com/docupay/invoice-capture/internal/watch"
)

func main() {
	var (
		skipDispatch = flag.Bool("skip-dispatch", false, "extract only; do not post the record")
		timeout      = flag.Duration("timeout", 5*time.Minute, "per-run timeout")
		watchDir     = flag.String("watch", "", "watch a directory and process each new file as its own run")
		initialScan  = flag.Bool("initial-scan", false, "with -watch, also process files already present")
	)
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 && *watchDir == "" {
		fmt.Fprintln(os.Stderr, "usage: invoice-batch [flags] <file> [file...]")
		fmt.Fprintln(os.Stderr, "       invoice-batch [flags] -watch <dir>")
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *skipDispatch && cfg.Persist.URL == "" {
		cfg.Persist.URL = "http://skipped.invalid"
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	extractor := ocr.NewExtractor(ocr.Config{
		Engine:        cfg.OCR.Engine,
		Tesseract:     cfg.OCR.Tesseract,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		RenderScale:   cfg.OCR.RenderScale,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)

	llmClient := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	var rd pipeline.RecordDispatcher = dispatch.NewDispatcher(cfg.Persist.URL, cfg.Persist.Timeout, logger)
	if *skipDispatch {
		rd = noopDispatcher{}
	}

	processor := pipeline.NewProcessor(logger, pipeline.NewTracker(), extractor, llmClient, rd, llm.SelfEntity{
		Name:    cfg.Self.Name,
		TIN:     cfg.Self.TIN,
		Address: cfg.Self.Address,
	})

	if *watchDir != "" {
		watchLoop(processor, *watchDir, *initialScan, *timeout, logger)
		return
	}

	docs := make([]pipeline.InputDocument, 0, len(files))
	for _, path := range files {
		doc, ok := pipeline.NewInputDocument(path, path)
		if !ok {
			logger.Error("unsupported file type", "file", path)
			os.Exit(2)
		}
		docs = append(docs, doc)
	}
	if err := runOnce(processor, docs, *timeout, logger); err != nil {
		os.Exit(1)
	}
}

// watchLoop processes every file that lands in dir as a single-file run,
// sequentially. Pipeline failures are logged and the loop keeps going.
func watchLoop(processor *pipeline.Processor, dir string, initialScan bool, timeout time.Duration, logger *slog.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, errs, err := watch.Start(ctx, watch.Config{
		Root:        dir,
		InitialScan: initialScan,
		Debounce:    500 * time.Millisecond,
	}, logger)
	if err != nil {
		logger.Error("watch failed", "dir", dir, "error", err)
		os.Exit(1)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if ok {
				logger.Error("watch error", "error", err)
			}
		case path, ok := <-paths:
			if !ok {
				return
			}
			doc, docOK := pipeline.NewInputDocument(path, path)
			if !docOK {
				continue
			}
			if err := runOnce(processor, []pipeline.InputDocument{doc}, timeout, logger); err != nil {
				logger.Error("watched file failed", "file", path, "error", err)
			}
		}
	}
}

func runOnce(processor *pipeline.Processor, docs []pipeline.InputDocument, timeout time.Duration, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	record, err := processor.Run(ctx, docs)
	if err != nil {
		logger.Error("run failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return err
	}
	logger.Info("run ok", "duration_ms", time.Since(start).Milliseconds())

	out, _ := json.MarshalIndent(record, "", "  ")
	fmt.Println(string(out))
	return nil
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(ctx context.Context, record []byte) error { return nil }
