package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/docupay/invoice-capture/internal/common"
	"github.com/docupay/invoice-capture/internal/dispatch"
	"github.com/docupay/invoice-capture/internal/llm"
	"github.com/docupay/invoice-capture/internal/llm/openai"
	"github.com/docupay/invoice-capture/internal/ocr"
	"github.com/docupay/invoice-capture/internal/pipeline"
	"github.com/docupay/invoice-capture/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Stage 1: OCR / PDF rasterization
	extractor := ocr.NewExtractor(ocr.Config{
		Engine:        cfg.OCR.Engine,
		Tesseract:     cfg.OCR.Tesseract,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		RenderScale:   cfg.OCR.RenderScale,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)

	// Stage 2: field extraction
	llmClient := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	// Stage 3: persistence hand-off
	dispatcher := dispatch.NewDispatcher(cfg.Persist.URL, cfg.Persist.Timeout, logger)

	processor := pipeline.NewProcessor(
		logger,
		pipeline.NewTracker(),
		extractor,
		llmClient,
		dispatcher,
		llm.SelfEntity{
			Name:    cfg.Self.Name,
			TIN:     cfg.Self.TIN,
			Address: cfg.Self.Address,
		},
	)

	srv := server.NewServer(processor, cfg.Server.UploadDir, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr, "model", cfg.LLM.Model, "ocr_engine", cfg.OCR.Engine)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
}
