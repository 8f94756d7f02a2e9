package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/docupay/invoice-capture/constants"
)

type Config struct {
	Engine    string // "tesseract" (exec, default) | "gosseract"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"

	TesseractLang string  // default "eng"
	TessdataDir   string
	RenderScale   float64 // PDF page upscale factor, default 2.0
	MaxPages      int     // 0 = no limit
}

// ExtractionResult is the text recovered from one document. Text contains one
// newline-terminated block per OCR unit (the whole image, or each PDF page in
// ascending order), so callers can concatenate results directly.
type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // "pdf-ocr" | "image-ocr"
	Duration   time.Duration
}

type Extractor struct {
	cfg    Config
	runner Runner
	engine Engine
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.RenderScale <= 0 {
		cfg.RenderScale = 2.0
	}

	runner := execRunner{}
	var engine Engine
	switch cfg.Engine {
	case "gosseract":
		engine = newGosseractEngine(cfg.TesseractLang)
	default:
		engine = newTesseractEngine(runner, cfg.Tesseract, cfg.TesseractLang, cfg.TessdataDir)
	}
	return &Extractor{cfg: cfg, runner: runner, engine: engine, logger: logger}
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting ocr extraction", "path", path, "engine", e.engine.Name(), "ext", ext)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err := e.extractPDF(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.IMAGE:
		res, err := e.extractImage(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	default:
		e.logger.Error("unsupported ocr extension", "extension", ext)
		return ExtractionResult{}, fmt.Errorf("unsupported extension: %q", ext)
	}
}

func (e *Extractor) extractImage(ctx context.Context, path string) (ExtractionResult, error) {
	txt, err := e.engine.Recognize(ctx, path)
	if err != nil {
		return ExtractionResult{SourceType: constants.IMAGE}, err
	}
	return ExtractionResult{
		Text:       Normalize(txt) + "\n",
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
	}, nil
}
