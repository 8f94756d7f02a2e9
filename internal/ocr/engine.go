package ocr

import (
	"context"
	"fmt"
	"regexp"
)

// Engine recognizes text in one raster image file.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, path string) (string, error)
}

var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)

// tesseractEngine shells out to the tesseract binary. Default engine.
type tesseractEngine struct {
	runner      Runner
	bin         string
	lang        string
	tessdataDir string
}

func newTesseractEngine(r Runner, bin, lang, tessdataDir string) *tesseractEngine {
	return &tesseractEngine{runner: r, bin: bin, lang: lang, tessdataDir: tessdataDir}
}

func (t *tesseractEngine) Name() string { return "tesseract" }

func (t *tesseractEngine) Recognize(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", t.lang}
	if t.tessdataDir != "" {
		args = append(args, "--tessdata-dir", t.tessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := t.runner.Run(ctx, t.bin, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}

	// strip obvious ruled-line noise before normalization
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}
