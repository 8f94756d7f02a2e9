//go:build cgo

package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// gosseractEngine runs tesseract in-process through its C API. Selected with
// OCR_ENGINE=gosseract; avoids the exec round-trip but needs libtesseract at
// build time.
type gosseractEngine struct {
	lang string
}

func newGosseractEngine(lang string) *gosseractEngine {
	return &gosseractEngine{lang: lang}
}

func (g *gosseractEngine) Name() string { return "gosseract" }

func (g *gosseractEngine) Recognize(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// gosseract clients are not safe to share; one per recognition.
	client := gosseract.NewClient()
	defer func() {
		_ = client.Close()
	}()

	if err := client.SetLanguage(g.lang); err != nil {
		return "", fmt.Errorf("gosseract set language: %w", err)
	}
	if err := client.SetImage(path); err != nil {
		return "", fmt.Errorf("gosseract set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("gosseract recognize: %w", err)
	}
	return text, nil
}
