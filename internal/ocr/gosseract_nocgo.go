//go:build !cgo

package ocr

import (
	"context"
	"errors"
)

// gosseractEngine requires cgo (libtesseract). In non-cgo builds the engine
// still satisfies Engine but every recognition fails.
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
	return "", errors.New("gosseract engine unavailable: binary built without cgo")
}
