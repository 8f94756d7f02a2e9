package ocr

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/docupay/invoice-capture/constants"
)

// extractPDF rasterizes every page at the configured scale and OCRs each
// raster in ascending page order. Any page failure aborts the whole document;
// downstream treats the concatenation as one continuous text, so a silently
// dropped page would corrupt it.
func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.PDF, Method: "pdf-ocr"}

	if e.cfg.MaxPages > 0 {
		n, err := api.PageCountFile(path)
		if err != nil {
			return res, fmt.Errorf("pdf page count: %w", err)
		}
		if n > e.cfg.MaxPages {
			return res, fmt.Errorf("pdf has %d pages, limit is %d", n, e.cfg.MaxPages)
		}
	}

	tmpDir, err := os.MkdirTemp("", "ic-pages-*")
	if err != nil {
		return res, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("failed to remove page raster dir", "dir", tmpDir, "error", rmErr)
		}
	}()

	// A scale of 2.0 over the 72dpi PDF point grid lands at 144dpi rasters.
	dpi := int(math.Round(72 * e.cfg.RenderScale))
	prefix := filepath.Join(tmpDir, "page")

	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", strconv.Itoa(dpi), "-png", path, prefix)
	if err != nil {
		return res, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sortPageFiles(matches)
	if len(matches) == 0 {
		return res, fmt.Errorf("pdftoppm produced no page rasters")
	}

	var b strings.Builder
	for _, img := range matches {
		txt, err := e.engine.Recognize(ctx, img)
		if err != nil {
			return res, fmt.Errorf("ocr page %s: %w", filepath.Base(img), err)
		}
		b.WriteString(Normalize(txt))
		b.WriteString("\n")
	}

	res.Text = b.String()
	res.Pages = len(matches)
	return res, nil
}

// sortPageFiles orders pdftoppm output numerically (page-2 before page-10);
// a plain string sort misorders documents past nine pages.
func sortPageFiles(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		ni, iok := pageNumber(paths[i])
		nj, jok := pageNumber(paths[j])
		if iok && jok {
			return ni < nj
		}
		return paths[i] < paths[j]
	})
}

func pageNumber(path string) (int, bool) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	idx := strings.LastIndexByte(base, '-')
	if idx < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(base[idx+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}
