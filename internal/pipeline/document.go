package pipeline

import (
	"path/filepath"

	"github.com/docupay/invoice-capture/constants"
)

// InputDocument is one user-supplied file staged on disk for a run. It is
// consumed exactly once during normalization and not retained afterward.
type InputDocument struct {
	Name   string // original upload name, for messages only
	Path   string // staged temp-file path
	Format string // constants.PDF | constants.IMAGE
}

// NewInputDocument stages a document reference, deriving the format from the
// file extension. Returns ok=false for extensions the pipeline does not accept.
func NewInputDocument(name, path string) (InputDocument, bool) {
	format := constants.MapExtToFormat(filepath.Ext(name))
	if format == "" {
		return InputDocument{}, false
	}
	return InputDocument{Name: name, Path: path, Format: format}, true
}
