// Package formats collects the format handlers of this module into a default
// detection registry.
package formats

import (
	"github.com/janelia-flyem/bioio/format"
	"github.com/janelia-flyem/bioio/formats/avi"
	"github.com/janelia-flyem/bioio/formats/incell"
	"github.com/janelia-flyem/bioio/formats/mias"
	"github.com/janelia-flyem/bioio/formats/tiff"
	"github.com/janelia-flyem/bioio/formats/v3draw"
)

// Handlers returns all handlers in detection priority order.  MIAS claims a
// subset of TIFF files, so it precedes plain TIFF, which comes last as the
// most permissive.
func Handlers() []format.Handler {
	return []format.Handler{
		mias.Handler(),
		incell.Handler(),
		v3draw.Handler(),
		avi.Handler(),
		tiff.Handler(),
	}
}

// Default returns a new registry of all handlers.
func Default() *format.Registry {
	return format.NewRegistry(Handlers()...)
}
