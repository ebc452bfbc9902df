// Package decompress defines the decompressor contract that format
// packages (cr2, and future VC-5/Panasonic/Fuji/uncompressed-strip
// siblings) implement, plus a name-keyed registry so an outer
// container parser can select one without importing every format.
package decompress

import (
	"errors"

	"github.com/cocosip/go-rawpixel/pixelbuffer"
)

// ErrNotFound is returned by Get for an unregistered name.
var ErrNotFound = errors.New("decompress: no decompressor registered under that name")

// Decompressor consumes a compressed byte range and writes decoded
// samples into buf's uncropped raster. buf is allocated by the caller;
// the decompressor only writes, never reallocates or reshapes it.
type Decompressor interface {
	Name() string
	Decode(data []byte, buf *pixelbuffer.Buffer) error
}
