// Package rawerr defines the shared error taxonomy used across the
// decompression and pixel-buffer pipeline, so callers can distinguish a
// truncated stream from a usage mistake with a single errors.Is check.
package rawerr

import "errors"

var (
	// ErrTruncatedStream is returned when the bit pump runs out of input
	// before the decoder is done consuming it.
	ErrTruncatedStream = errors.New("rawpixel: truncated bit stream")

	// ErrCorruptStream is returned for a Huffman symbol that does not
	// resolve to any code or a magnitude category outside the supported
	// range. A slice or frame-row boundary that does not fall on a whole
	// group is reported as ErrBadSliceGeometry, not as this error.
	ErrCorruptStream = errors.New("rawpixel: corrupt compressed stream")

	// ErrBadHuffmanTable is returned when a table's code-length histogram
	// over- or under-fills the 16-bit code space, or the symbol alphabet
	// is not a full-decode (magnitude category) alphabet.
	ErrBadHuffmanTable = errors.New("rawpixel: malformed Huffman table")

	// ErrBadSliceGeometry is returned when the CR2 slice/frame/image
	// dimensions are inconsistent with each other.
	ErrBadSliceGeometry = errors.New("rawpixel: inconsistent slice geometry")

	// ErrUsage is returned for API misuse: a repeat allocation with a
	// different pitch, a wrong pixel type or layout, an out-of-range
	// sub-frame, border or blit region, or a lookup of the wrong size.
	// Mutating a buffer during a parallel phase is not detected.
	ErrUsage = errors.New("rawpixel: invalid buffer usage")

	// ErrOutOfMemory is returned when raster allocation fails.
	ErrOutOfMemory = errors.New("rawpixel: allocation failed")

	// ErrUnsupported is returned for an operation disabled on the
	// buffer's current pixel type (lookup tables on a float32 buffer).
	ErrUnsupported = errors.New("rawpixel: unsupported for this pixel type")
)
