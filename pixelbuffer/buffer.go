// Package pixelbuffer implements the shared raster abstraction that
// decompressors write into and post-process workers operate on: an
// uncropped allocation with a cropped public view, a bad-pixel map,
// an optional dithered lookup curve, and per-CFA-cell black/white
// point bookkeeping.
package pixelbuffer

import (
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/cocosip/go-rawpixel/rawerr"
)

// PixelType is the sample representation a Buffer was allocated with.
// It never changes over the buffer's lifetime.
type PixelType int

const (
	TypeU16 PixelType = iota
	TypeF32
)

func (t PixelType) sampleSize() int {
	if t == TypeF32 {
		return 4
	}
	return 2
}

// rowPaddingBytes is appended to every row beyond the logical extent
// so that fixed-width SIMD reads past the last pixel stay inside the
// allocation.
const rowPaddingBytes = 16

// CFA describes a periodic color-filter-array mask over the sensor.
type CFA struct {
	Size   Point
	Colors []byte
}

// ColorAt returns the CFA color index at uncropped position (x, y).
func (c CFA) ColorAt(x, y int) byte {
	if c.Size.X == 0 || c.Size.Y == 0 {
		return 0
	}
	return c.Colors[(y%c.Size.Y)*c.Size.X+(x%c.Size.X)]
}

// BlackArea is a stripe of masked sensor pixels used to estimate black
// level when one is not supplied by the container metadata.
type BlackArea struct {
	Rect       Rectangle
	IsVertical bool
}

// Metadata carries camera-identity and geometric facts the core
// pipeline treats as opaque payload.
type Metadata struct {
	PixelAspectRatio float64
	WBCoeffs         [4]float64
	FujiRotationPos  uint32
	Subsampling      Point

	Make, Model, Mode string

	CanonicalMake, CanonicalModel, CanonicalAlias, CanonicalID string

	ISOSpeed int
}

// sampleOps isolates the per-pixel-type math (scaling, lookup,
// bad-pixel interpolation) behind a strategy interface, so the two
// pixel-type variants share the Buffer structure without a class
// hierarchy.
type sampleOps interface {
	scaleBlackWhite(b *Buffer, startY, endY int)
	doLookup(b *Buffer, startY, endY int) error
	fixBadPixel(b *Buffer, x, y, component int)
}

// Buffer owns a decoded raster plus the metadata that post-process
// workers and downstream consumers need: crop window, row pitch and
// padding, CFA, black/white point, bad-pixel bookkeeping, and an
// optional lookup curve. It is shared by ref-counted handles; the
// raster itself is owned exclusively by the buffer that allocated it.
type Buffer struct {
	// ID distinguishes one buffer instance from another in diagnostics
	// and logs when several decompressions run concurrently.
	ID uuid.UUID

	pixelType PixelType
	cpp       int
	bpp       int

	uncroppedDim Point
	cropOffset   Point
	dim          Point

	pitch   int
	padding int

	raster    []byte
	allocated bool

	IsCFA bool
	Cfa   CFA

	BlackLevel         int
	BlackLevelSeparate [4]int
	WhitePoint         int
	BlackAreas         []BlackArea

	badPixelMu        sync.Mutex
	badPixelPositions []uint32

	badPixelMap      []byte
	badPixelMapPitch int

	DitherScale bool

	table *LookupTable

	Metadata Metadata
	errs     *ErrorLog

	refMu    sync.Mutex
	refCount uint32

	ops sampleOps

	simdCapable bool
}

// NewU16 allocates-by-value (but not by raster) a u16, cpp-component
// buffer sized to uncroppedDim. Call Allocate before writing to it.
func NewU16(uncroppedDim Point, cpp int) *Buffer {
	return newBuffer(TypeU16, uncroppedDim, cpp, u16Ops{})
}

// NewF32 is NewU16's float32 counterpart.
func NewF32(uncroppedDim Point, cpp int) *Buffer {
	return newBuffer(TypeF32, uncroppedDim, cpp, f32Ops{})
}

func newBuffer(pt PixelType, uncroppedDim Point, cpp int, ops sampleOps) *Buffer {
	b := &Buffer{
		ID:           uuid.New(),
		pixelType:    pt,
		cpp:          cpp,
		bpp:          pt.sampleSize() * cpp,
		uncroppedDim: uncroppedDim,
		dim:          uncroppedDim,
		IsCFA:        true,
		BlackLevel:   -1,
		WhitePoint:   65536,
		DitherScale:  true,
		errs:         NewErrorLog(),
		refCount:     1,
		ops:          ops,
		simdCapable:  hasSSE2(),
	}
	return b
}

func (b *Buffer) PixelType() PixelType  { return b.pixelType }
func (b *Buffer) Cpp() int              { return b.cpp }
func (b *Buffer) Bpp() int              { return b.bpp }
func (b *Buffer) Dim() Point            { return b.dim }
func (b *Buffer) UncroppedDim() Point   { return b.uncroppedDim }
func (b *Buffer) CropOffset() Point     { return b.cropOffset }
func (b *Buffer) Pitch() int            { return b.pitch }
func (b *Buffer) IsAllocated() bool     { return b.allocated }
func (b *Buffer) ErrorLog() *ErrorLog   { return b.errs }

// Allocate sizes the raster from uncroppedDim x pitch. Calling it
// again with the same uncroppedDim is a no-op; calling it again after
// a dimension change is UsageError.
func (b *Buffer) Allocate() error {
	rowBytes := b.bpp * b.uncroppedDim.X
	pitch := rowBytes + rowPaddingBytes
	if sz := b.pixelType.sampleSize(); pitch%sz != 0 {
		pitch += sz - pitch%sz
	}

	if b.allocated {
		if pitch != b.pitch {
			return rawerr.ErrUsage
		}
		return nil
	}

	size := pitch * b.uncroppedDim.Y
	if size < 0 || b.uncroppedDim.X <= 0 || b.uncroppedDim.Y <= 0 {
		return rawerr.ErrOutOfMemory
	}

	raster := make([]byte, size)
	if raster == nil {
		return rawerr.ErrOutOfMemory
	}

	b.pitch = pitch
	b.padding = pitch - rowBytes
	b.raster = raster
	b.allocated = true
	return nil
}

// SubFrame narrows the visible window: rect MUST lie within the
// current dim. The raster and uncroppedDim are never touched.
func (b *Buffer) SubFrame(rect Rectangle) error {
	if !rect.IsInside(b.dim) {
		return rawerr.ErrUsage
	}
	b.cropOffset = Point{b.cropOffset.X + rect.Origin.X, b.cropOffset.Y + rect.Origin.Y}
	b.dim = rect.Size
	return nil
}

// rowOffset returns the byte offset of row y (uncropped coordinates).
func (b *Buffer) rowOffset(y int) int { return y * b.pitch }

// GetUncropped16 reads one u16 sample at uncropped (x, y), component c.
func (b *Buffer) GetUncropped16(x, y, c int) uint16 {
	off := b.rowOffset(y) + (x*b.cpp+c)*2
	return uint16(b.raster[off]) | uint16(b.raster[off+1])<<8
}

// SetUncropped16 writes one u16 sample at uncropped (x, y), component c.
func (b *Buffer) SetUncropped16(x, y, c int, v uint16) {
	off := b.rowOffset(y) + (x*b.cpp+c)*2
	b.raster[off] = byte(v)
	b.raster[off+1] = byte(v >> 8)
}

// Get16 reads one u16 sample in the cropped coordinate system.
func (b *Buffer) Get16(x, y, c int) uint16 {
	return b.GetUncropped16(x+b.cropOffset.X, y+b.cropOffset.Y, c)
}

// Set16 writes one u16 sample in the cropped coordinate system.
func (b *Buffer) Set16(x, y, c int, v uint16) {
	b.SetUncropped16(x+b.cropOffset.X, y+b.cropOffset.Y, c, v)
}

// GetUncroppedF32 reads one f32 sample at uncropped (x, y), component c.
func (b *Buffer) GetUncroppedF32(x, y, c int) float32 {
	off := b.rowOffset(y) + (x*b.cpp+c)*4
	bits := uint32(b.raster[off]) | uint32(b.raster[off+1])<<8 |
		uint32(b.raster[off+2])<<16 | uint32(b.raster[off+3])<<24
	return math.Float32frombits(bits)
}

// SetUncroppedF32 writes one f32 sample at uncropped (x, y), component c.
func (b *Buffer) SetUncroppedF32(x, y, c int, v float32) {
	off := b.rowOffset(y) + (x*b.cpp+c)*4
	bits := math.Float32bits(v)
	b.raster[off] = byte(bits)
	b.raster[off+1] = byte(bits >> 8)
	b.raster[off+2] = byte(bits >> 16)
	b.raster[off+3] = byte(bits >> 24)
}

// BlitFrom byte-copies a rectangular region from src into b, both
// addressed in uncropped coordinates, respecting both buffers'
// pitches. Both regions MUST lie fully within their respective
// uncropped extents; pixel type and cpp must match.
func (b *Buffer) BlitFrom(src *Buffer, srcPos, size, destPos Point) error {
	if src.pixelType != b.pixelType || src.cpp != b.cpp {
		return rawerr.ErrUsage
	}
	srcRect := Rectangle{Origin: srcPos, Size: size}
	destRect := Rectangle{Origin: destPos, Size: size}
	if !srcRect.IsInside(src.uncroppedDim) || !destRect.IsInside(b.uncroppedDim) {
		return rawerr.ErrUsage
	}

	rowBytes := size.X * b.bpp
	for row := 0; row < size.Y; row++ {
		srcOff := src.rowOffset(srcPos.Y+row) + srcPos.X*src.bpp
		dstOff := b.rowOffset(destPos.Y+row) + destPos.X*b.bpp
		copy(b.raster[dstOff:dstOff+rowBytes], src.raster[srcOff:srcOff+rowBytes])
	}
	return nil
}

// ExpandBorder replicates the edge pixels of validRect outward to the
// full cropped area, in cropped coordinates, so that interpolators
// operating near the crop boundary have a finite domain.
func (b *Buffer) ExpandBorder(validRect Rectangle) error {
	if !validRect.IsInside(b.dim) {
		return rawerr.ErrUsage
	}

	clampX := func(x int) int {
		if x < validRect.Origin.X {
			return validRect.Origin.X
		}
		if x >= validRect.Origin.X+validRect.Size.X {
			return validRect.Origin.X + validRect.Size.X - 1
		}
		return x
	}
	clampY := func(y int) int {
		if y < validRect.Origin.Y {
			return validRect.Origin.Y
		}
		if y >= validRect.Origin.Y+validRect.Size.Y {
			return validRect.Origin.Y + validRect.Size.Y - 1
		}
		return y
	}

	for y := 0; y < b.dim.Y; y++ {
		sy := clampY(y)
		for x := 0; x < b.dim.X; x++ {
			if x >= validRect.Origin.X && x < validRect.Origin.X+validRect.Size.X &&
				y >= validRect.Origin.Y && y < validRect.Origin.Y+validRect.Size.Y {
				continue
			}
			sx := clampX(x)
			for c := 0; c < b.cpp; c++ {
				switch b.pixelType {
				case TypeU16:
					b.Set16(x, y, c, b.Get16(sx, sy, c))
				case TypeF32:
					b.SetUncroppedF32(x+b.cropOffset.X, y+b.cropOffset.Y, c,
						b.GetUncroppedF32(sx+b.cropOffset.X, sy+b.cropOffset.Y, c))
				}
			}
		}
	}
	return nil
}

// Retain increments the shared-ownership reference count.
func (b *Buffer) Retain() {
	b.refMu.Lock()
	b.refCount++
	b.refMu.Unlock()
}

// Release decrements the reference count and reports whether this was
// the last handle (the caller may now drop the buffer).
func (b *Buffer) Release() bool {
	b.refMu.Lock()
	defer b.refMu.Unlock()
	b.refCount--
	return b.refCount == 0
}
