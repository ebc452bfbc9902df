// Package cr2 implements the Canon CR2 lossless-JPEG-like decoder: an
// N-component, sampling-factor-aware, predictor-chained Huffman
// difference stream, partitioned into vertical slices and reflowed
// into a rectangular sensor frame.
package cr2

import (
	"github.com/cocosip/go-rawpixel/huffman"
	"github.com/cocosip/go-rawpixel/pixelbuffer"
	"github.com/cocosip/go-rawpixel/rawerr"
)

const (
	maxDimX = 19440
	maxDimY = 5920
)

// Format is the (component count, horizontal sampling factor,
// vertical sampling factor) tuple a CR2 stream was coded with. Only
// four tuples occur in practice; New rejects anything else.
type Format struct {
	N, Xf, Yf int
}

var supportedFormats = map[Format]bool{
	{2, 1, 1}: true,
	{4, 1, 1}: true,
	{3, 2, 1}: true,
	{3, 2, 2}: true,
}

func (f Format) subSampled() bool { return f.Xf != 1 || f.Yf != 1 }

// Slicing describes how the coded frame was cut into vertical strips:
// numSlices-1 slices of width, followed by one slice of lastWidth.
type Slicing struct {
	NumSlices int
	Width     int
	LastWidth int
}

// WidthOfSlice returns the width of slice i.
func (s Slicing) WidthOfSlice(i int) int {
	if i+1 == s.NumSlices {
		return s.LastWidth
	}
	return s.Width
}

// TotalWidth sums the widths of every slice.
func (s Slicing) TotalWidth() int {
	if s.NumSlices == 0 {
		return 0
	}
	return s.Width*(s.NumSlices-1) + s.LastWidth
}

// ComponentRecipe is the per-component Huffman table plus the initial
// predictor value it's chained from.
type ComponentRecipe struct {
	Huffman  *huffman.Table
	InitPred uint16
}

// Decompressor is a validated CR2 decode plan: format tuple, coded
// frame dimensions, slicing, and one recipe per component.
type Decompressor struct {
	Format  Format
	Frame   pixelbuffer.Point
	Slicing Slicing
	Recipes []ComponentRecipe
}

// New validates a decode plan against the component-count/format
// consistency rules and the full-decode requirement on every supplied
// Huffman table, mirroring the preconditions a CR2 decoder enforces
// before it will touch the bit stream.
func New(format Format, frame pixelbuffer.Point, slicing Slicing, recipes []ComponentRecipe) (*Decompressor, error) {
	if !supportedFormats[format] {
		return nil, rawerr.ErrBadSliceGeometry
	}
	if len(recipes) != format.N {
		return nil, rawerr.ErrBadSliceGeometry
	}
	for _, r := range recipes {
		if r.Huffman == nil || !r.Huffman.IsFullDecode() {
			return nil, rawerr.ErrBadHuffmanTable
		}
	}
	for _, w := range []int{slicing.Width, slicing.LastWidth} {
		if w <= 0 {
			return nil, rawerr.ErrBadSliceGeometry
		}
	}
	return &Decompressor{Format: format, Frame: frame, Slicing: slicing, Recipes: recipes}, nil
}

// Name identifies this decompressor to the decompress.Registry.
func (d *Decompressor) Name() string { return "cr2-lossless" }

// Decode validates buf's preconditions and writes the decoded samples
// into buf's uncropped raster, dispatching to the inner loop
// specialized for d.Format.
func (d *Decompressor) Decode(data []byte, buf *pixelbuffer.Buffer) error {
	if err := d.checkPreconditions(buf); err != nil {
		return err
	}

	switch d.Format {
	case Format{2, 1, 1}:
		return decompress2_1_1(d, data, buf)
	case Format{4, 1, 1}:
		return decompress4_1_1(d, data, buf)
	case Format{3, 2, 1}:
		return decompress3_2_1(d, data, buf)
	case Format{3, 2, 2}:
		return decompress3_2_2(d, data, buf)
	}
	return rawerr.ErrBadSliceGeometry
}

func (d *Decompressor) checkPreconditions(buf *pixelbuffer.Buffer) error {
	if buf.PixelType() != pixelbuffer.TypeU16 || buf.Cpp() != 1 || buf.Bpp() != 2 {
		return rawerr.ErrUsage
	}
	dim := buf.Dim()
	if dim.X <= 0 || dim.X > maxDimX || dim.Y <= 0 || dim.Y > maxDimY {
		return rawerr.ErrBadSliceGeometry
	}
	if d.Format.subSampled() == buf.IsCFA {
		return rawerr.ErrBadSliceGeometry
	}

	cppEff := 1
	if d.Format.subSampled() {
		cppEff = 3
	}
	sliceColStep := d.Format.N * d.Format.Xf

	for _, w := range []int{d.Slicing.Width, d.Slicing.LastWidth} {
		if w%sliceColStep != 0 || w%cppEff != 0 {
			return rawerr.ErrBadSliceGeometry
		}
	}

	realDim := realDimension(d.Format, dim)
	if w := int64(d.Frame.Y) * int64(d.Slicing.TotalWidth()); w < int64(cppEff)*int64(realDim.X)*int64(realDim.Y) {
		return rawerr.ErrBadSliceGeometry
	}
	for _, w := range []int{d.Slicing.Width, d.Slicing.LastWidth} {
		if w > realDim.X {
			return rawerr.ErrBadSliceGeometry
		}
	}
	return nil
}

// groupSize is the number of samples a single predictor-update group
// writes: N luma-style samples when not subsampled, or an Xf*Yf luma
// block followed by two chroma samples when subsampled.
func groupSize(f Format) int {
	if !f.subSampled() {
		return f.N
	}
	return 2 + f.Xf*f.Yf
}

// colsPerGroup scales a frame row's starting column, after division by
// Xf, into an output column: a subsampled group index is multiplied by
// groupSize, while a non-subsampled column is already an output column.
func colsPerGroup(f Format) int {
	if f.subSampled() {
		return groupSize(f)
	}
	return 1
}

// realDimension maps coded-frame-relative dim into the logical output
// grid a group-based traversal advances across.
func realDimension(f Format, dim pixelbuffer.Point) pixelbuffer.Point {
	real := dim
	if f.subSampled() {
		real.X /= groupSize(f)
	}
	real.X *= f.Xf
	real.Y *= f.Yf
	return real
}
