package pixelbuffer

import (
	"fmt"

	"github.com/cocosip/go-rawpixel/rawerr"
)

// cellScale is a 16.16 fixed-point multiplier for one CFA cell (or a
// single entry when the buffer is not a CFA image).
type cellScale struct {
	black int32
	scale int64 // 16.16 fixed-point
}

// perCellBlack resolves black[0..3]: either the caller-supplied scalar
// or per-cell array, or an estimate averaged from BlackAreas.
func (b *Buffer) perCellBlack() [4]int32 {
	var black [4]int32

	if b.BlackLevel >= 0 {
		for i := range black {
			if b.BlackLevelSeparate[i] != 0 {
				black[i] = int32(b.BlackLevelSeparate[i])
			} else {
				black[i] = int32(b.BlackLevel)
			}
		}
		return black
	}

	var sums [4]int64
	var counts [4]int64
	for _, area := range b.BlackAreas {
		r := area.Rect
		var areaSum [4]int64
		var areaCount [4]int64
		for y := r.Origin.Y; y < r.Origin.Y+r.Size.Y; y++ {
			for x := r.Origin.X; x < r.Origin.X+r.Size.X; x++ {
				cell := b.cellIndex(x, y)
				areaSum[cell] += int64(b.GetUncropped16(x, y, 0))
				areaCount[cell]++
			}
		}
		for c := 0; c < 4; c++ {
			if areaCount[c] > 0 {
				sums[c] += areaSum[c] / areaCount[c]
				counts[c]++
			}
		}
	}
	for c := 0; c < 4; c++ {
		if counts[c] > 0 {
			black[c] = int32(sums[c] / counts[c])
		}
	}
	return black
}

func (b *Buffer) cellIndex(x, y int) int {
	if !b.IsCFA || b.Cfa.Size.X == 0 {
		return 0
	}
	return int(b.Cfa.ColorAt(x, y))
}

func (b *Buffer) cellScales() [4]cellScale {
	black := b.perCellBlack()
	var cells [4]cellScale
	for c := 0; c < 4; c++ {
		cells[c].black = black[c]
		denom := int64(b.WhitePoint) - int64(black[c])
		if denom <= 0 {
			cells[c].scale = 0
			continue
		}
		cells[c].scale = (65535 * 16 << 16) / denom
	}
	return cells
}

// u16Ops implements sampleOps for 16-bit-sample buffers: the full
// suite of scaling, lookup and bad-pixel interpolation.
type u16Ops struct{}

func (u16Ops) scaleBlackWhite(b *Buffer, startY, endY int) {
	cells := b.cellScales()
	for y := startY; y < endY; y++ {
		rng := NewDitherRNG(uint32(y) ^ 0xBAD)
		for x := 0; x < b.uncroppedDim.X; x++ {
			cell := b.cellIndex(x, y)
			cs := cells[cell]
			for c := 0; c < b.cpp; c++ {
				raw := int64(b.GetUncropped16(x, y, c))
				v := (raw - int64(cs.black)) * cs.scale
				v = (v + (1 << 19)) >> 20 // >>16 undoes the 16.16 fixed point, >>4 undoes the x16 factor
				if b.DitherScale {
					v += int64(int32(rng.Next()&2047) - 1024)
				}
				if v < 0 {
					v = 0
				}
				if v > 65535 {
					v = 65535
				}
				b.SetUncropped16(x, y, c, uint16(v))
			}
		}
	}
}

func (u16Ops) doLookup(b *Buffer, startY, endY int) error {
	if b.table == nil {
		return nil
	}
	for y := startY; y < endY; y++ {
		rng := NewDitherRNG(uint32(y) ^ 0xBAD)
		for x := 0; x < b.uncroppedDim.X; x++ {
			for c := 0; c < b.cpp; c++ {
				v := b.GetUncropped16(x, y, c)
				b.SetUncropped16(x, y, c, b.table.ApplyDithered(v, rng))
			}
		}
	}
	return nil
}

func (u16Ops) fixBadPixel(b *Buffer, x, y, component int) {
	var candidates []Point
	if b.IsCFA {
		n := cfaDiagonalNeighbors(x, y)
		candidates = n[:]
	} else {
		n := spatialNeighbors(x, y)
		candidates = n[:]
	}

	var sum int64
	good := 0
	for _, p := range candidates {
		if !b.inBounds(p) || b.badPixelBit(p.X, p.Y) {
			continue
		}
		sum += int64(b.GetUncropped16(p.X, p.Y, component))
		good++
	}

	if good < 2 {
		b.errs.Append(fmt.Sprintf("fixBadPixel: (%d,%d) component %d has %d good neighbors, want >= 2", x, y, component, good))
		return
	}
	b.SetUncropped16(x, y, component, uint16(sum/int64(good)))
}

// f32Ops implements sampleOps for float32 buffers: an affine
// black/white remap, a disabled lookup path, and an eight-neighbor
// average for bad-pixel fixing.
type f32Ops struct{}

func (f32Ops) scaleBlackWhite(b *Buffer, startY, endY int) {
	black := b.perCellBlack()
	white := float32(b.WhitePoint)
	for y := startY; y < endY; y++ {
		for x := 0; x < b.uncroppedDim.X; x++ {
			cell := b.cellIndex(x, y)
			denom := white - float32(black[cell])
			if denom <= 0 {
				continue
			}
			for c := 0; c < b.cpp; c++ {
				raw := b.GetUncroppedF32(x, y, c)
				v := (raw - float32(black[cell])) / denom
				b.SetUncroppedF32(x, y, c, v)
			}
		}
	}
}

func (f32Ops) doLookup(b *Buffer, startY, endY int) error {
	return rawerr.ErrUnsupported
}

func (f32Ops) fixBadPixel(b *Buffer, x, y, component int) {
	n := spatialNeighbors(x, y)
	var sum float32
	good := 0
	for _, p := range n {
		if !b.inBounds(p) || b.badPixelBit(p.X, p.Y) {
			continue
		}
		sum += b.GetUncroppedF32(p.X, p.Y, component)
		good++
	}
	if good < 2 {
		b.errs.Append(fmt.Sprintf("fixBadPixel: (%d,%d) component %d has %d good neighbors, want >= 2", x, y, component, good))
		return
	}
	b.SetUncroppedF32(x, y, component, sum/float32(good))
}
