package pixelbuffer

// badPixelMapRowBits is the bitmap row width in bits: the map is
// row-padded to a 32-bit boundary so word-at-a-time scans never read
// across a row seam.
const badPixelMapRowBits = 32

// AddBadPixel records (x, y) as needing interpolation. Safe for
// concurrent use; positions are packed as x | (y << 16).
func (b *Buffer) AddBadPixel(x, y int) {
	b.badPixelMu.Lock()
	b.badPixelPositions = append(b.badPixelPositions, uint32(x)|uint32(y)<<16)
	b.badPixelMu.Unlock()
}

// CreateBadPixelMap allocates the dense bitmap sized to uncroppedDim.
func (b *Buffer) CreateBadPixelMap() {
	pitchWords := (b.uncroppedDim.X + badPixelMapRowBits - 1) / badPixelMapRowBits
	b.badPixelMapPitch = pitchWords * 4
	b.badPixelMap = make([]byte, b.badPixelMapPitch*b.uncroppedDim.Y)
}

func (b *Buffer) setBadPixelBit(x, y int) {
	if b.badPixelMap == nil {
		b.CreateBadPixelMap()
	}
	byteOff := y*b.badPixelMapPitch + x/8
	b.badPixelMap[byteOff] |= 1 << uint(x%8)
}

func (b *Buffer) badPixelBit(x, y int) bool {
	if b.badPixelMap == nil {
		return false
	}
	byteOff := y*b.badPixelMapPitch + x/8
	return b.badPixelMap[byteOff]&(1<<uint(x%8)) != 0
}

// TransferBadPixelsToMap drains bad_pixel_positions into the bitmap
// under the bad-pixel lock. Idempotent: draining an already-empty
// list leaves the map bit-identical.
func (b *Buffer) TransferBadPixelsToMap() {
	b.badPixelMu.Lock()
	positions := b.badPixelPositions
	b.badPixelPositions = nil
	b.badPixelMu.Unlock()

	if len(positions) == 0 {
		return
	}
	for _, p := range positions {
		x := int(p & 0xFFFF)
		y := int(p >> 16)
		b.setBadPixelBit(x, y)
	}
}

// FixBadPixels runs the bad-pixel interpolation pass over every set
// bit in the bitmap, dispatching the per-pixel-type averaging rule.
func (b *Buffer) FixBadPixels() {
	if b.badPixelMap == nil {
		return
	}
	for y := 0; y < b.uncroppedDim.Y; y++ {
		for x := 0; x < b.uncroppedDim.X; x++ {
			if !b.badPixelBit(x, y) {
				continue
			}
			for c := 0; c < b.cpp; c++ {
				b.ops.fixBadPixel(b, x, y, c)
			}
		}
	}
}

// cfaDiagonalNeighbors returns the four same-color CFA-diagonal
// neighbor coordinates of (x, y): NW, NE, SW, SE.
func cfaDiagonalNeighbors(x, y int) [4]Point {
	return [4]Point{
		{x - 2, y - 2}, {x + 2, y - 2},
		{x - 2, y + 2}, {x + 2, y + 2},
	}
}

// spatialNeighbors returns the eight neighbors of (x, y).
func spatialNeighbors(x, y int) [8]Point {
	return [8]Point{
		{x - 1, y - 1}, {x, y - 1}, {x + 1, y - 1},
		{x - 1, y}, {x + 1, y},
		{x - 1, y + 1}, {x, y + 1}, {x + 1, y + 1},
	}
}

func (b *Buffer) inBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < b.uncroppedDim.X && p.Y < b.uncroppedDim.Y
}
