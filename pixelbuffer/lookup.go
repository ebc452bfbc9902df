package pixelbuffer

import "github.com/cocosip/go-rawpixel/rawerr"

// lookupSize is the fixed domain of a u16 -> u16 lookup table: every
// possible sample value gets its own entry.
const lookupSize = 65536

// DitherRNG is the deterministic linear-congruential stream used to
// jitter sub-integer lookup interpolation. The seed is caller-owned so
// scale-black-white and apply-lookup passes can reproduce the same
// sequence across runs given the same seed.
type DitherRNG struct {
	state uint32
}

// NewDitherRNG seeds a stream. Two RNGs created with the same seed
// produce the same sequence.
func NewDitherRNG(seed uint32) *DitherRNG {
	return &DitherRNG{state: seed}
}

// Next advances the stream and returns the new state.
func (r *DitherRNG) Next() uint32 {
	r.state = 15700*(r.state&0xFFFF) + (r.state >> 16)
	return r.state
}

// LookupTable is an immutable-after-construction 65536-entry u16 -> u16
// curve, optionally paired with per-entry deltas for dithered
// sub-integer interpolation during the decompressor's fast path.
type LookupTable struct {
	values []uint16
	deltas []uint16
	dither bool
}

// NewLookupTable builds a table from exactly lookupSize entries. When
// dither is true, each entry is paired with the delta to the next
// entry (the last entry's delta is zero, there being no entry beyond
// it to interpolate toward).
func NewLookupTable(values []uint16, dither bool) (*LookupTable, error) {
	if len(values) != lookupSize {
		return nil, rawerr.ErrUsage
	}
	t := &LookupTable{
		values: append([]uint16(nil), values...),
		dither: dither,
	}
	if dither {
		t.deltas = make([]uint16, lookupSize)
		for i := 0; i < lookupSize-1; i++ {
			t.deltas[i] = values[i+1] - values[i]
		}
	}
	return t, nil
}

// Apply returns the plain (non-dithered) lookup of v.
func (t *LookupTable) Apply(v uint16) uint16 {
	return t.values[v]
}

// ApplyDithered returns the lookup of v, jittered by one LCG draw when
// the table was built with dither enabled; it falls back to the plain
// lookup otherwise.
func (t *LookupTable) ApplyDithered(v uint16, rng *DitherRNG) uint16 {
	base := t.values[v]
	if !t.dither {
		return base
	}
	delta := int32(t.deltas[v])
	r := rng.Next()
	return uint16(int32(base) + ((delta*int32(r&2047) + 1024) >> 12))
}

// SetTable installs values as the buffer's lookup, or clears it when
// values is nil. Only u16 buffers support a lookup; installing one on
// an f32 buffer is Unsupported.
func (b *Buffer) SetTable(values []uint16, dither bool) error {
	if values == nil {
		b.table = nil
		return nil
	}
	if b.pixelType != TypeU16 {
		return rawerr.ErrUnsupported
	}
	t, err := NewLookupTable(values, dither)
	if err != nil {
		return err
	}
	b.table = t
	return nil
}

// Table returns the currently installed lookup, or nil.
func (b *Buffer) Table() *LookupTable { return b.table }
