// Package bitpump implements an MSB-first, JPEG-byte-stuffed bit reader
// over a fixed byte slice. It is the lowest layer of the decompression
// pipeline: Huffman tables and the CR2 decoder consume bits through it
// and never touch the underlying byte slice directly.
//
// The reader is single-threaded by contract: callers must not share a
// *Reader across goroutines.
package bitpump

import "github.com/cocosip/go-rawpixel/rawerr"

// maxWindowBits is how full the 64-bit shift register is allowed to get
// before a refill, leaving room to always shift in a full byte.
const maxWindowBits = 56

// Reader is a 64-bit-window MSB-first bit pump with JPEG byte-stuffing
// (0xFF 0x00 -> 0xFF). It recognizes no restart markers: a 0xFF followed
// by anything other than 0x00 is a stream error, not an escape to a
// marker parser.
type Reader struct {
	data  []byte
	pos   int
	buf   uint64
	nbits uint
	err   error
}

// New returns a Reader over data, ready to pump bits from the start.
func New(data []byte) *Reader {
	return &Reader{data: data}
}

// fill tops the shift register up to maxWindowBits, stopping early on
// EOF or a byte-stuffing violation. It never errors by itself; Peek is
// the one that decides whether the shortfall matters.
func (r *Reader) fill() {
	if r.err != nil {
		return
	}
	for r.nbits <= maxWindowBits && r.pos < len(r.data) {
		b := r.data[r.pos]
		r.pos++

		if b == 0xFF {
			if r.pos >= len(r.data) {
				r.err = rawerr.ErrTruncatedStream
				return
			}
			if next := r.data[r.pos]; next == 0x00 {
				r.pos++
			} else {
				r.err = rawerr.ErrTruncatedStream
				return
			}
		}

		r.buf = (r.buf << 8) | uint64(b)
		r.nbits += 8
	}
}

// Peek returns the next n bits (1 <= n <= 25) without consuming them.
func (r *Reader) Peek(n int) (uint32, error) {
	if n < 1 || n > 25 {
		panic("bitpump: Peek width out of range")
	}
	r.fill()
	if r.nbits < uint(n) {
		if r.err != nil {
			return 0, r.err
		}
		return 0, rawerr.ErrTruncatedStream
	}
	shift := r.nbits - uint(n)
	mask := uint32(1)<<uint(n) - 1
	return uint32(r.buf>>shift) & mask, nil
}

// Skip advances past n bits already validated by a prior Peek.
func (r *Reader) Skip(n int) {
	if uint(n) > r.nbits {
		panic("bitpump: Skip past available bits; call Peek first")
	}
	r.nbits -= uint(n)
	r.buf &= uint64(1)<<r.nbits - 1
}

// Get is Peek followed by Skip.
func (r *Reader) Get(n int) (uint32, error) {
	v, err := r.Peek(n)
	if err != nil {
		return 0, err
	}
	r.Skip(n)
	return v, nil
}

// BytePosition returns the byte offset of the next unconsumed bit, for
// resync diagnostics and error messages.
func (r *Reader) BytePosition() int {
	return (r.pos*8 - int(r.nbits)) / 8
}
