// Package huffman builds canonical JPEG-lossless Huffman tables and
// decodes the sign-extended differences that drive the CR2 predictor
// chain. Tables are immutable once built; the zero value is not usable.
package huffman

import (
	"github.com/cocosip/go-rawpixel/bitpump"
	"github.com/cocosip/go-rawpixel/rawerr"
)

// escapeCategory is the JPEG lossless SSSS=16 escape: it reads no extra
// bits and always yields the fixed difference magnitude 32768.
const escapeCategory = 16

// fastBits is the width of the full-decode lookup table, keyed by the
// next fastBits MSB bits of the stream.
const fastBits = 16

// Table is a canonical Huffman table built from a JPEG-style
// code-length histogram and symbol list (JPEG Annex C construction).
type Table struct {
	counts  [16]int
	symbols []byte

	minCode [16]int32
	maxCode [16]int32
	valPtr  [16]int32

	// lut[code] packs (length<<8 | symbol) for every 16-bit code prefix
	// that resolves within its first `length` bits; 0 means "no code of
	// 8 bits or less matches here, fall back to the slow path" is not
	// needed since every prefix of a valid canonical table that extends
	// a real code is filled by the loop below. Entries for prefixes
	// that don't correspond to any valid code are left at -1.
	lut [1 << fastBits]int32
}

// Build constructs a Table from a code-length histogram (counts[i] is
// the number of codes of length i+1, i.e. counts[0] is length-1 codes)
// and the symbol list ordered by increasing code length. It validates
// that the code space is exactly filled: Σ counts[i]·2^(15−i) == 2^16.
func Build(counts [16]int, symbols []byte) (*Table, error) {
	total := 0
	var space int64
	for i, c := range counts {
		if c < 0 {
			return nil, rawerr.ErrBadHuffmanTable
		}
		total += c
		space += int64(c) << uint(16-(i+1))
	}
	if total != len(symbols) {
		return nil, rawerr.ErrBadHuffmanTable
	}
	if space != 1<<16 {
		return nil, rawerr.ErrBadHuffmanTable
	}

	t := &Table{counts: counts, symbols: symbols}
	t.build()
	return t, nil
}

// ParseDHTBytes parses a Huffman table in standard JPEG DHT payload
// layout: 16 length-count bytes followed by Σcounts symbol bytes, one
// byte per symbol (no table-class/table-ID prefix — the caller has
// already demultiplexed per component).
func ParseDHTBytes(data []byte) (*Table, error) {
	if len(data) < 16 {
		return nil, rawerr.ErrBadHuffmanTable
	}
	var counts [16]int
	total := 0
	for i := 0; i < 16; i++ {
		counts[i] = int(data[i])
		total += counts[i]
	}
	if len(data) != 16+total {
		return nil, rawerr.ErrBadHuffmanTable
	}
	symbols := make([]byte, total)
	copy(symbols, data[16:16+total])
	return Build(counts, symbols)
}

// build fills the fast lookup table and the canonical min/max/valPtr
// arrays used by the slow bit-by-bit fallback near end of stream. Both
// are derived from the same running canonical code counter so the
// fast path and the slow path never disagree.
func (t *Table) build() {
	for i := range t.lut {
		t.lut[i] = -1
	}

	code := int32(0)
	p := 0
	for l := 0; l < 16; l++ {
		n := t.counts[l]
		length := l + 1
		if n == 0 {
			t.maxCode[l] = -1
			code <<= 1
			continue
		}

		t.valPtr[l] = int32(p)
		t.minCode[l] = code

		for i := 0; i < n; i++ {
			entry := int32(length)<<8 | int32(t.symbols[p])
			prefix := int(code) << uint(fastBits-length)
			for j := 0; j < 1<<uint(fastBits-length); j++ {
				t.lut[prefix+j] = entry
			}
			code++
			p++
		}

		t.maxCode[l] = code - 1
		code <<= 1
	}
}

// IsFullDecode reports whether the symbol alphabet is a full-decode
// (magnitude category) alphabet: every symbol is a category in 0..16.
func (t *Table) IsFullDecode() bool {
	if len(t.symbols) == 0 {
		return false
	}
	for _, s := range t.symbols {
		if s > escapeCategory {
			return false
		}
	}
	return true
}

// decodeSymbol returns the next Huffman symbol off bs, using the
// fastBits-wide lookup table when enough bits remain and falling back
// to a bit-by-bit canonical decode near end of stream.
func (t *Table) decodeSymbol(bs *bitpump.Reader) (byte, error) {
	if peek, err := bs.Peek(fastBits); err == nil {
		entry := t.lut[peek]
		if entry >= 0 {
			length := int(entry >> 8)
			bs.Skip(length)
			return byte(entry), nil
		}
		// A full 16-bit peek with no LUT hit means the stream holds no
		// valid code at this position.
		return 0, rawerr.ErrCorruptStream
	}

	// Near end of stream: not enough bits for a full peek. Decode one
	// bit at a time against the canonical min/max/valPtr tables.
	code := int32(0)
	for l := 0; l < 16; l++ {
		bit, err := bs.Get(1)
		if err != nil {
			return 0, err
		}
		code = code<<1 | int32(bit)
		if t.maxCode[l] >= 0 && code <= t.maxCode[l] {
			idx := t.valPtr[l] + code - t.minCode[l]
			if idx < 0 || int(idx) >= len(t.symbols) {
				return 0, rawerr.ErrCorruptStream
			}
			return t.symbols[idx], nil
		}
	}
	return 0, rawerr.ErrCorruptStream
}

// DecodeDifference decodes one sign-extended JPEG-lossless difference:
// a magnitude category symbol followed by that many raw magnitude
// bits, standard EXTEND sign-reconstruction applied. Never reads more
// than 16 + 15 = 31 bits. Category 16 is the fixed escape that reads
// zero extra bits and always yields +32768.
func (t *Table) DecodeDifference(bs *bitpump.Reader) (int32, error) {
	ssss, err := t.decodeSymbol(bs)
	if err != nil {
		return 0, err
	}
	if ssss > escapeCategory {
		return 0, rawerr.ErrCorruptStream
	}
	if ssss == escapeCategory {
		return 32768, nil
	}
	if ssss == 0 {
		return 0, nil
	}

	bits, err := bs.Get(int(ssss))
	if err != nil {
		return 0, err
	}

	v := int32(bits)
	half := int32(1) << (ssss - 1)
	if v < half {
		v += -(int32(1) << ssss) + 1
	}
	return v, nil
}
