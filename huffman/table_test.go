package huffman

import (
	"errors"
	"testing"

	"github.com/cocosip/go-rawpixel/bitpump"
	"github.com/cocosip/go-rawpixel/rawerr"
)

// S1-style table: two 1-bit codes, both decoding to category 0.
func oneBitCategoryZeroTable(t *testing.T) *Table {
	var counts [16]int
	counts[0] = 2
	tbl, err := Build(counts, []byte{0, 0})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tbl
}

func TestBuildExactCodeSpace(t *testing.T) {
	tbl := oneBitCategoryZeroTable(t)
	if !tbl.IsFullDecode() {
		t.Fatal("expected full-decode table")
	}
}

func TestBuildRejectsShortCodeSpace(t *testing.T) {
	// A single 1-bit code only fills half the 16-bit space.
	var counts [16]int
	counts[0] = 1
	if _, err := Build(counts, []byte{0}); !errors.Is(err, rawerr.ErrBadHuffmanTable) {
		t.Fatalf("got %v, want ErrBadHuffmanTable", err)
	}
}

func TestBuildRejectsCountSymbolMismatch(t *testing.T) {
	// S5: counts summing to more symbols than provided.
	var counts [16]int
	counts[0] = 2
	if _, err := Build(counts, []byte{0}); !errors.Is(err, rawerr.ErrBadHuffmanTable) {
		t.Fatalf("got %v, want ErrBadHuffmanTable", err)
	}
}

func TestIsFullDecodeRejectsOutOfRangeSymbol(t *testing.T) {
	var counts [16]int
	counts[0] = 2
	tbl, err := Build(counts, []byte{0, 17})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tbl.IsFullDecode() {
		t.Fatal("category 17 is outside 0..16, expected IsFullDecode() == false")
	}
}

func TestDecodeDifferenceAllZero(t *testing.T) {
	tbl := oneBitCategoryZeroTable(t)
	bs := bitpump.New([]byte{0x00, 0x00})
	for i := 0; i < 4; i++ {
		v, err := tbl.DecodeDifference(bs)
		if err != nil {
			t.Fatalf("DecodeDifference: %v", err)
		}
		if v != 0 {
			t.Fatalf("DecodeDifference = %d, want 0", v)
		}
	}
}

// Two codes: "0" -> category 1, "1" -> category 2. Verifies EXTEND
// sign reconstruction for both polarities.
func buildTwoCategoryTable(t *testing.T) *Table {
	var counts [16]int
	counts[0] = 2
	tbl, err := Build(counts, []byte{1, 2})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tbl
}

func TestDecodeDifferenceSignExtension(t *testing.T) {
	tbl := buildTwoCategoryTable(t)

	// Code "0" + extra bit "0" -> category 1, raw bits=0, EXTEND -> -1.
	bs := bitpump.New([]byte{0b00000000})
	v, err := tbl.DecodeDifference(bs)
	if err != nil {
		t.Fatalf("DecodeDifference: %v", err)
	}
	if v != -1 {
		t.Fatalf("got %d, want -1", v)
	}

	// Code "0" + extra bit "1" -> category 1, raw bits=1, EXTEND -> 1.
	bs = bitpump.New([]byte{0b01000000})
	v, err = tbl.DecodeDifference(bs)
	if err != nil {
		t.Fatalf("DecodeDifference: %v", err)
	}
	if v != 1 {
		t.Fatalf("got %d, want 1", v)
	}

	// Code "1" + extra bits "01" -> category 2, raw bits=1, EXTEND -> -2.
	bs = bitpump.New([]byte{0b10100000})
	v, err = tbl.DecodeDifference(bs)
	if err != nil {
		t.Fatalf("DecodeDifference: %v", err)
	}
	if v != -2 {
		t.Fatalf("got %d, want -2", v)
	}
}

func TestDecodeDifferenceEscapeCategorySixteen(t *testing.T) {
	var counts [16]int
	counts[0] = 2
	tbl, err := Build(counts, []byte{0, escapeCategory})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Two 1-bit codes: "0" -> category 0, "1" -> category 16 (escape).
	// The escape reads no extra bits and always yields 32768.
	bs := bitpump.New([]byte{0x80, 0x00})
	v, err := tbl.DecodeDifference(bs)
	if err != nil {
		t.Fatalf("DecodeDifference: %v", err)
	}
	if v != 32768 {
		t.Fatalf("got %d, want 32768", v)
	}
}

func TestParseDHTBytesRoundTrip(t *testing.T) {
	data := make([]byte, 16+2)
	data[0] = 2 // two 1-bit codes
	data[16] = 0
	data[17] = 0

	tbl, err := ParseDHTBytes(data)
	if err != nil {
		t.Fatalf("ParseDHTBytes: %v", err)
	}
	if !tbl.IsFullDecode() {
		t.Fatal("expected full-decode table")
	}
}

func TestParseDHTBytesTooShort(t *testing.T) {
	if _, err := ParseDHTBytes(make([]byte, 8)); !errors.Is(err, rawerr.ErrBadHuffmanTable) {
		t.Fatalf("got %v, want ErrBadHuffmanTable", err)
	}
}

func TestDecodeDifferenceTruncatedStream(t *testing.T) {
	tbl := buildTwoCategoryTable(t)
	bs := bitpump.New(nil)
	if _, err := tbl.DecodeDifference(bs); !errors.Is(err, rawerr.ErrTruncatedStream) {
		t.Fatalf("got %v, want ErrTruncatedStream", err)
	}
}
