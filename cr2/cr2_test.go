package cr2

import (
	"errors"
	"testing"

	"github.com/cocosip/go-rawpixel/huffman"
	"github.com/cocosip/go-rawpixel/pixelbuffer"
	"github.com/cocosip/go-rawpixel/rawerr"
)

// categoryZeroTable decodes any bit to magnitude category 0 (a fixed
// difference of 0), exactly filling the 16-bit code space with two
// 1-bit codes.
func categoryZeroTable(t *testing.T) *huffman.Table {
	var counts [16]int
	counts[0] = 2
	tbl, err := huffman.Build(counts, []byte{0, 0})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tbl
}

// S1 (2,1,1) minimal: frame 2x2, one slice width=2, init_pred=[512,512],
// a Huffman table encoding only category 0. Expected raster is
// [[512,512],[512,512]], cpp=1, is_cfa=true.
func TestS1Minimal211(t *testing.T) {
	ht := categoryZeroTable(t)
	d, err := New(
		Format{2, 1, 1},
		pixelbuffer.Point{X: 2, Y: 2},
		Slicing{NumSlices: 1, Width: 2, LastWidth: 2},
		[]ComponentRecipe{{Huffman: ht, InitPred: 512}, {Huffman: ht, InitPred: 512}},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	buf := pixelbuffer.NewU16(pixelbuffer.Point{X: 2, Y: 2}, 1)
	buf.IsCFA = true
	if err := buf.Allocate(); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if err := d.Decode([]byte{0x00, 0x00, 0x00, 0x00}, buf); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := [2][2]uint16{{512, 512}, {512, 512}}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if got := buf.GetUncropped16(x, y, 0); got != want[y][x] {
				t.Fatalf("pixel(%d,%d) = %d, want %d", x, y, got, want[y][x])
			}
		}
	}
}

// S3 predictor wrap: two slices each width=2, frame 4x1, (2,1,1),
// init=[100,200], all diffs zero. Expected: [[100,200,100,200]].
func TestS3PredictorContinuation(t *testing.T) {
	ht := categoryZeroTable(t)
	d, err := New(
		Format{2, 1, 1},
		pixelbuffer.Point{X: 4, Y: 1},
		Slicing{NumSlices: 2, Width: 2, LastWidth: 2},
		[]ComponentRecipe{{Huffman: ht, InitPred: 100}, {Huffman: ht, InitPred: 200}},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	buf := pixelbuffer.NewU16(pixelbuffer.Point{X: 4, Y: 1}, 1)
	buf.IsCFA = true
	if err := buf.Allocate(); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if err := d.Decode([]byte{0x00, 0x00, 0x00, 0x00}, buf); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := []uint16{100, 200, 100, 200}
	for x, w := range want {
		if got := buf.GetUncropped16(x, 0, 0); got != w {
			t.Fatalf("pixel(%d,0) = %d, want %d", x, got, w)
		}
	}
}

// S4 truncated stream: input shorter than required raises TruncatedStream.
func TestS4TruncatedStream(t *testing.T) {
	ht := categoryZeroTable(t)
	d, err := New(
		Format{2, 1, 1},
		pixelbuffer.Point{X: 2, Y: 2},
		Slicing{NumSlices: 1, Width: 2, LastWidth: 2},
		[]ComponentRecipe{{Huffman: ht, InitPred: 512}, {Huffman: ht, InitPred: 512}},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	buf := pixelbuffer.NewU16(pixelbuffer.Point{X: 2, Y: 2}, 1)
	buf.IsCFA = true
	if err := buf.Allocate(); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	// No bits at all to satisfy the first decode_difference call.
	if err := d.Decode([]byte{}, buf); !errors.Is(err, rawerr.ErrTruncatedStream) {
		t.Fatalf("got %v, want ErrTruncatedStream", err)
	}
}

// S7 predictor wrap, subsampled: format (3,2,1), three single-group
// slices each spanning exactly one coded frame row (frame.X == Xf), so
// globalFrameCol hits frame.X at the end of every slice and the wrap
// branch in decode.go reloads the predictor from the buffer before
// slice 1 and again before slice 2 — the invariant S1/S3 never drive.
func TestS7PredictorWrapSubsampled(t *testing.T) {
	ht := categoryZeroTable(t)
	d, err := New(
		Format{3, 2, 1},
		pixelbuffer.Point{X: 2, Y: 1},
		Slicing{NumSlices: 3, Width: 6, LastWidth: 6},
		[]ComponentRecipe{
			{Huffman: ht, InitPred: 100},
			{Huffman: ht, InitPred: 200},
			{Huffman: ht, InitPred: 300},
		},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	buf := pixelbuffer.NewU16(pixelbuffer.Point{X: 12, Y: 1}, 1)
	buf.IsCFA = false
	if err := buf.Allocate(); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if err := d.Decode([]byte{0x00, 0x00}, buf); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	// Each slice writes one group of 4: two luma samples (component 0,
	// diff 0 throughout) then the two chroma samples (components 1, 2).
	// The wrap reload before slices 1 and 2 must pull components 1 and
	// 2 from offsets 2 and 3 of the previous slice's group — if the
	// reload read the wrong offset, the B/C values below would shift.
	want := []uint16{100, 100, 200, 300, 100, 100, 200, 300, 100, 100, 200, 300}
	for x, w := range want {
		if got := buf.GetUncropped16(x, 0, 0); got != w {
			t.Fatalf("pixel(%d,0) = %d, want %d", x, got, w)
		}
	}
}

// S5 bad Huffman: counts summing to more symbols than supplied raises
// BadHuffmanTable at table construction time, before a Decompressor
// is ever built.
func TestS5BadHuffmanTable(t *testing.T) {
	var counts [16]int
	counts[0] = 2
	if _, err := huffman.Build(counts, []byte{0}); !errors.Is(err, rawerr.ErrBadHuffmanTable) {
		t.Fatalf("got %v, want ErrBadHuffmanTable", err)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	ht := categoryZeroTable(t)
	_, err := New(
		Format{5, 1, 1},
		pixelbuffer.Point{X: 2, Y: 2},
		Slicing{NumSlices: 1, Width: 2, LastWidth: 2},
		[]ComponentRecipe{{Huffman: ht, InitPred: 0}},
	)
	if !errors.Is(err, rawerr.ErrBadSliceGeometry) {
		t.Fatalf("got %v, want ErrBadSliceGeometry", err)
	}
}

func TestNewRejectsNonFullDecodeTable(t *testing.T) {
	var counts [16]int
	counts[0] = 2
	ht, err := huffman.Build(counts, []byte{0, 200})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	_, err = New(
		Format{2, 1, 1},
		pixelbuffer.Point{X: 2, Y: 2},
		Slicing{NumSlices: 1, Width: 2, LastWidth: 2},
		[]ComponentRecipe{{Huffman: ht, InitPred: 0}, {Huffman: ht, InitPred: 0}},
	)
	if !errors.Is(err, rawerr.ErrBadHuffmanTable) {
		t.Fatalf("got %v, want ErrBadHuffmanTable", err)
	}
}

func TestDecodeRejectsWrongPixelType(t *testing.T) {
	ht := categoryZeroTable(t)
	d, err := New(
		Format{2, 1, 1},
		pixelbuffer.Point{X: 2, Y: 2},
		Slicing{NumSlices: 1, Width: 2, LastWidth: 2},
		[]ComponentRecipe{{Huffman: ht, InitPred: 0}, {Huffman: ht, InitPred: 0}},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	buf := pixelbuffer.NewF32(pixelbuffer.Point{X: 2, Y: 2}, 1)
	if err := buf.Allocate(); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if err := d.Decode([]byte{0x00}, buf); !errors.Is(err, rawerr.ErrUsage) {
		t.Fatalf("got %v, want ErrUsage", err)
	}
}
