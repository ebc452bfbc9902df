package cr2

import (
	"github.com/cocosip/go-rawpixel/bitpump"
	"github.com/cocosip/go-rawpixel/pixelbuffer"
	"github.com/cocosip/go-rawpixel/rawerr"
)

// decompress2_1_1, decompress4_1_1, decompress3_2_1 and decompress3_2_2
// are the four supported (N, Xf, Yf) entry points. Go has no template
// monomorphization, so rather than branch per pixel on format inside
// one loop, each wrapper locks in its tuple as a compile-time constant
// argument to the shared geometry-configured core — the same
// specialization intent as four concrete inner loops, expressed as
// four thin named callers instead of four duplicated loop bodies.
func decompress2_1_1(d *Decompressor, data []byte, buf *pixelbuffer.Buffer) error {
	return decodeCore(d, data, buf, 2, 1, 1)
}

func decompress4_1_1(d *Decompressor, data []byte, buf *pixelbuffer.Buffer) error {
	return decodeCore(d, data, buf, 4, 1, 1)
}

func decompress3_2_1(d *Decompressor, data []byte, buf *pixelbuffer.Buffer) error {
	return decodeCore(d, data, buf, 3, 2, 1)
}

func decompress3_2_2(d *Decompressor, data []byte, buf *pixelbuffer.Buffer) error {
	return decodeCore(d, data, buf, 3, 2, 2)
}

// decodeCore is the slice-interleaved, predictor-chained decode loop
// shared by every (N, Xf, Yf) tuple. n, xf, yf are passed explicitly
// (redundant with d.Format) purely so each wrapper's call site reads
// as a concrete specialization rather than a generic dispatch.
func decodeCore(d *Decompressor, data []byte, buf *pixelbuffer.Buffer, n, xf, yf int) error {
	f := Format{n, xf, yf}
	subSampled := f.subSampled()
	gs := groupSize(f)
	sliceColStep := n * xf
	frameRowStep := yf
	pixelsPerGroup := xf * yf
	cppEff := 1
	if subSampled {
		cppEff = 3
	}
	cpg := colsPerGroup(f)

	dim := buf.Dim()
	realDim := realDimension(f, dim)

	bs := bitpump.New(data)

	pred := make([]uint16, n)
	for c, r := range d.Recipes {
		pred[c] = r.InitPred
	}

	predNextRow, predNextCol := 0, 0

	globalFrameCol := 0
	globalFrameRow := 0

	frame := d.Frame
	slicing := d.Slicing

	for sliceID := 0; sliceID < slicing.NumSlices; sliceID++ {
		sliceWidth := slicing.WidthOfSlice(sliceID)

		for sliceFrameRow := 0; sliceFrameRow < frame.Y; sliceFrameRow += frameRowStep {
			row := globalFrameRow % realDim.Y
			col := globalFrameRow / realDim.Y * slicing.WidthOfSlice(0) / cppEff
			if col >= realDim.X {
				break
			}

			pixelsPerSliceRow := sliceWidth / cppEff
			if col+pixelsPerSliceRow > realDim.X {
				return rawerr.ErrBadSliceGeometry
			}
			if sliceID+1 == slicing.NumSlices && col+pixelsPerSliceRow != realDim.X {
				return rawerr.ErrBadSliceGeometry
			}

			row /= yf
			col /= xf
			col *= cpg

			for sliceCol := 0; sliceCol < sliceWidth; {
				if globalFrameCol == frame.X {
					for c := 0; c < n; c++ {
						idx := 0
						if c != 0 {
							idx = gs - (n - c)
						}
						pred[c] = predNextSample(buf, predNextRow, predNextCol, idx)
					}
					predNextRow, predNextCol = row, col
					globalFrameCol = 0
				}

				remainingInFrameRow := sliceColStep * ((frame.X - globalFrameCol) / xf)
				remainingInSliceRow := sliceWidth - sliceCol
				remaining := remainingInSliceRow
				if remainingInFrameRow < remaining {
					remaining = remainingInFrameRow
				}
				if remaining < sliceColStep || remaining%sliceColStep != 0 {
					return rawerr.ErrBadSliceGeometry
				}

				for sliceColEnd := sliceCol + remaining; sliceCol < sliceColEnd; sliceCol, globalFrameCol, col = sliceCol+sliceColStep, globalFrameCol+xf, col+gs {
					for p := 0; p < gs; p++ {
						c := 0
						if p >= pixelsPerGroup {
							c = p - pixelsPerGroup + 1
						}
						diff, err := d.Recipes[c].Huffman.DecodeDifference(bs)
						if err != nil {
							return err
						}
						pred[c] = uint16(int32(pred[c]) + diff)
						buf.SetUncropped16(col+p, row, 0, pred[c])
					}
				}
			}

			globalFrameRow += frameRowStep
		}
	}

	return nil
}

// predNextSample reads the sample at the row-major flat offset
// (row, col+idx) snapshotted at the start of the current frame row.
// idx can run past the logical row width into a row's trailing
// padding, mirroring the raw-pointer arithmetic the format's
// predictor-wrap rule was authored against; the buffer's padding
// exists precisely to make that safe.
func predNextSample(buf *pixelbuffer.Buffer, row, col, idx int) uint16 {
	return buf.GetUncropped16(col+idx, row, 0)
}
