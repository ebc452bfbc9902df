package pixelbuffer

import (
	"runtime"
	"sync"
)

// Task is a post-process worker task, matching the original bit-flag
// encoding so container parsers that pass the raw integer through
// keep working: the low bits select the operation, bit 0x1000 forces
// the dispatcher to use the uncropped row range regardless of the
// caller's crop.
type Task uint32

const (
	opScaleValues  Task = 1
	opFixBadPixels Task = 2
	opApplyLookup  Task = 3

	TaskFullImage Task = 0x1000

	TaskScaleValues  = opScaleValues
	TaskFixBadPixels = opFixBadPixels
	TaskApplyLookup  = opApplyLookup | TaskFullImage
)

func (t Task) op() Task { return t &^ TaskFullImage }

// ScaleBlackWhite computes per-CFA-cell black levels and applies the
// scale-to-16-bit remap over [startY, endY). Only the scalar path
// runs; SIMDCapable reports whether this host could in principle run
// a vectorized path gated behind it later, without this call site
// changing.
func (b *Buffer) ScaleBlackWhite(startY, endY int) {
	b.ops.scaleBlackWhite(b, startY, endY)
}

// SIMDCapable reports whether the host supports the instruction set a
// vectorized scale/lookup path would require. Informational only: the
// scalar path always runs, and must match a future SIMD path bit for
// bit on hosts where this is true.
func (b *Buffer) SIMDCapable() bool { return b.simdCapable }

// ApplyLookup applies the installed lookup curve over [startY, endY).
// A no-op if no table is installed.
func (b *Buffer) ApplyLookup(startY, endY int) error {
	return b.ops.doLookup(b, startY, endY)
}

// Dispatch partitions the relevant row range into hardware_parallelism
// bands and runs task workers concurrently, joining before return. No
// worker panic escapes: failures are caught and appended to the error
// log, and Dispatch reports whether any worker failed.
func (b *Buffer) Dispatch(task Task, cropped bool) bool {
	startY, endY := 0, b.uncroppedDim.Y
	if cropped && task&TaskFullImage == 0 {
		startY, endY = b.cropOffset.Y, b.cropOffset.Y+b.dim.Y
	}

	bands := hardwareParallelism()
	rows := endY - startY
	if rows <= 0 {
		return false
	}
	if bands > rows {
		bands = rows
	}

	var wg sync.WaitGroup
	var failedMu sync.Mutex
	failed := false

	bandSize := (rows + bands - 1) / bands
	for band := 0; band < bands; band++ {
		bandStart := startY + band*bandSize
		bandEnd := bandStart + bandSize
		if bandEnd > endY {
			bandEnd = endY
		}
		if bandStart >= bandEnd {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					failedMu.Lock()
					failed = true
					failedMu.Unlock()
					b.errs.Append("worker panic recovered during dispatch")
				}
			}()
			if !b.runWorker(task.op(), s, e) {
				failedMu.Lock()
				failed = true
				failedMu.Unlock()
			}
		}(bandStart, bandEnd)
	}
	wg.Wait()
	return failed
}

// runWorker runs op over [startY, endY) and reports false if the
// worker failed; the failure is appended to the error log.
func (b *Buffer) runWorker(op Task, startY, endY int) bool {
	switch op {
	case opScaleValues:
		b.ScaleBlackWhite(startY, endY)
	case opFixBadPixels:
		b.fixBadPixelsRange(startY, endY)
	case opApplyLookup:
		if err := b.ApplyLookup(startY, endY); err != nil {
			b.errs.Append("applyLookup: " + err.Error())
			return false
		}
	}
	return true
}

func (b *Buffer) fixBadPixelsRange(startY, endY int) {
	if b.badPixelMap == nil {
		return
	}
	for y := startY; y < endY; y++ {
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

// hardwareParallelism is the fixed band count, read from GOMAXPROCS
// once at package initialization and not re-evaluated per task.
func hardwareParallelism() int { return fixedBandCount }

var fixedBandCount = func() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}()
