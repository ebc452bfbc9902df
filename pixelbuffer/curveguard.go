package pixelbuffer

// CurveGuard is a scoped installation of a tone curve on a buffer for
// the duration of a decompression session. Release MUST run on every
// exit path, including error propagation — callers should defer it
// immediately after a successful Acquire.
type CurveGuard struct {
	buf                  *Buffer
	curve                []uint16
	uncorrectedRawValues bool
	released             bool
}

// AcquireCurveGuard installs curve on buf. When uncorrectedRawValues
// is false, the curve is installed with dither for the decompressor's
// fast path; when true, no curve is installed (callers want raw
// sensor values untouched).
func AcquireCurveGuard(buf *Buffer, curve []uint16, uncorrectedRawValues bool) (*CurveGuard, error) {
	g := &CurveGuard{buf: buf, curve: curve, uncorrectedRawValues: uncorrectedRawValues}
	if !uncorrectedRawValues && curve != nil {
		if err := buf.SetTable(curve, true); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Release installs the curve without dither for downstream consumers
// (or clears it if none was requested), and is safe to call more than
// once — only the first call has any effect.
func (g *CurveGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	if g.uncorrectedRawValues || g.curve == nil {
		_ = g.buf.SetTable(nil, false)
		return
	}
	_ = g.buf.SetTable(g.curve, false)
}
