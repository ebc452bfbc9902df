package pixelbuffer

import "golang.org/x/sys/cpu"

// hasSSE2 reports whether the host could run a vectorized scale/lookup
// path. Only the scalar path is implemented; this exists so a future
// SIMD path can be gated behind it without touching callers, matching
// the scalar-first, capability-gated rollout the format calls for.
func hasSSE2() bool {
	return cpu.X86.HasSSE2
}
