package dsp

// boxcarU16Incremental computes out[i] = floor(mean(in[i:i+window])) for
// 0 <= i <= len(in)-window using an O(len) running sum (add the new tail
// sample, subtract the one falling out of the window) rather than the
// naive O(len*window) per-window summation. This is the only kernel
// registered for boxcar_u16 — there is exactly one sane way to do this
// correctly and efficiently, so there is no separate "generic" vs
// "optimized" split the way magnitude has.
func boxcarU16Incremental(in []uint16, window int, out []uint16) {
	if window <= 0 || len(in) < window {
		return
	}
	n := len(in) - window + 1
	if len(out) < n {
		n = len(out)
	}
	if n <= 0 {
		return
	}

	var sum uint64
	for j := 0; j < window; j++ {
		sum += uint64(in[j])
	}
	out[0] = uint16(sum / uint64(window))

	for i := 1; i < n; i++ {
		sum += uint64(in[i+window-1])
		sum -= uint64(in[i-1])
		out[i] = uint16(sum / uint64(window))
	}
}

// boxcarU16Naive recomputes each window's sum from scratch. It exists only
// as a test oracle proving the incremental implementation is bit-exact
// (spec §8 property 6), never as a registered dispatch entry — an O(n*w)
// kernel would violate spec 4.C's complexity requirement outright.
func boxcarU16Naive(in []uint16, window int, out []uint16) {
	if window <= 0 || len(in) < window {
		return
	}
	n := len(in) - window + 1
	if len(out) < n {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		var sum uint64
		for j := 0; j < window; j++ {
			sum += uint64(in[i+j])
		}
		out[i] = uint16(sum / uint64(window))
	}
}
