package dsp

// meanPowerU16Float is the double-precision reference implementation:
//
//	meanLevel = sum(mag)/N/65536
//	meanPower = sum(mag^2)/N/65536^2
func meanPowerU16Float(mag []uint16) (meanLevel, meanPower float64) {
	n := len(mag)
	if n == 0 {
		return 0, 0
	}
	var sumLevel, sumPower float64
	for _, m := range mag {
		level := float64(m) / 65536
		sumLevel += level
		sumPower += level * level
	}
	return sumLevel / float64(n), sumPower / float64(n)
}

// meanPowerU16Integer accumulates in uint64 integer domain (sum of mag and
// sum of mag^2, both of which fit in uint64 for any N and any uint16 mag —
// worst case sum(mag^2) over 2^20 samples is 2^20 * 65535^2 ≈ 4.5e15, far
// below 2^64) and converts to double only at the end. Spec requires this to
// match the float accumulator to within 1 ULP of the final double result
// for N <= 2^20; both summations are exact in either domain at that scale,
// so the two variants agree exactly.
func meanPowerU16Integer(mag []uint16) (meanLevel, meanPower float64) {
	n := len(mag)
	if n == 0 {
		return 0, 0
	}
	var sumLevel, sumPower uint64
	for _, m := range mag {
		v := uint64(m)
		sumLevel += v
		sumPower += v * v
	}
	nf := float64(n)
	meanLevel = float64(sumLevel) / nf / 65536
	meanPower = float64(sumPower) / nf / (65536 * 65536)
	return meanLevel, meanPower
}
