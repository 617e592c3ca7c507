package dsp

import "math"

// magnitudeUC8Generic is the exact reference implementation: no lookup
// table, computed in double precision per the spec 4.C formula. Used both
// as the "generic" dispatch entry and as the ground truth lookup tables are
// checked against.
func magnitudeUC8Generic(iq []byte, out []uint16) {
	n := len(iq) / 2
	if len(out) < n {
		n = len(out)
	}
	for k := 0; k < n; k++ {
		i := iq[2*k]
		q := iq[2*k+1]
		out[k] = magnitudeValue(float64(i), float64(q), 127.5, 127.5)
	}
}

// magnitudeUC8Lookup is bit-exact with magnitudeUC8Generic for every one of
// the 65,536 possible (I,Q) byte pairs (spec 4.C requires this of lookup
// implementations).
func magnitudeUC8Lookup(iq []byte, out []uint16) {
	table := uc8LookupTable()
	n := len(iq) / 2
	if len(out) < n {
		n = len(out)
	}
	for k := 0; k < n; k++ {
		i := int(iq[2*k])
		q := int(iq[2*k+1])
		out[k] = table[(q<<8)|i]
	}
}

// magnitudeUC8LookupUnroll4 is the same lookup, processed four samples at a
// time. It exists to give the registry a distinct "wide" entry to select
// among (analogous to an AVX2 unroll-4 kernel); being table-driven it is
// bit-exact, well within the 2 LSB tolerance the spec allows for approximate
// SIMD variants.
func magnitudeUC8LookupUnroll4(iq []byte, out []uint16) {
	table := uc8LookupTable()
	n := len(iq) / 2
	if len(out) < n {
		n = len(out)
	}
	k := 0
	for ; k+4 <= n; k += 4 {
		for j := 0; j < 4; j++ {
			i := int(iq[2*(k+j)])
			q := int(iq[2*(k+j)+1])
			out[k+j] = table[(q<<8)|i]
		}
	}
	for ; k < n; k++ {
		i := int(iq[2*k])
		q := int(iq[2*k+1])
		out[k] = table[(q<<8)|i]
	}
}

// magnitudeSC16Generic handles interleaved little-endian signed 16-bit I/Q
// pairs over the full 16-bit range.
func magnitudeSC16Generic(iq []byte, out []uint16) {
	n := len(iq) / 4
	if len(out) < n {
		n = len(out)
	}
	for k := 0; k < n; k++ {
		i := int16(uint16(iq[4*k]) | uint16(iq[4*k+1])<<8)
		q := int16(uint16(iq[4*k+2]) | uint16(iq[4*k+3])<<8)
		out[k] = magnitudeValue(float64(i), float64(q), 0, 32768)
	}
}

// magnitudeSC16Q11Generic handles interleaved little-endian Q11 fixed-point
// I/Q pairs: each sample's significant data is its low 11 bits, two's
// complement within that width (range -1024..1023), full-scale ±2047. This
// must match sc16q11LookupTable's indexing convention exactly (spec 4.C's
// lookup-table bit-exactness contract).
func magnitudeSC16Q11Generic(iq []byte, out []uint16) {
	n := len(iq) / 4
	if len(out) < n {
		n = len(out)
	}
	for k := 0; k < n; k++ {
		i := (uint16(iq[4*k]) | uint16(iq[4*k+1])<<8) & 0x7ff
		q := (uint16(iq[4*k+2]) | uint16(iq[4*k+3])<<8) & 0x7ff
		si := float64(i)
		if i >= 1024 {
			si -= 2048
		}
		sq := float64(q)
		if q >= 1024 {
			sq -= 2048
		}
		out[k] = magnitudeValue(si, sq, 0, 2047)
	}
}

// magnitudeSC16Q11Lookup uses the precomputed 2048x2048 table, masking each
// sample to its low 11 bits (the table is indexed by the raw bit pattern,
// matching magnitudeSC16Q11Generic's sign interpretation of those bits).
func magnitudeSC16Q11Lookup(iq []byte, out []uint16) {
	table := sc16q11LookupTable()
	n := len(iq) / 4
	if len(out) < n {
		n = len(out)
	}
	for k := 0; k < n; k++ {
		i := (uint16(iq[4*k]) | uint16(iq[4*k+1])<<8) & 0x7ff
		q := (uint16(iq[4*k+2]) | uint16(iq[4*k+3])<<8) & 0x7ff
		out[k] = table[(uint32(q)<<11)|uint32(i)]
	}
}

// magnitudeS16Generic handles single-channel signed 16-bit samples (no I/Q
// pairing — magnitude is the absolute value, normalized to full scale).
func magnitudeS16Generic(raw []byte, out []uint16) {
	n := len(raw) / 2
	if len(out) < n {
		n = len(out)
	}
	for k := 0; k < n; k++ {
		s := int16(uint16(raw[2*k]) | uint16(raw[2*k+1])<<8)
		v := math.Abs(float64(s)) / 32768
		if v > 1 {
			v = 1
		}
		out[k] = uint16(math.Round(v * 65535))
	}
}

// magnitudeU16O12Generic handles single-channel excess-2048 12-bit-range
// samples: the zero point is 2048, full scale is ±2048.
func magnitudeU16O12Generic(raw []byte, out []uint16) {
	n := len(raw) / 2
	if len(out) < n {
		n = len(out)
	}
	for k := 0; k < n; k++ {
		u := uint16(raw[2*k]) | uint16(raw[2*k+1])<<8
		v := math.Abs(float64(int32(u)-2048)) / 2048
		if v > 1 {
			v = 1
		}
		out[k] = uint16(math.Round(v * 65535))
	}
}

// magnitudePowerUC8Generic is the fused operation: one pass over the input
// produces both the magnitude buffer and its mean level/power, and must be
// observationally equivalent to magnitudeUC8Generic followed by
// meanPowerU16Float.
func magnitudePowerUC8Generic(iq []byte, out []uint16) (meanLevel, meanPower float64) {
	table := uc8LookupTable()
	n := len(iq) / 2
	if len(out) < n {
		n = len(out)
	}
	var sumLevel, sumPower float64
	for k := 0; k < n; k++ {
		i := int(iq[2*k])
		q := int(iq[2*k+1])
		m := table[(q<<8)|i]
		out[k] = m
		level := float64(m) / 65536
		sumLevel += level
		sumPower += level * level
	}
	if n == 0 {
		return 0, 0
	}
	return sumLevel / float64(n), sumPower / float64(n)
}
