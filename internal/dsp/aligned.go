package dsp

import "unsafe"

// alignedKernelBytes is the compile-time alignment every magnitude_uc8_aligned
// entry assumes of its input slice's backing array. The caller is
// responsible for satisfying it (spec 4.B); violating it is undefined, not
// checked at runtime by the aligned kernels themselves.
const alignedKernelBytes = 32

// isAligned reports whether b's backing array starts on an
// alignedKernelBytes boundary. It is used only by the self-dispatching
// variant below to decide, on each call, which registry to delegate to —
// never by the aligned kernels themselves, which trust their caller per spec.
func isAligned(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&b[0]))%alignedKernelBytes == 0
}

// magnitudeUC8AlignedLookup is numerically identical to magnitudeUC8Lookup;
// it exists as a separate registry entry because an aligned build is free to
// assume a 32-byte-aligned input pointer and skip any head-alignment
// handling a real SIMD backend would otherwise need. This pure-Go rewrite
// has no such handling to skip, so the two are the same loop — the registry
// split itself is what spec 4.B requires, not a behavioral difference.
func magnitudeUC8AlignedLookup(iq []byte, out []uint16) {
	magnitudeUC8Lookup(iq, out)
}

func magnitudeUC8AlignedGeneric(iq []byte, out []uint16) {
	magnitudeUC8Generic(iq, out)
}

// SelfDispatchingMagnitudeUC8 returns a MagnitudeFunc that checks input
// alignment on every call and delegates to the aligned or unaligned
// dispatcher's selected kernel accordingly. It never rewrites itself: the
// alignment check is repeated on every call. It is offered as a convenience
// for callers that can't statically guarantee alignment at their call site.
func (k *Kernels) SelfDispatchingMagnitudeUC8() MagnitudeFunc {
	return func(iq []byte, out []uint16) {
		if isAligned(iq) {
			k.MagnitudeUC8Aligned.Get(k.features)(iq, out)
			return
		}
		k.MagnitudeUC8.Get(k.features)(iq, out)
	}
}
