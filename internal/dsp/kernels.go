package dsp

import "github.com/adsbcore/modescore/internal/cpufeature"

// Kernels is the fully-wired registry of every DSP operation spec 4.B
// names, built once at startup from the host's detected cpufeature.Features.
// It's the object call sites thread through instead of reaching for package
// globals (spec §9's "explicit contexts" rewrite of the source's
// file-scope function-pointer tables).
type Kernels struct {
	features cpufeature.Features

	MagnitudeUC8         *Dispatcher[MagnitudeFunc]
	MagnitudeUC8Aligned  *Dispatcher[MagnitudeFunc]
	MagnitudePowerUC8    *Dispatcher[MagnitudePowerFunc]
	MagnitudeSC16        *Dispatcher[MagnitudeFunc]
	MagnitudeSC16Q11     *Dispatcher[MagnitudeFunc]
	MagnitudeS16         *Dispatcher[MagnitudeFunc]
	MagnitudeU16O12      *Dispatcher[MagnitudeFunc]
	MeanPowerU16         *Dispatcher[MeanPowerFunc]
	BoxcarU16            *Dispatcher[BoxcarFunc]
	PreambleU16          *Dispatcher[PreambleFunc]
}

// NewKernels probes the host once (via cpufeature.Probe, itself cached) and
// builds every operation's candidate list, in the same order on every host:
// a feature-gated "wide" entry first where the operation has one (selected
// only when the host's probed tier supports it), the generic/exact entry
// always last as the mandatory fallback spec 4.B requires every list to
// carry.
func NewKernels() *Kernels {
	feat := cpufeature.Probe()
	k := &Kernels{
		features:            feat,
		MagnitudeUC8:        NewDispatcher[MagnitudeFunc](OpMagnitudeUC8),
		MagnitudeUC8Aligned: NewDispatcher[MagnitudeFunc](OpMagnitudeUC8Aligned),
		MagnitudePowerUC8:   NewDispatcher[MagnitudePowerFunc](OpMagnitudePowerUC8),
		MagnitudeSC16:       NewDispatcher[MagnitudeFunc](OpMagnitudeSC16),
		MagnitudeSC16Q11:    NewDispatcher[MagnitudeFunc](OpMagnitudeSC16Q11),
		MagnitudeS16:        NewDispatcher[MagnitudeFunc](OpMagnitudeS16),
		MagnitudeU16O12:     NewDispatcher[MagnitudeFunc](OpMagnitudeU16O12),
		MeanPowerU16:        NewDispatcher[MeanPowerFunc](OpMeanPowerU16),
		BoxcarU16:           NewDispatcher[BoxcarFunc](OpBoxcarU16),
		PreambleU16:         NewDispatcher[PreambleFunc](OpPreambleU16),
	}

	wideTier := func(f cpufeature.Features) bool {
		return f.Has(cpufeature.AVX2) || f.Has(cpufeature.ASIMD) || f.Has(cpufeature.NEONVFPv4)
	}

	k.MagnitudeUC8.Register("lookup_unroll4", "wide", magnitudeUC8LookupUnroll4, wideTier)
	k.MagnitudeUC8.Register("lookup", "generic", magnitudeUC8Lookup, nil)
	k.MagnitudeUC8.Register("exact_generic", "generic", magnitudeUC8Generic, nil)

	k.MagnitudeUC8Aligned.Register("lookup_aligned", "generic", magnitudeUC8AlignedLookup, nil)
	k.MagnitudeUC8Aligned.Register("exact_generic_aligned", "generic", magnitudeUC8AlignedGeneric, nil)

	k.MagnitudePowerUC8.Register("fused_generic", "generic", magnitudePowerUC8Generic, nil)

	k.MagnitudeSC16.Register("exact_generic", "generic", magnitudeSC16Generic, nil)

	k.MagnitudeSC16Q11.Register("lookup", "generic", magnitudeSC16Q11Lookup, nil)
	k.MagnitudeSC16Q11.Register("exact_generic", "generic", magnitudeSC16Q11Generic, nil)

	k.MagnitudeS16.Register("exact_generic", "generic", magnitudeS16Generic, nil)
	k.MagnitudeU16O12.Register("exact_generic", "generic", magnitudeU16O12Generic, nil)

	k.MeanPowerU16.Register("integer_accum", "wide", meanPowerU16Integer, wideTier)
	k.MeanPowerU16.Register("float_accum", "generic", meanPowerU16Float, nil)

	k.BoxcarU16.Register("incremental", "generic", boxcarU16Incremental, nil)

	k.PreambleU16.Register("unroll4", "wide", preambleU16Unroll4, wideTier)
	k.PreambleU16.Register("exact_generic", "generic", preambleU16Generic, nil)

	return k
}

// Features reports the snapshot this registry was built from.
func (k *Kernels) Features() cpufeature.Features { return k.features }

// dispatchers lists every operation in a stable, documented order, for
// wisdom loading/writing and for diagnostics.
func (k *Kernels) dispatchers() []namedDispatcher {
	return []namedDispatcher{
		k.MagnitudeUC8,
		k.MagnitudeUC8Aligned,
		k.MagnitudePowerUC8,
		k.MagnitudeSC16,
		k.MagnitudeSC16Q11,
		k.MagnitudeS16,
		k.MagnitudeU16O12,
		k.MeanPowerU16,
		k.BoxcarU16,
		k.PreambleU16,
	}
}

// Magnitude converts iq (in the named format) into out, dispatching through
// the correct per-format registry.
func (k *Kernels) Magnitude(format string, iq []byte, out []uint16) {
	switch format {
	case OpMagnitudeSC16:
		k.MagnitudeSC16.Get(k.features)(iq, out)
	case OpMagnitudeSC16Q11:
		k.MagnitudeSC16Q11.Get(k.features)(iq, out)
	case OpMagnitudeS16:
		k.MagnitudeS16.Get(k.features)(iq, out)
	case OpMagnitudeU16O12:
		k.MagnitudeU16O12.Get(k.features)(iq, out)
	default:
		k.MagnitudeUC8.Get(k.features)(iq, out)
	}
}

// MagnitudePower runs the fused magnitude_power_uc8 kernel.
func (k *Kernels) MagnitudePower(iq []byte, out []uint16) (meanLevel, meanPower float64) {
	return k.MagnitudePowerUC8.Get(k.features)(iq, out)
}

// MeanPower reduces mag to its mean level/power.
func (k *Kernels) MeanPower(mag []uint16) (meanLevel, meanPower float64) {
	return k.MeanPowerU16.Get(k.features)(mag)
}

// Boxcar runs the incremental boxcar filter.
func (k *Kernels) Boxcar(in []uint16, window int, out []uint16) {
	k.BoxcarU16.Get(k.features)(in, window, out)
}

// Preamble runs the four-tap Mode S preamble correlator.
func (k *Kernels) Preamble(in []uint16, halfbit int, out []uint16) {
	k.PreambleU16.Get(k.features)(in, halfbit, out)
}
