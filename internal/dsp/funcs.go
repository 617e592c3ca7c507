package dsp

// MagnitudeFunc converts an interleaved I/Q byte stream (the input format
// determines how bytes map to a sample) into magnitude samples. len(out)
// must be >= len(iq)/bytesPerSample.
type MagnitudeFunc func(iq []byte, out []uint16)

// MagnitudePowerFunc is the fused magnitude_power_uc8 operation: it produces
// both the magnitude buffer and its mean level/power in one pass. Must be
// observationally equivalent to calling a MagnitudeFunc followed by a
// MeanPowerFunc over the same output.
type MagnitudePowerFunc func(iq []byte, out []uint16) (meanLevel, meanPower float64)

// MeanPowerFunc reduces a magnitude buffer to its mean level and mean
// power, both in double precision.
type MeanPowerFunc func(mag []uint16) (meanLevel, meanPower float64)

// BoxcarFunc computes out[i] = floor(mean(in[i:i+window])) for
// 0 <= i <= len(in)-window. Trailing window-1 entries of out are left
// untouched (undefined per spec).
type BoxcarFunc func(in []uint16, window int, out []uint16)

// PreambleFunc computes the four-tap Mode S preamble correlator:
// out[i] = (in[i] + in[i+2*halfbit] + in[i+7*halfbit] + in[i+9*halfbit]) / 4
// for 0 <= i < len(in)-9*halfbit.
type PreambleFunc func(in []uint16, halfbit int, out []uint16)

// Operation name constants: the stable keys used in wisdom files and
// selection logging. These never change even as implementations do.
const (
	OpMagnitudeUC8        = "magnitude_uc8"
	OpMagnitudeUC8Aligned  = "magnitude_uc8_aligned"
	OpMagnitudePowerUC8    = "magnitude_power_uc8"
	OpMagnitudeSC16        = "magnitude_sc16"
	OpMagnitudeSC16Q11     = "magnitude_sc16q11"
	OpMagnitudeS16         = "magnitude_s16"
	OpMagnitudeU16O12      = "magnitude_u16o12"
	OpMeanPowerU16         = "mean_power_u16"
	OpBoxcarU16            = "boxcar_u16"
	OpPreambleU16          = "preamble_u16"
)
