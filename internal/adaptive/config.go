// Package adaptive implements the adaptive gain controller of spec 4.G: two
// cooperating control loops (a burst detector and a dynamic-range scanner)
// that observe the magnitude stream, estimate noise floor and burst rate,
// and command gain changes through an sdr.GainController.
package adaptive

import "fmt"

// Config holds the tunables spec §6 names. Validate replaces unset values of
// some fields with defaults (see Validate); the remaining fields are used
// exactly as given, zero included.
type Config struct {
	// SampleRate is the IQ sample rate in Hz. It must be an integer
	// multiple of 25 kHz (spec §9's documented constraint on the block
	// scheduler); non-conforming rates are rejected at startup.
	SampleRate int

	BurstControlEnabled bool
	RangeControlEnabled bool

	MinGainDB float64
	MaxGainDB float64

	RangeTargetDB      float64
	RangePercentile    int     // 1-99, default 40
	RangeAlpha         float64 // EMA smoothing, 0-1, default 0.1
	RangeScanDelay     int     // blocks
	RangeRescanDelay   int     // blocks

	BurstAlpha          float64 // EMA smoothing, 0-1, default 0.1
	BurstLoudRate       float64
	BurstQuietRate      float64
	BurstLoudRunlength  int
	BurstQuietRunlength int
	BurstChangeDelay    int
}

// DefaultConfig returns a Config with every spec §6 default applied, for a
// caller to override selectively.
func DefaultConfig(sampleRate int) Config {
	return Config{
		SampleRate:          sampleRate,
		BurstControlEnabled: true,
		RangeControlEnabled: true,
		MaxGainDB:           1e9,
		MinGainDB:           -1e9,
		RangeTargetDB:       20,
		RangePercentile:     40,
		RangeAlpha:          0.1,
		RangeScanDelay:      2,
		RangeRescanDelay:    12,
		BurstAlpha:          0.1,
		BurstLoudRate:       2,
		BurstQuietRate:      0.5,
		BurstLoudRunlength:  3,
		BurstQuietRunlength: 6,
		BurstChangeDelay:    4,
	}
}

// burstWindowSampleRateDivisor is the fixed granularity spec 4.3/4.H
// defines a burst window against: sample_rate/25000 samples (~40us).
const burstWindowSampleRateDivisor = 25000

// BurstWindowSize returns sample_rate/25000, the exact burst-window size in
// samples.
func (c Config) BurstWindowSize() int {
	return c.SampleRate / burstWindowSampleRateDivisor
}

// BlockSize returns burst_window_size * 25000, i.e. sample_rate samples
// (~1s), the unit on which adaptive decisions are made.
func (c Config) BlockSize() int {
	return c.BurstWindowSize() * burstWindowSampleRateDivisor
}

// Validate fills in defaults for RangePercentile, RangeAlpha, BurstAlpha,
// RangeRescanDelay, BurstLoudRunlength, BurstQuietRunlength and
// BurstChangeDelay when they are zero or negative (clamping RangePercentile
// to at most 99), and for MaxGainDB when it is zero. It rejects a sample
// rate that isn't an exact multiple of 25 kHz — spec §9 notes the block
// size formula only produces an exact ~1s block at such rates, and
// documents this as a startup-time configuration error, not a runtime one.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("adaptive: sample rate must be positive, got %d", c.SampleRate)
	}
	if c.SampleRate%burstWindowSampleRateDivisor != 0 {
		return fmt.Errorf("adaptive: sample rate %d is not an integer multiple of %d Hz",
			c.SampleRate, burstWindowSampleRateDivisor)
	}
	if c.RangePercentile <= 0 {
		c.RangePercentile = 40
	}
	if c.RangePercentile > 99 {
		c.RangePercentile = 99
	}
	if c.RangeAlpha <= 0 {
		c.RangeAlpha = 0.1
	}
	if c.BurstAlpha <= 0 {
		c.BurstAlpha = 0.1
	}
	if c.RangeRescanDelay <= 0 {
		c.RangeRescanDelay = 12
	}
	if c.BurstLoudRunlength <= 0 {
		c.BurstLoudRunlength = 3
	}
	if c.BurstQuietRunlength <= 0 {
		c.BurstQuietRunlength = 6
	}
	if c.BurstChangeDelay <= 0 {
		c.BurstChangeDelay = 4
	}
	if c.MaxGainDB == 0 {
		c.MaxGainDB = 1e9
	}
	return nil
}
