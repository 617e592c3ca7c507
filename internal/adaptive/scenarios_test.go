package adaptive

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func feedConstantBlocks(c *Controller, cfg Config, level uint16, blocks int) {
	samples := make([]uint16, cfg.BlockSize())
	for i := range samples {
		samples[i] = level
	}
	for i := 0; i < blocks; i++ {
		c.FeedBuffer(testBuffer(samples), nil)
	}
}

// TestScenarioS1ColdStartReachesGainMax is spec §8 scenario S1: starting
// from gain step 0 with a signal whose available range already meets
// target, SCAN_UP must increment gain every block (RangeScanDelay=0) until
// gain_max, then settle in IDLE.
func TestScenarioS1ColdStartReachesGainMax(t *testing.T) {
	cfg := DefaultConfig(100000)
	cfg.RangeScanDelay = 0
	cfg.RangeTargetDB = 20
	gain := newMockGain(11, 1)
	c := newTestController(t, cfg, gain)

	level := magnitudeForAvailableRangeDB(cfg.RangeTargetDB)
	feedConstantBlocks(c, cfg, level, 15)

	require.Equal(t, c.gainMax, gain.current)
	require.Equal(t, "IDLE", c.RangeState())
}

// TestScenarioS2NoiseSurgeFastPath is spec §8 scenario S2: once settled in
// IDLE at a high gain step, a sudden jump in noise floor must be acted on
// at the very next block boundary, without waiting out rangeDelay.
func TestScenarioS2NoiseSurgeFastPath(t *testing.T) {
	cfg := DefaultConfig(100000)
	cfg.RangeScanDelay = 0
	cfg.RangeTargetDB = 20
	gain := newMockGain(11, 1)
	c := newTestController(t, cfg, gain)

	goodLevel := magnitudeForAvailableRangeDB(cfg.RangeTargetDB)
	feedConstantBlocks(c, cfg, goodLevel, 15)
	require.Equal(t, "IDLE", c.RangeState())
	settledStep := gain.current
	require.Greater(t, settledStep, 0)

	// rangeDelay is non-zero here only via RangeRescanDelay, which the
	// fast path must bypass entirely.
	c.rangeDelay = cfg.RangeRescanDelay

	surgeLevel := magnitudeForAvailableRangeDB(cfg.RangeTargetDB - 15)
	before := gain.setCalls
	c.FeedBuffer(testBuffer(repeatedSamples(cfg.BlockSize(), surgeLevel)), nil)

	require.Equal(t, before+1, gain.setCalls, "noise surge must trigger an immediate gain decrease")
	require.Equal(t, settledStep-1, gain.current)
	require.Equal(t, "SCAN_DOWN", c.RangeState())
}

// TestScenarioS3LoudBurstStormTriggersSuppression is spec §8 scenario S3:
// a sustained run of undecoded loud bursts each block must, after
// BurstLoudRunlength consecutive loud blocks, suppress gain by one step.
func TestScenarioS3LoudBurstStormTriggersSuppression(t *testing.T) {
	cfg := DefaultConfig(100000) // windowSize=4, blockSize=100000
	cfg.RangeScanDelay = 0
	cfg.BurstLoudRunlength = 3
	cfg.BurstChangeDelay = 0
	gain := newMockGain(11, 5)
	c := newTestController(t, cfg, gain)

	goodLevel := magnitudeForAvailableRangeDB(cfg.RangeTargetDB)
	feedConstantBlocks(c, cfg, goodLevel, 15)
	require.Equal(t, "IDLE", c.RangeState())
	settledStep := gain.current

	for block := 0; block < cfg.BurstLoudRunlength; block++ {
		feedBurstyBlock(c, cfg, goodLevel, 60000, 3, 50)
	}

	require.True(t, c.Suppressing())
	require.Equal(t, settledStep-1, gain.current)
}

// TestScenarioS4QuietRecoveryExitsSuppression is spec §8 scenario S4:
// once suppressing, a sustained run of quiet blocks must eventually
// restore gain and clear suppression.
func TestScenarioS4QuietRecoveryExitsSuppression(t *testing.T) {
	cfg := DefaultConfig(100000)
	cfg.RangeScanDelay = 0
	cfg.BurstLoudRunlength = 3
	cfg.BurstQuietRunlength = 4
	cfg.BurstChangeDelay = 0
	gain := newMockGain(11, 5)
	c := newTestController(t, cfg, gain)

	goodLevel := magnitudeForAvailableRangeDB(cfg.RangeTargetDB)
	feedConstantBlocks(c, cfg, goodLevel, 15)
	settledStep := gain.current

	for block := 0; block < cfg.BurstLoudRunlength; block++ {
		feedBurstyBlock(c, cfg, goodLevel, 60000, 3, 50)
	}
	require.True(t, c.Suppressing())

	// smoothedBurst decays by (1-BurstAlpha) per quiet block; feed enough
	// blocks for it to fall back under BurstLoudRate and then accumulate a
	// full BurstQuietRunlength run before asserting recovery.
	quiet := magnitudeForAvailableRangeDB(cfg.RangeTargetDB)
	for block := 0; block < 50 && c.Suppressing(); block++ {
		feedConstantBlocks(c, cfg, quiet, 1)
	}

	require.False(t, c.Suppressing())
	require.Equal(t, settledStep, gain.current)
}

func repeatedSamples(n int, v uint16) []uint16 {
	out := make([]uint16, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// feedBurstyBlock builds one block of otherwise-quiet samples containing
// burstCount runs of a loud level, each burstLenWindows windows long
// (windows of size cfg.BurstWindowSize()), spaced evenly through the block.
func feedBurstyBlock(c *Controller, cfg Config, quietLevel, loudLevel uint16, burstLenWindows, burstCount int) {
	samples := repeatedSamples(cfg.BlockSize(), quietLevel)
	windowSize := cfg.BurstWindowSize()
	burstSamples := burstLenWindows * windowSize
	spacing := cfg.BlockSize() / burstCount
	for b := 0; b < burstCount; b++ {
		start := b*spacing + windowSize
		if start+burstSamples > len(samples) {
			break
		}
		for i := 0; i < burstSamples; i++ {
			samples[start+i] = loudLevel
		}
	}
	c.FeedBuffer(testBuffer(samples), nil)
}
