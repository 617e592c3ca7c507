package adaptive

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adsbcore/modescore/internal/fifo"
)

func testBuffer(samples []uint16) *fifo.Buffer {
	return &fifo.Buffer{Data: samples, Overlap: 0, ValidLength: len(samples)}
}

func newTestController(t *testing.T, cfg Config, gain *mockGain) *Controller {
	t.Helper()
	c, err := NewController(cfg, gain, nil)
	require.NoError(t, err)
	return c
}

// TestNewControllerDisablesWithoutGainControl covers spec 4.F: a driver
// reporting max_gain_step < 0 (or no driver at all) disables both loops.
func TestNewControllerDisablesWithoutGainControl(t *testing.T) {
	cfg := DefaultConfig(100000)
	c, err := NewController(cfg, nil, nil)
	require.NoError(t, err)
	require.False(t, c.enabled)

	noGain := newMockGain(0, 1) // steps=0 -> MaxGainStep() == -1
	c2 := newTestController(t, cfg, noGain)
	require.False(t, c2.enabled)
}

// TestGainAlwaysClampedToConfiguredRange is spec §8 property 3.
func TestGainAlwaysClampedToConfiguredRange(t *testing.T) {
	cfg := DefaultConfig(100000)
	cfg.RangeTargetDB = 20
	cfg.RangeScanDelay = 0
	gain := newMockGain(11, 1)
	c := newTestController(t, cfg, gain)

	quiet := magnitudeForAvailableRangeDB(40) // way above target -> keeps scanning up
	samples := make([]uint16, cfg.BlockSize())
	for i := range samples {
		samples[i] = quiet
	}
	for i := 0; i < 40; i++ {
		c.FeedBuffer(testBuffer(samples), nil)
		require.GreaterOrEqual(t, gain.current, c.gainMin)
		require.LessOrEqual(t, gain.current, c.gainMax)
	}
	require.Equal(t, c.gainMax, gain.current)
}

// TestAtMostOneGainChangePerBlock is spec §8 property 2: a block boundary
// commits at most one SetGainStep call, even with both loops enabled.
func TestAtMostOneGainChangePerBlock(t *testing.T) {
	cfg := DefaultConfig(100000)
	cfg.RangeScanDelay = 0
	gain := newMockGain(21, 1)
	c := newTestController(t, cfg, gain)

	loud := magnitudeForAvailableRangeDB(0) // far below target, surging noise
	samples := make([]uint16, cfg.BlockSize())
	for i := range samples {
		samples[i] = loud
	}
	for i := 0; i < 10; i++ {
		before := gain.setCalls
		c.FeedBuffer(testBuffer(samples), nil)
		require.LessOrEqual(t, gain.setCalls-before, 1, "block %d issued more than one gain change", i)
	}
}

// TestNoisePercentileAllSamplesAtOneValue checks the percentile helper's
// simplest case directly.
func TestNoisePercentileAllSamplesAtOneValue(t *testing.T) {
	var hist [65536]uint64
	hist[1234] = 1000
	got := noisePercentile(&hist, 1000, 40)
	require.Equal(t, float64(1234), got)
}

func TestNoisePercentileEmptyHistogramIsZero(t *testing.T) {
	var hist [65536]uint64
	require.Equal(t, float64(0), noisePercentile(&hist, 0, 40))
}

// TestSmoothedNoiseEMABound is spec §8 property 4: after N blocks of a
// constant percentile P starting from a different initial value, the
// smoothed estimate must satisfy |smoothed - P| <= |init - P|*(1-alpha)^N.
func TestSmoothedNoiseEMABound(t *testing.T) {
	cfg := DefaultConfig(100000)
	cfg.RangeAlpha = 0.1
	cfg.RangeScanDelay = 0
	gain := newMockGain(2, 1) // pin range control to a no-op ladder
	c := newTestController(t, cfg, gain)

	initLevel := magnitudeForAvailableRangeDB(40)
	steadyDB := 20.0
	steadyLevel := magnitudeForAvailableRangeDB(steadyDB)

	initSamples := make([]uint16, cfg.BlockSize())
	for i := range initSamples {
		initSamples[i] = initLevel
	}
	c.FeedBuffer(testBuffer(initSamples), nil)
	initSmoothed := c.smoothedNoise

	steadySamples := make([]uint16, cfg.BlockSize())
	for i := range steadySamples {
		steadySamples[i] = steadyLevel
	}
	const n = 30
	for i := 0; i < n; i++ {
		c.FeedBuffer(testBuffer(steadySamples), nil)
	}

	target := float64(steadyLevel)
	diff := c.smoothedNoise - target
	if diff < 0 {
		diff = -diff
	}
	bound := (initSmoothed - target)
	if bound < 0 {
		bound = -bound
	}
	for i := 0; i < n; i++ {
		bound *= 1 - cfg.RangeAlpha
	}
	require.LessOrEqual(t, diff, bound+1e-6)
}

// TestFeedBufferSplitsDecodedAndUndecodedSpans checks that a decoded span's
// samples never contribute to the undecoded histogram (spec 4.G / §8
// property 9), while still advancing the window scheduler.
func TestFeedBufferSplitsDecodedAndUndecodedSpans(t *testing.T) {
	cfg := DefaultConfig(100000) // windowSize=4, blockSize=100000
	gain := newMockGain(2, 1)
	c := newTestController(t, cfg, gain)

	loud := uint16(60000)
	samples := make([]uint16, 40)
	for i := range samples {
		samples[i] = loud
	}
	spans := []DecodedSpan{{Start: 0, End: 40, SignalLevel: 1.0}}
	c.FeedBuffer(testBuffer(samples), spans)

	require.Equal(t, uint64(0), c.histTotal, "decoded span samples must not enter the noise histogram")
	require.Equal(t, 0, c.consecutiveLoudWindows, "decoded span samples are treated as quiet for window classification")
}
