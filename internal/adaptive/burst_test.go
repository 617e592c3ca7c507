package adaptive

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// freshControllerForWindows builds a Controller with range/burst control
// disabled so only the window/block scheduler (advanceWindow, finishWindow,
// endOfBlock bookkeeping) is under test.
func freshControllerForWindows(t *testing.T, sampleRate int) *Controller {
	t.Helper()
	cfg := DefaultConfig(sampleRate)
	cfg.BurstControlEnabled = false
	cfg.RangeControlEnabled = false
	c, err := NewController(cfg, nil, nil)
	require.NoError(t, err)
	return c
}

// TestExactMultipleOfWindowsClassifiesAllWindows is the regression test
// named for spec §9's documented off-by-one bug: feeding exactly k windows'
// worth of samples (no partial window) must classify all k windows, not
// k-1. windowSize here is 4 (sample rate 100kHz); every sample is fed as
// quiet, so windows classify as quiet and consecutiveLoudWindows never
// increments — the test instead checks finishWindow ran for the last window
// via the windowSamplesSeen reset, asserting the final window leaves no
// leftover partial state.
func TestExactMultipleOfWindowsClassifiesAllWindows(t *testing.T) {
	c := freshControllerForWindows(t, 100000) // windowSize = 4
	const k = 7
	for i := 0; i < k*c.windowSize; i++ {
		c.advanceWindow(false)
	}
	require.Equal(t, 0, c.windowSamplesSeen, "no partial window should remain after an exact multiple")
	require.Equal(t, (k*c.windowSize)%c.blockSize, c.blockSamplesSeen)
}

// TestLoudWindowRunLengthBoundaries is spec §8 property 10: a run of loud
// windows counts as one undecoded burst only for run lengths in [2,5];
// runs of exactly 1 or exactly 6 do not count.
func TestLoudWindowRunLengthBoundaries(t *testing.T) {
	for _, runLength := range []int{1, 2, 5, 6} {
		t.Run(runLengthName(runLength), func(t *testing.T) {
			c := freshControllerForWindows(t, 100000) // windowSize=4, threshold windowSize/4=1
			feedLoudWindows(c, runLength)
			feedQuietWindow(c) // terminate the run so finishWindow evaluates it

			wantBurst := runLength >= 2 && runLength <= 5
			if wantBurst {
				require.Equal(t, 1, c.blockUndecodedLoudBursts)
			} else {
				require.Equal(t, 0, c.blockUndecodedLoudBursts)
			}
		})
	}
}

func runLengthName(n int) string {
	switch n {
	case 1:
		return "run_of_1"
	case 2:
		return "run_of_2"
	case 5:
		return "run_of_5"
	case 6:
		return "run_of_6"
	default:
		return "run"
	}
}

// feedLoudWindows feeds n consecutive windows each classified loud (more
// than windowSize/4 loud samples).
func feedLoudWindows(c *Controller, n int) {
	loudPerWindow := c.windowSize/4 + 1
	for w := 0; w < n; w++ {
		for i := 0; i < c.windowSize; i++ {
			c.advanceWindow(i < loudPerWindow)
		}
	}
}

func feedQuietWindow(c *Controller) {
	for i := 0; i < c.windowSize; i++ {
		c.advanceWindow(false)
	}
}

// TestChunkingInvarianceOfBlockStatistics is spec §8 property 8: feeding
// identical samples through FeedBuffer split into arbitrarily different
// sub-slices must produce identical end-of-block statistics.
func TestChunkingInvarianceOfBlockStatistics(t *testing.T) {
	cfg := DefaultConfig(100000)
	cfg.BurstControlEnabled = false
	cfg.RangeControlEnabled = false

	samples := make([]uint16, cfg.BlockSize())
	for i := range samples {
		if i%37 == 0 {
			samples[i] = 60000
		} else {
			samples[i] = 1000
		}
	}

	whole, err := NewController(cfg, nil, nil)
	require.NoError(t, err)
	whole.FeedBuffer(testBuffer(samples), nil)

	chunkSizes := []int{1, 3, 97, 4001}
	for _, chunkSize := range chunkSizes {
		c, err := NewController(cfg, nil, nil)
		require.NoError(t, err)
		for pos := 0; pos < len(samples); pos += chunkSize {
			end := pos + chunkSize
			if end > len(samples) {
				end = len(samples)
			}
			c.FeedBuffer(testBuffer(samples[pos:end]), nil)
		}
		require.Equal(t, whole.smoothedNoise, c.smoothedNoise, "chunk size %d", chunkSize)
		require.Equal(t, whole.smoothedBurst, c.smoothedBurst, "chunk size %d", chunkSize)
		require.Equal(t, whole.availableRangeDB, c.availableRangeDB, "chunk size %d", chunkSize)
	}
}
