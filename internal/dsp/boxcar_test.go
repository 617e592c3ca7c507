package dsp

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestBoxcarIncrementalMatchesNaive is spec §8 property 6: the incremental
// O(len) implementation must equal the naive per-window sum bit-exactly for
// every valid output index, for arbitrary input and window size.
func TestBoxcarIncrementalMatchesNaive(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 200).Draw(rt, "n")
		window := rapid.IntRange(1, 32).Draw(rt, "window")
		in := make([]uint16, n)
		for i := range in {
			in[i] = uint16(rapid.IntRange(0, 65535).Draw(rt, "sample"))
		}

		outLen := 0
		if n >= window {
			outLen = n - window + 1
		}
		want := make([]uint16, outLen)
		got := make([]uint16, outLen)
		boxcarU16Naive(in, window, want)
		boxcarU16Incremental(in, window, got)
		require.Equal(rt, want, got)
	})
}

func TestBoxcarWindowLargerThanInputIsNoop(t *testing.T) {
	in := []uint16{1, 2, 3}
	out := []uint16{99, 99, 99}
	boxcarU16Incremental(in, 10, out)
	require.Equal(t, []uint16{99, 99, 99}, out)
}

func TestBoxcarExactExample(t *testing.T) {
	in := []uint16{10, 20, 30, 40, 50}
	out := make([]uint16, 3)
	boxcarU16Incremental(in, 3, out)
	require.Equal(t, []uint16{20, 30, 40}, out)
}
