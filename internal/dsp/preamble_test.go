package dsp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreambleExactFormula(t *testing.T) {
	halfbit := 2
	in := make([]uint16, 40)
	for i := range in {
		in[i] = uint16(i * 100)
	}
	out := make([]uint16, len(in)-9*halfbit)
	preambleU16Generic(in, halfbit, out)
	for i := range out {
		want := (uint32(in[i]) + uint32(in[i+2*halfbit]) + uint32(in[i+7*halfbit]) + uint32(in[i+9*halfbit])) / 4
		require.Equal(t, uint16(want), out[i], "i=%d", i)
	}
}

func TestPreambleUnroll4MatchesGeneric(t *testing.T) {
	halfbit := 3
	for _, n := range []int{9 * 3, 9*3 + 1, 9*3 + 7, 100} {
		in := make([]uint16, n)
		for i := range in {
			in[i] = uint16((i*41 + 3) % 65536)
		}
		outLen := n - 9*halfbit
		if outLen < 0 {
			outLen = 0
		}
		want := make([]uint16, outLen)
		got := make([]uint16, outLen)
		preambleU16Generic(in, halfbit, want)
		preambleU16Unroll4(in, halfbit, got)
		require.Equal(t, want, got, "n=%d", n)
	}
}

func TestPreambleTooShortIsNoop(t *testing.T) {
	in := make([]uint16, 5)
	out := make([]uint16, 5)
	for i := range out {
		out[i] = 7
	}
	preambleU16Generic(in, 2, out)
	for _, v := range out {
		require.Equal(t, uint16(7), v)
	}
}
