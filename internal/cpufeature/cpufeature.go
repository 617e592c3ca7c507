// Package cpufeature reports which SIMD feature tiers are available on the
// current host, so the DSP kernel registry (internal/dsp) can pick the
// fastest implementation of each operation that the hardware actually
// supports.
package cpufeature

import (
	"sync"
)

// Tier names the feature sets the kernel registry gates on. They're coarse
// on purpose: a kernel either wants a tier or it doesn't, there's no partial
// credit.
type Tier string

const (
	Generic    Tier = "generic"
	SSE2       Tier = "sse2"
	AVX        Tier = "avx"
	AVX2       Tier = "avx2"
	NEON       Tier = "neon"
	NEONVFPv4  Tier = "neon_vfpv4"
	ASIMD      Tier = "asimd"
)

// Features is a point-in-time snapshot of the host's capability. Safe for
// concurrent read by any number of goroutines once obtained from Probe.
type Features struct {
	SSE2      bool
	AVX       bool
	AVX2      bool
	NEON      bool
	NEONVFPv4 bool
	ASIMD     bool
}

// Has reports whether the snapshot satisfies tier t. Generic is always
// satisfied; it's the fallback every registry must carry.
func (f Features) Has(t Tier) bool {
	switch t {
	case Generic:
		return true
	case SSE2:
		return f.SSE2
	case AVX:
		return f.AVX
	case AVX2:
		return f.AVX2
	case NEON:
		return f.NEON
	case NEONVFPv4:
		return f.NEONVFPv4
	case ASIMD:
		return f.ASIMD
	default:
		return false
	}
}

var (
	once     sync.Once
	detected Features
)

// Probe returns the cached host feature snapshot, detecting it on first
// call. An unrecognized platform (any GOARCH other than amd64/arm64) yields
// an all-false snapshot, which forces every registry down to its generic
// entry — this is a normal outcome, not an error.
func Probe() Features {
	once.Do(func() {
		detected = detect()
	})
	return detected
}
