package dsp

import (
	"math"
	"sync"
)

// magnitudeValue is the reference formula shared by every magnitude kernel
// and lookup table builder (spec 4.C):
//
//	round(clamp(sqrt(((i-center)/scale)^2 + ((q-center)/scale)^2), 0, 1) * 65535)
func magnitudeValue(i, q, center, scale float64) uint16 {
	ni := (i - center) / scale
	nq := (q - center) / scale
	m := math.Sqrt(ni*ni + nq*nq)
	if m > 1 {
		m = 1
	}
	if m < 0 {
		m = 0
	}
	return uint16(math.Round(m * 65535))
}

// uc8Table is the 256x256 lookup table for UC8 samples, indexed by
// (q<<8)|i. Built once, lazily, on first demand; immutable and safely
// shared read-only across goroutines thereafter.
var (
	uc8TableOnce sync.Once
	uc8Table     [65536]uint16

	sc16q11TableOnce sync.Once
	sc16q11Table     []uint16 // 2048*2048, built lazily (16MiB)
)

func uc8LookupTable() *[65536]uint16 {
	uc8TableOnce.Do(func() {
		for q := 0; q < 256; q++ {
			for i := 0; i < 256; i++ {
				uc8Table[(q<<8)|i] = magnitudeValue(float64(i), float64(q), 127.5, 127.5)
			}
		}
	})
	return &uc8Table
}

func sc16q11LookupTable() []uint16 {
	sc16q11TableOnce.Do(func() {
		sc16q11Table = make([]uint16, 2048*2048)
		for q := 0; q < 2048; q++ {
			for i := 0; i < 2048; i++ {
				// Signed Q11 samples are stored as the low 11 bits of a
				// two's-complement value; recenter to a signed range
				// before normalizing against the ±2047 full-scale.
				si := float64(i)
				if i >= 1024 {
					si -= 2048
				}
				sq := float64(q)
				if q >= 1024 {
					sq -= 2048
				}
				sc16q11Table[(q<<11)|i] = magnitudeValue(si, sq, 0, 2047)
			}
		}
	})
	return sc16q11Table
}
