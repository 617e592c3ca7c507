//go:build amd64

package cpufeature

import "golang.org/x/sys/cpu"

func detect() Features {
	return Features{
		SSE2: cpu.X86.HasSSE2,
		AVX:  cpu.X86.HasAVX,
		AVX2: cpu.X86.HasAVX2,
	}
}
