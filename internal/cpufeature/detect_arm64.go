//go:build arm64

package cpufeature

import "golang.org/x/sys/cpu"

func detect() Features {
	return Features{
		ASIMD:     cpu.ARM64.HasASIMD,
		NEON:      cpu.ARM64.HasASIMD,
		NEONVFPv4: cpu.ARM64.HasASIMD && cpu.ARM64.HasFP,
	}
}
