//go:build !amd64 && !arm64

package cpufeature

// detect returns an all-false snapshot on platforms we don't special-case;
// every DSP registry always carries a generic entry, so this is safe.
func detect() Features {
	return Features{}
}
