package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/adsbcore/modescore/internal/config"
	"github.com/adsbcore/modescore/internal/sdr"
)

// buildDriver selects and configures the sdr.Driver cfg.Driver names, and
// composes a gain backend onto it when cfg.GainBackend names one — the
// driver-selected-by-name-at-startup pattern spec §9 specifies.
func buildDriver(cfg config.Config) (sdr.Driver, error) {
	format := sdr.Format(cfg.Format)

	switch cfg.Driver {
	case "file", "":
		return sdr.NewFileDriver(cfg.DevicePath, format, 1<<16), nil

	case "soundcard":
		gain, err := buildGainBackend(cfg)
		if err != nil {
			return nil, err
		}
		return sdr.NewSoundcardDriver(cfg.DevicePath, float64(cfg.SampleRate), 16384, gain), nil

	case "netsdr":
		host, port := splitHostPort(cfg.DevicePath)
		d := sdr.NewNetSDRDriver("_iqstream._tcp", format)
		d.Host, d.Port = host, port
		return d, nil

	case "external":
		parts := strings.Fields(cfg.DevicePath)
		if len(parts) == 0 {
			return nil, fmt.Errorf("modescore: external driver requires a device_path command")
		}
		return sdr.NewExternalDriver(parts[0], parts[1:], format), nil

	default:
		return nil, fmt.Errorf("modescore: unknown driver %q", cfg.Driver)
	}
}

// buildGainBackend composes the configured gain backend (none, hamlib, or
// hamlib wrapped in a GPIO bypass relay) for a driver that supports
// delegation, per spec §9's composition-over-duplicated-glue guidance.
func buildGainBackend(cfg config.Config) (sdr.GainBackend, error) {
	var backend sdr.GainBackend
	switch cfg.GainBackend {
	case "", "none":
		return nil, nil
	case "hamlib":
		hb, err := sdr.NewHamlibGainBackend(cfg.HamlibModel, cfg.HamlibDevice, cfg.HamlibStepsDB)
		if err != nil {
			return nil, fmt.Errorf("modescore: hamlib gain backend: %w", err)
		}
		backend = hb
	case "gpio-bypass":
		hb, err := sdr.NewHamlibGainBackend(cfg.HamlibModel, cfg.HamlibDevice, cfg.HamlibStepsDB)
		if err != nil {
			return nil, fmt.Errorf("modescore: hamlib gain backend: %w", err)
		}
		gb, err := sdr.NewGPIOBypassExtension(hb, cfg.GPIOBypassChip, cfg.GPIOBypassLine, cfg.GPIOBypassBelow)
		if err != nil {
			return nil, fmt.Errorf("modescore: gpio bypass extension: %w", err)
		}
		backend = gb
	default:
		return nil, fmt.Errorf("modescore: unknown gain backend %q", cfg.GainBackend)
	}
	return backend, nil
}

func splitHostPort(s string) (string, int) {
	host, portStr, ok := strings.Cut(s, ":")
	if !ok {
		return s, 0
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}
