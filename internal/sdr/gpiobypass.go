package sdr

import (
	gpiocdev "github.com/warthog618/go-gpiocdev"
)

// GPIOBypassExtension wraps a GainBackend, adding a coarse hardware
// attenuator-bypass relay: when the software gain ladder descends below
// BypassBelowStep, a GPIO line is driven to switch in (or out of) an
// external attenuator pad, extending the effective dynamic range beyond
// what the ladder alone covers. This supplements spec §3's pure-software
// gain model with a common real-world pattern; it never changes the
// ladder's step/dB semantics the controller observes, only a side effect on
// step transitions, per SPEC_FULL.md's "gated off by default" supplement.
//
// Grounded on the teacher's GPIO PTT keying (same library, go-gpiocdev),
// repurposed from keying a radio's transmitter to switching a relay.
type GPIOBypassExtension struct {
	GainBackend
	line            *gpiocdev.Line
	bypassBelowStep int
	engaged         bool
}

// NewGPIOBypassExtension opens chip/offset as an output line and wraps
// inner, engaging the bypass relay whenever the requested step is below
// bypassBelowStep.
func NewGPIOBypassExtension(inner GainBackend, chip string, offset, bypassBelowStep int) (*GPIOBypassExtension, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	return &GPIOBypassExtension{GainBackend: inner, line: line, bypassBelowStep: bypassBelowStep}, nil
}

func (g *GPIOBypassExtension) SetGainStep(step int) int {
	actual := g.GainBackend.SetGainStep(step)
	wantEngaged := actual < g.bypassBelowStep
	if wantEngaged != g.engaged {
		val := 0
		if wantEngaged {
			val = 1
		}
		_ = g.line.SetValue(val)
		g.engaged = wantEngaged
	}
	return actual
}

func (g *GPIOBypassExtension) Close() error {
	return g.line.Close()
}
