package sdr

import (
	"fmt"
	"sync"

	hamlib "github.com/xylo04/goHamlib"
)

// HamlibGainBackend realizes the adaptive controller's abstract gain ladder
// as Hamlib CAT control of a radio/front-end's attenuator level, for SDR
// front-ends with a CAT-controllable attenuator stage rather than a
// software-only gain table. Grounded on the teacher's src/ptt.go use of the
// same library for CAT-controlled PTT; here it drives RIG_LEVEL_ATT (only)
// instead of the push-to-talk line.
type HamlibGainBackend struct {
	mu    sync.Mutex
	rig   *hamlib.Rig
	steps []float64 // dB value of each ladder step, ascending
}

// NewHamlibGainBackend opens a Hamlib rig handle for modelID over port
// (e.g. "/dev/ttyUSB0" or a rigctld TCP address), with stepsDB giving the
// attenuation/gain value, in dB, of each rung of the discrete ladder the
// adaptive controller will walk.
func NewHamlibGainBackend(modelID int, port string, stepsDB []float64) (*HamlibGainBackend, error) {
	rig := hamlib.NewRig(modelID)
	rig.SetConf("rig_pathname", port)
	if err := rig.Open(); err != nil {
		return nil, fmt.Errorf("sdr: hamlib open %q: %w", port, err)
	}
	return &HamlibGainBackend{rig: rig, steps: stepsDB}, nil
}

func (g *HamlibGainBackend) MaxGainStep() int {
	if len(g.steps) == 0 {
		return -1
	}
	return len(g.steps) - 1
}

func (g *HamlibGainBackend) GainDB(step int) float64 {
	if step < 0 || step >= len(g.steps) {
		return 0
	}
	return g.steps[step]
}

// CurrentGainStep reads RIG_LEVEL_ATT back from the rig and returns the
// ladder step nearest to that value (0 if the read fails). It does not keep
// the step last passed to SetGainStep, so a hardware value that lands nearer
// another rung is reported as that rung, not as the requested step.
func (g *HamlibGainBackend) CurrentGainStep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	level, err := g.rig.GetLevel(hamlib.RIG_LEVEL_ATT)
	if err != nil {
		return 0
	}
	return g.nearestStep(level)
}

// SetGainStep clamps step to the ladder, sets RIG_LEVEL_ATT to
// stepsDB[step] and returns the clamped requested step, not a hardware
// readback. Only this return value echoes the request; CurrentGainStep
// reports the readback.
func (g *HamlibGainBackend) SetGainStep(step int) int {
	if step < 0 {
		step = 0
	}
	if step > g.MaxGainStep() {
		step = g.MaxGainStep()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	_ = g.rig.SetLevel(hamlib.RIG_LEVEL_ATT, g.steps[step])
	return step
}

func (g *HamlibGainBackend) nearestStep(valueDB float64) int {
	best, bestDelta := 0, -1.0
	for i, v := range g.steps {
		d := v - valueDB
		if d < 0 {
			d = -d
		}
		if bestDelta < 0 || d < bestDelta {
			best, bestDelta = i, d
		}
	}
	return best
}

func (g *HamlibGainBackend) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rig.Close()
}
