package adaptive

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/adsbcore/modescore/internal/fifo"
	"github.com/adsbcore/modescore/internal/sdr"
)

// loudSampleThreshold is the fixed magnitude above which a sample is
// "loud" (spec 4.G): 46395, i.e. -3 dBFS on a 16-bit full scale.
const loudSampleThreshold = 46395

// DecodedSpan describes one successfully decoded message within a buffer's
// fresh samples, as indices relative to the start of the fresh (non-overlap)
// region. SignalLevel is on a linear 0..1 power scale, matching the linear
// power units loud_threshold is derived in (spec §9 open question 3: both
// are linear power, so the comparison is dimensionally consistent).
type DecodedSpan struct {
	Start, End  int // [Start, End), relative to the fresh region
	SignalLevel float64
}

type rangeState int

const (
	rangeScanUp rangeState = iota
	rangeScanDown
	rangeIdle
)

func (s rangeState) String() string {
	switch s {
	case rangeScanUp:
		return "SCAN_UP"
	case rangeScanDown:
		return "SCAN_DOWN"
	case rangeIdle:
		return "IDLE"
	default:
		return "INVALID"
	}
}

// GainChange is emitted synchronously (spec §6) whenever the controller
// commands a gain step change.
type GainChange struct {
	OldStep, NewStep int
	OldDB, NewDB     float64
	Reason           string
}

// Controller implements spec 4.G's two cooperating control loops. It is
// consumer-thread-local: all methods must be called from a single
// goroutine (spec §5), matching the single-threaded demodulator/adaptive
// feed.
type Controller struct {
	cfg  Config
	gain sdr.GainController
	log  *log.Logger

	enabled bool // false if the driver reports no gain control at all

	gainMin, gainMax int
	gainUpDB         float64
	gainDownDB       float64

	// Block-scheduler state (spec 4.H).
	windowSize       int
	blockSize        int
	blockSamplesSeen int
	windowSamplesSeen int
	windowLoudCount  int
	consecutiveLoudWindows int
	blockUndecodedLoudBursts int
	blockLoudDecodedCount   int

	histogram [65536]uint64
	histTotal uint64

	smoothedNoise       float64
	smoothedNoiseInit   bool
	smoothedBurst       float64
	smoothedLoudDecoded float64

	availableRangeDB float64

	rangeState rangeState
	rangeDelay int

	suppressing         bool
	suppressOriginalStep int
	loudBlocks          int
	quietBlocks         int
	changeDelay         int

	gainChangedThisBlock bool

	// OnGainChange, if set, is called synchronously after each
	// successful gain change (spec §6's per-block logging record).
	OnGainChange func(GainChange)
}

// NewController validates cfg and builds a Controller driving gain through
// gc. A nil gc, or one whose MaxGainStep() < 0, disables both control loops
// per spec 4.F ("a driver that lacks gain control returns
// max_gain_step < 0; the adaptive controller disables itself").
func NewController(cfg Config, gc sdr.GainController, logger *log.Logger) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	c := &Controller{
		cfg:        cfg,
		gain:       gc,
		log:        logger,
		windowSize: cfg.BurstWindowSize(),
		blockSize:  cfg.BlockSize(),
		rangeState: rangeScanUp,
	}
	c.enabled = gc != nil && gc.MaxGainStep() >= 0
	if c.enabled {
		c.computeGainLimits()
		c.recomputeGainDeltas()
	}
	return c, nil
}

func (c *Controller) computeGainLimits() {
	maxStep := c.gain.MaxGainStep()
	c.gainMin, c.gainMax = 0, maxStep
	for step := 0; step <= maxStep; step++ {
		if c.gain.GainDB(step) >= c.cfg.MinGainDB {
			c.gainMin = step
			break
		}
	}
	for step := maxStep; step >= 0; step-- {
		if c.gain.GainDB(step) <= c.cfg.MaxGainDB {
			c.gainMax = step
			break
		}
	}
	if c.gainMax < c.gainMin {
		c.gainMax = c.gainMin
	}
}

// recomputeGainDeltas recomputes gain_up_db/gain_down_db from the driver's
// current step — spec 4.G requires this on every gain change since ladder
// step size may be non-uniform.
func (c *Controller) recomputeGainDeltas() {
	cur := c.clampedCurrentStep()
	curDB := c.gain.GainDB(cur)
	if cur < c.gainMax {
		c.gainUpDB = c.gain.GainDB(cur+1) - curDB
	} else {
		c.gainUpDB = 0
	}
	if cur > c.gainMin {
		c.gainDownDB = curDB - c.gain.GainDB(cur-1)
	} else {
		c.gainDownDB = 0
	}
}

func (c *Controller) clampedCurrentStep() int {
	cur := c.gain.CurrentGainStep()
	if cur < c.gainMin {
		return c.gainMin
	}
	if cur > c.gainMax {
		return c.gainMax
	}
	return cur
}

// loudThreshold is the linear-power level above which a decoded message is
// counted toward the "loud decoded" rate (spec 4.G): 10^((-gain_up_db-3)/10).
func (c *Controller) loudThreshold() float64 {
	return math.Pow(10, (-c.gainUpDB-3)/10)
}

// FeedBuffer advances the block scheduler with one buffer's fresh samples
// (spec 4.H), split by spans into decoded (excluded from noise/burst
// statistics, counted only for "loud decoded") and undecoded (fed to both)
// segments. spans must be sorted by Start and non-overlapping; gaps between
// them are treated as undecoded.
func (c *Controller) FeedBuffer(buf *fifo.Buffer, spans []DecodedSpan) {
	fresh := buf.Data[buf.Overlap:buf.ValidLength]
	pos := 0
	for _, span := range spans {
		if span.Start > pos {
			c.feedUndecoded(fresh[pos:span.Start])
			pos = span.Start
		}
		if span.End > pos {
			c.feedDecoded(fresh[pos:span.End], span.SignalLevel)
			pos = span.End
		}
	}
	if pos < len(fresh) {
		c.feedUndecoded(fresh[pos:])
	}
}

func (c *Controller) feedUndecoded(samples []uint16) {
	for _, s := range samples {
		c.histogram[s]++
		c.histTotal++
		c.advanceWindow(s > loudSampleThreshold)
	}
}

// feedDecoded advances the window state as if every sample were quiet
// (spec 4.G) and, once per span, credits the "loud decoded" counter if the
// decoded signal's linear power level meets loudThreshold — both operands
// are linear power (spec §9 open question 3).
func (c *Controller) feedDecoded(samples []uint16, signalLevel float64) {
	if signalLevel >= c.loudThreshold() {
		c.blockLoudDecodedCount++
	}
	for range samples {
		c.advanceWindow(false)
	}
}

// advanceWindow feeds one sample's loud/quiet classification into the
// burst-window and block counters, triggering end-of-window and
// end-of-block housekeeping at exact boundaries. Processing strictly one
// sample at a time (rather than assuming call boundaries align with window
// boundaries) is what makes this invariant to arbitrary input chunking
// (spec §8 property 8).
func (c *Controller) advanceWindow(loud bool) {
	if loud {
		c.windowLoudCount++
	}
	c.windowSamplesSeen++
	c.blockSamplesSeen++

	if c.windowSamplesSeen == c.windowSize {
		c.finishWindow()
	}
	if c.blockSamplesSeen == c.blockSize {
		c.endOfBlock()
	}
}

// finishWindow classifies the just-completed window and updates the
// undecoded-loud-burst run counter: a window is "loud" if its loud-sample
// count exceeds windowSize/4; a run of 2-5 consecutive loud windows counts
// as one burst, runs of >=6 are ignored as too long to be a Mode S message
// (spec 4.G). Evaluating exactly at windowSamplesSeen == windowSize, for
// every window with no skipped boundary, is the regression coverage for
// spec §9's documented "while(--windows)" off-by-one: this form never drops
// the final window of an exact multiple-of-windowSize span.
func (c *Controller) finishWindow() {
	loud := c.windowLoudCount > c.windowSize/4
	if loud {
		c.consecutiveLoudWindows++
	} else {
		if c.consecutiveLoudWindows >= 2 && c.consecutiveLoudWindows <= 5 {
			c.blockUndecodedLoudBursts++
		}
		c.consecutiveLoudWindows = 0
	}
	c.windowSamplesSeen = 0
	c.windowLoudCount = 0
}

// endOfBlock runs the full spec 4.G block-boundary sequence: finalize
// noise, finalize burst, run burst control, run range control.
func (c *Controller) endOfBlock() {
	c.blockSamplesSeen = 0
	c.finalizeNoise()
	c.finalizeBurst()

	c.gainChangedThisBlock = false
	if c.enabled {
		if c.cfg.BurstControlEnabled {
			c.runBurstControl()
		}
		if c.cfg.RangeControlEnabled {
			c.runRangeControl()
		}
	}
}

func (c *Controller) finalizeNoise() {
	percentile := noisePercentile(&c.histogram, c.histTotal, c.cfg.RangePercentile)
	if !c.smoothedNoiseInit {
		c.smoothedNoise = percentile
		c.smoothedNoiseInit = true
	} else {
		c.smoothedNoise = c.smoothedNoise*(1-c.cfg.RangeAlpha) + percentile*c.cfg.RangeAlpha
	}

	noiseDBFS := 20 * math.Log10(c.smoothedNoise/65536)
	c.availableRangeDB = -noiseDBFS

	for i := range c.histogram {
		c.histogram[i] = 0
	}
	c.histTotal = 0
}

func (c *Controller) finalizeBurst() {
	c.smoothedBurst = c.smoothedBurst*(1-c.cfg.BurstAlpha) + float64(c.blockUndecodedLoudBursts)*c.cfg.BurstAlpha
	c.smoothedLoudDecoded = c.smoothedLoudDecoded*(1-c.cfg.BurstAlpha) + float64(c.blockLoudDecodedCount)*c.cfg.BurstAlpha
	c.blockUndecodedLoudBursts = 0
	c.blockLoudDecodedCount = 0
}

// noisePercentile returns the value v such that percentile% of the
// histogram's mass falls at or below v (a radix histogram over the full
// magnitude range, spec 4.G).
func noisePercentile(hist *[65536]uint64, total uint64, percentile int) float64 {
	if total == 0 {
		return 0
	}
	target := total * uint64(percentile) / 100
	var cum uint64
	for v, count := range hist {
		cum += count
		if cum > target {
			return float64(v)
		}
	}
	return 65535
}

// setGain enforces "at most one set_gain_step call per end-of-block"
// (spec §8 property 2): the first loop to act in a given block wins; a
// second attempt this block is silently skipped. Failures are logged and
// ignored, never retried (spec §7) — the controller observes the new
// actual step via the driver on the next block tick.
func (c *Controller) setGain(newStep int, reason string) {
	if c.gainChangedThisBlock {
		return
	}
	if newStep < c.gainMin {
		newStep = c.gainMin
	}
	if newStep > c.gainMax {
		newStep = c.gainMax
	}
	oldStep := c.clampedCurrentStep()
	if newStep == oldStep {
		return
	}
	oldDB := c.gain.GainDB(oldStep)
	actual := c.gain.SetGainStep(newStep)
	newDB := c.gain.GainDB(actual)

	c.gainChangedThisBlock = true
	c.recomputeGainDeltas()

	change := GainChange{OldStep: oldStep, NewStep: actual, OldDB: oldDB, NewDB: newDB, Reason: reason}
	c.log.Info("adaptive gain change",
		"old_step", change.OldStep, "new_step", change.NewStep,
		"old_db", change.OldDB, "new_db", change.NewDB, "reason", change.Reason)
	if c.OnGainChange != nil {
		c.OnGainChange(change)
	}
}

// AvailableRangeDB reports the current smoothed dynamic-range estimate.
func (c *Controller) AvailableRangeDB() float64 { return c.availableRangeDB }

// RangeState reports the range control loop's current state, for tests and
// diagnostics.
func (c *Controller) RangeState() string { return c.rangeState.String() }

// Suppressing reports whether the burst control loop is currently
// suppressing gain.
func (c *Controller) Suppressing() bool { return c.suppressing }
