package adaptive

// runRangeControl implements the range control state machine of spec 4.G.
// Any state value other than the three defined here is rewritten to IDLE
// defensively before evaluation (spec's "inconsistent values must be
// rewritten to IDLE").
func (c *Controller) runRangeControl() {
	switch c.rangeState {
	case rangeScanUp, rangeScanDown, rangeIdle:
	default:
		c.rangeState = rangeIdle
	}

	switch c.rangeState {
	case rangeScanUp:
		c.stepScanUp()
	case rangeScanDown:
		c.stepScanDown()
	case rangeIdle:
		c.stepIdle()
	}
}

func (c *Controller) stepScanUp() {
	if c.rangeDelay > 0 {
		c.rangeDelay--
		return
	}
	cur := c.clampedCurrentStep()
	switch {
	case c.availableRangeDB < c.cfg.RangeTargetDB:
		c.rangeState = rangeScanDown
		c.setGain(cur-1, "range scan up: below target, reversing to scan down")
		c.rangeDelay = c.cfg.RangeScanDelay
	case cur >= c.gainMax:
		c.rangeState = rangeIdle
		c.rangeDelay = c.cfg.RangeRescanDelay
	default:
		c.setGain(cur+1, "range scan up: headroom available, increasing gain")
		c.rangeDelay = c.cfg.RangeScanDelay
	}
}

func (c *Controller) stepScanDown() {
	if c.rangeDelay > 0 {
		c.rangeDelay--
		return
	}
	cur := c.clampedCurrentStep()
	switch {
	case c.availableRangeDB >= c.cfg.RangeTargetDB:
		c.rangeState = rangeIdle
		c.rangeDelay = c.cfg.RangeRescanDelay
	case cur <= c.gainMin:
		c.rangeState = rangeIdle
		c.rangeDelay = c.cfg.RangeRescanDelay
	default:
		c.setGain(cur-1, "range scan down: still above target, decreasing gain")
		c.rangeDelay = c.cfg.RangeScanDelay
	}
}

// stepIdle implements spec 4.G's IDLE transitions. The "noise surged" fast
// path is evaluated unconditionally, regardless of rangeDelay, so a sudden
// jump in noise floor is acted on the very next block boundary (spec §8
// scenario S2) instead of waiting out a stale delay counter.
func (c *Controller) stepIdle() {
	cur := c.clampedCurrentStep()

	if c.availableRangeDB+c.gainDownDB/2 < c.cfg.RangeTargetDB && cur > c.gainMin {
		c.rangeState = rangeScanDown
		c.setGain(cur-1, "range idle: noise surged, fast-path to scan down")
		c.rangeDelay = c.cfg.RangeScanDelay
		return
	}

	if c.rangeDelay > 0 {
		c.rangeDelay--
		return
	}

	if c.availableRangeDB >= c.cfg.RangeTargetDB && cur < c.gainMax {
		c.rangeState = rangeScanUp
		c.rangeDelay = 0
		return
	}

	c.rangeDelay = c.cfg.RangeRescanDelay
}

// runBurstControl implements spec 4.G's burst control loop. It only runs
// when the range control loop is IDLE (checked here against this block's
// *pre-range-control* state, per spec's block-boundary ordering: burst
// control runs before range control within the same end-of-block tick).
func (c *Controller) runBurstControl() {
	if c.rangeState != rangeIdle {
		return
	}

	switch {
	case c.smoothedBurst > c.cfg.BurstLoudRate:
		c.loudBlocks++
		c.quietBlocks = 0
	case c.smoothedLoudDecoded < c.cfg.BurstQuietRate:
		c.quietBlocks++
		c.loudBlocks = 0
	default:
		c.loudBlocks = 0
		c.quietBlocks = 0
	}

	if c.changeDelay > 0 {
		c.changeDelay--
		return
	}

	cur := c.clampedCurrentStep()
	switch {
	case c.loudBlocks >= c.cfg.BurstLoudRunlength:
		if !c.suppressing {
			c.suppressing = true
			c.suppressOriginalStep = cur
		}
		c.setGain(cur-1, "burst control: loud-burst storm, suppressing gain")
		c.loudBlocks = 0
		c.changeDelay = c.cfg.BurstChangeDelay
	case c.suppressing && c.quietBlocks >= c.cfg.BurstQuietRunlength:
		c.setGain(cur+1, "burst control: quiet recovery, restoring gain")
		if c.clampedCurrentStep() >= c.suppressOriginalStep {
			c.suppressing = false
		}
		c.quietBlocks = 0
		c.changeDelay = c.cfg.BurstChangeDelay
	}
}
