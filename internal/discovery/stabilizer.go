package discovery

// Decision is the outcome of feeding one extent sample to a Detector
type Decision int

const (
	Continue Decision = iota
	Stop
)

// String returns the string representation of the decision
func (d Decision) String() string {
	if d == Stop {
		return "stop"
	}
	return "continue"
}

// StopReason explains why a Detector signalled Stop
type StopReason int

const (
	ReasonNone StopReason = iota
	ReasonNoGrowth
	ReasonStepCap
)

// String returns the string representation of the reason
func (r StopReason) String() string {
	switch r {
	case ReasonNoGrowth:
		return "no growth"
	case ReasonStepCap:
		return "step cap reached"
	default:
		return "none"
	}
}

// Detector decides when a scroll/load loop has stopped producing content.
//
// Only exact equality with the previous sample counts as "no change"; a
// shrinking extent is treated like growth. Stop is signalled after
// requiredRepeats consecutive unchanged readings, or once maxSteps growth
// steps have been observed.
type Detector struct {
	maxSteps        int
	requiredRepeats int

	previous    float64
	hasPrevious bool
	repeatCount int
	stepCount   int
	reason      StopReason
}

// NewDetector creates a Detector. Values below 1 are raised to 1.
func NewDetector(maxSteps, requiredRepeats int) *Detector {
	if maxSteps < 1 {
		maxSteps = 1
	}
	if requiredRepeats < 1 {
		requiredRepeats = 1
	}
	return &Detector{
		maxSteps:        maxSteps,
		requiredRepeats: requiredRepeats,
	}
}

// Observe feeds one extent measurement and returns whether to continue
func (d *Detector) Observe(sample float64) Decision {
	if d.hasPrevious && sample == d.previous {
		d.repeatCount++
	} else {
		d.repeatCount = 0
		d.stepCount++
	}
	d.previous = sample
	d.hasPrevious = true

	return d.decide()
}

// Stall records an iteration whose measurement could not be taken.
// It counts as a non-growth reading and leaves the previous extent untouched.
func (d *Detector) Stall() Decision {
	d.repeatCount++
	return d.decide()
}

func (d *Detector) decide() Decision {
	if d.repeatCount >= d.requiredRepeats {
		d.reason = ReasonNoGrowth
		return Stop
	}
	if d.stepCount >= d.maxSteps {
		d.reason = ReasonStepCap
		return Stop
	}
	return Continue
}

// Steps returns the number of growth steps observed
func (d *Detector) Steps() int { return d.stepCount }

// Repeats returns the current run of unchanged readings
func (d *Detector) Repeats() int { return d.repeatCount }

// Previous returns the last recorded extent and whether one exists
func (d *Detector) Previous() (float64, bool) { return d.previous, d.hasPrevious }

// Reason returns why the detector stopped, or ReasonNone
func (d *Detector) Reason() StopReason { return d.reason }
