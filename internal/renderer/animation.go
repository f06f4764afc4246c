package renderer

// Repeat selects whether an animation plays once and surrenders the
// display or keeps playing while dwell time remains (spec.md GLOSSARY,
// "Repeat mode").
type Repeat int

const (
	RepeatOnce Repeat = iota
	RepeatForDuration
)

// AnimState is the lifecycle state an Animation reports back to the
// scheduler (spec.md §3, "DeviceContext").
type AnimState int

const (
	StateInProgress AnimState = iota
	StateFinished
	StateCanFinish
)

// Animation is the per-entry phase tracker from spec.md §3,
// bit-for-bit grounded in original_source's renderer/animation.rs,
// including its tick->frame mapping and can_wrap edge detection.
type Animation struct {
	edgeStepTime int
	stepTime     int
	steps        int
	totalTime    int
	repeat       Repeat
	currentTick  int
	canWrap      bool
}

// NewAnimation constructs an Animation. TotalTime is 2*edge +
// step*(steps-2) for steps>=2, else 0 (spec.md §3).
func NewAnimation(edgeStepTime, stepTime, steps int, repeat Repeat) *Animation {
	totalTime := 0
	if steps >= 2 {
		totalTime = edgeStepTime*2 + (steps-2)*stepTime
	}
	return &Animation{
		edgeStepTime: edgeStepTime,
		stepTime:     stepTime,
		steps:        steps,
		totalTime:    totalTime,
		repeat:       repeat,
		currentTick:  1,
		canWrap:      false,
	}
}

// Step advances the animation by one tick and returns the frame index
// for this tick, in [0, steps-1]. can_wrap becomes true exactly when
// the last tick of the last frame has been reached.
func (a *Animation) Step() int {
	var step int
	var canWrap bool

	switch {
	case a.currentTick >= a.totalTime:
		step, canWrap = a.steps-1, true
	case a.currentTick > a.totalTime-a.edgeStepTime:
		step, canWrap = a.steps-1, false
	case a.currentTick <= a.edgeStepTime:
		step, canWrap = 0, false
	default:
		step, canWrap = (a.currentTick-a.edgeStepTime-1)/a.stepTime+1, false
	}

	a.currentTick++
	a.canWrap = canWrap
	return step
}

// State derives the lifecycle state from (repeat, can_wrap) per the
// table in spec.md §4.4.
func (a *Animation) State() AnimState {
	switch {
	case a.repeat == RepeatOnce && !a.canWrap:
		return StateInProgress
	case a.repeat == RepeatOnce && a.canWrap:
		return StateFinished
	default: // RepeatForDuration
		return StateCanFinish
	}
}

// RepeatType reports the configured repeat mode.
func (a *Animation) RepeatType() Repeat { return a.repeat }

// CanWrap reports whether the animation is ready to restart.
func (a *Animation) CanWrap() bool { return a.canWrap }

// Reset restarts the animation at its first tick.
func (a *Animation) Reset() { a.currentTick = 1 }

// TotalTime exposes the computed total time; used by tests asserting
// the invariant in spec.md §8.
func (a *Animation) TotalTime() int { return a.totalTime }
