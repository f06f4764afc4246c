package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// runAnimationTest reproduces original_source's renderer/animation.rs
// test harness: it steps through a full edge/steady/wrap cycle and
// asserts the (step, can_wrap, state) triple at every tick.
func runAnimationTest(t *testing.T, edgeTime, stepTime, steps int) {
	t.Helper()
	anim := NewAnimation(edgeTime, stepTime, steps, RepeatOnce)

	totalTime := 0
	if steps != 1 {
		totalTime = 2*edgeTime + stepTime*(steps-2)
	}
	assert.Equal(t, totalTime, anim.TotalTime())

	for i := 0; i < edgeTime; i++ {
		assert.Equal(t, 0, anim.Step())
		assert.False(t, anim.CanWrap())
		assert.Equal(t, StateInProgress, anim.State())
	}

	for step := 0; step < steps-2; step++ {
		for i := 0; i < stepTime; i++ {
			assert.Equal(t, step+1, anim.Step())
			assert.False(t, anim.CanWrap())
			assert.Equal(t, StateInProgress, anim.State())
		}
	}

	for i := 0; i < edgeTime-1; i++ {
		assert.Equal(t, steps-1, anim.Step())
		assert.False(t, anim.CanWrap())
		assert.Equal(t, StateInProgress, anim.State())
	}
	assert.Equal(t, steps-1, anim.Step())
	assert.True(t, anim.CanWrap())
	assert.Equal(t, StateFinished, anim.State())
}

func TestAnimationEdgeStepTimeAndStepTimeEqual(t *testing.T) {
	runAnimationTest(t, 6, 6, 20)
}

func TestAnimationEdgeStepTimeGreaterThanStepTime(t *testing.T) {
	runAnimationTest(t, 8, 2, 20)
}

func TestAnimationStepTimeGreaterThanEdgeStepTime(t *testing.T) {
	runAnimationTest(t, 2, 8, 20)
}

func TestAnimationSingleStep(t *testing.T) {
	anim := NewAnimation(7, 5, 1, RepeatOnce)
	assert.Equal(t, 0, anim.TotalTime())
	assert.Equal(t, 0, anim.Step())
	assert.True(t, anim.CanWrap())
	assert.Equal(t, StateFinished, anim.State())
}

func TestAnimationForDurationAlwaysCanFinish(t *testing.T) {
	anim := NewAnimation(2, 2, 3, RepeatForDuration)
	for i := 0; i < 10; i++ {
		anim.Step()
		assert.Equal(t, StateCanFinish, anim.State())
	}
}
