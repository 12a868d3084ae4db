package animator

import (
	"math"
	"testing"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestLoopingClip(t *testing.T) {
	a := NewAnimator(WithClip(Clip{Name: "wave", First: 2, Count: 4, FramesPerSecond: 2, Loop: true}))

	cur, next, blend := a.Frame()
	if cur != 2 || next != 3 || blend != 0 {
		t.Fatalf("Frame at t=0 = (%d, %d, %v)", cur, next, blend)
	}

	a.Advance(0.75) // 1.5 keyframes
	cur, next, blend = a.Frame()
	if cur != 3 || next != 4 || !approx(blend, 0.5) {
		t.Errorf("Frame at t=0.75 = (%d, %d, %v), want (3, 4, 0.5)", cur, next, blend)
	}

	a.Advance(1.0) // t = 1.75 -> 3.5 keyframes, last wraps to first
	cur, next, blend = a.Frame()
	if cur != 5 || next != 2 || !approx(blend, 0.5) {
		t.Errorf("Frame at t=1.75 = (%d, %d, %v), want (5, 2, 0.5)", cur, next, blend)
	}

	a.Advance(0.5) // wraps past the 2s duration
	cur, _, blend = a.Frame()
	if cur != 2 || !approx(blend, 0.5) {
		t.Errorf("Frame after wrap = (%d, %v), want (2, 0.5)", cur, blend)
	}
}

func TestClampedClip(t *testing.T) {
	a := NewAnimator(WithClip(Clip{Name: "once", Count: 3, FramesPerSecond: 1}))
	a.Advance(10)
	cur, next, blend := a.Frame()
	if cur != 2 || next != 2 || blend != 0 {
		t.Errorf("Frame after end = (%d, %d, %v), want (2, 2, 0)", cur, next, blend)
	}
}

func TestPauseAndSpeed(t *testing.T) {
	a := NewAnimator(WithClip(Clip{Count: 4, FramesPerSecond: 1, Loop: true}), WithSpeed(2))
	a.Advance(0.25)
	if cur, _, blend := a.Frame(); cur != 0 || !approx(blend, 0.5) {
		t.Errorf("double speed: (%d, %v), want (0, 0.5)", cur, blend)
	}
	a.SetPaused(true)
	a.Advance(5)
	if _, _, blend := a.Frame(); !approx(blend, 0.5) {
		t.Errorf("paused animator advanced to blend %v", blend)
	}
}

func TestClipManagement(t *testing.T) {
	a := NewAnimator()
	if _, err := a.AddClip(Clip{Name: "empty"}); err == nil {
		t.Error("AddClip accepted a clip without keyframes")
	}
	idx, err := a.AddClip(Clip{Name: "run", Count: 2, FramesPerSecond: 4, Loop: true})
	if err != nil {
		t.Fatal(err)
	}
	if a.ClipIndex("run") != idx || a.ClipIndex("walk") != -1 {
		t.Error("ClipIndex lookup failed")
	}
	if err := a.PlayAnimation(5); err == nil {
		t.Error("PlayAnimation accepted an out-of-range index")
	}
	a.SetAnimationTime(0.125)
	if _, _, blend := a.Frame(); !approx(blend, 0.5) {
		t.Errorf("SetAnimationTime: blend %v, want 0.5", blend)
	}
	if cur, next, _ := NewAnimator().Frame(); cur != 0 || next != 0 {
		t.Error("animator without clips should report frame 0")
	}
}
