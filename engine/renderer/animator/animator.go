// Package animator sequences keyframe morph animation. An Animator owns no geometry: it
// maps elapsed time onto a pair of keyframe indices and the blend factor between them,
// which animated drawables feed to the morph pipelines.
package animator

import (
	"fmt"
	"math"
	"sync"
)

// Clip is a named run of keyframes played at a fixed rate.
type Clip struct {
	// Name identifies the clip, e.g. "run".
	Name string

	// First is the index of the clip's first keyframe.
	First int

	// Count is the number of keyframes in the clip, at least 1.
	Count int

	// FramesPerSecond is the playback rate in keyframes per second.
	FramesPerSecond float32

	// Loop wraps the last keyframe back to the first. Non-looping clips hold their last keyframe.
	Loop bool
}

// Duration returns the clip length in seconds.
func (c Clip) Duration() float32 {
	if c.FramesPerSecond <= 0 {
		return 0
	}
	if c.Loop {
		return float32(c.Count) / c.FramesPerSecond
	}
	return float32(c.Count-1) / c.FramesPerSecond
}

// animator is the implementation of the Animator interface.
type animator struct {
	mu      sync.Mutex
	clips   []Clip
	current int
	time    float32
	speed   float32
	paused  bool
}

// Animator advances morph animation playback.
type Animator interface {
	// AddClip registers a clip and returns its index.
	//
	// Parameters:
	//   - clip: the clip to add
	//
	// Returns:
	//   - int: the clip index
	//   - error: an error if the clip has no keyframes or a negative rate
	AddClip(clip Clip) (int, error)

	// ClipCount returns the number of registered clips.
	ClipCount() int

	// ClipIndex returns the index of the named clip, or -1 if it is not registered.
	ClipIndex(name string) int

	// PlayAnimation switches to a clip and restarts it.
	//
	// Parameters:
	//   - index: the clip index
	//
	// Returns:
	//   - error: an error if the index is out of range
	PlayAnimation(index int) error

	// SetAnimationSpeed scales playback; 1 is the clip's own rate.
	SetAnimationSpeed(speed float32)

	// SetAnimationTime seeks the current clip to t seconds.
	SetAnimationTime(t float32)

	// SetPaused stops or resumes time advancement.
	SetPaused(paused bool)

	// Advance moves playback forward by dt seconds.
	Advance(dt float32)

	// Frame returns the absolute keyframe indices to draw and the blend factor between them.
	//
	// Returns:
	//   - int: the current keyframe index
	//   - int: the next keyframe index
	//   - float32: the blend factor in [0,1) from current toward next
	Frame() (int, int, float32)
}

var _ Animator = &animator{}

// NewAnimator creates an Animator with the provided options applied.
//
// Parameters:
//   - options: variadic list of AnimatorBuilderOption functions
//
// Returns:
//   - Animator: the new animator, playing clip 0 if one was added
func NewAnimator(options ...AnimatorBuilderOption) Animator {
	a := &animator{speed: 1}
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *animator) AddClip(clip Clip) (int, error) {
	if clip.Count < 1 {
		return -1, fmt.Errorf("animator: clip %q has no keyframes", clip.Name)
	}
	if clip.FramesPerSecond < 0 || clip.First < 0 {
		return -1, fmt.Errorf("animator: clip %q has invalid range or rate", clip.Name)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clips = append(a.clips, clip)
	return len(a.clips) - 1, nil
}

func (a *animator) ClipCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.clips)
}

func (a *animator) ClipIndex(name string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, c := range a.clips {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (a *animator) PlayAnimation(index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= len(a.clips) {
		return fmt.Errorf("animator: clip index %d out of range [0,%d)", index, len(a.clips))
	}
	a.current = index
	a.time = 0
	return nil
}

func (a *animator) SetAnimationSpeed(speed float32) {
	a.mu.Lock()
	a.speed = speed
	a.mu.Unlock()
}

func (a *animator) SetAnimationTime(t float32) {
	a.mu.Lock()
	a.time = max(t, 0)
	a.mu.Unlock()
}

func (a *animator) SetPaused(paused bool) {
	a.mu.Lock()
	a.paused = paused
	a.mu.Unlock()
}

func (a *animator) Advance(dt float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.paused || len(a.clips) == 0 {
		return
	}
	a.time = max(a.time+dt*a.speed, 0)
	clip := a.clips[a.current]
	if d := clip.Duration(); d > 0 {
		if clip.Loop {
			a.time = float32(math.Mod(float64(a.time), float64(d)))
		} else {
			a.time = min(a.time, d)
		}
	}
}

func (a *animator) Frame() (int, int, float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.clips) == 0 {
		return 0, 0, 0
	}
	clip := a.clips[a.current]
	if clip.Count == 1 || clip.FramesPerSecond == 0 {
		return clip.First, clip.First, 0
	}

	pos := a.time * clip.FramesPerSecond
	whole := int(pos)
	blend := pos - float32(whole)
	if !clip.Loop && whole >= clip.Count-1 {
		last := clip.First + clip.Count - 1
		return last, last, 0
	}
	cur := whole % clip.Count
	next := (cur + 1) % clip.Count
	return clip.First + cur, clip.First + next, blend
}
