package animator

// AnimatorBuilderOption is a functional option for configuring an Animator during construction.
type AnimatorBuilderOption func(*animator)

// WithClip is an option builder that registers a clip. Invalid clips are ignored.
//
// Parameters:
//   - clip: the clip to register
//
// Returns:
//   - AnimatorBuilderOption: a function that adds the clip to an animator
func WithClip(clip Clip) AnimatorBuilderOption {
	return func(a *animator) {
		_, _ = a.AddClip(clip)
	}
}

// WithSpeed is an option builder that sets the initial playback speed.
//
// Parameters:
//   - speed: the playback multiplier
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the speed to an animator
func WithSpeed(speed float32) AnimatorBuilderOption {
	return func(a *animator) {
		a.speed = speed
	}
}
