package renderer

import "errors"

var (
	// ErrDeviceLost is returned when the GPU device can no longer accept work.
	ErrDeviceLost = errors.New("renderer: device lost")

	// ErrUnknownAttachment is reported for a handle the device did not create.
	ErrUnknownAttachment = errors.New("renderer: unknown attachment")

	// ErrInvalidState is reported when an attachment is used in a state that does not
	// allow that use, e.g. sampling a color target.
	ErrInvalidState = errors.New("renderer: attachment in wrong state")

	// ErrNoPass is reported for draws recorded outside a render pass.
	ErrNoPass = errors.New("renderer: no render pass open")

	// ErrUnsupportedFeature is returned when compiling a descriptor that needs a
	// feature the device lacks.
	ErrUnsupportedFeature = errors.New("renderer: unsupported feature")
)
