package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraBuilderOption is a function that configures a Camera instance during construction.
type CameraBuilderOption func(*cameraImpl)

// WithPosition sets the camera's world-space position.
//
// Parameters:
//   - position: the camera position
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's position
func WithPosition(position mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = position
	}
}

// WithLookAt orients the camera toward target. Apply after WithPosition.
//
// Parameters:
//   - target: the world-space point to face
//   - up: the world-space up hint
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's orientation
func WithLookAt(target, up mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.orientation = lookRotation(c.position, target, up)
	}
}

// WithFov sets the camera's vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithAspect sets the camera's aspect ratio (width / height).
//
// Parameters:
//   - aspect: the aspect ratio to set
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithClipPlanes sets the camera's near and far plane distances.
//
// Parameters:
//   - near: the near plane distance; raised to MinNear if not positive
//   - far: the far plane distance; raised to near+MinClipSpan if closer
//
// Returns:
//   - CameraBuilderOption: a function that sets the clip planes
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near, c.far = clipPlanes(near, far)
	}
}
