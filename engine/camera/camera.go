package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	position    mgl32.Vec3
	orientation mgl32.Quat

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix           mgl32.Mat4
	inverseViewMatrix    mgl32.Mat4
	projectionMatrix     mgl32.Mat4
	viewProjectionMatrix mgl32.Mat4
	frustum              common.Frustum
}

// Camera defines the interface for a perspective camera.
// The camera looks down its local -Z axis with +Y up. Matrices follow the
// OpenGL clip conventions of mgl32 and are recomputed whenever a property changes.
type Camera interface {
	// Position returns the world-space position of the camera.
	//
	// Returns:
	//   - mgl32.Vec3: the camera position
	Position() mgl32.Vec3

	// Orientation returns the rotation from camera space to world space.
	//
	// Returns:
	//   - mgl32.Quat: the camera orientation
	Orientation() mgl32.Quat

	// Forward returns the normalized world-space viewing direction.
	//
	// Returns:
	//   - mgl32.Vec3: the direction of the camera's -Z axis
	Forward() mgl32.Vec3

	// Up returns the normalized world-space up direction of the camera.
	//
	// Returns:
	//   - mgl32.Vec3: the direction of the camera's +Y axis
	Up() mgl32.Vec3

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// ViewMatrix returns the world-to-view transform.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	ViewMatrix() mgl32.Mat4

	// InverseViewMatrix returns the view-to-world transform.
	//
	// Returns:
	//   - mgl32.Mat4: the inverse view matrix
	InverseViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the perspective projection.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns projection * view.
	//
	// Returns:
	//   - mgl32.Mat4: the combined view-projection matrix
	ViewProjectionMatrix() mgl32.Mat4

	// Frustum returns the world-space view frustum used for culling.
	//
	// Returns:
	//   - common.Frustum: the frustum planes
	Frustum() common.Frustum

	// SetPosition moves the camera without changing its orientation.
	//
	// Parameters:
	//   - position: the new world-space position
	SetPosition(position mgl32.Vec3)

	// SetOrientation replaces the camera rotation.
	//
	// Parameters:
	//   - orientation: rotation from camera space to world space
	SetOrientation(orientation mgl32.Quat)

	// LookAt rotates the camera so it faces target.
	//
	// Parameters:
	//   - target: the world-space point to face
	//   - up: the world-space up hint
	LookAt(target, up mgl32.Vec3)

	// SetFov sets the vertical field of view in radians.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio. Called by the owner on window resize.
	//
	// Parameters:
	//   - aspect: width / height
	SetAspect(aspect float32)

	// SetClipPlanes sets the near and far plane distances.
	//
	// Parameters:
	//   - near: near plane distance; values <= 0 become MinNear
	//   - far: far plane distance; raised to near+MinClipSpan if closer
	SetClipPlanes(near, far float32)
}

var _ Camera = &cameraImpl{}

const (
	// MinNear replaces a near plane that is zero, negative or NaN.
	MinNear float32 = 1e-3
	// MinClipSpan is the smallest allowed distance between the near and far planes.
	MinClipSpan float32 = 0.01
)

// NewCamera creates a new Camera at the origin looking down -Z, with any provided options applied.
//
// Parameters:
//   - options: variadic list of CameraBuilderOption functions to configure the camera
//
// Returns:
//   - Camera: a new Camera instance with up-to-date matrices
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:          &sync.Mutex{},
		orientation: mgl32.QuatIdent(),
		fov:         45.0 * (math.Pi / 180.0), // radians
		aspect:      1.0,
		near:        0.1,
		far:         100.0,
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Orientation() mgl32.Quat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orientation
}

func (c *cameraImpl) Forward() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orientation.Rotate(mgl32.Vec3{0, 0, -1}).Normalize()
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orientation.Rotate(mgl32.Vec3{0, 1, 0}).Normalize()
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) InverseViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inverseViewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Frustum() common.Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frustum
}

func (c *cameraImpl) SetPosition(position mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	c.updateMatrices()
}

func (c *cameraImpl) SetOrientation(orientation mgl32.Quat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orientation = orientation.Normalize()
	c.updateMatrices()
}

func (c *cameraImpl) LookAt(target, up mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orientation = lookRotation(c.position, target, up)
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetClipPlanes(near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near, c.far = clipPlanes(near, far)
	c.updateMatrices()
}

// clipPlanes orders a pair of plane distances so that 0 < near and far >= near+MinClipSpan.
func clipPlanes(near, far float32) (float32, float32) {
	if !(near > 0) {
		near = MinNear
	}
	if !(far >= near+MinClipSpan) {
		far = near + MinClipSpan
	}
	return near, far
}

// updateMatrices recomputes the view, projection and frustum from the current state.
// Must be called with c.mu held (or during construction).
func (c *cameraImpl) updateMatrices() {
	p := c.position
	c.viewMatrix = c.orientation.Inverse().Mat4().Mul4(mgl32.Translate3D(-p[0], -p[1], -p[2]))
	c.inverseViewMatrix = mgl32.Translate3D(p[0], p[1], p[2]).Mul4(c.orientation.Mat4())
	c.projectionMatrix = mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
	c.frustum = common.ExtractFrustum(c.viewProjectionMatrix)
}

// lookRotation returns the orientation of an observer at eye facing target.
// When the view direction is parallel to up, world -Z is used as the up hint instead.
func lookRotation(eye, target, up mgl32.Vec3) mgl32.Quat {
	dir := target.Sub(eye)
	if dir.Len() < 1e-6 {
		return mgl32.QuatIdent()
	}
	dir = dir.Normalize()
	if float32(math.Abs(float64(dir.Dot(up.Normalize())))) > 0.999 {
		up = mgl32.Vec3{0, 0, -1}
	}
	view := mgl32.LookAtV(eye, target, up)
	view[12], view[13], view[14] = 0, 0, 0
	return mgl32.Mat4ToQuat(view.Transpose()).Normalize()
}
