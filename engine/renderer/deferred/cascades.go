package deferred

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// minCascadeSpan keeps the last split above the near plane when nothing casts shadows,
// so split distances stay strictly increasing. Cameras keep at least this much between
// their planes.
const minCascadeSpan = camera.MinClipSpan

// CascadeSet is the shadow setup computed for one directional light in one frame.
type CascadeSet struct {
	// Ends holds the view-space split distances; cascade i covers [Ends[i], Ends[i+1]].
	Ends [light.CascadeCount + 1]float32

	// ViewProjection maps world space into each cascade's shadow map.
	ViewProjection [light.CascadeCount]mgl32.Mat4

	// Boxes are the world-space bounds of each cascade's slice of the view frustum.
	Boxes [light.CascadeCount]common.AABB
}

// Cascade returns the index of the cascade that shades a point at the given view depth.
func (c CascadeSet) Cascade(viewDepth float32) int {
	for i := 0; i < light.CascadeCount; i++ {
		if viewDepth <= c.Ends[i+1] {
			return i
		}
	}
	return light.CascadeCount - 1
}

// FurthestCasterDepth returns the largest view depth of any caster box corner.
//
// Parameters:
//   - view: the camera view matrix
//   - near, far: the camera clip planes
//   - casters: world-space bounds of every shadow caster
//
// Returns:
//   - float32: the furthest depth clamped to far, or near when there are no casters
func FurthestCasterDepth(view mgl32.Mat4, near, far float32, casters []common.AABB) float32 {
	furthest := near
	for _, box := range casters {
		if box.IsEmpty() {
			continue
		}
		for _, corner := range box.Corners() {
			furthest = max(furthest, common.ViewDepth(view, corner))
		}
	}
	return min(furthest, far)
}

// SplitDistances blends logarithmic and uniform split distributions by lambda.
// Split i is λ·near·(f/near)^(i/N) + (1-λ)·(near + (f-near)·i/N).
//
// Parameters:
//   - near: the camera near plane; values <= 0 become camera.MinNear
//   - far: the camera far plane; the last end never exceeds it unless far-near < minCascadeSpan
//   - furthest: the furthest caster depth, kept within [near+minCascadeSpan, far]
//   - lambda: the blend factor in [0,1], 1 being fully logarithmic
//
// Returns:
//   - [light.CascadeCount + 1]float32: strictly increasing ends from near to furthest
func SplitDistances(near, far, furthest, lambda float32) [light.CascadeCount + 1]float32 {
	if !(near > 0) {
		near = camera.MinNear
	}
	if !(far >= near+minCascadeSpan) {
		far = near + minCascadeSpan
	}
	if !(furthest >= near+minCascadeSpan) {
		furthest = near + minCascadeSpan
	}
	furthest = min(furthest, far)
	lambda = common.Clamp(lambda, 0, 1)

	var ends [light.CascadeCount + 1]float32
	ends[0] = near
	ends[light.CascadeCount] = furthest
	ratio := float64(furthest / near)
	for i := 1; i < light.CascadeCount; i++ {
		p := float32(i) / float32(light.CascadeCount)
		logDist := near * float32(math.Pow(ratio, float64(p)))
		linDist := common.Lerp(near, furthest, p)
		ends[i] = lambda*logDist + (1-lambda)*linDist
	}
	return ends
}

// CalcOrthoBox returns the world-space bounds of the camera frustum slice between two
// view depths.
//
// Parameters:
//   - cam: the camera supplying field of view, aspect ratio and orientation
//   - nearDepth, farDepth: the slice's view-space depths
//
// Returns:
//   - common.AABB: the box around the slice's eight corners
func CalcOrthoBox(cam camera.Camera, nearDepth, farDepth float32) common.AABB {
	tanHalf := float32(math.Tan(float64(cam.Fov()) / 2))
	aspect := cam.Aspect()
	inverseView := cam.InverseViewMatrix()

	box := common.EmptyAABB()
	for _, d := range [2]float32{nearDepth, farDepth} {
		h := d * tanHalf
		w := h * aspect
		for _, xy := range [4][2]float32{{-w, -h}, {w, -h}, {w, h}, {-w, h}} {
			box = box.Extend(mgl32.TransformCoordinate(mgl32.Vec3{xy[0], xy[1], -d}, inverseView))
		}
	}
	return box
}

// LightViewProjection builds the light-space matrix of one cascade. The eye sits
// offset units back along the light direction from the box centre and looks at it;
// the orthographic volume is square with the larger of the box's width and depth.
//
// Parameters:
//   - box: the cascade's world-space bounds
//   - direction: the direction the light travels in
//   - offset: how far behind the box centre the eye is placed
//   - near, far: the depth range of the projection
//
// Returns:
//   - mgl32.Mat4: projection * view
func LightViewProjection(box common.AABB, direction mgl32.Vec3, offset, near, far float32) mgl32.Mat4 {
	dir := direction.Normalize()
	up := mgl32.Vec3{0, 1, 0}
	if float32(math.Abs(float64(dir.Y()))) > 0.99 {
		up = mgl32.Vec3{1, 0, 0}
	}
	center := box.Center()
	eye := center.Sub(dir.Mul(offset))
	view := mgl32.LookAtV(eye, center, up)

	size := box.Size()
	half := max(size.X(), size.Z()) / 2
	proj := mgl32.Ortho(-half, half, -half, half, near, far)
	return proj.Mul4(view)
}

// BuildCascades computes splits and light matrices for one directional light.
//
// Parameters:
//   - cam: the viewing camera
//   - direction: the direction the light travels in
//   - casters: world-space bounds of every shadow caster
//   - lambda: the split blend factor
//   - offset: the light eye offset
//
// Returns:
//   - CascadeSet: the cascade ends, boxes and matrices
func BuildCascades(cam camera.Camera, direction mgl32.Vec3, casters []common.AABB, lambda, offset float32) CascadeSet {
	near, far := cam.Near(), cam.Far()
	furthest := FurthestCasterDepth(cam.ViewMatrix(), near, far, casters)

	var set CascadeSet
	set.Ends = SplitDistances(near, far, furthest, lambda)
	for i := 0; i < light.CascadeCount; i++ {
		set.Boxes[i] = CalcOrthoBox(cam, set.Ends[i], set.Ends[i+1])
		set.ViewProjection[i] = LightViewProjection(set.Boxes[i], direction, offset, near, far)
	}
	return set
}

// cascadeStore owns the shadow map attachments shared by every directional light.
type cascadeStore struct {
	maps       [light.CascadeCount]renderer.AttachmentHandle
	resolution int
}

func (s *cascadeStore) create(dev renderer.Device, resolution int) error {
	s.resolution = resolution
	for i := range s.maps {
		h, err := dev.CreateAttachment(renderer.AttachmentDescriptor{
			Label:  fmt.Sprintf("shadow-cascade-%d", i),
			Width:  resolution,
			Height: resolution,
			Format: pipeline.FormatDepth32Float,
		})
		if err != nil {
			s.destroy(dev)
			return fmt.Errorf("failed to create shadow cascade %d: %w", i, err)
		}
		s.maps[i] = h
	}
	return nil
}

func (s *cascadeStore) destroy(dev renderer.Device) {
	for i, h := range s.maps {
		if h != 0 {
			dev.DestroyAttachment(h)
			s.maps[i] = 0
		}
	}
}
