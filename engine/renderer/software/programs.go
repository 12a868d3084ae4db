package software

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shading"
	"github.com/go-gl/mathgl/mgl32"
)

// Material texture slots in renderer.MaterialBinding order.
const (
	slotAmbient = iota
	slotDiffuse
	slotSpecular
	slotAlpha
	slotNormal
	slotCount
)

// shadeContext is the resource state a draw reads: bound uniforms, material textures and
// attachment inputs.
type shadeContext struct {
	frame    renderer.FrameUniforms
	object   renderer.ObjectUniforms
	shadow   renderer.ShadowUniforms
	dir      renderer.DirectionalLightUniforms
	point    renderer.PointLightUniforms
	material [slotCount]*texture
	inputs   []*attachment
}

// program is the Go rendition of one WGSL program. Full-screen programs have no vertex stage.
type program struct {
	inputs      int
	varyings    int
	derivatives bool
	vertex      func(c *shadeContext, v renderer.Vertex, bary mgl32.Vec3) clipVertex
	// fragment writes one color per target and returns false to discard.
	fragment func(c *shadeContext, f *fragment, out []mgl32.Vec4) bool
}

var programs = [pipeline.KindCount]program{
	pipeline.KindGeometry:         {varyings: 11, vertex: geometryVertex, fragment: geometryFragment},
	pipeline.KindGeometryMorph:    {varyings: 11, vertex: geometryVertex, fragment: geometryFragment},
	pipeline.KindShadow:           {varyings: 2, vertex: shadowVertex, fragment: shadowFragment},
	pipeline.KindShadowMorph:      {varyings: 2, vertex: shadowVertex, fragment: shadowFragment},
	pipeline.KindDirectionalLight: {inputs: 5 + light.CascadeCount, fragment: directionalFragment},
	pipeline.KindPointLight:       {inputs: 4, vertex: volumeVertex, fragment: pointFragment},
	pipeline.KindPointLightInside: {inputs: 4, vertex: volumeVertex, fragment: pointFragment},
	pipeline.KindToneMap:          {inputs: 1, fragment: toneMapFragment},
	pipeline.KindWireframe:        {varyings: 5, derivatives: true, vertex: wireframeVertex, fragment: wireframeFragment},
	pipeline.KindWireframeMorph:   {varyings: 5, derivatives: true, vertex: wireframeVertex, fragment: wireframeFragment},
	pipeline.KindWorldNormals:     {inputs: 2, fragment: worldNormalsFragment},
	pipeline.KindAlbedo:           {inputs: 2, fragment: albedoFragment},
}

func transformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec4 {
	return m.Mul4x1(p.Vec4(1))
}

func transformDir(m mgl32.Mat4, d mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

func putVec3(dst []float32, v mgl32.Vec3) {
	dst[0], dst[1], dst[2] = v[0], v[1], v[2]
}

func vec3At(src []float32) mgl32.Vec3 {
	return mgl32.Vec3{src[0], src[1], src[2]}
}

func geometryVertex(c *shadeContext, v renderer.Vertex, _ mgl32.Vec3) clipVertex {
	world := transformPoint(c.object.World, v.Position)
	var out clipVertex
	out.pos = c.frame.ViewProjection.Mul4x1(world)
	putVec3(out.vary[0:], world.Vec3())
	putVec3(out.vary[3:], transformDir(c.object.Normal, v.Normal))
	putVec3(out.vary[6:], transformDir(c.object.World, v.Tangent))
	out.vary[9], out.vary[10] = v.UV[0], v.UV[1]
	return out
}

func (c *shadeContext) sampleMaterial(slot int, uv mgl32.Vec2) mgl32.Vec4 {
	return c.material[slot].sample(uv)
}

func geometryFragment(c *shadeContext, f *fragment, out []mgl32.Vec4) bool {
	uv := mgl32.Vec2{f.vary[9], f.vary[10]}
	if c.sampleMaterial(slotAlpha, uv).X() < 0.5 {
		return false
	}
	ambient := c.sampleMaterial(slotAmbient, uv)
	diffuse := c.sampleMaterial(slotDiffuse, uv)
	specular := c.sampleMaterial(slotSpecular, uv)

	n := vec3At(f.vary[3:]).Normalize()
	if c.object.HasNormalMap {
		mapped := c.sampleMaterial(slotNormal, uv).Vec3().Mul(2).Sub(mgl32.Vec3{1, 1, 1})
		tangent := vec3At(f.vary[6:])
		t := tangent.Sub(n.Mul(tangent.Dot(n))).Normalize()
		b := n.Cross(t)
		n = t.Mul(mapped.X()).Add(b.Mul(mapped.Y())).Add(n.Mul(mapped.Z())).Normalize()
	}

	out[0] = n.Vec4(specular.X())
	out[1] = vec3At(f.vary[0:]).Vec4(c.object.SpecularExponent)
	out[2] = ambient.Vec3().Vec4(1)
	out[3] = diffuse.Vec3().Vec4(1)
	return true
}

func shadowVertex(c *shadeContext, v renderer.Vertex, _ mgl32.Vec3) clipVertex {
	var out clipVertex
	out.pos = c.shadow.LightViewProjection.Mul4x1(transformPoint(c.object.World, v.Position))
	out.vary[0], out.vary[1] = v.UV[0], v.UV[1]
	return out
}

func shadowFragment(c *shadeContext, f *fragment, _ []mgl32.Vec4) bool {
	return c.sampleMaterial(slotAlpha, mgl32.Vec2{f.vary[0], f.vary[1]}).X() >= 0.5
}

// gbufferTexel is the surface data stored for one pixel.
type gbufferTexel struct {
	normal   mgl32.Vec3
	specular float32
	position mgl32.Vec3
	exponent float32
	ambient  mgl32.Vec3
	diffuse  mgl32.Vec3
}

func (c *shadeContext) gbuffer(x, y int) gbufferTexel {
	ns := c.inputs[0].load(x, y)
	pe := c.inputs[1].load(x, y)
	return gbufferTexel{
		normal:   ns.Vec3(),
		specular: ns.W(),
		position: pe.Vec3(),
		exponent: pe.W(),
		ambient:  c.inputs[2].load(x, y).Vec3(),
		diffuse:  c.inputs[3].load(x, y).Vec3(),
	}
}

func directionalFragment(c *shadeContext, f *fragment, out []mgl32.Vec4) bool {
	if c.inputs[4].loadDepth(f.x, f.y) >= 1 {
		return false
	}
	g := c.gbuffer(f.x, f.y)
	n := g.normal.Normalize()
	l := c.dir.Direction.Mul(-1).Normalize()
	v := c.frame.CameraPosition.Sub(g.position).Normalize()
	diffuse, specular := shading.BlinnPhong(n, l, v, g.exponent)

	index := shading.CascadeIndex(common.ViewDepth(c.frame.View, g.position), c.dir.CascadeEnds)
	visibility := float32(1)
	if c.dir.CastsShadows {
		u, vv, depth := shading.ShadowCoord(c.dir.CascadeViewProjection[index], g.position)
		cascade := c.inputs[5+index]
		visibility = shading.PCF(cascade.sampleDepth, u, vv, depth, shading.ShadowBias(n.Dot(l)), c.dir.ShadowTexel)
	}

	ambient := common.Mul3(c.dir.Ambient, g.ambient)
	if c.dir.TintCascades {
		ambient = common.Mul3(ambient, shading.CascadeTint(index))
	}
	lit := common.Mul3(c.dir.Diffuse, g.diffuse).Mul(diffuse).Add(c.dir.Specular.Mul(specular * g.specular))
	out[0] = clampNonNegative(ambient.Add(lit.Mul(visibility))).Vec4(1)
	return true
}

func volumeVertex(c *shadeContext, v renderer.Vertex, _ mgl32.Vec3) clipVertex {
	var out clipVertex
	out.pos = c.frame.ViewProjection.Mul4x1(transformPoint(c.point.Volume, v.Position))
	return out
}

func pointFragment(c *shadeContext, f *fragment, out []mgl32.Vec4) bool {
	g := c.gbuffer(f.x, f.y)
	if g.normal.Dot(g.normal) < 0.25 {
		return false
	}
	toLight := c.point.Position.Sub(g.position)
	d := toLight.Len()
	if d > c.point.Radius {
		return false
	}
	att := c.point.Attenuation
	attenuation := shading.Attenuation(att.X(), att.Y(), att.Z(), d, c.point.Radius)

	n := g.normal.Normalize()
	l := toLight.Mul(1 / max(d, 1e-4))
	v := c.frame.CameraPosition.Sub(g.position).Normalize()
	diffuse, specular := shading.BlinnPhong(n, l, v, g.exponent)

	color := common.Mul3(c.point.Ambient, g.ambient).
		Add(common.Mul3(c.point.Diffuse, g.diffuse).Mul(diffuse)).
		Add(c.point.Specular.Mul(specular * g.specular))
	out[0] = clampNonNegative(color.Mul(attenuation)).Vec4(1)
	return true
}

func toneMapFragment(c *shadeContext, f *fragment, out []mgl32.Vec4) bool {
	hdr := c.inputs[0].load(f.x, f.y).Vec3()
	out[0] = shading.ToneMap(hdr, c.frame.Exposure, c.frame.Gamma).Vec4(1)
	return true
}

func worldNormalsFragment(c *shadeContext, f *fragment, out []mgl32.Vec4) bool {
	if c.inputs[1].loadDepth(f.x, f.y) >= 1 {
		return false
	}
	out[0] = shading.RemapNormal(c.inputs[0].load(f.x, f.y).Vec3().Normalize()).Vec4(1)
	return true
}

func albedoFragment(c *shadeContext, f *fragment, out []mgl32.Vec4) bool {
	if c.inputs[1].loadDepth(f.x, f.y) >= 1 {
		return false
	}
	out[0] = c.inputs[0].load(f.x, f.y).Vec3().Vec4(1)
	return true
}

func wireframeVertex(c *shadeContext, v renderer.Vertex, bary mgl32.Vec3) clipVertex {
	var out clipVertex
	out.pos = c.frame.ViewProjection.Mul4x1(transformPoint(c.object.World, v.Position))
	out.vary[0], out.vary[1] = v.UV[0], v.UV[1]
	putVec3(out.vary[2:], bary)
	return out
}

func wireframeFragment(c *shadeContext, f *fragment, out []mgl32.Vec4) bool {
	diffuse := c.sampleMaterial(slotDiffuse, mgl32.Vec2{f.vary[0], f.vary[1]}).Vec3()
	edge := shading.WireframeEdge(vec3At(f.vary[2:]), vec3At(f.fwidth[2:]), c.object.LineWidth)
	out[0] = shading.WireframeColor(diffuse, c.object.DebugColor.Vec3(), edge).Vec4(1)
	return true
}

func clampNonNegative(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{max(v[0], 0), max(v[1], 0), max(v[2], 0)}
}
