// Package software is a CPU implementation of renderer.Device. It rasterizes the same
// programs as the WebGPU shaders in Go, validates resource states and records every
// pass, which makes it the reference backend for tests and for headless stills.
package software

import (
	"fmt"
	"os"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"
)

// PassRecord summarizes one render pass of the last recorded frame.
type PassRecord struct {
	Label string
	// Draws counts every draw call recorded in the pass.
	Draws int
	// Kinds counts draw calls per pipeline kind.
	Kinds map[pipeline.Kind]int
}

// compiled is the native pipeline object of the software device.
type compiled struct {
	desc     pipeline.Descriptor
	released bool
}

// Release implements pipeline.Native.
func (c *compiled) Release() {
	c.released = true
}

type meshBuffer struct {
	vertices []renderer.Vertex
	indices  []uint32
}

type openPass struct {
	desc   renderer.PassDescriptor
	colors []*attachment
	depth  *attachment
	record PassRecord
}

// Device is the software renderer.Device.
type Device struct {
	logger   *log.Logger
	features map[renderer.Feature]bool

	// resMu guards meshes and textures, which uploads touch from loader goroutines.
	resMu       sync.RWMutex
	meshes      map[renderer.MeshHandle]*meshBuffer
	textures    map[renderer.TextureHandle]*texture
	nextMesh    renderer.MeshHandle
	nextTexture renderer.TextureHandle

	attachments    map[renderer.AttachmentHandle]*attachment
	nextAttachment renderer.AttachmentHandle

	inFrame  bool
	err      error
	pass     *openPass
	pipeline *compiled
	ctx      shadeContext
	material renderer.MaterialBinding
	passes   []PassRecord
	frames   int
}

var _ renderer.Device = &Device{}

// New creates a software device with an RGBA8 output attachment of the given size.
//
// Parameters:
//   - width, height: the output size in pixels
//   - options: variadic list of DeviceBuilderOption functions
//
// Returns:
//   - *Device: the new device
func New(width, height int, options ...DeviceBuilderOption) *Device {
	d := &Device{
		features: map[renderer.Feature]bool{
			renderer.FeatureDepthClamp: true,
			renderer.FeatureWideLines:  false,
		},
		meshes:         make(map[renderer.MeshHandle]*meshBuffer),
		textures:       map[renderer.TextureHandle]*texture{renderer.NoTexture: whiteTexture()},
		attachments:    make(map[renderer.AttachmentHandle]*attachment),
		nextAttachment: renderer.OutputAttachment + 1,
	}
	for _, opt := range options {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "software"})
	}
	d.attachments[renderer.OutputAttachment] = newAttachment(renderer.AttachmentDescriptor{
		Label: "output", Width: width, Height: height, Format: pipeline.FormatOutput,
	})
	return d
}

func (d *Device) Size() (int, int) {
	out := d.attachments[renderer.OutputAttachment]
	return out.width, out.height
}

func (d *Device) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("software: invalid output size %dx%d", width, height)
	}
	if d.inFrame {
		return fmt.Errorf("software: resize during a frame")
	}
	d.attachments[renderer.OutputAttachment] = newAttachment(renderer.AttachmentDescriptor{
		Label: "output", Width: width, Height: height, Format: pipeline.FormatOutput,
	})
	return nil
}

func (d *Device) Supports(f renderer.Feature) bool {
	return d.features[f]
}

func (d *Device) CreateAttachment(desc renderer.AttachmentDescriptor) (renderer.AttachmentHandle, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, fmt.Errorf("software: attachment %q has invalid size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	if desc.Format == pipeline.FormatUndefined || desc.Format == pipeline.FormatOutput {
		return 0, fmt.Errorf("software: attachment %q has no storable format", desc.Label)
	}
	h := d.nextAttachment
	d.nextAttachment++
	d.attachments[h] = newAttachment(desc)
	return h, nil
}

func (d *Device) DestroyAttachment(h renderer.AttachmentHandle) {
	if h == renderer.OutputAttachment {
		return
	}
	delete(d.attachments, h)
}

func (d *Device) CompilePipeline(desc pipeline.Descriptor) (pipeline.Native, error) {
	if desc.Kind < 0 || desc.Kind >= pipeline.KindCount {
		return nil, fmt.Errorf("software: unknown pipeline kind %v", desc.Kind)
	}
	if desc.DepthClamp && !d.Supports(renderer.FeatureDepthClamp) {
		return nil, fmt.Errorf("software: pipeline %q: %w (%v)", desc.Label, renderer.ErrUnsupportedFeature, renderer.FeatureDepthClamp)
	}
	if desc.LineWidth != 1 && !d.Supports(renderer.FeatureWideLines) {
		return nil, fmt.Errorf("software: pipeline %q: %w (%v)", desc.Label, renderer.ErrUnsupportedFeature, renderer.FeatureWideLines)
	}
	return &compiled{desc: desc}, nil
}

func (d *Device) UploadMesh(data renderer.MeshData) (renderer.MeshHandle, error) {
	if len(data.Indices)%3 != 0 {
		return 0, fmt.Errorf("software: mesh %q index count %d is not a multiple of 3", data.Label, len(data.Indices))
	}
	for _, i := range data.Indices {
		if int(i) >= len(data.Vertices) {
			return 0, fmt.Errorf("software: mesh %q index %d out of range", data.Label, i)
		}
	}
	buf := &meshBuffer{
		vertices: append([]renderer.Vertex(nil), data.Vertices...),
		indices:  append([]uint32(nil), data.Indices...),
	}
	d.resMu.Lock()
	defer d.resMu.Unlock()
	d.nextMesh++
	d.meshes[d.nextMesh] = buf
	return d.nextMesh, nil
}

func (d *Device) ReleaseMesh(h renderer.MeshHandle) {
	d.resMu.Lock()
	delete(d.meshes, h)
	d.resMu.Unlock()
}

func (d *Device) UploadTexture(data renderer.TextureData) (renderer.TextureHandle, error) {
	img := data.Image
	if img.Width <= 0 || img.Height <= 0 || len(img.Pixels) < img.Width*img.Height*4 {
		return 0, fmt.Errorf("software: texture %q has %d bytes for %dx%d", data.Label, len(img.Pixels), img.Width, img.Height)
	}
	t := newTexture(img)
	d.resMu.Lock()
	defer d.resMu.Unlock()
	d.nextTexture++
	d.textures[d.nextTexture] = t
	return d.nextTexture, nil
}

func (d *Device) ReleaseTexture(h renderer.TextureHandle) {
	if h == renderer.NoTexture {
		return
	}
	d.resMu.Lock()
	delete(d.textures, h)
	d.resMu.Unlock()
}

func (d *Device) BeginFrame() error {
	if d.inFrame {
		return fmt.Errorf("software: BeginFrame called twice")
	}
	d.inFrame = true
	d.err = nil
	d.pass = nil
	d.pipeline = nil
	d.ctx = shadeContext{}
	d.material = renderer.MaterialBinding{}
	d.passes = d.passes[:0]
	return nil
}

// fail keeps the first recording error of the frame.
func (d *Device) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("software: "+format, args...)
	}
}

// recording reports whether recording calls should take effect.
func (d *Device) recording(call string) bool {
	if d.err != nil {
		return false
	}
	if !d.inFrame {
		d.fail("%s outside a frame", call)
		return false
	}
	return true
}

func (d *Device) attachment(h renderer.AttachmentHandle) *attachment {
	a, ok := d.attachments[h]
	if !ok {
		d.fail("attachment %d: %w", h, renderer.ErrUnknownAttachment)
		return nil
	}
	return a
}

func (d *Device) Transition(h renderer.AttachmentHandle, state renderer.ResourceState) {
	if !d.recording("Transition") {
		return
	}
	if d.pass != nil {
		d.fail("transition of attachment %d inside pass %q", h, d.pass.desc.Label)
		return
	}
	a := d.attachment(h)
	if a == nil {
		return
	}
	switch {
	case state == renderer.StateDepthTarget && !a.format.IsDepth():
		d.fail("attachment %q: %w: color attachment cannot be a depth target", a.label, renderer.ErrInvalidState)
		return
	case state == renderer.StateColorTarget && a.format.IsDepth():
		d.fail("attachment %q: %w: depth attachment cannot be a color target", a.label, renderer.ErrInvalidState)
		return
	case state == renderer.StatePresent && h != renderer.OutputAttachment:
		d.fail("attachment %q: %w: only the output can be presented", a.label, renderer.ErrInvalidState)
		return
	}
	a.state = state
}

func (d *Device) BeginPass(desc renderer.PassDescriptor) {
	if !d.recording("BeginPass") {
		return
	}
	if d.pass != nil {
		d.fail("pass %q begun while %q is open", desc.Label, d.pass.desc.Label)
		return
	}
	p := &openPass{desc: desc, record: PassRecord{Label: desc.Label, Kinds: make(map[pipeline.Kind]int)}}
	for _, ca := range desc.Colors {
		a := d.attachment(ca.Attachment)
		if a == nil {
			return
		}
		if a.state != renderer.StateColorTarget {
			d.fail("pass %q: color attachment %q: %w (%v)", desc.Label, a.label, renderer.ErrInvalidState, a.state)
			return
		}
		if ca.Load == renderer.LoadOpClear {
			a.clearColor(ca.Clear)
		}
		p.colors = append(p.colors, a)
	}
	if desc.Depth != nil {
		a := d.attachment(desc.Depth.Attachment)
		if a == nil {
			return
		}
		want := renderer.StateDepthTarget
		if desc.Depth.ReadOnly {
			want = renderer.StateShaderRead
		}
		if a.state != want {
			d.fail("pass %q: depth attachment %q: %w (%v, want %v)", desc.Label, a.label, renderer.ErrInvalidState, a.state, want)
			return
		}
		if desc.Depth.Load == renderer.LoadOpClear && !desc.Depth.ReadOnly {
			a.clearDepth(desc.Depth.Clear)
		}
		p.depth = a
	}
	d.pass = p
}

func (d *Device) SetPipeline(p pipeline.Native) {
	if !d.recording("SetPipeline") {
		return
	}
	c, ok := p.(*compiled)
	if !ok || c == nil || c.released {
		d.fail("SetPipeline: pipeline was not compiled by this device")
		return
	}
	d.pipeline = c
}

func (d *Device) SetUniforms(slot renderer.UniformSlot, u renderer.Uniform) {
	if !d.recording("SetUniforms") {
		return
	}
	switch v := u.(type) {
	case *renderer.FrameUniforms:
		d.ctx.frame = *v
	case *renderer.ObjectUniforms:
		d.ctx.object = *v
	case *renderer.ShadowUniforms:
		d.ctx.shadow = *v
	case *renderer.DirectionalLightUniforms:
		d.ctx.dir = *v
	case *renderer.PointLightUniforms:
		d.ctx.point = *v
	default:
		d.fail("SetUniforms: unsupported block %T for slot %d", u, slot)
	}
}

func (d *Device) BindMaterial(m renderer.MaterialBinding) {
	if !d.recording("BindMaterial") {
		return
	}
	d.material = m
}

func (d *Device) BindAttachments(inputs ...renderer.AttachmentHandle) {
	if !d.recording("BindAttachments") {
		return
	}
	bound := make([]*attachment, 0, len(inputs))
	for _, h := range inputs {
		a := d.attachment(h)
		if a == nil {
			return
		}
		if a.state != renderer.StateShaderRead {
			d.fail("attachment %q bound as input: %w (%v)", a.label, renderer.ErrInvalidState, a.state)
			return
		}
		bound = append(bound, a)
	}
	d.ctx.inputs = bound
}

// prepareDraw checks the bound state and resolves the program for a draw.
func (d *Device) prepareDraw(call string, wantMesh bool) (*program, bool) {
	if !d.recording(call) {
		return nil, false
	}
	if d.pass == nil {
		d.fail("%s: %w", call, renderer.ErrNoPass)
		return nil, false
	}
	if d.pipeline == nil {
		d.fail("%s in pass %q without a pipeline", call, d.pass.desc.Label)
		return nil, false
	}
	desc := d.pipeline.desc
	if len(desc.ColorFormats) != len(d.pass.colors) {
		d.fail("%s: pipeline %q writes %d targets, pass %q has %d", call, desc.Label, len(desc.ColorFormats), d.pass.desc.Label, len(d.pass.colors))
		return nil, false
	}
	if (desc.DepthFormat != pipeline.FormatUndefined) != (d.pass.depth != nil) {
		d.fail("%s: pipeline %q depth format does not match pass %q", call, desc.Label, d.pass.desc.Label)
		return nil, false
	}
	if desc.DepthWrite && d.pass.desc.Depth != nil && d.pass.desc.Depth.ReadOnly {
		d.fail("%s: pipeline %q writes depth in read-only pass %q", call, desc.Label, d.pass.desc.Label)
		return nil, false
	}
	prog := &programs[desc.Kind]
	if wantMesh != (prog.vertex != nil) {
		d.fail("%s cannot draw with pipeline kind %v", call, desc.Kind)
		return nil, false
	}
	if len(d.ctx.inputs) < prog.inputs {
		d.fail("%s: pipeline %q needs %d attachment inputs, %d bound", call, desc.Label, prog.inputs, len(d.ctx.inputs))
		return nil, false
	}
	for _, in := range d.ctx.inputs {
		for _, c := range d.pass.colors {
			if in == c {
				d.fail("%s: attachment %q is both input and target", call, in.label)
				return nil, false
			}
		}
	}

	d.resMu.RLock()
	textures := [slotCount]renderer.TextureHandle{d.material.Ambient, d.material.Diffuse, d.material.Specular, d.material.Alpha, d.material.Normal}
	for i, h := range textures {
		t, ok := d.textures[h]
		if !ok {
			t = d.textures[renderer.NoTexture]
		}
		d.ctx.material[i] = t
	}
	d.resMu.RUnlock()

	d.pass.record.Draws++
	d.pass.record.Kinds[desc.Kind]++
	return prog, true
}

func (d *Device) mesh(h renderer.MeshHandle) *meshBuffer {
	d.resMu.RLock()
	defer d.resMu.RUnlock()
	return d.meshes[h]
}

func (d *Device) DrawMesh(h renderer.MeshHandle) {
	prog, ok := d.prepareDraw("DrawMesh", true)
	if !ok {
		return
	}
	if d.pipeline.desc.Kind.Morph() {
		d.fail("DrawMesh with morph pipeline %v", d.pipeline.desc.Kind)
		return
	}
	m := d.mesh(h)
	if m == nil {
		d.fail("DrawMesh: unknown mesh %d", h)
		return
	}
	d.drawTriangles(prog, m, nil, 0)
}

func (d *Device) DrawMorph(current, next renderer.MeshHandle) {
	prog, ok := d.prepareDraw("DrawMorph", true)
	if !ok {
		return
	}
	if !d.pipeline.desc.Kind.Morph() {
		d.fail("DrawMorph with static pipeline %v", d.pipeline.desc.Kind)
		return
	}
	cur, nxt := d.mesh(current), d.mesh(next)
	if cur == nil || nxt == nil {
		d.fail("DrawMorph: unknown mesh %d or %d", current, next)
		return
	}
	if len(cur.vertices) != len(nxt.vertices) || len(cur.indices) != len(nxt.indices) {
		d.fail("DrawMorph: keyframes %d and %d differ in topology", current, next)
		return
	}
	d.drawTriangles(prog, cur, nxt, d.ctx.object.Blend)
}

func morphVertex(a, b renderer.Vertex, t float32) renderer.Vertex {
	return renderer.Vertex{
		Position: a.Position.Add(b.Position.Sub(a.Position).Mul(t)),
		Normal:   a.Normal.Add(b.Normal.Sub(a.Normal).Mul(t)),
		Tangent:  a.Tangent.Add(b.Tangent.Sub(a.Tangent).Mul(t)),
		UV:       a.UV,
	}
}

var corners = [3]mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

func (d *Device) drawTriangles(prog *program, m, next *meshBuffer, blend float32) {
	desc := d.pipeline.desc
	r := &rasterizer{
		width:       d.pass.width(),
		height:      d.pass.height(),
		cull:        desc.Cull,
		depthClamp:  desc.DepthClamp,
		depthBias:   float32(desc.DepthBias) / (1 << 24),
		slopeScale:  desc.DepthBiasSlopeScale,
		varyings:    prog.varyings,
		derivatives: prog.derivatives,
	}
	emit := d.fragmentSink(prog)
	var tri [3]clipVertex
	for i := 0; i+2 < len(m.indices); i += 3 {
		for k := 0; k < 3; k++ {
			idx := m.indices[i+k]
			v := m.vertices[idx]
			if next != nil {
				v = morphVertex(v, next.vertices[idx], blend)
			}
			tri[k] = prog.vertex(&d.ctx, v, corners[k])
		}
		r.triangle(tri, emit)
	}
}

func (d *Device) DrawFullscreen() {
	prog, ok := d.prepareDraw("DrawFullscreen", false)
	if !ok {
		return
	}
	emit := d.fragmentSink(prog)
	var f fragment
	w, h := d.pass.width(), d.pass.height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.x, f.y, f.depth = x, y, 0
			emit(&f)
		}
	}
}

// fragmentSink returns the per-fragment depth test, program invocation and blend.
func (d *Device) fragmentSink(prog *program) func(*fragment) {
	desc := d.pipeline.desc
	pass := d.pass
	out := make([]mgl32.Vec4, len(pass.colors))
	depthWrite := desc.DepthWrite && pass.depth != nil && !pass.desc.Depth.ReadOnly
	return func(f *fragment) {
		var i int
		if pass.depth != nil {
			i = pass.depth.index(f.x, f.y)
			if !desc.DepthCompare.Test(f.depth, pass.depth.depth[i]) {
				return
			}
		}
		if !prog.fragment(&d.ctx, f, out) {
			return
		}
		if depthWrite {
			pass.depth.depth[i] = f.depth
		}
		for t, target := range pass.colors {
			ci := target.index(f.x, f.y)
			target.store(ci, blend(desc.Blend, out[t], target.color[ci]))
		}
	}
}

func blend(mode pipeline.BlendMode, src, dst mgl32.Vec4) mgl32.Vec4 {
	switch mode {
	case pipeline.BlendAdditive:
		return src.Add(dst)
	case pipeline.BlendAlpha:
		a := src.W()
		return src.Mul(a).Add(dst.Mul(1 - a))
	default:
		return src
	}
}

func (p *openPass) width() int {
	if len(p.colors) > 0 {
		return p.colors[0].width
	}
	if p.depth != nil {
		return p.depth.width
	}
	return 0
}

func (p *openPass) height() int {
	if len(p.colors) > 0 {
		return p.colors[0].height
	}
	if p.depth != nil {
		return p.depth.height
	}
	return 0
}

func (d *Device) EndPass() {
	if !d.recording("EndPass") {
		return
	}
	if d.pass == nil {
		d.fail("EndPass: %w", renderer.ErrNoPass)
		return
	}
	d.passes = append(d.passes, d.pass.record)
	d.pass = nil
	d.pipeline = nil
	d.ctx.inputs = nil
}

func (d *Device) EndFrame() error {
	if !d.inFrame {
		return fmt.Errorf("software: EndFrame without BeginFrame")
	}
	if d.err == nil && d.pass != nil {
		d.fail("EndFrame with pass %q still open", d.pass.desc.Label)
	}
	d.inFrame = false
	d.pass = nil
	d.frames++
	err := d.err
	d.err = nil
	if err != nil {
		d.logger.Error("frame failed", "frame", d.frames, "err", err)
	}
	return err
}

// WaitIdle returns immediately; the software device finishes work as it is recorded.
func (d *Device) WaitIdle() {}

func (d *Device) Release() {
	d.resMu.Lock()
	d.meshes = make(map[renderer.MeshHandle]*meshBuffer)
	d.textures = map[renderer.TextureHandle]*texture{renderer.NoTexture: whiteTexture()}
	d.resMu.Unlock()
	for h := range d.attachments {
		d.DestroyAttachment(h)
	}
}

// Passes returns the passes of the last recorded frame in submission order.
func (d *Device) Passes() []PassRecord {
	return append([]PassRecord(nil), d.passes...)
}

// Frames returns the number of frames ended so far.
func (d *Device) Frames() int {
	return d.frames
}

// AttachmentState returns the current state of an attachment.
func (d *Device) AttachmentState(h renderer.AttachmentHandle) (renderer.ResourceState, error) {
	a, ok := d.attachments[h]
	if !ok {
		return renderer.StateUndefined, renderer.ErrUnknownAttachment
	}
	return a.state, nil
}

// ReadColor returns a color texel of an attachment.
func (d *Device) ReadColor(h renderer.AttachmentHandle, x, y int) (mgl32.Vec4, error) {
	a, ok := d.attachments[h]
	if !ok {
		return mgl32.Vec4{}, renderer.ErrUnknownAttachment
	}
	return a.load(x, y), nil
}

// ReadDepth returns a depth texel of a depth attachment.
func (d *Device) ReadDepth(h renderer.AttachmentHandle, x, y int) (float32, error) {
	a, ok := d.attachments[h]
	if !ok {
		return 0, renderer.ErrUnknownAttachment
	}
	if !a.format.IsDepth() {
		return 0, fmt.Errorf("software: attachment %q is not a depth attachment", a.label)
	}
	return a.loadDepth(x, y), nil
}

// SampleDepth reads a depth attachment at a texture coordinate the way the directional
// light pass samples cascades.
func (d *Device) SampleDepth(h renderer.AttachmentHandle, u, v float32) (float32, error) {
	a, ok := d.attachments[h]
	if !ok {
		return 0, renderer.ErrUnknownAttachment
	}
	return a.sampleDepth(u, v), nil
}
