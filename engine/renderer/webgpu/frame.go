package webgpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// maxResourceBindings bounds the group 3 bindings a program may declare.
const maxResourceBindings = 12

// resourceKey identifies a group 3 bind group by its layout and the views it samples.
// Samplers are fixed per binding source and need no key.
type resourceKey struct {
	layout *wgpu.BindGroupLayout
	views  [maxResourceBindings]*wgpu.TextureView
}

func (k resourceKey) uses(view *wgpu.TextureView) bool {
	for _, v := range k.views {
		if v == view {
			return true
		}
	}
	return false
}

// frameState is the recording state between BeginFrame and EndFrame.
type frameState struct {
	active   bool
	err      error
	encoder  *wgpu.CommandEncoder
	surface  *wgpu.Texture
	output   *wgpu.TextureView
	pass     *wgpu.RenderPassEncoder
	label    string
	colors   []*attachment
	depth    *renderer.DepthAttachment
	pipeline *nativePipeline
	bound    *nativePipeline
	offsets  [renderer.SlotCount]uint32
	sizes    [renderer.SlotCount]uint64
	material renderer.MaterialBinding
	inputs   []*attachment
}

func (d *Device) BeginFrame() error {
	if d.frame.active {
		return fmt.Errorf("webgpu: BeginFrame called twice")
	}
	d.collectReleased()
	if err := d.uniforms.grow(d.device); err != nil {
		return err
	}

	f := frameState{}
	if d.surface != nil {
		tex, err := d.surface.GetCurrentTexture()
		if err != nil {
			return fmt.Errorf("webgpu: acquire surface texture: %w", err)
		}
		view, err := tex.CreateView(nil)
		if err != nil {
			tex.Release()
			return fmt.Errorf("webgpu: create surface view: %w", err)
		}
		f.surface, f.output = tex, view
	} else {
		f.output = d.attachments[renderer.OutputAttachment].view
	}

	encoder, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "Frame Encoder"})
	if err != nil {
		if f.surface != nil {
			f.output.Release()
			f.surface.Release()
		}
		return fmt.Errorf("webgpu: create command encoder: %w", err)
	}
	f.encoder = encoder
	f.active = true
	d.frame = f
	d.uniforms.used = 0
	return nil
}

// fail keeps the first recording error of the frame.
func (d *Device) fail(format string, args ...any) {
	if d.frame.err == nil {
		d.frame.err = fmt.Errorf("webgpu: "+format, args...)
	}
}

// recording reports whether recording calls should take effect.
func (d *Device) recording(call string) bool {
	if d.frame.err != nil {
		return false
	}
	if !d.frame.active {
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

// view returns the texture view a pass writes or samples for an attachment.
func (d *Device) view(a *attachment) *wgpu.TextureView {
	if a == d.attachments[renderer.OutputAttachment] {
		return d.frame.output
	}
	return a.view
}

// Transition validates and records the new usage state. wgpu tracks resource usage
// itself and inserts the barriers, so no command is encoded.
func (d *Device) Transition(h renderer.AttachmentHandle, state renderer.ResourceState) {
	if !d.recording("Transition") {
		return
	}
	if d.frame.pass != nil {
		d.fail("transition of attachment %d inside pass %q", h, d.frame.label)
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
	if d.frame.pass != nil {
		d.fail("pass %q begun while %q is open", desc.Label, d.frame.label)
		return
	}

	rp := &wgpu.RenderPassDescriptor{Label: desc.Label}
	colors := make([]*attachment, 0, len(desc.Colors))
	for _, ca := range desc.Colors {
		a := d.attachment(ca.Attachment)
		if a == nil {
			return
		}
		if a.state != renderer.StateColorTarget {
			d.fail("pass %q: color attachment %q: %w (%v)", desc.Label, a.label, renderer.ErrInvalidState, a.state)
			return
		}
		rp.ColorAttachments = append(rp.ColorAttachments, wgpu.RenderPassColorAttachment{
			View:       d.view(a),
			LoadOp:     loadOp(ca.Load),
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: clearColor(ca.Clear),
		})
		colors = append(colors, a)
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
		ds := &wgpu.RenderPassDepthStencilAttachment{
			View:            a.view,
			DepthLoadOp:     loadOp(desc.Depth.Load),
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: desc.Depth.Clear,
		}
		if desc.Depth.ReadOnly {
			// Read-only depth must leave load and store undefined.
			ds.DepthReadOnly = true
			ds.DepthLoadOp = wgpu.LoadOpUndefined
			ds.DepthStoreOp = wgpu.StoreOpUndefined
		}
		rp.DepthStencilAttachment = ds
		depth := *desc.Depth
		d.frame.depth = &depth
	}

	d.frame.pass = d.frame.encoder.BeginRenderPass(rp)
	d.frame.label = desc.Label
	d.frame.colors = colors
	d.frame.bound = nil
}

func (d *Device) SetPipeline(p pipeline.Native) {
	if !d.recording("SetPipeline") {
		return
	}
	np, ok := p.(*nativePipeline)
	if !ok || np == nil || np.pipeline == nil {
		d.fail("SetPipeline: pipeline was not compiled by this device")
		return
	}
	d.frame.pipeline = np
}

func (d *Device) SetUniforms(slot renderer.UniformSlot, u renderer.Uniform) {
	if !d.recording("SetUniforms") {
		return
	}
	if slot < 0 || slot >= renderer.SlotCount {
		d.fail("SetUniforms: invalid slot %d", slot)
		return
	}
	data := u.Marshal()
	off, ok := d.uniforms.push(data)
	if !ok {
		d.fail("SetUniforms: uniform ring of %d bytes is full; it grows next frame", len(d.uniforms.staging))
		return
	}
	d.frame.offsets[slot] = off
	d.frame.sizes[slot] = uint64(len(data))
}

func (d *Device) BindMaterial(m renderer.MaterialBinding) {
	if !d.recording("BindMaterial") {
		return
	}
	d.frame.material = m
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
	d.frame.inputs = bound
}

// materialView resolves a material role to the bound texture, falling back to white.
func (d *Device) materialView(role shader.AnnotationArg) *wgpu.TextureView {
	m := d.frame.material
	h := renderer.NoTexture
	switch role {
	case shader.AnnotationArgAmbient:
		h = m.Ambient
	case shader.AnnotationArgDiffuse:
		h = m.Diffuse
	case shader.AnnotationArgSpecular:
		h = m.Specular
	case shader.AnnotationArgAlpha:
		h = m.Alpha
	case shader.AnnotationArgNormal:
		h = m.Normal
	}
	d.resMu.RLock()
	defer d.resMu.RUnlock()
	if t, ok := d.textures[h]; ok {
		return t.TextureView()
	}
	return d.textures[renderer.NoTexture].TextureView()
}

// resourceGroup builds or reuses the group 3 bind group for the bound material and inputs.
func (d *Device) resourceGroup(p *nativePipeline) (*wgpu.BindGroup, error) {
	key := resourceKey{layout: p.groups[shader.GroupResources]}
	var entries []wgpu.BindGroupEntry
	for _, b := range p.program.Bindings {
		if b.Group != shader.GroupResources {
			continue
		}
		if b.Binding >= maxResourceBindings {
			return nil, fmt.Errorf("binding %d of %v exceeds %d", b.Binding, p.desc.Kind, maxResourceBindings)
		}
		e := wgpu.BindGroupEntry{Binding: uint32(b.Binding)}
		switch b.Source {
		case shader.SourceMaterial:
			if b.Role == shader.AnnotationArgSampler {
				e.Sampler = d.materialSampler
			} else {
				e.TextureView = d.materialView(b.Role)
			}
		case shader.SourceShadowSampler:
			e.Sampler = d.shadowSampler
		case shader.SourceAttachment:
			if b.Input >= len(d.frame.inputs) {
				return nil, fmt.Errorf("pipeline %q needs attachment input %d (%s), %d bound", p.desc.Label, b.Input, b.Name, len(d.frame.inputs))
			}
			in := d.frame.inputs[b.Input]
			for _, c := range d.frame.colors {
				if c == in {
					return nil, fmt.Errorf("attachment %q is both input and target", in.label)
				}
			}
			e.TextureView = in.view
		default:
			continue
		}
		key.views[b.Binding] = e.TextureView
		entries = append(entries, e)
	}

	if g, ok := d.resourceGroups[key]; ok {
		return g, nil
	}
	g, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.desc.Label + " Resources",
		Layout:  key.layout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	d.resourceGroups[key] = g
	return g, nil
}

// prepareDraw checks the bound state and binds the pipeline and its groups.
func (d *Device) prepareDraw(call string, wantMesh bool) (*nativePipeline, bool) {
	if !d.recording(call) {
		return nil, false
	}
	if d.frame.pass == nil {
		d.fail("%s: %w", call, renderer.ErrNoPass)
		return nil, false
	}
	p := d.frame.pipeline
	if p == nil {
		d.fail("%s in pass %q without a pipeline", call, d.frame.label)
		return nil, false
	}
	if wantMesh == p.desc.Kind.Fullscreen() {
		d.fail("%s cannot draw with pipeline kind %v", call, p.desc.Kind)
		return nil, false
	}
	if p.desc.DepthWrite && d.frame.depth != nil && d.frame.depth.ReadOnly {
		d.fail("%s: pipeline %q writes depth in read-only pass %q", call, p.desc.Label, d.frame.label)
		return nil, false
	}

	pass := d.frame.pass
	if d.frame.bound != p {
		pass.SetPipeline(p.pipeline)
		d.frame.bound = p
	}
	for g := 0; g < shader.GroupCount; g++ {
		if !p.program.UsesGroup(g) {
			pass.SetBindGroup(uint32(g), d.emptyGroup, nil)
			continue
		}
		if g == shader.GroupResources {
			group, err := d.resourceGroup(p)
			if err != nil {
				d.fail("%s: %v", call, err)
				return nil, false
			}
			pass.SetBindGroup(uint32(g), group, nil)
			continue
		}
		slot := slotForGroup[g]
		if d.frame.sizes[slot] < p.uniformSize[g] {
			d.fail("%s: pipeline %q needs a %d-byte block in uniform slot %d, %d set", call, p.desc.Label, p.uniformSize[g], slot, d.frame.sizes[slot])
			return nil, false
		}
		group, err := d.uniforms.group(d.device, p.groups[g], p.uniformSize[g])
		if err != nil {
			d.fail("%s: uniform bind group: %v", call, err)
			return nil, false
		}
		pass.SetBindGroup(uint32(g), group, []uint32{d.frame.offsets[slot]})
	}
	return p, true
}

func (d *Device) mesh(h renderer.MeshHandle) bind_group_provider.BindGroupProvider {
	d.resMu.RLock()
	defer d.resMu.RUnlock()
	m, ok := d.meshes[h]
	if !ok {
		d.fail("mesh %d was not uploaded", h)
		return nil
	}
	return m
}

func isWireframe(k pipeline.Kind) bool {
	return k == pipeline.KindWireframe || k == pipeline.KindWireframeMorph
}

func (d *Device) DrawMesh(h renderer.MeshHandle) {
	p, ok := d.prepareDraw("DrawMesh", true)
	if !ok {
		return
	}
	if p.desc.Kind.Morph() {
		d.fail("DrawMesh with morph pipeline %q", p.desc.Label)
		return
	}
	m := d.mesh(h)
	if m == nil {
		return
	}
	pass := d.frame.pass
	if isWireframe(p.desc.Kind) {
		pass.SetVertexBuffer(0, m.Buffer(bind_group_provider.SlotWireframe), 0, wgpu.WholeSize)
		pass.SetVertexBuffer(1, m.Buffer(bind_group_provider.SlotBarycentric), 0, wgpu.WholeSize)
		pass.Draw(uint32(m.IndexCount()), 1, 0, 0)
		return
	}
	pass.SetVertexBuffer(0, m.VertexBuffer(), 0, wgpu.WholeSize)
	pass.SetIndexBuffer(m.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(m.IndexCount()), 1, 0, 0, 0)
}

func (d *Device) DrawMorph(current, next renderer.MeshHandle) {
	p, ok := d.prepareDraw("DrawMorph", true)
	if !ok {
		return
	}
	if !p.desc.Kind.Morph() {
		d.fail("DrawMorph with static pipeline %q", p.desc.Label)
		return
	}
	cur, nxt := d.mesh(current), d.mesh(next)
	if cur == nil || nxt == nil {
		return
	}
	if !cur.SameTopology(nxt) {
		d.fail("DrawMorph: keyframes %q and %q differ in topology", cur.Label(), nxt.Label())
		return
	}
	pass := d.frame.pass
	if isWireframe(p.desc.Kind) {
		pass.SetVertexBuffer(0, cur.Buffer(bind_group_provider.SlotWireframe), 0, wgpu.WholeSize)
		pass.SetVertexBuffer(1, nxt.Buffer(bind_group_provider.SlotWireframe), 0, wgpu.WholeSize)
		pass.SetVertexBuffer(2, cur.Buffer(bind_group_provider.SlotBarycentric), 0, wgpu.WholeSize)
		pass.Draw(uint32(cur.IndexCount()), 1, 0, 0)
		return
	}
	pass.SetVertexBuffer(0, cur.VertexBuffer(), 0, wgpu.WholeSize)
	pass.SetVertexBuffer(1, nxt.VertexBuffer(), 0, wgpu.WholeSize)
	pass.SetIndexBuffer(cur.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(cur.IndexCount()), 1, 0, 0, 0)
}

func (d *Device) DrawFullscreen() {
	if _, ok := d.prepareDraw("DrawFullscreen", false); !ok {
		return
	}
	d.frame.pass.Draw(3, 1, 0, 0)
}

// endPass closes the open wgpu pass regardless of the frame error state.
func (d *Device) endPass() error {
	pass := d.frame.pass
	d.frame.pass = nil
	d.frame.pipeline = nil
	d.frame.bound = nil
	d.frame.depth = nil
	d.frame.colors = nil
	d.frame.inputs = nil
	err := pass.End()
	pass.Release()
	return err
}

func (d *Device) EndPass() {
	if !d.recording("EndPass") {
		return
	}
	if d.frame.pass == nil {
		d.fail("EndPass: %w", renderer.ErrNoPass)
		return
	}
	label := d.frame.label
	if err := d.endPass(); err != nil {
		d.fail("end pass %q: %w", label, err)
	}
}

func (d *Device) EndFrame() error {
	if !d.frame.active {
		return fmt.Errorf("webgpu: EndFrame without BeginFrame")
	}
	if d.frame.pass != nil {
		d.fail("EndFrame with pass %q still open", d.frame.label)
		_ = d.endPass()
	}

	if d.frame.err == nil {
		if err := d.submit(); err != nil {
			d.fail("%w", err)
		}
	}
	err := d.frame.err
	d.discardFrame()
	if err != nil {
		d.logger.Error("frame failed", "err", err)
	}
	return err
}

// submit uploads the frame's uniforms, submits the encoder and presents.
func (d *Device) submit() error {
	if err := d.uniforms.upload(d.queue); err != nil {
		return fmt.Errorf("upload uniforms: %w", err)
	}
	cmd, err := d.frame.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish frame: %w", err)
	}
	d.queue.Submit(cmd)
	cmd.Release()
	if d.surface != nil {
		d.surface.Present()
	}
	return nil
}

// discardFrame releases the per-frame objects and leaves the device ready for BeginFrame.
func (d *Device) discardFrame() {
	f := d.frame
	if f.pass != nil {
		_ = d.endPass()
	}
	if f.encoder != nil {
		f.encoder.Release()
	}
	if f.surface != nil {
		f.output.Release()
		f.surface.Release()
	}
	d.frame = frameState{}
}
