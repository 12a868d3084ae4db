package webgpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// attachment is a render target. The windowed output has no texture of its own; its
// view is the swapchain view acquired by BeginFrame.
type attachment struct {
	label   string
	width   int
	height  int
	format  pipeline.TextureFormat
	state   renderer.ResourceState
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

// uniformRing is the per-frame uniform buffer. Blocks are staged on the CPU at aligned
// offsets and uploaded with one write before submission.
type uniformRing struct {
	buffer  *wgpu.Buffer
	staging []byte
	used    uint64
	align   uint64
	// want is the capacity the last overflowing frame needed.
	want   uint64
	groups map[*wgpu.BindGroupLayout]*wgpu.BindGroup
}

func newUniformRing(device *wgpu.Device, capacity, align uint64) (*uniformRing, error) {
	if align == 0 {
		align = 256
	}
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Uniform Ring",
		Size:  capacity,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create uniform ring: %w", err)
	}
	return &uniformRing{
		buffer:  buf,
		staging: make([]byte, capacity),
		align:   align,
		groups:  make(map[*wgpu.BindGroupLayout]*wgpu.BindGroup),
	}, nil
}

// push stages a block and returns its offset, or false when the ring is full.
func (r *uniformRing) push(data []byte) (uint32, bool) {
	off := alignUp(r.used, r.align)
	end := off + uint64(len(data))
	if end > uint64(len(r.staging)) {
		r.want = max(r.want, end)
		return 0, false
	}
	copy(r.staging[off:end], data)
	r.used = end
	return uint32(off), true
}

// grow replaces the buffer when a previous frame overflowed it. Cached bind groups
// reference the old buffer and are dropped.
func (r *uniformRing) grow(device *wgpu.Device) error {
	if r.want <= uint64(len(r.staging)) {
		return nil
	}
	capacity := uint64(len(r.staging))
	for capacity < r.want {
		capacity *= 2
	}
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Uniform Ring",
		Size:  capacity,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("webgpu: grow uniform ring to %d bytes: %w", capacity, err)
	}
	r.releaseGroups()
	r.buffer.Release()
	r.buffer = buf
	r.staging = make([]byte, capacity)
	r.want = 0
	return nil
}

func (r *uniformRing) upload(queue *wgpu.Queue) error {
	if r.used == 0 {
		return nil
	}
	return queue.WriteBuffer(r.buffer, 0, r.staging[:r.used])
}

// group returns the bind group exposing the ring through a single-uniform layout.
func (r *uniformRing) group(device *wgpu.Device, layout *wgpu.BindGroupLayout, size uint64) (*wgpu.BindGroup, error) {
	if g, ok := r.groups[layout]; ok {
		return g, nil
	}
	g, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Uniform Bind Group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{{
			Binding: 0,
			Buffer:  r.buffer,
			Offset:  0,
			Size:    size,
		}},
	})
	if err != nil {
		return nil, err
	}
	r.groups[layout] = g
	return g, nil
}

func (r *uniformRing) releaseGroups() {
	for layout, g := range r.groups {
		g.Release()
		delete(r.groups, layout)
	}
}

func (r *uniformRing) release() {
	r.releaseGroups()
	r.buffer.Release()
}

// layout returns the shared layout object for a descriptor, creating it on first use.
func (d *Device) layout(desc wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	key := layoutKey(desc)
	if l, ok := d.layouts[key]; ok {
		return l, nil
	}
	l, err := d.device.CreateBindGroupLayout(&desc)
	if err != nil {
		return nil, fmt.Errorf("webgpu: create bind group layout: %w", err)
	}
	d.layouts[key] = l
	return l, nil
}

func (d *Device) newAttachment(desc renderer.AttachmentDescriptor) (*attachment, error) {
	format, err := textureFormat(desc.Format, d.outputFormat)
	if err != nil {
		return nil, err
	}
	usage := wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding
	if desc.Format == pipeline.FormatOutput {
		usage |= wgpu.TextureUsageCopySrc
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create attachment %q: %w", desc.Label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("webgpu: create attachment view %q: %w", desc.Label, err)
	}
	return &attachment{
		label:   desc.Label,
		width:   desc.Width,
		height:  desc.Height,
		format:  desc.Format,
		texture: tex,
		view:    view,
	}, nil
}

// releaseAttachment frees an attachment's texture and every cached bind group sampling it.
func (d *Device) releaseAttachment(a *attachment) {
	if a.texture == nil {
		return
	}
	d.dropResourceGroups(a.view)
	a.view.Release()
	a.texture.Release()
	a.view, a.texture = nil, nil
}

func (d *Device) CreateAttachment(desc renderer.AttachmentDescriptor) (renderer.AttachmentHandle, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, fmt.Errorf("webgpu: attachment %q has invalid size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	if desc.Format == pipeline.FormatUndefined || desc.Format == pipeline.FormatOutput {
		return 0, fmt.Errorf("webgpu: attachment %q has no storable format", desc.Label)
	}
	a, err := d.newAttachment(desc)
	if err != nil {
		return 0, err
	}
	h := d.nextAttachment
	d.nextAttachment++
	d.attachments[h] = a
	return h, nil
}

func (d *Device) DestroyAttachment(h renderer.AttachmentHandle) {
	if h == renderer.OutputAttachment {
		return
	}
	if a, ok := d.attachments[h]; ok {
		d.releaseAttachment(a)
		delete(d.attachments, h)
	}
}

func (d *Device) createBuffer(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	if err := d.queue.WriteBuffer(buf, 0, data); err != nil {
		buf.Release()
		return nil, err
	}
	return buf, nil
}

func (d *Device) UploadMesh(data renderer.MeshData) (renderer.MeshHandle, error) {
	if len(data.Indices) == 0 || len(data.Indices)%3 != 0 {
		return 0, fmt.Errorf("webgpu: mesh %q index count %d is not a positive multiple of 3", data.Label, len(data.Indices))
	}
	for _, i := range data.Indices {
		if int(i) >= len(data.Vertices) {
			return 0, fmt.Errorf("webgpu: mesh %q index %d out of range", data.Label, i)
		}
	}

	var vertices, indices, wire, bary *wgpu.Buffer
	var err error
	fail := func(what string, err error) (renderer.MeshHandle, error) {
		for _, b := range []*wgpu.Buffer{vertices, indices, wire, bary} {
			if b != nil {
				b.Release()
			}
		}
		return 0, fmt.Errorf("webgpu: mesh %q %s buffer: %w", data.Label, what, err)
	}
	if vertices, err = d.createBuffer(data.Label+" Vertex Buffer", wgpu.BufferUsageVertex, renderer.MarshalVertices(data.Vertices)); err != nil {
		return fail("vertex", err)
	}
	if indices, err = d.createBuffer(data.Label+" Index Buffer", wgpu.BufferUsageIndex, marshalIndices(data.Indices)); err != nil {
		return fail("index", err)
	}
	flat, coords := expandWireframe(data.Vertices, data.Indices)
	if wire, err = d.createBuffer(data.Label+" Wire Buffer", wgpu.BufferUsageVertex, renderer.MarshalVertices(flat)); err != nil {
		return fail("wireframe", err)
	}
	if bary, err = d.createBuffer(data.Label+" Barycentric Buffer", wgpu.BufferUsageVertex, marshalVec3s(coords)); err != nil {
		return fail("barycentric", err)
	}
	m := bind_group_provider.NewBindGroupProvider(data.Label,
		bind_group_provider.WithMesh(vertices, indices, len(data.Vertices), len(data.Indices)),
		bind_group_provider.WithBuffer(bind_group_provider.SlotWireframe, wire),
		bind_group_provider.WithBuffer(bind_group_provider.SlotBarycentric, bary),
	)

	d.resMu.Lock()
	defer d.resMu.Unlock()
	d.nextMesh++
	d.meshes[d.nextMesh] = m
	return d.nextMesh, nil
}

func (d *Device) ReleaseMesh(h renderer.MeshHandle) {
	d.resMu.Lock()
	m, ok := d.meshes[h]
	delete(d.meshes, h)
	d.resMu.Unlock()
	if ok {
		m.Release()
	}
}

func (d *Device) createTexture(label string, width, height int, pixels []byte) (bind_group_provider.BindGroupProvider, error) {
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create texture %q: %w", label, err)
	}
	err = d.queue.WriteTexture(
		tex.AsImageCopy(),
		pixels[:width*height*4],
		&wgpu.TextureDataLayout{
			BytesPerRow:  uint32(width * 4),
			RowsPerImage: uint32(height),
		},
		&wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
	)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("webgpu: write texture %q: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("webgpu: create texture view %q: %w", label, err)
	}
	return bind_group_provider.NewBindGroupProvider(label, bind_group_provider.WithTexture(tex, view)), nil
}

func (d *Device) UploadTexture(data renderer.TextureData) (renderer.TextureHandle, error) {
	img := data.Image
	if img.Width <= 0 || img.Height <= 0 || len(img.Pixels) < img.Width*img.Height*4 {
		return 0, fmt.Errorf("webgpu: texture %q has %d bytes for %dx%d", data.Label, len(img.Pixels), img.Width, img.Height)
	}
	t, err := d.createTexture(data.Label, img.Width, img.Height, img.Pixels)
	if err != nil {
		return 0, err
	}
	d.resMu.Lock()
	defer d.resMu.Unlock()
	d.nextTexture++
	d.textures[d.nextTexture] = t
	return d.nextTexture, nil
}

// ReleaseTexture frees an uploaded texture. Cached bind groups sampling it are dropped
// at the next BeginFrame, since uploads and releases may run on loader goroutines.
func (d *Device) ReleaseTexture(h renderer.TextureHandle) {
	if h == renderer.NoTexture {
		return
	}
	d.resMu.Lock()
	t, ok := d.textures[h]
	delete(d.textures, h)
	if ok {
		d.released = append(d.released, t)
	}
	d.resMu.Unlock()
}

// collectReleased frees textures released since the last frame.
func (d *Device) collectReleased() {
	d.resMu.Lock()
	released := d.released
	d.released = nil
	d.resMu.Unlock()
	for _, t := range released {
		d.dropResourceGroups(t.TextureView())
		t.Release()
	}
}

func (d *Device) dropResourceGroups(view *wgpu.TextureView) {
	for key, g := range d.resourceGroups {
		if key.uses(view) {
			g.Release()
			delete(d.resourceGroups, key)
		}
	}
}
