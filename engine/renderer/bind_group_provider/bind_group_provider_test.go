package bind_group_provider

import "testing"

// GPU objects need an adapter, so these only cover the bookkeeping around them.

func TestMeshProviderCounts(t *testing.T) {
	a := NewBindGroupProvider("a", WithMesh(nil, nil, 24, 36))
	b := NewBindGroupProvider("b", WithMesh(nil, nil, 24, 36))
	c := NewBindGroupProvider("c", WithMesh(nil, nil, 24, 30))

	if a.Label() != "a" || a.VertexCount() != 24 || a.IndexCount() != 36 {
		t.Errorf("provider = %q %d/%d", a.Label(), a.VertexCount(), a.IndexCount())
	}
	if !a.SameTopology(b) {
		t.Error("identical keyframes reported as different")
	}
	if a.SameTopology(c) || a.SameTopology(nil) {
		t.Error("mismatched keyframes reported as blendable")
	}
}

func TestReleaseEmptyProvider(t *testing.T) {
	p := NewBindGroupProvider("empty", WithBuffer(SlotWireframe, nil))
	p.Release()
	p.Release()
	if p.Buffer(SlotWireframe) != nil || p.TextureView() != nil || p.VertexBuffer() != nil {
		t.Error("released provider still holds objects")
	}
}
