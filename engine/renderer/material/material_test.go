package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

func TestMaterialUsability(t *testing.T) {
	diffuse := NewTexture("diffuse", common.SolidImage(255, 0, 0, 255))
	m := NewMaterial(WithName("brick"), WithDiffuseTexture(diffuse))

	if m.IsUsable() {
		t.Fatal("material usable before its texture was uploaded")
	}
	if got := m.Binding().Diffuse; got != renderer.NoTexture {
		t.Errorf("Binding().Diffuse = %d before upload, want NoTexture", got)
	}

	diffuse.MarkUploaded(7)
	if !m.IsUsable() {
		t.Fatal("material not usable after upload")
	}
	b := m.Binding()
	if b.Diffuse != 7 || b.Ambient != renderer.NoTexture || b.Normal != renderer.NoTexture {
		t.Errorf("Binding() = %+v", b)
	}

	if h := diffuse.MarkReleased(); h != 7 {
		t.Errorf("MarkReleased = %d, want 7", h)
	}
	if m.IsUsable() {
		t.Error("material usable after texture release")
	}
}

func TestMaterialDefaults(t *testing.T) {
	m := NewMaterial()
	if !m.Visible() {
		t.Error("new material is hidden")
	}
	if m.SpecularExponent() != DefaultSpecularExponent {
		t.Errorf("SpecularExponent = %v", m.SpecularExponent())
	}
	if !m.IsUsable() {
		t.Error("material without textures should be usable")
	}
	m.SetVisible(false)
	if m.Visible() {
		t.Error("SetVisible(false) ignored")
	}
	if NewMaterial().ID() == m.ID() {
		t.Error("materials share an ID")
	}
}
