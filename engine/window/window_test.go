package window

import (
	"testing"
)

// These cover the parts of a window that do not need a display.

func TestBuilderDefaults(t *testing.T) {
	w := &engineWindow{width: 1280, height: 720}
	for _, opt := range []WindowBuilderOption{
		WithTitle("demo"),
		WithSize(800, 600),
		WithSize(0, 600),
		WithMinSize(320, 0),
		WithMaxSize(0, 1080),
		WithResizable(false),
		WithEscapeCloses(false),
	} {
		opt(w)
	}
	if w.title != "demo" || w.width != 800 || w.height != 600 {
		t.Errorf("window = %q %dx%d", w.title, w.width, w.height)
	}
	if w.resizable || w.escapeCloses {
		t.Error("boolean options not applied")
	}

	const dontCare = -1
	minW, minH, maxW, maxH := w.sizeLimits(dontCare)
	if minW != 320 || minH != dontCare || maxW != dontCare || maxH != 1080 {
		t.Errorf("sizeLimits = %d %d %d %d", minW, minH, maxW, maxH)
	}
}

func TestUninitializedWindow(t *testing.T) {
	w := &engineWindow{}
	if w.IsRunning() {
		t.Error("uninitialized window reports running")
	}
	if w.SurfaceDescriptor() != nil {
		t.Error("uninitialized window returned a surface descriptor")
	}
	if err := w.Close(); err == nil {
		t.Error("closing an uninitialized window succeeded")
	}
	w.RequestClose()
	w.SetTitle("ignored")

	calls := 0
	w.SetUpdateCallback(func() { calls++ })
	w.ProcessMessages()
	if calls != 0 {
		t.Errorf("update ran %d times without a window", calls)
	}
}
