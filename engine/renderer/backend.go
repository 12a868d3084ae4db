package renderer

import (
	"fmt"
	"strings"
)

// BackendType identifies a Device implementation.
type BackendType int

const (
	// BackendWebGPU renders through wgpu onto a window surface.
	BackendWebGPU BackendType = iota
	// BackendSoftware renders on the CPU into in-memory images.
	BackendSoftware
)

func (b BackendType) String() string {
	switch b {
	case BackendWebGPU:
		return "webgpu"
	case BackendSoftware:
		return "software"
	}
	return fmt.Sprintf("BackendType(%d)", int(b))
}

// MarshalText implements encoding.TextMarshaler.
func (b BackendType) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *BackendType) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "webgpu", "wgpu":
		*b = BackendWebGPU
	case "software", "cpu":
		*b = BackendSoftware
	default:
		return fmt.Errorf("unknown backend %q", text)
	}
	return nil
}

// PresentMode controls swapchain synchronisation for windowed backends.
type PresentMode int

const (
	// PresentFifo waits for vertical blank.
	PresentFifo PresentMode = iota
	// PresentMailbox replaces queued frames without tearing.
	PresentMailbox
	// PresentImmediate presents without waiting.
	PresentImmediate
)

func (p PresentMode) String() string {
	switch p {
	case PresentFifo:
		return "fifo"
	case PresentMailbox:
		return "mailbox"
	case PresentImmediate:
		return "immediate"
	}
	return fmt.Sprintf("PresentMode(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p PresentMode) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PresentMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "fifo", "vsync":
		*p = PresentFifo
	case "mailbox":
		*p = PresentMailbox
	case "immediate":
		*p = PresentImmediate
	default:
		return fmt.Errorf("unknown present mode %q", text)
	}
	return nil
}
