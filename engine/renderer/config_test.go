package renderer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestParseDisplayType(t *testing.T) {
	tests := []struct {
		in      string
		want    DisplayType
		wantErr bool
	}{
		{"normal", DisplayNormal, false},
		{"Wireframe", DisplayWireframe, false},
		{"world_normals", DisplayWorldNormals, false},
		{"world-normals", DisplayWorldNormals, false},
		{" albedo ", DisplayAlbedo, false},
		{"lighting", DisplayLighting, false},
		{"shadows", DisplayShadows, false},
		{"ssao", DisplayNormal, true},
	}
	for _, tt := range tests {
		got, err := ParseDisplayType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDisplayType(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDisplayType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	for d := DisplayNormal; d <= DisplayShadows; d++ {
		back, err := ParseDisplayType(d.String())
		if err != nil || back != d {
			t.Errorf("round trip of %v gave %v, %v", d, back, err)
		}
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`exposure = 2.5
display = "shadows"
backend = "software"
`))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	def := DefaultConfig()
	if cfg.Exposure != 2.5 {
		t.Errorf("Exposure = %v, want 2.5", cfg.Exposure)
	}
	if cfg.Display != DisplayShadows {
		t.Errorf("Display = %v, want shadows", cfg.Display)
	}
	if cfg.Backend != BackendSoftware {
		t.Errorf("Backend = %v, want software", cfg.Backend)
	}
	if cfg.Gamma != def.Gamma || cfg.CascadeLambda != def.CascadeLambda {
		t.Errorf("omitted keys lost their defaults: %+v", cfg)
	}
}

func TestParseConfigRejects(t *testing.T) {
	tests := map[string]string{
		"negative exposure": "exposure = -1.0",
		"lambda above one":  "cascade_lambda = 1.5",
		"unknown key":       "bloom = true",
		"bad display":       `display = "xray"`,
		"zero width":        "width = 0",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(doc)); err == nil {
				t.Errorf("ParseConfig(%q) succeeded, want error", doc)
			}
		})
	}
}

func TestConfigSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renderer.toml")
	cfg := DefaultConfig()
	cfg.Display = DisplayWireframe
	cfg.PresentMode = PresentMailbox
	cfg.ShadowResolution = 512
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got != cfg {
		t.Errorf("LoadConfig = %+v, want %+v", got, cfg)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestConfigWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renderer.toml")
	if err := os.WriteFile(path, []byte("exposure = 1.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cw, err := NewConfigWatcher(path, log.New(os.Stderr))
	if err != nil {
		t.Fatalf("NewConfigWatcher: %v", err)
	}
	defer cw.Close()

	if err := os.WriteFile(path, []byte("exposure = 3.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-cw.Configs():
			if cfg.Exposure == 3.0 {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for reloaded config")
		}
	}
}

func TestConfigWatcherCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renderer.toml")
	cw, err := NewConfigWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewConfigWatcher: %v", err)
	}
	if err := cw.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := cw.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, ok := <-cw.Configs(); ok {
		t.Error("Configs channel still open after Close")
	}
}

func TestCheckedInConfigMatchesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "config", "renderer.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("config/renderer.toml = %+v, want the defaults %+v", cfg, DefaultConfig())
	}
}
