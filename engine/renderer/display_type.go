package renderer

import (
	"fmt"
	"strings"
)

// DisplayType selects which stages run after the geometry pass.
type DisplayType int

const (
	// DisplayNormal runs shadows, lighting and tone mapping.
	DisplayNormal DisplayType = iota
	// DisplayWireframe draws triangle edges over the diffuse color.
	DisplayWireframe
	// DisplayWorldNormals shows GBuffer normals remapped to [0,1].
	DisplayWorldNormals
	// DisplayAlbedo shows the GBuffer diffuse color.
	DisplayAlbedo
	// DisplayLighting renders every drawable with the override material.
	DisplayLighting
	// DisplayShadows tints the ambient term by shadow cascade.
	DisplayShadows
)

var displayTypeNames = [...]string{
	DisplayNormal:       "normal",
	DisplayWireframe:    "wireframe",
	DisplayWorldNormals: "world-normals",
	DisplayAlbedo:       "albedo",
	DisplayLighting:     "lighting",
	DisplayShadows:      "shadows",
}

func (d DisplayType) String() string {
	if d < 0 || int(d) >= len(displayTypeNames) {
		return fmt.Sprintf("DisplayType(%d)", int(d))
	}
	return displayTypeNames[d]
}

// IsDebug reports whether the display type replaces lighting and tone mapping.
func (d DisplayType) IsDebug() bool {
	return d == DisplayWireframe || d == DisplayWorldNormals || d == DisplayAlbedo
}

// ParseDisplayType converts a display type name, as produced by String, back to a DisplayType.
// Matching is case-insensitive and accepts underscores in place of dashes.
//
// Parameters:
//   - s: the display type name
//
// Returns:
//   - DisplayType: the parsed value
//   - error: error if the name is not recognised
func ParseDisplayType(s string) (DisplayType, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for i, n := range displayTypeNames {
		if n == name {
			return DisplayType(i), nil
		}
	}
	return DisplayNormal, fmt.Errorf("unknown display type %q", s)
}

// MarshalText implements encoding.TextMarshaler so configs store the name.
func (d DisplayType) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DisplayType) UnmarshalText(text []byte) error {
	v, err := ParseDisplayType(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
