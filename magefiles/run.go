//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Opens the windowed demo with the checked-in renderer config.
func (Run) Demo() error {
	mg.Deps(Check.Shaders)
	fmt.Println("Run deferred demo...")
	_, err := executeCmd("go", withArgs("run", "./cmd/deferred-demo", "-config", "config/renderer.toml"), withStream())
	return err
}

// Renders the showcase on the software device into frame.png and frame.exr.
func (Run) Still() error {
	_, err := executeCmd("go", withArgs("run", "./cmd/render-still", "-output", "frame.png", "-exr", "frame.exr"), withStream())
	return err
}

// Renders one still per display type into display-<name>.png.
func (Run) Displays() error {
	for _, name := range []string{"normal", "wireframe", "world-normals", "albedo", "lighting", "shadows"} {
		if _, err := executeCmd("go", withArgs("run", "./cmd/render-still", "-display", name, "-output", "display-"+name+".png")); err != nil {
			return err
		}
	}
	return nil
}
