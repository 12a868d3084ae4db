//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Check mg.Namespace

// Runs the unit tests of every package.
func (Check) Test() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}

// Runs the tests with the race detector. The loader and scene update pools run
// concurrently with rendering.
func (Check) Race() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./engine/..."), withEnv("CGO_ENABLED", "1"), withStream())
	return err
}

// Runs go vet.
func (Check) Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}

// Compiles every embedded WGSL program with naga.
func (Check) Shaders() error {
	_, err := executeCmd("go", withArgs("test", "-run", "TestNagaCompile|TestLoadAllPrograms", "-v", "./engine/renderer/shader"), withStream())
	return err
}

// Runs vet, shader validation and the tests.
func (Check) All() {
	mg.SerialDeps(Check.Vet, Check.Shaders, Check.Test)
}
