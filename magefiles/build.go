//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles the GLSL sources in shaders/ to SPIR-V under assets/shaders.
func (Build) Shaders() error {
	return compileShaders()
}

// Builds the testbed binary.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "-o", "bin/anima2d", "."), withStream())
	return err
}
