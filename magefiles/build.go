//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var shaderSources = []string{
	"base.vert",
	"base.frag",
	"light.vert",
	"light.frag",
	"transparency.frag",
}

// Compiles every GLSL shader to SPIR-V with glslc.
func (Build) Shaders() error {
	for _, src := range shaderSources {
		in := fmt.Sprintf("assets/shaders/%s", src)
		out := fmt.Sprintf("assets/shaders/%s.spv", src)
		if _, err := executeCmd("glslc", withArgs(in, "-o", out), withStream()); err != nil {
			return err
		}
	}
	return nil
}

// Builds the demo binary, compiling shaders first.
func (Build) App() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "-o", "lumen", "."), withStream())
	return err
}
