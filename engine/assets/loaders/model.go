package loaders

import (
	"github.com/voxelforge/lumen/engine/scene"
)

// ModelLoader decodes Wavefront OBJ files into scene nodes.
type ModelLoader struct{}

func (ModelLoader) Load(path string) (*scene.Node, error) {
	return scene.NewModelFromOBJ(path)
}
