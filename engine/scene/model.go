package scene

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

// NewModelFromOBJ decodes a Wavefront OBJ file into a prop node. Each OBJ
// object becomes a child node so sub-meshes keep their own draw state. A
// sibling .mtl file is used when present.
func NewModelFromOBJ(path string) (*Node, error) {
	meshFile, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening model %s", path)
	}
	defer meshFile.Close()

	var decoder *obj.Decoder
	mtlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".mtl"
	if matFile, err := os.Open(mtlPath); err == nil {
		defer matFile.Close()
		decoder, err = obj.DecodeReader(meshFile, matFile)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding model %s", path)
		}
	} else {
		decoder, err = obj.DecodeReader(meshFile, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding model %s", path)
		}
	}

	root := NewNode(KindProp, nil, nil)
	for _, decoded := range decoder.Objects {
		var raw []Vertex
		for _, face := range decoded.Faces {
			// Triangulate as a fan; OBJ faces may be polygons.
			for i := 2; i < len(face.Vertices); i++ {
				raw = append(raw,
					objVertex(decoder, face, 0),
					objVertex(decoder, face, i-1),
					objVertex(decoder, face, i),
				)
			}
		}
		if len(raw) == 0 {
			continue
		}
		child := NewNode(KindProp, nil, nil)
		child.Vertices, child.Indices = GenerateIndices(raw)
		root.AddChild(child)
	}
	if len(root.Children) == 0 {
		return nil, errors.Newf("model %s contains no faces", path)
	}
	return root, nil
}

func objVertex(decoder *obj.Decoder, face obj.Face, i int) Vertex {
	vertInd := face.Vertices[i]
	v := Vertex{
		Pos: mgl32.Vec3{
			decoder.Vertices[vertInd*3],
			decoder.Vertices[vertInd*3+1],
			decoder.Vertices[vertInd*3+2],
		},
		Color: mgl32.Vec3{1, 1, 1},
	}
	if i < len(face.Uvs) {
		uvInd := face.Uvs[i]
		if uvInd >= 0 && uvInd*2+1 < len(decoder.Uvs) {
			v.TexCoord = mgl32.Vec2{
				decoder.Uvs[uvInd*2],
				1.0 - decoder.Uvs[uvInd*2+1],
			}
		}
	}
	if i < len(face.Normals) {
		nInd := face.Normals[i]
		if nInd >= 0 && nInd*3+2 < len(decoder.Normals) {
			v.Normal = mgl32.Vec3{
				decoder.Normals[nInd*3],
				decoder.Normals[nInd*3+1],
				decoder.Normals[nInd*3+2],
			}
		}
	}
	return v
}
