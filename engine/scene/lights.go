package scene

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelforge/lumen/engine/core"
)

// MaxLights is the fixed capacity of the GPU light buffer.
const MaxLights = 32

// GPULight mirrors the std430 light record: position w is unused, color w
// carries the brightness.
type GPULight struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
}

type GPULightHeader struct {
	Ambient    mgl32.Vec4
	LightCount uint32
	Pad        [3]uint32
}

// GPULightsBuffer is the exact byte layout uploaded to the shader storage
// buffer every frame.
type GPULightsBuffer struct {
	Header GPULightHeader
	Lights [MaxLights]GPULight
}

const GPULightsBufferSize = uint64(unsafe.Sizeof(GPULightsBuffer{}))

// LightSet tracks the light nodes of a scene and packs them for the GPU.
type LightSet struct {
	ambient mgl32.Vec4
	lights  []*Node
}

func NewLightSet() *LightSet {
	return &LightSet{}
}

// SetAmbient installs the scene-wide ambient term.
func (ls *LightSet) SetAmbient(color mgl32.Vec3, brightness float32) {
	ls.ambient = color.Vec4(brightness)
}

// Add registers a directional light node. The buffer holds at most
// MaxLights lights; further ones are rejected.
func (ls *LightSet) Add(n *Node) error {
	if !n.Can(CapEmitsLight) {
		return fmt.Errorf("node %s cannot emit light", n.ID)
	}
	if n.Kind == KindAmbientLight {
		ls.SetAmbient(n.LightColor, n.Brightness)
		return nil
	}
	if len(ls.lights) >= MaxLights {
		err := fmt.Errorf("light buffer full, at most %d lights are supported", MaxLights)
		core.LogWarn(err.Error())
		return err
	}
	ls.lights = append(ls.lights, n)
	return nil
}

func (ls *LightSet) Count() uint32 {
	return uint32(len(ls.lights))
}

// Pack snapshots the current light state into the GPU layout. Positions
// are re-read from the node transforms so moving lights work.
func (ls *LightSet) Pack() GPULightsBuffer {
	var buf GPULightsBuffer
	buf.Header.Ambient = ls.ambient
	buf.Header.LightCount = uint32(len(ls.lights))
	for i, n := range ls.lights {
		buf.Lights[i] = GPULight{
			Position: n.Transform.Translation.Vec4(0),
			Color:    n.LightColor.Vec4(n.Brightness),
		}
	}
	return buf
}
