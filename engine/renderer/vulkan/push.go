package vulkan

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Debug flag bits carried in PushConstants.DebugFlags and decoded by the
// fragment shaders.
const (
	DebugFlagNormals   uint32 = 1 << 0
	DebugFlagDepth     uint32 = 1 << 1
	DebugFlagWireframe uint32 = 1 << 2
	DebugFlagUnlit     uint32 = 1 << 3
)

// PushConstants is the per-draw payload shared by all three pipelines.
// The Vulkan spec only guarantees 128 bytes, so the layout must stay
// within that. During the lighting subpass TextureIndex carries the index
// of the light being accumulated instead of a texture slot.
type PushConstants struct {
	Model         mgl32.Mat4
	TextureIndex  uint32
	NormalIndex   uint32
	EmissiveIndex uint32
	AlphaCutoff   float32
	DebugFlags    uint32
}

const PushConstantsSize = uint32(unsafe.Sizeof(PushConstants{}))

// Pointer returns the address of the struct for vkCmdPushConstants.
func (pc *PushConstants) Pointer() unsafe.Pointer {
	return unsafe.Pointer(pc)
}
