package vulkan

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"unsafe"

	vk "github.com/goki/vulkan"
	_ "golang.org/x/image/bmp"

	"github.com/voxelforge/lumen/engine/core"
)

// VulkanTexture is an uploaded image occupying one slot of the bindless
// sampled-image array.
type VulkanTexture struct {
	Image *VulkanImage
	Slot  uint32
	Path  string
}

// VulkanTextureRegistry uploads textures and assigns their bindless slots.
// Slots are reused after release, so meshes reference textures by stable
// index in their push constants.
type VulkanTextureRegistry struct {
	Sampler  vk.Sampler
	slots    *core.SlotAllocator
	textures map[uint32]*VulkanTexture
}

func NewTextureRegistry(context *VulkanContext) (*VulkanTextureRegistry, error) {
	registry := &VulkanTextureRegistry{
		slots:    core.NewSlotAllocator(MaxTextures),
		textures: make(map[uint32]*VulkanTexture),
	}

	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.True,
		MaxAnisotropy:           16,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
	}

	var sampler vk.Sampler
	if res := vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &sampler); res != vk.Success {
		err := fmt.Errorf("failed to create texture sampler")
		core.LogError(err.Error())
		return nil, err
	}
	registry.Sampler = sampler

	context.Descriptors.WriteSampler(context, sampler)

	return registry, nil
}

// LoadFromFile decodes a PNG, JPEG or BMP file and uploads it, returning
// the assigned bindless slot.
func (tr *VulkanTextureRegistry) LoadFromFile(context *VulkanContext, path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening texture %s: %w", path, err)
	}
	defer f.Close()

	decoded, _, err := image.Decode(f)
	if err != nil {
		return 0, fmt.Errorf("decoding texture %s: %w", path, err)
	}

	bounds := decoded.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, decoded, bounds.Min, draw.Src)

	return tr.Upload(context, path, rgba.Pix, uint32(bounds.Dx()), uint32(bounds.Dy()))
}

// Upload pushes raw RGBA pixels through a staging buffer into a new
// device-local image and publishes it in the descriptor array.
func (tr *VulkanTextureRegistry) Upload(context *VulkanContext, name string, pixels []byte, width, height uint32) (uint32, error) {
	if len(pixels) != int(width*height*4) {
		err := fmt.Errorf("texture %s has %d bytes, want %d", name, len(pixels), width*height*4)
		core.LogError(err.Error())
		return 0, err
	}

	slot, err := tr.slots.Acquire(name)
	if err != nil {
		core.LogError("texture %s rejected: %s", name, err.Error())
		return 0, err
	}

	texture := &VulkanTexture{Slot: slot, Path: name}

	texture.Image, err = ImageCreate(
		context,
		width,
		height,
		vk.FormatR8g8b8a8Srgb,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)|vk.ImageUsageFlags(vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		tr.slots.Release(slot)
		return 0, err
	}

	size := vk.DeviceSize(len(pixels))
	staging, err := BufferCreate(
		context,
		size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		tr.destroyTexture(context, texture)
		return 0, err
	}
	defer staging.Destroy(context)

	if err := staging.LoadData(context, 0, size, unsafe.Pointer(&pixels[0])); err != nil {
		tr.destroyTexture(context, texture)
		return 0, err
	}

	cb, err := AllocateAndBeginSingleUse(context, context.Device.GraphicsCommandPool)
	if err != nil {
		tr.destroyTexture(context, texture)
		return 0, err
	}

	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if err := texture.Image.TransitionLayout(context, cb, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal, aspect); err != nil {
		tr.destroyTexture(context, texture)
		return 0, err
	}
	texture.Image.CopyFromBuffer(cb, staging.Handle)
	if err := texture.Image.TransitionLayout(context, cb, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal, aspect); err != nil {
		tr.destroyTexture(context, texture)
		return 0, err
	}

	if err := cb.EndSingleUse(context, context.Device.GraphicsCommandPool, context.Device.GraphicsQueue); err != nil {
		tr.destroyTexture(context, texture)
		return 0, err
	}

	context.Descriptors.WriteTexture(context, slot, texture.Image.View)
	tr.textures[slot] = texture

	core.LogDebug("Texture %s uploaded to slot %d (%dx%d).", name, slot, width, height)
	return slot, nil
}

// Release frees the texture's GPU resources and returns its slot for
// reuse. The slot stays unbound in the descriptor array, which is legal
// because the binding is partially bound.
func (tr *VulkanTextureRegistry) Release(context *VulkanContext, slot uint32) {
	texture, ok := tr.textures[slot]
	if !ok {
		core.LogWarn("Release of unknown texture slot %d.", slot)
		return
	}
	delete(tr.textures, slot)
	tr.destroyTexture(context, texture)
}

// Count returns the number of resident textures.
func (tr *VulkanTextureRegistry) Count() int {
	return len(tr.textures)
}

func (tr *VulkanTextureRegistry) destroyTexture(context *VulkanContext, texture *VulkanTexture) {
	texture.Image.ImageDestroy(context)
	tr.slots.Release(texture.Slot)
}

func (tr *VulkanTextureRegistry) Destroy(context *VulkanContext) {
	for slot, texture := range tr.textures {
		texture.Image.ImageDestroy(context)
		delete(tr.textures, slot)
	}
	if tr.Sampler != nil {
		vk.DestroySampler(context.Device.LogicalDevice, tr.Sampler, context.Allocator)
		tr.Sampler = nil
	}
}
