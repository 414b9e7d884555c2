package vulkan

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"

	"github.com/voxelforge/lumen/engine/core"
)

// GlobalUBO is the per-frame camera payload bound at set 0.
type GlobalUBO struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

const GlobalUBOSize = uint64(unsafe.Sizeof(GlobalUBO{}))

// Descriptor set indices shared with the shaders.
const (
	SetGlobal          = 0
	SetTextures        = 1
	SetLights          = 2
	SetInputAttachment = 3
	SetCount           = 4
)

// VulkanDescriptorState owns the descriptor pool, the four set layouts and
// the allocated sets. The texture array at set 1 is bindless: partially
// bound, updated after bind, one write per uploaded texture.
type VulkanDescriptorState struct {
	Pool vk.DescriptorPool

	GlobalLayout  vk.DescriptorSetLayout
	TextureLayout vk.DescriptorSetLayout
	LightLayout   vk.DescriptorSetLayout
	InputLayout   vk.DescriptorSetLayout

	GlobalSets [MaxFramesInFlight]vk.DescriptorSet
	LightSets  [MaxFramesInFlight]vk.DescriptorSet
	TextureSet vk.DescriptorSet
	InputSet   vk.DescriptorSet
}

func NewDescriptorState(context *VulkanContext) (*VulkanDescriptorState, error) {
	ds := &VulkanDescriptorState{}

	if err := ds.createLayouts(context); err != nil {
		return nil, err
	}
	if err := ds.createPool(context); err != nil {
		return nil, err
	}
	if err := ds.allocateSets(context); err != nil {
		return nil, err
	}
	core.LogInfo("Descriptor sets allocated.")
	return ds, nil
}

func (ds *VulkanDescriptorState) createLayouts(context *VulkanContext) error {
	createLayout := func(info *vk.DescriptorSetLayoutCreateInfo, out *vk.DescriptorSetLayout, what string) error {
		var layout vk.DescriptorSetLayout
		if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, info, context.Allocator, &layout); res != vk.Success {
			err := fmt.Errorf("failed to create %s descriptor set layout with %s", what, VulkanResultString(res))
			core.LogError(err.Error())
			return err
		}
		*out = layout
		return nil
	}

	// Set 0: camera UBO.
	globalInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings: []vk.DescriptorSetLayoutBinding{{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit) | vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		}},
	}
	if err := createLayout(&globalInfo, &ds.GlobalLayout, "global"); err != nil {
		return err
	}

	// Set 1: one sampler plus the bindless sampled-image array. The array
	// binding is partially bound and updated after bind so texture uploads
	// never stall in-flight frames.
	arrayBindingFlags := vk.DescriptorBindingFlags(vk.DescriptorBindingPartiallyBoundBit) |
		vk.DescriptorBindingFlags(vk.DescriptorBindingUpdateAfterBindBit) |
		vk.DescriptorBindingFlags(vk.DescriptorBindingVariableDescriptorCountBit)
	bindingFlagsInfo := vk.DescriptorSetLayoutBindingFlagsCreateInfo{
		SType:         vk.StructureTypeDescriptorSetLayoutBindingFlagsCreateInfo,
		BindingCount:  2,
		PBindingFlags: []vk.DescriptorBindingFlags{0, arrayBindingFlags},
	}
	bindingFlagsInfo.PassRef()

	textureInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		PNext:        unsafe.Pointer(bindingFlagsInfo.Ref()),
		Flags:        vk.DescriptorSetLayoutCreateFlags(vk.DescriptorSetLayoutCreateUpdateAfterBindPoolBit),
		BindingCount: 2,
		PBindings: []vk.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorType:  vk.DescriptorTypeSampler,
				DescriptorCount: 1,
				StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
			},
			{
				Binding:         1,
				DescriptorType:  vk.DescriptorTypeSampledImage,
				DescriptorCount: MaxTextures,
				StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
			},
		},
	}
	if err := createLayout(&textureInfo, &ds.TextureLayout, "texture"); err != nil {
		return err
	}

	// Set 2: light storage buffer.
	lightInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings: []vk.DescriptorSetLayoutBinding{{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeStorageBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		}},
	}
	if err := createLayout(&lightInfo, &ds.LightLayout, "light"); err != nil {
		return err
	}

	// Set 3: the four G-buffer input attachments read by lighting.
	inputBindings := make([]vk.DescriptorSetLayoutBinding, 4)
	for i := range inputBindings {
		inputBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         uint32(i),
			DescriptorType:  vk.DescriptorTypeInputAttachment,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		}
	}
	inputInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(inputBindings)),
		PBindings:    inputBindings,
	}
	return createLayout(&inputInfo, &ds.InputLayout, "input attachment")
}

func (ds *VulkanDescriptorState) createPool(context *VulkanContext) error {
	poolSizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: descriptorPoolMaxSets},
		{Type: vk.DescriptorTypeStorageBuffer, DescriptorCount: descriptorPoolMaxSets},
		{Type: vk.DescriptorTypeSampler, DescriptorCount: descriptorPoolMaxSets},
		{Type: vk.DescriptorTypeSampledImage, DescriptorCount: descriptorPoolMaxSets},
		{Type: vk.DescriptorTypeInputAttachment, DescriptorCount: descriptorPoolMaxSets},
	}

	poolInfo := vk.DescriptorPoolCreateInfo{
		SType: vk.StructureTypeDescriptorPoolCreateInfo,
		Flags: vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateUpdateAfterBindBit) |
			vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       descriptorPoolMaxSets,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}

	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &pool); res != vk.Success {
		err := fmt.Errorf("failed to create descriptor pool with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	ds.Pool = pool
	return nil
}

func (ds *VulkanDescriptorState) allocateSets(context *VulkanContext) error {
	allocate := func(info *vk.DescriptorSetAllocateInfo, out *vk.DescriptorSet, what string) error {
		sets := make([]vk.DescriptorSet, 1)
		if res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, info, &sets[0]); res != vk.Success {
			err := fmt.Errorf("failed to allocate %s descriptor set with %s", what, VulkanResultString(res))
			core.LogError(err.Error())
			return err
		}
		*out = sets[0]
		return nil
	}

	for i := 0; i < MaxFramesInFlight; i++ {
		globalAlloc := vk.DescriptorSetAllocateInfo{
			SType:              vk.StructureTypeDescriptorSetAllocateInfo,
			DescriptorPool:     ds.Pool,
			DescriptorSetCount: 1,
			PSetLayouts:        []vk.DescriptorSetLayout{ds.GlobalLayout},
		}
		if err := allocate(&globalAlloc, &ds.GlobalSets[i], "global"); err != nil {
			return err
		}

		lightAlloc := vk.DescriptorSetAllocateInfo{
			SType:              vk.StructureTypeDescriptorSetAllocateInfo,
			DescriptorPool:     ds.Pool,
			DescriptorSetCount: 1,
			PSetLayouts:        []vk.DescriptorSetLayout{ds.LightLayout},
		}
		if err := allocate(&lightAlloc, &ds.LightSets[i], "light"); err != nil {
			return err
		}
	}

	// The texture set uses a variable descriptor count sized to the full
	// bindless capacity.
	variableCountInfo := vk.DescriptorSetVariableDescriptorCountAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetVariableDescriptorCountAllocateInfo,
		DescriptorSetCount: 1,
		PDescriptorCounts:  []uint32{MaxTextures},
	}
	variableCountInfo.PassRef()
	textureAlloc := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		PNext:              unsafe.Pointer(variableCountInfo.Ref()),
		DescriptorPool:     ds.Pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{ds.TextureLayout},
	}
	if err := allocate(&textureAlloc, &ds.TextureSet, "texture"); err != nil {
		return err
	}

	inputAlloc := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     ds.Pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{ds.InputLayout},
	}
	return allocate(&inputAlloc, &ds.InputSet, "input attachment")
}

// Layouts returns the set layouts in binding order for pipeline creation.
func (ds *VulkanDescriptorState) Layouts() []vk.DescriptorSetLayout {
	return []vk.DescriptorSetLayout{ds.GlobalLayout, ds.TextureLayout, ds.LightLayout, ds.InputLayout}
}

// WriteGlobalBuffer points the per-frame global set at its uniform buffer.
func (ds *VulkanDescriptorState) WriteGlobalBuffer(context *VulkanContext, frame int, buffer *VulkanBuffer) {
	bufferInfo := vk.DescriptorBufferInfo{
		Buffer: buffer.Handle,
		Offset: 0,
		Range:  buffer.TotalSize,
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          ds.GlobalSets[frame],
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

// WriteLightBuffer points the per-frame light set at its storage buffer.
func (ds *VulkanDescriptorState) WriteLightBuffer(context *VulkanContext, frame int, buffer *VulkanBuffer) {
	bufferInfo := vk.DescriptorBufferInfo{
		Buffer: buffer.Handle,
		Offset: 0,
		Range:  buffer.TotalSize,
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          ds.LightSets[frame],
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeStorageBuffer,
		PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

// WriteSampler binds the shared sampler at set 1 binding 0.
func (ds *VulkanDescriptorState) WriteSampler(context *VulkanContext, sampler vk.Sampler) {
	imageInfo := vk.DescriptorImageInfo{
		Sampler: sampler,
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          ds.TextureSet,
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeSampler,
		PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

// WriteTexture publishes one uploaded texture into its bindless slot.
func (ds *VulkanDescriptorState) WriteTexture(context *VulkanContext, slot uint32, view vk.ImageView) {
	imageInfo := vk.DescriptorImageInfo{
		ImageView:   view,
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          ds.TextureSet,
		DstBinding:      1,
		DstArrayElement: slot,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeSampledImage,
		PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
	}
	lockPool.SafeCall(DescriptorManagement, func() error {
		vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
		return nil
	})
}

// WriteInputAttachments rebinds the G-buffer views after the swapchain and
// its attachments are recreated.
func (ds *VulkanDescriptorState) WriteInputAttachments(context *VulkanContext, views [4]vk.ImageView) {
	writes := make([]vk.WriteDescriptorSet, 4)
	infos := make([]vk.DescriptorImageInfo, 4)
	for i := range views {
		layout := vk.ImageLayoutShaderReadOnlyOptimal
		if i == AttachmentDepth {
			layout = vk.ImageLayoutDepthStencilReadOnlyOptimal
		}
		infos[i] = vk.DescriptorImageInfo{
			ImageView:   views[i],
			ImageLayout: layout,
		}
		writes[i] = vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          ds.InputSet,
			DstBinding:      uint32(i),
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeInputAttachment,
			PImageInfo:      []vk.DescriptorImageInfo{infos[i]},
		}
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
}

func (ds *VulkanDescriptorState) Destroy(context *VulkanContext) {
	device := context.Device.LogicalDevice
	if ds.Pool != nil {
		vk.DestroyDescriptorPool(device, ds.Pool, context.Allocator)
		ds.Pool = nil
	}
	for _, layout := range []vk.DescriptorSetLayout{ds.GlobalLayout, ds.TextureLayout, ds.LightLayout, ds.InputLayout} {
		if layout != nil {
			vk.DestroyDescriptorSetLayout(device, layout, context.Allocator)
		}
	}
	ds.GlobalLayout = nil
	ds.TextureLayout = nil
	ds.LightLayout = nil
	ds.InputLayout = nil
}
