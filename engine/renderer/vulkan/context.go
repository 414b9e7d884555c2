package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/voxelforge/lumen/engine/core"
)

type VulkanContext struct {
	// The framebuffer's current width.
	FramebufferWidth uint32
	// The framebuffer's current height.
	FramebufferHeight uint32
	// Current generation of framebuffer size. If it does not match
	// FramebufferSizeLastGeneration, a new swapchain should be generated.
	FramebufferSizeGeneration uint64
	// The generation of the framebuffer when the swapchain was last created.
	FramebufferSizeLastGeneration uint64

	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugMessenger vk.DebugReportCallback

	Device *VulkanDevice

	Swapchain      *VulkanSwapchain
	MainRenderpass *VulkanRenderpass

	// Offscreen attachments written by the geometry subpass and read as
	// input attachments by the lighting subpass. Recreated on resize.
	IntermediateAttachment *VulkanImage
	EmissiveAttachment     *VulkanImage
	NormalAttachment       *VulkanImage
	DepthAttachment        *VulkanImage

	GeometryPipeline     *VulkanPipeline
	LightingPipeline     *VulkanPipeline
	TransparencyPipeline *VulkanPipeline

	Descriptors *VulkanDescriptorState

	// Shared geometry buffers holding every mesh in the scene.
	VertexBuffer *VulkanBuffer
	IndexBuffer  *VulkanBuffer

	// Per frame-in-flight resources.
	UniformBuffers []*VulkanBuffer
	LightBuffers   []*VulkanBuffer

	GraphicsCommandBuffers []*VulkanCommandBuffer

	ImageAvailableSemaphores []vk.Semaphore
	QueueCompleteSemaphores  []vk.Semaphore

	InFlightFences []*VulkanFence

	// Holds pointers to fences which exist and are owned elsewhere.
	ImagesInFlight []*VulkanFence

	ImageIndex   uint32
	CurrentFrame uint32

	RecreatingSwapchain bool
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter, propertyFlags uint32) int32 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (uint32(memoryProperties.MemoryTypes[i].PropertyFlags)&propertyFlags) == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}
