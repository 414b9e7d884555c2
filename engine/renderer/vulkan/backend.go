package vulkan

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/loov/hrtime"

	"github.com/voxelforge/lumen/engine/core"
	emath "github.com/voxelforge/lumen/engine/math"
	"github.com/voxelforge/lumen/engine/platform"
	"github.com/voxelforge/lumen/engine/scene"
)

// ErrFrameThrottled reports that the frame was skipped to hold the target
// frame rate. The caller should sleep briefly and try again.
var ErrFrameThrottled = errors.New("frame ahead of schedule, throttled")

// ShaderCatalog carries the SPIR-V blobs for the three pipelines.
type ShaderCatalog struct {
	BaseVertex           []byte
	BaseFragment         []byte
	LightVertex          []byte
	LightFragment        []byte
	TransparencyFragment []byte
}

// FramePacket is everything the backend needs to record one frame. The
// front-end assembles it from the scene graph before each draw.
type FramePacket struct {
	View             mgl32.Mat4
	FieldOfViewDeg   float32
	OpaqueDraws      []scene.Draw
	TransparentDraws []scene.Draw
	Lights           scene.GPULightsBuffer
	DebugFlags       uint32
	Wireframe        bool
	CullingEnabled   bool
}

type VulkanRenderer struct {
	platform                *platform.Platform
	FrameNumber             uint64
	context                 *VulkanContext
	Textures                *VulkanTextureRegistry
	cachedFramebufferWidth  uint32
	cachedFramebufferHeight uint32

	targetFrameRate int
	frameBudget     time.Duration
	lastFrameStamp  time.Duration

	indexCount uint32

	debug bool
}

func New(p *platform.Platform, targetFrameRate int, validation bool) *VulkanRenderer {
	if targetFrameRate <= 0 {
		targetFrameRate = 60
	}
	return &VulkanRenderer{
		platform: p,
		context: &VulkanContext{
			Device: &VulkanDevice{
				SwapchainSupport: &VulkanSwapchainSupportInfo{},
			},
		},
		targetFrameRate: targetFrameRate,
		frameBudget:     time.Second / time.Duration(targetFrameRate),
		debug:           validation,
	}
}

func (vr *VulkanRenderer) Initialize(appName string, appWidth, appHeight uint32, shaders ShaderCatalog) error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		err := fmt.Errorf("GetInstanceProcAddress is nil")
		core.LogError(err.Error())
		return err
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		core.LogError("failed to initialize vk: %s", err)
		return err
	}

	vr.context.Allocator = nil
	vr.context.FramebufferWidth = appWidth
	vr.context.FramebufferHeight = appHeight

	if err := vr.createInstance(appName); err != nil {
		return err
	}

	// Surface
	core.LogDebug("Creating Vulkan surface...")
	surface, err := vr.platform.Window.CreateWindowSurface(vr.context.Instance, nil)
	if err != nil {
		core.LogError("Vulkan surface creation failed.")
		return err
	}
	vr.context.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	if err := DeviceCreate(vr.context); err != nil {
		core.LogError("Failed to create device!")
		return err
	}

	if !DeviceDetectDepthFormat(vr.context.Device) {
		err := fmt.Errorf("failed to find a supported depth format")
		core.LogError(err.Error())
		return err
	}

	sc, err := SwapchainCreate(vr.context, vr.context.FramebufferWidth, vr.context.FramebufferHeight)
	if err != nil {
		return err
	}
	vr.context.Swapchain = sc
	vr.context.FramebufferWidth = sc.Extent.Width
	vr.context.FramebufferHeight = sc.Extent.Height

	if err := vr.createAttachments(); err != nil {
		return err
	}

	rp, err := RenderpassCreate(vr.context, vr.context.FramebufferWidth, vr.context.FramebufferHeight)
	if err != nil {
		return err
	}
	vr.context.MainRenderpass = rp

	vr.context.Swapchain.Framebuffers = make([]*VulkanFramebuffer, vr.context.Swapchain.ImageCount)
	if err := vr.regenerateFramebuffers(); err != nil {
		return err
	}

	descriptors, err := NewDescriptorState(vr.context)
	if err != nil {
		return err
	}
	vr.context.Descriptors = descriptors

	if err := vr.createFrameBuffersAndSets(); err != nil {
		return err
	}
	vr.writeInputAttachments()

	if err := vr.createPipelines(shaders); err != nil {
		return err
	}

	if err := vr.createGeometryBuffers(initialBufferSize, initialBufferSize); err != nil {
		return err
	}

	if err := vr.createCommandBuffers(); err != nil {
		return err
	}

	if err := vr.createSyncObjects(); err != nil {
		return err
	}

	textures, err := NewTextureRegistry(vr.context)
	if err != nil {
		return err
	}
	vr.Textures = textures

	vr.lastFrameStamp = hrtime.Now() - vr.frameBudget

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) createInstance(appName string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 2, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Lumen Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := []string{"VK_KHR_surface"}
	requiredExtensions = append(requiredExtensions, vr.platform.GetRequiredExtensionNames()...)

	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		createInfo.Flags |= 1
	}

	if vr.debug {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
		core.LogInfo("Required extensions:")
		for i := 0; i < len(requiredExtensions); i++ {
			core.LogInfo(requiredExtensions[i])
		}
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	requiredValidationLayerNames := []string{}
	if vr.debug {
		core.LogInfo("Validation layers enabled. Enumerating...")
		requiredValidationLayerNames = []string{"VK_LAYER_KHRONOS_validation"}

		var availableLayerCount uint32
		if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, nil); res != vk.Success {
			err := fmt.Errorf("failed to enumerate instance layer properties")
			core.LogError(err.Error())
			return err
		}
		availableLayers := make([]vk.LayerProperties, availableLayerCount)
		if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, availableLayers); res != vk.Success {
			err := fmt.Errorf("failed to enumerate instance layer properties")
			core.LogError(err.Error())
			return err
		}

		for i := range requiredValidationLayerNames {
			found := false
			for j := range availableLayers {
				availableLayers[j].Deref()
				nameEnd := FindFirstZeroInByteArray(availableLayers[j].LayerName[:])
				if requiredValidationLayerNames[i] == string(availableLayers[j].LayerName[:nameEnd]) {
					found = true
					break
				}
			}
			if !found {
				err := fmt.Errorf("required validation layer is missing: %s", requiredValidationLayerNames[i])
				core.LogError(err.Error())
				return err
			}
		}
		core.LogInfo("All required validation layers are present.")
	}

	createInfo.EnabledLayerCount = uint32(len(requiredValidationLayerNames))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredValidationLayerNames)

	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &vr.context.Instance); res != vk.Success {
		err := fmt.Errorf("failed to create the Vulkan instance with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	if err := vk.InitInstance(vr.context.Instance); err != nil {
		core.LogError(err.Error())
		return err
	}
	core.LogInfo("Vulkan Instance created.")

	if vr.debug {
		core.LogDebug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
		}

		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
			core.LogError("vk.CreateDebugReportCallback failed with %s", err)
			return err
		}
		vr.context.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created.")
	}

	return nil
}

// createAttachments builds the G-buffer images sized to the current
// framebuffer.
func (vr *VulkanRenderer) createAttachments() error {
	width := vr.context.FramebufferWidth
	height := vr.context.FramebufferHeight

	colorUsage := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit) | vk.ImageUsageFlags(vk.ImageUsageInputAttachmentBit)
	deviceLocal := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)

	var err error
	vr.context.IntermediateAttachment, err = ImageCreate(
		vr.context, width, height, IntermediateFormat, vk.ImageTilingOptimal,
		colorUsage, deviceLocal, true, vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return err
	}
	vr.context.EmissiveAttachment, err = ImageCreate(
		vr.context, width, height, EmissiveFormat, vk.ImageTilingOptimal,
		colorUsage, deviceLocal, true, vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return err
	}
	vr.context.NormalAttachment, err = ImageCreate(
		vr.context, width, height, NormalFormat, vk.ImageTilingOptimal,
		colorUsage, deviceLocal, true, vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return err
	}
	vr.context.DepthAttachment, err = ImageCreate(
		vr.context, width, height, vr.context.Device.DepthFormat, vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)|vk.ImageUsageFlags(vk.ImageUsageInputAttachmentBit),
		deviceLocal, true, vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	return err
}

func (vr *VulkanRenderer) destroyAttachments() {
	for _, attachment := range []*VulkanImage{
		vr.context.IntermediateAttachment,
		vr.context.EmissiveAttachment,
		vr.context.NormalAttachment,
		vr.context.DepthAttachment,
	} {
		if attachment != nil {
			attachment.ImageDestroy(vr.context)
		}
	}
	vr.context.IntermediateAttachment = nil
	vr.context.EmissiveAttachment = nil
	vr.context.NormalAttachment = nil
	vr.context.DepthAttachment = nil
}

func (vr *VulkanRenderer) regenerateFramebuffers() error {
	for i := 0; i < int(vr.context.Swapchain.ImageCount); i++ {
		attachments := make([]vk.ImageView, AttachmentCount)
		attachments[AttachmentIntermediate] = vr.context.IntermediateAttachment.View
		attachments[AttachmentEmissive] = vr.context.EmissiveAttachment.View
		attachments[AttachmentNormal] = vr.context.NormalAttachment.View
		attachments[AttachmentDepth] = vr.context.DepthAttachment.View
		attachments[AttachmentSwapchain] = vr.context.Swapchain.Views[i]

		fb, err := FramebufferCreate(vr.context, vr.context.MainRenderpass, vr.context.FramebufferWidth, vr.context.FramebufferHeight, attachments)
		if err != nil {
			core.LogError("failed to create framebuffer %d", i)
			return err
		}
		vr.context.Swapchain.Framebuffers[i] = fb
	}
	return nil
}

// createFrameBuffersAndSets allocates the per-frame uniform and light
// buffers and points the per-frame descriptor sets at them.
func (vr *VulkanRenderer) createFrameBuffersAndSets() error {
	hostVisible := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) | vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)

	vr.context.UniformBuffers = make([]*VulkanBuffer, MaxFramesInFlight)
	vr.context.LightBuffers = make([]*VulkanBuffer, MaxFramesInFlight)
	for i := 0; i < MaxFramesInFlight; i++ {
		ubo, err := BufferCreate(vr.context, vk.DeviceSize(GlobalUBOSize), vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), hostVisible)
		if err != nil {
			return err
		}
		vr.context.UniformBuffers[i] = ubo
		vr.context.Descriptors.WriteGlobalBuffer(vr.context, i, ubo)

		lights, err := BufferCreate(vr.context, vk.DeviceSize(scene.GPULightsBufferSize), vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit), hostVisible)
		if err != nil {
			return err
		}
		vr.context.LightBuffers[i] = lights
		vr.context.Descriptors.WriteLightBuffer(vr.context, i, lights)
	}
	return nil
}

func (vr *VulkanRenderer) writeInputAttachments() {
	vr.context.Descriptors.WriteInputAttachments(vr.context, [4]vk.ImageView{
		vr.context.IntermediateAttachment.View,
		vr.context.EmissiveAttachment.View,
		vr.context.NormalAttachment.View,
		vr.context.DepthAttachment.View,
	})
}

func (vr *VulkanRenderer) createPipelines(shaders ShaderCatalog) error {
	baseVert, err := NewShaderStage(vr.context, "base.vert", shaders.BaseVertex, vk.ShaderStageVertexBit)
	if err != nil {
		return err
	}
	defer baseVert.Destroy(vr.context)
	baseFrag, err := NewShaderStage(vr.context, "base.frag", shaders.BaseFragment, vk.ShaderStageFragmentBit)
	if err != nil {
		return err
	}
	defer baseFrag.Destroy(vr.context)
	lightVert, err := NewShaderStage(vr.context, "light.vert", shaders.LightVertex, vk.ShaderStageVertexBit)
	if err != nil {
		return err
	}
	defer lightVert.Destroy(vr.context)
	lightFrag, err := NewShaderStage(vr.context, "light.frag", shaders.LightFragment, vk.ShaderStageFragmentBit)
	if err != nil {
		return err
	}
	defer lightFrag.Destroy(vr.context)
	transparencyFrag, err := NewShaderStage(vr.context, "transparency.frag", shaders.TransparencyFragment, vk.ShaderStageFragmentBit)
	if err != nil {
		return err
	}
	defer transparencyFrag.Destroy(vr.context)

	attributes := []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: scene.VertexOffsetPos},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: scene.VertexOffsetNormal},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: scene.VertexOffsetColor},
		{Location: 3, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: scene.VertexOffsetTexCoord},
	}
	layouts := vr.context.Descriptors.Layouts()

	geometry, err := NewGraphicsPipeline(vr.context, &VulkanPipelineConfig{
		Renderpass:           vr.context.MainRenderpass,
		Subpass:              SubpassGeometry,
		Stride:               scene.VertexSize,
		Attributes:           attributes,
		DescriptorSetLayouts: layouts,
		Stages:               []vk.PipelineShaderStageCreateInfo{baseVert.ShaderStageCreateInfo, baseFrag.ShaderStageCreateInfo},
		ColorAttachmentCount: 3,
		Blend:                BlendNone,
		DepthTest:            true,
		DepthWrite:           true,
		PushConstantSize:     PushConstantsSize,
	})
	if err != nil {
		return err
	}
	vr.context.GeometryPipeline = geometry

	lighting, err := NewGraphicsPipeline(vr.context, &VulkanPipelineConfig{
		Renderpass:           vr.context.MainRenderpass,
		Subpass:              SubpassLighting,
		DescriptorSetLayouts: layouts,
		Stages:               []vk.PipelineShaderStageCreateInfo{lightVert.ShaderStageCreateInfo, lightFrag.ShaderStageCreateInfo},
		ColorAttachmentCount: 1,
		Blend:                BlendAdditive,
		PushConstantSize:     PushConstantsSize,
	})
	if err != nil {
		return err
	}
	vr.context.LightingPipeline = lighting

	transparency, err := NewGraphicsPipeline(vr.context, &VulkanPipelineConfig{
		Renderpass:           vr.context.MainRenderpass,
		Subpass:              SubpassTransparency,
		Stride:               scene.VertexSize,
		Attributes:           attributes,
		DescriptorSetLayouts: layouts,
		Stages:               []vk.PipelineShaderStageCreateInfo{baseVert.ShaderStageCreateInfo, transparencyFrag.ShaderStageCreateInfo},
		ColorAttachmentCount: 1,
		Blend:                BlendAlpha,
		DepthTest:            true,
		DepthWrite:           false,
		PushConstantSize:     PushConstantsSize,
	})
	if err != nil {
		return err
	}
	vr.context.TransparencyPipeline = transparency

	return nil
}

func (vr *VulkanRenderer) createGeometryBuffers(vertexSize, indexSize vk.DeviceSize) error {
	deviceLocal := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)

	vertexBuffer, err := BufferCreate(
		vr.context,
		vertexSize,
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		deviceLocal)
	if err != nil {
		return err
	}
	vr.context.VertexBuffer = vertexBuffer

	indexBuffer, err := BufferCreate(
		vr.context,
		indexSize,
		vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit)|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		deviceLocal)
	if err != nil {
		return err
	}
	vr.context.IndexBuffer = indexBuffer
	return nil
}

func (vr *VulkanRenderer) createCommandBuffers() error {
	if len(vr.context.GraphicsCommandBuffers) > 0 {
		for i := range vr.context.GraphicsCommandBuffers {
			if vr.context.GraphicsCommandBuffers[i] != nil && vr.context.GraphicsCommandBuffers[i].Handle != nil {
				vr.context.GraphicsCommandBuffers[i].Free(vr.context, vr.context.Device.GraphicsCommandPool)
			}
		}
	}
	vr.context.GraphicsCommandBuffers = make([]*VulkanCommandBuffer, vr.context.Swapchain.ImageCount)
	for i := 0; i < int(vr.context.Swapchain.ImageCount); i++ {
		cb, err := NewVulkanCommandBuffer(vr.context, vr.context.Device.GraphicsCommandPool, true)
		if err != nil {
			return err
		}
		vr.context.GraphicsCommandBuffers[i] = cb
	}

	core.LogDebug("Vulkan command buffers created.")
	return nil
}

func (vr *VulkanRenderer) createSyncObjects() error {
	vr.context.ImageAvailableSemaphores = make([]vk.Semaphore, MaxFramesInFlight)
	vr.context.QueueCompleteSemaphores = make([]vk.Semaphore, MaxFramesInFlight)
	vr.context.InFlightFences = make([]*VulkanFence, MaxFramesInFlight)

	for i := 0; i < MaxFramesInFlight; i++ {
		semaphoreCreateInfo := vk.SemaphoreCreateInfo{
			SType: vk.StructureTypeSemaphoreCreateInfo,
		}

		if res := vk.CreateSemaphore(vr.context.Device.LogicalDevice, &semaphoreCreateInfo, vr.context.Allocator, &vr.context.ImageAvailableSemaphores[i]); res != vk.Success {
			err := fmt.Errorf("failed to create semaphore on image available")
			core.LogError(err.Error())
			return err
		}
		if res := vk.CreateSemaphore(vr.context.Device.LogicalDevice, &semaphoreCreateInfo, vr.context.Allocator, &vr.context.QueueCompleteSemaphores[i]); res != vk.Success {
			err := fmt.Errorf("failed to create semaphore on queue complete")
			core.LogError(err.Error())
			return err
		}

		// Created signaled so the first frame does not wait forever on a
		// fence no submission will ever signal.
		f, err := NewFence(vr.context, true)
		if err != nil {
			return err
		}
		vr.context.InFlightFences[i] = f
	}

	vr.context.ImagesInFlight = make([]*VulkanFence, vr.context.Swapchain.ImageCount)
	return nil
}

// UploadGeometry replaces the shared vertex and index buffers with the
// aggregated scene meshes. All in-flight frames are drained first so no
// submitted command buffer still references the old buffers.
func (vr *VulkanRenderer) UploadGeometry(vertices []scene.Vertex, indices []uint32) error {
	for _, fence := range vr.context.InFlightFences {
		fence.Wait(vr.context, math.MaxUint64)
	}

	vr.indexCount = uint32(len(indices))
	if len(vertices) == 0 || len(indices) == 0 {
		return nil
	}

	vertexBytes := vk.DeviceSize(len(vertices)) * vk.DeviceSize(scene.VertexSize)
	indexBytes := vk.DeviceSize(len(indices)) * 4

	if vertexBytes > vr.context.VertexBuffer.TotalSize || indexBytes > vr.context.IndexBuffer.TotalSize {
		vr.context.VertexBuffer.Destroy(vr.context)
		vr.context.IndexBuffer.Destroy(vr.context)
		newVertexSize := max(vertexBytes, initialBufferSize)
		newIndexSize := max(indexBytes, initialBufferSize)
		if err := vr.createGeometryBuffers(newVertexSize, newIndexSize); err != nil {
			return err
		}
	}

	if err := uploadViaStaging(vr.context, vr.context.VertexBuffer, unsafe.Pointer(&vertices[0]), vertexBytes); err != nil {
		return err
	}
	return uploadViaStaging(vr.context, vr.context.IndexBuffer, unsafe.Pointer(&indices[0]), indexBytes)
}

// UploadTexture pushes RGBA pixels into a fresh bindless slot.
func (vr *VulkanRenderer) UploadTexture(name string, pixels []byte, width, height uint32) (uint32, error) {
	return vr.Textures.Upload(vr.context, name, pixels, width, height)
}

// ReleaseTexture frees a texture slot for reuse.
func (vr *VulkanRenderer) ReleaseTexture(slot uint32) {
	vr.Textures.Release(vr.context, slot)
}

func (vr *VulkanRenderer) Resized(width, height uint32) {
	vr.cachedFramebufferWidth = width
	vr.cachedFramebufferHeight = height
	vr.context.FramebufferSizeGeneration++

	core.LogInfo("Vulkan renderer resized: w/h/gen: %d/%d/%d", width, height, vr.context.FramebufferSizeGeneration)
}

// DrawFrame renders one frame from the packet. It returns
// core.ErrSwapchainBooting when the frame was dropped for a swapchain
// rebuild and ErrFrameThrottled when ahead of the frame budget.
func (vr *VulkanRenderer) DrawFrame(packet *FramePacket) error {
	device := vr.context.Device

	if vr.context.RecreatingSwapchain {
		if result := vk.DeviceWaitIdle(device.LogicalDevice); !VulkanResultIsSuccess(result) {
			err := fmt.Errorf("vkDeviceWaitIdle failed while recreating swapchain: %s", VulkanResultString(result))
			core.LogError(err.Error())
			return err
		}
		return core.ErrSwapchainBooting
	}

	if vr.context.FramebufferSizeGeneration != vr.context.FramebufferSizeLastGeneration {
		if result := vk.DeviceWaitIdle(device.LogicalDevice); !VulkanResultIsSuccess(result) {
			err := fmt.Errorf("vkDeviceWaitIdle failed before swapchain recreation: %s", VulkanResultString(result))
			core.LogError(err.Error())
			return err
		}
		if !vr.recreateSwapchain() {
			err := fmt.Errorf("failed to recreate the swapchain")
			core.LogError(err.Error())
			return err
		}
		core.LogInfo("Resized, booting.")
		return core.ErrSwapchainBooting
	}

	// The fence is the only hard block per frame.
	if !vr.context.InFlightFences[vr.context.CurrentFrame].Wait(vr.context, math.MaxUint64) {
		err := fmt.Errorf("in-flight fence wait failure")
		core.LogWarn(err.Error())
		return err
	}

	// Hold the target frame rate.
	now := hrtime.Now()
	if now-vr.lastFrameStamp < vr.frameBudget {
		return ErrFrameThrottled
	}
	vr.lastFrameStamp = now

	imageIndex, err := vr.context.Swapchain.SwapchainAcquireNextImageIndex(
		vr.context, math.MaxUint64, vr.context.ImageAvailableSemaphores[vr.context.CurrentFrame], vk.NullFence)
	if err != nil {
		if errors.Is(err, core.ErrSwapchainBooting) {
			vr.recreateSwapchain()
			return core.ErrSwapchainBooting
		}
		return err
	}
	vr.context.ImageIndex = imageIndex

	if vr.context.ImagesInFlight[imageIndex] != nil {
		vr.context.ImagesInFlight[imageIndex].Wait(vr.context, math.MaxUint64)
	}
	vr.context.ImagesInFlight[imageIndex] = vr.context.InFlightFences[vr.context.CurrentFrame]

	if err := vr.context.InFlightFences[vr.context.CurrentFrame].Reset(vr.context); err != nil {
		return err
	}

	vr.updateUniformBuffer(packet)
	vr.updateLightBuffer(packet)

	if err := vr.recordCommandBuffer(packet); err != nil {
		return err
	}

	commandBuffer := vr.context.GraphicsCommandBuffers[imageIndex]
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{vr.context.QueueCompleteSemaphores[vr.context.CurrentFrame]},
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{vr.context.ImageAvailableSemaphores[vr.context.CurrentFrame]},
		// Color writes wait on the acquired image, earlier stages may run.
		PWaitDstStageMask: []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
	}

	if err := lockPool.SafeCall(QueueManagement, func() error {
		if result := vk.QueueSubmit(device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vr.context.InFlightFences[vr.context.CurrentFrame].Handle); result != vk.Success {
			err := fmt.Errorf("vkQueueSubmit failed with %s", VulkanResultString(result))
			core.LogError(err.Error())
			return err
		}
		return nil
	}); err != nil {
		return err
	}
	commandBuffer.UpdateSubmitted()

	err = vr.context.Swapchain.SwapchainPresent(
		vr.context,
		device.PresentQueue,
		vr.context.QueueCompleteSemaphores[vr.context.CurrentFrame],
		imageIndex)
	if err != nil {
		if errors.Is(err, core.ErrSwapchainBooting) {
			vr.recreateSwapchain()
		} else {
			return err
		}
	}

	vr.context.CurrentFrame = (vr.context.CurrentFrame + 1) % MaxFramesInFlight
	vr.FrameNumber++
	return nil
}

func (vr *VulkanRenderer) updateUniformBuffer(packet *FramePacket) {
	aspect := float32(vr.context.FramebufferWidth) / float32(vr.context.FramebufferHeight)
	fov := packet.FieldOfViewDeg
	if fov <= 0 {
		fov = 45
	}
	ubo := GlobalUBO{
		View:       packet.View,
		Projection: emath.PerspectiveInfiniteReversed(fov, aspect, 0.01),
	}
	vr.context.UniformBuffers[vr.context.CurrentFrame].LoadData(
		vr.context, 0, vk.DeviceSize(GlobalUBOSize), unsafe.Pointer(&ubo))
}

func (vr *VulkanRenderer) updateLightBuffer(packet *FramePacket) {
	lights := packet.Lights
	vr.context.LightBuffers[vr.context.CurrentFrame].LoadData(
		vr.context, 0, vk.DeviceSize(scene.GPULightsBufferSize), unsafe.Pointer(&lights))
}

func (vr *VulkanRenderer) recordCommandBuffer(packet *FramePacket) error {
	commandBuffer := vr.context.GraphicsCommandBuffers[vr.context.ImageIndex]
	commandBuffer.Reset()
	if err := commandBuffer.Begin(false, false, false); err != nil {
		return err
	}

	// Flip the viewport so clip space matches the right-handed scene.
	viewport := vk.Viewport{
		X:        0.0,
		Y:        float32(vr.context.FramebufferHeight),
		Width:    float32(vr.context.FramebufferWidth),
		Height:   -float32(vr.context.FramebufferHeight),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vk.Extent2D{
			Width:  vr.context.FramebufferWidth,
			Height: vr.context.FramebufferHeight,
		},
	}

	vk.CmdSetViewport(commandBuffer.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(commandBuffer.Handle, 0, 1, []vk.Rect2D{scissor})

	cullMode := vk.CullModeFlags(vk.CullModeNone)
	if packet.CullingEnabled {
		cullMode = vk.CullModeFlags(vk.CullModeBackBit)
	}
	vk.CmdSetCullMode(commandBuffer.Handle, cullMode)

	polygonMode := vk.PolygonModeFill
	if packet.Wireframe {
		polygonMode = vk.PolygonModeLine
	}
	vk.CmdSetPolygonMode(commandBuffer.Handle, polygonMode)

	vr.context.MainRenderpass.W = vr.context.FramebufferWidth
	vr.context.MainRenderpass.H = vr.context.FramebufferHeight
	vr.context.MainRenderpass.RenderpassBegin(commandBuffer, vr.context.Swapchain.Framebuffers[vr.context.ImageIndex].Handle)

	frame := int(vr.context.CurrentFrame)
	descriptorSets := []vk.DescriptorSet{
		vr.context.Descriptors.GlobalSets[frame],
		vr.context.Descriptors.TextureSet,
		vr.context.Descriptors.LightSets[frame],
		vr.context.Descriptors.InputSet,
	}

	// Subpass 0: geometry.
	vr.context.GeometryPipeline.Bind(commandBuffer, vk.PipelineBindPointGraphics)
	// All three layouts are compatible, binding once is enough.
	vk.CmdBindDescriptorSets(
		commandBuffer.Handle,
		vk.PipelineBindPointGraphics,
		vr.context.GeometryPipeline.PipelineLayout,
		0, uint32(len(descriptorSets)), descriptorSets,
		0, nil)

	if vr.indexCount > 0 {
		vk.CmdBindVertexBuffers(commandBuffer.Handle, 0, 1, []vk.Buffer{vr.context.VertexBuffer.Handle}, []vk.DeviceSize{0})
		vk.CmdBindIndexBuffer(commandBuffer.Handle, vr.context.IndexBuffer.Handle, 0, vk.IndexTypeUint32)
	}

	layout := vr.context.GeometryPipeline.PipelineLayout
	for _, draw := range packet.OpaqueDraws {
		vr.pushDrawConstants(commandBuffer, layout, draw, packet.DebugFlags)
		vk.CmdDrawIndexed(commandBuffer.Handle, draw.IndexCount, 1, draw.FirstIndex, 0, 0)
	}

	// Subpass 1: lighting, one full-screen triangle per light. With no
	// lights a single draw still applies the ambient term.
	vr.context.MainRenderpass.NextSubpass(commandBuffer)
	vr.context.LightingPipeline.Bind(commandBuffer, vk.PipelineBindPointGraphics)

	lightDraws := packet.Lights.Header.LightCount
	if lightDraws == 0 {
		lightDraws = 1
	}
	for light := uint32(0); light < lightDraws; light++ {
		pc := PushConstants{
			Model:        mgl32.Ident4(),
			TextureIndex: light,
			DebugFlags:   packet.DebugFlags,
		}
		vk.CmdPushConstants(
			commandBuffer.Handle,
			vr.context.LightingPipeline.PipelineLayout,
			vk.ShaderStageFlags(vk.ShaderStageVertexBit)|vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
			0, PushConstantsSize, pc.Pointer())
		vk.CmdDraw(commandBuffer.Handle, 3, 1, 0, 0)
	}

	// Subpass 2: transparency, blended over the lit result.
	vr.context.MainRenderpass.NextSubpass(commandBuffer)
	vr.context.TransparencyPipeline.Bind(commandBuffer, vk.PipelineBindPointGraphics)

	layout = vr.context.TransparencyPipeline.PipelineLayout
	for _, draw := range packet.TransparentDraws {
		vr.pushDrawConstants(commandBuffer, layout, draw, packet.DebugFlags)
		vk.CmdDrawIndexed(commandBuffer.Handle, draw.IndexCount, 1, draw.FirstIndex, 0, 0)
	}

	vr.context.MainRenderpass.RenderpassEnd(commandBuffer)
	return commandBuffer.End()
}

func (vr *VulkanRenderer) pushDrawConstants(commandBuffer *VulkanCommandBuffer, layout vk.PipelineLayout, draw scene.Draw, debugFlags uint32) {
	pc := PushConstants{
		Model:         draw.Node.WorldMatrix(),
		TextureIndex:  draw.Node.TextureIndex,
		NormalIndex:   draw.Node.NormalIndex,
		EmissiveIndex: draw.Node.EmissiveIndex,
		AlphaCutoff:   draw.Node.AlphaCutoff,
		DebugFlags:    debugFlags,
	}
	vk.CmdPushConstants(
		commandBuffer.Handle,
		layout,
		vk.ShaderStageFlags(vk.ShaderStageVertexBit)|vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		0, PushConstantsSize, pc.Pointer())
}

func (vr *VulkanRenderer) recreateSwapchain() bool {
	if vr.context.RecreatingSwapchain {
		core.LogDebug("recreateSwapchain called when already recreating. Booting.")
		return false
	}

	width := vr.cachedFramebufferWidth
	height := vr.cachedFramebufferHeight
	if width == 0 || height == 0 {
		width = vr.context.FramebufferWidth
		height = vr.context.FramebufferHeight
	}
	if width == 0 || height == 0 {
		core.LogDebug("recreateSwapchain called when window is < 1 in a dimension. Booting.")
		return false
	}

	vr.context.RecreatingSwapchain = true

	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)

	for i := range vr.context.ImagesInFlight {
		vr.context.ImagesInFlight[i] = nil
	}

	DeviceQuerySwapchainSupport(vr.context.Device.PhysicalDevice, vr.context.Surface, vr.context.Device.SwapchainSupport)
	DeviceDetectDepthFormat(vr.context.Device)

	for i := 0; i < int(vr.context.Swapchain.ImageCount); i++ {
		vr.context.Swapchain.Framebuffers[i].Destroy(vr.context)
	}
	vr.destroyAttachments()
	vr.context.Swapchain.SwapchainDestroy(vr.context)

	sc, err := SwapchainCreate(vr.context, width, height)
	if err != nil {
		vr.context.RecreatingSwapchain = false
		return false
	}
	vr.context.Swapchain = sc
	vr.context.FramebufferWidth = sc.Extent.Width
	vr.context.FramebufferHeight = sc.Extent.Height
	vr.cachedFramebufferWidth = 0
	vr.cachedFramebufferHeight = 0

	if err := vr.createAttachments(); err != nil {
		vr.context.RecreatingSwapchain = false
		return false
	}

	vr.context.MainRenderpass.W = vr.context.FramebufferWidth
	vr.context.MainRenderpass.H = vr.context.FramebufferHeight

	vr.context.Swapchain.Framebuffers = make([]*VulkanFramebuffer, vr.context.Swapchain.ImageCount)
	if err := vr.regenerateFramebuffers(); err != nil {
		vr.context.RecreatingSwapchain = false
		return false
	}
	vr.writeInputAttachments()

	if err := vr.createCommandBuffers(); err != nil {
		vr.context.RecreatingSwapchain = false
		return false
	}
	vr.context.ImagesInFlight = make([]*VulkanFence, vr.context.Swapchain.ImageCount)

	vr.context.FramebufferSizeLastGeneration = vr.context.FramebufferSizeGeneration
	vr.context.RecreatingSwapchain = false
	return true
}

func (vr *VulkanRenderer) Shutdown() error {
	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)

	// Destroy in the opposite order of creation.
	if vr.Textures != nil {
		vr.Textures.Destroy(vr.context)
		vr.Textures = nil
	}

	for i := 0; i < MaxFramesInFlight; i++ {
		if vr.context.ImageAvailableSemaphores[i] != vk.NullSemaphore {
			vk.DestroySemaphore(
				vr.context.Device.LogicalDevice,
				vr.context.ImageAvailableSemaphores[i],
				vr.context.Allocator)
			vr.context.ImageAvailableSemaphores[i] = vk.NullSemaphore
		}
		if vr.context.QueueCompleteSemaphores[i] != vk.NullSemaphore {
			vk.DestroySemaphore(
				vr.context.Device.LogicalDevice,
				vr.context.QueueCompleteSemaphores[i],
				vr.context.Allocator)
			vr.context.QueueCompleteSemaphores[i] = vk.NullSemaphore
		}
		vr.context.InFlightFences[i].Destroy(vr.context)
	}
	vr.context.ImageAvailableSemaphores = nil
	vr.context.QueueCompleteSemaphores = nil
	vr.context.InFlightFences = nil
	vr.context.ImagesInFlight = nil

	for i := range vr.context.GraphicsCommandBuffers {
		if vr.context.GraphicsCommandBuffers[i].Handle != nil {
			vr.context.GraphicsCommandBuffers[i].Free(vr.context, vr.context.Device.GraphicsCommandPool)
		}
	}
	vr.context.GraphicsCommandBuffers = nil

	vr.context.VertexBuffer.Destroy(vr.context)
	vr.context.IndexBuffer.Destroy(vr.context)
	for i := 0; i < MaxFramesInFlight; i++ {
		vr.context.UniformBuffers[i].Destroy(vr.context)
		vr.context.LightBuffers[i].Destroy(vr.context)
	}
	vr.context.UniformBuffers = nil
	vr.context.LightBuffers = nil

	vr.context.GeometryPipeline.Destroy(vr.context)
	vr.context.LightingPipeline.Destroy(vr.context)
	vr.context.TransparencyPipeline.Destroy(vr.context)

	vr.context.Descriptors.Destroy(vr.context)

	for i := 0; i < int(vr.context.Swapchain.ImageCount); i++ {
		vr.context.Swapchain.Framebuffers[i].Destroy(vr.context)
	}
	vr.context.MainRenderpass.RenderpassDestroy(vr.context)
	vr.destroyAttachments()
	vr.context.Swapchain.SwapchainDestroy(vr.context)

	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(vr.context)

	core.LogDebug("Destroying Vulkan surface...")
	if vr.context.Surface != vk.NullSurface {
		vk.DestroySurface(vr.context.Instance, vr.context.Surface, vr.context.Allocator)
		vr.context.Surface = vk.NullSurface
	}

	if vr.debug {
		core.LogDebug("Destroying Vulkan debugger...")
		if vr.context.debugMessenger != vk.NullDebugReportCallback {
			vk.DestroyDebugReportCallback(vr.context.Instance, vr.context.debugMessenger, vr.context.Allocator)
		}
	}

	core.LogDebug("Destroying Vulkan instance...")
	vk.DestroyInstance(vr.context.Instance, vr.context.Allocator)

	return nil
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
