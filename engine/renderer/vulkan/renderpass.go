package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/voxelforge/lumen/engine/core"
)

// Attachment indices shared by the render pass, framebuffers and the
// lighting input-attachment descriptor set.
const (
	AttachmentIntermediate = 0
	AttachmentEmissive     = 1
	AttachmentNormal       = 2
	AttachmentDepth        = 3
	AttachmentSwapchain    = 4
	AttachmentCount        = 5
)

// Subpass indices of the deferred pipeline.
const (
	SubpassGeometry     = 0
	SubpassLighting     = 1
	SubpassTransparency = 2
)

// Offscreen attachment formats. The geometry subpass writes albedo and
// emissive as 8-bit UNORM and world normals as 16-bit float so lighting
// keeps precision for directions.
const (
	IntermediateFormat = vk.FormatR8g8b8a8Unorm
	EmissiveFormat     = vk.FormatR8g8b8a8Unorm
	NormalFormat       = vk.FormatR16g16b16a16Sfloat
)

type VulkanRenderpass struct {
	Handle vk.RenderPass
	W, H   uint32
}

// RenderpassCreate builds the single deferred render pass: a geometry
// subpass filling the G-buffer, a lighting subpass reading it as input
// attachments, and a transparency subpass blending on top of the lit
// result.
func RenderpassCreate(context *VulkanContext, width, height uint32) (*VulkanRenderpass, error) {
	outRenderpass := &VulkanRenderpass{
		W: width,
		H: height,
	}

	attachments := make([]vk.AttachmentDescription, AttachmentCount)

	colorDescription := func(format vk.Format, finalLayout vk.ImageLayout) vk.AttachmentDescription {
		return vk.AttachmentDescription{
			Format:         format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    finalLayout,
		}
	}

	attachments[AttachmentIntermediate] = colorDescription(IntermediateFormat, vk.ImageLayoutShaderReadOnlyOptimal)
	attachments[AttachmentEmissive] = colorDescription(EmissiveFormat, vk.ImageLayoutShaderReadOnlyOptimal)
	attachments[AttachmentNormal] = colorDescription(NormalFormat, vk.ImageLayoutShaderReadOnlyOptimal)

	attachments[AttachmentDepth] = vk.AttachmentDescription{
		Format:         context.Device.DepthFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpClear,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutDepthStencilReadOnlyOptimal,
	}

	attachments[AttachmentSwapchain] = colorDescription(context.Swapchain.ImageFormat.Format, vk.ImageLayoutPresentSrc)

	// Subpass 0: geometry. Writes albedo, emissive and normals with depth.
	geometryColorRefs := []vk.AttachmentReference{
		{Attachment: AttachmentIntermediate, Layout: vk.ImageLayoutColorAttachmentOptimal},
		{Attachment: AttachmentEmissive, Layout: vk.ImageLayoutColorAttachmentOptimal},
		{Attachment: AttachmentNormal, Layout: vk.ImageLayoutColorAttachmentOptimal},
	}
	geometryDepthRef := vk.AttachmentReference{
		Attachment: AttachmentDepth,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	// Subpass 1: lighting. Reads the whole G-buffer as input attachments
	// and accumulates into the swapchain image, one draw per light.
	lightingInputRefs := []vk.AttachmentReference{
		{Attachment: AttachmentIntermediate, Layout: vk.ImageLayoutShaderReadOnlyOptimal},
		{Attachment: AttachmentEmissive, Layout: vk.ImageLayoutShaderReadOnlyOptimal},
		{Attachment: AttachmentNormal, Layout: vk.ImageLayoutShaderReadOnlyOptimal},
		{Attachment: AttachmentDepth, Layout: vk.ImageLayoutDepthStencilReadOnlyOptimal},
	}
	lightingColorRefs := []vk.AttachmentReference{
		{Attachment: AttachmentSwapchain, Layout: vk.ImageLayoutColorAttachmentOptimal},
	}

	// Subpass 2: transparency. Depth tests against the opaque scene but
	// does not write depth.
	transparencyColorRefs := []vk.AttachmentReference{
		{Attachment: AttachmentSwapchain, Layout: vk.ImageLayoutColorAttachmentOptimal},
	}
	transparencyDepthRef := vk.AttachmentReference{
		Attachment: AttachmentDepth,
		Layout:     vk.ImageLayoutDepthStencilReadOnlyOptimal,
	}

	subpasses := []vk.SubpassDescription{
		{
			PipelineBindPoint:       vk.PipelineBindPointGraphics,
			ColorAttachmentCount:    uint32(len(geometryColorRefs)),
			PColorAttachments:       geometryColorRefs,
			PDepthStencilAttachment: &geometryDepthRef,
		},
		{
			PipelineBindPoint:    vk.PipelineBindPointGraphics,
			InputAttachmentCount: uint32(len(lightingInputRefs)),
			PInputAttachments:    lightingInputRefs,
			ColorAttachmentCount: uint32(len(lightingColorRefs)),
			PColorAttachments:    lightingColorRefs,
		},
		{
			PipelineBindPoint:       vk.PipelineBindPointGraphics,
			ColorAttachmentCount:    uint32(len(transparencyColorRefs)),
			PColorAttachments:       transparencyColorRefs,
			PDepthStencilAttachment: &transparencyDepthRef,
		},
	}

	dependencies := []vk.SubpassDependency{
		{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    SubpassGeometry,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) | vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
			SrcAccessMask: 0,
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) | vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
			DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit) | vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
		},
		{
			SrcSubpass:      SubpassGeometry,
			DstSubpass:      SubpassLighting,
			SrcStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) | vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit),
			SrcAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentWriteBit) | vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
			DstStageMask:    vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			DstAccessMask:   vk.AccessFlags(vk.AccessInputAttachmentReadBit),
			DependencyFlags: vk.DependencyFlags(vk.DependencyByRegionBit),
		},
		{
			SrcSubpass:      SubpassLighting,
			DstSubpass:      SubpassTransparency,
			SrcStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			SrcAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
			DstStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) | vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
			DstAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit) | vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit),
			DependencyFlags: vk.DependencyFlags(vk.DependencyByRegionBit),
		},
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}

	var pRenderPass vk.RenderPass
	if res := vk.CreateRenderPass(context.Device.LogicalDevice, &renderpassCreateInfo, context.Allocator, &pRenderPass); res != vk.Success {
		err := fmt.Errorf("failed to create render pass with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	outRenderpass.Handle = pRenderPass

	core.LogInfo("Render pass created with %d subpasses.", len(subpasses))
	return outRenderpass, nil
}

func (vr *VulkanRenderpass) RenderpassDestroy(context *VulkanContext) {
	if vr.Handle != nil {
		vk.DestroyRenderPass(context.Device.LogicalDevice, vr.Handle, context.Allocator)
		vr.Handle = nil
	}
}

func (vr *VulkanRenderpass) RenderpassBegin(commandBuffer *VulkanCommandBuffer, frameBuffer vk.Framebuffer) {
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  vr.Handle,
		Framebuffer: frameBuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: vr.W, Height: vr.H},
		},
	}

	clearValues := make([]vk.ClearValue, AttachmentCount)
	black := []float32{0, 0, 0, 1}
	clearValues[AttachmentIntermediate].SetColor(black)
	clearValues[AttachmentEmissive].SetColor(black)
	clearValues[AttachmentNormal].SetColor(black)
	// Reversed depth clears to zero, the far plane.
	clearValues[AttachmentDepth].SetDepthStencil(0.0, 0)
	clearValues[AttachmentSwapchain].SetColor(black)

	beginInfo.ClearValueCount = uint32(len(clearValues))
	beginInfo.PClearValues = clearValues

	vk.CmdBeginRenderPass(commandBuffer.Handle, &beginInfo, vk.SubpassContentsInline)
	commandBuffer.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func (vr *VulkanRenderpass) NextSubpass(commandBuffer *VulkanCommandBuffer) {
	vk.CmdNextSubpass(commandBuffer.Handle, vk.SubpassContentsInline)
}

func (vr *VulkanRenderpass) RenderpassEnd(commandBuffer *VulkanCommandBuffer) {
	vk.CmdEndRenderPass(commandBuffer.Handle)
	commandBuffer.State = COMMAND_BUFFER_STATE_RECORDING
}
