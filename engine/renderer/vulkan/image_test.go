package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestTransitionMasksSupportedPairs(t *testing.T) {
	pairs := []struct {
		old, new vk.ImageLayout
	}{
		{vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal},
		{vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal},
		{vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal},
		{vk.ImageLayoutUndefined, vk.ImageLayoutColorAttachmentOptimal},
	}
	for _, pair := range pairs {
		if _, _, _, _, err := transitionMasks(pair.old, pair.new); err != nil {
			t.Fatalf("transition %v -> %v rejected: %v", pair.old, pair.new, err)
		}
	}
}

func TestTransitionMasksRejectsUnknownPair(t *testing.T) {
	if _, _, _, _, err := transitionMasks(vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutTransferDstOptimal); err == nil {
		t.Fatal("unsupported layout transition must error")
	}
}

func TestTransferDstTransitionStages(t *testing.T) {
	srcAccess, dstAccess, srcStage, dstStage, err := transitionMasks(
		vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	if err != nil {
		t.Fatal(err)
	}
	if srcAccess != 0 {
		t.Fatalf("srcAccess = %v, want none from undefined", srcAccess)
	}
	if dstAccess != vk.AccessFlags(vk.AccessTransferWriteBit) {
		t.Fatalf("dstAccess = %v, want transfer write", dstAccess)
	}
	if srcStage != vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit) {
		t.Fatalf("srcStage = %v, want top of pipe", srcStage)
	}
	if dstStage != vk.PipelineStageFlags(vk.PipelineStageTransferBit) {
		t.Fatalf("dstStage = %v, want transfer", dstStage)
	}
}
