package vulkan

import (
	"math"
	"testing"

	vk "github.com/goki/vulkan"
)

func TestChooseSurfaceFormatPrefersSrgb(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	chosen := chooseSurfaceFormat(formats)
	if chosen.Format != vk.FormatB8g8r8a8Srgb {
		t.Fatalf("format = %v, want BGRA sRGB", chosen.Format)
	}
}

func TestChooseSurfaceFormatFallsBackToFirst(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR16g16b16a16Sfloat, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	chosen := chooseSurfaceFormat(formats)
	if chosen.Format != vk.FormatR16g16b16a16Sfloat {
		t.Fatalf("format = %v, want the first reported format", chosen.Format)
	}
}

func TestChoosePresentMode(t *testing.T) {
	withMailbox := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox, vk.PresentModeImmediate}
	if mode := choosePresentMode(withMailbox); mode != vk.PresentModeMailbox {
		t.Fatalf("mode = %v, want mailbox", mode)
	}

	withoutMailbox := []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifoRelaxed}
	if mode := choosePresentMode(withoutMailbox); mode != vk.PresentModeFifo {
		t.Fatalf("mode = %v, want fifo fallback", mode)
	}
}

func TestChooseExtentUsesCurrentExtent(t *testing.T) {
	capabilities := vk.SurfaceCapabilities{
		CurrentExtent: vk.Extent2D{Width: 1280, Height: 720},
	}
	extent := chooseExtent(capabilities, 1920, 1080)
	if extent.Width != 1280 || extent.Height != 720 {
		t.Fatalf("extent = %dx%d, want 1280x720", extent.Width, extent.Height)
	}
}

func TestChooseExtentClampsWhenUndefined(t *testing.T) {
	capabilities := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 64, Height: 64},
		MaxImageExtent: vk.Extent2D{Width: 2048, Height: 2048},
	}

	extent := chooseExtent(capabilities, 4096, 32)
	if extent.Width != 2048 {
		t.Fatalf("width = %d, want clamped to 2048", extent.Width)
	}
	if extent.Height != 64 {
		t.Fatalf("height = %d, want clamped to 64", extent.Height)
	}
}

func TestChooseImageCount(t *testing.T) {
	uncapped := vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 0}
	if count := chooseImageCount(uncapped); count != 3 {
		t.Fatalf("count = %d, want min+1", count)
	}

	capped := vk.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 3}
	if count := chooseImageCount(capped); count != 3 {
		t.Fatalf("count = %d, want capped at 3", count)
	}
}
