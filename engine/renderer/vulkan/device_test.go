package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
)

// The pipelines declare dynamic cull and polygon mode, so the device must
// request the extended-dynamic-state extensions alongside the swapchain.
func TestRequiredDeviceExtensions(t *testing.T) {
	want := []string{
		vk.KhrSwapchainExtensionName,
		"VK_EXT_extended_dynamic_state",
		"VK_EXT_extended_dynamic_state3",
	}
	for _, name := range want {
		found := false
		for _, ext := range requiredDeviceExtensions {
			if ext == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("required device extension %q is missing", name)
		}
	}
}
