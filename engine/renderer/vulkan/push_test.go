package vulkan

import (
	"testing"
	"unsafe"
)

func TestPushConstantsFitGuaranteedRange(t *testing.T) {
	// Every implementation guarantees at least 128 bytes of push constants.
	if PushConstantsSize > 128 {
		t.Fatalf("push constants are %d bytes, exceeding the guaranteed 128", PushConstantsSize)
	}
}

func TestPushConstantsLayout(t *testing.T) {
	var pc PushConstants

	if got := unsafe.Offsetof(pc.Model); got != 0 {
		t.Fatalf("Model offset = %d, want 0", got)
	}
	if got := unsafe.Offsetof(pc.TextureIndex); got != 64 {
		t.Fatalf("TextureIndex offset = %d, want 64", got)
	}
	if got := unsafe.Offsetof(pc.NormalIndex); got != 68 {
		t.Fatalf("NormalIndex offset = %d, want 68", got)
	}
	if got := unsafe.Offsetof(pc.EmissiveIndex); got != 72 {
		t.Fatalf("EmissiveIndex offset = %d, want 72", got)
	}
	if got := unsafe.Offsetof(pc.AlphaCutoff); got != 76 {
		t.Fatalf("AlphaCutoff offset = %d, want 76", got)
	}
	if got := unsafe.Offsetof(pc.DebugFlags); got != 80 {
		t.Fatalf("DebugFlags offset = %d, want 80", got)
	}
	if PushConstantsSize != 84 {
		t.Fatalf("size = %d, want 84", PushConstantsSize)
	}
}

func TestDebugFlagsAreDistinctBits(t *testing.T) {
	flags := []uint32{DebugFlagNormals, DebugFlagDepth, DebugFlagWireframe, DebugFlagUnlit}
	seen := uint32(0)
	for _, flag := range flags {
		if flag&seen != 0 {
			t.Fatalf("debug flag %#x overlaps another flag", flag)
		}
		seen |= flag
	}
}
