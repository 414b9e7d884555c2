package vulkan

import "testing"

func TestRepackUint32(t *testing.T) {
	// SPIR-V magic number in little-endian byte order.
	words := repackUint32([]byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x01, 0x00, 0x00})
	if len(words) != 2 {
		t.Fatalf("len = %d, want 2", len(words))
	}
	if words[0] != 0x07230203 {
		t.Fatalf("words[0] = %#x, want SPIR-V magic", words[0])
	}
	if words[1] != 0x00000100 {
		t.Fatalf("words[1] = %#x", words[1])
	}
}

func TestFindFirstZeroInByteArray(t *testing.T) {
	if got := FindFirstZeroInByteArray([]byte("VK_LAYER\x00junk")); got != 8 {
		t.Fatalf("index = %d, want 8", got)
	}
	if got := FindFirstZeroInByteArray([]byte{1, 2, 3}); got != 3 {
		t.Fatalf("index = %d, want the full length when no terminator exists", got)
	}
	if got := FindFirstZeroInByteArray([]byte{0, 'a'}); got != 0 {
		t.Fatalf("index = %d, want 0 for an empty string", got)
	}
}
