package assets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetermineAssetType(t *testing.T) {
	cases := []struct {
		path string
		want ResourceType
	}{
		{"shaders/base.vert.spv", ResourceTypeShader},
		{"textures/crate.png", ResourceTypeImage},
		{"textures/crate.jpg", ResourceTypeImage},
		{"textures/crate.bmp", ResourceTypeImage},
		{"models/car.obj", ResourceTypeModel},
		{"models/car.mtl", ResourceTypeModel},
		{"README.md", ResourceTypeNone},
	}
	for _, c := range cases {
		if got := determineAssetType(c.path); got != c.want {
			t.Fatalf("determineAssetType(%q) = %d, want %d", c.path, got, c.want)
		}
	}
}

func TestInitializeIndexesAssets(t *testing.T) {
	dir := t.TempDir()
	shaderDir := filepath.Join(dir, "shaders")
	if err := os.MkdirAll(shaderDir, 0o755); err != nil {
		t.Fatal(err)
	}
	spv := []byte{0x03, 0x02, 0x23, 0x07}
	if err := os.WriteFile(filepath.Join(shaderDir, "base.vert.spv"), spv, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()

	if err := am.Initialize(dir); err != nil {
		t.Fatal(err)
	}
	if am.Count() != 1 {
		t.Fatalf("indexed %d assets, want 1", am.Count())
	}

	code, err := am.LoadShader("base.vert")
	if err != nil {
		t.Fatal(err)
	}
	if len(code) != 4 {
		t.Fatalf("shader bytes = %d, want 4", len(code))
	}
}

func TestLoadShaderRejectsTruncatedSpirv(t *testing.T) {
	dir := t.TempDir()
	shaderDir := filepath.Join(dir, "shaders")
	if err := os.MkdirAll(shaderDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(shaderDir, "bad.frag.spv"), []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}

	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()
	if err := am.Initialize(dir); err != nil {
		t.Fatal(err)
	}

	if _, err := am.LoadShader("bad.frag"); err == nil {
		t.Fatal("truncated SPIR-V accepted")
	}
}
