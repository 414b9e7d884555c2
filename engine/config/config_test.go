package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/voxelforge/lumen/engine/core"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Window.Width != 1280 || cfg.Window.Height != 720 {
		t.Fatalf("unexpected default window size: %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Renderer.TargetFrameRate != 60 {
		t.Fatalf("unexpected default frame rate: %d", cfg.Renderer.TargetFrameRate)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lumen.toml")
	body := `
log_level = "debug"

[window]
title = "demo"
width = 800
height = 600

[renderer]
validation = true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Window.Title != "demo" || cfg.Window.Width != 800 {
		t.Fatalf("window section not applied: %+v", cfg.Window)
	}
	if !cfg.Renderer.Validation {
		t.Fatal("validation flag not applied")
	}
	// Unset values still fall back.
	if cfg.Renderer.TargetFrameRate != 60 {
		t.Fatalf("frame rate should default to 60, got %d", cfg.Renderer.TargetFrameRate)
	}
	if cfg.CoreLogLevel() != core.LogLevelDebug {
		t.Fatalf("log level mapping wrong: %v", cfg.CoreLogLevel())
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("window = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
