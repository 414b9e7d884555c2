package engine

import (
	"github.com/voxelforge/lumen/engine/assets"
	"github.com/voxelforge/lumen/engine/core"
	"github.com/voxelforge/lumen/engine/renderer"
)

// ApplicationConfig carries the window and renderer settings a game starts
// with, usually filled from the TOML config file.
type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32
	// Window starting position y axis, if applicable.
	StartPosY uint32
	// Window starting width, if applicable.
	StartWidth uint32
	// Window starting height, if applicable.
	StartHeight uint32
	// The application name used in windowing, if applicable.
	Name     string
	LogLevel core.LogLevel

	TargetFrameRate int
	// Enables the Vulkan validation layers and the debug callback.
	Validation bool

	AssetsDir string
}

// Game is the application half of the engine: callbacks plus the handles
// the engine fills in before FnInitialize runs.
type Game struct {
	ApplicationConfig *ApplicationConfig

	// Populated by the engine before FnInitialize is called.
	Renderer *renderer.Renderer
	Assets   *assets.AssetManager

	State interface{}

	FnInitialize Initialize
	FnUpdate     Update
	FnOnResize   OnResize
}

type Initialize func() error
type Update func(deltaTime float64) error
type OnResize func(width uint32, height uint32) error
