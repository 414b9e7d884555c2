package testbed

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelforge/lumen/engine"
	"github.com/voxelforge/lumen/engine/config"
	"github.com/voxelforge/lumen/engine/core"
	"github.com/voxelforge/lumen/engine/scene"
)

type gameState struct {
	camera *scene.Node

	width  uint32
	height uint32
}

// NewTestGame assembles the demo scene: a spinning crate, a floor, a
// transparent pane, a couple of lights and a fly camera.
func NewTestGame(cfg *config.Config) *engine.Game {
	g := &engine.Game{
		ApplicationConfig: &engine.ApplicationConfig{
			StartPosX:       cfg.Window.PosX,
			StartPosY:       cfg.Window.PosY,
			StartWidth:      cfg.Window.Width,
			StartHeight:     cfg.Window.Height,
			Name:            cfg.Window.Title,
			LogLevel:        cfg.CoreLogLevel(),
			TargetFrameRate: int(cfg.Renderer.TargetFrameRate),
			Validation:      cfg.Renderer.Validation,
			AssetsDir:       cfg.Assets.Dir,
		},
		State: &gameState{},
	}

	tg := &testGame{game: g}
	g.FnInitialize = tg.initialize
	g.FnUpdate = tg.update
	g.FnOnResize = tg.onResize
	return g
}

type testGame struct {
	game *engine.Game
}

func (tg *testGame) initialize() error {
	core.LogDebug("testbed initializing...")

	g := tg.game
	state := g.State.(*gameState)

	g.Renderer.SetAmbient(mgl32.Vec3{1, 1, 1}, 0.08)

	// Crate: textured if the asset exists, flat white otherwise.
	crate := scene.NewBoxFromWorld(scene.InitBox{
		Center: mgl32.Vec3{0, 1, 0},
		Sizes:  mgl32.Vec3{2, 2, 2},
		FrontPlane: scene.InitPlane{
			TopLeft:  mgl32.Vec3{-1, 1, 1},
			TopRight: mgl32.Vec3{1, 1, 1},
			BotRight: mgl32.Vec3{1, -1, 1},
		},
	}, true)
	if img, err := g.Assets.LoadTexture("crate.png"); err == nil {
		if slot, err := g.Renderer.UploadTexture("crate.png", img.Pixels, img.Width, img.Height); err == nil {
			crate.TextureIndex = slot
		}
	} else {
		core.LogDebug("no crate texture, using the default: %s", err)
	}
	crate.Behaviors = append(crate.Behaviors, scene.Behavior{
		Kind:         scene.BehaviorSpin,
		YawPerSecond: 30,
	})
	if err := g.Renderer.AddObject(crate); err != nil {
		return err
	}

	// Floor.
	floor := scene.NewPlaneFromWorld(scene.InitPlane{
		TopLeft:  mgl32.Vec3{-10, 0, -10},
		TopRight: mgl32.Vec3{10, 0, -10},
		BotRight: mgl32.Vec3{10, 0, 10},
	}, true)
	floor.SetColor(mgl32.Vec3{0.45, 0.45, 0.5})
	if err := g.Renderer.AddObject(floor); err != nil {
		return err
	}

	// A tinted transparent pane in front of the crate.
	pane := scene.NewPlaneFromWorld(scene.InitPlane{
		TopLeft:  mgl32.Vec3{-1.5, 2.5, 2.5},
		TopRight: mgl32.Vec3{1.5, 2.5, 2.5},
		BotRight: mgl32.Vec3{1.5, 0, 2.5},
	}, true)
	pane.SetColor(mgl32.Vec3{0.2, 0.5, 0.9})
	pane.Transparent = true
	pane.AlphaCutoff = 0
	if err := g.Renderer.AddObject(pane); err != nil {
		return err
	}

	// Optional model, loaded when the asset is present.
	if model, err := g.Assets.LoadModel("falcon.obj"); err == nil {
		model.Transform.Translation = mgl32.Vec3{5, 0, -3}
		if err := g.Renderer.AddObject(model); err != nil {
			return err
		}
	} else {
		core.LogDebug("no falcon model: %s", err)
	}

	// Lights.
	if err := g.Renderer.AddLight(scene.NewDirectionalLight(scene.InitLight{
		Position:   mgl32.Vec3{4, 6, 4},
		Color:      mgl32.Vec3{1, 0.95, 0.85},
		Brightness: 1.2,
	})); err != nil {
		return err
	}
	if err := g.Renderer.AddLight(scene.NewDirectionalLight(scene.InitLight{
		Position:   mgl32.Vec3{-5, 3, -2},
		Color:      mgl32.Vec3{0.3, 0.4, 1},
		Brightness: 0.6,
	})); err != nil {
		return err
	}

	// Fly camera.
	state.camera = scene.NewCamera()
	state.camera.Transform.Translation = mgl32.Vec3{0, 2, 8}
	state.camera.Behaviors = append(state.camera.Behaviors, scene.Behavior{
		Kind:      scene.BehaviorFlyControl,
		MoveSpeed: 5,
		LookSpeed: 0.1,
	})
	return g.Renderer.SetCamera(state.camera)
}

func (tg *testGame) update(deltaTime float64) error {
	if core.InputKeyPressedThisFrame(core.KEY_P) {
		fps, frameTime := core.MetricsFrame()
		pos := tg.game.State.(*gameState).camera.Transform.Translation
		core.LogInfo("FPS: %5.1f (%4.1fms) Pos=[%.2f, %.2f, %.2f]", fps, frameTime, pos.X(), pos.Y(), pos.Z())
	}
	return nil
}

func (tg *testGame) onResize(width uint32, height uint32) error {
	state := tg.game.State.(*gameState)
	state.width = width
	state.height = height
	return nil
}
