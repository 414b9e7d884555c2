package renderer

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelforge/lumen/engine/core"
	"github.com/voxelforge/lumen/engine/platform"
	"github.com/voxelforge/lumen/engine/renderer/vulkan"
	"github.com/voxelforge/lumen/engine/scene"
)

// fakeBackend satisfies RendererBackend without a device so the frame
// orchestration is testable.
type fakeBackend struct {
	drawErr   error
	drawCalls int
	uploads   int
}

func (f *fakeBackend) Initialize(string, uint32, uint32, vulkan.ShaderCatalog) error { return nil }
func (f *fakeBackend) Shutdown() error                                               { return nil }
func (f *fakeBackend) Resized(uint32, uint32)                                        {}
func (f *fakeBackend) UploadTexture(string, []byte, uint32, uint32) (uint32, error)  { return 0, nil }
func (f *fakeBackend) ReleaseTexture(uint32)                                         {}

func (f *fakeBackend) UploadGeometry([]scene.Vertex, []uint32) error {
	f.uploads++
	return nil
}

func (f *fakeBackend) DrawFrame(*vulkan.FramePacket) error {
	f.drawCalls++
	return f.drawErr
}

func testRenderer() *Renderer {
	return &Renderer{
		lights:         scene.NewLightSet(),
		cullingEnabled: true,
	}
}

func pressed(keys ...core.KeyCode) func(core.KeyCode) bool {
	set := make(map[core.KeyCode]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return func(k core.KeyCode) bool { return set[k] }
}

func TestDebugModeChords(t *testing.T) {
	r := testRenderer()

	cases := []struct {
		key  core.KeyCode
		want DebugViewMode
	}{
		{core.KEY_2, DebugViewUnlit},
		{core.KEY_3, DebugViewNormals},
		{core.KEY_4, DebugViewDepth},
		{core.KEY_5, DebugViewWireframe},
		{core.KEY_1, DebugViewOff},
	}
	for _, c := range cases {
		keys := map[core.KeyCode]bool{core.KEY_RCONTROL: true, c.key: true}
		r.handleDebugModes(keys, pressed(c.key))
		if r.debugMode != c.want {
			t.Fatalf("after chord with key %#x mode = %d, want %d", c.key, r.debugMode, c.want)
		}
		if keys[c.key] {
			t.Fatalf("handled key %#x must be erased from the pressed set", c.key)
		}
	}
}

func TestDebugChordRequiresModifier(t *testing.T) {
	r := testRenderer()

	// Without right control the number keys belong to the scene.
	keys := map[core.KeyCode]bool{core.KEY_3: true}
	r.handleDebugModes(keys, pressed(core.KEY_3))
	if r.debugMode != DebugViewOff {
		t.Fatalf("mode = %d, want unchanged", r.debugMode)
	}
	if !keys[core.KEY_3] {
		t.Fatal("unhandled key must stay in the pressed set")
	}
}

func TestCullingToggle(t *testing.T) {
	r := testRenderer()
	keys := map[core.KeyCode]bool{core.KEY_RCONTROL: true, core.KEY_C: true}

	r.handleDebugModes(keys, pressed(core.KEY_C))
	if r.cullingEnabled {
		t.Fatal("first toggle should disable culling")
	}

	keys = map[core.KeyCode]bool{core.KEY_RCONTROL: true, core.KEY_C: true}
	r.handleDebugModes(keys, pressed(core.KEY_C))
	if !r.cullingEnabled {
		t.Fatal("second toggle should re-enable culling")
	}
}

func TestHeldKeyDoesNotRetoggle(t *testing.T) {
	r := testRenderer()

	// Key held across frames: only the down edge counts.
	keys := map[core.KeyCode]bool{core.KEY_RCONTROL: true, core.KEY_C: true}
	r.handleDebugModes(keys, pressed(core.KEY_C))
	keys = map[core.KeyCode]bool{core.KEY_RCONTROL: true, core.KEY_C: true}
	r.handleDebugModes(keys, pressed())
	if r.cullingEnabled {
		t.Fatal("held key toggled culling twice")
	}
}

func TestDebugFlags(t *testing.T) {
	r := testRenderer()

	r.debugMode = DebugViewOff
	if r.debugFlags() != 0 {
		t.Fatalf("off flags = %#x", r.debugFlags())
	}

	r.debugMode = DebugViewNormals
	if r.debugFlags() != vulkan.DebugFlagNormals {
		t.Fatalf("normals flags = %#x", r.debugFlags())
	}

	r.debugMode = DebugViewWireframe
	if r.debugFlags()&vulkan.DebugFlagWireframe == 0 {
		t.Fatal("wireframe mode must set the wireframe flag")
	}
	if r.debugFlags()&vulkan.DebugFlagUnlit == 0 {
		t.Fatal("wireframe mode renders unlit")
	}
}

func TestAddObjectRegistersLights(t *testing.T) {
	r := testRenderer()

	root := scene.NewNode(scene.KindProp, nil, nil)
	light := scene.NewNode(scene.KindDirectionalLight, nil, nil)
	light.Brightness = 1
	root.AddChild(light)

	if err := r.AddObject(root); err != nil {
		t.Fatal(err)
	}
	if r.lights.Count() != 1 {
		t.Fatalf("light count = %d, want 1", r.lights.Count())
	}
	if !r.geometryDirty {
		t.Fatal("adding an object must mark geometry dirty")
	}
}

func TestRemoveObject(t *testing.T) {
	r := testRenderer()

	a := scene.NewNode(scene.KindProp, nil, nil)
	b := scene.NewNode(scene.KindProp, nil, nil)
	if err := r.AddObject(a); err != nil {
		t.Fatal(err)
	}
	if err := r.AddObject(b); err != nil {
		t.Fatal(err)
	}

	if err := r.RemoveObject(a); err != nil {
		t.Fatal(err)
	}
	if len(r.roots) != 1 || r.roots[0] != b {
		t.Fatalf("roots = %v after removal", r.roots)
	}
	if err := r.RemoveObject(a); err == nil {
		t.Fatal("removing an unknown root must error")
	}
}

func TestDrawSceneErrorTriage(t *testing.T) {
	deviceLost := errors.New("device lost")

	cases := []struct {
		name    string
		drawErr error
		wantErr error
	}{
		{"clean frame", nil, nil},
		{"throttled frame is skipped", vulkan.ErrFrameThrottled, nil},
		{"booting swapchain is skipped", core.ErrSwapchainBooting, nil},
		{"real failure propagates", deviceLost, deviceLost},
	}
	for _, c := range cases {
		fake := &fakeBackend{drawErr: c.drawErr}
		r := testRenderer()
		r.backend = fake
		r.platform = &platform.Platform{}

		err := r.DrawScene(0.016)
		if !errors.Is(err, c.wantErr) {
			t.Errorf("%s: DrawScene() = %v, want %v", c.name, err, c.wantErr)
		}
		if fake.drawCalls != 1 {
			t.Errorf("%s: draw calls = %d, want 1", c.name, fake.drawCalls)
		}
	}
}

func TestDrawSceneUploadsOnlyWhenDirty(t *testing.T) {
	fake := &fakeBackend{}
	r := testRenderer()
	r.backend = fake
	r.platform = &platform.Platform{}

	box := scene.NewBoxFromWorld(scene.InitBox{
		Sizes: mgl32.Vec3{1, 1, 1},
		FrontPlane: scene.InitPlane{
			TopLeft:  mgl32.Vec3{-0.5, 0.5, 0.5},
			TopRight: mgl32.Vec3{0.5, 0.5, 0.5},
			BotRight: mgl32.Vec3{0.5, -0.5, 0.5},
		},
	}, true)
	if err := r.AddObject(box); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := r.DrawScene(0.016); err != nil {
			t.Fatal(err)
		}
	}
	if fake.uploads != 1 {
		t.Fatalf("uploads = %d, want 1 for an unchanged scene", fake.uploads)
	}
}

func TestSetCameraRejectsNonView(t *testing.T) {
	r := testRenderer()
	prop := scene.NewNode(scene.KindProp, nil, nil)
	if err := r.SetCamera(prop); err == nil {
		t.Fatal("prop node accepted as camera")
	}
	if err := r.SetCamera(scene.NewCamera()); err != nil {
		t.Fatal(err)
	}
}
