package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelforge/lumen/engine/core"
	"github.com/voxelforge/lumen/engine/platform"
	"github.com/voxelforge/lumen/engine/renderer/vulkan"
	"github.com/voxelforge/lumen/engine/scene"
)

// RendererBackend is the GPU-facing half of the renderer. The Vulkan
// implementation is the only one today; the interface keeps the scene
// bookkeeping testable without a device.
type RendererBackend interface {
	Initialize(appName string, appWidth, appHeight uint32, shaders vulkan.ShaderCatalog) error
	Shutdown() error
	Resized(width, height uint32)
	UploadGeometry(vertices []scene.Vertex, indices []uint32) error
	UploadTexture(name string, pixels []byte, width, height uint32) (uint32, error)
	ReleaseTexture(slot uint32)
	DrawFrame(packet *vulkan.FramePacket) error
}

// DebugViewMode selects what the fragment shaders output. Exactly one
// mode is active at a time.
type DebugViewMode uint8

const (
	DebugViewOff DebugViewMode = iota
	DebugViewUnlit
	DebugViewNormals
	DebugViewDepth
	DebugViewWireframe
)

// Renderer owns the registered scene roots and turns them into frame
// packets for the backend.
type Renderer struct {
	backend  RendererBackend
	platform *platform.Platform

	roots  []*scene.Node
	lights *scene.LightSet
	camera *scene.Node

	fieldOfViewDeg float32

	debugMode      DebugViewMode
	cullingEnabled bool

	// Set when the registered meshes changed and the shared buffers need
	// re-aggregation before the next frame.
	geometryDirty bool
}

func New(p *platform.Platform, targetFrameRate int, validation bool) *Renderer {
	return &Renderer{
		backend:        vulkan.New(p, targetFrameRate, validation),
		platform:       p,
		lights:         scene.NewLightSet(),
		fieldOfViewDeg: 45,
		cullingEnabled: true,
	}
}

func (r *Renderer) Initialize(appName string, width, height uint32, shaders vulkan.ShaderCatalog) error {
	if err := r.backend.Initialize(appName, width, height, shaders); err != nil {
		return err
	}
	return r.uploadDefaultTextures()
}

// uploadDefaultTextures fills the reserved slots new nodes point at: white
// albedo, flat normal and black emissive, in that order.
func (r *Renderer) uploadDefaultTextures() error {
	defaults := []struct {
		name  string
		slot  uint32
		pixel [4]byte
	}{
		{"default_albedo", scene.DefaultAlbedoSlot, [4]byte{255, 255, 255, 255}},
		{"default_normal", scene.DefaultNormalSlot, [4]byte{128, 128, 255, 255}},
		{"default_emissive", scene.DefaultEmissiveSlot, [4]byte{0, 0, 0, 255}},
	}
	for _, d := range defaults {
		slot, err := r.backend.UploadTexture(d.name, d.pixel[:], 1, 1)
		if err != nil {
			return err
		}
		if slot != d.slot {
			return fmt.Errorf("%s landed in slot %d, want %d", d.name, slot, d.slot)
		}
	}
	return nil
}

// UploadTexture registers RGBA pixels with the backend and returns the
// bindless slot to store in node texture indices.
func (r *Renderer) UploadTexture(name string, pixels []byte, width, height uint32) (uint32, error) {
	return r.backend.UploadTexture(name, pixels, width, height)
}

func (r *Renderer) ReleaseTexture(slot uint32) {
	r.backend.ReleaseTexture(slot)
}

func (r *Renderer) Shutdown() error {
	return r.backend.Shutdown()
}

// AddObject registers a node tree for drawing. Light nodes inside the
// tree are picked up as well.
func (r *Renderer) AddObject(n *scene.Node) error {
	for _, node := range scene.Flatten([]*scene.Node{n}) {
		if node.Can(scene.CapEmitsLight) {
			if err := r.lights.Add(node); err != nil {
				return err
			}
		}
	}
	r.roots = append(r.roots, n)
	r.geometryDirty = true
	return nil
}

// RemoveObject drops a previously registered root. Lights that entered
// through the tree stay registered; the scene is expected to be rebuilt
// when that matters.
func (r *Renderer) RemoveObject(n *scene.Node) error {
	for i, root := range r.roots {
		if root == n {
			r.roots = append(r.roots[:i], r.roots[i+1:]...)
			r.geometryDirty = true
			return nil
		}
	}
	return fmt.Errorf("node %s is not a registered root", n.ID)
}

func (r *Renderer) AddLight(n *scene.Node) error {
	return r.lights.Add(n)
}

func (r *Renderer) SetAmbient(color mgl32.Vec3, brightness float32) {
	r.lights.SetAmbient(color, brightness)
}

func (r *Renderer) SetCamera(n *scene.Node) error {
	if !n.Can(scene.CapView) {
		return fmt.Errorf("node %s cannot act as a camera", n.ID)
	}
	r.camera = n
	return nil
}

func (r *Renderer) Camera() *scene.Node {
	return r.camera
}

func (r *Renderer) SetFieldOfView(degrees float32) {
	r.fieldOfViewDeg = degrees
}

func (r *Renderer) DebugMode() DebugViewMode {
	return r.debugMode
}

func (r *Renderer) CullingEnabled() bool {
	return r.cullingEnabled
}

func (r *Renderer) OnResize(width, height uint32) {
	r.backend.Resized(width, height)
}

// DrawScene advances behaviors and renders one frame. A throttled or
// booting frame is not an error; the caller just sees a cheap no-op.
func (r *Renderer) DrawScene(delta float64) error {
	keys := core.InputPressedKeys()
	r.handleDebugModes(keys, core.InputKeyPressedThisFrame)

	dx, dy := core.InputCursorDelta()
	input := scene.FrameInput{
		Delta:    float32(delta),
		Keys:     keys,
		CursorDX: float32(dx),
		CursorDY: float32(dy),
	}

	all := scene.Flatten(r.roots)
	for _, n := range all {
		n.RunBehaviors(input)
	}
	if r.camera != nil {
		r.camera.RunBehaviors(input)
	}

	if r.geometryDirty {
		vertices, indices := scene.Aggregate(all)
		if err := r.backend.UploadGeometry(vertices, indices); err != nil {
			return err
		}
		r.geometryDirty = false
	}

	view := mgl32.Ident4()
	if r.camera != nil {
		view = r.camera.ViewMatrix()
	}

	packet := &vulkan.FramePacket{
		View:             view,
		FieldOfViewDeg:   r.fieldOfViewDeg,
		OpaqueDraws:      scene.BuildDraws(all, false),
		TransparentDraws: scene.BuildDraws(all, true),
		Lights:           r.lights.Pack(),
		DebugFlags:       r.debugFlags(),
		Wireframe:        r.debugMode == DebugViewWireframe,
		CullingEnabled:   r.cullingEnabled,
	}

	err := r.backend.DrawFrame(packet)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, vulkan.ErrFrameThrottled):
		r.platform.Sleep(1)
		return nil
	case errors.Is(err, core.ErrSwapchainBooting):
		// The backend rebuilt or is rebuilding the swapchain; the frame
		// was dropped on purpose.
		return nil
	default:
		return err
	}
}

func (r *Renderer) debugFlags() uint32 {
	switch r.debugMode {
	case DebugViewUnlit:
		return vulkan.DebugFlagUnlit
	case DebugViewNormals:
		return vulkan.DebugFlagNormals
	case DebugViewDepth:
		return vulkan.DebugFlagDepth
	case DebugViewWireframe:
		return vulkan.DebugFlagWireframe | vulkan.DebugFlagUnlit
	default:
		return 0
	}
}

// handleDebugModes consumes the debug chords before behaviors see the
// keyboard: right control plus 1-5 selects the view mode, plus C toggles
// back-face culling. Handled keys are erased from the pressed set.
func (r *Renderer) handleDebugModes(keys map[core.KeyCode]bool, pressedThisFrame func(core.KeyCode) bool) {
	if !keys[core.KEY_RCONTROL] {
		return
	}

	bindings := []struct {
		key  core.KeyCode
		mode DebugViewMode
	}{
		{core.KEY_1, DebugViewOff},
		{core.KEY_2, DebugViewUnlit},
		{core.KEY_3, DebugViewNormals},
		{core.KEY_4, DebugViewDepth},
		{core.KEY_5, DebugViewWireframe},
	}
	for _, b := range bindings {
		if pressedThisFrame(b.key) {
			r.debugMode = b.mode
			delete(keys, b.key)
			core.LogDebug("debug view mode set to %d", b.mode)
		}
	}

	if pressedThisFrame(core.KEY_C) {
		r.cullingEnabled = !r.cullingEnabled
		delete(keys, core.KEY_C)
		core.LogDebug("back-face culling enabled: %t", r.cullingEnabled)
	}

	delete(keys, core.KEY_RCONTROL)
}
