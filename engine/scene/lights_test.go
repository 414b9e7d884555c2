package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestLightSetClampsAtCapacity(t *testing.T) {
	ls := NewLightSet()
	for i := 0; i < MaxLights; i++ {
		light := NewDirectionalLight(InitLight{
			Position:   mgl32.Vec3{float32(i), 0, 0},
			Color:      mgl32.Vec3{1, 1, 1},
			Brightness: 1,
		})
		if err := ls.Add(light); err != nil {
			t.Fatalf("light %d rejected: %v", i, err)
		}
	}

	extra := NewDirectionalLight(InitLight{Brightness: 1})
	if err := ls.Add(extra); err == nil {
		t.Fatal("light 33 should be rejected")
	}
	if ls.Count() != MaxLights {
		t.Fatalf("count = %d, want %d", ls.Count(), MaxLights)
	}

	buf := ls.Pack()
	if buf.Header.LightCount != MaxLights {
		t.Fatalf("packed count = %d, want %d", buf.Header.LightCount, MaxLights)
	}
}

func TestLightSetPacking(t *testing.T) {
	ls := NewLightSet()
	ls.SetAmbient(mgl32.Vec3{0.1, 0.2, 0.3}, 0.5)

	light := NewDirectionalLight(InitLight{
		Position:   mgl32.Vec3{1, 2, 3},
		Color:      mgl32.Vec3{1, 0, 0},
		Brightness: 4,
	})
	if err := ls.Add(light); err != nil {
		t.Fatal(err)
	}

	// Moving the node after registration must show up in the next pack.
	light.Transform.Translation = mgl32.Vec3{7, 8, 9}

	buf := ls.Pack()
	if buf.Header.Ambient != (mgl32.Vec4{0.1, 0.2, 0.3, 0.5}) {
		t.Fatalf("ambient = %v", buf.Header.Ambient)
	}
	if buf.Header.LightCount != 1 {
		t.Fatalf("light count = %d", buf.Header.LightCount)
	}
	if buf.Lights[0].Position != (mgl32.Vec4{7, 8, 9, 0}) {
		t.Fatalf("position = %v", buf.Lights[0].Position)
	}
	if buf.Lights[0].Color != (mgl32.Vec4{1, 0, 0, 4}) {
		t.Fatalf("color with brightness = %v", buf.Lights[0].Color)
	}
}

func TestLightSetAmbientNode(t *testing.T) {
	ls := NewLightSet()
	ambient := NewAmbientLight(InitLight{Color: mgl32.Vec3{1, 1, 1}, Brightness: 0.2})
	if err := ls.Add(ambient); err != nil {
		t.Fatal(err)
	}
	if ls.Count() != 0 {
		t.Fatal("ambient light must not occupy a directional slot")
	}
	if got := ls.Pack().Header.Ambient; got != (mgl32.Vec4{1, 1, 1, 0.2}) {
		t.Fatalf("ambient = %v", got)
	}
}

func TestGPULightsBufferLayout(t *testing.T) {
	// header 32 bytes + 32 lights of 32 bytes.
	if GPULightsBufferSize != 32+32*32 {
		t.Fatalf("buffer size = %d, want %d", GPULightsBufferSize, 32+32*32)
	}
}
