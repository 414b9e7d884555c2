package core

import "testing"

func setupInput(t *testing.T) {
	t.Helper()
	EventSystemInitialize()
	t.Cleanup(func() { EventSystemShutdown() })
	if err := InputInitialize(); err != nil {
		t.Fatal(err)
	}
	// Reset between tests, the state is package level.
	*inputState = InputState{}
	inputInitialized = true
}

func TestKeyPressedThisFrame(t *testing.T) {
	setupInput(t)

	InputProcessKey(KEY_C, true)
	if !InputKeyPressedThisFrame(KEY_C) {
		t.Fatal("expected a down edge on the frame the key goes down")
	}

	InputUpdate(0)
	if InputKeyPressedThisFrame(KEY_C) {
		t.Fatal("held key must not report a new down edge")
	}
	if !InputIsKeyDown(KEY_C) {
		t.Fatal("key should still be down")
	}

	InputProcessKey(KEY_C, false)
	InputUpdate(0)
	if InputIsKeyDown(KEY_C) {
		t.Fatal("key should be up after release")
	}
}

func TestPressedKeysSnapshot(t *testing.T) {
	setupInput(t)

	InputProcessKey(KEY_W, true)
	InputProcessKey(KEY_RCONTROL, true)

	pressed := InputPressedKeys()
	if !pressed[KEY_W] || !pressed[KEY_RCONTROL] {
		t.Fatalf("snapshot missing held keys: %v", pressed)
	}
	if len(pressed) != 2 {
		t.Fatalf("expected 2 held keys, got %d", len(pressed))
	}
}

func TestCursorDeltaAccumulatesAndClears(t *testing.T) {
	setupInput(t)

	InputProcessMouseMove(10, 20)
	InputProcessMouseMove(15, 18)

	dx, dy := InputCursorDelta()
	if dx != 15 || dy != 18 {
		t.Fatalf("accumulated delta wrong: %f, %f", dx, dy)
	}

	InputUpdate(0)
	dx, dy = InputCursorDelta()
	if dx != 0 || dy != 0 {
		t.Fatalf("delta should clear on update, got %f, %f", dx, dy)
	}
}

func TestSlotAllocatorReuseAndCap(t *testing.T) {
	sa := NewSlotAllocator(2)

	a, err := sa.Acquire("a")
	if err != nil || a != 0 {
		t.Fatalf("first acquire: %d, %v", a, err)
	}
	b, err := sa.Acquire("b")
	if err != nil || b != 1 {
		t.Fatalf("second acquire: %d, %v", b, err)
	}
	if _, err := sa.Acquire("c"); err == nil {
		t.Fatal("allocator should refuse past capacity")
	}

	if err := sa.Release(a); err != nil {
		t.Fatal(err)
	}
	c, err := sa.Acquire("c")
	if err != nil || c != 0 {
		t.Fatalf("freed slot should be reused first: %d, %v", c, err)
	}
}
