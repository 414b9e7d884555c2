package core

import "testing"

func TestEventDispatchOrder(t *testing.T) {
	if !EventSystemInitialize() {
		t.Fatal("event system failed to initialize")
	}
	defer EventSystemShutdown()

	var got []int
	EventRegister(EVENT_CODE_APPLICATION_QUIT, func(EventContext) {
		got = append(got, 1)
	})
	EventRegister(EVENT_CODE_APPLICATION_QUIT, func(EventContext) {
		got = append(got, 2)
	})

	EventFire(EventContext{Type: EVENT_CODE_APPLICATION_QUIT})
	ProcessEvents()

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("handlers ran out of order: %v", got)
	}
}

func TestEventDataRoundTrip(t *testing.T) {
	EventSystemInitialize()
	defer EventSystemShutdown()

	var received KeyCode
	EventRegister(EVENT_CODE_KEY_PRESSED, func(context EventContext) {
		ke, ok := context.Data.(*KeyEvent)
		if !ok {
			t.Fatalf("wrong payload type %T", context.Data)
		}
		received = ke.KeyCode
	})

	EventFire(EventContext{
		Type: EVENT_CODE_KEY_PRESSED,
		Data: &KeyEvent{KeyCode: KEY_ESCAPE},
	})
	ProcessEvents()

	if received != KEY_ESCAPE {
		t.Fatalf("expected KEY_ESCAPE, got %#x", received)
	}
}

func TestEventFireWithoutInit(t *testing.T) {
	if EventFire(EventContext{Type: EVENT_CODE_RESIZED}) {
		t.Fatal("fire should fail before initialization")
	}
}
