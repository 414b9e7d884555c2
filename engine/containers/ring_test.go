package containers

import "testing"

func TestRingAverageGrowsWithWindow(t *testing.T) {
	r := NewRing(4)
	if got := r.Average(); got != 0 {
		t.Fatalf("empty ring average = %f, want 0", got)
	}

	r.Push(2)
	r.Push(4)
	if got := r.Average(); got != 3 {
		t.Fatalf("partial window average = %f, want 3", got)
	}
	if r.Full() {
		t.Fatal("ring reports full after 2 of 4 pushes")
	}
}

func TestRingOverwritesOldest(t *testing.T) {
	r := NewRing(3)
	for _, v := range []float64{10, 20, 30} {
		r.Push(v)
	}
	if !r.Full() {
		t.Fatal("ring not full after size pushes")
	}

	// 10 falls out of the window.
	r.Push(40)
	if got := r.Average(); got != 30 {
		t.Fatalf("average after overwrite = %f, want 30", got)
	}
	if got := r.Len(); got != 3 {
		t.Fatalf("len after overwrite = %d, want 3", got)
	}
}
