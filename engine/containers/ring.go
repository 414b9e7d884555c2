package containers

// Ring is a fixed-capacity sliding window over float64 samples. Pushing
// onto a full ring overwrites the oldest sample.
type Ring struct {
	data       []float64
	writeIndex int
	count      int
}

func NewRing(size int) *Ring {
	return &Ring{
		data: make([]float64, size),
	}
}

func (r *Ring) Push(value float64) {
	r.data[r.writeIndex] = value
	r.writeIndex = (r.writeIndex + 1) % len(r.data)
	if r.count < len(r.data) {
		r.count++
	}
}

func (r *Ring) Len() int {
	return r.count
}

func (r *Ring) Full() bool {
	return r.count == len(r.data)
}

// Average over the samples currently in the window. Zero when empty.
func (r *Ring) Average() float64 {
	if r.count == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < r.count; i++ {
		sum += r.data[i]
	}
	return sum / float64(r.count)
}
