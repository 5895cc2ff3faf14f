package simulation

// scriptedRand replays fixed sequences of draws so tests can pin branch
// outcomes. Sequences wrap around when exhausted.
type scriptedRand struct {
	floats []float64
	ints   []int

	floatIdx int
	intIdx   int
}

func (r *scriptedRand) Float64() float64 {
	v := r.floats[r.floatIdx%len(r.floats)]
	r.floatIdx++
	return v
}

func (r *scriptedRand) Intn(n int) int {
	v := r.ints[r.intIdx%len(r.ints)]
	r.intIdx++
	return v % n
}

// fixedRand returns the same draw every time.
type fixedRand struct {
	f float64
	i int
}

func (r *fixedRand) Float64() float64 { return r.f }
func (r *fixedRand) Intn(n int) int   { return r.i % n }
