package loudness

import (
	"github.com/cwbudde/algo-mastering/dsp/core"
)

// lufsRing is a fixed-capacity FIFO of per-block LUFS records with an
// O(1) running sum of the corresponding linear powers. Push evicts the
// oldest record once the ring is full.
type lufsRing struct {
	values   []float64
	head     int
	count    int
	powerSum float64
}

func newLufsRing(capacity int) *lufsRing {
	if capacity < 1 {
		capacity = 1
	}

	return &lufsRing{values: make([]float64, capacity)}
}

func (r *lufsRing) push(lufs float64) {
	if r.count == len(r.values) {
		r.powerSum -= core.DBPowerToLinear(r.values[r.head])
		r.head = (r.head + 1) % len(r.values)
		r.count--
	}

	idx := (r.head + r.count) % len(r.values)
	r.values[idx] = lufs
	r.count++
	r.powerSum += core.DBPowerToLinear(lufs)

	// Running subtraction can drift slightly negative.
	if r.powerSum < 0 {
		r.powerSum = 0
	}
}

func (r *lufsRing) len() int {
	return r.count
}

// powerMeanDB returns the power-domain average of the ring contents in
// LUFS. Decibel values are never averaged arithmetically; each record is
// converted to linear power, the powers are mean-averaged, and the mean
// is converted back. An empty ring yields -Inf.
func (r *lufsRing) powerMeanDB() float64 {
	if r.count == 0 {
		return core.LinearPowerToDB(0)
	}

	return core.LinearPowerToDB(r.powerSum / float64(r.count))
}

// snapshot materializes the ring contents in FIFO order.
func (r *lufsRing) snapshot() []float64 {
	out := make([]float64, r.count)
	for i := range r.count {
		out[i] = r.values[(r.head+i)%len(r.values)]
	}

	return out
}

func (r *lufsRing) reset() {
	r.head = 0
	r.count = 0
	r.powerSum = 0
}
