package truepeak

import "math"

const (
	tapsPerPhase = 12
	kaiserBeta   = 8.6
	cutoffScale  = 0.95
)

// oversampler is a streaming polyphase windowed-sinc interpolator used
// to evaluate the signal between sample instants. Filter history
// persists across blocks so block boundaries introduce no edge error.
type oversampler struct {
	phases  [][]float64
	history []float64
	pos     int
}

func newOversampler(factor int) *oversampler {
	return &oversampler{
		phases:  designPhases(factor),
		history: make([]float64, tapsPerPhase),
	}
}

// designPhases builds a windowed-sinc lowpass of factor*tapsPerPhase
// taps, cut off just below the original Nyquist, and splits it into
// per-phase subfilters.
func designPhases(factor int) [][]float64 {
	nTaps := tapsPerPhase * factor
	fc := 0.5 / float64(factor) * cutoffScale

	taps := make([]float64, nTaps)
	center := 0.5 * float64(nTaps-1)

	var sum float64

	for n := range nTaps {
		t := float64(n) - center
		taps[n] = 2 * fc * sinc(2*fc*t) * kaiserWindow(n, nTaps)
		sum += taps[n]
	}

	// Normalize to unity DC gain through the upsampled chain.
	scale := float64(factor) / sum
	for i := range taps {
		taps[i] *= scale
	}

	phases := make([][]float64, factor)
	for p := range factor {
		phase := make([]float64, 0, tapsPerPhase)
		for i := p; i < nTaps; i += factor {
			phase = append(phase, taps[i])
		}

		phases[p] = phase
	}

	return phases
}

// maxAbs pushes a block through the interpolator and returns the largest
// absolute value among all interpolated output samples.
func (o *oversampler) maxAbs(block []float64) float64 {
	peak := 0.0

	for _, s := range block {
		o.history[o.pos] = s
		o.pos = (o.pos + 1) % len(o.history)

		for _, phase := range o.phases {
			acc := 0.0

			idx := o.pos
			for k := range phase {
				idx--
				if idx < 0 {
					idx = len(o.history) - 1
				}

				acc += phase[k] * o.history[idx]
			}

			a := math.Abs(acc)
			if a > peak {
				peak = a
			}
		}
	}

	return peak
}

func (o *oversampler) reset() {
	for i := range o.history {
		o.history[i] = 0
	}

	o.pos = 0
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}

	px := math.Pi * x

	return math.Sin(px) / px
}

// kaiserWindow evaluates the Kaiser window at tap n of length nTaps.
func kaiserWindow(n, nTaps int) float64 {
	if nTaps <= 1 {
		return 1
	}

	r := 2*float64(n)/float64(nTaps-1) - 1

	return besselI0(kaiserBeta*math.Sqrt(1-r*r)) / besselI0(kaiserBeta)
}

// besselI0 is the zeroth-order modified Bessel function of the first
// kind, via its power series.
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0
	half := x / 2

	for k := 1; k < 32; k++ {
		term *= (half / float64(k)) * (half / float64(k))
		sum += term

		if term < 1e-16*sum {
			break
		}
	}

	return sum
}
