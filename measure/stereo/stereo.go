// Package stereo computes instantaneous stereo-imaging statistics
// (correlation, balance and mid/side width) from paired left/right
// sample blocks. It is independent of the loudness path and consumes
// raw (unweighted) samples.
package stereo

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-mastering/dsp/core"
)

// Reading holds the imaging statistics of one block.
//
// Correlation is the normalized phase relationship in [-1, 1]: +1 fully
// correlated, -1 fully anti-correlated. Balance is the |L| vs |R| energy
// tilt in [-1, 1]: -1 fully left, +1 fully right. Width is the
// side-to-mid ratio, >= 0 and unbounded.
type Reading struct {
	Correlation float64
	Balance     float64
	Width       float64
}

// idleReading matches the zero-energy defaults: silent input reads as
// fully correlated, centered and mono.
func idleReading() Reading {
	return Reading{Correlation: 1, Balance: 0, Width: 0}
}

// Analyze computes a Reading from one pair of channel blocks in a single
// pass. Blocks of unequal length are truncated to the shorter one.
//
// Zero-denominator cases resolve to documented defaults instead of NaN:
// correlation 1.0 when either channel has no energy, balance 0.0 when
// both are silent, width 0.0 when the mid signal vanishes. Correlation
// and balance are clamped to [-1, 1] to absorb floating-point drift.
func Analyze(left, right []float64) Reading {
	n := min(len(left), len(right))
	left, right = left[:n], right[:n]

	if n == 0 {
		return idleReading()
	}

	sumLR := floats.Dot(left, right)
	sumL2 := floats.Dot(left, left)
	sumR2 := floats.Dot(right, right)
	sumAbsL := floats.Norm(left, 1)
	sumAbsR := floats.Norm(right, 1)

	r := idleReading()

	if den := math.Sqrt(sumL2 * sumR2); den > 0 {
		r.Correlation = core.Clamp(sumLR/den, -1, 1)
	}

	if den := sumAbsR + sumAbsL; den > 0 {
		r.Balance = core.Clamp((sumAbsR-sumAbsL)/den, -1, 1)
	}

	// Mid/side energies; the max guards against tiny negative values
	// from cancellation.
	mid := math.Sqrt(math.Max(0, sumL2+sumR2+2*sumLR)) / 2
	side := math.Sqrt(math.Max(0, sumL2+sumR2-2*sumLR)) / 2

	if mid > 0 {
		r.Width = side / mid
	}

	return r
}

// Analyzer retains the latest Reading. Each block fully replaces the
// previous reading; nothing else is accumulated.
type Analyzer struct {
	latest Reading
}

// NewAnalyzer returns an Analyzer in its idle state.
func NewAnalyzer() *Analyzer {
	return &Analyzer{latest: idleReading()}
}

// Process analyzes one block pair and retains the result.
func (a *Analyzer) Process(left, right []float64) Reading {
	a.latest = Analyze(left, right)
	return a.latest
}

// Latest returns the most recent Reading, or the idle defaults before
// any block has been processed.
func (a *Analyzer) Latest() Reading {
	return a.latest
}

// Reset returns the analyzer to its idle state.
func (a *Analyzer) Reset() {
	a.latest = idleReading()
}
