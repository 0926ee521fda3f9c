package kweighting

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-mastering/dsp/filter/biquad"
	"github.com/cwbudde/algo-mastering/dsp/filter/design"
)

// BS.1770-4 pre-filter parameters.
const (
	shelfFreq   = 1681.97 // Hz
	shelfGainDB = 4.0
	shelfQ      = 1 / math.Sqrt2

	highpassFreq = 38.13 // Hz
	highpassQ    = 0.5
)

// Filter applies the two-stage K-weighting cascade to a single channel.
// Delay-tap state persists across block boundaries; only Reset or a fresh
// construction clears it.
type Filter struct {
	sampleRate float64
	chain      *biquad.Chain
}

// New creates a K-weighting filter for the given sample rate.
// Returns an error if sampleRate is not a positive finite value.
func New(sampleRate float64) (*Filter, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("kweighting: sample rate must be > 0 and finite: %f", sampleRate)
	}

	coeffs := []biquad.Coefficients{
		design.HighShelf(shelfFreq, shelfGainDB, shelfQ, sampleRate),
		design.Highpass(highpassFreq, highpassQ, sampleRate),
	}

	return &Filter{
		sampleRate: sampleRate,
		chain:      biquad.NewChain(coeffs),
	}, nil
}

// SampleRate returns the sample rate the filter was designed for.
func (f *Filter) SampleRate() float64 {
	return f.sampleRate
}

// ProcessSample filters one sample through both stages.
func (f *Filter) ProcessSample(x float64) float64 {
	return f.chain.ProcessSample(x)
}

// ProcessBlock filters a block in-place through both stages.
func (f *Filter) ProcessBlock(buf []float64) {
	f.chain.ProcessBlock(buf)
}

// ProcessBlockTo filters src into dst, leaving src untouched.
// Both slices must have the same length.
func (f *Filter) ProcessBlockTo(dst, src []float64) {
	copy(dst, src)
	f.chain.ProcessBlock(dst)
}

// Reset clears the delay taps of both stages.
func (f *Filter) Reset() {
	f.chain.Reset()
}
