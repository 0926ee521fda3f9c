// Package truepeak tracks the maximum absolute sample amplitude of a
// stream in dB, monotonically non-decreasing until reset.
//
// By default the estimator reports the plain sample peak. Inter-sample
// peaks can exceed the sample peak by a few tenths of a dB on heavily
// limited material; enable WithOversampling to estimate them with a
// polyphase windowed-sinc interpolator. An oversampling estimator holds
// per-stream filter state, so use one estimator per channel.
package truepeak

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-mastering/dsp/core"
)

const maxOversamplingFactor = 8

// Option configures an Estimator.
type Option func(*config) error

type config struct {
	factor int
}

// WithOversampling enables inter-sample peak estimation at the given
// integer factor (typically 4). A factor of 1 disables oversampling.
func WithOversampling(factor int) Option {
	return func(cfg *config) error {
		if factor < 1 || factor > maxOversamplingFactor {
			return fmt.Errorf("truepeak: oversampling factor must be in [1, %d]: %d",
				maxOversamplingFactor, factor)
		}

		cfg.factor = factor

		return nil
	}
}

// Estimator tracks the running maximum absolute amplitude of one sample
// stream. The zero reading is -Inf dB.
type Estimator struct {
	maxAbs float64
	over   *oversampler
}

// New creates an Estimator with optional inter-sample peak estimation.
func New(opts ...Option) (*Estimator, error) {
	cfg := config{factor: 1}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	e := &Estimator{}
	if cfg.factor > 1 {
		e.over = newOversampler(cfg.factor)
	}

	return e, nil
}

// Oversampled reports whether inter-sample peak estimation is enabled.
func (e *Estimator) Oversampled() bool {
	return e.over != nil
}

// Observe updates the running maximum from one block of samples.
func (e *Estimator) Observe(block []float64) {
	if e.over != nil {
		e.maxAbs = math.Max(e.maxAbs, e.over.maxAbs(block))
		return
	}

	m := e.maxAbs

	for _, s := range block {
		a := math.Abs(s)
		if a > m {
			m = a
		}
	}

	e.maxAbs = m
}

// PeakDB returns the running maximum in dBFS (20*log10 of the peak
// magnitude), or -Inf before any non-zero signal has been observed.
func (e *Estimator) PeakDB() float64 {
	return core.LinearToDB(e.maxAbs)
}

// Peak returns the running maximum as a linear magnitude.
func (e *Estimator) Peak() float64 {
	return e.maxAbs
}

// Reset sets the running maximum back to -Inf dB and clears any
// interpolator history.
func (e *Estimator) Reset() {
	e.maxAbs = 0
	if e.over != nil {
		e.over.reset()
	}
}
