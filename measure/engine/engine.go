package engine

import (
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/algo-mastering/dsp/core"
	"github.com/cwbudde/algo-mastering/dsp/filter/kweighting"
	"github.com/cwbudde/algo-mastering/measure/loudness"
	"github.com/cwbudde/algo-mastering/measure/spectral"
	"github.com/cwbudde/algo-mastering/measure/stereo"
	"github.com/cwbudde/algo-mastering/measure/truepeak"
)

// Config defines engine settings.
type Config struct {
	core.ProcessorConfig

	// KWeighting applies the BS.1770 pre-filter before loudness
	// measurement. Disabling it yields unweighted RMS loudness.
	KWeighting bool

	// TruePeakOversampling is the interpolation factor for peak
	// detection. 1 measures sample peaks only; 2..8 enables
	// inter-sample peak estimation.
	TruePeakOversampling int

	// MaxSessionSeconds bounds the gating history, see loudness.
	MaxSessionSeconds float64

	// Spectrum enables the lazy band analyzer on the mono mixdown.
	Spectrum bool
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the standard measurement setup: K-weighted,
// sample-peak detection, ten-minute gating history, no spectrum.
func DefaultConfig() Config {
	return Config{
		ProcessorConfig:      core.DefaultProcessorConfig(),
		KWeighting:           true,
		TruePeakOversampling: 1,
		MaxSessionSeconds:    600,
	}
}

// WithSampleRate sets the sample rate in Hz.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *Config) {
		cfg.SampleRate = sampleRate
	}
}

// WithBlockSize sets the nominal host block size in samples.
func WithBlockSize(blockSize int) Option {
	return func(cfg *Config) {
		cfg.BlockSize = blockSize
	}
}

// WithKWeighting enables or disables the BS.1770 pre-filter. The mode
// is fixed for the lifetime of the engine so weighted and unweighted
// blocks never mix in one measurement.
func WithKWeighting(enabled bool) Option {
	return func(cfg *Config) {
		cfg.KWeighting = enabled
	}
}

// WithTruePeakOversampling sets the peak interpolation factor (1..8).
func WithTruePeakOversampling(factor int) Option {
	return func(cfg *Config) {
		cfg.TruePeakOversampling = factor
	}
}

// WithMaxSessionSeconds bounds the integrated-loudness history.
func WithMaxSessionSeconds(seconds float64) Option {
	return func(cfg *Config) {
		cfg.MaxSessionSeconds = seconds
	}
}

// WithSpectrum enables the band analyzer.
func WithSpectrum(enabled bool) Option {
	return func(cfg *Config) {
		cfg.Spectrum = enabled
	}
}

// Snapshot is one immutable view of all current readings. Zero-history
// sentinels are negative infinity for the loudness and peak fields and
// the neutral stereo reading {1, 0, 0}.
type Snapshot struct {
	Momentary  float64
	ShortTerm  float64
	Integrated float64
	TruePeakDB float64

	LRA      float64
	LRAValid bool

	Stereo stereo.Reading

	Weighted bool
}

// Engine runs the measurement pipeline. A single writer feeds audio,
// any number of readers take snapshots.
type Engine struct {
	mu sync.RWMutex

	sampleRate float64
	weighted   bool

	filter *kweighting.Filter
	meter  *loudness.Meter
	field  *stereo.Analyzer
	peakL  *truepeak.Estimator
	peakR  *truepeak.Estimator
	bands  *spectral.Analyzer

	mono    []float64
	samples int64
}

// New creates an engine. The weighting mode and oversampling factor
// are fixed at construction.
func New(opts ...Option) (*Engine, error) {
	cfg := DefaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	meter, err := loudness.NewMeter(
		loudness.WithSampleRate(cfg.SampleRate),
		loudness.WithBlockSize(cfg.BlockSize),
		loudness.WithMaxSessionSeconds(cfg.MaxSessionSeconds),
	)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	e := &Engine{
		sampleRate: cfg.SampleRate,
		weighted:   cfg.KWeighting,
		meter:      meter,
		field:      stereo.NewAnalyzer(),
		mono:       make([]float64, cfg.BlockSize),
	}

	if cfg.KWeighting {
		e.filter, err = kweighting.New(cfg.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
	}

	// Interpolation filter state is per stream, so oversampled peak
	// detection needs one estimator per channel.
	peakOpts := []truepeak.Option{}
	if cfg.TruePeakOversampling > 1 {
		peakOpts = append(peakOpts, truepeak.WithOversampling(cfg.TruePeakOversampling))
	}

	if e.peakL, err = truepeak.New(peakOpts...); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	if e.peakR, err = truepeak.New(peakOpts...); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	if cfg.Spectrum {
		e.bands, err = spectral.New(spectral.WithSampleRate(cfg.SampleRate))
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
	}

	return e, nil
}

// SampleRate returns the configured sample rate.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// Weighted reports whether the BS.1770 pre-filter is applied.
func (e *Engine) Weighted() bool { return e.weighted }

// ProcessBlock feeds one stereo block. Channels of unequal length are
// truncated to the shorter one. Peak and stereo analysis see the raw
// samples; loudness sees the (optionally weighted) mono mixdown.
func (e *Engine) ProcessBlock(left, right []float64) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}

	if n == 0 {
		return
	}

	left, right = left[:n], right[:n]

	e.mu.Lock()
	defer e.mu.Unlock()

	e.peakL.Observe(left)
	e.peakR.Observe(right)
	e.field.Process(left, right)

	if cap(e.mono) < n {
		e.mono = make([]float64, n)
	}

	e.mono = e.mono[:n]
	for i := range e.mono {
		e.mono[i] = (left[i] + right[i]) / 2
	}

	e.measureMono()
}

// ProcessMono feeds one mono block. The stereo field is left untouched.
func (e *Engine) ProcessMono(block []float64) {
	if len(block) == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.peakL.Observe(block)

	if cap(e.mono) < len(block) {
		e.mono = make([]float64, len(block))
	}

	e.mono = e.mono[:len(block)]
	copy(e.mono, block)

	e.measureMono()
}

// measureMono consumes e.mono, which it is free to overwrite.
// Callers hold the write lock.
func (e *Engine) measureMono() {
	if e.bands != nil {
		e.bands.Process(e.mono)
	}

	if e.filter != nil {
		e.filter.ProcessBlock(e.mono)
	}

	e.meter.ProcessBlock(e.mono)
	e.samples += int64(len(e.mono))
}

// Snapshot returns the current readings. Pure: repeated calls without
// intervening audio return identical values.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	lra, ok := e.meter.Range()

	return Snapshot{
		Momentary:  e.meter.Momentary(),
		ShortTerm:  e.meter.ShortTerm(),
		Integrated: e.meter.Integrated(),
		TruePeakDB: math.Max(e.peakL.PeakDB(), e.peakR.PeakDB()),
		LRA:        lra,
		LRAValid:   ok,
		Stereo:     e.field.Latest(),
		Weighted:   e.weighted,
	}
}

// SamplesProcessed returns the number of mono samples measured since
// construction or the last Reset.
func (e *Engine) SamplesProcessed() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.samples
}

// SpectrumBands returns the current log-spaced band levels in dB, or an
// error when the engine was built without WithSpectrum.
func (e *Engine) SpectrumBands() ([]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.bands == nil {
		return nil, fmt.Errorf("engine: spectrum analysis not enabled")
	}

	return e.bands.Bands()
}

// Reset atomically clears every component back to its idle state.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.filter != nil {
		e.filter.Reset()
	}

	e.meter.Reset()
	e.field.Reset()
	e.peakL.Reset()
	e.peakR.Reset()

	if e.bands != nil {
		e.bands.Reset()
	}

	e.samples = 0
}
