// Package spectral computes magnitude spectra and log-spaced band levels
// from the most recent audio, for spectrum displays in the host UI.
//
// Process only copies samples into a bounded ring; the FFT runs lazily
// when a spectrum is requested, never per block. Rendering is the
// host's concern.
package spectral

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-mastering/dsp/core"
)

const (
	defaultFFTSize = 2048
	defaultBands   = 24
	minFFTSize     = 64

	bandFloorDB = -120.0
)

// Config defines analyzer settings.
type Config struct {
	core.ProcessorConfig

	FFTSize int
	Bands   int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ProcessorConfig: core.DefaultProcessorConfig(),
		FFTSize:         defaultFFTSize,
		Bands:           defaultBands,
	}
}

// WithSampleRate sets the sample rate used for band frequency mapping.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *Config) {
		cfg.SampleRate = sampleRate
	}
}

// WithFFTSize sets the FFT length. Must be a power of two >= 64.
func WithFFTSize(size int) Option {
	return func(cfg *Config) {
		cfg.FFTSize = size
	}
}

// WithBands sets the number of log-spaced bands reported by Bands.
func WithBands(n int) Option {
	return func(cfg *Config) {
		cfg.Bands = n
	}
}

// Analyzer holds the most recent FFTSize mono samples and derives
// magnitude spectra from them on demand.
type Analyzer struct {
	sampleRate float64
	fftSize    int
	bands      int

	window []float64
	winSum float64

	ring []float64
	pos  int
	seen int

	plan   *algofft.Plan[complex128]
	in     []complex128
	out    []complex128
	re, im []float64
}

// New creates a spectral analyzer.
func New(opts ...Option) (*Analyzer, error) {
	cfg := DefaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.SampleRate <= 0 || math.IsNaN(cfg.SampleRate) || math.IsInf(cfg.SampleRate, 0) {
		return nil, fmt.Errorf("spectral: sample rate must be > 0 and finite: %f", cfg.SampleRate)
	}

	if cfg.FFTSize < minFFTSize || cfg.FFTSize&(cfg.FFTSize-1) != 0 {
		return nil, fmt.Errorf("spectral: FFT size must be a power of two >= %d: %d", minFFTSize, cfg.FFTSize)
	}

	if cfg.Bands < 1 {
		return nil, fmt.Errorf("spectral: band count must be >= 1: %d", cfg.Bands)
	}

	plan, err := algofft.NewPlan64(cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("spectral: %w", err)
	}

	a := &Analyzer{
		sampleRate: cfg.SampleRate,
		fftSize:    cfg.FFTSize,
		bands:      cfg.Bands,
		window:     hann(cfg.FFTSize),
		ring:       make([]float64, cfg.FFTSize),
		plan:       plan,
		in:         make([]complex128, cfg.FFTSize),
		out:        make([]complex128, cfg.FFTSize),
		re:         make([]float64, cfg.FFTSize/2+1),
		im:         make([]float64, cfg.FFTSize/2+1),
	}

	for _, w := range a.window {
		a.winSum += w
	}

	return a, nil
}

// SampleRate returns the configured sample rate.
func (a *Analyzer) SampleRate() float64 { return a.sampleRate }

// FFTSize returns the FFT length.
func (a *Analyzer) FFTSize() int { return a.fftSize }

// Filled reports whether a full FFT window of samples has arrived since
// construction or the last Reset.
func (a *Analyzer) Filled() bool { return a.seen >= a.fftSize }

// Process copies one mono block into the analysis ring. O(len(block)),
// no transform work happens here.
func (a *Analyzer) Process(block []float64) {
	for _, s := range block {
		a.ring[a.pos] = s
		a.pos = (a.pos + 1) % len(a.ring)
	}

	a.seen += len(block)
	if a.seen > a.fftSize {
		a.seen = a.fftSize
	}
}

// Spectrum computes the single-sided magnitude spectrum of the most
// recent FFTSize samples (Hann-windowed, normalized so a full-scale
// sine reads ~1.0 at its bin). The result has FFTSize/2+1 bins.
func (a *Analyzer) Spectrum() ([]float64, error) {
	for i := range a.fftSize {
		a.in[i] = complex(a.ring[(a.pos+i)%len(a.ring)]*a.window[i], 0)
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		return nil, fmt.Errorf("spectral: %w", err)
	}

	bins := a.fftSize/2 + 1
	for i := range bins {
		a.re[i] = real(a.out[i])
		a.im[i] = imag(a.out[i])
	}

	mags := make([]float64, bins)
	vecmath.Magnitude(mags, a.re[:bins], a.im[:bins])

	// Single-sided amplitude normalization for the windowed transform.
	scale := 2 / a.winSum
	for i := range mags {
		mags[i] *= scale
	}

	return mags, nil
}

// BinFrequency returns the center frequency of spectrum bin i in Hz.
func (a *Analyzer) BinFrequency(i int) float64 {
	return float64(i) * a.sampleRate / float64(a.fftSize)
}

// Bands reduces the current spectrum to log-spaced band levels in dB,
// spanning 20 Hz to Nyquist. Empty bands report the floor level.
func (a *Analyzer) Bands() ([]float64, error) {
	mags, err := a.Spectrum()
	if err != nil {
		return nil, err
	}

	nyquist := a.sampleRate / 2
	lowEdge := 20.0
	ratio := math.Pow(nyquist/lowEdge, 1/float64(a.bands))

	levels := make([]float64, a.bands)

	for b := range a.bands {
		lo := lowEdge * math.Pow(ratio, float64(b))
		hi := lo * ratio

		var (
			power float64
			count int
		)

		for i, m := range mags {
			f := a.BinFrequency(i)
			if f >= lo && f < hi {
				power += m * m
				count++
			}
		}

		if count == 0 {
			levels[b] = bandFloorDB
			continue
		}

		levels[b] = math.Max(bandFloorDB, core.LinearPowerToDB(power/float64(count)))
	}

	return levels, nil
}

// Reset clears the sample ring.
func (a *Analyzer) Reset() {
	for i := range a.ring {
		a.ring[i] = 0
	}

	a.pos = 0
	a.seen = 0
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}

	return w
}
