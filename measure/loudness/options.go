package loudness

import "github.com/cwbudde/algo-mastering/dsp/core"

// MeterConfig defines configuration for the loudness meter.
type MeterConfig struct {
	core.ProcessorConfig

	// MaxSessionSeconds bounds the gating history used for integrated
	// loudness. Older blocks are evicted FIFO once the bound is reached.
	MaxSessionSeconds float64
}

// MeterOption mutates a MeterConfig.
type MeterOption func(*MeterConfig)

// DefaultMeterConfig returns sensible defaults.
func DefaultMeterConfig() MeterConfig {
	return MeterConfig{
		ProcessorConfig:   core.DefaultProcessorConfig(),
		MaxSessionSeconds: maxSessionDuration,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) MeterOption {
	return func(cfg *MeterConfig) {
		cfg.SampleRate = sampleRate
	}
}

// WithBlockSize sets the number of samples delivered per processing tick.
func WithBlockSize(blockSize int) MeterOption {
	return func(cfg *MeterConfig) {
		cfg.BlockSize = blockSize
	}
}

// WithMaxSessionSeconds bounds the integrated-loudness gating history.
func WithMaxSessionSeconds(seconds float64) MeterOption {
	return func(cfg *MeterConfig) {
		if seconds > 0 {
			cfg.MaxSessionSeconds = seconds
		}
	}
}

// ApplyMeterOptions applies zero or more options to the default config.
func ApplyMeterOptions(opts ...MeterOption) MeterConfig {
	cfg := DefaultMeterConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
