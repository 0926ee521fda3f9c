package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	cases := []struct {
		name            string
		value, min, max float64
		want            float64
	}{
		{"inside", 0.5, -1, 1, 0.5},
		{"below", -2, -1, 1, -1},
		{"above", 2, -1, 1, 1},
		{"swapped bounds", 2, 1, -1, 1},
		{"at lower", -1, -1, 1, -1},
		{"at upper", 1, -1, 1, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Clamp(tc.value, tc.min, tc.max)
			if got != tc.want {
				t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tc.value, tc.min, tc.max, got, tc.want)
			}
		})
	}
}

func TestNearlyEqual(t *testing.T) {
	if !NearlyEqual(1.0, 1.0+1e-13, 1e-12) {
		t.Error("values within eps should compare equal")
	}

	if NearlyEqual(1.0, 1.1, 1e-12) {
		t.Error("distant values should not compare equal")
	}

	if !NearlyEqual(0, 0, 0) {
		t.Error("zero eps should fall back to the default epsilon")
	}
}

func TestDBConversions(t *testing.T) {
	if got := DBToLinear(0); got != 1 {
		t.Errorf("DBToLinear(0) = %v, want 1", got)
	}

	if got := LinearToDB(1); got != 0 {
		t.Errorf("LinearToDB(1) = %v, want 0", got)
	}

	if got := LinearToDB(0); !math.IsInf(got, -1) {
		t.Errorf("LinearToDB(0) = %v, want -Inf", got)
	}

	if got := LinearToDB(-1); !math.IsNaN(got) {
		t.Errorf("LinearToDB(-1) = %v, want NaN", got)
	}

	// 20 dB is a factor of 10 in amplitude.
	if got := DBToLinear(20); !NearlyEqual(got, 10, 1e-12) {
		t.Errorf("DBToLinear(20) = %v, want 10", got)
	}
}

func TestDBPowerConversions(t *testing.T) {
	// 10 dB is a factor of 10 in power.
	if got := DBPowerToLinear(10); !NearlyEqual(got, 10, 1e-12) {
		t.Errorf("DBPowerToLinear(10) = %v, want 10", got)
	}

	if got := LinearPowerToDB(0); !math.IsInf(got, -1) {
		t.Errorf("LinearPowerToDB(0) = %v, want -Inf", got)
	}

	if got := LinearPowerToDB(-1); !math.IsNaN(got) {
		t.Errorf("LinearPowerToDB(-1) = %v, want NaN", got)
	}

	// -Inf dB must round-trip to exactly zero power, not underflow garbage.
	if got := DBPowerToLinear(math.Inf(-1)); got != 0 {
		t.Errorf("DBPowerToLinear(-Inf) = %v, want 0", got)
	}
}

func TestProcessorOptions(t *testing.T) {
	cfg := ApplyProcessorOptions()
	if cfg.SampleRate != 48000 || cfg.BlockSize != 1024 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	cfg = ApplyProcessorOptions(WithSampleRate(44100), WithBlockSize(512))
	if cfg.SampleRate != 44100 || cfg.BlockSize != 512 {
		t.Fatalf("options not applied: %+v", cfg)
	}

	// Invalid values leave the defaults untouched.
	cfg = ApplyProcessorOptions(WithSampleRate(-1), WithBlockSize(0), nil)
	if cfg.SampleRate != 48000 || cfg.BlockSize != 1024 {
		t.Fatalf("invalid options should be ignored: %+v", cfg)
	}
}
