package loudness

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-mastering/internal/testutil"
)

func newTestMeter(t *testing.T, opts ...MeterOption) *Meter {
	t.Helper()

	m, err := NewMeter(opts...)
	if err != nil {
		t.Fatal(err)
	}

	return m
}

func TestNewMeter_ConfigurationErrors(t *testing.T) {
	if _, err := NewMeter(WithSampleRate(0)); !errors.Is(err, ErrInvalidSampleRate) {
		t.Errorf("zero sample rate: got %v, want ErrInvalidSampleRate", err)
	}

	if _, err := NewMeter(WithSampleRate(math.NaN())); !errors.Is(err, ErrInvalidSampleRate) {
		t.Errorf("NaN sample rate: got %v, want ErrInvalidSampleRate", err)
	}

	if _, err := NewMeter(WithBlockSize(-1)); !errors.Is(err, ErrInvalidBlockSize) {
		t.Errorf("negative block size: got %v, want ErrInvalidBlockSize", err)
	}
}

func TestMeanSquare(t *testing.T) {
	if got := MeanSquare(nil); got != 0 {
		t.Errorf("MeanSquare(nil) = %v, want 0", got)
	}

	if got := MeanSquare(testutil.DC(0.5, 128)); got != 0.25 {
		t.Errorf("MeanSquare(DC 0.5) = %v, want 0.25", got)
	}
}

func TestBlockLoudness(t *testing.T) {
	// Unity mean square sits at the BS.1770 offset.
	if got := BlockLoudness(1); math.Abs(got-(-0.691)) > 1e-12 {
		t.Errorf("BlockLoudness(1) = %v, want -0.691", got)
	}

	if got := BlockLoudness(0); !math.IsInf(got, -1) {
		t.Errorf("BlockLoudness(0) = %v, want -Inf", got)
	}

	if got := BlockLoudness(-0.1); !math.IsInf(got, -1) {
		t.Errorf("BlockLoudness(-0.1) = %v, want -Inf", got)
	}
}

func TestMeter_Silence(t *testing.T) {
	m := newTestMeter(t, WithSampleRate(48000), WithBlockSize(4800))

	// An extended all-silent session.
	for range 400 {
		m.ProcessBlock(testutil.Silence(4800))
	}

	if !math.IsInf(m.Momentary(), -1) {
		t.Errorf("Momentary = %v, want -Inf", m.Momentary())
	}

	if !math.IsInf(m.ShortTerm(), -1) {
		t.Errorf("ShortTerm = %v, want -Inf", m.ShortTerm())
	}

	if !math.IsInf(m.Integrated(), -1) {
		t.Errorf("Integrated = %v, want -Inf", m.Integrated())
	}

	if _, ok := m.Range(); ok {
		t.Error("Range should be undefined for silence")
	}
}

func TestMeter_EmptyReadings(t *testing.T) {
	m := newTestMeter(t)

	if !math.IsInf(m.Momentary(), -1) || !math.IsInf(m.ShortTerm(), -1) || !math.IsInf(m.Integrated(), -1) {
		t.Error("idle meter must report -Inf for all loudness readings")
	}

	if _, ok := m.Range(); ok {
		t.Error("idle meter must report undefined LRA")
	}
}

func TestMeter_SteadySine(t *testing.T) {
	fs := 48000.0
	blockSize := 4800
	m := newTestMeter(t, WithSampleRate(fs), WithBlockSize(blockSize))

	// Amplitude 1 sine: mean square 0.5, loudness -0.691 - 3.010 = -3.701.
	sig := testutil.DeterministicSine(1000, fs, 1.0, int(fs*4))
	for i := 0; i+blockSize <= len(sig); i += blockSize {
		m.ProcessBlock(sig[i : i+blockSize])
	}

	expected := -3.701
	tolerance := 0.05

	if got := m.Momentary(); math.Abs(got-expected) > tolerance {
		t.Errorf("Momentary = %v, want %v", got, expected)
	}

	if got := m.ShortTerm(); math.Abs(got-expected) > tolerance {
		t.Errorf("ShortTerm = %v, want %v", got, expected)
	}

	if got := m.Integrated(); math.Abs(got-expected) > tolerance {
		t.Errorf("Integrated = %v, want %v", got, expected)
	}
}

func TestMeter_PowerDomainAveraging(t *testing.T) {
	// Alternating -10 and -20 LUFS blocks. The arithmetic dB mean would
	// be -15; the required power-domain mean is
	// 10*log10((0.1+0.01)/2) = -12.5964.
	m := newTestMeter(t, WithSampleRate(48000), WithBlockSize(4800))

	for range 50 {
		m.Push(-10)
		m.Push(-20)
	}

	expected := -12.5964
	tolerance := 1e-3

	if got := m.Momentary(); math.Abs(got-expected) > tolerance {
		t.Errorf("Momentary = %v, want %v (power-domain mean)", got, expected)
	}

	if got := m.ShortTerm(); math.Abs(got-expected) > tolerance {
		t.Errorf("ShortTerm = %v, want %v (power-domain mean)", got, expected)
	}

	arithmeticMean := -15.0
	if got := m.Momentary(); math.Abs(got-arithmeticMean) < 0.5 {
		t.Errorf("Momentary = %v: decibel values must not be averaged arithmetically", got)
	}
}

func TestMeter_MomentaryWindowEvicts(t *testing.T) {
	// Block size 4800 @ 48 kHz means 100 ms blocks, so the momentary
	// window holds 4 blocks.
	m := newTestMeter(t, WithSampleRate(48000), WithBlockSize(4800))

	for range 4 {
		m.Push(-10)
	}

	for range 4 {
		m.Push(-20)
	}

	if got := m.Momentary(); math.Abs(got-(-20)) > 1e-9 {
		t.Errorf("Momentary = %v, want -20 after old blocks evicted", got)
	}
}

func TestMeter_AbsoluteGateIgnoresQuietTail(t *testing.T) {
	fs := 48000.0
	blockSize := 4800
	m := newTestMeter(t, WithSampleRate(fs), WithBlockSize(blockSize))

	loud := testutil.DeterministicSine(1000, fs, 1.0, int(fs*10))
	for i := 0; i+blockSize <= len(loud); i += blockSize {
		m.ProcessBlock(loud[i : i+blockSize])
	}

	beforeTail := m.Integrated()

	// A -80 dB tail falls below the -70 LUFS absolute gate.
	quiet := testutil.DeterministicSine(1000, fs, 0.0001, int(fs*10))
	for i := 0; i+blockSize <= len(quiet); i += blockSize {
		m.ProcessBlock(quiet[i : i+blockSize])
	}

	afterTail := m.Integrated()

	if math.Abs(beforeTail-afterTail) > 0.1 {
		t.Errorf("gating failed: integrated %v before tail, %v after", beforeTail, afterTail)
	}
}

func TestMeter_RelativeGate(t *testing.T) {
	m := newTestMeter(t, WithSampleRate(48000), WithBlockSize(4800))

	// 100 blocks at -10 LUFS and 10 blocks at -40 LUFS. The -40 blocks
	// pass the absolute gate but fall below the relative threshold
	// (~-20 LUFS), so integrated loudness stays at the loud level.
	for range 100 {
		m.Push(-10)
	}

	for range 10 {
		m.Push(-40)
	}

	if got := m.Integrated(); math.Abs(got-(-10)) > 0.1 {
		t.Errorf("Integrated = %v, want ~-10 (relative gate should drop -40 blocks)", got)
	}
}

func TestMeter_IntegratedBlockSizeInvariance(t *testing.T) {
	fs := 48000.0
	sig := testutil.DeterministicSine(997, fs, 0.7, int(fs*6))

	integratedFor := func(blockSize int) float64 {
		m := newTestMeter(t, WithSampleRate(fs), WithBlockSize(blockSize))
		for i := 0; i+blockSize <= len(sig); i += blockSize {
			m.ProcessBlock(sig[i : i+blockSize])
		}

		return m.Integrated()
	}

	a := integratedFor(480)
	b := integratedFor(1920)

	if math.Abs(a-b) > 0.05 {
		t.Errorf("integrated loudness depends on block size: %v vs %v", a, b)
	}
}

func TestMeter_Reset(t *testing.T) {
	m := newTestMeter(t, WithSampleRate(48000), WithBlockSize(4800))

	for range 600 {
		m.Push(-12)
	}

	if math.IsInf(m.Integrated(), -1) {
		t.Fatal("meter should have data before reset")
	}

	m.Reset()

	if !math.IsInf(m.Momentary(), -1) || !math.IsInf(m.ShortTerm(), -1) || !math.IsInf(m.Integrated(), -1) {
		t.Error("all readings must return to -Inf after Reset")
	}

	if _, ok := m.Range(); ok {
		t.Error("LRA must be undefined after Reset")
	}

	if m.LRASampleCount() != 0 {
		t.Errorf("LRASampleCount = %d after Reset, want 0", m.LRASampleCount())
	}
}
