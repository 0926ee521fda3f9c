package biquad

import (
	"math"
	"testing"
)

const eps = 1e-12

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

// identityCoeffs passes the input through unchanged.
func identityCoeffs() Coefficients {
	return Coefficients{B0: 1}
}

func TestSection_Identity(t *testing.T) {
	s := NewSection(identityCoeffs())

	input := []float64{1, 0.5, -0.3, 0.7, 0, -1}
	for i, x := range input {
		got := s.ProcessSample(x)
		if !almostEqual(got, x, eps) {
			t.Errorf("sample %d: got %v, want %v", i, got, x)
		}
	}
}

func TestSection_ImpulseResponse(t *testing.T) {
	// One-pole lowpass-like section: y[n] = 0.5*x[n] + 0.5*y[n-1].
	s := NewSection(Coefficients{B0: 0.5, A1: -0.5})

	want := []float64{0.5, 0.25, 0.125, 0.0625}

	for i, w := range want {
		x := 0.0
		if i == 0 {
			x = 1
		}

		got := s.ProcessSample(x)
		if !almostEqual(got, w, eps) {
			t.Errorf("impulse response [%d]: got %v, want %v", i, got, w)
		}
	}
}

func TestSection_ProcessBlock_MatchesSample(t *testing.T) {
	coeffs := Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}
	input := []float64{1, 0.5, -0.3, 0.7, 0, -1, 0.2, 0.8, -0.4}

	ref := NewSection(coeffs)
	refOut := make([]float64, len(input))
	for i, x := range input {
		refOut[i] = ref.ProcessSample(x)
	}

	s := NewSection(coeffs)
	block := make([]float64, len(input))
	copy(block, input)
	s.ProcessBlock(block)

	for i := range block {
		if !almostEqual(block[i], refOut[i], eps) {
			t.Errorf("sample %d: block=%.15f, ref=%.15f", i, block[i], refOut[i])
		}
	}

	if s.State() != ref.State() {
		t.Errorf("state mismatch: block=%v, ref=%v", s.State(), ref.State())
	}
}

func TestSection_ProcessBlockTo(t *testing.T) {
	coeffs := Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}
	input := []float64{1, 0.5, -0.3, 0.7, 0, -1}

	ref := NewSection(coeffs)
	refOut := make([]float64, len(input))
	for i, x := range input {
		refOut[i] = ref.ProcessSample(x)
	}

	s := NewSection(coeffs)
	dst := make([]float64, len(input))
	s.ProcessBlockTo(dst, input)

	for i := range dst {
		if !almostEqual(dst[i], refOut[i], eps) {
			t.Errorf("sample %d: got %.15f, want %.15f", i, dst[i], refOut[i])
		}
	}
}

func TestSection_Reset(t *testing.T) {
	s := NewSection(Coefficients{B0: 0.5, A1: -0.5})
	s.ProcessSample(1)

	if s.State() == [2]float64{} {
		t.Fatal("state should be non-zero after processing")
	}

	s.Reset()

	if s.State() != [2]float64{} {
		t.Fatalf("state after Reset: %v, want zero", s.State())
	}
}

func TestSection_SetState(t *testing.T) {
	s := NewSection(Coefficients{B0: 0.5, A1: -0.5})
	s.ProcessSample(1)
	saved := s.State()

	s2 := NewSection(Coefficients{B0: 0.5, A1: -0.5})
	s2.SetState(saved)

	// Both sections must now produce identical output.
	for i := range 8 {
		a := s.ProcessSample(0.1)

		b := s2.ProcessSample(0.1)
		if !almostEqual(a, b, eps) {
			t.Errorf("sample %d: %v != %v", i, a, b)
		}
	}
}
