package loudness

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-mastering/dsp/core"
)

const (
	// Integration window durations in seconds.
	momentaryDuration = 0.4
	shortTermDuration = 3.0

	// Gating parameters per BS.1770-4 / EBU R128.
	absGateLUFS       = -70.0
	relGateOffsetLU   = 10.0
	lraGateOffsetLU   = 20.0
	lraMinCount       = 10
	lraLowPercentile  = 0.10
	lraHighPercentile = 0.95

	// LRA operates on short-term readings sampled every ~3 s.
	lraSampleInterval = 3.0

	// Default bound on the gating history.
	maxSessionDuration = 600.0

	lufsOffset = -0.691
)

// ErrInvalidSampleRate indicates a non-positive or non-finite sample rate.
var ErrInvalidSampleRate = errInvalid("sample rate")

// ErrInvalidBlockSize indicates a non-positive block size.
var ErrInvalidBlockSize = errInvalid("block size")

type errInvalid string

func (e errInvalid) Error() string {
	return "loudness: invalid " + string(e)
}

// MeanSquare returns the average of squared samples. An empty block
// yields zero.
func MeanSquare(block []float64) float64 {
	if len(block) == 0 {
		return 0
	}

	sum := 0.0
	for _, s := range block {
		sum += s * s
	}

	return sum / float64(len(block))
}

// BlockLoudness converts a mean-square value to LUFS:
// -0.691 + 10*log10(meanSquare). Returns -Inf when meanSquare <= 0.
func BlockLoudness(meanSquare float64) float64 {
	if meanSquare <= 0 {
		return math.Inf(-1)
	}

	return lufsOffset + 10*math.Log10(meanSquare)
}

// Meter converts sample blocks into per-block LUFS records and maintains
// the bounded rolling histories behind momentary, short-term, integrated
// and loudness-range readings.
//
// The meter is single-writer: one goroutine pushes blocks. Readings are
// pure and may be taken at any cadence; composition with a lock for
// cross-goroutine snapshots lives in measure/engine.
type Meter struct {
	sampleRate float64
	blockSize  int

	momentary *lufsRing
	shortTerm *lufsRing
	gating    *lufsRing
	lra       *lufsRing

	blocksPerLRASample int
	blocksSinceLRA     int
}

// NewMeter creates a loudness meter. The sample rate and block size
// describe the host's delivery cadence and size the rolling windows;
// both must be valid at construction time.
func NewMeter(opts ...MeterOption) (*Meter, error) {
	cfg := ApplyMeterOptions(opts...)

	if cfg.SampleRate <= 0 || math.IsNaN(cfg.SampleRate) || math.IsInf(cfg.SampleRate, 0) {
		return nil, fmt.Errorf("%w: %f", ErrInvalidSampleRate, cfg.SampleRate)
	}

	if cfg.BlockSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, cfg.BlockSize)
	}

	blockDur := float64(cfg.BlockSize) / cfg.SampleRate

	blocksPer := func(seconds float64) int {
		n := int(math.Round(seconds / blockDur))
		if n < 1 {
			n = 1
		}

		return n
	}

	m := &Meter{
		sampleRate:         cfg.SampleRate,
		blockSize:          cfg.BlockSize,
		momentary:          newLufsRing(blocksPer(momentaryDuration)),
		shortTerm:          newLufsRing(blocksPer(shortTermDuration)),
		gating:             newLufsRing(blocksPer(cfg.MaxSessionSeconds)),
		lra:                newLufsRing(blocksPer(cfg.MaxSessionSeconds) / blocksPer(lraSampleInterval)),
		blocksPerLRASample: blocksPer(lraSampleInterval),
	}

	return m, nil
}

// SampleRate returns the configured sample rate.
func (m *Meter) SampleRate() float64 { return m.sampleRate }

// BlockSize returns the configured block size.
func (m *Meter) BlockSize() int { return m.blockSize }

// ProcessBlock summarizes one (optionally pre-weighted) sample block into
// a LUFS record and pushes it into the rolling histories.
func (m *Meter) ProcessBlock(block []float64) {
	m.Push(BlockLoudness(MeanSquare(block)))
}

// Push appends one per-block LUFS record. The record enters the
// momentary and short-term windows and the gating history; every ~3 s of
// pushed blocks the current short-term average is sampled into the LRA
// history. All four histories evict oldest-first at fixed capacity.
func (m *Meter) Push(lufs float64) {
	m.momentary.push(lufs)
	m.shortTerm.push(lufs)
	m.gating.push(lufs)

	m.blocksSinceLRA++
	if m.blocksSinceLRA >= m.blocksPerLRASample {
		m.blocksSinceLRA = 0
		m.lra.push(m.ShortTerm())
	}
}

// Momentary returns the power-domain average of the ~400 ms window in
// LUFS, or -Inf when no blocks have arrived.
func (m *Meter) Momentary() float64 {
	return m.momentary.powerMeanDB()
}

// ShortTerm returns the power-domain average of the ~3 s window in LUFS,
// or -Inf when no blocks have arrived.
func (m *Meter) ShortTerm() float64 {
	return m.shortTerm.powerMeanDB()
}

// Integrated computes gated integrated loudness over the session history:
// an absolute gate at -70 LUFS, then a relative gate 10 LU below the
// power average of the absolute-gate survivors. Returns -Inf whenever a
// stage leaves zero survivors; that sentinel is an expected early-session
// state, not an error.
func (m *Meter) Integrated() float64 {
	blocks := m.gating.snapshot()

	var (
		absSum   float64
		absCount int
	)

	for _, l := range blocks {
		if l > absGateLUFS {
			absSum += core.DBPowerToLinear(l)
			absCount++
		}
	}

	if absCount == 0 {
		return math.Inf(-1)
	}

	relThreshold := core.LinearPowerToDB(absSum/float64(absCount)) - relGateOffsetLU

	var (
		relSum   float64
		relCount int
	)

	for _, l := range blocks {
		if l > absGateLUFS && l > relThreshold {
			relSum += core.DBPowerToLinear(l)
			relCount++
		}
	}

	if relCount == 0 {
		return math.Inf(-1)
	}

	return core.LinearPowerToDB(relSum / float64(relCount))
}

// Range computes the EBU R128 loudness range in LU from the coarse
// short-term history. It reports ok=false until at least 10 samples
// survive every gating stage. The percentile sort runs only here, never
// per block.
func (m *Meter) Range() (lra float64, ok bool) {
	values := m.lra.snapshot()
	if len(values) < lraMinCount {
		return 0, false
	}

	var (
		survivors []float64
		powerSum  float64
	)

	for _, l := range values {
		if l > absGateLUFS {
			survivors = append(survivors, l)
			powerSum += core.DBPowerToLinear(l)
		}
	}

	if len(survivors) < lraMinCount {
		return 0, false
	}

	relThreshold := core.LinearPowerToDB(powerSum/float64(len(survivors))) - lraGateOffsetLU

	gated := survivors[:0]
	for _, l := range survivors {
		if l > relThreshold {
			gated = append(gated, l)
		}
	}

	if len(gated) < lraMinCount {
		return 0, false
	}

	sort.Float64s(gated)

	n := len(gated)
	low := gated[int(float64(n)*lraLowPercentile)]
	high := gated[int(float64(n)*lraHighPercentile)]

	return high - low, true
}

// LRASampleCount returns the number of recorded short-term samples in
// the loudness-range history.
func (m *Meter) LRASampleCount() int {
	return m.lra.len()
}

// Reset discards all history, returning every reading to its idle
// default.
func (m *Meter) Reset() {
	m.momentary.reset()
	m.shortTerm.reset()
	m.gating.reset()
	m.lra.reset()
	m.blocksSinceLRA = 0
}
