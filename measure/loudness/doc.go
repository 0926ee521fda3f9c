// Package loudness implements ITU-R BS.1770-4 streaming loudness
// measurement: per-block LUFS records, momentary (400 ms) and short-term
// (3 s) rolling windows, two-stage gated integrated loudness, and the
// EBU R128 loudness range (LRA).
//
// The meter consumes one block of samples per processing tick. Callers
// wanting K-weighted readings route blocks through
// dsp/filter/kweighting first; the meter itself is agnostic to whether
// its input was pre-weighted.
//
// Insufficient program material is a routine state, not an error:
// rolling averages report -Inf LUFS until data arrives, integrated
// loudness reports -Inf while every gating stage is empty, and LRA
// reports ok=false until enough short-term history exists.
package loudness
