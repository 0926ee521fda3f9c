// Package kweighting implements the ITU-R BS.1770-4 K-weighting
// pre-filter: a high-shelf stage modelling the acoustic effect of the
// head followed by a high-pass stage, applied to audio before loudness
// measurement.
//
// The filter is an optional pipeline stage. Feeding unweighted samples to
// the loudness meter still yields valid (but "basic", not K-weighted)
// readings; the engine records which mode is in use so the two are never
// mixed within a session.
package kweighting
