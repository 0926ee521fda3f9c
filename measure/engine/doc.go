// Package engine composes the full measurement pipeline behind a single
// real-time safe facade: K-weighting, BS.1770 loudness, true peak and
// stereo field analysis, with an optional lazy spectrum analyzer.
//
// One goroutine (the audio thread) feeds blocks through ProcessBlock or
// ProcessMono; any number of reader goroutines may call Snapshot
// concurrently. Snapshot never mutates measurement state, so polling it
// at UI rate is free of audio-side effects.
package engine
