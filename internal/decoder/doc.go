// Package decoder owns the PRT-7 frame interpreter.
//
// Ownership boundary:
// - session phase (awaiting start -> running -> finished)
// - applying frames to the rotor and message buffer
// - event emission to sinks
//
// A Session is single-threaded: lines are consumed, classified, parsed and
// applied strictly in arrival order. Line framing and device I/O are owned by
// the caller through LineSource.
package decoder
