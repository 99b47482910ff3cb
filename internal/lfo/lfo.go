// Package lfo provides the low-frequency oscillator used to modulate
// sequence playback speed. One instance is shared by every voice.
package lfo

import "math"

// Waveform selects the LFO shape.
type Waveform int

const (
	Saw Waveform = iota
	Square
	Triangle
	SampleHold
)

// LFO produces one modulation value per audio frame in [-depth, +depth].
// The zero value is inactive.
type LFO struct {
	depth    float64
	rateHz   float64
	waveform Waveform
	phase    float64 // [0,1)
	held     float64 // sample-and-hold value, refreshed each cycle
}

// New returns an LFO with the given depth, rate and shape.
func New(depth, rateHz float64, waveform Waveform) *LFO {
	l := &LFO{}
	l.Set(depth, rateHz, waveform)
	return l
}

// Set reconfigures the LFO without resetting its phase.
func (l *LFO) Set(depth, rateHz float64, waveform Waveform) {
	l.depth = depth
	l.rateHz = rateHz
	if waveform < Saw || waveform > SampleHold {
		waveform = Triangle
	}
	l.waveform = waveform
}

// Active reports whether the LFO produces non-zero output.
func (l *LFO) Active() bool {
	return l.depth != 0 && l.rateHz != 0
}

// Reset zeros the phase and the held sample.
func (l *LFO) Reset() {
	l.phase = 0
	l.held = 0
}

// Sample advances the LFO by one frame and returns its value. A zero
// depth, rate or sample rate yields 0.
func (l *LFO) Sample(sampleRate float64) float64 {
	if !l.Active() || sampleRate <= 0 {
		return 0
	}

	var v float64
	switch l.waveform {
	case Saw:
		v = 1 - 2*l.phase
	case Square:
		if l.phase < 0.5 {
			v = 1
		} else {
			v = -1
		}
	case SampleHold:
		v = l.held
	default: // Triangle
		if l.phase < 0.5 {
			v = 4*l.phase - 1
		} else {
			v = 3 - 4*l.phase
		}
	}

	prev := l.phase
	l.phase += l.rateHz / sampleRate
	for l.phase >= 1 {
		l.phase -= 1
	}
	if l.waveform == SampleHold && l.phase < prev {
		// New held value at each cycle boundary, hashed from the old
		// one so the sequence is repeatable.
		h := math.Sin(l.phase*12345.6789 + l.held*67890.1234)
		h -= math.Floor(h)
		l.held = h*2 - 1
	}

	return v * l.depth
}
