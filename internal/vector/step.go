package vector

import "math"

// Waveform selects the signal source for a step.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
	WaveTriangle
	WaveTable
)

// Step is one unit of a wave sequence. Steps are plain values: assigning
// a Step copies it fully, which is what retains the previous step during
// a crossfade without aliasing.
type Step struct {
	Waveform  Waveform
	Table     int     // wavetable index when Waveform is WaveTable
	TablePos  float64 // position within the table [0,1]
	Duration  float64 // beats or milliseconds, per the owning sequence's duration mode
	Pitch     float64 // offset in semitones
	Level     float64 // [0,1]
	Pan       float64 // [-1,1]
	Crossfade float64 // percent of the step duration spent fading in [0,100]
	Enabled   bool
}

// DefaultStep returns a one-beat full-level sine step.
func DefaultStep() Step {
	return Step{Waveform: WaveSine, Duration: 1, Level: 1, Crossfade: 0, Enabled: true}
}

// sample generates the step's waveform at the given phase [0,1).
func (s Step) sample(phase float64, tables []*Wavetable) float64 {
	switch s.Waveform {
	case WaveSine:
		return math.Sin(twoPi * phase)
	case WaveSaw:
		return 1 - 2*phase
	case WaveSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case WaveTriangle:
		return triangleAt(phase)
	case WaveTable:
		if s.Table < 0 || s.Table >= len(tables) {
			return 0
		}
		return tables[s.Table].Sample(phase, s.TablePos)
	}
	return 0
}

// smoothstep maps a linear crossfade progress to an S-curve with zero
// slope at both ends.
func smoothstep(t float64) float64 {
	t = clamp(t, 0, 1)
	return t * t * (3 - 2*t)
}
