package vector

import "math"

const twoPi = math.Pi * 2

// FrameSize is the number of samples in one factory wavetable frame.
const FrameSize = 2048

// Wavetable holds an ordered list of single-cycle waveform frames. The
// table is built once (factory tables at synth construction, or by the
// host) and is read-only during playback. All frames share one length.
type Wavetable struct {
	name     string
	frames   [][]float64
	frameLen int
}

// NewWavetable copies frames into a table. The first frame fixes the
// frame length; frames of a different length are dropped.
func NewWavetable(name string, frames [][]float64) *Wavetable {
	w := &Wavetable{name: name}
	for _, f := range frames {
		if len(f) == 0 {
			continue
		}
		if w.frameLen == 0 {
			w.frameLen = len(f)
		}
		if len(f) != w.frameLen {
			continue
		}
		cp := make([]float64, len(f))
		copy(cp, f)
		w.frames = append(w.frames, cp)
	}
	return w
}

func (w *Wavetable) Name() string    { return w.name }
func (w *Wavetable) FrameCount() int { return len(w.frames) }

// Sample reads the table at the given playback phase [0,1) and frame
// position [0,1]. The result is bilinear: adjacent frames are blended by
// the fractional frame position, and within each frame adjacent samples
// are blended by the fractional sample index (wrapping at the frame end).
// An empty table yields 0.
func (w *Wavetable) Sample(phase, framePos float64) float64 {
	n := len(w.frames)
	if n == 0 {
		return 0
	}
	framePos = clamp(framePos, 0, 1)
	fpos := framePos * float64(n-1)
	f0 := int(fpos)
	f1 := f0 + 1
	if f1 >= n {
		f1 = n - 1
	}
	ffrac := fpos - float64(f0)

	s0 := frameAt(w.frames[f0], phase)
	if ffrac == 0 || f0 == f1 {
		return s0
	}
	s1 := frameAt(w.frames[f1], phase)
	return s0*(1-ffrac) + s1*ffrac
}

func frameAt(frame []float64, phase float64) float64 {
	length := len(frame)
	phase = phase - math.Floor(phase)
	pos := phase * float64(length)
	i0 := int(pos)
	if i0 >= length {
		i0 = length - 1
	}
	i1 := (i0 + 1) % length
	frac := pos - float64(i0)
	return frame[i0]*(1-frac) + frame[i1]*frac
}

// FactoryTables builds the default wavetable library: a shape-morph table
// (sine through triangle, sawtooth and square) and an additive harmonic
// stack whose brightness grows with the frame position.
func FactoryTables() []*Wavetable {
	morph := [][]float64{
		renderFrame(func(p float64) float64 { return math.Sin(twoPi * p) }),
		renderFrame(triangleAt),
		renderFrame(func(p float64) float64 { return 1 - 2*p }),
		renderFrame(func(p float64) float64 {
			if p < 0.5 {
				return 1
			}
			return -1
		}),
	}

	var harmonics [][]float64
	for _, partials := range []int{1, 2, 4, 8, 16} {
		n := partials
		harmonics = append(harmonics, renderFrame(func(p float64) float64 {
			var v float64
			for k := 1; k <= n; k++ {
				v += math.Sin(twoPi*float64(k)*p) / float64(k)
			}
			return v * 0.6
		}))
	}

	return []*Wavetable{
		NewWavetable("morph", morph),
		NewWavetable("harmonics", harmonics),
	}
}

func renderFrame(f func(phase float64) float64) []float64 {
	out := make([]float64, FrameSize)
	for i := range out {
		out[i] = f(float64(i) / FrameSize)
	}
	return out
}

func triangleAt(p float64) float64 {
	if p < 0.5 {
		return 4*p - 1
	}
	return 3 - 4*p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
