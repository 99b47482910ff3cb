package vector

import (
	"math"

	"github.com/watermann420/musicengine-go/internal/midiutil"
)

// renderParams is the per-buffer snapshot of global synth state handed
// to every voice. Voices never hold a reference back to the synth;
// everything they read per frame arrives through this value.
type renderParams struct {
	sampleRate  float64
	dt          float64
	vectorX     float64
	vectorY     float64
	tempo       float64
	speedMod    float64 // updated per frame from the speed LFO
	cutoff    float64
	resonance float64
	envAmount float64
	tables    []*Wavetable
	seqs      *[NumSequences]*Sequence
}

// seqCursor is the per-voice traversal state for one of the four
// sequences: where we are, how long we have been there, and how far the
// crossfade from the previous step has come.
type seqCursor struct {
	index   int
	elapsed float64
	dir     int     // ping-pong direction, +1 or -1
	fade    float64 // crossfade progress into the current step [0,1]
	prev    Step    // snapshot kept while fading out
	hasPrev bool
}

type voice struct {
	active   bool
	note     int
	velocity float64 // [0,1]
	baseFreq float64
	trigger  uint64 // render frame count at note-on, for age-based stealing
	modWheel float64
	phase    float64 // one phase accumulator shared by all four sequences
	amp      envelope
	filter   envelope
	lowpass  float64
	cursors  [NumSequences]seqCursor
}

// vectorGains returns the bilinear blend weights for the four sequence
// corners. The weights sum to 1 for any position in the unit square.
func vectorGains(x, y float64) [4]float64 {
	x = clamp(x, 0, 1)
	y = clamp(y, 0, 1)
	return [4]float64{
		(1 - x) * (1 - y),
		x * (1 - y),
		(1 - x) * y,
		x * y,
	}
}

func panGains(pan float64) (left, right float64) {
	if pan <= 0 {
		return 1, 1 + pan
	}
	return 1 - pan, 1
}

func (v *voice) noteOn(note, velocity int, modWheel float64, amp, filt EnvelopeParams, seqs *[NumSequences]*Sequence, stamp uint64) {
	v.active = true
	v.note = note
	v.velocity = float64(velocity) / 127
	v.baseFreq = midiutil.NoteToFreq(note)
	v.trigger = stamp
	v.modWheel = modWheel
	v.amp.trigger(amp)
	v.filter.trigger(filt)
	for i := range v.cursors {
		c := &v.cursors[i]
		if q := seqs[i]; q != nil {
			if q.GateMode {
				c.index = q.startStep(v.velocity, modWheel)
			} else {
				// Free-running: keep the position from the last note.
				c.index = q.clampIndex(c.index)
			}
		}
		c.elapsed = 0
		c.fade = 1
		c.dir = 1
		c.hasPrev = false
	}
}

func (v *voice) noteOff() {
	v.amp.release()
	v.filter.release()
}

// amplitude is the voice's audible weight, used by the Quietest steal policy.
func (v *voice) amplitude() float64 {
	return v.amp.value * v.velocity
}

// renderFrame produces one stereo sample. All global state is read from
// the snapshot; the only mutation is the voice's own runtime state.
func (v *voice) renderFrame(p *renderParams) (float64, float64) {
	if !v.active {
		return 0, 0
	}
	ampVal := v.amp.step(p.dt)
	if !v.amp.active() {
		v.active = false
		return 0, 0
	}
	filtVal := v.filter.step(p.dt)

	gains := vectorGains(p.vectorX, p.vectorY)

	var mix, pan float64
	freqSum := v.baseFreq
	activeSeqs := 0
	for i := range v.cursors {
		q := p.seqs[i]
		if q == nil || len(q.Steps) == 0 {
			continue
		}
		c := &v.cursors[i]
		v.advanceCursor(c, q, p)
		cur := q.Steps[q.clampIndex(c.index)]
		if !cur.Enabled {
			continue
		}
		sig, sp := v.stepSignal(c, cur, p.tables)
		mix += sig * gains[i]
		pan += sp * gains[i]
		freqSum += gains[i] * v.baseFreq * math.Pow(2, cur.Pitch/12)
		activeSeqs++
	}

	// Historical pitch rule: the unweighted base frequency is always
	// averaged in alongside the weighted per-sequence pitches.
	freq := freqSum / float64(activeSeqs+1)
	v.phase += freq * p.dt
	for v.phase >= 1 {
		v.phase--
	}
	for v.phase < 0 {
		v.phase++
	}

	// One-pole lowpass with an exponential 20 Hz..20 kHz cutoff sweep.
	// Resonance boosts the input against the filter state rather than
	// feeding back through a second pole.
	cut := clamp(p.cutoff+filtVal*p.envAmount, 0, 1)
	hz := 20 * math.Pow(1000, cut)
	if maxHz := p.sampleRate / 2 * 0.45; hz > maxHz {
		hz = maxHz
	}
	rc := 1 / (twoPi * hz)
	alpha := p.dt / (rc + p.dt)
	in := mix + p.resonance*(mix-v.lowpass)
	v.lowpass += alpha * (in - v.lowpass)

	out := v.lowpass * ampVal * v.velocity
	left, right := panGains(clamp(pan, -1, 1))
	return out * left, out * right
}

// advanceCursor runs the per-frame step state machine for one sequence:
// crossfade timing first, then the step timer and the traversal policy.
func (v *voice) advanceCursor(c *seqCursor, q *Sequence, p *renderParams) {
	c.index = q.clampIndex(c.index)
	dur := q.stepDuration(c.index, p.tempo, p.speedMod)

	if c.fade < 1 {
		fadeDur := q.Steps[c.index].Crossfade / 100 * dur
		if fadeDur <= 0 {
			c.fade = 1
		} else {
			c.fade += p.dt / fadeDur
			if c.fade > 1 {
				c.fade = 1
			}
		}
	}

	if dur <= 0 {
		// Zero-length step: move on once per rendered frame so a
		// degenerate sequence can never spin the render thread.
		c.prev = q.Steps[c.index]
		c.hasPrev = true
		c.fade = 1
		c.elapsed = 0
		c.index, c.dir = q.advance(c.index, c.dir)
		return
	}

	c.elapsed += p.dt
	if c.elapsed >= dur {
		c.elapsed -= dur
		c.prev = q.Steps[c.index]
		c.hasPrev = true
		c.fade = 0
		c.index, c.dir = q.advance(c.index, c.dir)
	}
}

// stepSignal generates the current step's sample and pan, blending in
// the previous step while a crossfade is in progress.
func (v *voice) stepSignal(c *seqCursor, cur Step, tables []*Wavetable) (sig, pan float64) {
	curSig := cur.sample(v.phase, tables) * cur.Level
	if c.fade < 1 && c.hasPrev {
		t := smoothstep(c.fade)
		var prevSig float64
		if c.prev.Enabled {
			prevSig = c.prev.sample(v.phase, tables) * c.prev.Level
		}
		return prevSig*(1-t) + curSig*t, c.prev.Pan*(1-t) + cur.Pan*t
	}
	return curSig, cur.Pan
}
