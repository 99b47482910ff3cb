package vector

import (
	"math"
	"math/rand"
)

// LoopMode selects how a sequence traverses its steps.
type LoopMode int

const (
	LoopForward LoopMode = iota
	LoopReverse
	LoopPingPong
	LoopRandom
	LoopOneShot
)

// DurationMode selects how step durations are interpreted.
type DurationMode int

const (
	DurationBeats DurationMode = iota
	DurationMillis
)

// MaxSteps bounds a sequence's step list.
const MaxSteps = 64

// Sequence is an ordered, bounded list of steps plus the traversal
// policy for them. Four sequences (A..D) exist per synth; the host may
// mutate them between notes.
type Sequence struct {
	Steps       []Step
	Loop        LoopMode
	DurMode     DurationMode
	LoopStart   int
	LoopEnd     int     // -1 means the last step
	GateMode    bool    // reset the step position on every note-on
	VelocityMod float64 // velocity-to-start-step depth [0,1]
	ModWheelMod float64 // mod-wheel-to-start-step depth [0,1]
}

// NewSequence returns a single-step forward sequence in beats mode.
func NewSequence() *Sequence {
	return &Sequence{
		Steps:   []Step{DefaultStep()},
		Loop:    LoopForward,
		DurMode: DurationBeats,
		LoopEnd: -1,
	}
}

// AppendStep adds a step, silently refusing past MaxSteps.
func (q *Sequence) AppendStep(s Step) {
	if len(q.Steps) >= MaxSteps {
		return
	}
	q.Steps = append(q.Steps, s)
}

func (q *Sequence) clampIndex(i int) int {
	if len(q.Steps) == 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= len(q.Steps) {
		return len(q.Steps) - 1
	}
	return i
}

// loopBounds resolves the loop window against the current step count.
func (q *Sequence) loopBounds() (lo, hi int) {
	n := len(q.Steps)
	if n == 0 {
		return 0, 0
	}
	lo = q.LoopStart
	if lo < 0 {
		lo = 0
	}
	if lo > n-1 {
		lo = n - 1
	}
	hi = q.LoopEnd
	if hi < 0 || hi > n-1 {
		hi = n - 1
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// advance returns the next step index and ping-pong direction after the
// current step completes.
func (q *Sequence) advance(index, dir int) (int, int) {
	n := len(q.Steps)
	if n == 0 {
		return 0, 1
	}
	lo, hi := q.loopBounds()
	if dir == 0 {
		dir = 1
	}
	switch q.Loop {
	case LoopForward:
		index++
		if index > hi {
			index = lo
		}
	case LoopReverse:
		index--
		if index < lo {
			index = hi
		}
	case LoopPingPong:
		index += dir
		if index >= hi {
			index = hi
			dir = -1
		}
		if index <= lo {
			index = lo
			dir = 1
		}
	case LoopRandom:
		index = lo + rand.Intn(hi-lo+1)
	case LoopOneShot:
		if index < n-1 {
			index++
		}
	}
	return q.clampIndex(index), dir
}

// startStep computes the note-on start position for a gated sequence
// from the note velocity fraction [0,1] and the mod wheel [0,1].
func (q *Sequence) startStep(velFrac, modWheel float64) int {
	n := len(q.Steps)
	if n <= 1 {
		return 0
	}
	amount := velFrac*q.VelocityMod + modWheel*q.ModWheelMod
	idx := int(math.Round(amount * float64(n-1)))
	return q.clampIndex(idx)
}

// stepDuration returns the wall-clock length in seconds of the given
// step under the supplied tempo and speed modifier. Zero and negative
// durations are reported as 0; callers treat such steps as instantaneous.
func (q *Sequence) stepDuration(index int, tempo, speedMod float64) float64 {
	if len(q.Steps) == 0 {
		return 0
	}
	d := q.Steps[q.clampIndex(index)].Duration
	if d <= 0 {
		return 0
	}
	if speedMod < minSpeedModifier {
		speedMod = minSpeedModifier
	}
	if q.DurMode == DurationMillis {
		return d / 1000 / speedMod
	}
	if tempo <= 0 {
		tempo = defaultTempo
	}
	return d / (tempo / 60) / speedMod
}

// minSpeedModifier floors the speed-LFO modifier so a deep LFO cannot
// slow sequences toward a standstill.
const minSpeedModifier = 0.1
