package vector

// EnvelopeParams holds ADSR timing. Voices snapshot these at trigger
// time, so edits to the synth's globals never bend a note in flight.
type EnvelopeParams struct {
	AttackSec  float64
	DecaySec   float64
	SustainLvl float64 // [0,1]
	ReleaseSec float64
}

type envStage int

const (
	stageIdle envStage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

// envIdleEpsilon is the level below which a releasing envelope is idle.
const envIdleEpsilon = 1e-4

type envelope struct {
	params    EnvelopeParams
	stage     envStage
	value     float64
	releaseAt float64 // level captured when release began
}

// trigger starts the attack stage. The current level is kept so a
// retriggered voice ramps from where it was instead of clicking to zero.
func (e *envelope) trigger(p EnvelopeParams) {
	e.params = p
	e.stage = stageAttack
}

func (e *envelope) release() {
	if e.stage == stageIdle || e.stage == stageRelease {
		return
	}
	e.stage = stageRelease
	e.releaseAt = e.value
}

func (e *envelope) active() bool { return e.stage != stageIdle }

// step advances the envelope by dt seconds and returns the new level.
func (e *envelope) step(dt float64) float64 {
	switch e.stage {
	case stageAttack:
		if e.params.AttackSec <= 0 {
			e.value = 1
		} else {
			e.value += dt / e.params.AttackSec
		}
		if e.value >= 1 {
			e.value = 1
			e.stage = stageDecay
		}
	case stageDecay:
		sus := clamp(e.params.SustainLvl, 0, 1)
		if e.params.DecaySec <= 0 {
			e.value = sus
		} else {
			e.value -= (1 - sus) * dt / e.params.DecaySec
		}
		if e.value <= sus {
			e.value = sus
			e.stage = stageSustain
		}
	case stageSustain:
		e.value = clamp(e.params.SustainLvl, 0, 1)
	case stageRelease:
		if e.params.ReleaseSec <= 0 {
			e.value = 0
		} else {
			ref := e.releaseAt
			if ref <= 0 {
				ref = 1
			}
			e.value -= ref * dt / e.params.ReleaseSec
		}
		if e.value <= envIdleEpsilon {
			e.value = 0
			e.stage = stageIdle
		}
	case stageIdle:
		e.value = 0
	}
	return e.value
}
