package vector

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/watermann420/musicengine-go/internal/midiutil"
)

// NumSequences is the number of wave sequences blended by the vector
// position (the A..D corners of the unit square).
const NumSequences = 4

const (
	defaultTempo = 120
	maxVoices    = 64
	minTempo     = 20
	maxTempo     = 300
)

// StealPolicy selects which sounding voice is reassigned when a note-on
// arrives with no free voice left.
type StealPolicy int

const (
	StealOldest StealPolicy = iota
	StealQuietest
	StealLowest
	StealHighest
	StealSameNote
	StealNone
)

// SpeedLFO is the optional external modulator for sequence playback
// speed. Sample must return a value in [-1,1].
type SpeedLFO interface {
	Active() bool
	Sample(sampleRate float64) float64
}

// Params configures a Synth at construction.
type Params struct {
	Voices     int
	Tempo      float64
	VectorX    float64
	VectorY    float64
	AmpEnv     EnvelopeParams
	FilterEnv  EnvelopeParams
	Cutoff     float64 // [0,1], exponential 20 Hz..20 kHz
	Resonance  float64 // [0,1]
	EnvAmount  float64 // [-1,1] filter envelope depth
	MasterGain float64
	Steal      StealPolicy
}

func DefaultParams() Params {
	return Params{
		Voices:     16,
		Tempo:      defaultTempo,
		AmpEnv:     EnvelopeParams{AttackSec: 0.005, DecaySec: 0.12, SustainLvl: 0.75, ReleaseSec: 0.2},
		FilterEnv:  EnvelopeParams{AttackSec: 0.01, DecaySec: 0.3, SustainLvl: 1, ReleaseSec: 0.2},
		Cutoff:     1,
		Resonance:  0,
		EnvAmount:  0,
		MasterGain: 0.5,
		Steal:      StealOldest,
	}
}

// Synth is the vector wave-sequencing engine: a fixed voice pool, the
// four shared sequences, the wavetable library and the global parameter
// surface. One mutex guards all of it; the whole per-buffer render runs
// inside the critical section so note events never mutate a voice
// mid-buffer.
type Synth struct {
	mu         sync.Mutex
	sampleRate float64
	voices     []voice
	notes      map[int]int // note number -> voice index
	seqs       [NumSequences]*Sequence
	tables     []*Wavetable

	vectorX    float64
	vectorY    float64
	tempo      float64
	ampEnv     EnvelopeParams
	filterEnv  EnvelopeParams
	cutoff     float64
	resonance  float64
	envAmount  float64
	modWheel   float64
	steal      StealPolicy
	speedLFO   SpeedLFO
	speedDepth float64

	masterGain uint64 // float64 bits, atomic
	frame      uint64 // frames rendered, the age stamp for stealing
	rp         renderParams
}

// New builds a synth with the factory wavetables and one default
// sequence per corner.
func New(sampleRate int, params Params) *Synth {
	if params.Voices <= 0 {
		params.Voices = DefaultParams().Voices
	}
	if params.Voices > maxVoices {
		params.Voices = maxVoices
	}
	s := &Synth{
		sampleRate: float64(sampleRate),
		voices:     make([]voice, params.Voices),
		notes:      make(map[int]int, params.Voices),
		tables:     FactoryTables(),
		vectorX:    clamp(params.VectorX, 0, 1),
		vectorY:    clamp(params.VectorY, 0, 1),
		tempo:      clamp(params.Tempo, minTempo, maxTempo),
		ampEnv:     params.AmpEnv,
		filterEnv:  params.FilterEnv,
		cutoff:     clamp(params.Cutoff, 0, 1),
		resonance:  clamp(params.Resonance, 0, 1),
		envAmount:  clamp(params.EnvAmount, -1, 1),
		steal:      params.Steal,
		masterGain: math.Float64bits(math.Max(params.MasterGain, 0)),
	}
	for i := range s.seqs {
		s.seqs[i] = NewSequence()
	}
	return s
}

// Name identifies the engine to hosts that juggle several.
func (s *Synth) Name() string { return "vector" }

// Sequence returns the shared sequence for a corner (0..3). Hosts may
// mutate it between notes.
func (s *Synth) Sequence(i int) *Sequence {
	if i < 0 || i >= NumSequences {
		return nil
	}
	return s.seqs[i]
}

// SetSequence replaces a corner's sequence. A nil sequence is ignored.
func (s *Synth) SetSequence(i int, q *Sequence) {
	if i < 0 || i >= NumSequences || q == nil {
		return
	}
	s.mu.Lock()
	s.seqs[i] = q
	s.mu.Unlock()
}

// Tables returns the wavetable library.
func (s *Synth) Tables() []*Wavetable { return s.tables }

// AddWavetable appends a host-built table and returns its index.
func (s *Synth) AddWavetable(w *Wavetable) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = append(s.tables, w)
	return len(s.tables) - 1
}

// SetSpeedLFO installs the optional playback-speed modulator.
func (s *Synth) SetSpeedLFO(l SpeedLFO, depth float64) {
	s.mu.Lock()
	s.speedLFO = l
	s.speedDepth = clamp(depth, 0, 1)
	s.mu.Unlock()
}

// SetVector moves the blend position. Values clamp to the unit square.
func (s *Synth) SetVector(x, y float64) {
	s.mu.Lock()
	s.vectorX = clamp(x, 0, 1)
	s.vectorY = clamp(y, 0, 1)
	s.mu.Unlock()
}

// SetTempo sets the beat clock in BPM, clamped to 20..300.
func (s *Synth) SetTempo(bpm float64) {
	s.mu.Lock()
	s.tempo = clamp(bpm, minTempo, maxTempo)
	s.mu.Unlock()
}

// SetStealPolicy selects the voice-steal behavior for later note-ons.
func (s *Synth) SetStealPolicy(p StealPolicy) {
	s.mu.Lock()
	if p >= StealOldest && p <= StealNone {
		s.steal = p
	}
	s.mu.Unlock()
}

// SetMasterGain sets the output gain atomically; it can be called from
// any thread without touching the synth lock.
func (s *Synth) SetMasterGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	atomic.StoreUint64(&s.masterGain, math.Float64bits(gain))
}

func (s *Synth) masterGainValue() float64 {
	return math.Float64frombits(atomic.LoadUint64(&s.masterGain))
}

// NoteOn starts (or retriggers) a note. A velocity of zero is a note-off
// per MIDI convention. Out-of-range note or velocity is rejected before
// any state changes.
func (s *Synth) NoteOn(note, velocity int) error {
	if err := midiutil.CheckNote(note); err != nil {
		return err
	}
	if err := midiutil.CheckVelocity(velocity); err != nil {
		return err
	}
	if velocity == 0 {
		return s.NoteOff(note)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.notes[note]
	if !ok {
		idx = s.freeVoice()
		if idx < 0 {
			idx = s.stealVoice(note)
		}
		if idx < 0 {
			// Pool exhausted under StealNone: drop the note.
			return nil
		}
		// Drop whatever note the voice held before, stolen or stale.
		if old := s.voices[idx].note; old != note {
			if mapped, exists := s.notes[old]; exists && mapped == idx {
				delete(s.notes, old)
			}
		}
		s.notes[note] = idx
	}
	s.voices[idx].noteOn(note, velocity, s.modWheel, s.ampEnv, s.filterEnv, &s.seqs, s.frame)
	return nil
}

// NoteOff releases the note's voice. Releasing an unknown note is a no-op.
func (s *Synth) NoteOff(note int) error {
	if err := midiutil.CheckNote(note); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.notes[note]; ok {
		s.voices[idx].noteOff()
	}
	return nil
}

// AllNotesOff releases every sounding voice.
func (s *Synth) AllNotesOff() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.voices {
		if s.voices[i].active {
			s.voices[i].noteOff()
		}
	}
}

// ActiveVoiceCount reports voices still sounding, release tails included.
func (s *Synth) ActiveVoiceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.voices {
		if s.voices[i].active {
			n++
		}
	}
	return n
}

func (s *Synth) freeVoice() int {
	for i := range s.voices {
		if !s.voices[i].active {
			return i
		}
	}
	return -1
}

// stealVoice picks the victim for a new note per the configured policy.
// Returns -1 when the policy refuses to steal.
func (s *Synth) stealVoice(note int) int {
	if len(s.voices) == 0 || s.steal == StealNone {
		return -1
	}
	switch s.steal {
	case StealQuietest:
		best := 0
		for i := 1; i < len(s.voices); i++ {
			if s.voices[i].amplitude() < s.voices[best].amplitude() {
				best = i
			}
		}
		return best
	case StealLowest:
		best := 0
		for i := 1; i < len(s.voices); i++ {
			if s.voices[i].note < s.voices[best].note {
				best = i
			}
		}
		return best
	case StealHighest:
		best := 0
		for i := 1; i < len(s.voices); i++ {
			if s.voices[i].note > s.voices[best].note {
				best = i
			}
		}
		return best
	case StealSameNote:
		for i := range s.voices {
			if s.voices[i].note == note {
				return i
			}
		}
		return s.oldestVoice()
	default: // StealOldest
		return s.oldestVoice()
	}
}

func (s *Synth) oldestVoice() int {
	best := 0
	for i := 1; i < len(s.voices); i++ {
		if s.voices[i].trigger < s.voices[best].trigger {
			best = i
		}
	}
	return best
}

// SetParameter adjusts one named tunable. Values clamp silently to their
// documented range; unknown names are ignored, not an error, so hosts
// can blindly forward automation streams.
func (s *Synth) SetParameter(name string, value float64) {
	switch name {
	case "volume", "master_volume", "gain":
		s.SetMasterGain(value)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch name {
	case "x", "vector_x":
		s.vectorX = clamp(value, 0, 1)
	case "y", "vector_y":
		s.vectorY = clamp(value, 0, 1)
	case "tempo", "bpm":
		s.tempo = clamp(value, minTempo, maxTempo)
	case "cutoff", "filter_cutoff":
		s.cutoff = clamp(value, 0, 1)
	case "resonance", "filter_resonance":
		s.resonance = clamp(value, 0, 1)
	case "env_amount", "filter_env_amount":
		s.envAmount = clamp(value, -1, 1)
	case "attack", "amp_attack":
		s.ampEnv.AttackSec = math.Max(value, 0)
	case "decay", "amp_decay":
		s.ampEnv.DecaySec = math.Max(value, 0)
	case "sustain", "amp_sustain":
		s.ampEnv.SustainLvl = clamp(value, 0, 1)
	case "release", "amp_release":
		s.ampEnv.ReleaseSec = math.Max(value, 0)
	case "filter_attack":
		s.filterEnv.AttackSec = math.Max(value, 0)
	case "filter_decay":
		s.filterEnv.DecaySec = math.Max(value, 0)
	case "filter_sustain":
		s.filterEnv.SustainLvl = clamp(value, 0, 1)
	case "filter_release":
		s.filterEnv.ReleaseSec = math.Max(value, 0)
	case "mod_wheel", "modwheel":
		s.modWheel = clamp(value, 0, 1)
	case "speed_lfo_depth", "speed_depth":
		s.speedDepth = clamp(value, 0, 1)
	case "steal", "steal_policy":
		p := StealPolicy(int(value))
		if p >= StealOldest && p <= StealNone {
			s.steal = p
		}
	}
}

// Read renders len(buf)/channels frames into buf and returns the frame
// count. channels==1 downmixes to mono; channels>=2 writes interleaved
// stereo into the first two channels and silence into the rest. Idle
// synths write exact digital silence. The render never allocates.
func (s *Synth) Read(buf []float32, channels int) int {
	if channels <= 0 {
		return 0
	}
	frames := len(buf) / channels
	if frames == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rp = renderParams{
		sampleRate: s.sampleRate,
		dt:         1 / s.sampleRate,
		vectorX:    s.vectorX,
		vectorY:    s.vectorY,
		tempo:      s.tempo,
		speedMod:   1,
		cutoff:     s.cutoff,
		resonance:  s.resonance,
		envAmount:  s.envAmount,
		tables:     s.tables,
		seqs:       &s.seqs,
	}
	master := s.masterGainValue()

	for f := 0; f < frames; f++ {
		s.rp.speedMod = 1
		if s.speedLFO != nil && s.speedLFO.Active() {
			s.rp.speedMod = 1 + s.speedLFO.Sample(s.sampleRate)*s.speedDepth
			if s.rp.speedMod < minSpeedModifier {
				s.rp.speedMod = minSpeedModifier
			}
		}

		var l, r float64
		for vi := range s.voices {
			v := &s.voices[vi]
			if !v.active {
				continue
			}
			vl, vr := v.renderFrame(&s.rp)
			l += vl
			r += vr
			if !v.active {
				if mapped, ok := s.notes[v.note]; ok && mapped == vi {
					delete(s.notes, v.note)
				}
			}
		}

		l = math.Tanh(l * master)
		r = math.Tanh(r * master)

		base := f * channels
		if channels == 1 {
			buf[base] = float32((l + r) * 0.5)
		} else {
			buf[base] = float32(l)
			buf[base+1] = float32(r)
			for c := 2; c < channels; c++ {
				buf[base+c] = 0
			}
		}
		s.frame++
	}
	return frames
}
