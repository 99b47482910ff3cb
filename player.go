package musicengine

import (
	"errors"
	"sync"

	intaudio "github.com/watermann420/musicengine-go/internal/audio"
	"github.com/watermann420/musicengine-go/internal/lfo"
	"github.com/watermann420/musicengine-go/internal/vector"
)

// Synthesizer is the contract every engine in this repository exposes to
// hosts: a pull-based stereo render call plus MIDI-style note events and
// a string-keyed parameter surface. Unknown parameter names are ignored.
type Synthesizer interface {
	Name() string
	Read(buf []float32, channels int) int
	NoteOn(note, velocity int) error
	NoteOff(note int) error
	AllNotesOff()
	SetParameter(name string, value float64)
}

var _ Synthesizer = (*vector.Synth)(nil)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	params    vector.Params
	sampleTap func([]float32)
	speedLFO  *lfo.LFO
	speedDep  float64
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{params: vector.DefaultParams()}
}

// WithVoiceCount sets the polyphony of the voice pool.
func WithVoiceCount(n int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.params.Voices = n
	}
}

// WithStealPolicy selects the voice-steal behavior under full polyphony.
func WithStealPolicy(p vector.StealPolicy) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.params.Steal = p
	}
}

// WithSpeedLFO wires a playback-speed LFO into the engine. rateHz is the
// oscillation rate and depth in [0,1] scales how far the sequence clock
// swings around real time.
func WithSpeedLFO(rateHz, depth float64, waveform lfo.Waveform) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.speedLFO = lfo.New(1, rateHz, waveform)
		cfg.speedDep = depth
	}
}

// WithSampleTap installs a callback invoked with each generated stereo
// buffer. The callback runs on the audio thread; keep work brief and
// non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// Player streams a live vector synth to the audio device and forwards
// note and parameter events to it.
type Player struct {
	mu         sync.Mutex
	sampleRate int
	synth      *vector.Synth
	audio      *intaudio.Player
	baseGain   float64
	volume     float64
	sampleTap  func([]float32)
}

// synthSource adapts the synth's Read call to the audio stream.
type synthSource struct {
	synth *vector.Synth
	tap   func([]float32)
}

func (s *synthSource) Process(dst []float32) {
	s.synth.Read(dst, 2)
	if s.tap != nil {
		s.tap(dst)
	}
}

// NewPlayer builds a player around a fresh vector synth. No audio device
// is touched until Start.
func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	synth := vector.New(sampleRate, cfg.params)
	if cfg.speedLFO != nil {
		synth.SetSpeedLFO(cfg.speedLFO, cfg.speedDep)
	}
	return &Player{
		sampleRate: sampleRate,
		synth:      synth,
		baseGain:   cfg.params.MasterGain,
		volume:     1,
		sampleTap:  cfg.sampleTap,
	}, nil
}

// Synth exposes the engine so hosts can edit sequences and wavetables
// directly. Structural edits belong between notes.
func (p *Player) Synth() *vector.Synth { return p.synth }

// Start opens the audio output and begins streaming.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
		return nil
	}
	backend, err := intaudio.NewPlayer(p.sampleRate, &synthSource{synth: p.synth, tap: p.sampleTap})
	if err != nil {
		return err
	}
	p.audio = backend
	p.audio.Play()
	return nil
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
	}
}

// Stop silences the synth and closes the audio output.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.synth.AllNotesOff()
	if p.audio == nil {
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	return err
}

// NoteOn forwards a note-on to the engine. Velocity 0 releases the note.
func (p *Player) NoteOn(note, velocity int) error {
	return p.synth.NoteOn(note, velocity)
}

func (p *Player) NoteOff(note int) error {
	return p.synth.NoteOff(note)
}

func (p *Player) AllNotesOff() {
	p.synth.AllNotesOff()
}

// SetParameter forwards a named parameter write to the engine, except
// volume, which is scaled by the player's own master volume.
func (p *Player) SetParameter(name string, value float64) {
	switch name {
	case "volume", "master_volume", "gain":
		p.mu.Lock()
		base := p.baseGain
		vol := p.volume
		p.mu.Unlock()
		p.synth.SetParameter("volume", base*vol*value)
	default:
		p.synth.SetParameter(name, value)
	}
}

// SetMasterVolume sets the runtime volume scalar. 1.0 is default.
func (p *Player) SetMasterVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	p.mu.Lock()
	p.volume = volume
	base := p.baseGain
	p.mu.Unlock()
	p.synth.SetMasterGain(base * volume)
}

func (p *Player) MasterVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}
