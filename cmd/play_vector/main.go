// Command play_vector runs the vector wave-sequencing synth: either a
// built-in demo sequence, a live MIDI keyboard, or an offline WAV render.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	musicengine "github.com/watermann420/musicengine-go"
	"github.com/watermann420/musicengine-go/internal/lfo"
	"github.com/watermann420/musicengine-go/internal/midiin"
	"github.com/watermann420/musicengine-go/internal/vector"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		voices     = flag.Int("voices", 16, "polyphony")
		steal      = flag.String("steal", "oldest", "steal policy: oldest|quietest|lowest|highest|samenote|none")
		vectorX    = flag.Float64("x", 0.5, "vector position X (0..1)")
		vectorY    = flag.Float64("y", 0.5, "vector position Y (0..1)")
		tempo      = flag.Float64("tempo", 120, "tempo in BPM (20..300)")
		speedRate  = flag.Float64("speed-lfo", 0, "speed LFO rate in Hz (0 = off)")
		speedDepth = flag.Float64("speed-depth", 0.3, "speed LFO depth (0..1)")
		midiIn     = flag.Bool("midi", false, "play live from the first MIDI input")
		midiPort   = flag.String("port", "", "substring of the MIDI input port name")
		listPorts  = flag.Bool("list-ports", false, "list MIDI input ports and exit")
		wavPath    = flag.String("wav", "", "render the demo to a WAV file instead of playing")
		seconds    = flag.Float64("seconds", 8, "playback / render duration in seconds")
	)
	flag.Parse()

	if *listPorts {
		for _, name := range midiin.InPorts() {
			fmt.Println(name)
		}
		return
	}

	policy, err := parseStealPolicy(*steal)
	if err != nil {
		log.Fatal(err)
	}

	opts := []musicengine.PlayerOption{
		musicengine.WithVoiceCount(*voices),
		musicengine.WithStealPolicy(policy),
	}
	if *speedRate > 0 {
		opts = append(opts, musicengine.WithSpeedLFO(*speedRate, *speedDepth, lfo.Triangle))
	}
	pl, err := musicengine.NewPlayer(*sampleRate, opts...)
	if err != nil {
		log.Fatal(err)
	}
	synth := pl.Synth()
	synth.SetVector(*vectorX, *vectorY)
	synth.SetTempo(*tempo)
	configureDemoSequences(synth)

	if *wavPath != "" {
		samples := musicengine.RenderSamples(synth, demoScript(*seconds), *sampleRate, *seconds)
		wav := musicengine.EncodeWAVFloat32LE(samples, *sampleRate, 2)
		if err := os.WriteFile(*wavPath, wav, 0o644); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s (%.1fs)\n", *wavPath, *seconds)
		return
	}

	if err := pl.Start(); err != nil {
		log.Fatal(err)
	}
	defer pl.Stop()

	if *midiIn {
		stop, err := midiin.Listen(*midiPort, pl)
		if err != nil {
			log.Fatal(err)
		}
		defer stop()
		fmt.Println("playing from MIDI input, ctrl-c to quit")
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		<-sig
		return
	}

	fmt.Printf("playing demo for %.1fs\n", *seconds)
	playScript(pl, demoScript(*seconds))
}

func parseStealPolicy(name string) (vector.StealPolicy, error) {
	switch name {
	case "oldest":
		return vector.StealOldest, nil
	case "quietest":
		return vector.StealQuietest, nil
	case "lowest":
		return vector.StealLowest, nil
	case "highest":
		return vector.StealHighest, nil
	case "samenote":
		return vector.StealSameNote, nil
	case "none":
		return vector.StealNone, nil
	}
	return 0, fmt.Errorf("unknown steal policy %q", name)
}

// configureDemoSequences sets up a classic wave-sequence patch: a sine
// arpeggio on A, a detuned saw pad on B, a square pulse on C and a
// wavetable morph on D.
func configureDemoSequences(s *vector.Synth) {
	a := vector.NewSequence()
	a.Steps = nil
	for _, pitch := range []float64{0, 4, 7, 12} {
		step := vector.DefaultStep()
		step.Duration = 0.5
		step.Pitch = pitch
		step.Crossfade = 20
		a.AppendStep(step)
	}

	b := vector.NewSequence()
	b.Steps = nil
	for _, pan := range []float64{-0.6, 0.6} {
		step := vector.DefaultStep()
		step.Waveform = vector.WaveSaw
		step.Duration = 2
		step.Level = 0.7
		step.Pan = pan
		step.Crossfade = 50
		b.AppendStep(step)
	}

	c := vector.NewSequence()
	c.Steps = nil
	for _, pitch := range []float64{-12, -5} {
		step := vector.DefaultStep()
		step.Waveform = vector.WaveSquare
		step.Duration = 0.25
		step.Pitch = pitch
		step.Level = 0.5
		c.AppendStep(step)
	}

	d := vector.NewSequence()
	d.Steps = nil
	for i := 0; i < 4; i++ {
		step := vector.DefaultStep()
		step.Waveform = vector.WaveTable
		step.Table = 0
		step.TablePos = float64(i) / 3
		step.Duration = 1
		step.Crossfade = 80
		d.AppendStep(step)
	}

	s.SetSequence(0, a)
	s.SetSequence(1, b)
	s.SetSequence(2, c)
	s.SetSequence(3, d)
}

// demoScript holds a short chord progression sized to the duration.
func demoScript(seconds float64) []musicengine.NoteEvent {
	var evs []musicengine.NoteEvent
	chords := [][]int{{57, 60, 64}, {55, 59, 62}, {53, 57, 60}, {55, 59, 62}}
	bar := 2.0
	for i := 0; ; i++ {
		at := float64(i) * bar
		if at+bar > seconds {
			break
		}
		for _, n := range chords[i%len(chords)] {
			evs = append(evs, musicengine.NoteEvent{AtSec: at, Note: n, Velocity: 100})
			evs = append(evs, musicengine.NoteEvent{AtSec: at + bar*0.9, Note: n, Velocity: 0})
		}
	}
	return evs
}

func playScript(pl *musicengine.Player, evs []musicengine.NoteEvent) {
	start := time.Now()
	for _, ev := range evs {
		at := time.Duration(ev.AtSec * float64(time.Second))
		if d := at - time.Since(start); d > 0 {
			time.Sleep(d)
		}
		if err := pl.NoteOn(ev.Note, ev.Velocity); err != nil {
			log.Printf("note %d: %v", ev.Note, err)
		}
	}
	// Let the release tails ring out.
	time.Sleep(time.Second)
	pl.AllNotesOff()
	time.Sleep(500 * time.Millisecond)
}
