package vector

import (
	"math"
	"testing"
)

func TestIdleSynthRendersDigitalSilence(t *testing.T) {
	s := New(48000, DefaultParams())
	buf := make([]float32, 4096)
	if frames := s.Read(buf, 2); frames != 2048 {
		t.Fatalf("frames = %d, want 2048", frames)
	}
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("sample %d = %v, want exact silence", i, v)
		}
	}
}

func TestNoteOnProducesSignal(t *testing.T) {
	s := New(48000, DefaultParams())
	if err := s.NoteOn(60, 100); err != nil {
		t.Fatalf("note on: %v", err)
	}
	buf := make([]float32, 2*4800)
	s.Read(buf, 2)
	var energy float64
	for _, v := range buf {
		energy += math.Abs(float64(v))
	}
	if energy == 0 {
		t.Fatal("expected non-zero audio energy")
	}
}

func TestNoteValidationRejectsOutOfRange(t *testing.T) {
	s := New(48000, DefaultParams())
	if err := s.NoteOn(-1, 100); err == nil {
		t.Fatal("negative note accepted")
	}
	if err := s.NoteOn(128, 100); err == nil {
		t.Fatal("note 128 accepted")
	}
	if err := s.NoteOn(60, 200); err == nil {
		t.Fatal("velocity 200 accepted")
	}
	if got := s.ActiveVoiceCount(); got != 0 {
		t.Fatalf("rejected events changed state: %d active voices", got)
	}
}

func TestVelocityZeroNoteOnActsAsNoteOff(t *testing.T) {
	render := func(release func(s *Synth)) int {
		s := New(48000, DefaultParams())
		if err := s.NoteOn(60, 100); err != nil {
			t.Fatalf("note on: %v", err)
		}
		buf := make([]float32, 2*2400)
		s.Read(buf, 2)
		release(s)
		// A second of audio comfortably outlasts the default release.
		long := make([]float32, 2*48000)
		s.Read(long, 2)
		return s.ActiveVoiceCount()
	}
	viaOff := render(func(s *Synth) { _ = s.NoteOff(60) })
	viaZero := render(func(s *Synth) { _ = s.NoteOn(60, 0) })
	if viaOff != 0 || viaZero != 0 {
		t.Fatalf("voices still active: noteOff=%d velocity0=%d", viaOff, viaZero)
	}
}

func TestRetriggerReusesSameVoice(t *testing.T) {
	s := New(48000, DefaultParams())
	_ = s.NoteOn(60, 100)
	first := s.notes[60]
	buf := make([]float32, 2*100)
	s.Read(buf, 2)
	_ = s.NoteOn(60, 80)
	if s.notes[60] != first {
		t.Fatalf("retrigger moved note to voice %d, want %d", s.notes[60], first)
	}
	if got := s.ActiveVoiceCount(); got != 1 {
		t.Fatalf("retrigger left %d active voices, want 1", got)
	}
}

// stagedPool fills a synth's voices with known notes, ages and levels so
// each steal policy has one documented victim.
func stagedPool(t *testing.T) *Synth {
	t.Helper()
	params := DefaultParams()
	params.Voices = 3
	s := New(48000, params)
	for _, n := range []int{64, 60, 67} {
		if err := s.NoteOn(n, 100); err != nil {
			t.Fatalf("note on %d: %v", n, err)
		}
		// Advance the frame clock so trigger stamps are distinct.
		buf := make([]float32, 2*64)
		s.Read(buf, 2)
	}
	return s
}

func TestStealPolicySelection(t *testing.T) {
	t.Run("oldest", func(t *testing.T) {
		s := stagedPool(t)
		s.steal = StealOldest
		if got := s.stealVoice(72); got != s.notes[64] {
			t.Fatalf("oldest picked voice %d, want the first-triggered", got)
		}
	})
	t.Run("quietest", func(t *testing.T) {
		s := stagedPool(t)
		s.steal = StealQuietest
		quiet := s.notes[60]
		s.voices[quiet].velocity = 0.1
		if got := s.stealVoice(72); got != quiet {
			t.Fatalf("quietest picked voice %d, want %d", got, quiet)
		}
	})
	t.Run("lowest", func(t *testing.T) {
		s := stagedPool(t)
		s.steal = StealLowest
		if got := s.stealVoice(72); got != s.notes[60] {
			t.Fatalf("lowest picked voice %d, want the one holding note 60", got)
		}
	})
	t.Run("highest", func(t *testing.T) {
		s := stagedPool(t)
		s.steal = StealHighest
		if got := s.stealVoice(72); got != s.notes[67] {
			t.Fatalf("highest picked voice %d, want the one holding note 67", got)
		}
	})
	t.Run("samenote", func(t *testing.T) {
		s := stagedPool(t)
		s.steal = StealSameNote
		if got := s.stealVoice(67); got != s.notes[67] {
			t.Fatalf("samenote picked voice %d, want the one already holding 67", got)
		}
		// No voice holds 72: falls back to oldest.
		if got := s.stealVoice(72); got != s.notes[64] {
			t.Fatalf("samenote fallback picked voice %d, want oldest", got)
		}
	})
	t.Run("none", func(t *testing.T) {
		s := stagedPool(t)
		s.steal = StealNone
		if got := s.stealVoice(72); got != -1 {
			t.Fatalf("none picked voice %d, want -1", got)
		}
	})
}

func TestStealRemapsStolenNote(t *testing.T) {
	s := stagedPool(t)
	s.steal = StealOldest
	oldVoice := s.notes[64]
	if err := s.NoteOn(72, 100); err != nil {
		t.Fatalf("note on: %v", err)
	}
	if _, ok := s.notes[64]; ok {
		t.Fatal("stolen note 64 still mapped")
	}
	if s.notes[72] != oldVoice {
		t.Fatalf("note 72 mapped to voice %d, want stolen voice %d", s.notes[72], oldVoice)
	}
}

func TestStealNoneDropsNoteSilently(t *testing.T) {
	s := stagedPool(t)
	s.steal = StealNone
	if err := s.NoteOn(72, 100); err != nil {
		t.Fatalf("dropped note surfaced an error: %v", err)
	}
	if _, ok := s.notes[72]; ok {
		t.Fatal("note 72 should have been dropped")
	}
	if got := s.ActiveVoiceCount(); got != 3 {
		t.Fatalf("active voices = %d, want the original 3", got)
	}
}

func TestAllNotesOffReleasesEverything(t *testing.T) {
	s := stagedPool(t)
	s.AllNotesOff()
	long := make([]float32, 2*48000)
	s.Read(long, 2)
	if got := s.ActiveVoiceCount(); got != 0 {
		t.Fatalf("active voices after all-notes-off = %d", got)
	}
}

func TestSetParameterClampsAndIgnoresUnknown(t *testing.T) {
	s := New(48000, DefaultParams())
	s.SetParameter("tempo", 1000)
	if s.tempo != maxTempo {
		t.Fatalf("tempo = %v, want clamp to %v", s.tempo, float64(maxTempo))
	}
	s.SetParameter("x", 2)
	if s.vectorX != 1 {
		t.Fatalf("vector x = %v, want clamp to 1", s.vectorX)
	}
	s.SetParameter("cutoff", -3)
	if s.cutoff != 0 {
		t.Fatalf("cutoff = %v, want clamp to 0", s.cutoff)
	}
	s.SetParameter("sustain", 1.5)
	if s.ampEnv.SustainLvl != 1 {
		t.Fatalf("sustain = %v, want clamp to 1", s.ampEnv.SustainLvl)
	}
	s.SetParameter("definitely_not_a_parameter", 42) // must not panic
}

func TestMonoDownmix(t *testing.T) {
	s := New(48000, DefaultParams())
	_ = s.NoteOn(60, 100)
	mono := make([]float32, 4800)
	if frames := s.Read(mono, 1); frames != 4800 {
		t.Fatalf("mono frames = %d, want 4800", frames)
	}
	var energy float64
	for _, v := range mono {
		energy += math.Abs(float64(v))
	}
	if energy == 0 {
		t.Fatal("expected non-zero mono energy")
	}
}

func TestEnvelopeSnapshotIsolatesInFlightNotes(t *testing.T) {
	s := New(48000, DefaultParams())
	_ = s.NoteOn(60, 100)
	vi := s.notes[60]
	s.SetParameter("sustain", 0.1)
	if got := s.voices[vi].amp.params.SustainLvl; got != 0.75 {
		t.Fatalf("in-flight sustain = %v, want the 0.75 snapshot", got)
	}
}
