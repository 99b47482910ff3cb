// Package midiutil holds the small pure MIDI helpers shared by the
// engine and the hosts: range validation for note events and
// note-to-frequency conversion. Live input lives in midiin, which
// carries the platform driver.
package midiutil

import (
	"fmt"
	"math"
)

// CheckNote rejects note numbers outside 0..127. Out-of-range values
// indicate a caller bug, so they fail instead of clamping.
func CheckNote(note int) error {
	if note < 0 || note > 127 {
		return fmt.Errorf("midi note %d out of range 0..127", note)
	}
	return nil
}

// CheckVelocity rejects velocities outside 0..127.
func CheckVelocity(velocity int) error {
	if velocity < 0 || velocity > 127 {
		return fmt.Errorf("midi velocity %d out of range 0..127", velocity)
	}
	return nil
}

// NoteToFreq converts a MIDI note number to Hz in equal temperament
// with A4 (note 69) at 440 Hz.
func NoteToFreq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}
