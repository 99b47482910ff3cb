package musicengine

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/watermann420/musicengine-go/internal/vector"
)

// NoteEvent schedules one note change for offline rendering. Velocity 0
// releases the note.
type NoteEvent struct {
	AtSec    float64
	Note     int
	Velocity int
}

// RenderSamples renders the synth for the given duration, firing the
// scheduled note events at their frame positions, and returns the
// interleaved stereo samples.
func RenderSamples(s *vector.Synth, events []NoteEvent, sampleRate int, seconds float64) []float32 {
	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames*2)

	evs := make([]NoteEvent, len(events))
	copy(evs, events)
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].AtSec < evs[j].AtSec })

	pos := 0
	for _, ev := range evs {
		at := int(ev.AtSec * float64(sampleRate))
		if at > frames {
			at = frames
		}
		if at > pos {
			s.Read(out[pos*2:at*2], 2)
			pos = at
		}
		// Scheduling errors surface in the rendered audio, not as
		// failures; out-of-range events are simply skipped.
		_ = s.NoteOn(ev.Note, ev.Velocity)
	}
	if pos < frames {
		s.Read(out[pos*2:], 2)
	}
	return out
}

// EncodeWAVFloat32LE wraps interleaved float32 samples in a WAV header.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
