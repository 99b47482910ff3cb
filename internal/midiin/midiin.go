// Package midiin opens live MIDI input ports and translates note and
// controller events for a synthesizer. It carries the cgo rtmidi driver,
// so only host binaries import it; the DSP packages stay platform-free.
package midiin

import (
	"fmt"
	"log"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register the rtmidi driver
)

// Standard controller numbers handled by Listen.
const (
	ccModWheel    = 1
	ccVolume      = 7
	ccAllNotesOff = 123
)

// NoteSink receives translated input events. Implementations run on the
// MIDI driver's callback goroutine and should return quickly.
type NoteSink interface {
	NoteOn(note, velocity int) error
	NoteOff(note int) error
	AllNotesOff()
	SetParameter(name string, value float64)
}

// InPorts returns the names of the available MIDI input ports.
func InPorts() []string {
	ports := gomidi.GetInPorts()
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	return names
}

// Listen opens the first MIDI input port whose name contains portName
// (empty selects the first port) and forwards note and controller
// events to sink. The returned stop function closes the port.
func Listen(portName string, sink NoteSink) (stop func(), err error) {
	ports := gomidi.GetInPorts()
	if len(ports) == 0 {
		return nil, fmt.Errorf("no midi input ports available")
	}
	in := ports[0]
	if portName != "" {
		found := false
		for _, p := range ports {
			if strings.Contains(strings.ToLower(p.String()), strings.ToLower(portName)) {
				in = p
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("no midi input port matching %q", portName)
		}
	}

	stop, err = gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		var channel, note, velocity, cc, value uint8
		switch {
		case msg.GetNoteStart(&channel, &note, &velocity):
			if err := sink.NoteOn(int(note), int(velocity)); err != nil {
				log.Printf("note on %d: %v", note, err)
			}
		case msg.GetNoteEnd(&channel, &note):
			if err := sink.NoteOff(int(note)); err != nil {
				log.Printf("note off %d: %v", note, err)
			}
		case msg.GetControlChange(&channel, &cc, &value):
			switch cc {
			case ccModWheel:
				sink.SetParameter("mod_wheel", float64(value)/127)
			case ccVolume:
				sink.SetParameter("volume", float64(value)/127)
			case ccAllNotesOff:
				sink.AllNotesOff()
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("open midi input %s: %w", in.String(), err)
	}
	log.Printf("listening on midi input %s", in.String())
	return stop, nil
}
