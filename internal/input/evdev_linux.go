//go:build linux

package input

import (
	"encoding/binary"
	"io"
	"os"
	"time"
)

// evKey is the kernel input_event Type value for key/button state changes.
const evKey = 0x01

// keyValue is the kernel's input_event.Value encoding for EV_KEY events.
const (
	keyValueUp      = 0
	keyValueDown    = 1
	keyValueRepeat  = 2
)

// rawEvent mirrors struct input_event on a 64-bit Linux host, where the
// embedded struct timeval is two 8-byte fields.
type rawEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// KeycodeMap translates a kernel key code (as in linux/input-event-codes.h)
// to the symbolic keycode names used in a descriptor's key map.
type KeycodeMap func(code uint16) (string, bool)

// EvdevSource reads EV_KEY events from a Linux /dev/input/eventN node and
// pushes them into an Intake.
type EvdevSource struct {
	f       *os.File
	keycode KeycodeMap
}

// OpenEvdevSource opens the evdev node at path.
func OpenEvdevSource(path string, keycode KeycodeMap) (*EvdevSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &EvdevSource{f: f, keycode: keycode}, nil
}

// Close releases the underlying device node.
func (s *EvdevSource) Close() error {
	return s.f.Close()
}

// Run reads events until the file is closed or a non-EOF read error occurs,
// pushing each recognized EV_KEY transition into intake.
func (s *EvdevSource) Run(intake *Intake) error {
	var raw rawEvent
	for {
		if err := binary.Read(s.f, binary.LittleEndian, &raw); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if raw.Type != evKey {
			continue
		}
		keycode, ok := s.keycode(raw.Code)
		if !ok {
			continue
		}
		var state KeyState
		switch raw.Value {
		case keyValueDown:
			state = KeyDown
		case keyValueUp:
			state = KeyUp
		case keyValueRepeat:
			state = KeyHold
		default:
			continue
		}
		intake.Push(keycode, state, time.Unix(raw.Sec, raw.Usec*1000))
	}
}
