// Package evdev models the portion of the Linux kernel's generic input
// event interface (struct input_event, the EV_KEY event type, and the
// KEY_* scan code vocabulary) that the daemon needs: decoding raw events
// read off a /dev/input/eventN device node and mapping scan codes to their
// symbolic names.
//
// The wire struct and constant layout follow the shape used by
// other_examples/96c4b000_andrieee44-mylib__linux-input-uapi.go.go; the
// press/release/repeat value convention (0/1/2) follows
// other_examples/25785142_AshBuk-speak-to-ai__hotkeys-providers-evdev_provider.go.go.
// Both fresh presses (Value==1) and auto-repeats (Value==2) count as
// presses here; only releases (Value==0) are dropped.
package evdev

import (
	"encoding/binary"
	"io"
)

// Event types (linux/input-event-codes.h). Only EV_KEY is consumed; the
// rest exist so the decoder can recognize and discard them.
const (
	EvSyn uint16 = 0x00
	EvKey uint16 = 0x01
	EvRel uint16 = 0x02
	EvAbs uint16 = 0x03
	EvMsc uint16 = 0x04
)

// Key value states for EV_KEY events.
const (
	KeyUp     int32 = 0
	KeyDown   int32 = 1
	KeyRepeat int32 = 2
)

// UnknownKeyName substitutes for scan codes the vocabulary has no name
// for.
const UnknownKeyName = "UNKNOWN"

// RawEvent mirrors the kernel's struct input_event, 64-bit timeval layout:
// two 8-byte timestamp fields followed by a 2-byte type, 2-byte code, and
// 4-byte signed value.
type RawEvent struct {
	Sec   uint64
	Usec  uint64
	Type  uint16
	Code  uint16
	Value int32
}

// rawEventSize is the on-wire size of RawEvent in bytes: 8+8+2+2+4.
const rawEventSize = 24

// Decode reads exactly one input_event record from r, decoding every field
// as little-endian; this matches the kernel's host byte order on
// little-endian machines only.
func Decode(r io.Reader) (RawEvent, error) {
	var buf [rawEventSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return RawEvent{}, err
	}

	return RawEvent{
		Sec:   binary.LittleEndian.Uint64(buf[0:8]),
		Usec:  binary.LittleEndian.Uint64(buf[8:16]),
		Type:  binary.LittleEndian.Uint16(buf[16:18]),
		Code:  binary.LittleEndian.Uint16(buf[18:20]),
		Value: int32(binary.LittleEndian.Uint32(buf[20:24])),
	}, nil
}

// IsKeyboardPress reports whether ev is a fresh or auto-repeated keyboard
// press; only these produce a keystroke event. Releases are dropped
// explicitly; repeats are accepted as fresh presses, matching the
// kernel's own semantics.
func IsKeyboardPress(ev RawEvent) bool {
	return ev.Type == EvKey && (ev.Value == KeyDown || ev.Value == KeyRepeat)
}

// KeyName returns the symbolic name for scanCode, or UnknownKeyName if the
// vocabulary has no entry for it. The returned name is never empty, and is
// truncated to maxLen characters.
func KeyName(scanCode uint16, maxLen int) string {
	name, ok := keyNames[scanCode]
	if !ok {
		name = UnknownKeyName
	}
	if maxLen > 0 && len(name) > maxLen {
		name = name[:maxLen]
	}
	return name
}
