package networking

import (
	"fmt"
	"io"
)

// Capability is one session-wide behavior flag, carried as a single bit
// of the capability byte exchanged at session start.
type Capability uint8

const (
	SINGLE_FILE Capability = 1 << iota // 1: Exactly one file in the batch
	MULTI_FILES                        // 2: More than one file in the batch
	TIMEOUT                            // 4: Socket deadlines are in force
	_                                  // 8: Unassigned
	NO_TIMEOUT                         // 16: Blocking operations are unbounded
)

// String names the flag for console output
func (c Capability) String() string {
	switch c {
	case SINGLE_FILE:
		return "SINGLE_FILE"
	case MULTI_FILES:
		return "MULTI_FILES"
	case TIMEOUT:
		return "TIMEOUT"
	case NO_TIMEOUT:
		return "NO_TIMEOUT"
	}
	return "UNKNOWN"
}

// EncodeCapabilities packs a set of flags into the wire byte
func EncodeCapabilities(caps []Capability) byte {
	var b byte
	for _, c := range caps {
		b |= byte(c)
	}
	return b
}

// DecodeCapabilities tests each of the 8 bit positions of the capability
// byte and maps the known ones back to flags. Unassigned bits are
// dropped silently.
func DecodeCapabilities(b byte) []Capability {
	caps := make([]Capability, 0, 4)
	for i := 0; i < 8; i++ {
		bit := Capability(1 << i)
		if b&byte(bit) == 0 {
			continue
		}
		switch bit {
		case SINGLE_FILE, MULTI_FILES, TIMEOUT, NO_TIMEOUT:
			caps = append(caps, bit)
		}
	}
	return caps
}

// HasCapability reports whether the set contains the given flag
func HasCapability(caps []Capability, want Capability) bool {
	for _, c := range caps {
		if c == want {
			return true
		}
	}
	return false
}

// SendCapabilities writes the capability byte for the session
func SendCapabilities(w io.Writer, caps []Capability) error {
	if _, err := w.Write([]byte{EncodeCapabilities(caps)}); err != nil {
		return brokenOrTimeout(err)
	}
	return nil
}

// RecvCapabilities reads and decodes the capability byte
func RecvCapabilities(r io.Reader) ([]Capability, error) {
	b := make([]byte, 1)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("%w: missing capability byte", ErrProtocolDecode)
	}
	return DecodeCapabilities(b[0]), nil
}
