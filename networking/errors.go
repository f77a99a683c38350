package networking

import (
	"errors"
	"fmt"
	"net"
)

// Every protocol failure below is terminal for the session. The sender
// and receiver flows wrap these sentinels with context and unwind; no
// step is ever retried.
var (
	ErrConnectionBroken  = errors.New("connection broken")
	ErrProtocolDecode    = errors.New("malformed protocol field")
	ErrAckRejected       = errors.New("peer did not acknowledge")
	ErrIntegrityMismatch = errors.New("digest mismatch")
	ErrNameTooLong       = errors.New("file name does not fit the name field")
	ErrTimeout           = errors.New("socket operation timed out")
)

// brokenOrTimeout maps an I/O failure to the timeout sentinel when a
// negotiated deadline fired, otherwise to broken connection
func brokenOrTimeout(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrConnectionBroken, err)
}
