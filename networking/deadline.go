package networking

import (
	"net"
	"time"
)

// DeadlineStream refreshes the connection deadline ahead of every read
// and write, so a negotiated timeout bounds individual socket operations
// rather than whole transfers. With a zero Timeout operations block
// indefinitely, which is the NO_TIMEOUT behavior.
type DeadlineStream struct {
	Conn    net.Conn
	Timeout time.Duration
}

func (d *DeadlineStream) arm() {
	if d.Timeout > 0 {
		d.Conn.SetDeadline(time.Now().Add(d.Timeout))
	}
}

func (d *DeadlineStream) Read(p []byte) (int, error) {
	d.arm()
	return d.Conn.Read(p)
}

func (d *DeadlineStream) Write(p []byte) (int, error) {
	d.arm()
	return d.Conn.Write(p)
}
