package comms

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/campingtree/socket-file-transfer/networking"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/net/ipv4"
)

// Sender drives the pushing side of a session. It holds the one
// connected socket and walks the lock step handshake strictly in order;
// any failed step terminates the whole session.
type Sender struct {
	conn *net.TCPConn
	link *networking.DeadlineStream
}

// Connect opens TCP connection to target host address
func (s *Sender) Connect(address string, dscp int, mptcp bool) error {
	_, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return err
	}
	dial := new(net.Dialer)
	// Set MPTCP.
	dial.SetMultipathTCP(mptcp)
	conn, err := dial.Dial("tcp", address)
	if err != nil {
		return err
	}
	s.conn = conn.(*net.TCPConn)
	// Set TCP_NODELAY to always immediately send.
	s.conn.SetNoDelay(true)
	// Set DSCP. NOTE: On Windows by default it will not apply the value.
	ipv4.NewConn(conn).SetTOS(dscp)

	s.link = &networking.DeadlineStream{Conn: s.conn}

	return nil
}

// Announce derives the capability set from the batch size and timeout
// configuration, sends the capability byte and waits for the peer to
// approve it. A timeout above zero negotiates socket deadlines for the
// rest of the session on both sides.
func (s *Sender) Announce(fileCount int, timeout time.Duration) error {
	caps := []networking.Capability{networking.SINGLE_FILE}
	if fileCount > 1 {
		caps[0] = networking.MULTI_FILES
	}
	if timeout > 0 {
		caps = append(caps, networking.TIMEOUT)
		s.link.Timeout = timeout
	} else {
		caps = append(caps, networking.NO_TIMEOUT)
	}

	if err := networking.SendCapabilities(s.link, caps); err != nil {
		return err
	}
	if !networking.RecvAck(s.link) {
		return fmt.Errorf("%w: capability announce", networking.ErrAckRejected)
	}
	return nil
}

// SendFile pushes one file through the size/name/payload/digest/ack
// exchange. The peer's digest must match the locally computed one byte
// for byte before the final ack releases the receiver.
func (s *Sender) SendFile(path string) error {
	name := filepath.Base(path)

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	size := uint64(info.Size())

	if err := networking.SendFileSize(s.link, size); err != nil {
		return err
	}
	if !networking.RecvAck(s.link) {
		return fmt.Errorf("%w: size field for %s", networking.ErrAckRejected, name)
	}

	if err := networking.SendFileName(s.link, name); err != nil {
		return err
	}
	if !networking.RecvAck(s.link) {
		return fmt.Errorf("%w: name field for %s", networking.ErrAckRejected, name)
	}

	bar := progressbar.DefaultBytes(info.Size(), "Sending "+name)
	digest, err := networking.SendExact(s.link, io.TeeReader(file, bar), size)
	bar.Finish()
	if err != nil {
		return err
	}

	peer, err := networking.RecvDigest(s.link)
	if err != nil {
		return err
	}
	if !bytes.Equal(digest, peer) {
		return fmt.Errorf("%w: %s", networking.ErrIntegrityMismatch, name)
	}

	return networking.SendAck(s.link)
}

// Finish signals end of batch by half-closing the outbound direction.
// The receiver observes the close as a failed size read and stops its
// transfer loop.
func (s *Sender) Finish() error {
	return s.conn.CloseWrite()
}

// Close closes socket
func (s *Sender) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
