package controller

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/campingtree/socket-file-transfer/fileio"
	"github.com/campingtree/socket-file-transfer/networking"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/net/ipv4"
)

// Receiver drives the accepting side of a session. The listening socket
// and the accepted connection live in separate fields and are never
// conflated; exactly one inbound connection is handled per session.
type Receiver struct {
	listener net.Listener
	conn     *net.TCPConn
	link     *networking.DeadlineStream
	folder   string
}

// Listen validates the receive root and binds the listening socket.
// Port zero asks the system for an ephemeral port.
func (r *Receiver) Listen(path, addr string, mptcp bool) error {
	folder := filepath.Clean(path)

	// Check path validity.
	info, err := os.Stat(folder)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("receive root %s is not a directory", folder)
	}
	r.folder = folder

	lc := new(net.ListenConfig)
	// Set MPTCP.
	lc.SetMultipathTCP(mptcp)
	l, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	r.listener = l

	return nil
}

// Addr returns the bound listening address
func (r *Receiver) Addr() net.Addr {
	return r.listener.Addr()
}

// Accept waits for the single inbound connection of this session
func (r *Receiver) Accept(dscp int) error {
	conn, err := r.listener.Accept()
	if err != nil {
		return err
	}
	r.conn = conn.(*net.TCPConn)
	// Set TCP_NODELAY to always immediately send.
	r.conn.SetNoDelay(true)
	// Set DSCP. NOTE: On Windows by default it will not apply the value.
	ipv4.NewConn(conn).SetTOS(dscp)

	r.link = &networking.DeadlineStream{Conn: r.conn}

	return nil
}

// Remote returns the peer address of the accepted connection
func (r *Receiver) Remote() net.Addr {
	return r.conn.RemoteAddr()
}

// Negotiate reads the capability byte, arms socket deadlines when the
// peer asked for them and approves the session
func (r *Receiver) Negotiate(timeout time.Duration) ([]networking.Capability, error) {
	caps, err := networking.RecvCapabilities(r.link)
	if err != nil {
		return nil, err
	}
	if networking.HasCapability(caps, networking.TIMEOUT) {
		r.link.Timeout = timeout
	}
	if err := networking.SendAck(r.link); err != nil {
		return nil, err
	}
	return caps, nil
}

// ReceiveAll runs the transfer loop until the peer half-closes its
// outbound direction. Returns the number of files written.
func (r *Receiver) ReceiveAll() (int, error) {
	var count int
	for {
		// A failed or zero size read is the end of batch sentinel.
		size, err := networking.RecvFileSize(r.link)
		if err != nil || size == 0 {
			return count, nil
		}
		if err := networking.SendAck(r.link); err != nil {
			return count, err
		}

		name, err := networking.RecvFileName(r.link)
		if err != nil {
			return count, err
		}
		if err := networking.SendAck(r.link); err != nil {
			return count, err
		}

		if err := r.receivePayload(name, size); err != nil {
			return count, err
		}
		count++
	}
}

// receivePayload streams one file into the receive root and completes
// the digest and ack exchange for it
func (r *Receiver) receivePayload(name string, size uint64) error {
	dest, err := fileio.CreateDestination(r.folder, name)
	if err != nil {
		return err
	}
	defer dest.Close()

	bar := progressbar.DefaultBytes(int64(size), "Receiving "+name)
	digest, err := networking.RecvExact(r.link, io.MultiWriter(dest, bar), size)
	bar.Finish()
	if err != nil {
		// The partial file stays on disk for the operator to inspect.
		return err
	}

	if err := networking.SendDigest(r.link, digest); err != nil {
		return err
	}
	if !networking.RecvAck(r.link) {
		// Already written data is not rolled back.
		return fmt.Errorf("%w: final ack for %s", networking.ErrAckRejected, name)
	}
	return nil
}

// Close tears down whatever is open
func (r *Receiver) Close() {
	if r.conn != nil {
		r.conn.Close()
	}
	if r.listener != nil {
		r.listener.Close()
	}
}
