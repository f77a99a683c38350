package controller

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/campingtree/socket-file-transfer/networking"
	"github.com/campingtree/socket-file-transfer/sender/comms"

	qt "github.com/frankban/quicktest"
)

type sessionResult struct {
	caps  []networking.Capability
	count int
	err   error
}

// runReceiver listens on an ephemeral loopback port and drives one full
// receiving session in the background
func runReceiver(c *qt.C, root string, timeout time.Duration) (*Receiver, chan sessionResult) {
	recv := new(Receiver)
	c.Assert(recv.Listen(root, "127.0.0.1:0", false), qt.IsNil)

	done := make(chan sessionResult, 1)
	go func() {
		var res sessionResult
		if res.err = recv.Accept(0); res.err != nil {
			done <- res
			return
		}
		if res.caps, res.err = recv.Negotiate(timeout); res.err != nil {
			done <- res
			return
		}
		res.count, res.err = recv.ReceiveAll()
		done <- res
	}()
	return recv, done
}

func TestSingleFileSession(t *testing.T) {
	c := qt.New(t)

	root := c.TempDir()
	src := filepath.Join(c.TempDir(), "a.txt")
	c.Assert(os.WriteFile(src, []byte("hello world"), 0o644), qt.IsNil)

	recv, done := runReceiver(c, root, 0)
	defer recv.Close()

	sender := new(comms.Sender)
	c.Assert(sender.Connect(recv.Addr().String(), 0, false), qt.IsNil)
	defer sender.Close()

	c.Assert(sender.Announce(1, 0), qt.IsNil)
	c.Assert(sender.SendFile(src), qt.IsNil)
	c.Assert(sender.Finish(), qt.IsNil)

	res := <-done
	c.Assert(res.err, qt.IsNil)
	c.Assert(res.count, qt.Equals, 1)
	c.Assert(res.caps, qt.DeepEquals, []networking.Capability{networking.SINGLE_FILE, networking.NO_TIMEOUT})

	written, err := os.ReadFile(filepath.Join(root, "a.txt"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(written), qt.Equals, "hello world")
}

func TestMultiFileSession(t *testing.T) {
	c := qt.New(t)

	root := c.TempDir()
	srcDir := c.TempDir()

	contents := map[string]string{
		"first.bin":  "alpha payload",
		"second.bin": "beta payload, a bit longer than the first",
		"third.bin":  "gamma",
	}
	var paths []string
	for name, body := range contents {
		path := filepath.Join(srcDir, name)
		c.Assert(os.WriteFile(path, []byte(body), 0o644), qt.IsNil)
		paths = append(paths, path)
	}

	recv, done := runReceiver(c, root, time.Minute)
	defer recv.Close()

	sender := new(comms.Sender)
	c.Assert(sender.Connect(recv.Addr().String(), 0, false), qt.IsNil)
	defer sender.Close()

	c.Assert(sender.Announce(len(paths), time.Minute), qt.IsNil)
	for _, path := range paths {
		c.Assert(sender.SendFile(path), qt.IsNil)
	}
	c.Assert(sender.Finish(), qt.IsNil)

	res := <-done
	c.Assert(res.err, qt.IsNil)
	c.Assert(res.count, qt.Equals, len(contents))
	c.Assert(res.caps, qt.DeepEquals, []networking.Capability{networking.MULTI_FILES, networking.TIMEOUT})

	for name, body := range contents {
		written, err := os.ReadFile(filepath.Join(root, name))
		c.Assert(err, qt.IsNil)
		c.Assert(string(written), qt.Equals, body)
	}
}

func TestEmptyBatchSession(t *testing.T) {
	c := qt.New(t)

	recv, done := runReceiver(c, c.TempDir(), 0)
	defer recv.Close()

	sender := new(comms.Sender)
	c.Assert(sender.Connect(recv.Addr().String(), 0, false), qt.IsNil)
	defer sender.Close()

	// Negotiate, then half-close without sending a single size field.
	c.Assert(sender.Announce(0, 0), qt.IsNil)
	c.Assert(sender.Finish(), qt.IsNil)

	res := <-done
	c.Assert(res.err, qt.IsNil)
	c.Assert(res.count, qt.Equals, 0)
}

func TestSenderDisconnectMidPayload(t *testing.T) {
	c := qt.New(t)

	root := c.TempDir()

	recv, done := runReceiver(c, root, 0)
	defer recv.Close()

	// Walk the handshake up to the payload by hand, then vanish.
	conn, err := net.Dial("tcp", recv.Addr().String())
	c.Assert(err, qt.IsNil)
	link := networking.DeadlineStream{Conn: conn}

	caps := []networking.Capability{networking.SINGLE_FILE, networking.NO_TIMEOUT}
	c.Assert(networking.SendCapabilities(&link, caps), qt.IsNil)
	c.Assert(networking.RecvAck(&link), qt.IsTrue)

	c.Assert(networking.SendFileSize(&link, 1000), qt.IsNil)
	c.Assert(networking.RecvAck(&link), qt.IsTrue)
	c.Assert(networking.SendFileName(&link, "cut.bin"), qt.IsNil)
	c.Assert(networking.RecvAck(&link), qt.IsTrue)

	link.Write([]byte("only a few bytes"))
	conn.Close()

	res := <-done
	c.Assert(res.err, qt.ErrorIs, networking.ErrConnectionBroken)
	c.Assert(res.count, qt.Equals, 0)

	// The partial destination file is left in place, not rolled back.
	_, err = os.Stat(filepath.Join(root, "cut.bin"))
	c.Assert(err, qt.IsNil)
}
