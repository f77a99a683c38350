package networking

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/campingtree/socket-file-transfer/constants"
)

// SendExact copies exactly length bytes from src to w in bounded chunks,
// feeding every chunk into a running SHA256. A source that runs dry or a
// write that moves zero bytes breaks the session. Returns the final
// digest of the copied payload.
func SendExact(w io.Writer, src io.Reader, length uint64) ([]byte, error) {
	hash := sha256.New()
	buf := make([]byte, constants.TRANSFER_CHUNK_SIZE)

	var sent uint64
	for sent < length {
		want := uint64(len(buf))
		if length-sent < want {
			want = length - sent
		}

		read, err := src.Read(buf[:want])
		if read == 0 {
			if err == nil || err == io.EOF {
				return nil, fmt.Errorf("%w: source ended %d bytes early",
					ErrConnectionBroken, length-sent)
			}
			return nil, brokenOrTimeout(err)
		}

		written, err := w.Write(buf[:read])
		if err != nil {
			return nil, brokenOrTimeout(err)
		}
		if written == 0 {
			return nil, fmt.Errorf("%w: zero bytes sent", ErrConnectionBroken)
		}

		hash.Write(buf[:read])
		sent += uint64(read)
	}

	return hash.Sum(nil), nil
}

// RecvExact reads exactly size bytes from r into sink, feeding every
// chunk into a running SHA256. A read returning zero bytes before size
// is reached means the peer closed mid-payload.
func RecvExact(r io.Reader, sink io.Writer, size uint64) ([]byte, error) {
	hash := sha256.New()
	buf := make([]byte, constants.TRANSFER_CHUNK_SIZE)

	var got uint64
	for got < size {
		want := uint64(len(buf))
		if size-got < want {
			want = size - got
		}

		read, err := r.Read(buf[:want])
		if read == 0 {
			if err == nil || err == io.EOF {
				return nil, fmt.Errorf("%w: stream ended %d bytes early",
					ErrConnectionBroken, size-got)
			}
			return nil, brokenOrTimeout(err)
		}

		if _, err := sink.Write(buf[:read]); err != nil {
			return nil, fmt.Errorf("writing payload to sink: %w", err)
		}

		hash.Write(buf[:read])
		got += uint64(read)
	}

	return hash.Sum(nil), nil
}

// SendAck writes the single approval byte
func SendAck(w io.Writer) error {
	if _, err := w.Write([]byte{constants.ACK_BYTE}); err != nil {
		return brokenOrTimeout(err)
	}
	return nil
}

// RecvAck reads one byte and reports whether the peer approved.
// Any other outcome, including a short or failed read, counts as
// "not acknowledged" rather than a protocol error of its own.
func RecvAck(r io.Reader) bool {
	ack := make([]byte, 1)
	if _, err := io.ReadFull(r, ack); err != nil {
		return false
	}
	return ack[0] == constants.ACK_BYTE
}

// SendDigest wraps the digest as an exact 32 byte transfer
func SendDigest(w io.Writer, digest []byte) error {
	if len(digest) != constants.DIGEST_SIZE {
		return fmt.Errorf("%w: digest must be %d bytes, have %d",
			ErrProtocolDecode, constants.DIGEST_SIZE, len(digest))
	}
	if _, err := w.Write(digest); err != nil {
		return brokenOrTimeout(err)
	}
	return nil
}

// RecvDigest reads the peer's 32 byte digest
func RecvDigest(r io.Reader) ([]byte, error) {
	digest := make([]byte, constants.DIGEST_SIZE)
	if _, err := io.ReadFull(r, digest); err != nil {
		return nil, brokenOrTimeout(err)
	}
	return digest, nil
}

// SendFileSize writes the 8 byte big-endian size field
func SendFileSize(w io.Writer, size uint64) error {
	field := make([]byte, constants.SIZE_FIELD_SIZE)
	binary.BigEndian.PutUint64(field, size)
	if _, err := w.Write(field); err != nil {
		return brokenOrTimeout(err)
	}
	return nil
}

// RecvFileSize reads the 8 byte big-endian size field. The receiver
// treats a failed read the same as an explicit zero: no more files.
func RecvFileSize(r io.Reader) (uint64, error) {
	field := make([]byte, constants.SIZE_FIELD_SIZE)
	if _, err := io.ReadFull(r, field); err != nil {
		return 0, fmt.Errorf("%w: short size field", ErrProtocolDecode)
	}
	return binary.BigEndian.Uint64(field), nil
}

// SendFileName writes the fixed width NUL padded name field. Names
// wider than the field are rejected before any bytes hit the wire;
// truncation is never allowed.
func SendFileName(w io.Writer, name string) error {
	if len(name) > constants.NAME_FIELD_SIZE {
		return fmt.Errorf("%w: %q is %d bytes", ErrNameTooLong, name, len(name))
	}
	field := make([]byte, constants.NAME_FIELD_SIZE)
	copy(field, name)
	if _, err := w.Write(field); err != nil {
		return brokenOrTimeout(err)
	}
	return nil
}

// RecvFileName reads the name field, strips the trailing padding and
// validates the remainder as UTF-8
func RecvFileName(r io.Reader) (string, error) {
	field := make([]byte, constants.NAME_FIELD_SIZE)
	if _, err := io.ReadFull(r, field); err != nil {
		return "", brokenOrTimeout(err)
	}
	name := bytes.TrimRight(field, "\x00")
	if !utf8.Valid(name) {
		return "", fmt.Errorf("%w: name field is not valid UTF-8", ErrProtocolDecode)
	}
	return string(name), nil
}
