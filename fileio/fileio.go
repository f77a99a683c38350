package fileio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/campingtree/socket-file-transfer/constants"
	"github.com/campingtree/socket-file-transfer/networking"
)

var (
	ErrNotRegularFile = errors.New("not a regular file")
	ErrEmptyFile      = errors.New("empty file cannot be represented on the wire")
)

// CheckSource validates one source file before any network traffic.
// The name width check runs first so an oversize name fails without
// touching the file system at all.
func CheckSource(path string) (os.FileInfo, error) {
	if name := filepath.Base(path); len(name) > constants.NAME_FIELD_SIZE {
		return nil, fmt.Errorf("%w: %q is %d bytes", networking.ErrNameTooLong, name, len(name))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}
	if info.Size() == 0 {
		// A zero size field is the end of batch sentinel.
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	return info, nil
}

// CheckBatch validates every source file up front, so a bad file aborts
// the session before the first protocol byte moves
func CheckBatch(paths []string) error {
	for _, path := range paths {
		if _, err := CheckSource(path); err != nil {
			return err
		}
	}
	return nil
}

// CreateDestination opens a file for a received payload under the
// receive root. Only the base of the transmitted name is used so a peer
// cannot write outside the root. An existing file is overwritten.
func CreateDestination(root, name string) (*os.File, error) {
	// Peers on other platforms may send names with either separator.
	slashed := strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(filepath.FromSlash(slashed))
	if base == "." || base == ".." || base == string(os.PathSeparator) {
		return nil, fmt.Errorf("%w: unusable file name %q", networking.ErrProtocolDecode, name)
	}
	return os.Create(filepath.Join(filepath.Clean(root), base))
}
