// Package compress decompresses the opaque blobs a Distant Horizons section
// row carries, dispatching on the row's CompressionMode tag.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// Mode identifies the compression scheme a DH blob was written with.
type Mode int8

const (
	// Uncompressed blobs are passed through unchanged.
	Uncompressed Mode = 0
	// LZ4 is a recognized tag the source game client can emit, but this
	// tool does not support it.
	LZ4 Mode = 1
	// LZMA2 blobs are produced by the xz container format.
	LZMA2 Mode = 3
)

// ErrUnsupported is returned for a recognized but unimplemented mode (LZ4).
var ErrUnsupported = errors.New("compress: unsupported compression mode")

// ErrInvalidMode is returned for a tag that is not one of the known modes.
type ErrInvalidMode int8

func (e ErrInvalidMode) Error() string {
	return fmt.Sprintf("compress: invalid compression mode %d", int8(e))
}

// Decompress returns the decompressed contents of blob per mode.
func Decompress(mode Mode, blob []byte) ([]byte, error) {
	switch mode {
	case Uncompressed:
		out := make([]byte, len(blob))
		copy(out, blob)
		return out, nil
	case LZ4:
		return nil, ErrUnsupported
	case LZMA2:
		return decodeXZ(blob)
	default:
		return nil, ErrInvalidMode(mode)
	}
}

// decodeXZ reads an xz/LZMA2 stream to its natural end. xz.Reader already
// turns the terminal index/footer into a clean io.EOF, so unlike the
// byte-at-a-time loop the original implementation needed, a single
// io.ReadAll suffices here.
func decodeXZ(blob []byte) ([]byte, error) {
	zr, err := xz.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("compress: open xz stream: %w", err)
	}
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("compress: read xz stream: %w", err)
	}
	return out, nil
}
