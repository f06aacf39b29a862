// Package binutil provides small big-endian reader helpers used by the DH
// section decoder.
package binutil

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Reader wraps an io.Reader with the handful of fixed-width, big-endian
// typed reads the DH binary formats use.
type Reader struct {
	r io.Reader
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Int64 reads a big-endian int64.
func (r *Reader) Int64() (int64, error) {
	var v int64
	err := binary.Read(r.r, binary.BigEndian, &v)
	return v, err
}

// Int32 reads a big-endian int32.
func (r *Reader) Int32() (int32, error) {
	var v int32
	err := binary.Read(r.r, binary.BigEndian, &v)
	return v, err
}

// Int16 reads a big-endian int16.
func (r *Reader) Int16() (int16, error) {
	var v int16
	err := binary.Read(r.r, binary.BigEndian, &v)
	return v, err
}

// Int8 reads a single signed byte.
func (r *Reader) Int8() (int8, error) {
	b, err := r.Byte()
	return int8(b), err
}

// Byte reads a single byte.
func (r *Reader) Byte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// MaxStringLen bounds length-prefixed string reads against corrupt or
// adversarial length fields; DH mapping strings are never remotely this
// long in practice.
const MaxStringLen = 1 << 20

// ShortString reads an int16-length-prefixed UTF-8 string, the framing the
// DH mapping dictionary uses for its entries.
func (r *Reader) ShortString() (string, error) {
	n, err := r.Int16()
	if err != nil {
		return "", err
	}
	if n < 0 || int(n) > MaxStringLen {
		return "", fmt.Errorf("binutil: invalid string length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
