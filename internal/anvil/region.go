// Package anvil writes chunk payloads into the Anvil .mca region file
// format: a 4 KiB location header, a 4 KiB timestamp header, and
// sector-aligned deflate-compressed chunk payloads.
package anvil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zlib"
)

const (
	sectorSize      = 4096
	headerSectors   = 2 // location table + timestamp table
	compressionZlib = 2

	// regionWidth is the number of chunks along one edge of a region.
	regionWidth = 32
)

// Writer accumulates chunk payloads for a single region and flushes them to
// one .mca file on Close.
type Writer struct {
	dir      string
	rx, rz   int32
	entries  map[int]*chunkEntry
}

type chunkEntry struct {
	compressed []byte
}

// Open prepares a writer for region (rx, rz). Any existing file for that
// region is removed up front so stale sectors from a prior run never leak
// into the new file.
func Open(dir string, rx, rz int32) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("anvil: create region dir %s: %w", dir, err)
	}
	path := regionPath(dir, rx, rz)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("anvil: remove stale region file %s: %w", path, err)
	}
	return &Writer{dir: dir, rx: rx, rz: rz, entries: make(map[int]*chunkEntry)}, nil
}

// WriteChunk deflates nbtData and stages it at local chunk coordinates
// (x, z), each in [0, 32).
func (w *Writer) WriteChunk(x, z int, nbtData []byte) error {
	if x < 0 || x >= regionWidth || z < 0 || z >= regionWidth {
		return fmt.Errorf("anvil: chunk coordinate (%d,%d) out of region bounds", x, z)
	}

	var cbuf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&cbuf, zlib.DefaultCompression)
	if err != nil {
		return fmt.Errorf("anvil: create zlib writer: %w", err)
	}
	if _, err := zw.Write(nbtData); err != nil {
		return fmt.Errorf("anvil: compress chunk (%d,%d): %w", x, z, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("anvil: close zlib writer: %w", err)
	}

	idx := (x & 31) + (z&31)*32
	w.entries[idx] = &chunkEntry{compressed: cbuf.Bytes()}
	return nil
}

// Close lays out the location/timestamp headers and sector-aligned payloads
// and atomically publishes the region file.
func (w *Writer) Close() error {
	locations := make([]byte, sectorSize)
	timestamps := make([]byte, sectorSize)
	now := uint32(time.Now().Unix())

	var dataBuf bytes.Buffer
	currentSector := uint32(headerSectors)

	for idx := 0; idx < regionWidth*regionWidth; idx++ {
		e, ok := w.entries[idx]
		if !ok {
			continue
		}

		payloadLen := uint32(len(e.compressed)) + 1
		totalLen := 4 + payloadLen
		sectorCount := (totalLen + sectorSize - 1) / sectorSize

		off := idx * 4
		binary.BigEndian.PutUint32(locations[off:off+4], (currentSector<<8)|(sectorCount&0xFF))
		binary.BigEndian.PutUint32(timestamps[off:off+4], now)

		var header [5]byte
		binary.BigEndian.PutUint32(header[0:4], payloadLen)
		header[4] = compressionZlib
		dataBuf.Write(header[:])
		dataBuf.Write(e.compressed)

		if pad := int(sectorCount)*sectorSize - int(totalLen); pad > 0 {
			dataBuf.Write(make([]byte, pad))
		}
		currentSector += sectorCount
	}

	path := regionPath(w.dir, w.rx, w.rz)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("anvil: create temp region file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmp)
	}()

	if _, err := f.Write(locations); err != nil {
		return fmt.Errorf("anvil: write locations: %w", err)
	}
	if _, err := f.Write(timestamps); err != nil {
		return fmt.Errorf("anvil: write timestamps: %w", err)
	}
	if _, err := f.Write(dataBuf.Bytes()); err != nil {
		return fmt.Errorf("anvil: write chunk data: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("anvil: close region file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("anvil: rename region file: %w", err)
	}
	return nil
}

func regionPath(dir string, rx, rz int32) string {
	return filepath.Join(dir, fmt.Sprintf("r.%d.%d.mca", rx, rz))
}
