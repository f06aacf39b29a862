// Package source reads Distant Horizons section rows out of the input
// SQLite export.
package source

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/dh2anvil/dh2anvil/internal/compress"
	"github.com/dh2anvil/dh2anvil/internal/dhformat"
)

// SectionPos is a DH section's position in the 64-voxel-wide section grid.
type SectionPos struct {
	X, Z int32
}

// Region returns the RegionPos the section belongs to.
func (s SectionPos) Region() RegionPos {
	return RegionPos{X: s.X >> 3, Z: s.Z >> 3}
}

// RegionPos is an Anvil region's position in the 512-voxel-wide region grid.
type RegionPos struct {
	X, Z int32
}

// Section is a fully decoded DH section row, ready for the chunk builder.
type Section struct {
	Pos  SectionPos
	Data dhformat.SectionData
}

// Store queries the input database. The underlying *sql.DB handle backs a
// single connection in practice (see Open), so every query is serialized
// under mu — mirroring the source tool's own Mutex<DHDBConn> discipline,
// since SQLite connections accessed this way are not safe for unguarded
// concurrent use.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens the SQLite file at path for reading.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	// The DH export is read-only from this tool's perspective; a single
	// connection avoids SQLITE_BUSY churn against modernc.org/sqlite's
	// file-level locking.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SectionPositions returns every DH section position present in the
// database at detail level 0.
func (s *Store) SectionPositions() ([]SectionPos, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT PosX, PosZ FROM FullData WHERE DetailLevel = 0`)
	if err != nil {
		return nil, fmt.Errorf("source: query section positions: %w", err)
	}
	defer rows.Close()

	var out []SectionPos
	for rows.Next() {
		var p SectionPos
		if err := rows.Scan(&p.X, &p.Z); err != nil {
			return nil, fmt.Errorf("source: scan section position: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("source: iterate section positions: %w", err)
	}
	return out, nil
}

// SectionsInRegion returns every decoded section belonging to region.
func (s *Store) SectionsInRegion(region RegionPos) (map[SectionPos]Section, error) {
	minX, minZ := region.X*8, region.Z*8
	maxX, maxZ := minX+8, minZ+8

	s.mu.Lock()
	rows, err := s.db.Query(`
		SELECT PosX, PosZ, MinY, Data, Mapping, DataFormatVersion, CompressionMode
		FROM FullData
		WHERE DetailLevel = 0 AND PosX >= ? AND PosX < ? AND PosZ >= ? AND PosZ < ?`,
		minX, maxX, minZ, maxZ)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("source: query sections in region (%d,%d): %w", region.X, region.Z, err)
	}

	out := make(map[SectionPos]Section)
	for rows.Next() {
		var (
			pos             SectionPos
			minY            int32
			dataBlob        []byte
			mappingBlob     []byte
			formatVersion   int8
			compressionMode int8
		)
		if err := rows.Scan(&pos.X, &pos.Z, &minY, &dataBlob, &mappingBlob, &formatVersion, &compressionMode); err != nil {
			rows.Close()
			s.mu.Unlock()
			return nil, fmt.Errorf("source: scan section row: %w", err)
		}

		sec, err := decodeSection(pos, minY, formatVersion, compressionMode, dataBlob, mappingBlob)
		if err != nil {
			rows.Close()
			s.mu.Unlock()
			return nil, err
		}
		out[pos] = sec
	}
	err = rows.Err()
	rows.Close()
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("source: iterate sections in region (%d,%d): %w", region.X, region.Z, err)
	}
	return out, nil
}

func decodeSection(pos SectionPos, minY int32, formatVersion, compressionMode int8, dataBlob, mappingBlob []byte) (Section, error) {
	mode := compress.Mode(compressionMode)

	rawData, err := compress.Decompress(mode, dataBlob)
	if err != nil {
		return Section{}, fmt.Errorf("source: decompress column data for section (%d,%d): %w", pos.X, pos.Z, err)
	}
	rawMapping, err := compress.Decompress(mode, mappingBlob)
	if err != nil {
		return Section{}, fmt.Errorf("source: decompress mapping for section (%d,%d): %w", pos.X, pos.Z, err)
	}

	columns, err := dhformat.ParseColumns(rawData)
	if err != nil {
		return Section{}, fmt.Errorf("source: parse columns for section (%d,%d): %w", pos.X, pos.Z, err)
	}
	mapping, err := dhformat.ParseMapping(rawMapping)
	if err != nil {
		return Section{}, fmt.Errorf("source: parse mapping for section (%d,%d): %w", pos.X, pos.Z, err)
	}

	return Section{
		Pos: pos,
		Data: dhformat.SectionData{
			MinY:            minY,
			Columns:         columns,
			Mapping:         mapping,
			FormatVersion:   formatVersion,
			CompressionMode: compressionMode,
		},
	}, nil
}
