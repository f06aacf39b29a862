package source

import (
	"database/sql"
	"encoding/binary"
	"testing"

	_ "modernc.org/sqlite"
)

func TestRegionAssignment(t *testing.T) {
	cases := []struct {
		pos  SectionPos
		want RegionPos
	}{
		{SectionPos{X: 0, Z: 0}, RegionPos{X: 0, Z: 0}},
		{SectionPos{X: 7, Z: 7}, RegionPos{X: 0, Z: 0}},
		{SectionPos{X: 8, Z: 0}, RegionPos{X: 1, Z: 0}},
		{SectionPos{X: -1, Z: 0}, RegionPos{X: -1, Z: 0}},
		{SectionPos{X: -8, Z: -8}, RegionPos{X: -1, Z: -1}},
	}
	for _, c := range cases {
		if got := c.pos.Region(); got != c.want {
			t.Fatalf("%+v.Region() = %+v, want %+v", c.pos, got, c.want)
		}
	}
}

func TestSectionPositionsAndSectionsInRegion(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	mapping := encodeTestMapping(t)
	data := encodeTestColumns(t)

	mustExec(t, db, `INSERT INTO FullData (PosX, PosZ, MinY, Data, Mapping, DataFormatVersion, CompressionMode, DetailLevel) VALUES (?,?,?,?,?,?,?,0)`,
		0, 0, 0, data, mapping, 1, 0)
	mustExec(t, db, `INSERT INTO FullData (PosX, PosZ, MinY, Data, Mapping, DataFormatVersion, CompressionMode, DetailLevel) VALUES (?,?,?,?,?,?,?,0)`,
		8, 0, 0, data, mapping, 1, 0)
	// A non-zero detail level row must never surface.
	mustExec(t, db, `INSERT INTO FullData (PosX, PosZ, MinY, Data, Mapping, DataFormatVersion, CompressionMode, DetailLevel) VALUES (?,?,?,?,?,?,?,1)`,
		0, 0, 0, data, mapping, 1, 0)

	s := &Store{db: db}

	positions, err := s.SectionPositions()
	if err != nil {
		t.Fatalf("SectionPositions: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("got %d positions, want 2: %+v", len(positions), positions)
	}

	sections, err := s.SectionsInRegion(RegionPos{X: 0, Z: 0})
	if err != nil {
		t.Fatalf("SectionsInRegion: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("got %d sections in region (0,0), want 1: %+v", len(sections), sections)
	}
	sec, ok := sections[SectionPos{X: 0, Z: 0}]
	if !ok {
		t.Fatalf("missing section (0,0) in %+v", sections)
	}
	if len(sec.Data.Mapping) != 2 {
		t.Fatalf("got %d mapping entries, want 2", len(sec.Data.Mapping))
	}
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	mustExec(t, db, `CREATE TABLE FullData (
		PosX INTEGER, PosZ INTEGER, MinY INTEGER,
		Data BLOB, Mapping BLOB,
		DataFormatVersion INTEGER, CompressionMode INTEGER, DetailLevel INTEGER)`)
	return db
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func encodeTestMapping(t *testing.T) []byte {
	t.Helper()
	strs := []string{
		"minecraft:plains_DH-BSW_AIR_STATE_",
		"minecraft:plains_DH-BSW_minecraft:stone_STATE_",
	}
	var buf []byte
	buf = binary.BigEndian.AppendUint32(buf, uint32(int32(len(strs))))
	for _, s := range strs {
		buf = binary.BigEndian.AppendUint16(buf, uint16(int16(len(s))))
		buf = append(buf, s...)
	}
	return buf
}

func encodeTestColumns(t *testing.T) []byte {
	t.Helper()
	var buf []byte
	for i := 0; i < 64*64; i++ {
		buf = binary.BigEndian.AppendUint16(buf, 0)
	}
	return buf
}
