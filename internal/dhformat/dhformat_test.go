package dhformat

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestDataPointPackRoundTrip(t *testing.T) {
	cases := []DataPoint{
		{ID: 0, Height: 0, MinY: 0},
		{ID: 1, Height: 1, MinY: 0},
		{ID: (1 << 31) - 1, Height: 4095, MinY: 4095},
		{ID: 42, Height: 400, MinY: 400},
	}
	for _, dp := range cases {
		got := UnpackDataPoint(dp.Pack())
		if got != dp {
			t.Fatalf("round trip: got %+v, want %+v", got, dp)
		}
	}
}

func TestParseMappingBlockState(t *testing.T) {
	entries := encodeMapping(t, []string{
		"minecraft:plains_DH-BSW_minecraft:oak_log_STATE_{axis:y}{waterlogged:false}",
	})
	got, err := ParseMapping(entries)
	if err != nil {
		t.Fatalf("ParseMapping: %v", err)
	}
	want := MappingEntry{
		Biome:      "minecraft:plains",
		Block:      "minecraft:oak_log",
		Properties: map[string]string{"axis": "y", "waterlogged": "false"},
	}
	if len(got) != 1 || !entryEqual(got[0], want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseMappingAirSentinel(t *testing.T) {
	entries := encodeMapping(t, []string{
		"minecraft:plains_DH-BSW_AIR_STATE_",
	})
	got, err := ParseMapping(entries)
	if err != nil {
		t.Fatalf("ParseMapping: %v", err)
	}
	if len(got) != 1 || !got[0].IsAir() || got[0].Biome != "minecraft:plains" {
		t.Fatalf("got %+v, want air entry with biome minecraft:plains", got)
	}
}

func TestParseMappingMissingSeparator(t *testing.T) {
	entries := encodeMapping(t, []string{"nonsense"})
	if _, err := ParseMapping(entries); err == nil {
		t.Fatal("expected error for missing separator, got nil")
	}
}

func TestParseMappingMalformedStateDoesNotPanic(t *testing.T) {
	entries := encodeMapping(t, []string{
		"minecraft:plains_DH-BSW_minecraft:oak_log_STATE_x",
	})
	if _, err := ParseMapping(entries); err == nil {
		t.Fatal("expected error for malformed state payload, got nil")
	}
}

func TestParseColumnsEmpty(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < SectionColumns; i++ {
		_ = binary.Write(&buf, binary.BigEndian, int16(0))
	}
	cols, err := ParseColumns(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseColumns: %v", err)
	}
	for i, c := range cols {
		if len(c) != 0 {
			t.Fatalf("column %d: expected empty, got %v", i, c)
		}
	}
}

func TestParseColumnsSingleRun(t *testing.T) {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, int16(1))
	dp := DataPoint{ID: 1, Height: 1, MinY: 0}
	_ = binary.Write(&buf, binary.BigEndian, dp.Pack())
	for i := 1; i < SectionColumns; i++ {
		_ = binary.Write(&buf, binary.BigEndian, int16(0))
	}

	cols, err := ParseColumns(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseColumns: %v", err)
	}
	if len(cols[0]) != 1 || cols[0][0] != dp {
		t.Fatalf("column 0: got %v, want [%v]", cols[0], dp)
	}
}

func entryEqual(a, b MappingEntry) bool {
	if a.Biome != b.Biome || a.Block != b.Block || len(a.Properties) != len(b.Properties) {
		return false
	}
	for k, v := range a.Properties {
		if b.Properties[k] != v {
			return false
		}
	}
	return true
}

func encodeMapping(t *testing.T, strs []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, int32(len(strs)))
	for _, s := range strs {
		_ = binary.Write(&buf, binary.BigEndian, int16(len(s)))
		buf.WriteString(s)
	}
	return buf.Bytes()
}
