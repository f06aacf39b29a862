package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dh2anvil/dh2anvil/internal/chunkmodel"
	"github.com/dh2anvil/dh2anvil/internal/dhformat"
	"github.com/dh2anvil/dh2anvil/internal/source"
)

// fakeStore implements SectionStore in memory for pipeline tests.
type fakeStore struct {
	positions []source.SectionPos
	sections  map[source.RegionPos]map[source.SectionPos]source.Section
}

func (f *fakeStore) SectionPositions() ([]source.SectionPos, error) {
	return f.positions, nil
}

func (f *fakeStore) SectionsInRegion(r source.RegionPos) (map[source.SectionPos]source.Section, error) {
	return f.sections[r], nil
}

func TestRunEmptyDatabaseProducesNoFiles(t *testing.T) {
	store := &fakeStore{}
	dir := t.TempDir()
	events := make(Sink, 16)

	if err := Run(store, Options{OutDir: dir}, chunkmodel.DefaultTemplate(), events); err != nil {
		t.Fatalf("Run: %v", err)
	}
	drainEvents(events)

	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no output files, got %v", entries)
	}
}

func TestRunSingleSectionAtOrigin(t *testing.T) {
	pos := source.SectionPos{X: 0, Z: 0}
	region := pos.Region()

	cols := [4096][]dhformat.DataPoint{}
	cols[0] = []dhformat.DataPoint{{ID: 1, Height: 1, MinY: 0}}

	store := &fakeStore{
		positions: []source.SectionPos{pos},
		sections: map[source.RegionPos]map[source.SectionPos]source.Section{
			region: {
				pos: {
					Pos: pos,
					Data: dhformat.SectionData{
						Columns: cols,
						Mapping: []dhformat.MappingEntry{
							{Biome: "minecraft:plains"},
							{Biome: "minecraft:plains", Block: "minecraft:stone"},
						},
					},
				},
			},
		},
	}

	dir := t.TempDir()
	events := make(Sink, 128)
	if err := Run(store, Options{OutDir: dir}, chunkmodel.DefaultTemplate(), events); err != nil {
		t.Fatalf("Run: %v", err)
	}
	evs := drainEvents(events)

	finishCount := 0
	sawStart, sawFinishRegion := false, false
	for _, e := range evs {
		switch e.Kind {
		case StartRegion:
			sawStart = true
		case FinishDHSection:
			finishCount++
		case FinishRegion:
			sawFinishRegion = true
		}
	}
	if finishCount != 64 {
		t.Fatalf("got %d FinishDHSection events, want 64", finishCount)
	}
	if !sawStart || !sawFinishRegion {
		t.Fatalf("expected StartRegion and FinishRegion events, got %+v", evs)
	}

	path := filepath.Join(dir, "r.0.0.mca")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}

func TestRunRangeFilter(t *testing.T) {
	near := source.SectionPos{X: 0, Z: 0}
	far := source.SectionPos{X: 80, Z: 80} // region (10,10), well outside range 1

	store := &fakeStore{
		positions: []source.SectionPos{near, far},
		sections: map[source.RegionPos]map[source.SectionPos]source.Section{
			near.Region(): {near: {Pos: near, Data: dhformat.SectionData{}}},
			far.Region():  {far: {Pos: far, Data: dhformat.SectionData{}}},
		},
	}

	dir := t.TempDir()
	events := make(Sink, 256)
	if err := Run(store, Options{OutDir: dir, Range: 1}, chunkmodel.DefaultTemplate(), events); err != nil {
		t.Fatalf("Run: %v", err)
	}
	drainEvents(events)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "r.0.0.mca" {
		t.Fatalf("got %v, want only r.0.0.mca", entries)
	}
}

func drainEvents(events Sink) []Event {
	var out []Event
	for e := range events {
		out = append(out, e)
	}
	return out
}
