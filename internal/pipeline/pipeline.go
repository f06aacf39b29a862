package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dh2anvil/dh2anvil/internal/anvil"
	"github.com/dh2anvil/dh2anvil/internal/chunkmodel"
	"github.com/dh2anvil/dh2anvil/internal/dhlog"
	"github.com/dh2anvil/dh2anvil/internal/source"
)

// yOffset converts a DH data point's DH-space min_y into the target
// format's world-space y.
const yOffset = -64

// worldMaxY is the highest valid block y; runs extending past it are
// clamped voxel-by-voxel rather than truncated.
const worldMaxY = 319

// sectionsPerRegionEdge is the number of DH sections along one edge of a
// region (a region is 512 voxels wide, a DH section 64).
const sectionsPerRegionEdge = 8

// chunksPerSectionEdge is the number of target-format chunks one DH
// section covers along an edge (64 voxels / 16 voxels per chunk).
const chunksPerSectionEdge = 4

// Options configures one pipeline run.
type Options struct {
	OutDir string
	// Threads is the worker pool size; 0 selects runtime.NumCPU().
	Threads int
	// Range bounds regions processed to x,z in [-Range, Range); 0 means
	// unbounded.
	Range int32
	// Log, if set, receives per-worker region lifecycle lines. Nil disables
	// this logging (tests leave it unset).
	Log *logrus.Logger
	// RunID tags Log lines so concurrent runs (or re-runs) can be told
	// apart in aggregated log output.
	RunID string
}

// SectionStore is the subset of *source.Store the pipeline depends on.
type SectionStore interface {
	SectionPositions() ([]source.SectionPos, error)
	SectionsInRegion(source.RegionPos) (map[source.SectionPos]source.Section, error)
}

// Run generates one region file per in-range region containing data,
// fanning work out across a worker pool and reporting progress on events.
// events is closed once every worker has finished.
func Run(store SectionStore, opts Options, template map[string]any, events Sink) error {
	defer close(events)

	regions, err := RegionsToProcess(store, opts.Range)
	if err != nil {
		return err
	}

	workers := opts.Threads
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)

	for i, region := range regions {
		workerID := i % workers
		g.Go(func() error {
			// Once any region has failed, regions not yet started are
			// skipped; regions already in flight run to completion.
			if ctx.Err() != nil {
				return nil
			}
			return generateRegion(store, opts, region, template, workerID, events)
		})
	}
	return g.Wait()
}

// RegionsToProcess lists the distinct, in-range regions a database
// contains data for. The CLI uses this to size the progress bar before
// Run starts producing events.
func RegionsToProcess(store SectionStore, rng int32) ([]source.RegionPos, error) {
	positions, err := store.SectionPositions()
	if err != nil {
		return nil, fmt.Errorf("pipeline: list section positions: %w", err)
	}

	seen := make(map[source.RegionPos]bool)
	var regions []source.RegionPos
	for _, pos := range positions {
		region := pos.Region()
		if rng != 0 && (region.X < -rng || region.X >= rng || region.Z < -rng || region.Z >= rng) {
			continue
		}
		if !seen[region] {
			seen[region] = true
			regions = append(regions, region)
		}
	}
	return regions, nil
}

func generateRegion(store SectionStore, opts Options, region source.RegionPos, template map[string]any, workerID int, events Sink) error {
	var log *logrus.Entry
	if opts.Log != nil {
		log = dhlog.WithWorker(opts.Log, workerID, opts.RunID)
	}

	sections, err := store.SectionsInRegion(region)
	if err != nil {
		return fmt.Errorf("pipeline: fetch sections for region (%d,%d): %w", region.X, region.Z, err)
	}
	if len(sections) == 0 {
		if log != nil {
			log.Warnf("region (%d,%d) has no data, skipping", region.X, region.Z)
		}
		return nil
	}

	w, err := anvil.Open(opts.OutDir, region.X, region.Z)
	if err != nil {
		return fmt.Errorf("pipeline: open region (%d,%d): %w", region.X, region.Z, err)
	}
	events <- Event{Kind: StartRegion, Region: region, WorkerID: workerID}
	if log != nil {
		log.Infof("region (%d,%d) started", region.X, region.Z)
	}

	for osx := 0; osx < sectionsPerRegionEdge; osx++ {
		for osz := 0; osz < sectionsPerRegionEdge; osz++ {
			sectionPos := source.SectionPos{X: region.X*sectionsPerRegionEdge + int32(osx), Z: region.Z*sectionsPerRegionEdge + int32(osz)}

			sec, ok := sections[sectionPos]
			if !ok {
				events <- Event{Kind: FinishDHSection, Region: region, Section: sectionPos, WorkerID: workerID}
				continue
			}

			if err := writeSection(w, region, osx, osz, sec, template); err != nil {
				return fmt.Errorf("pipeline: region (%d,%d) section (%d,%d): %w", region.X, region.Z, sectionPos.X, sectionPos.Z, err)
			}
			events <- Event{Kind: FinishDHSection, Region: region, Section: sectionPos, WorkerID: workerID}
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("pipeline: close region (%d,%d): %w", region.X, region.Z, err)
	}
	events <- Event{Kind: FinishRegion, Region: region, WorkerID: workerID}
	if log != nil {
		log.Infof("region (%d,%d) finished", region.X, region.Z)
	}
	return nil
}

// writeSection builds the 16 chunks one DH section covers, places its
// columns' blocks, and writes each chunk to its region slot.
func writeSection(w *anvil.Writer, region source.RegionPos, osx, osz int, sec source.Section, template map[string]any) error {
	chunks := buildSectionChunks(region, osx, osz, template)

	for idx, runs := range sec.Data.Columns {
		x := idx / 64
		z := idx % 64
		ownerIdx := ((x & 0x30) >> 2) | ((z & 0x30) >> 4)
		cx, cz := x&0xF, z&0xF
		chunk := chunks[ownerIdx]

		for _, dp := range runs {
			if int(dp.ID) < 0 || int(dp.ID) >= len(sec.Data.Mapping) {
				return fmt.Errorf("data point id %d out of range for mapping of length %d", dp.ID, len(sec.Data.Mapping))
			}
			entry := sec.Data.Mapping[dp.ID]
			if entry.IsAir() {
				continue
			}
			state := chunkmodel.NewBlockState(entry.Block, entry.Properties)

			y0 := int(dp.MinY) + yOffset
			y1 := y0 + int(dp.Height)
			for y := y0; y < y1; y++ {
				yy := y
				if yy > worldMaxY {
					yy = worldMaxY
				}
				if err := chunk.SetBlock(cx, yy, cz, state); err != nil {
					return fmt.Errorf("set block at local (%d,%d,%d): %w", cx, yy, cz, err)
				}
			}
		}
	}

	for i, chunk := range chunks {
		localX := osx*chunksPerSectionEdge + (i >> 2)
		localZ := osz*chunksPerSectionEdge + (i & 3)
		data, err := chunkmodel.EncodeChunk(chunk)
		if err != nil {
			return fmt.Errorf("encode chunk %d: %w", i, err)
		}
		if err := w.WriteChunk(localX&0x1FF, localZ&0x1FF, data); err != nil {
			return fmt.Errorf("write chunk %d: %w", i, err)
		}
	}
	return nil
}

func buildSectionChunks(region source.RegionPos, osx, osz int, template map[string]any) [16]*chunkmodel.Chunk {
	var chunks [16]*chunkmodel.Chunk
	for i := range chunks {
		chunkXLocal := i >> 2
		chunkZLocal := i & 3
		x := region.X*32 + int32(osx*chunksPerSectionEdge+chunkXLocal)
		z := region.Z*32 + int32(osz*chunksPerSectionEdge+chunkZLocal)

		c := chunkmodel.NewChunk(x, z, chunkmodel.CloneTemplate(template))
		c.Status = "minecraft:initialize_light"
		c.SetBiome("minecraft:plains")
		chunks[i] = c
	}
	return chunks
}
