// Package pipeline fans out region generation across a worker pool: each
// worker pulls its region's sections from the source store, builds and
// writes its chunks, and reports progress on a shared status channel.
package pipeline

import "github.com/dh2anvil/dh2anvil/internal/source"

// EventKind tags a status Event.
type EventKind int

const (
	// StartRegion marks the beginning of one region's work.
	StartRegion EventKind = iota
	// FinishDHSection marks one of a region's 64 DH-section slots done,
	// whether or not it held any data.
	FinishDHSection
	// FinishRegion marks a region fully written.
	FinishRegion
)

// Event is one status update a worker sends to the shared reporter.
type Event struct {
	Kind       EventKind
	Region     source.RegionPos
	Section    source.SectionPos
	WorkerID   int
}

// Sink is the channel type workers send Events on. The pipeline closes it
// once every worker has finished, signaling the reporter to shut down.
type Sink = chan Event
