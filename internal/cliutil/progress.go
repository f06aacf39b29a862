// Package cliutil wires the pipeline's status channel to a terminal
// progress bar, the external collaborator the core converter only talks to
// through typed events.
package cliutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/dh2anvil/dh2anvil/internal/pipeline"
)

// Reporter drives an overall progress bar (regions x 64 DH-section slots)
// and prints cumulative bytes written as regions complete.
type Reporter struct {
	bar     *progressbar.ProgressBar
	outDir  string
	written int64 // total size of the region files finished so far
}

// NewReporter creates a reporter sized for regionCount regions, each
// contributing 64 section-finish events to the overall total.
func NewReporter(regionCount int, outDir string) *Reporter {
	bar := progressbar.NewOptions(regionCount*64,
		progressbar.OptionSetDescription("converting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
	return &Reporter{bar: bar, outDir: outDir}
}

// Run consumes events until the channel is closed, driving the bar and
// printing a line per completed region. It is meant to run in its own
// goroutine alongside pipeline.Run.
func (r *Reporter) Run(events pipeline.Sink) {
	for e := range events {
		switch e.Kind {
		case pipeline.FinishDHSection:
			_ = r.bar.Add(1)
		case pipeline.FinishRegion:
			r.printRegionDone(e)
		}
	}
	_ = r.bar.Finish()
}

func (r *Reporter) printRegionDone(e pipeline.Event) {
	path := filepath.Join(r.outDir, fmt.Sprintf("r.%d.%d.mca", e.Region.X, e.Region.Z))
	size := int64(0)
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	r.written += size
	fmt.Fprintf(os.Stderr, "region (%d,%d) done, %d bytes (%d bytes written in total)\n", e.Region.X, e.Region.Z, size, r.written)
}
