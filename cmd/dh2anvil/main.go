// Command dh2anvil converts a Distant Horizons SQLite export into Anvil
// region files.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dh2anvil/dh2anvil/internal/chunkmodel"
	"github.com/dh2anvil/dh2anvil/internal/cliutil"
	"github.com/dh2anvil/dh2anvil/internal/dhlog"
	"github.com/dh2anvil/dh2anvil/internal/pipeline"
	"github.com/dh2anvil/dh2anvil/internal/source"
)

// loadTemplate returns the root NBT compound new chunks are cloned from:
// DefaultTemplate unless templatePath points at a custom template chunk.
func loadTemplate(templatePath string) (map[string]any, error) {
	if templatePath == "" {
		return chunkmodel.DefaultTemplate(), nil
	}
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("dh2anvil: read template %s: %w", templatePath, err)
	}
	return chunkmodel.ParseTemplate(data)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		outDir       string
		threads      int
		rng          int
		templatePath string
	)

	cmd := &cobra.Command{
		Use:   "dh2anvil <database>",
		Short: "Convert a Distant Horizons database into Anvil region files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], outDir, threads, int32(rng), templatePath)
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "./region", "output directory for region files")
	cmd.Flags().IntVar(&threads, "threads", 0, "worker pool size (0 = auto)")
	cmd.Flags().IntVar(&rng, "range", 0, "limit to regions with x,z in [-range, range) (0 = unbounded)")
	cmd.Flags().StringVar(&templatePath, "template", "", "path to a custom template chunk's raw NBT bytes (default: built-in template)")

	return cmd
}

func run(dbPath, outDir string, threads int, rng int32, templatePath string) error {
	log := dhlog.New()
	runID := uuid.NewString()

	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("dh2anvil: input database %s: %w", dbPath, err)
	}

	template, err := loadTemplate(templatePath)
	if err != nil {
		return err
	}

	store, err := source.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	regions, err := pipeline.RegionsToProcess(store, rng)
	if err != nil {
		return err
	}
	log.WithField("run", runID).Infof("processing %d region(s) from %s", len(regions), dbPath)

	events := make(pipeline.Sink, 256)
	reporter := cliutil.NewReporter(len(regions), outDir)

	done := make(chan struct{})
	go func() {
		reporter.Run(events)
		close(done)
	}()

	opts := pipeline.Options{OutDir: outDir, Threads: threads, Range: rng, Log: log, RunID: runID}
	runErr := pipeline.Run(store, opts, template, events)
	<-done

	if runErr != nil {
		log.WithField("run", runID).WithError(runErr).Error("conversion failed")
		return runErr
	}
	log.WithField("run", runID).Info("conversion complete")
	return nil
}
