package cmd

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sparkmark/sparkmark/internal/batch"
	"github.com/sparkmark/sparkmark/internal/engine"
	"github.com/sparkmark/sparkmark/internal/imgio"
	"github.com/sparkmark/sparkmark/internal/journal"
	"github.com/sparkmark/sparkmark/internal/placement"
	"github.com/sparkmark/sparkmark/internal/worker"
)

// registerProcessFlags adds the flags shared by the remove and add commands,
// bound under the command's viper key prefix.
func registerProcessFlags(cmd *cobra.Command, prefix string) {
	cmd.Flags().StringP("output", "o", "", "Output directory (default: next to each input, with a suffix)")
	cmd.Flags().String("suffix", "", "Suffix for default output names")
	cmd.Flags().Bool("force-small", false, "Force the 48x48 watermark regardless of image size")
	cmd.Flags().Bool("force-large", false, "Force the 96x96 watermark regardless of image size")
	cmd.Flags().String("region", "", "Custom watermark rectangle as x,y,width,height")
	cmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	cmd.Flags().Bool("progress", true, "Show progress bar for multi-file runs")
	cmd.Flags().String("journal", "", "Path to a SQLite journal recording per-file outcomes")
	cmd.Flags().Bool("resume", false, "Skip files the journal already records as done")
	cmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")

	bindFlags := []string{
		"output", "suffix", "force-small", "force-large", "region",
		"workers", "progress", "journal", "resume", "png-compression",
	}
	for _, name := range bindFlags {
		if err := viper.BindPFlag(prefix+"."+name, cmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", name, err))
		}
	}
}

// forcedSize resolves the --force-small/--force-large pair.
func forcedSize(prefix string) (placement.Size, error) {
	small := viper.GetBool(prefix + ".force-small")
	large := viper.GetBool(prefix + ".force-large")
	if small && large {
		return placement.SizeAuto, fmt.Errorf("cannot specify both --force-small and --force-large")
	}
	switch {
	case small:
		return placement.SizeSmall, nil
	case large:
		return placement.SizeLarge, nil
	default:
		return placement.SizeAuto, nil
	}
}

// newEngine builds the watermark engine from the embedded captures, or from
// the files given by --bg-small/--bg-large.
func newEngine() (*engine.Engine, error) {
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithLogoValue(viper.GetFloat64("logo-value")),
	}

	bgSmall := viper.GetString("bg-small")
	bgLarge := viper.GetString("bg-large")
	if bgSmall != "" || bgLarge != "" {
		if bgSmall == "" || bgLarge == "" {
			return nil, fmt.Errorf("--bg-small and --bg-large must be given together")
		}
		return engine.NewFromFiles(bgSmall, bgLarge, opts...)
	}
	return engine.New(opts...)
}

// runProcess is the shared driver behind the remove and add commands.
func runProcess(mode batch.Mode, prefix string, args []string, useDetection bool, threshold float64) error {
	if logger == nil {
		initLogging()
	}

	force, err := forcedSize(prefix)
	if err != nil {
		return err
	}

	var region *image.Rectangle
	if regionStr := viper.GetString(prefix + ".region"); regionStr != "" {
		r, err := parseRegion(regionStr)
		if err != nil {
			return fmt.Errorf("invalid region: %w", err)
		}
		region = &r
	}

	level, err := pngCompressionLevel(viper.GetString(prefix + ".png-compression"))
	if err != nil {
		return err
	}
	encode := imgio.DefaultEncodeOptions()
	encode.PNGCompression = level

	eng, err := newEngine()
	if err != nil {
		return fmt.Errorf("failed to initialize watermark engine: %w", err)
	}

	inputs, err := collectInputs(args)
	if err != nil {
		return err
	}

	suffix := viper.GetString(prefix + ".suffix")
	if suffix == "" {
		suffix = "_clean"
		if mode == batch.ModeAdd {
			suffix = "_marked"
		}
	}
	outputDir := viper.GetString(prefix + ".output")

	var store *journal.Store
	if path := viper.GetString(prefix + ".journal"); path != "" {
		store, err = journal.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()
	}
	resume := viper.GetBool(prefix + ".resume")
	if resume && store == nil {
		return fmt.Errorf("--resume requires --journal")
	}

	// Build the task list, dropping already-journaled files on resume.
	tasks := make([]worker.Task, 0, len(inputs))
	for _, input := range inputs {
		if resume {
			done, err := store.Done(input, string(mode))
			if err != nil {
				return err
			}
			if done {
				logger.Info("already processed, skipping", "input", input)
				continue
			}
		}
		tasks = append(tasks, worker.Task{
			Input:  input,
			Output: outputPathFor(input, outputDir, suffix),
		})
	}
	if len(tasks) == 0 {
		logger.Info("nothing to do")
		return nil
	}

	processor := batch.NewProcessor(eng, batch.Config{
		Mode:         mode,
		Force:        force,
		Region:       region,
		UseDetection: useDetection && region == nil,
		Threshold:    threshold,
		Encode:       encode,
	}, logger)

	workers := viper.GetInt(prefix + ".workers")
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	logger.Info("starting batch processing",
		"mode", string(mode), "files", len(tasks), "workers", workers,
		"detection", useDetection, "threshold", threshold)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received interrupt signal, cancelling...")
		cancel()
	}()

	showProgress := viper.GetBool(prefix+".progress") && len(tasks) > 1
	progress := worker.NewProgress(len(tasks), showProgress)

	pool := worker.New(worker.Config{
		Workers:    workers,
		Processor:  processor,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	var failed, skipped int
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Error("processing failed", "input", r.Task.Input, "error", r.Err)
		} else if r.Outcome.Status == batch.StatusSkipped {
			skipped++
		}

		if store != nil {
			entry := journal.Entry{
				Path:       r.Task.Input,
				Mode:       string(mode),
				Status:     "failed",
				Confidence: r.Outcome.Confidence,
			}
			if r.Err == nil {
				entry.Status = string(r.Outcome.Status)
			}
			if err := store.Record(entry); err != nil {
				logger.Warn("failed to record journal entry", "input", r.Task.Input, "error", err)
			}
		}
	}

	logger.Info(progress.Summary())
	if skipped > 0 {
		logger.Info("files skipped by detection", "count", skipped)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(tasks))
	}
	return nil
}
