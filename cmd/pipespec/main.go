// Package main provides the CLI entry point for the spec-position
// extraction tool. It consumes a serialized model snapshot in place of
// a live host API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec"
	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec/model"
	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec/report"
)

var (
	outputPath string
	configPath string
	mode       string
	param      string
	sheetGlobs []string
	quiet      bool
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pipespec [model.json]",
		Short: "Extract pipe spec positions from drawing sheets",
		Long: `pipespec determines which pipe elements are visible in each sheet's
viewports (across the host model and its links), harvests their spec
position attribute, and writes a per-sheet spreadsheet report.`,
		Args: cobra.ExactArgs(1),
		RunE: run,
	}

	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "spec_positions.xlsx", "Report file path")
	rootCmd.Flags().StringVar(&configPath, "config", "", "TOML configuration file")
	rootCmd.Flags().StringVar(&mode, "mode", "", "Detection mode: geometry, tags, full")
	rootCmd.Flags().StringVar(&param, "param", "", "Primary attribute parameter name")
	rootCmd.Flags().StringArrayVar(&sheetGlobs, "sheets", nil, "Sheet name glob (repeatable; default: all sheets)")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", inputPath)
	}

	opts, err := buildOptions()
	if err != nil {
		return err
	}

	doc, err := model.LoadSnapshot(inputPath)
	if err != nil {
		return fmt.Errorf("load model snapshot: %w", err)
	}

	refs, err := selectSheets(doc, sheetGlobs)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return fmt.Errorf("no sheets match the selection")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	obs := pipespec.NewChannelObserver()
	opts.Observer = obs

	var wg sync.WaitGroup
	drainDone := make(chan struct{})
	if !quiet {
		wg.Add(1)
		go func() {
			defer wg.Done()
			drain(obs, drainDone)
		}()
	}

	results, err := pipespec.Extract(ctx, doc, refs, opts)
	cancelled := errors.Is(err, pipespec.ErrCancelled)
	if err != nil && !cancelled {
		close(drainDone)
		wg.Wait()
		return fmt.Errorf("extraction failed: %w", err)
	}

	obs.Report(90, "Writing report")
	if err := report.Write(outputPath, results); err != nil {
		close(drainDone)
		wg.Wait()
		return err
	}
	obs.Report(100, "Done")

	close(drainDone)
	wg.Wait()

	sum := report.Summarize(results)
	if cancelled {
		fmt.Fprintf(os.Stderr, "cancelled: %d sheet(s) completed, partial report written to %s\n",
			sum.TotalSheets, outputPath)
		return errors.New("cancelled")
	}
	fmt.Printf("%d sheet(s), %d distinct spec position(s) -> %s\n",
		sum.TotalSheets, sum.DistinctPositions, outputPath)
	return nil
}

// drain prints progress updates until the run finishes.
func drain(obs *pipespec.ChannelObserver, done <-chan struct{}) {
	for {
		select {
		case u := <-obs.Updates():
			fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", u.Percent, u.Message)
		case <-done:
			// Flush the last pending update, if any.
			select {
			case u := <-obs.Updates():
				fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", u.Percent, u.Message)
			default:
			}
			return
		}
	}
}

// buildOptions layers flag overrides on top of the optional TOML config.
func buildOptions() (pipespec.Options, error) {
	opts := pipespec.DefaultOptions()
	if configPath != "" {
		cfg, err := pipespec.LoadConfig(configPath)
		if err != nil {
			return pipespec.Options{}, err
		}
		opts, err = cfg.Options()
		if err != nil {
			return pipespec.Options{}, err
		}
	}
	if mode != "" {
		switch pipespec.Mode(mode) {
		case pipespec.ModeGeometry, pipespec.ModeTags, pipespec.ModeFull:
			opts.Mode = pipespec.Mode(mode)
		default:
			return pipespec.Options{}, fmt.Errorf("invalid mode: %s (must be geometry, tags, or full)", mode)
		}
	}
	if param != "" {
		opts.Param = param
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return opts, nil
}

// selectSheets filters the document's sheets by the given name globs.
// No globs selects every sheet. Sheets are returned in document order;
// numbered sheets display as "number - name".
func selectSheets(doc model.Document, globs []string) ([]pipespec.SheetRef, error) {
	for _, g := range globs {
		if !doublestar.ValidatePattern(g) {
			return nil, fmt.Errorf("invalid sheet pattern: %s", g)
		}
	}

	var refs []pipespec.SheetRef
	for _, sheet := range doc.Sheets() {
		if !matchesAny(sheet, globs) {
			continue
		}
		name := sheet.Name
		if sheet.Number != "" {
			name = sheet.Number + " - " + sheet.Name
		}
		refs = append(refs, pipespec.SheetRef{Name: name, Sheet: sheet})
	}
	return refs, nil
}

func matchesAny(sheet *model.Sheet, globs []string) bool {
	if len(globs) == 0 {
		return true
	}
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, sheet.Name); ok {
			return true
		}
		if sheet.Number != "" {
			if ok, _ := doublestar.Match(g, sheet.Number); ok {
				return true
			}
		}
	}
	return false
}
