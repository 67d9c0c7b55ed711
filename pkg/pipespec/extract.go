package pipespec

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec/locate"
	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec/model"
	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec/resolve"
)

// State is the run state of one extraction.
type State int

const (
	// StateNotStarted is the initial state.
	StateNotStarted State = iota
	// StateBuildingCache covers the cross-document cache pre-scan.
	StateBuildingCache
	// StateProcessingSheets covers per-sheet resolution.
	StateProcessingSheets
	// StateCompleted means every selected sheet was processed.
	StateCompleted
	// StateCancelled means the run stopped on a cancellation request.
	StateCancelled
	// StateFailed means the run stopped on a fatal error.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateBuildingCache:
		return "building cache"
	case StateProcessingSheets:
		return "processing sheets"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// SheetRef is one user-selected sheet: the display name shown in the
// report plus the sheet handle.
type SheetRef struct {
	Name  string
	Sheet *model.Sheet
}

// SheetResult is the sealed outcome for one sheet: the distinct
// spec-position values found on it, case-insensitively unique and
// sorted. Immutable once sheet processing completes.
type SheetResult struct {
	SheetName     string
	SpecPositions []string
}

// reportReserve is the final slice of the progress range kept for
// downstream report generation; sheet processing tops out at
// 100 - reportReserve.
const reportReserve = 20

// cancelPollInterval is how often the watcher translates an observer
// cancellation request into context cancellation.
const cancelPollInterval = 50 * time.Millisecond

// Extract runs one extraction: build the bounding-box cache, then per
// sheet and per viewport resolve candidates, locate attributes, and seal
// a SheetResult. Sheets are processed in input order, viewports in
// document-native order. Cancellation (via ctx or the observer) stops
// processing and returns the already sealed results with ErrCancelled.
// Per-sheet failures are contained: the sheet still contributes a
// possibly empty result.
func Extract(ctx context.Context, doc model.Document, sheets []SheetRef, opts Options) ([]SheetResult, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	obs := opts.observer()
	logger := opts.logger()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopWatch := watchCancellation(ctx, cancel, obs)
	defer stopWatch()

	cancelled := func() bool {
		return ctx.Err() != nil || obs.Cancelled()
	}

	state := StateBuildingCache
	logger.Debug("run state", "state", state)
	obs.Report(0, "Building bounding box cache")

	cache, err := resolve.BuildCache(ctx, doc, logger)
	if err != nil || cancelled() {
		logger.Debug("run state", "state", StateCancelled)
		return nil, ErrCancelled
	}

	state = StateProcessingSheets
	logger.Debug("run state", "state", state)

	kinds := opts.kinds()
	locator := opts.locator()
	total := len(sheets)

	var results []SheetResult
	for i, ref := range sheets {
		if cancelled() {
			logger.Debug("run state", "state", StateCancelled, "sealed", len(results))
			return results, ErrCancelled
		}

		percent := i * (100 - reportReserve) / total
		obs.Report(percent, fmt.Sprintf("Processing sheet %s (%d of %d)", ref.Name, i+1, total))

		result, err := processSheet(ctx, doc, ref, cache, kinds, locator, cancelled, logger)
		if err != nil {
			// Only cancellation crosses the sheet boundary; the
			// partially processed sheet is not sealed.
			logger.Debug("run state", "state", StateCancelled, "sealed", len(results))
			return results, ErrCancelled
		}
		if len(result.SpecPositions) == 0 && !opts.ShouldIncludeEmptySheets() {
			continue
		}
		results = append(results, result)
	}

	state = StateCompleted
	logger.Debug("run state", "state", state)
	obs.Report(100-reportReserve, "Sheet processing complete")
	return results, nil
}

// processSheet resolves one sheet's viewports and seals its result.
// Panics and errors inside a sheet are contained so a bad sheet cannot
// abort the run; the sheet then seals with whatever was gathered.
func processSheet(ctx context.Context, doc model.Document, ref SheetRef, cache *resolve.Cache, kinds []model.ElementKind, locator *locate.Locator, cancelled func() bool, logger *slog.Logger) (result SheetResult, err error) {
	values := newValueSet()
	result.SheetName = ref.Name

	defer func() {
		if r := recover(); r != nil {
			serr := &SheetError{Sheet: ref.Name, Stage: "candidates", Err: fmt.Errorf("panic: %v", r)}
			logger.Warn("sheet processing failed, sealing partial result", "error", serr)
			result.SpecPositions = values.sorted()
			err = nil
		}
	}()

	if ref.Sheet == nil {
		logger.Warn("sheet handle missing", "sheet", ref.Name)
		result.SpecPositions = values.sorted()
		return result, nil
	}

	// Candidates reached through multiple viewports or resolution
	// paths are processed once, keyed by (document marker, element id).
	processed := make(map[resolve.Key]struct{})

	for _, viewID := range ref.Sheet.Viewports {
		if cancelled() {
			return SheetResult{}, ErrCancelled
		}

		view, ok := doc.View(viewID)
		if !ok {
			logger.Warn("viewport references unknown view",
				"sheet", ref.Name, "view", viewID)
			continue
		}

		for _, cand := range resolve.ViewCandidates(ctx, doc, view, cache, kinds, logger) {
			if cancelled() {
				return SheetResult{}, ErrCancelled
			}
			key := cand.Key()
			if _, ok := processed[key]; ok {
				continue
			}
			processed[key] = struct{}{}

			for _, v := range locator.Values(cand.Doc, cand.Elem) {
				values.add(v)
			}
		}
	}

	result.SpecPositions = values.sorted()
	return result, nil
}

// watchCancellation translates observer cancellation requests into
// context cancellation so nested enumeration loops see them at their
// per-element ctx polls. Returns a stop function.
func watchCancellation(ctx context.Context, cancel context.CancelFunc, obs ProgressObserver) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cancelPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if obs.Cancelled() {
					cancel()
					return
				}
			}
		}
	}()
	return func() { close(done) }
}

// valueSet accumulates attribute values with case-insensitive
// uniqueness. The first-seen casing of each value wins.
type valueSet struct {
	byFold map[string]string
}

func newValueSet() *valueSet {
	return &valueSet{byFold: make(map[string]string)}
}

func (s *valueSet) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	fold := strings.ToLower(v)
	if _, ok := s.byFold[fold]; !ok {
		s.byFold[fold] = v
	}
}

// sorted seals the set: case-insensitive order with a bytewise tiebreak
// for determinism. Returns an empty non-nil slice for an empty set so a
// sealed result always carries a value list.
func (s *valueSet) sorted() []string {
	out := make([]string, 0, len(s.byFold))
	for _, v := range s.byFold {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i]), strings.ToLower(out[j])
		if li != lj {
			return li < lj
		}
		return out[i] < out[j]
	})
	return out
}
