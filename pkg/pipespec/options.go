// Package pipespec extracts spec-position identifiers from pipe-bearing
// elements visible on drawing sheets and aggregates them per sheet.
package pipespec

import (
	"log/slog"

	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec/locate"
	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec/model"
)

// Mode selects the detection strategy.
type Mode string

const (
	// ModeGeometry resolves candidates from pipe geometry only.
	ModeGeometry Mode = "geometry"
	// ModeTags resolves candidates from annotation labels only.
	ModeTags Mode = "tags"
	// ModeFull resolves from both; deduplication makes the union safe.
	ModeFull Mode = "full"
)

// Options configures an extraction run.
type Options struct {
	// Mode is the detection strategy; defaults to ModeFull.
	Mode Mode
	// Param is the primary attribute name; empty means the production
	// default.
	Param string
	// Alternates overrides the known alternate display names.
	Alternates []string
	// SpecTokens and PosTokens override the substring-heuristic token
	// lists.
	SpecTokens []string
	PosTokens  []string
	// SystemTypeParam overrides the terminal-fallback parameter name.
	SystemTypeParam string
	// IncludeEmptySheets specifies whether sheets with no values still
	// appear in the result list. If nil, defaults to true.
	IncludeEmptySheets *bool
	// Observer receives progress and supplies cancellation; nil means
	// no reporting.
	Observer ProgressObserver
	// Logger receives diagnostics; nil means slog.Default.
	Logger *slog.Logger
}

// DefaultOptions returns the default run configuration.
func DefaultOptions() Options {
	return Options{Mode: ModeFull}
}

// ShouldIncludeEmptySheets returns whether empty sheets stay in the
// result list.
func (o Options) ShouldIncludeEmptySheets() bool {
	if o.IncludeEmptySheets != nil {
		return *o.IncludeEmptySheets
	}
	return true
}

// kinds returns the element kinds the mode resolves candidates for.
func (o Options) kinds() []model.ElementKind {
	switch o.Mode {
	case ModeGeometry:
		return []model.ElementKind{model.KindPipe}
	case ModeTags:
		return []model.ElementKind{model.KindPipeTag}
	default:
		return []model.ElementKind{model.KindPipe, model.KindPipeTag}
	}
}

// locator builds the attribute locator for this run, starting from the
// production defaults and applying overrides.
func (o Options) locator() *locate.Locator {
	loc := locate.DefaultLocator()
	if o.Param != "" {
		loc.Param = o.Param
	}
	if o.Alternates != nil {
		loc.Alternates = o.Alternates
	}
	if o.SpecTokens != nil {
		loc.SpecTokens = o.SpecTokens
	}
	if o.PosTokens != nil {
		loc.PosTokens = o.PosTokens
	}
	if o.SystemTypeParam != "" {
		loc.SystemTypeParam = o.SystemTypeParam
	}
	loc.Logger = o.Logger
	return loc
}

func (o Options) observer() ProgressObserver {
	if o.Observer != nil {
		return o.Observer
	}
	return NopObserver{}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
