// Package locate resolves the spec-position attribute on a candidate
// element through an ordered fallback chain over instance parameters,
// type parameters, referenced elements, and free-text token extraction.
package locate

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec/model"
)

// Locator holds the parameter-name heuristics for one extraction run.
type Locator struct {
	// Param is the primary parameter name, matched exactly first.
	Param string
	// Alternates are known alternate display names, matched
	// case-insensitively.
	Alternates []string
	// SpecTokens and PosTokens drive the substring heuristic: a
	// parameter matches when its name contains one token from each
	// list, in either order, case-insensitively.
	SpecTokens []string
	PosTokens  []string
	// SystemTypeParam is the terminal fallback: a reference-typed
	// parameter whose target system's display name stands in for the
	// attribute.
	SystemTypeParam string
	// Logger receives per-step debug output; nil means slog.Default.
	Logger *slog.Logger
}

// DefaultLocator returns a locator configured with the production
// parameter names.
func DefaultLocator() *Locator {
	return &Locator{
		Param: "Spec Position",
		Alternates: []string{
			"Specification Position",
			"Spec_Position",
			"SpecPosition",
			"Spez. Position",
		},
		SpecTokens:      []string{"spec", "spez"},
		PosTokens:       []string{"position", "pos"},
		SystemTypeParam: "Piping System Type",
	}
}

// step is one link in the fallback chain: a pure lookup returning the
// attribute value, or false when this step finds nothing. Steps never
// fail; an unreadable parameter just means no match.
type step func(doc model.Document, e *model.Element) (string, bool)

// Values resolves the spec-position values for an element. Pipes yield
// at most one value from the parameter chain; labels may yield several,
// from their referenced elements or their visible text.
func (l *Locator) Values(doc model.Document, e *model.Element) []string {
	if e == nil {
		return nil
	}
	if e.Kind == model.KindPipeTag {
		return l.tagValues(doc, e)
	}
	if v, ok := l.lookup(doc, e); ok {
		return []string{v}
	}
	return nil
}

// lookup runs the ordered chain against one model element, stopping at
// the first non-empty match.
func (l *Locator) lookup(doc model.Document, e *model.Element) (string, bool) {
	for _, s := range l.chain() {
		if v, ok := s(doc, e); ok {
			return v, true
		}
	}
	return "", false
}

// chain assembles the fallback order: instance parameters four ways,
// the shared-definition-restricted heuristic, the same lookups on the
// element's type, and the piping-system terminal fallback.
func (l *Locator) chain() []step {
	instance := []step{
		l.exactName,
		l.caseInsensitiveName,
		l.alternateNames,
		l.substringHeuristic,
	}
	chain := append([]step{}, instance...)
	chain = append(chain, l.sharedSubstringHeuristic)
	for _, s := range instance {
		chain = append(chain, onType(s))
	}
	chain = append(chain, l.systemTypeName)
	return chain
}

// onType lifts an instance-parameter step to run against the element's
// type object instead.
func onType(s step) step {
	return func(doc model.Document, e *model.Element) (string, bool) {
		if e.TypeID == 0 || doc == nil {
			return "", false
		}
		typ, ok := doc.Element(e.TypeID)
		if !ok {
			return "", false
		}
		return s(doc, typ)
	}
}

func (l *Locator) exactName(doc model.Document, e *model.Element) (string, bool) {
	p, ok := e.Param(l.Param)
	if !ok {
		return "", false
	}
	return paramValue(doc, p)
}

func (l *Locator) caseInsensitiveName(doc model.Document, e *model.Element) (string, bool) {
	for _, p := range e.Params {
		if strings.EqualFold(p.Name, l.Param) {
			if v, ok := paramValue(doc, p); ok {
				return v, true
			}
		}
	}
	return "", false
}

func (l *Locator) alternateNames(doc model.Document, e *model.Element) (string, bool) {
	for _, alt := range l.Alternates {
		for _, p := range e.Params {
			if strings.EqualFold(p.Name, alt) {
				if v, ok := paramValue(doc, p); ok {
					return v, true
				}
			}
		}
	}
	return "", false
}

func (l *Locator) substringHeuristic(doc model.Document, e *model.Element) (string, bool) {
	for _, p := range e.Params {
		if l.nameMatchesHeuristic(p.Name) {
			if v, ok := paramValue(doc, p); ok {
				return v, true
			}
		}
	}
	return "", false
}

// sharedSubstringHeuristic is the substring heuristic restricted to
// parameters backed by an externally shared definition.
func (l *Locator) sharedSubstringHeuristic(doc model.Document, e *model.Element) (string, bool) {
	for _, p := range e.Params {
		if p.SharedGUID != "" && l.nameMatchesHeuristic(p.Name) {
			if v, ok := paramValue(doc, p); ok {
				return v, true
			}
		}
	}
	return "", false
}

// nameMatchesHeuristic reports whether a parameter name contains both a
// specification token and a position token, in either order.
func (l *Locator) nameMatchesHeuristic(name string) bool {
	lower := strings.ToLower(name)
	return containsAny(lower, l.SpecTokens) && containsAny(lower, l.PosTokens)
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, strings.ToLower(tok)) {
			return true
		}
	}
	return false
}

// systemTypeName is the domain-specific terminal fallback: the display
// name of the element's referenced piping system.
func (l *Locator) systemTypeName(doc model.Document, e *model.Element) (string, bool) {
	p, ok := e.Param(l.SystemTypeParam)
	if !ok || p.Kind != model.StorageElementRef {
		return "", false
	}
	return refName(doc, p.Ref)
}

// paramValue reads a parameter per its storage kind: strings verbatim,
// numbers formatted, references resolved to the target's display name.
// Blank strings count as no value so the chain keeps going.
func paramValue(doc model.Document, p model.Parameter) (string, bool) {
	switch p.Kind {
	case model.StorageString:
		v := strings.TrimSpace(p.Str)
		return v, v != ""
	case model.StorageInteger:
		return strconv.FormatInt(p.Int, 10), true
	case model.StorageReal:
		return strconv.FormatFloat(p.Real, 'f', -1, 64), true
	case model.StorageElementRef:
		return refName(doc, p.Ref)
	}
	return "", false
}

func refName(doc model.Document, id model.ElementID) (string, bool) {
	if doc == nil || id == 0 {
		return "", false
	}
	ref, ok := doc.Element(id)
	if !ok {
		return "", false
	}
	name := strings.TrimSpace(ref.Name)
	return name, name != ""
}

func (l *Locator) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}
