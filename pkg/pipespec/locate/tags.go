package locate

import (
	"regexp"
	"strings"

	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec/model"
)

// positionPattern is the normalized spec-position token shape.
var positionPattern = regexp.MustCompile(`\d{1,4}-\d{1,4}`)

// numberPrefix strips leading "No."/"Nr." style prefixes from a token.
var numberPrefix = regexp.MustCompile(`(?i)\b(?:no|nr)\.?\s*`)

// hyphenSpacing collapses whitespace around the hyphen so "474 - 90"
// matches the token pattern.
var hyphenSpacing = regexp.MustCompile(`\s*-\s*`)

// subTokenSplit separates delimiter-packed raw values; a single label
// text may carry several positions.
var subTokenSplit = regexp.MustCompile(`[,;/|\n]+`)

// tagValues resolves a label element. The model elements the label
// references are authoritative; only when none of them yields a value
// does the locator fall back to extracting position tokens from the
// label's own text and generic string parameters.
func (l *Locator) tagValues(doc model.Document, e *model.Element) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(v string) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	for _, ref := range e.TagRefs {
		target, targetDoc := resolveTagRef(doc, ref)
		if target == nil {
			l.logger().Debug("tag reference unresolvable",
				"tag", e.ID, "local", ref.LocalID, "link", ref.LinkInstanceID)
			continue
		}
		if v, ok := l.lookup(targetDoc, target); ok {
			add(v)
		}
	}
	if len(out) > 0 {
		return out
	}

	for _, tok := range ExtractTokens(e.TagText) {
		add(tok)
	}
	for _, p := range e.Params {
		if p.Kind != model.StorageString {
			continue
		}
		for _, tok := range ExtractTokens(p.Str) {
			add(tok)
		}
	}
	return out
}

// resolveTagRef resolves a label's reference to a model element, in the
// label's own document or across a link carrying (link-instance id,
// linked id).
func resolveTagRef(doc model.Document, ref model.TagRef) (*model.Element, model.Document) {
	if ref.LocalID != 0 {
		if e, ok := doc.Element(ref.LocalID); ok {
			return e, doc
		}
		return nil, nil
	}
	if ref.LinkInstanceID == 0 || ref.LinkedID == 0 {
		return nil, nil
	}
	for _, link := range doc.LinkInstances() {
		if link.ID != ref.LinkInstanceID || link.Doc == nil {
			continue
		}
		if e, ok := link.Doc.Element(ref.LinkedID); ok {
			return e, link.Doc
		}
	}
	return nil, nil
}

// ExtractTokens pulls normalized spec-position tokens out of free text.
// The raw value is split on delimiters (comma, semicolon, slash, pipe,
// newline); each sub-token is independently stripped of number prefixes,
// hyphen-normalized, and pattern-matched, contributing zero or more
// tokens.
func ExtractTokens(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var out []string
	for _, part := range subTokenSplit.Split(raw, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cleaned := numberPrefix.ReplaceAllString(part, "")
		cleaned = hyphenSpacing.ReplaceAllString(cleaned, "-")
		out = append(out, positionPattern.FindAllString(cleaned, -1)...)
	}
	return out
}
