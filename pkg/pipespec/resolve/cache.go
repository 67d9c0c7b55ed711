// Package resolve determines which pipe-bearing elements are visibly
// present in a view, across the host document and its links. It builds a
// one-run bounding-box cache up front and resolves per-view candidate
// sets against it, preferring the host's precise view-scoped query.
package resolve

import (
	"context"
	"log/slog"

	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec/geom"
	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec/model"
)

// LinkEntry pairs a linked element with its host-space bounding box.
// HostBox is nil when the link transform or the element geometry was
// unavailable; consumers include such entries conservatively.
type LinkEntry struct {
	Elem    *model.Element
	HostBox *geom.Box
}

// LinkCache holds the cached elements of one link instance.
type LinkCache struct {
	Link    *model.LinkInstance
	Entries []LinkEntry
}

// Cache is the per-run bounding-box cache over the host document and all
// resolvable links. It is built once per extraction run, owned by that
// run, and never shared across runs.
type Cache struct {
	// HostElems are the host document's pipe elements in enumeration
	// order.
	HostElems []*model.Element
	// HostBoxes maps a host element to its model-space box. Elements
	// whose geometry could not be read in any form are absent.
	HostBoxes map[model.ElementID]geom.Box
	// Links maps a link-instance id to that link's cached elements.
	// Unresolvable links are absent.
	Links map[model.ElementID]*LinkCache
}

// BuildCache pre-scans the host document's pipe elements and every
// loaded link's pipe elements, caching host-space bounding boxes. Any
// per-element failure omits just that element; any per-link failure
// leaves just that link's cache absent. The returned error is only ever
// the context's cancellation error.
func BuildCache(ctx context.Context, doc model.Document, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cache := &Cache{
		HostBoxes: make(map[model.ElementID]geom.Box),
		Links:     make(map[model.ElementID]*LinkCache),
	}

	pipes, err := doc.Elements(model.KindPipe)
	if err != nil {
		// Degrade to an empty host cache; the precise per-view query
		// may still reach these elements.
		logger.Warn("host pipe enumeration failed", "doc", doc.Title(), "error", err)
	}

	for _, e := range pipes {
		if err := ctx.Err(); err != nil {
			return cache, err
		}
		cache.HostElems = append(cache.HostElems, e)
		if box, ok := elementBox(doc, e); ok {
			cache.HostBoxes[e.ID] = box
		} else {
			logger.Debug("no geometry for host pipe, omitted from cache",
				"doc", doc.Title(), "element", e.ID)
		}
	}

	for _, link := range doc.LinkInstances() {
		if err := ctx.Err(); err != nil {
			return cache, err
		}
		if link.Doc == nil {
			logger.Info("link not loaded, skipping", "link", link.ID)
			continue
		}
		lc, err := buildLinkCache(ctx, link, logger)
		if err != nil {
			if ctx.Err() != nil {
				return cache, ctx.Err()
			}
			logger.Warn("link cache build failed, link omitted",
				"link", link.ID, "doc", link.Doc.Title(), "error", err)
			continue
		}
		cache.Links[link.ID] = lc
	}

	return cache, nil
}

// buildLinkCache enumerates one linked document's pipes and transforms
// their boxes into host space.
func buildLinkCache(ctx context.Context, link *model.LinkInstance, logger *slog.Logger) (*LinkCache, error) {
	pipes, err := link.Doc.Elements(model.KindPipe)
	if err != nil {
		return nil, err
	}

	lc := &LinkCache{Link: link}
	for _, e := range pipes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lc.Entries = append(lc.Entries, LinkEntry{
			Elem:    e,
			HostBox: linkedHostBox(link, e),
		})
	}
	return lc, nil
}

// linkedHostBox computes a linked element's host-space box: native box
// corners transformed individually, then re-derived as an axis-aligned
// box. Falls back to a degenerate box around the transformed
// representative point, and to nil when the transform is unavailable.
func linkedHostBox(link *model.LinkInstance, e *model.Element) *geom.Box {
	if link.Transform == nil {
		return nil
	}

	if native, err := link.Doc.BoundingBox(e.ID, 0); err == nil {
		host := geom.TransformBox(*link.Transform, native)
		return &host
	}

	p, ok := e.RepresentativePoint()
	if !ok {
		return nil
	}
	host := geom.DegenerateBox(link.Transform.Apply(p), geom.FallbackHalfWidth)
	return &host
}

// elementBox reads an element's model-space box from its document,
// synthesizing a degenerate box from a representative point when the
// real geometry is unreadable.
func elementBox(doc model.Document, e *model.Element) (geom.Box, bool) {
	if box, err := doc.BoundingBox(e.ID, 0); err == nil {
		return box, true
	}
	if p, ok := e.RepresentativePoint(); ok {
		return geom.DegenerateBox(p, geom.FallbackHalfWidth), true
	}
	return geom.Box{}, false
}
