package resolve

import (
	"context"
	"log/slog"

	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec/model"
)

// Candidate is an element provisionally considered visible in a view,
// together with the document that owns it.
type Candidate struct {
	Elem   *model.Element
	Doc    model.Document
	Marker model.DocMarker
}

// Key is the cross-document identity of a candidate.
type Key struct {
	Marker model.DocMarker
	ID     model.ElementID
}

// Key returns the candidate's cross-document identity.
func (c Candidate) Key() Key {
	return Key{Marker: c.Marker, ID: c.Elem.ID}
}

// candidateSet accumulates candidates, dropping duplicates reached via
// multiple resolution paths.
type candidateSet struct {
	seen map[Key]struct{}
	list []Candidate
}

func newCandidateSet() *candidateSet {
	return &candidateSet{seen: make(map[Key]struct{})}
}

func (s *candidateSet) add(c Candidate) {
	k := c.Key()
	if _, ok := s.seen[k]; ok {
		return
	}
	s.seen[k] = struct{}{}
	s.list = append(s.list, c)
}

// ViewCandidates produces the candidate element set for one view. The
// precise view-scoped query is preferred because it honors per-view
// visibility overrides; when it is unavailable or fails, resolution
// degrades to the pre-built cache with conservative inclusion. Unknown
// or degenerate geometry is always included rather than excluded: the
// design favors a harmless extra report entry over a silently missing
// element.
func ViewCandidates(ctx context.Context, doc model.Document, view *model.View, cache *Cache, kinds []model.ElementKind, logger *slog.Logger) []Candidate {
	if logger == nil {
		logger = slog.Default()
	}

	r := &viewResolver{
		doc:    doc,
		view:   view,
		cache:  cache,
		logger: logger,
		out:    newCandidateSet(),
	}

	for _, kind := range kinds {
		if ctx.Err() != nil {
			break
		}
		r.collectKind(ctx, kind)
	}
	return r.out.list
}

type viewResolver struct {
	doc    model.Document
	view   *model.View
	cache  *Cache
	logger *slog.Logger
	out    *candidateSet
}

// cropFilterActive reports whether the view's crop applies spatially. An
// inactive or absent crop means no filtering at all.
func (r *viewResolver) cropFilterActive() bool {
	return r.view.CropActive && r.view.Crop != nil
}

func (r *viewResolver) collectKind(ctx context.Context, kind model.ElementKind) {
	elems, err := r.doc.ViewElements(r.view.ID, kind)
	if err != nil {
		r.logger.Debug("precise view query failed, falling back to cache",
			"view", r.view.ID, "kind", kind, "error", err)
		r.collectFallback(ctx, kind)
		return
	}

	for _, e := range elems {
		if ctx.Err() != nil {
			return
		}
		if kind == model.KindPipe && !r.preciseVisible(e) {
			continue
		}
		r.out.add(Candidate{Elem: e, Doc: r.doc, Marker: r.doc.Marker()})
	}

	if kind == model.KindPipe {
		r.collectPreciseLinks(ctx)
	}
}

// preciseVisible re-tests a precisely queried host pipe against the view
// crop. The view-scoped query can still include no longer visible
// geometry in edge cases, so the box test stays on as a defensive pass.
// An inactive crop or an unobtainable box includes the element.
func (r *viewResolver) preciseVisible(e *model.Element) bool {
	if !r.cropFilterActive() {
		return true
	}
	box, err := r.doc.BoundingBox(e.ID, r.view.ID)
	if err != nil {
		box, err = r.doc.BoundingBox(e.ID, 0)
	}
	if err != nil {
		return true
	}
	return box.Intersects(*r.view.Crop)
}

// collectPreciseLinks resolves link instances visible in the view
// through the per-link cache, re-collecting ad hoc for links that were
// not loaded at cache-build time.
func (r *viewResolver) collectPreciseLinks(ctx context.Context) {
	links, err := r.doc.ViewElements(r.view.ID, model.KindLinkInstance)
	if err != nil {
		// The pipe query above succeeded, so the precise path stands;
		// cached link elements were already reachable via fallback
		// only when the whole precise path failed.
		r.logger.Debug("view link query failed", "view", r.view.ID, "error", err)
		return
	}

	for _, le := range links {
		if ctx.Err() != nil {
			return
		}
		lc, ok := r.cache.Links[le.ID]
		if !ok {
			lc = r.adHocLinkCache(ctx, le.ID)
			if lc == nil {
				continue
			}
		}
		r.collectLinkEntries(ctx, lc)
	}
}

// adHocLinkCache is the degraded path for a link instance that has no
// cache entry: a short best-effort re-collection against the link's
// document, inline.
func (r *viewResolver) adHocLinkCache(ctx context.Context, id model.ElementID) *LinkCache {
	for _, link := range r.doc.LinkInstances() {
		if link.ID != id || link.Doc == nil {
			continue
		}
		lc, err := buildLinkCache(ctx, link, r.logger)
		if err != nil {
			r.logger.Debug("ad-hoc link collection failed", "link", id, "error", err)
			return nil
		}
		return lc
	}
	return nil
}

func (r *viewResolver) collectLinkEntries(ctx context.Context, lc *LinkCache) {
	for _, entry := range lc.Entries {
		if ctx.Err() != nil {
			return
		}
		if r.cropFilterActive() && entry.HostBox != nil &&
			!entry.HostBox.Intersects(*r.view.Crop) {
			continue
		}
		r.out.add(Candidate{
			Elem:   entry.Elem,
			Doc:    lc.Link.Doc,
			Marker: lc.Link.Doc.Marker(),
		})
	}
}

// collectFallback computes candidates purely from the pre-built caches:
// cached boxes intersected against the crop, representative points for
// uncached elements, conservative inclusion for everything else.
func (r *viewResolver) collectFallback(ctx context.Context, kind model.ElementKind) {
	switch kind {
	case model.KindPipe:
		r.fallbackHostPipes(ctx)
		for _, lc := range r.cache.Links {
			if ctx.Err() != nil {
				return
			}
			r.collectLinkEntries(ctx, lc)
		}
	case model.KindPipeTag:
		// Tags carry no model-space geometry to test, so the fallback
		// includes every tag in the document conservatively.
		tags, err := r.doc.Elements(model.KindPipeTag)
		if err != nil {
			r.logger.Debug("tag enumeration failed", "view", r.view.ID, "error", err)
			return
		}
		for _, e := range tags {
			if ctx.Err() != nil {
				return
			}
			r.out.add(Candidate{Elem: e, Doc: r.doc, Marker: r.doc.Marker()})
		}
	}
}

func (r *viewResolver) fallbackHostPipes(ctx context.Context) {
	for _, e := range r.cache.HostElems {
		if ctx.Err() != nil {
			return
		}
		if r.cropFilterActive() && !r.fallbackVisible(e) {
			continue
		}
		r.out.add(Candidate{Elem: e, Doc: r.doc, Marker: r.doc.Marker()})
	}
}

func (r *viewResolver) fallbackVisible(e *model.Element) bool {
	if box, ok := r.cache.HostBoxes[e.ID]; ok {
		return box.Intersects(*r.view.Crop)
	}
	if p, ok := e.RepresentativePoint(); ok {
		return r.view.Crop.Contains(p)
	}
	// No geometry of any sort: include.
	return true
}
