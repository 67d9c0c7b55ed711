package model

import (
	"fmt"

	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec/geom"
)

// MemDocument is an in-memory Document built by the snapshot loader and
// by tests. Failure injection fields simulate host-API errors: a
// per-element bounding-box error, a blanket view-query error, and
// per-view bounding-box overrides.
type MemDocument struct {
	title  string
	marker DocMarker

	elems map[ElementID]*Element
	order []ElementID

	links  []*LinkInstance
	views  map[ViewID]*View
	sheets []*Sheet

	// viewElems maps a view to the elements nominally placed in it,
	// feeding the precise view-scoped query.
	viewElems map[ViewID][]ElementID

	// viewBoxes overrides BoundingBox for (element, view) pairs.
	viewBoxes map[viewBoxKey]geom.Box

	// BoxErrs injects per-element bounding-box read failures.
	BoxErrs map[ElementID]error
	// ViewQueryErr makes every ViewElements call fail, forcing the
	// resolver onto its cache-based fallback path.
	ViewQueryErr error
	// ElementsErr makes Elements enumeration fail.
	ElementsErr error
}

type viewBoxKey struct {
	elem ElementID
	view ViewID
}

// NewMemDocument creates an empty in-memory document with a marker
// derived from the title.
func NewMemDocument(title string) *MemDocument {
	return &MemDocument{
		title:     title,
		marker:    MarkerFor(title),
		elems:     make(map[ElementID]*Element),
		views:     make(map[ViewID]*View),
		viewElems: make(map[ViewID][]ElementID),
		viewBoxes: make(map[viewBoxKey]geom.Box),
		BoxErrs:   make(map[ElementID]error),
	}
}

// AddElement inserts an element, preserving insertion order for
// enumeration.
func (d *MemDocument) AddElement(e *Element) *MemDocument {
	d.elems[e.ID] = e
	d.order = append(d.order, e.ID)
	return d
}

// AddView inserts a view.
func (d *MemDocument) AddView(v *View) *MemDocument {
	d.views[v.ID] = v
	return d
}

// AddSheet inserts a sheet.
func (d *MemDocument) AddSheet(s *Sheet) *MemDocument {
	d.sheets = append(d.sheets, s)
	return d
}

// AddLink inserts a link instance.
func (d *MemDocument) AddLink(l *LinkInstance) *MemDocument {
	d.links = append(d.links, l)
	return d
}

// PlaceInView records an element as nominally placed in a view.
func (d *MemDocument) PlaceInView(view ViewID, ids ...ElementID) *MemDocument {
	d.viewElems[view] = append(d.viewElems[view], ids...)
	return d
}

// SetViewBox overrides the view-scoped bounding box of an element.
func (d *MemDocument) SetViewBox(view ViewID, elem ElementID, box geom.Box) *MemDocument {
	d.viewBoxes[viewBoxKey{elem: elem, view: view}] = box
	return d
}

// Marker implements Document.
func (d *MemDocument) Marker() DocMarker { return d.marker }

// Title implements Document.
func (d *MemDocument) Title() string { return d.title }

// Elements implements Document.
func (d *MemDocument) Elements(kind ElementKind) ([]*Element, error) {
	if d.ElementsErr != nil {
		return nil, d.ElementsErr
	}
	var out []*Element
	for _, id := range d.order {
		if e := d.elems[id]; e.Kind == kind {
			out = append(out, e)
		}
	}
	return out, nil
}

// Element implements Document.
func (d *MemDocument) Element(id ElementID) (*Element, bool) {
	e, ok := d.elems[id]
	return e, ok
}

// BoundingBox implements Document. View-scoped overrides win; otherwise
// the element's model-space box is returned regardless of view.
func (d *MemDocument) BoundingBox(id ElementID, view ViewID) (geom.Box, error) {
	if err, ok := d.BoxErrs[id]; ok {
		return geom.Box{}, err
	}
	if view != 0 {
		if box, ok := d.viewBoxes[viewBoxKey{elem: id, view: view}]; ok {
			return box, nil
		}
	}
	e, ok := d.elems[id]
	if !ok {
		return geom.Box{}, fmt.Errorf("element %d not found", id)
	}
	if e.Box == nil {
		return geom.Box{}, fmt.Errorf("element %d has no bounding box", id)
	}
	return *e.Box, nil
}

// ViewElements implements Document.
func (d *MemDocument) ViewElements(view ViewID, kind ElementKind) ([]*Element, error) {
	if d.ViewQueryErr != nil {
		return nil, d.ViewQueryErr
	}
	if _, ok := d.views[view]; !ok {
		return nil, fmt.Errorf("view %d not found", view)
	}
	var out []*Element
	for _, id := range d.viewElems[view] {
		if e, ok := d.elems[id]; ok && e.Kind == kind {
			out = append(out, e)
		}
	}
	return out, nil
}

// LinkInstances implements Document.
func (d *MemDocument) LinkInstances() []*LinkInstance { return d.links }

// View implements Document.
func (d *MemDocument) View(id ViewID) (*View, bool) {
	v, ok := d.views[id]
	return v, ok
}

// Sheets implements Document.
func (d *MemDocument) Sheets() []*Sheet { return d.sheets }
