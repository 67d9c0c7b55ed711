// Package model defines the read-only host-document boundary: elements,
// parameters, views, sheets, and link instances, plus the Document
// interface the extraction engine consumes.
package model

import (
	"github.com/cespare/xxhash/v2"

	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec/geom"
)

// ElementID identifies an element. It is only unique within its owning
// document; cross-document identity pairs it with a DocMarker.
type ElementID int64

// ViewID identifies a view within a document. The zero ViewID denotes
// model space when passed to Document.BoundingBox.
type ViewID int64

// DocMarker is a stable cross-document identity for a document, derived
// from its path.
type DocMarker uint64

// MarkerFor derives the document marker from a document path or title.
func MarkerFor(path string) DocMarker {
	return DocMarker(xxhash.Sum64String(path))
}

// ElementKind classifies the element categories the engine cares about.
type ElementKind int

const (
	// KindOther is any element outside the categories below.
	KindOther ElementKind = iota
	// KindPipe is a pipe-bearing model element.
	KindPipe
	// KindPipeTag is an annotation label referencing pipe elements.
	KindPipeTag
	// KindLinkInstance is a placed reference to an external document.
	KindLinkInstance
)

// StorageKind is the storage type of a parameter value.
type StorageKind int

const (
	// StorageString holds a free-text value.
	StorageString StorageKind = iota
	// StorageInteger holds a whole-number value.
	StorageInteger
	// StorageReal holds a floating-point value.
	StorageReal
	// StorageElementRef holds a reference to another element in the
	// same document.
	StorageElementRef
)

// Parameter is a named attribute on an element or type.
type Parameter struct {
	// Name is the display name of the parameter.
	Name string
	// Kind is the storage type; only the matching value field is set.
	Kind StorageKind
	// Str is the value for StorageString parameters.
	Str string
	// Int is the value for StorageInteger parameters.
	Int int64
	// Real is the value for StorageReal parameters.
	Real float64
	// Ref is the referenced element id for StorageElementRef parameters.
	Ref ElementID
	// SharedGUID is the stable cross-project identifier when the
	// parameter is backed by an externally shared definition.
	SharedGUID string
}

// TagRef is a label's reference to a model element, either in the same
// document or across a link.
type TagRef struct {
	// LocalID is the referenced element in the label's own document.
	// Zero when the reference crosses a link.
	LocalID ElementID
	// LinkInstanceID is the link instance carrying the reference, zero
	// for same-document references.
	LinkInstanceID ElementID
	// LinkedID is the referenced element's id within the linked
	// document.
	LinkedID ElementID
}

// Location is an element's placement when box geometry is unavailable.
type Location struct {
	// Point is a point placement, nil if the element is curve-based.
	Point *geom.Point
	// CurveStart and CurveEnd delimit a curve-based placement.
	CurveStart *geom.Point
	CurveEnd   *geom.Point
}

// Element is a read-only element snapshot from a host or linked document.
type Element struct {
	// ID is the document-scoped element id.
	ID ElementID
	// Kind is the element's category.
	Kind ElementKind
	// Name is the element's display name.
	Name string
	// TypeID references the element's type object, zero if none.
	TypeID ElementID
	// Params are the element's instance parameters.
	Params []Parameter
	// Box is the model-space bounding box, nil when unavailable.
	Box *geom.Box
	// Location is the placement fallback used when Box is nil.
	Location Location
	// TagText is the visible text of a label element.
	TagText string
	// TagRefs are the model elements a label visually references.
	TagRefs []TagRef
}

// RepresentativePoint returns a single point standing in for the
// element's position: the midpoint of a curve-based location, else the
// point location, else the bounding-box center. Returns false when no
// geometry of any sort is available.
func (e *Element) RepresentativePoint() (geom.Point, bool) {
	if e.Location.CurveStart != nil && e.Location.CurveEnd != nil {
		return geom.Midpoint(*e.Location.CurveStart, *e.Location.CurveEnd), true
	}
	if e.Location.Point != nil {
		return *e.Location.Point, true
	}
	if e.Box != nil {
		return e.Box.Center(), true
	}
	return geom.Point{}, false
}

// Param returns the instance parameter with the exact given name.
func (e *Element) Param(name string) (Parameter, bool) {
	for _, p := range e.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// View is one view into the model, placeable on sheets via viewports.
type View struct {
	// ID is the document-scoped view id.
	ID ViewID
	// Name is the view's display name.
	Name string
	// Crop is the rectangular crop region, nil when the view has none.
	Crop *geom.Box
	// CropActive gates whether the crop filters spatially. An inactive
	// or absent crop means no spatial filtering.
	CropActive bool
}

// Sheet is a named drawing referencing zero or more viewports, each
// showing one view, in document-native order.
type Sheet struct {
	// Name is the sheet's display name.
	Name string
	// Number is the sheet number, empty if unnumbered.
	Number string
	// Viewports lists the views placed on the sheet.
	Viewports []ViewID
}

// LinkInstance is a placed reference from the host document to an
// externally authored document.
type LinkInstance struct {
	// ID is the link instance's element id in the host document.
	ID ElementID
	// Doc is the linked document, nil when the link is not loaded.
	Doc Document
	// Transform maps the linked document's coordinates into host
	// space. Nil means unavailable, not identity.
	Transform *geom.Transform
}

// Document is the read-only capability surface the engine consumes from
// the host CAD model. Implementations must tolerate concurrent reads
// from a single extraction worker but are never mutated by the engine.
type Document interface {
	// Marker returns the document's stable cross-document identity.
	Marker() DocMarker
	// Title returns the document's display title.
	Title() string
	// Elements enumerates all elements of the given kind.
	Elements(kind ElementKind) ([]*Element, error)
	// Element resolves an element by id.
	Element(id ElementID) (*Element, bool)
	// BoundingBox reads an element's bounding box, scoped to the given
	// view, or model space when view is zero. Returns an error when
	// the box is unobtainable.
	BoundingBox(id ElementID, view ViewID) (geom.Box, error)
	// ViewElements is the precise view-scoped query: elements of the
	// given kind visible in the view, honoring per-view overrides.
	ViewElements(view ViewID, kind ElementKind) ([]*Element, error)
	// LinkInstances lists the document's link instances.
	LinkInstances() []*LinkInstance
	// View resolves a view by id.
	View(id ViewID) (*View, bool)
	// Sheets lists the document's sheets.
	Sheets() []*Sheet
}
