package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec/geom"
)

// Snapshot is the serialized model-export format the CLI consumes in
// place of a live host API. A snapshot holds one document plus nested
// snapshots for each loaded link.
type Snapshot struct {
	// Title is the document title the marker is derived from.
	Title string `json:"title"`
	// Elements lists the document's elements.
	Elements []SnapshotElement `json:"elements,omitempty"`
	// Views lists the document's views.
	Views []SnapshotView `json:"views,omitempty"`
	// Sheets lists the document's sheets.
	Sheets []SnapshotSheet `json:"sheets,omitempty"`
	// ViewElements maps a view id (as a string key) to the element ids
	// nominally placed in that view.
	ViewElements map[string][]int64 `json:"view_elements,omitempty"`
	// Links lists the document's link instances.
	Links []SnapshotLink `json:"links,omitempty"`
}

// SnapshotElement is the serialized form of an Element.
type SnapshotElement struct {
	ID     int64               `json:"id"`
	Kind   string              `json:"kind"`
	Name   string              `json:"name,omitempty"`
	TypeID int64               `json:"type_id,omitempty"`
	Params []SnapshotParameter `json:"params,omitempty"`
	// Box is [minX, minY, minZ, maxX, maxY, maxZ].
	Box []float64 `json:"box,omitempty"`
	// Point is a point location [x, y, z].
	Point []float64 `json:"point,omitempty"`
	// Curve is a curve location [[x,y,z], [x,y,z]].
	Curve   [][]float64      `json:"curve,omitempty"`
	TagText string           `json:"tag_text,omitempty"`
	TagRefs []SnapshotTagRef `json:"tag_refs,omitempty"`
}

// SnapshotParameter is the serialized form of a Parameter.
type SnapshotParameter struct {
	Name       string  `json:"name"`
	Kind       string  `json:"kind"`
	Str        string  `json:"str,omitempty"`
	Int        int64   `json:"int,omitempty"`
	Real       float64 `json:"real,omitempty"`
	Ref        int64   `json:"ref,omitempty"`
	SharedGUID string  `json:"shared_guid,omitempty"`
}

// SnapshotTagRef is the serialized form of a TagRef.
type SnapshotTagRef struct {
	LocalID        int64 `json:"local_id,omitempty"`
	LinkInstanceID int64 `json:"link_instance_id,omitempty"`
	LinkedID       int64 `json:"linked_id,omitempty"`
}

// SnapshotView is the serialized form of a View.
type SnapshotView struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name,omitempty"`
	Crop       []float64 `json:"crop,omitempty"`
	CropActive bool      `json:"crop_active,omitempty"`
}

// SnapshotSheet is the serialized form of a Sheet.
type SnapshotSheet struct {
	Name      string  `json:"name"`
	Number    string  `json:"number,omitempty"`
	Viewports []int64 `json:"viewports,omitempty"`
}

// SnapshotLink is the serialized form of a LinkInstance. A nil Doc marks
// an unloaded link; a nil Transform marks an unresolvable placement.
type SnapshotLink struct {
	ID        int64              `json:"id"`
	Doc       *Snapshot          `json:"doc,omitempty"`
	Transform *SnapshotTransform `json:"transform,omitempty"`
}

// SnapshotTransform is a link placement as basis vectors plus origin.
type SnapshotTransform struct {
	BasisX []float64 `json:"basis_x"`
	BasisY []float64 `json:"basis_y"`
	BasisZ []float64 `json:"basis_z"`
	Origin []float64 `json:"origin"`
}

// LoadSnapshot reads and decodes a snapshot file into a document tree.
func LoadSnapshot(path string) (*MemDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeSnapshot(f)
}

// DecodeSnapshot decodes a JSON snapshot into a document tree.
func DecodeSnapshot(r io.Reader) (*MemDocument, error) {
	var snap Snapshot
	dec := json.NewDecoder(r)
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap.Build()
}

// Build converts the snapshot into an in-memory document tree.
func (s *Snapshot) Build() (*MemDocument, error) {
	doc := NewMemDocument(s.Title)

	for _, se := range s.Elements {
		elem, err := se.build()
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", se.ID, err)
		}
		doc.AddElement(elem)
	}

	for _, sv := range s.Views {
		view := &View{
			ID:         ViewID(sv.ID),
			Name:       sv.Name,
			CropActive: sv.CropActive,
		}
		if box, err := boxFromSlice(sv.Crop); err != nil {
			return nil, fmt.Errorf("view %d crop: %w", sv.ID, err)
		} else if box != nil {
			view.Crop = box
		}
		doc.AddView(view)
	}

	for _, ss := range s.Sheets {
		sheet := &Sheet{Name: ss.Name, Number: ss.Number}
		for _, vp := range ss.Viewports {
			sheet.Viewports = append(sheet.Viewports, ViewID(vp))
		}
		doc.AddSheet(sheet)
	}

	for key, ids := range s.ViewElements {
		viewID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("view_elements key %q: %w", key, err)
		}
		for _, id := range ids {
			doc.PlaceInView(ViewID(viewID), ElementID(id))
		}
	}

	for _, sl := range s.Links {
		link := &LinkInstance{ID: ElementID(sl.ID)}
		if sl.Doc != nil {
			linked, err := sl.Doc.Build()
			if err != nil {
				return nil, fmt.Errorf("link %d: %w", sl.ID, err)
			}
			link.Doc = linked
		}
		if sl.Transform != nil {
			tr, err := sl.Transform.build()
			if err != nil {
				return nil, fmt.Errorf("link %d transform: %w", sl.ID, err)
			}
			link.Transform = &tr
		}
		doc.AddLink(link)
	}

	return doc, nil
}

func (se *SnapshotElement) build() (*Element, error) {
	kind, err := parseKind(se.Kind)
	if err != nil {
		return nil, err
	}

	elem := &Element{
		ID:      ElementID(se.ID),
		Kind:    kind,
		Name:    se.Name,
		TypeID:  ElementID(se.TypeID),
		TagText: se.TagText,
	}

	for _, sp := range se.Params {
		storage, err := parseStorage(sp.Kind)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", sp.Name, err)
		}
		elem.Params = append(elem.Params, Parameter{
			Name:       sp.Name,
			Kind:       storage,
			Str:        sp.Str,
			Int:        sp.Int,
			Real:       sp.Real,
			Ref:        ElementID(sp.Ref),
			SharedGUID: sp.SharedGUID,
		})
	}

	if box, err := boxFromSlice(se.Box); err != nil {
		return nil, fmt.Errorf("box: %w", err)
	} else if box != nil {
		elem.Box = box
	}

	if p, err := pointFromSlice(se.Point); err != nil {
		return nil, fmt.Errorf("point: %w", err)
	} else if p != nil {
		elem.Location.Point = p
	}

	if se.Curve != nil {
		if len(se.Curve) != 2 {
			return nil, fmt.Errorf("curve needs 2 endpoints, got %d", len(se.Curve))
		}
		start, err := pointFromSlice(se.Curve[0])
		if err != nil || start == nil {
			return nil, fmt.Errorf("curve start: %v", err)
		}
		end, err := pointFromSlice(se.Curve[1])
		if err != nil || end == nil {
			return nil, fmt.Errorf("curve end: %v", err)
		}
		elem.Location.CurveStart = start
		elem.Location.CurveEnd = end
	}

	for _, tr := range se.TagRefs {
		elem.TagRefs = append(elem.TagRefs, TagRef{
			LocalID:        ElementID(tr.LocalID),
			LinkInstanceID: ElementID(tr.LinkInstanceID),
			LinkedID:       ElementID(tr.LinkedID),
		})
	}

	return elem, nil
}

func (st *SnapshotTransform) build() (geom.Transform, error) {
	bx, err := pointFromSlice(st.BasisX)
	if err != nil || bx == nil {
		return geom.Transform{}, fmt.Errorf("basis_x: %v", err)
	}
	by, err := pointFromSlice(st.BasisY)
	if err != nil || by == nil {
		return geom.Transform{}, fmt.Errorf("basis_y: %v", err)
	}
	bz, err := pointFromSlice(st.BasisZ)
	if err != nil || bz == nil {
		return geom.Transform{}, fmt.Errorf("basis_z: %v", err)
	}
	origin, err := pointFromSlice(st.Origin)
	if err != nil || origin == nil {
		return geom.Transform{}, fmt.Errorf("origin: %v", err)
	}
	return geom.NewTransform(*bx, *by, *bz, *origin), nil
}

func parseKind(s string) (ElementKind, error) {
	switch s {
	case "pipe":
		return KindPipe, nil
	case "pipe_tag":
		return KindPipeTag, nil
	case "link_instance":
		return KindLinkInstance, nil
	case "other", "":
		return KindOther, nil
	}
	return KindOther, fmt.Errorf("unknown element kind %q", s)
}

func parseStorage(s string) (StorageKind, error) {
	switch s {
	case "string", "":
		return StorageString, nil
	case "integer":
		return StorageInteger, nil
	case "real":
		return StorageReal, nil
	case "element_ref":
		return StorageElementRef, nil
	}
	return StorageString, fmt.Errorf("unknown storage kind %q", s)
}

func pointFromSlice(v []float64) (*geom.Point, error) {
	if v == nil {
		return nil, nil
	}
	if len(v) != 3 {
		return nil, fmt.Errorf("point needs 3 coordinates, got %d", len(v))
	}
	return &geom.Point{X: v[0], Y: v[1], Z: v[2]}, nil
}

func boxFromSlice(v []float64) (*geom.Box, error) {
	if v == nil {
		return nil, nil
	}
	if len(v) != 6 {
		return nil, fmt.Errorf("box needs 6 coordinates, got %d", len(v))
	}
	return &geom.Box{
		Min: geom.Point{X: v[0], Y: v[1], Z: v[2]},
		Max: geom.Point{X: v[3], Y: v[4], Z: v[5]},
	}, nil
}
