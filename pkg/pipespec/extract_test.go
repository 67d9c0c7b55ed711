package pipespec

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec/geom"
	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec/model"
)

func TestMain(m *testing.M) {
	// The cancellation watcher must not outlive its run.
	goleak.VerifyTestMain(m)
}

func boxPtr(minX, minY, minZ, maxX, maxY, maxZ float64) *geom.Box {
	return &geom.Box{
		Min: geom.Point{X: minX, Y: minY, Z: minZ},
		Max: geom.Point{X: maxX, Y: maxY, Z: maxZ},
	}
}

func specParam(value string) model.Parameter {
	return model.Parameter{Name: "Spec Position", Kind: model.StorageString, Str: value}
}

// scenarioDoc builds the two-viewport scenario: one view showing three
// host pipes (two carrying "10-20", one without the attribute) and one
// view showing a linked pipe carrying "30-40".
func scenarioDoc() (*model.MemDocument, *model.Sheet) {
	doc := model.NewMemDocument("host.rvt")

	doc.AddElement(&model.Element{ID: 1, Kind: model.KindPipe,
		Box: boxPtr(0, 0, 0, 5, 5, 5), Params: []model.Parameter{specParam("10-20")}})
	doc.AddElement(&model.Element{ID: 2, Kind: model.KindPipe,
		Box: boxPtr(5, 5, 0, 10, 10, 5), Params: []model.Parameter{specParam("10-20")}})
	doc.AddElement(&model.Element{ID: 3, Kind: model.KindPipe,
		Box: boxPtr(0, 5, 0, 5, 10, 5)})

	linked := model.NewMemDocument("linked.rvt")
	linked.AddElement(&model.Element{ID: 50, Kind: model.KindPipe,
		Box: boxPtr(0, 0, 0, 2, 2, 2), Params: []model.Parameter{specParam("30-40")}})
	tr := geom.Translation(100, 0, 0)
	doc.AddLink(&model.LinkInstance{ID: 7, Doc: linked, Transform: &tr})
	doc.AddElement(&model.Element{ID: 7, Kind: model.KindLinkInstance})

	doc.AddView(&model.View{ID: 10, Crop: boxPtr(0, 0, 0, 20, 20, 20), CropActive: true})
	doc.PlaceInView(10, 1, 2, 3)

	doc.AddView(&model.View{ID: 11, Crop: boxPtr(95, -5, -5, 110, 10, 10), CropActive: true})
	doc.PlaceInView(11, 7)

	sheet := &model.Sheet{Name: "Ground Floor", Number: "A-101", Viewports: []model.ViewID{10, 11}}
	doc.AddSheet(sheet)
	return doc, sheet
}

func TestExtractScenarioTwoViewports(t *testing.T) {
	doc, sheet := scenarioDoc()
	opts := DefaultOptions()
	opts.Mode = ModeGeometry

	results, err := Extract(context.Background(), doc,
		[]SheetRef{{Name: "A-101 - Ground Floor", Sheet: sheet}}, opts)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "A-101 - Ground Floor", results[0].SheetName)
	assert.Equal(t, []string{"10-20", "30-40"}, results[0].SpecPositions)
}

func TestExtractSortDeterminism(t *testing.T) {
	doc := model.NewMemDocument("host.rvt")
	doc.AddElement(&model.Element{ID: 1, Kind: model.KindPipe,
		Box: boxPtr(0, 0, 0, 1, 1, 1), Params: []model.Parameter{specParam("b-2")}})
	doc.AddElement(&model.Element{ID: 2, Kind: model.KindPipe,
		Box: boxPtr(1, 0, 0, 2, 1, 1), Params: []model.Parameter{specParam("A-1")}})
	doc.AddElement(&model.Element{ID: 3, Kind: model.KindPipe,
		Box: boxPtr(2, 0, 0, 3, 1, 1), Params: []model.Parameter{specParam("a-1")}})
	doc.AddView(&model.View{ID: 10})
	doc.PlaceInView(10, 1, 2, 3)
	sheet := &model.Sheet{Name: "S1", Viewports: []model.ViewID{10}}

	opts := DefaultOptions()
	opts.Mode = ModeGeometry

	results, err := Extract(context.Background(), doc, []SheetRef{{Name: "S1", Sheet: sheet}}, opts)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Case-insensitive dedup, first-seen casing, case-insensitive sort.
	assert.Equal(t, []string{"A-1", "b-2"}, results[0].SpecPositions)
}

type cancelAfterObserver struct {
	reports   atomic.Int32
	threshold int32
}

func (o *cancelAfterObserver) Report(int, string) { o.reports.Add(1) }

func (o *cancelAfterObserver) Cancelled() bool { return o.reports.Load() >= o.threshold }

func TestExtractCancellationAfterFirstSheet(t *testing.T) {
	doc, sheet := scenarioDoc()
	refs := []SheetRef{
		{Name: "S1", Sheet: sheet},
		{Name: "S2", Sheet: sheet},
		{Name: "S3", Sheet: sheet},
	}

	opts := DefaultOptions()
	opts.Mode = ModeGeometry
	// Report 1 is the cache build, report 2 is sheet 1. The request
	// turns on at report 3 (sheet 2), so sheet 1 seals and sheet 2 is
	// cut off mid-processing without sealing.
	opts.Observer = &cancelAfterObserver{threshold: 3}

	results, err := Extract(context.Background(), doc, refs, opts)
	assert.ErrorIs(t, err, ErrCancelled)
	require.Len(t, results, 1)
	assert.Equal(t, "S1", results[0].SheetName)
}

func TestExtractContextCancelled(t *testing.T) {
	doc, sheet := scenarioDoc()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := Extract(ctx, doc, []SheetRef{{Name: "S1", Sheet: sheet}}, DefaultOptions())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Empty(t, results)
}

func TestExtractNoSheets(t *testing.T) {
	doc, _ := scenarioDoc()
	_, err := Extract(context.Background(), doc, nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrNoSheets)
}

func TestExtractSheetFailureContained(t *testing.T) {
	doc, sheet := scenarioDoc()
	broken := &model.Sheet{Name: "Broken", Viewports: []model.ViewID{999}}
	refs := []SheetRef{
		{Name: "Broken", Sheet: broken},
		{Name: "Missing handle"},
		{Name: "Good", Sheet: sheet},
	}

	opts := DefaultOptions()
	opts.Mode = ModeGeometry

	results, err := Extract(context.Background(), doc, refs, opts)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Bad sheets still seal (empty) results; the run continues.
	assert.Empty(t, results[0].SpecPositions)
	assert.Empty(t, results[1].SpecPositions)
	assert.Equal(t, []string{"10-20", "30-40"}, results[2].SpecPositions)
}

func TestExtractExcludeEmptySheets(t *testing.T) {
	doc, sheet := scenarioDoc()
	empty := &model.Sheet{Name: "Empty", Viewports: nil}
	refs := []SheetRef{
		{Name: "Empty", Sheet: empty},
		{Name: "Good", Sheet: sheet},
	}

	include := false
	opts := DefaultOptions()
	opts.Mode = ModeGeometry
	opts.IncludeEmptySheets = &include

	results, err := Extract(context.Background(), doc, refs, opts)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Good", results[0].SheetName)
}

func TestExtractTagMode(t *testing.T) {
	doc := model.NewMemDocument("host.rvt")
	doc.AddElement(&model.Element{ID: 1, Kind: model.KindPipe,
		Box: boxPtr(0, 0, 0, 1, 1, 1), Params: []model.Parameter{specParam("10-20")}})
	doc.AddElement(&model.Element{ID: 30, Kind: model.KindPipeTag,
		TagRefs: []model.TagRef{{LocalID: 1}}})
	doc.AddElement(&model.Element{ID: 31, Kind: model.KindPipeTag,
		TagText: "No. 474-90"})
	doc.AddView(&model.View{ID: 10})
	doc.PlaceInView(10, 30, 31)
	sheet := &model.Sheet{Name: "S1", Viewports: []model.ViewID{10}}

	opts := DefaultOptions()
	opts.Mode = ModeTags

	results, err := Extract(context.Background(), doc, []SheetRef{{Name: "S1", Sheet: sheet}}, opts)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"10-20", "474-90"}, results[0].SpecPositions)
}

func TestExtractFullModeDeduplicates(t *testing.T) {
	// A pipe and a tag referencing it both resolve to the same value;
	// the union mode must report it once.
	doc := model.NewMemDocument("host.rvt")
	doc.AddElement(&model.Element{ID: 1, Kind: model.KindPipe,
		Box: boxPtr(0, 0, 0, 1, 1, 1), Params: []model.Parameter{specParam("10-20")}})
	doc.AddElement(&model.Element{ID: 30, Kind: model.KindPipeTag,
		TagRefs: []model.TagRef{{LocalID: 1}}})
	doc.AddView(&model.View{ID: 10})
	doc.PlaceInView(10, 1, 30)
	sheet := &model.Sheet{Name: "S1", Viewports: []model.ViewID{10}}

	results, err := Extract(context.Background(), doc, []SheetRef{{Name: "S1", Sheet: sheet}}, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"10-20"}, results[0].SpecPositions)
}

func TestExtractUnloadedLinkSilentlySkipped(t *testing.T) {
	doc, sheet := scenarioDoc()
	doc.AddLink(&model.LinkInstance{ID: 8}) // unloaded
	doc.AddElement(&model.Element{ID: 8, Kind: model.KindLinkInstance})
	doc.PlaceInView(10, 8)

	opts := DefaultOptions()
	opts.Mode = ModeGeometry

	results, err := Extract(context.Background(), doc, []SheetRef{{Name: "S1", Sheet: sheet}}, opts)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"10-20", "30-40"}, results[0].SpecPositions)
}

func TestValueSetFirstSeenCasing(t *testing.T) {
	s := newValueSet()
	s.add("A-1")
	s.add("a-1")
	s.add("")
	s.add("  ")

	assert.Equal(t, []string{"A-1"}, s.sorted())
}
