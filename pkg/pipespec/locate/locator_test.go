package locate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec/model"
)

func strParam(name, value string) model.Parameter {
	return model.Parameter{Name: name, Kind: model.StorageString, Str: value}
}

func pipe(id model.ElementID, params ...model.Parameter) *model.Element {
	return &model.Element{ID: id, Kind: model.KindPipe, Params: params}
}

func TestLookupExactNameWins(t *testing.T) {
	loc := DefaultLocator()
	// The case-variant parameter comes first; the exact name must
	// still win.
	e := pipe(1,
		strParam("spec position", "wrong"),
		strParam("Spec Position", "474-90"),
	)

	got := loc.Values(nil, e)
	assert.Equal(t, []string{"474-90"}, got)
}

func TestLookupCaseInsensitiveName(t *testing.T) {
	loc := DefaultLocator()
	e := pipe(1, strParam("SPEC POSITION", "474-90"))

	got := loc.Values(nil, e)
	assert.Equal(t, []string{"474-90"}, got)
}

func TestLookupAlternateName(t *testing.T) {
	loc := DefaultLocator()
	e := pipe(1, strParam("spec_position", "12-34"))

	got := loc.Values(nil, e)
	assert.Equal(t, []string{"12-34"}, got)
}

func TestLookupSubstringHeuristic(t *testing.T) {
	loc := DefaultLocator()

	tests := []struct {
		name      string
		paramName string
		want      bool
	}{
		{"spec then position", "Pipe Spec Position Code", true},
		{"position then spec", "Position (Spec)", true},
		{"german tokens", "Spez.-Pos.", true},
		{"spec token only", "Pipe Spec", false},
		{"position token only", "Mounting Position", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := pipe(1, strParam(tt.paramName, "9-9"))
			got := loc.Values(nil, e)
			if tt.want {
				assert.Equal(t, []string{"9-9"}, got)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestLookupHeuristicNeverBeatsExact(t *testing.T) {
	loc := DefaultLocator()
	e := pipe(1,
		strParam("Pipe Spec Position Code", "heuristic"),
		strParam("Spec Position", "exact"),
	)

	got := loc.Values(nil, e)
	assert.Equal(t, []string{"exact"}, got)
}

func TestLookupSharedDefinitionHeuristic(t *testing.T) {
	loc := DefaultLocator()
	e := pipe(1, model.Parameter{
		Name:       "Spec Pos Nr",
		Kind:       model.StorageString,
		Str:        "77-13",
		SharedGUID: "7a1f6f2e-0000-4f4f-aaaa-000000000001",
	})

	got := loc.Values(nil, e)
	assert.Equal(t, []string{"77-13"}, got)
}

func TestLookupSkipsEmptyValues(t *testing.T) {
	loc := DefaultLocator()
	// The exact-name parameter is blank; the chain keeps going and
	// finds the heuristic match.
	e := pipe(1,
		strParam("Spec Position", "   "),
		strParam("Spec Pos Code", "5-5"),
	)

	got := loc.Values(nil, e)
	assert.Equal(t, []string{"5-5"}, got)
}

func TestLookupTypeFallback(t *testing.T) {
	loc := DefaultLocator()

	doc := model.NewMemDocument("host.rvt")
	doc.AddElement(&model.Element{
		ID:     900,
		Kind:   model.KindOther,
		Params: []model.Parameter{strParam("Spec Position", "88-21")},
	})

	e := pipe(1)
	e.TypeID = 900

	got := loc.Values(doc, e)
	assert.Equal(t, []string{"88-21"}, got)
}

func TestLookupSystemTypeTerminalFallback(t *testing.T) {
	loc := DefaultLocator()

	doc := model.NewMemDocument("host.rvt")
	doc.AddElement(&model.Element{ID: 901, Kind: model.KindOther, Name: "Domestic Cold Water"})

	e := pipe(1, model.Parameter{
		Name: "Piping System Type",
		Kind: model.StorageElementRef,
		Ref:  901,
	})

	got := loc.Values(doc, e)
	assert.Equal(t, []string{"Domestic Cold Water"}, got)
}

func TestLookupStorageKinds(t *testing.T) {
	loc := DefaultLocator()

	doc := model.NewMemDocument("host.rvt")
	doc.AddElement(&model.Element{ID: 902, Kind: model.KindOther, Name: "Ref Target"})

	tests := []struct {
		name  string
		param model.Parameter
		want  string
	}{
		{"integer", model.Parameter{Name: "Spec Position", Kind: model.StorageInteger, Int: 42}, "42"},
		{"real", model.Parameter{Name: "Spec Position", Kind: model.StorageReal, Real: 4.5}, "4.5"},
		{"reference", model.Parameter{Name: "Spec Position", Kind: model.StorageElementRef, Ref: 902}, "Ref Target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := pipe(1, tt.param)
			got := loc.Values(doc, e)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestLookupNoMatch(t *testing.T) {
	loc := DefaultLocator()
	e := pipe(1, strParam("Diameter", "50"))

	assert.Empty(t, loc.Values(nil, e))
}
