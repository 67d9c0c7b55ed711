package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec"
)

func sampleResults() []pipespec.SheetResult {
	return []pipespec.SheetResult{
		{SheetName: "A-101 - Ground Floor", SpecPositions: []string{"10-20", "30-40"}},
		{SheetName: "A-102 - First Floor", SpecPositions: []string{"10-20"}},
		{SheetName: "A-103 - Roof", SpecPositions: []string{}},
	}
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, Write(path, sampleResults()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	cell := func(ref string) string {
		v, err := f.GetCellValue(SheetName, ref)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Sheet", cell("A1"))
	assert.Equal(t, "Spec Positions", cell("B1"))
	assert.Equal(t, "Count", cell("C1"))

	assert.Equal(t, "A-101 - Ground Floor", cell("A2"))
	assert.Equal(t, "10-20, 30-40", cell("B2"))
	assert.Equal(t, "2", cell("C2"))

	assert.Equal(t, "A-103 - Roof", cell("A4"))
	assert.Equal(t, "", cell("B4"))
	assert.Equal(t, "0", cell("C4"))

	// Summary block below a blank separator row.
	assert.Equal(t, "Total sheets", cell("A6"))
	assert.Equal(t, "3", cell("B6"))
	assert.Equal(t, "Distinct spec positions", cell("A7"))
	assert.Equal(t, "2", cell("B7"))
	assert.Equal(t, "Generated", cell("A8"))
	assert.NotEmpty(t, cell("B8"))
}

func TestWriteEmptyResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, Write(path, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(SheetName, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Total sheets", v)
}

func TestWriteLeavesNoTempFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	// A path whose parent is a regular file cannot be renamed into.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	path := filepath.Join(blocker, "report.xlsx")

	assert.Error(t, Write(path, sampleResults()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"),
			"temp file %s left behind", e.Name())
	}
}

func TestSummarize(t *testing.T) {
	sum := Summarize(sampleResults())
	assert.Equal(t, 3, sum.TotalSheets)
	assert.Equal(t, 2, sum.DistinctPositions)
	assert.False(t, sum.GeneratedAt.IsZero())
}

func TestSummarizeCaseInsensitive(t *testing.T) {
	sum := Summarize([]pipespec.SheetResult{
		{SheetName: "S1", SpecPositions: []string{"A-1"}},
		{SheetName: "S2", SpecPositions: []string{"a-1", "b-2"}},
	})
	assert.Equal(t, 2, sum.DistinctPositions)
}
