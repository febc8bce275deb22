package importer

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/conorfennell/part66/internal/domain"
)

func TestParseCSV(t *testing.T) {
	input := `Module,SubModule,Question,Answer,Context,Difficulty,Tags,Notes
3,3.1,What is the charge of an electron?,Negative,Electron theory,easy,"charge, atoms",ignored
module-4,,What is a diode?,A one-way valve,,,
,,,,,,
`
	cards, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, cards, 2)

	assert.Equal(t, "module-3", cards[0].ModuleID)
	assert.Equal(t, "submodule-3.1", cards[0].SubModuleID)
	assert.Equal(t, "Negative", cards[0].Answer)
	assert.Equal(t, "Electron theory", cards[0].Context)
	assert.Equal(t, domain.DifficultyEasy, cards[0].Difficulty)
	assert.Equal(t, []string{"atoms", "charge"}, cards[0].Tags)

	assert.Equal(t, "module-4", cards[1].ModuleID)
	assert.Empty(t, cards[1].SubModuleID)
	assert.Equal(t, domain.DifficultyMedium, cards[1].Difficulty)
	assert.NotNil(t, cards[1].Tags)
}

func TestParseCSVErrors(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("module,question\n3,Q?\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = ParseCSV(strings.NewReader("question,answer,difficulty\nQ,A,extreme\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidDifficulty)
	assert.Contains(t, err.Error(), "row 2")
}

func TestParseXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"question", "answer", "module", "tags"},
		{"What is the SI unit of capacitance?", "Farad", "3", "units"},
		{"Define inductance.", "Opposition to change in current", "3", ""},
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	cards, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "Farad", cards[0].Answer)
	assert.Equal(t, "module-3", cards[0].ModuleID)
	assert.Equal(t, []string{"units"}, cards[0].Tags)
	assert.Equal(t, "Define inductance.", cards[1].Question)
}

func TestParseFileUnsupported(t *testing.T) {
	_, err := ParseFile("deck.ods")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, Supported("deck.md"))
	assert.True(t, Supported("DECK.XLSX"))
}
