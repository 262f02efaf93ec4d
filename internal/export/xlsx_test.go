package export

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestXLSXExporter_WritesAllSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, NewXLSX(path).Export(context.Background(), sampleReport()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 3)
	assert.Contains(t, f.Sheet, "Summary")
	assert.Contains(t, f.Sheet, "Buyer Group")
	assert.Contains(t, f.Sheet, "Phases")
}

func TestXLSXExporter_SummarySheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, NewXLSX(path).Export(context.Background(), sampleReport()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet := f.Sheet["Summary"]
	require.NotNil(t, sheet)

	assert.Equal(t, "Dell Technologies", summaryCell(t, sheet, "Company").String())
	assert.Equal(t, "Dell", summaryCell(t, sheet, "Aliases").String())
	assert.Equal(t, "enterprise-saas", summaryCell(t, sheet, "Profile").String())
	assert.Equal(t, "run-1234", summaryCell(t, sheet, "Run ID").String())
	assert.Equal(t, "champion_led", summaryCell(t, sheet, "Strategy").String())
	assert.Equal(t, "medium", summaryCell(t, sheet, "Risk level").String())
	assert.Equal(t, "role_gap:blocker", summaryCell(t, sheet, "Warnings").String())

	members, err := summaryCell(t, sheet, "Members").Int()
	require.NoError(t, err)
	assert.Equal(t, 2, members)

	conf, err := summaryCell(t, sheet, "Overall confidence").Float()
	require.NoError(t, err)
	assert.InDelta(t, 0.68, conf, 1e-9)

	usd, err := summaryCell(t, sheet, "Estimated USD").Float()
	require.NoError(t, err)
	assert.InDelta(t, 0.048, usd, 1e-9)

	search, err := summaryCell(t, sheet, "Search credits").Int()
	require.NoError(t, err)
	assert.Equal(t, 9, search)

	// No dry-run row for a live run.
	assert.Nil(t, findSummaryCell(sheet, "Dry run"))
}

func TestXLSXExporter_DryRunRow(t *testing.T) {
	report := sampleReport()
	report.DryRun = true

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, NewXLSX(path).Export(context.Background(), report))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, "yes", summaryCell(t, f.Sheet["Summary"], "Dry run").String())
}

func TestXLSXExporter_MembersSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, NewXLSX(path).Export(context.Background(), sampleReport()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet := f.Sheet["Buyer Group"]
	require.NotNil(t, sheet)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, memberHeaders, rowStrings(sheet.Rows[0]))
	assert.True(t, sheet.Rows[0].Cells[0].GetStyle().Font.Bold)

	// Decision makers sort ahead of champions.
	first := sheet.Rows[1]
	assert.Equal(t, "decision", first.Cells[0].String())
	assert.Equal(t, "Jane Doe", first.Cells[1].String())
	assert.Equal(t, "Chief Financial Officer", first.Cells[2].String())
	assert.Equal(t, "finance", first.Cells[3].String())

	score, err := first.Cells[4].Float()
	require.NoError(t, err)
	assert.InDelta(t, 0.82, score, 1e-9)

	influence, err := first.Cells[6].Float()
	require.NoError(t, err)
	assert.InDelta(t, 7.5, influence, 1e-9)

	assert.Equal(t, "jane.doe@dell.com", first.Cells[8].String())
	assert.Equal(t, "https://linkedin.com/in/janedoe", first.Cells[9].String())
	assert.Equal(t, "title matched cfo; seniority c_level", first.Cells[10].String())

	second := sheet.Rows[2]
	assert.Equal(t, "champion", second.Cells[0].String())
	assert.Equal(t, "John Smith", second.Cells[1].String())
}

func TestXLSXExporter_PhasesSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, NewXLSX(path).Export(context.Background(), sampleReport()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet := f.Sheet["Phases"]
	require.NotNil(t, sheet)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, []string{"Phase", "Status", "Duration (ms)", "Error"}, rowStrings(sheet.Rows[0]))

	assert.Equal(t, "search", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "complete", sheet.Rows[1].Cells[1].String())
	dur, err := sheet.Rows[1].Cells[2].Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(1800), dur)

	assert.Equal(t, "collect", sheet.Rows[2].Cells[0].String())
}

func TestXLSXExporter_SaveError(t *testing.T) {
	// Parent directory does not exist, so the save must fail.
	path := filepath.Join(t.TempDir(), "missing", "report.xlsx")

	err := NewXLSX(path).Export(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save workbook")
}

func summaryCell(t *testing.T, sheet *xlsx.Sheet, label string) *xlsx.Cell {
	t.Helper()
	cell := findSummaryCell(sheet, label)
	require.NotNil(t, cell, "summary row %q not found", label)
	return cell
}

func findSummaryCell(sheet *xlsx.Sheet, label string) *xlsx.Cell {
	for _, row := range sheet.Rows {
		if len(row.Cells) >= 2 && row.Cells[0].String() == label {
			return row.Cells[1]
		}
	}
	return nil
}

func rowStrings(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		out[i] = cell.String()
	}
	return out
}
