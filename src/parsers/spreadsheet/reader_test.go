package spreadsheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeXLSX(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "extrato.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	path := writeXLSX(t, [][]any{
		{},
		{"Data", "Histórico", "Valor"},
		{"05/01/2024", "  PIX RECEBIDO  ", 150.5},
		{},
		{"06/01/2024", "PAGAMENTO"},
	})

	sheet, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Data", "Histórico", "Valor"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, Cell{Text: "PIX RECEBIDO"}, sheet.Rows[0]["Histórico"])
	assert.Equal(t, Cell{Text: "150.5", Numeric: true}, sheet.Rows[0]["Valor"])
	assert.False(t, sheet.Rows[0]["Data"].Numeric)
	assert.Equal(t, Cell{}, sheet.Rows[1]["Valor"])
}

func TestReadDuplicateHeaderKeepsFirst(t *testing.T) {
	path := writeXLSX(t, [][]any{
		{"Data", "Valor", "Valor"},
		{"2024-01-05", "1", "2"},
	})

	sheet, err := Read(path)
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "1", sheet.Rows[0]["Valor"].Text)
}

func TestReadEmptyWorkbook(t *testing.T) {
	path := writeXLSX(t, nil)
	_, err := Read(path)
	assert.ErrorIs(t, err, ErrEmptyWorkbook)
}

func TestReadRejectsOtherExtensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extrato.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o600))

	_, err := Read(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReadCorruptXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o600))

	_, err := Read(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSupportedExtension(t *testing.T) {
	assert.True(t, SupportedExtension("a.XLSX"))
	assert.True(t, SupportedExtension("dir/b.xls"))
	assert.False(t, SupportedExtension("c.csv"))
	assert.False(t, SupportedExtension("xlsx"))
}

func TestReadNamesBlankHeaders(t *testing.T) {
	path := writeXLSX(t, [][]any{
		{"Data", "", "Histórico", "Doc", ""},
		{"2024-01-05", "x", "TARIFA", "1", "-9,90"},
	})

	sheet, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Data", "Unnamed: 1", "Histórico", "Doc", "Unnamed: 4"}, sheet.Headers)
	assert.Equal(t, "-9,90", sheet.Rows[0]["Unnamed: 4"].Text)
}

func TestReadXLS(t *testing.T) {
	sheet, err := Read(filepath.Join("testdata", "extrato.xls"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Data", "Histórico", "Documento", "Valor"}, sheet.Headers)
	require.Len(t, sheet.Rows, 3, "the blank row is dropped")

	assert.Equal(t, "05/01/2024", sheet.Rows[0]["Data"].Text)
	assert.Equal(t, "PIX RECEBIDO CNPJ 12.345.678/0001-95", sheet.Rows[0]["Histórico"].Text)
	assert.Equal(t, "150.5", sheet.Rows[0]["Valor"].Text)
	assert.Equal(t, Cell{}, sheet.Rows[0]["Documento"])

	assert.Equal(t, "6/1/2024", sheet.Rows[1]["Data"].Text)
	assert.Equal(t, "-9.9", sheet.Rows[1]["Valor"].Text)

	assert.Equal(t, "45299", sheet.Rows[2]["Data"].Text)
	assert.Equal(t, "-80,00", sheet.Rows[2]["Valor"].Text)
	assert.False(t, sheet.Rows[2]["Valor"].Numeric)
}

func TestReadCorruptXLS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xls")
	require.NoError(t, os.WriteFile(path, make([]byte, 1024), 0o600))

	_, err := Read(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)
}
