package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	registryapp "github.com/datadik/portal/internal/application/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeImporter struct {
	format string
	sheet  string
	body   []byte
}

func (f *fakeImporter) Import(_ context.Context, in io.Reader) (*registryapp.ImportResult, error) {
	f.format = "csv"
	f.body, _ = io.ReadAll(in)
	return &registryapp.ImportResult{TotalRows: 1}, nil
}

func (f *fakeImporter) ImportWorkbook(_ context.Context, in io.Reader, sheet string) (*registryapp.ImportResult, error) {
	f.format = "xlsx"
	f.sheet = sheet
	f.body, _ = io.ReadAll(in)
	return &registryapp.ImportResult{TotalRows: 1}, nil
}

func TestParseArgs(t *testing.T) {
	path, sheet, err := parseArgs([]string{"rekap.csv"})
	require.NoError(t, err)
	assert.Equal(t, "rekap.csv", path)
	assert.Empty(t, sheet)

	path, sheet, err = parseArgs([]string{"rekap.xlsx", "SD Negeri"})
	require.NoError(t, err)
	assert.Equal(t, "rekap.xlsx", path)
	assert.Equal(t, "SD Negeri", sheet)

	_, _, err = parseArgs(nil)
	assert.Error(t, err)

	_, _, err = parseArgs([]string{"rekap.csv", "Sheet1"})
	assert.Error(t, err)

	_, _, err = parseArgs([]string{"a.xlsx", "b", "c"})
	assert.Error(t, err)
}

func TestImportFile_DispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "rekap.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("nama\nSDN 1\n"), 0o600))

	wb := excelize.NewFile()
	require.NoError(t, wb.SetSheetRow("Sheet1", "A1", &[]any{"Nama"}))
	xlsxPath := filepath.Join(dir, "Rekap.XLSX")
	require.NoError(t, wb.SaveAs(xlsxPath))
	require.NoError(t, wb.Close())

	imp := &fakeImporter{}
	_, err := importFile(context.Background(), imp, csvPath, "")
	require.NoError(t, err)
	assert.Equal(t, "csv", imp.format)
	assert.Equal(t, "nama\nSDN 1\n", string(imp.body))

	imp = &fakeImporter{}
	_, err = importFile(context.Background(), imp, xlsxPath, "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, "xlsx", imp.format)
	assert.Equal(t, "Sheet1", imp.sheet)
	assert.NotEmpty(t, imp.body)

	_, err = importFile(context.Background(), imp, filepath.Join(dir, "missing.csv"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
