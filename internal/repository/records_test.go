package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pincode-hexmap/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRecordFileSource_CSV(t *testing.T) {
	path := writeFile(t, "records.csv", "\ufeffRef no,Pincode,Brand\nR1,560001,Acme\nR2,560001.0,Zen\n,,\nR3,,Acme\n")

	records, err := NewRecordFileSource(path, "Pincode").LoadRecords(context.Background())
	require.NoError(t, err)

	expected := []models.Record{
		{Row: 2, Identifier: "560001", Attributes: map[string]string{"Ref no": "R1", "Pincode": "560001", "Brand": "Acme"}},
		{Row: 3, Identifier: "560001.0", Attributes: map[string]string{"Ref no": "R2", "Pincode": "560001.0", "Brand": "Zen"}},
		{Row: 5, Identifier: nil, Attributes: map[string]string{"Ref no": "R3", "Pincode": "", "Brand": "Acme"}},
	}
	assert.Equal(t, expected, records)
}

func TestRecordFileSource_Spreadsheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Ref no", "Pincode", "Service Center Name"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"R1", 560001, "Indiranagar"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"R2", "110001", "Connaught Place"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	records, err := NewRecordFileSource(path, "Pincode").LoadRecords(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "560001", records[0].Identifier)
	assert.Equal(t, "Indiranagar", records[0].Attributes["Service Center Name"])
	assert.Equal(t, "110001", records[1].Identifier)
	assert.Equal(t, 3, records[1].Row)
}

func TestRecordFileSource_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{name: "empty path", path: func(*testing.T) string { return "" }},
		{name: "unsupported extension", path: func(t *testing.T) string { return writeFile(t, "records.txt", "Pincode\n1\n") }},
		{name: "missing identifier column", path: func(t *testing.T) string { return writeFile(t, "records.csv", "Zip\n560001\n") }},
		{name: "empty file", path: func(t *testing.T) string { return writeFile(t, "records.csv", "") }},
		{name: "file does not exist", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.csv") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRecordFileSource(tt.path(t), "Pincode").LoadRecords(context.Background())
			assert.Error(t, err)
		})
	}
}
