package parse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestLoadJSONPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	body := `{
		"22222222222": {"Student Name": "Ravi", "Class": 9},
		"11111111111": {"Student Name": "Asha", "Class": "9", "DOB": "15/08/2011"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	batch, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"22222222222", "11111111111"}, batch.Keys)
	assert.Equal(t, "Asha", batch.Rows["11111111111"]["student_name"])
	assert.Equal(t, "9", batch.Rows["22222222222"]["class"], "numeric cells read as text")
	assert.Equal(t, []string{"student_name", "class", "dob"}, batch.Columns)
}

func TestLoadExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"PEN", "Student Name", "Class"},
		{"11111111111", "Asha", "9"},
		{"NA", "Ravi", "9"},
		{"NA", "Meena", "9"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))

	batch, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"11111111111", "NA_2", "NA_3"}, batch.Keys,
		"placeholder PENs stay distinct")
	assert.Equal(t, []string{"student_name", "class"}, batch.Columns)
	assert.Equal(t, "Meena", batch.Rows["NA_3"]["student_name"])
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	_, err := Load("students.csv", nil)
	assert.Error(t, err)
}
