package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"autoedu/internal/student"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func annotatedData(t *testing.T) *student.Data {
	t.Helper()
	data := student.NewData(
		[]string{"22222222222", "11111111111"},
		map[string]map[string]string{
			"22222222222": {"student_name": "Ravi", "class": "9"},
			"11111111111": {"student_name": "Asha", "class": "9"},
		}, nil)
	data.Update("22222222222", map[string]string{
		student.ColRemark: "Success", student.ColStatus: "Yes",
	})
	data.Update("11111111111", map[string]string{
		student.ColRemark: "DOB mismatch", student.ColStatus: "No",
	})
	return data
}

func TestExporterSave(t *testing.T) {
	dir := t.TempDir()
	exp := NewExporter(dir, "report", nil)
	require.NoError(t, exp.Save(annotatedData(t), "PEN", []string{"student_name", "class"}))

	t.Run("excel keeps order with audit columns last", func(t *testing.T) {
		f, err := excelize.OpenFile(filepath.Join(dir, "report.xlsx"))
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows(f.GetSheetName(0))
		require.NoError(t, err)
		require.Len(t, rows, 3)

		assert.Equal(t,
			[]string{"PEN", "Student Name", "Class", "Remark", "Import Status", "Date and Time"},
			rows[0])
		assert.Equal(t, "22222222222", rows[1][0], "input row order preserved")
		assert.Equal(t, "Success", rows[1][3])
		assert.Equal(t, "No", rows[2][4])
	})

	t.Run("json round-trips every annotation", func(t *testing.T) {
		raw, err := os.ReadFile(filepath.Join(dir, "report.json"))
		require.NoError(t, err)

		var out map[string]map[string]string
		require.NoError(t, json.Unmarshal(raw, &out))
		require.Len(t, out, 2)
		assert.Equal(t, "Success", out["22222222222"][student.ColRemark])
		assert.NotEmpty(t, out["11111111111"][student.ColTimestamp])
	})

	t.Run("second save backs up the first", func(t *testing.T) {
		require.NoError(t, exp.Save(annotatedData(t), "PEN", []string{"student_name", "class"}))
		backups, err := os.ReadDir(filepath.Join(dir, "backup"))
		require.NoError(t, err)
		assert.Len(t, backups, 2, "one backup per report file")
	})
}
