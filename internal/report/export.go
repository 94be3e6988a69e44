// Package report serializes the annotated batch to Excel and JSON, keeping
// the input's row and column order and pushing the audit columns to the
// end.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"autoedu/internal/parse"
	"autoedu/internal/student"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// audit columns always come last, in this order.
var auditColumns = []string{student.ColRemark, student.ColStatus, student.ColTimestamp}

// Exporter writes one report in both formats under dir. Existing reports
// are backed up before being overwritten.
type Exporter struct {
	dir      string
	baseName string
	log      *zap.Logger
}

// NewExporter builds an exporter writing <dir>/<baseName>.xlsx and .json.
func NewExporter(dir, baseName string, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{dir: dir, baseName: baseName, log: log}
}

// Save exports the annotated batch. firstColumn names the key column in
// the spreadsheet (e.g. "PEN"); columns is the input column order.
func (e *Exporter) Save(data *student.Data, firstColumn string, columns []string) error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	jsonPath := filepath.Join(e.dir, e.baseName+".json")
	excelPath := filepath.Join(e.dir, e.baseName+".xlsx")
	e.backupExisting(jsonPath, excelPath)

	keys, rows := data.Snapshot()
	if err := e.writeJSON(jsonPath, keys, rows); err != nil {
		return err
	}
	if err := e.writeExcel(excelPath, firstColumn, columns, keys, rows); err != nil {
		return err
	}
	e.log.Info("report saved",
		zap.String("excel", excelPath),
		zap.String("json", jsonPath),
		zap.Int("students", len(keys)))
	return nil
}

func (e *Exporter) backupExisting(paths ...string) {
	backupDir := filepath.Join(e.dir, "backup")
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		dst, err := parse.BackupFile(p, backupDir)
		if err != nil {
			e.log.Warn("report backup failed", zap.String("file", p), zap.Error(err))
			continue
		}
		e.log.Info("backed up previous report", zap.String("to", dst))
		_ = os.Remove(p)
	}
}

// writeJSON preserves key order by emitting the object manually; a plain
// map marshal would sort the PENs.
func (e *Exporter) writeJSON(path string, keys []string, rows map[string]map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	buf := []byte("{\n")
	for i, key := range keys {
		name, err := json.Marshal(parse.NormalizeNAKey(key))
		if err != nil {
			return err
		}
		body, err := json.MarshalIndent(rows[key], "    ", "    ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
		buf = append(buf, "    "...)
		buf = append(buf, name...)
		buf = append(buf, ": "...)
		buf = append(buf, body...)
		if i < len(keys)-1 {
			buf = append(buf, ',')
		}
		buf = append(buf, '\n')
	}
	buf = append(buf, "}\n"...)

	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (e *Exporter) writeExcel(path, firstColumn string, columns, keys []string, rows map[string]map[string]string) error {
	ordered := e.orderColumns(columns, keys, rows)

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	isAudit := map[string]bool{}
	for _, c := range auditColumns {
		isAudit[c] = true
	}
	header := []any{firstColumn}
	widths := []int{len(firstColumn)}
	for _, col := range ordered {
		// Audit columns are already display labels.
		label := col
		if !isAudit[col] {
			label = parse.RestoreLabel(col)
		}
		header = append(header, label)
		widths = append(widths, len(label))
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, key := range keys {
		row := []any{parse.NormalizeNAKey(key)}
		if w := len(row[0].(string)); w > widths[0] {
			widths[0] = w
		}
		for c, col := range ordered {
			v := rows[key][col]
			row = append(row, v)
			if len(v) > widths[c+1] {
				widths[c+1] = len(v)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := e.style(f, sheet, len(ordered)+1, len(keys)+1, widths); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// orderColumns keeps the input column order, drops audit columns from
// wherever they appear and appends them at the end, then tacks on any
// annotation column the run invented.
func (e *Exporter) orderColumns(columns, keys []string, rows map[string]map[string]string) []string {
	isAudit := map[string]bool{}
	for _, c := range auditColumns {
		isAudit[c] = true
	}

	var ordered []string
	seen := map[string]bool{}
	for _, c := range columns {
		if isAudit[c] || seen[c] {
			continue
		}
		seen[c] = true
		ordered = append(ordered, c)
	}
	for _, key := range keys {
		for c := range rows[key] {
			if !seen[c] && !isAudit[c] {
				seen[c] = true
				ordered = append(ordered, c)
			}
		}
	}
	for _, c := range auditColumns {
		ordered = append(ordered, c)
	}
	return ordered
}

func (e *Exporter) style(f *excelize.File, sheet string, cols, rowCount int, widths []int) error {
	last, err := excelize.CoordinatesToCellName(cols, rowCount)
	if err != nil {
		return err
	}
	border := []excelize.Border{
		{Type: "left", Style: 1, Color: "000000"},
		{Type: "right", Style: 1, Color: "000000"},
		{Type: "top", Style: 1, Color: "000000"},
		{Type: "bottom", Style: 1, Color: "000000"},
	}
	body, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, body); err != nil {
		return err
	}

	headerLast, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", headerLast, header); err != nil {
		return err
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(w+4)); err != nil {
			return err
		}
	}
	return nil
}
