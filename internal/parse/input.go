package parse

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Batch is one parsed input file: student rows keyed by PEN, with key and
// column order preserved for the report.
type Batch struct {
	Keys    []string
	Rows    map[string]map[string]string
	Columns []string
}

// Load parses an .xlsx or .json batch file. The first column (or object
// key) is the PEN; remaining columns become the attribute bag under
// cleaned labels.
func Load(path string, log *zap.Logger) (*Batch, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return loadExcel(path, log)
	case ".json":
		return loadJSON(path, log)
	default:
		return nil, fmt.Errorf("unsupported input format %q", filepath.Ext(path))
	}
}

func loadExcel(path string, log *zap.Logger) (*Batch, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("workbook %s has no data rows", path)
	}

	header := make([]string, len(rows[0]))
	for i, label := range rows[0] {
		header[i] = CleanLabel(label)
	}

	batch := &Batch{Rows: map[string]map[string]string{}}
	if len(header) > 1 {
		batch.Columns = append(batch.Columns, header[1:]...)
	}

	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		pen := strings.TrimSpace(row[0])
		if pen == "" {
			continue
		}
		if isNAToken(pen) {
			// Duplicate "NA" keys would collapse into one record.
			pen = UniqueNAKey(i + 1)
		}
		attrs := map[string]string{}
		for c := 1; c < len(header); c++ {
			v := ""
			if c < len(row) {
				v = strings.TrimSpace(row[c])
			}
			attrs[header[c]] = v
		}
		if _, dup := batch.Rows[pen]; dup {
			log.Warn("duplicate PEN in input, keeping first", zap.String("pen", pen))
			continue
		}
		batch.Keys = append(batch.Keys, pen)
		batch.Rows[pen] = attrs
	}
	log.Info("parsed workbook",
		zap.String("file", path),
		zap.Int("students", len(batch.Keys)))
	return batch, nil
}

// loadJSON decodes {"<pen>": {"<column>": "<value>", ...}, ...} with a
// token walk so the file's key order survives into the report.
func loadJSON(path string, log *zap.Logger) (*Batch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	batch := &Batch{Rows: map[string]map[string]string{}}
	seenCols := map[string]bool{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		pen := strings.TrimSpace(tok.(string))

		attrs, order, err := decodeRow(dec)
		if err != nil {
			return nil, fmt.Errorf("parse %s, student %q: %w", path, pen, err)
		}
		for _, col := range order {
			if !seenCols[col] {
				seenCols[col] = true
				batch.Columns = append(batch.Columns, col)
			}
		}
		if _, dup := batch.Rows[pen]; dup {
			log.Warn("duplicate PEN in input, keeping first", zap.String("pen", pen))
			continue
		}
		batch.Keys = append(batch.Keys, pen)
		batch.Rows[pen] = attrs
	}
	log.Info("parsed json batch",
		zap.String("file", path),
		zap.Int("students", len(batch.Keys)))
	return batch, nil
}

func decodeRow(dec *json.Decoder) (map[string]string, []string, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, nil, err
	}
	attrs := map[string]string{}
	var order []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key := CleanLabel(keyTok.(string))

		valTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		val := ""
		switch v := valTok.(type) {
		case string:
			val = strings.TrimSpace(v)
		case json.Number:
			val = v.String()
		case nil:
		default:
			val = fmt.Sprint(v)
		}
		attrs[key] = val
		order = append(order, key)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, nil, err
	}
	return attrs, order, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func isNAToken(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "na", "ns", "n/a":
		return true
	}
	return false
}
