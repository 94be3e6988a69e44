package student

import "go.uber.org/zap"

// Annotation column names shared by every task's report.
const (
	ColRemark    = "Remark"
	ColStatus    = "Import Status"
	ColTimestamp = "Date and Time"
)

// Data is the batch aggregate: a PEN-keyed map of mutable annotation bags.
// Insertion order is preserved because it drives report column and row
// order. Keys are never removed, only annotated; Update refuses to create
// entries so a typo can never fabricate a student.
type Data struct {
	order   []string
	entries map[string]map[string]string
	records map[string]*Record
	log     *zap.Logger
}

// NewData creates the aggregate for one input batch. The keys slice fixes
// iteration order; rows carries the raw per-student attribute bags.
func NewData(keys []string, rows map[string]map[string]string, log *zap.Logger) *Data {
	if log == nil {
		log = zap.NewNop()
	}
	entries := make(map[string]map[string]string, len(keys))
	records := make(map[string]*Record, len(keys))
	order := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, dup := entries[k]; dup {
			log.Warn("duplicate key in input batch, first occurrence kept", zap.String("pen", k))
			continue
		}
		bag := map[string]string{}
		for col, v := range rows[k] {
			bag[col] = v
		}
		entries[k] = bag
		records[k] = NewRecord(k, bag)
		order = append(order, k)
	}
	return &Data{order: order, entries: entries, records: records, log: log}
}

// Keys returns the PENs in input order.
func (d *Data) Keys() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Len returns the number of students in the batch.
func (d *Data) Len() int { return len(d.order) }

// Record returns the Record owned by the aggregate for the given PEN. The
// same pointer is returned on every call so derived identity state written
// during one step is visible to later steps of the pass. The second return
// is false when the PEN is not part of the batch.
func (d *Data) Record(pen string) (*Record, bool) {
	rec, ok := d.records[pen]
	return rec, ok
}

// Get returns the annotation bag for a PEN, or nil when absent.
func (d *Data) Get(pen string) map[string]string {
	bag, ok := d.entries[pen]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(bag))
	for k, v := range bag {
		out[k] = v
	}
	return out
}

// Update merges annotations into an existing entry and stamps the audit
// timestamp. Unknown keys are a logged no-op, never an insert.
func (d *Data) Update(pen string, annotations map[string]string) {
	bag, ok := d.entries[pen]
	if !ok {
		d.log.Warn("key not found in student data, no update made", zap.String("pen", pen))
		return
	}
	for k, v := range annotations {
		bag[k] = v
		d.log.Debug("updated student data",
			zap.String("pen", pen), zap.String("field", k), zap.String("value", v))
	}
	bag[ColTimestamp] = Timestamp()
}

// Annotated reports whether the entry already carries a terminal status.
func (d *Data) Annotated(pen string) bool {
	bag, ok := d.entries[pen]
	if !ok {
		return false
	}
	_, done := bag[ColStatus]
	return done
}

// Snapshot returns the full mapping in input order, for the exporter.
func (d *Data) Snapshot() (keys []string, rows map[string]map[string]string) {
	rows = make(map[string]map[string]string, len(d.order))
	for _, k := range d.order {
		rows[k] = d.Get(k)
	}
	return d.Keys(), rows
}
