package reconcile

import (
	"context"
	"errors"
	"testing"

	"autoedu/internal/student"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sectionData(t *testing.T, sections map[string]string) *student.Data {
	t.Helper()
	rows := map[string]map[string]string{}
	var keys []string
	for pen, section := range sections {
		keys = append(keys, pen)
		rows[pen] = map[string]string{student.FieldClass: "9", student.FieldSection: section}
	}
	return student.NewData(keys, rows, nil)
}

func TestSectionReconcilerShiftsMismatches(t *testing.T) {
	data := sectionData(t, map[string]string{
		"11111111111": "A",
		"22222222222": "B",
	})
	table := newFakeSectionTable([][]*fakeRow{{
		{pen: "11111111111", section: "B"},
		{pen: "22222222222", section: "B"},
	}})
	rec := NewSectionReconciler(table, data, nil, nil)

	stats, err := rec.Run(context.Background(), []string{"9"})
	require.NoError(t, err)

	assert.Equal(t, 1, table.shiftCalls["11111111111"])
	assert.Zero(t, table.shiftCalls["22222222222"], "matching section must not be touched")
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Shifted)
	assert.Equal(t, 1, stats.AlreadyCorrect)

	assert.Contains(t, data.Get("11111111111")[student.ColRemark], "Shifted from B to A")
	assert.Contains(t, data.Get("22222222222")[student.ColRemark], "already")
}

func TestSectionReconcilerPaginationSafety(t *testing.T) {
	// The student shifted on page 1 reappears on page 2 after the table
	// re-sorts. It must not be shifted twice.
	data := sectionData(t, map[string]string{"11111111111": "A"})
	table := newFakeSectionTable([][]*fakeRow{
		{{pen: "11111111111", section: "B"}},
		{{pen: "11111111111", section: "B"}},
	})
	rec := NewSectionReconciler(table, data, nil, nil)

	stats, err := rec.Run(context.Background(), []string{"9"})
	require.NoError(t, err)

	assert.Equal(t, 1, table.shiftCalls["11111111111"])
	assert.Equal(t, 1, stats.Shifted)
}

func TestSectionReconcilerSkipsUnknownRows(t *testing.T) {
	data := sectionData(t, map[string]string{"11111111111": "A"})
	table := newFakeSectionTable([][]*fakeRow{{
		{pen: "99999999999", section: "B"},
		{pen: "11111111111", section: "A"},
	}})
	rec := NewSectionReconciler(table, data, nil, nil)

	stats, err := rec.Run(context.Background(), []string{"9"})
	require.NoError(t, err)

	assert.Zero(t, table.shiftCalls["99999999999"])
	assert.Equal(t, 1, stats.Unknown)
	assert.Equal(t, 1, stats.AlreadyCorrect)
}

func TestSectionReconcilerMultiClassTotals(t *testing.T) {
	data := sectionData(t, map[string]string{
		"11111111111": "A",
		"22222222222": "C",
	})
	table := newFakeSectionTable([][]*fakeRow{{
		{pen: "11111111111", section: "B"},
		{pen: "22222222222", section: "B"},
	}})
	rec := NewSectionReconciler(table, data, nil, nil)

	stats, err := rec.Run(context.Background(), []string{"9", "10"})
	require.NoError(t, err)

	assert.Equal(t, []string{"9", "10"}, table.selected)
	// Both rows handled during class 9; the second walk finds everyone
	// already processed.
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 2, stats.Shifted)
}

func TestSectionReconcilerAbandonsUnreadablePage(t *testing.T) {
	// A row whose cells never parse must not pin the run in a re-fetch
	// loop; the page is abandoned after a bounded number of attempts and
	// later pages are still processed.
	data := sectionData(t, map[string]string{"11111111111": "A"})
	table := newFakeSectionTable([][]*fakeRow{
		{{pen: "99999999999", section: "B"}},
		{{pen: "11111111111", section: "B"}},
	})
	table.readErrs["99999999999"] = errors.New("row cells missing")
	rec := NewSectionReconciler(table, data, nil, nil)

	stats, err := rec.Run(context.Background(), []string{"9"})
	require.NoError(t, err)

	assert.LessOrEqual(t, table.fetches, maxRowReadRetries+2,
		"persistent read failure must not re-fetch forever")
	assert.Equal(t, 1, table.shiftCalls["11111111111"])
	assert.Equal(t, 1, stats.Shifted)
}

func TestSectionReconcilerHonorsShiftLog(t *testing.T) {
	data := sectionData(t, map[string]string{"11111111111": "A"})
	table := newFakeSectionTable([][]*fakeRow{{
		{pen: "11111111111", section: "B"},
	}})
	log := &memoryShiftLog{shifted: map[string]bool{"11111111111": true}}
	rec := NewSectionReconciler(table, data, log, nil)

	stats, err := rec.Run(context.Background(), []string{"9"})
	require.NoError(t, err)

	assert.Zero(t, table.shiftCalls["11111111111"], "a previously shifted student is never retried")
	assert.Zero(t, stats.Shifted)
}

type memoryShiftLog struct {
	shifted map[string]bool
}

func (m *memoryShiftLog) Shifted(pen string) (bool, error) { return m.shifted[pen], nil }
func (m *memoryShiftLog) MarkShifted(pen string) error {
	m.shifted[pen] = true
	return nil
}
