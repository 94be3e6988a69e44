package student

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testData(t *testing.T) *Data {
	t.Helper()
	return NewData(
		[]string{"11111111111", "22222222222"},
		map[string]map[string]string{
			"11111111111": {FieldName: "Asha", FieldClass: "9", FieldDOB: "2011-08-15"},
			"22222222222": {FieldName: "Ravi", FieldClass: "9"},
		}, nil)
}

func TestDataUpdate(t *testing.T) {
	t.Run("merges annotations and stamps timestamp", func(t *testing.T) {
		d := testData(t)
		d.Update("11111111111", map[string]string{ColRemark: "Success", ColStatus: "Yes"})

		bag := d.Get("11111111111")
		assert.Equal(t, "Success", bag[ColRemark])
		assert.Equal(t, "Yes", bag[ColStatus])
		assert.NotEmpty(t, bag[ColTimestamp])
		assert.True(t, d.Annotated("11111111111"))
		assert.False(t, d.Annotated("22222222222"))
	})

	t.Run("unknown key is a no-op, never an insert", func(t *testing.T) {
		d := testData(t)
		d.Update("33333333333", map[string]string{ColRemark: "x"})

		assert.Equal(t, 2, d.Len())
		assert.Nil(t, d.Get("33333333333"))
	})
}

func TestDataOrder(t *testing.T) {
	d := testData(t)
	assert.Equal(t, []string{"11111111111", "22222222222"}, d.Keys())

	keys, rows := d.Snapshot()
	assert.Equal(t, d.Keys(), keys)
	assert.Len(t, rows, 2)
}

func TestRecordAccessors(t *testing.T) {
	d := testData(t)
	rec, ok := d.Record("11111111111")
	require.True(t, ok)

	assert.Equal(t, "11111111111", rec.PEN())
	assert.Equal(t, "15/08/2011", rec.DOB(), "dates normalize to DD/MM/YYYY")
	assert.Equal(t, "9", rec.Class())
	assert.Equal(t, "", rec.Section())

	t.Run("effective identity follows resolution", func(t *testing.T) {
		assert.Equal(t, "11111111111", rec.EffectivePEN())
		require.True(t, rec.SetResolvedIdentity("99999999999", "16/08/2011"))
		assert.Equal(t, "99999999999", rec.EffectivePEN())
		assert.Equal(t, "16/08/2011", rec.EffectiveDOB())

		// Write-once: a second resolution is refused.
		assert.False(t, rec.SetResolvedIdentity("88888888888", "01/01/2011"))
		assert.Equal(t, "99999999999", rec.EffectivePEN())
	})
}

func TestRecordStatePersistsAcrossLookups(t *testing.T) {
	d := testData(t)
	rec, ok := d.Record("11111111111")
	require.True(t, ok)
	require.True(t, rec.SetResolvedIdentity("99999999999", "16/08/2011"))
	require.True(t, rec.SetCurrentSchool("GPS Riverdale"))

	// A later step fetching the same key must see the derived identity,
	// not a fresh record rebuilt from the raw row.
	again, ok := d.Record("11111111111")
	require.True(t, ok)
	assert.Same(t, rec, again)
	assert.Equal(t, "99999999999", again.EffectivePEN())
	assert.Equal(t, "16/08/2011", again.ConfirmedDOB())
	assert.Equal(t, "GPS Riverdale", again.CurrentSchool())
}

func TestRecordAadhaarValidation(t *testing.T) {
	rec := NewRecord("11111111111", map[string]string{FieldAadhaarNumber: "234567890124"})
	assert.Equal(t, "234567890124", rec.AadhaarNumber())

	bad := NewRecord("11111111111", map[string]string{FieldAadhaarNumber: "234567890125"})
	assert.Empty(t, bad.AadhaarNumber(), "checksum failures read as no alternate identity")
}
