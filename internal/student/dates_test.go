package student

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"already canonical", "05/04/2015", "05/04/2015"},
		{"iso", "2015-04-05", "05/04/2015"},
		{"dashes", "05-04-2015", "05/04/2015"},
		{"month first gets swapped", "04/25/2015", "25/04/2015"},
		{"two digit padding", "5/4/2015", "05/04/2015"},
		{"spelled out", "5 April 2015", "05/04/2015"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeDate(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("placeholders normalize to empty", func(t *testing.T) {
		for _, in := range []string{"", "NA", "n/a", "Not Available"} {
			got, err := NormalizeDate(in)
			require.NoError(t, err, "input %q", in)
			assert.Empty(t, got, "input %q", in)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		for _, in := range []string{"not a date", "32/01/2015", "15/15/2015"} {
			_, err := NormalizeDate(in)
			assert.Error(t, err, "input %q", in)
		}
	})
}

func TestIsPlaceholder(t *testing.T) {
	for _, v := range []string{"", "NA", "na", "NS", "N/A", "null", "NONE", " not available "} {
		assert.True(t, IsPlaceholder(v), "value %q", v)
	}
	for _, v := range []string{"0", "NAB", "12345678901"} {
		assert.False(t, IsPlaceholder(v), "value %q", v)
	}
}

func TestYearFromDate(t *testing.T) {
	assert.Equal(t, 2011, YearFromDate("15/08/2011"))
	assert.Equal(t, 0, YearFromDate(""))
	assert.Equal(t, 0, YearFromDate("NA"))
}

func TestTimestampLayout(t *testing.T) {
	ts := Timestamp()
	_, err := time.Parse(TimestampLayout, ts)
	require.NoError(t, err)
}

func TestValidAdmissionDate(t *testing.T) {
	assert.True(t, ValidAdmissionDate("01/04/2025"))
	assert.True(t, ValidAdmissionDate("30/09/2025"))
	assert.False(t, ValidAdmissionDate("01/10/2025"))
	assert.False(t, ValidAdmissionDate("31/03/2025"))
	assert.False(t, ValidAdmissionDate("NA"))
}
