package reconcile

import (
	"context"
	"testing"
	"time"

	"autoedu/internal/registry"
	"autoedu/internal/student"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedResolver(fake *fakeRegistry, year int) *Resolver {
	r := NewResolver(fake, map[string]int{"9": 14}, 3, nil)
	r.now = func() time.Time {
		return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC)
	}
	return r
}

func TestCandidateYears(t *testing.T) {
	r := fixedResolver(newFakeRegistry(), 2025)

	t.Run("direct DOB years come first, deduplicated", func(t *testing.T) {
		rec := student.NewRecord("x", map[string]string{
			student.FieldClass:      "9",
			student.FieldDOB:        "15/08/2011",
			student.FieldAadhaarDOB: "16/08/2010",
		})
		assert.Equal(t, []string{"2011", "2010"}, r.CandidateYears(rec))
	})

	t.Run("identical direct years collapse to one", func(t *testing.T) {
		rec := student.NewRecord("x", map[string]string{
			student.FieldClass:      "9",
			student.FieldDOB:        "15/08/2011",
			student.FieldAadhaarDOB: "16/08/2011",
		})
		assert.Equal(t, []string{"2011"}, r.CandidateYears(rec))
	})

	t.Run("no direct year falls back to the inferred window", func(t *testing.T) {
		// Class 9, expected age 14, current year 2025: base 2011, +/- 3.
		rec := student.NewRecord("x", map[string]string{student.FieldClass: "9"})
		want := []string{"2008", "2009", "2010", "2011", "2012", "2013", "2014"}
		if diff := cmp.Diff(want, r.CandidateYears(rec)); diff != "" {
			t.Fatalf("candidate years mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown class yields nothing", func(t *testing.T) {
		rec := student.NewRecord("x", map[string]string{student.FieldClass: "latkg"})
		assert.Empty(t, r.CandidateYears(rec))
	})
}

func TestResolveShortCircuitsOnFirstMatch(t *testing.T) {
	fake := newFakeRegistry()
	fake.searchResults["234567890124|2009"] = registry.SearchResult{
		Found: true, PEN: "98765432109", DOB: "2009-02-01",
	}
	r := fixedResolver(fake, 2025)

	rec := student.NewRecord("badpen", map[string]string{
		student.FieldClass:         "9",
		student.FieldAadhaarNumber: "234567890124",
	})
	require.NoError(t, r.Resolve(context.Background(), rec))

	// 2008 missed, 2009 hit; 2010-2014 never tried.
	assert.Equal(t, []string{"234567890124|2008", "234567890124|2009"}, fake.searchCalls)
	assert.Equal(t, "98765432109", rec.ResolvedPEN())
	assert.Equal(t, "01/02/2009", rec.ConfirmedDOB(), "search DOB is normalized")
}

func TestResolveFailureCauses(t *testing.T) {
	t.Run("missing aadhaar", func(t *testing.T) {
		r := fixedResolver(newFakeRegistry(), 2025)
		rec := student.NewRecord("badpen", map[string]string{student.FieldClass: "9"})
		assert.ErrorIs(t, r.Resolve(context.Background(), rec), ErrMissingAlternateID)
	})

	t.Run("exhausted window", func(t *testing.T) {
		fake := newFakeRegistry()
		r := fixedResolver(fake, 2025)
		rec := student.NewRecord("badpen", map[string]string{
			student.FieldClass:         "9",
			student.FieldAadhaarNumber: "234567890124",
		})
		assert.ErrorIs(t, r.Resolve(context.Background(), rec), ErrNoCandidateMatch)
		assert.Len(t, fake.searchCalls, 7, "every year in the window tried exactly once")
	})
}
