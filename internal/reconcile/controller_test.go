package reconcile

import (
	"context"
	"testing"

	"autoedu/internal/registry"
	"autoedu/internal/student"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	goodPEN    = "12345678901"
	schoolName = "GHS Model Town"
)

func newData(t *testing.T, students map[string]map[string]string, order ...string) *student.Data {
	t.Helper()
	return student.NewData(order, students, nil)
}

func newController(data *student.Data, fake *fakeRegistry) *Controller {
	attempt := NewAttempt(fake, schoolName, nil)
	resolver := NewResolver(fake, map[string]int{"9": 14}, 3, nil)
	return NewController(data, attempt, resolver, nil, nil)
}

func TestValidPEN(t *testing.T) {
	for _, pen := range []string{goodPEN, "12345678901234"} {
		assert.True(t, ValidPEN(pen), "pen %q", pen)
	}
	for _, pen := range []string{"", "NA", "na", "N/A", "1234567890", "123456789012345", "12345abc901"} {
		assert.False(t, ValidPEN(pen), "pen %q", pen)
	}
}

func TestStructuralRejectionSkipsAdapter(t *testing.T) {
	fake := newFakeRegistry()
	data := newData(t, map[string]map[string]string{
		"NA_1": {student.FieldClass: "9", student.FieldDOB: "15/08/2011"},
	}, "NA_1")
	ctrl := newController(data, fake)

	require.NoError(t, ctrl.Run(context.Background()))

	assert.Empty(t, fake.importCalls, "a placeholder key must never reach the registry")
	bag := data.Get("NA_1")
	assert.Equal(t, StatusIncomplete, bag[student.ColStatus])
	assert.NotEmpty(t, bag[student.ColRemark])
}

func TestDobRetrySkippedIdentical(t *testing.T) {
	fake := newFakeRegistry()
	data := newData(t, map[string]map[string]string{
		goodPEN: {
			student.FieldClass:      "9",
			student.FieldDOB:        "15/08/2011",
			student.FieldAadhaarDOB: "15/08/2011",
		},
	}, goodPEN)
	ctrl := newController(data, fake)

	require.NoError(t, ctrl.Step(context.Background(), goodPEN, false))

	assert.Len(t, fake.importCalls, 1, "identical alternate DOB must not be retried")
	bag := data.Get(goodPEN)
	assert.Equal(t, StatusIncomplete, bag[student.ColStatus])
	assert.Contains(t, bag[student.ColRemark], "identical")
}

func TestAlternateDobUnavailable(t *testing.T) {
	fake := newFakeRegistry()
	data := newData(t, map[string]map[string]string{
		goodPEN: {student.FieldClass: "9", student.FieldDOB: "15/08/2011"},
	}, goodPEN)
	ctrl := newController(data, fake)

	require.NoError(t, ctrl.Step(context.Background(), goodPEN, false))

	assert.Len(t, fake.importCalls, 1)
	assert.Contains(t, data.Get(goodPEN)[student.ColRemark], "no Aadhaar DOB")
}

func TestIdempotentStep(t *testing.T) {
	fake := newFakeRegistry()
	fake.importResults[goodPEN+"|15/08/2011"] = registry.ImportResult{Accepted: true}
	data := newData(t, map[string]map[string]string{
		goodPEN: {
			student.FieldClass:         "9",
			student.FieldSection:       "A",
			student.FieldDOB:           "15/08/2011",
			student.FieldAdmissionDate: "01/04/2025",
		},
	}, goodPEN)
	ctrl := newController(data, fake)

	require.NoError(t, ctrl.Step(context.Background(), goodPEN, false))
	first := data.Get(goodPEN)
	require.NoError(t, ctrl.Step(context.Background(), goodPEN, false))

	assert.Equal(t, first[student.ColRemark], data.Get(goodPEN)[student.ColRemark])
	assert.Len(t, fake.importCalls, 1, "an annotated student must not be reprocessed")
}

func TestImportSuccessEndToEnd(t *testing.T) {
	// Primary DOB rejected, Aadhaar DOB accepted, student not active,
	// class matches, submission succeeds.
	fake := newFakeRegistry()
	fake.importResults[goodPEN+"|15/08/2011"] = registry.ImportResult{Accepted: false, Message: "DOB mismatch"}
	fake.importResults[goodPEN+"|16/08/2011"] = registry.ImportResult{Accepted: true}

	data := newData(t, map[string]map[string]string{
		goodPEN: {
			student.FieldClass:         "9",
			student.FieldSection:       "A",
			student.FieldDOB:           "15/08/2011",
			student.FieldAadhaarDOB:    "16/08/2011",
			student.FieldAdmissionDate: "01/04/2025",
		},
	}, goodPEN)
	ctrl := newController(data, fake)

	require.NoError(t, ctrl.Run(context.Background()))

	assert.Len(t, fake.importCalls, 2)
	assert.Equal(t, []string{"9|A|01/04/2025"}, fake.submitCalls)
	bag := data.Get(goodPEN)
	assert.Equal(t, "Success", bag[student.ColRemark])
	assert.Equal(t, StatusComplete, bag[student.ColStatus])
	assert.NotEmpty(t, bag[student.ColTimestamp])

	rec, _ := data.Record(goodPEN)
	assert.Equal(t, "16/08/2011", rec.ConfirmedDOB())
}

func TestClassMismatchAbortsSubmission(t *testing.T) {
	fake := newFakeRegistry()
	fake.importResults[goodPEN+"|15/08/2011"] = registry.ImportResult{Accepted: true}
	fake.selectedClass = "8"

	data := newData(t, map[string]map[string]string{
		goodPEN: {
			student.FieldClass:   "9",
			student.FieldSection: "A",
			student.FieldDOB:     "15/08/2011",
		},
	}, goodPEN)
	ctrl := newController(data, fake)

	require.NoError(t, ctrl.Run(context.Background()))

	assert.Empty(t, fake.submitCalls, "class mismatch must abort before any write")
	bag := data.Get(goodPEN)
	assert.Equal(t, StatusIncomplete, bag[student.ColStatus])
	assert.Contains(t, bag[student.ColRemark], `"9"`)
	assert.Contains(t, bag[student.ColRemark], `"8"`)
}

func TestAlreadyActiveSameLocation(t *testing.T) {
	fake := newFakeRegistry()
	fake.importResults[goodPEN+"|15/08/2011"] = registry.ImportResult{Accepted: true}
	fake.active = true
	fake.location = "  ghs model town "

	data := newData(t, map[string]map[string]string{
		goodPEN: {student.FieldClass: "9", student.FieldDOB: "15/08/2011"},
	}, goodPEN)
	ctrl := newController(data, fake)

	require.NoError(t, ctrl.Run(context.Background()))

	bag := data.Get(goodPEN)
	assert.Equal(t, StatusComplete, bag[student.ColStatus], "active here counts as success")
	assert.Empty(t, ctrl.ReleaseQueue())
}

func TestActiveElsewhereRoutesToRelease(t *testing.T) {
	fake := newFakeRegistry()
	fake.importResults[goodPEN+"|15/08/2011"] = registry.ImportResult{Accepted: true}
	fake.active = true
	fake.location = "GPS Riverdale"

	data := newData(t, map[string]map[string]string{
		goodPEN: {
			student.FieldClass:         "9",
			student.FieldSection:       "A",
			student.FieldDOB:           "15/08/2011",
			student.FieldAdmissionDate: "01/04/2025",
		},
	}, goodPEN)
	ctrl := newController(data, fake)

	require.NoError(t, ctrl.Run(context.Background()))
	assert.Equal(t, []string{goodPEN}, ctrl.ReleaseQueue())
	assert.False(t, data.Annotated(goodPEN), "annotation is deferred to the release batch")

	t.Run("NA name skips submission", func(t *testing.T) {
		fake.releaseNames[goodPEN] = "NA"
		batch := NewReleaseBatch(fake, nil)
		require.NoError(t, batch.Run(context.Background(), ctrl, data, ctrl.ReleaseQueue()))

		assert.Empty(t, fake.submitNames, "release must not be submitted for an unlocatable student")
		bag := data.Get(goodPEN)
		assert.Equal(t, StatusIncomplete, bag[student.ColStatus])
		assert.Contains(t, bag[student.ColRemark], "Active in another school")
		assert.Contains(t, bag[student.ColRemark], "GPS Riverdale")
	})
}

func TestReleaseSubmission(t *testing.T) {
	fake := newFakeRegistry()
	fake.releaseNames[goodPEN] = "Asha Kumari"
	data := newData(t, map[string]map[string]string{
		goodPEN: {
			student.FieldSection:       "A",
			student.FieldAdmissionDate: "01/04/2025",
		},
	}, goodPEN)
	ctrl := newController(data, fake)

	batch := NewReleaseBatch(fake, nil)
	require.NoError(t, batch.Run(context.Background(), ctrl, data, []string{goodPEN}))

	assert.Equal(t, []string{"A|01/04/2025"}, fake.submitNames)
	bag := data.Get(goodPEN)
	assert.Equal(t, "Release request generated", bag[student.ColRemark])
	assert.Equal(t, StatusIncomplete, bag[student.ColStatus], "a release request is never an import success")
}

func TestIdentityResolutionRePass(t *testing.T) {
	// The PEN on file is garbage; the Aadhaar search recovers the real
	// identity and the bounded re-pass imports it.
	const realPEN = "98765432109"
	fake := newFakeRegistry()
	fake.searchResults["234567890124|2011"] = registry.SearchResult{Found: true, PEN: realPEN, DOB: "15/08/2011"}
	fake.importResults[realPEN+"|15/08/2011"] = registry.ImportResult{Accepted: true}

	data := newData(t, map[string]map[string]string{
		"badpen": {
			student.FieldClass:         "9",
			student.FieldSection:       "A",
			student.FieldDOB:           "15/08/2011",
			student.FieldAadhaarNumber: "234567890124",
			student.FieldAdmissionDate: "01/04/2025",
		},
	}, "badpen")
	ctrl := newController(data, fake)

	require.NoError(t, ctrl.Run(context.Background()))

	assert.Equal(t, []string{"234567890124|2011"}, fake.searchCalls)
	assert.Equal(t, []string{realPEN + "|15/08/2011"}, fake.importCalls)
	bag := data.Get("badpen")
	assert.Equal(t, "Success", bag[student.ColRemark])
	assert.Equal(t, StatusComplete, bag[student.ColStatus])
}

func TestIdentityResolutionFailsTerminal(t *testing.T) {
	t.Run("no aadhaar", func(t *testing.T) {
		fake := newFakeRegistry()
		data := newData(t, map[string]map[string]string{
			"badpen": {student.FieldClass: "9", student.FieldDOB: "15/08/2011"},
		}, "badpen")
		ctrl := newController(data, fake)

		require.NoError(t, ctrl.Run(context.Background()))

		assert.Empty(t, fake.searchCalls)
		assert.Contains(t, data.Get("badpen")[student.ColRemark], "no valid Aadhaar")
	})

	t.Run("search exhausted", func(t *testing.T) {
		fake := newFakeRegistry()
		data := newData(t, map[string]map[string]string{
			"badpen": {
				student.FieldClass:         "9",
				student.FieldDOB:           "15/08/2011",
				student.FieldAadhaarNumber: "234567890124",
			},
		}, "badpen")
		ctrl := newController(data, fake)

		require.NoError(t, ctrl.Run(context.Background()))

		assert.Len(t, fake.searchCalls, 1, "one direct DOB year, no inferred window")
		bag := data.Get("badpen")
		assert.Equal(t, StatusIncomplete, bag[student.ColStatus])
		assert.Contains(t, bag[student.ColRemark], "no match")
	})
}

func TestSessionLostStopsPass(t *testing.T) {
	fake := newFakeRegistry()
	fake.err = registry.ErrSessionLost

	data := newData(t, map[string]map[string]string{
		goodPEN:       {student.FieldClass: "9", student.FieldDOB: "15/08/2011"},
		"12345678902": {student.FieldClass: "9", student.FieldDOB: "15/08/2011"},
	}, goodPEN, "12345678902")
	ctrl := newController(data, fake)

	err := ctrl.Run(context.Background())
	require.ErrorIs(t, err, registry.ErrSessionLost)

	assert.Len(t, fake.importCalls, 1, "the pass stops at the first lost-session fault")
	assert.False(t, data.Annotated(goodPEN))
	assert.False(t, data.Annotated("12345678902"))
}

func TestAdapterErrorIsPerStudent(t *testing.T) {
	fake := newFakeRegistry()
	fake.err = context.DeadlineExceeded

	data := newData(t, map[string]map[string]string{
		goodPEN: {student.FieldClass: "9", student.FieldDOB: "15/08/2011"},
	}, goodPEN)
	ctrl := newController(data, fake)

	require.NoError(t, ctrl.Run(context.Background()))

	bag := data.Get(goodPEN)
	assert.Equal(t, StatusIncomplete, bag[student.ColStatus])
	assert.Contains(t, bag[student.ColRemark], "Unexpected error")
}

func TestEveryKeyAnnotatedAfterRun(t *testing.T) {
	fake := newFakeRegistry()
	fake.importResults["12345678901|15/08/2011"] = registry.ImportResult{Accepted: true}

	data := newData(t, map[string]map[string]string{
		"12345678901": {
			student.FieldClass:         "9",
			student.FieldSection:       "A",
			student.FieldDOB:           "15/08/2011",
			student.FieldAdmissionDate: "01/04/2025",
		},
		"NA_2":        {student.FieldClass: "9"},
		"12345678903": {student.FieldClass: "9", student.FieldDOB: "15/08/2011"},
	}, "12345678901", "NA_2", "12345678903")
	ctrl := newController(data, fake)

	require.NoError(t, ctrl.Run(context.Background()))

	for _, pen := range data.Keys() {
		bag := data.Get(pen)
		assert.NotEmpty(t, bag[student.ColRemark], "pen %s", pen)
		assert.Contains(t, []string{StatusComplete, StatusIncomplete}, bag[student.ColStatus], "pen %s", pen)
	}
}
