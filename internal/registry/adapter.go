package registry

import (
	"context"
	"errors"
)

// ErrSessionLost marks adapter faults that mean the external session itself
// is unusable (authentication dropped, browser gone). The controller stops
// the pass on these instead of classifying them per student.
var ErrSessionLost = errors.New("registry session lost")

// ImportResult is the registry's answer to one id+dob import attempt.
type ImportResult struct {
	Accepted bool
	Message  string
}

// SearchResult is the registry's answer to one alternate-id + birth-year
// identity search.
type SearchResult struct {
	Found bool
	PEN   string
	DOB   string
}

// ImportAdapter is the import-form surface of the external registry. All
// calls are blocking; timeouts are owned by the implementation, and a timed
// out call returns an error the caller classifies as UnknownError.
type ImportAdapter interface {
	// AttemptImport enters the id+dob pair and reports whether the registry
	// accepted it.
	AttemptImport(ctx context.Context, pen, dob string) (ImportResult, error)

	// ActiveStatus reports whether the just-accepted student is already
	// active somewhere.
	ActiveStatus(ctx context.Context) (bool, error)

	// CurrentLocation returns the school the student is active at. Only
	// meaningful after ActiveStatus returned true.
	CurrentLocation(ctx context.Context) (string, error)

	// SelectedClass returns the class currently selected in the registry's
	// import form.
	SelectedClass(ctx context.Context) (string, error)

	// SubmitDetails fills and confirms class, section and admission date.
	SubmitDetails(ctx context.Context, class, section, admissionDate string) error

	// SubmissionMessage returns the registry's post-submission message,
	// recorded verbatim as the remark.
	SubmissionMessage(ctx context.Context) (string, error)
}

// SearchAdapter is the fallback identity-search surface.
type SearchAdapter interface {
	// SearchIdentity looks up a student by alternate national ID and a
	// hypothesized birth year.
	SearchIdentity(ctx context.Context, alternateID, year string) (SearchResult, error)
}

// ReleaseAdapter is the release-request surface for students active at
// another school.
type ReleaseAdapter interface {
	// GenerateRequest fills the release form with the authoritative id+dob
	// and returns the student name the registry displays. A literal "NA"
	// name means the registry could not locate the student.
	GenerateRequest(ctx context.Context, pen, dob string) (string, error)

	// SubmitRequest submits section and admission date and returns the
	// resulting status message verbatim.
	SubmitRequest(ctx context.Context, section, admissionDate string) (string, error)
}

// Row is an opaque handle to one row of the section table. Handles become
// stale whenever a shift succeeds; callers must re-fetch before reuse.
type Row any

// SectionAdapter is the paginated section-correction surface.
type SectionAdapter interface {
	// SelectClass scopes the table to one class. Used by multi-class mode.
	SelectClass(ctx context.Context, class string) error

	// PageCount returns the number of table pages for the current class.
	PageCount(ctx context.Context) (int, error)

	// CurrentRows re-fetches the rows visible on the current page.
	CurrentRows(ctx context.Context) ([]Row, error)

	// ReadRow extracts the PEN and displayed section from a row.
	ReadRow(ctx context.Context, row Row) (pen, section string, err error)

	// ShiftRowSection submits a section change for the row and returns the
	// confirmation message.
	ShiftRowSection(ctx context.Context, row Row, section string) (string, error)

	// NextPage advances the table to the next page.
	NextPage(ctx context.Context) error
}
