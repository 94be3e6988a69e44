package reconcile

import (
	"context"
	"fmt"

	"autoedu/internal/registry"
)

// fakeRegistry scripts the import, search and release surfaces for one
// test. Results are keyed "pen|dob" and "aadhaar|year".
type fakeRegistry struct {
	importResults map[string]registry.ImportResult
	importCalls   []string

	active   bool
	location string

	selectedClass string
	submitCalls   []string
	message       string

	searchResults map[string]registry.SearchResult
	searchCalls   []string

	releaseNames map[string]string
	releaseCalls []string
	submitNames  []string

	err error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		importResults: map[string]registry.ImportResult{},
		searchResults: map[string]registry.SearchResult{},
		releaseNames:  map[string]string{},
		message:       "Success",
		selectedClass: "9",
	}
}

func (f *fakeRegistry) AttemptImport(ctx context.Context, pen, dob string) (registry.ImportResult, error) {
	f.importCalls = append(f.importCalls, pen+"|"+dob)
	if f.err != nil {
		return registry.ImportResult{}, f.err
	}
	return f.importResults[pen+"|"+dob], nil
}

func (f *fakeRegistry) ActiveStatus(ctx context.Context) (bool, error) {
	return f.active, f.err
}

func (f *fakeRegistry) CurrentLocation(ctx context.Context) (string, error) {
	return f.location, f.err
}

func (f *fakeRegistry) SelectedClass(ctx context.Context) (string, error) {
	return f.selectedClass, f.err
}

func (f *fakeRegistry) SubmitDetails(ctx context.Context, class, section, admissionDate string) error {
	f.submitCalls = append(f.submitCalls, fmt.Sprintf("%s|%s|%s", class, section, admissionDate))
	return f.err
}

func (f *fakeRegistry) SubmissionMessage(ctx context.Context) (string, error) {
	return f.message, f.err
}

func (f *fakeRegistry) SearchIdentity(ctx context.Context, alternateID, year string) (registry.SearchResult, error) {
	f.searchCalls = append(f.searchCalls, alternateID+"|"+year)
	if f.err != nil {
		return registry.SearchResult{}, f.err
	}
	return f.searchResults[alternateID+"|"+year], nil
}

func (f *fakeRegistry) GenerateRequest(ctx context.Context, pen, dob string) (string, error) {
	f.releaseCalls = append(f.releaseCalls, pen+"|"+dob)
	if f.err != nil {
		return "", f.err
	}
	return f.releaseNames[pen], nil
}

func (f *fakeRegistry) SubmitRequest(ctx context.Context, section, admissionDate string) (string, error) {
	f.submitNames = append(f.submitNames, section+"|"+admissionDate)
	if f.err != nil {
		return "", f.err
	}
	return "Release request generated", nil
}

// fakeRow is the opaque row handle of the fake section table.
type fakeRow struct {
	pen     string
	section string
}

// fakeSectionTable simulates the paginated table, including the re-sort
// that can surface an already-shifted student on a later page.
type fakeSectionTable struct {
	pages      [][]*fakeRow
	page       int
	fetches    int
	shiftCalls map[string]int
	selected   []string
	readErrs   map[string]error
}

func newFakeSectionTable(pages [][]*fakeRow) *fakeSectionTable {
	return &fakeSectionTable{
		pages:      pages,
		shiftCalls: map[string]int{},
		readErrs:   map[string]error{},
	}
}

func (f *fakeSectionTable) SelectClass(ctx context.Context, class string) error {
	f.selected = append(f.selected, class)
	f.page = 0
	return nil
}

func (f *fakeSectionTable) PageCount(ctx context.Context) (int, error) {
	return len(f.pages), nil
}

func (f *fakeSectionTable) CurrentRows(ctx context.Context) ([]registry.Row, error) {
	f.fetches++
	rows := make([]registry.Row, 0, len(f.pages[f.page]))
	for _, r := range f.pages[f.page] {
		rows = append(rows, r)
	}
	return rows, nil
}

func (f *fakeSectionTable) ReadRow(ctx context.Context, row registry.Row) (string, string, error) {
	r := row.(*fakeRow)
	if err := f.readErrs[r.pen]; err != nil {
		return "", "", err
	}
	return r.pen, r.section, nil
}

func (f *fakeSectionTable) ShiftRowSection(ctx context.Context, row registry.Row, section string) (string, error) {
	r := row.(*fakeRow)
	f.shiftCalls[r.pen]++
	r.section = section
	return "Section updated", nil
}

func (f *fakeSectionTable) NextPage(ctx context.Context) error {
	f.page++
	return nil
}
