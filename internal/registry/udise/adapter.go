package udise

import (
	"context"
	"fmt"
	"strings"
	"time"

	"autoedu/internal/browser"
	"autoedu/internal/registry"

	"go.uber.org/zap"
)

// The portal colour-codes the status panel: red background means the
// student is already enrolled somewhere, green means importable.
const (
	statusClassActive     = "redBack"
	statusClassImportable = "greenBack"
)

// Adapter drives the UDISE portal through one browser session. It
// implements registry.ImportAdapter, SearchAdapter, ReleaseAdapter and
// SectionAdapter.
type Adapter struct {
	session   *browser.Session
	log       *zap.Logger
	stepDelay time.Duration
	pageDelay time.Duration
	// sections maps section labels ("A") to the portal's option values
	// ("1").
	sections map[string]string

	// pendingActive caches the status panel read between AttemptImport and
	// ActiveStatus; the portal shows both on the same screen.
	pendingActive bool
}

// New builds an adapter over a started session.
func New(session *browser.Session, stepDelay time.Duration, sections map[string]string, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{session: session, log: log, stepDelay: stepDelay, pageDelay: stepDelay, sections: sections}
}

// SetPageDelay overrides the pause used between section-table pages. The
// table redraw is heavier than a single form step, so the section pass
// configures this separately from the step delay.
func (a *Adapter) SetPageDelay(d time.Duration) {
	if d > 0 {
		a.pageDelay = d
	}
}

// sectionValue translates a section label to the portal's option value,
// passing unknown labels through unchanged.
func (a *Adapter) sectionValue(section string) string {
	if v, ok := a.sections[section]; ok {
		return v
	}
	return section
}

// guard converts a dead browser into the session-fatal sentinel so the
// controller stops the pass instead of marking students one by one.
func (a *Adapter) guard(err error) error {
	if err == nil {
		return nil
	}
	if !a.session.Alive() {
		return fmt.Errorf("%w: %v", registry.ErrSessionLost, err)
	}
	return err
}

// Login authenticates against the portal and returns the logged-in school
// name. The captcha pause is manual: the operator types the captcha into
// the visible browser before submission proceeds.
func (a *Adapter) Login(ctx context.Context, username, password string, attempts int) (string, error) {
	if attempts <= 0 {
		attempts = 1
	}
	for i := 1; i <= attempts; i++ {
		if err := a.session.Input(ctx, selUsername, username); err != nil {
			return "", a.guard(err)
		}
		if err := a.session.Input(ctx, selPassword, password); err != nil {
			return "", a.guard(err)
		}
		// Wait for the operator to fill the captcha field.
		a.waitForCaptcha(ctx)
		if err := a.session.Click(ctx, selLoginSubmit); err != nil {
			return "", a.guard(err)
		}

		label, err := a.session.FirstMatch(ctx, map[string]browser.Selector{
			"error": selLoginError,
			"year":  selAcademicYear,
		}, 20*time.Second)
		if err != nil {
			return "", a.guard(err)
		}
		if label == "error" {
			msg, _ := a.session.Text(ctx, selLoginError)
			a.log.Warn("login rejected", zap.Int("attempt", i), zap.String("message", msg))
			continue
		}

		if err := a.session.Click(ctx, selAcademicYear); err != nil {
			return "", a.guard(err)
		}
		// Dismiss the school information pop-up if it appears.
		if has, _ := a.session.Has(ctx, selSchoolInfoOK); has {
			_ = a.session.Click(ctx, selSchoolInfoOK)
		}
		school, err := a.session.Text(ctx, selLoggedSchool)
		if err != nil {
			return "", a.guard(err)
		}
		a.log.Info("logged in", zap.String("school", school))
		return school, nil
	}
	return "", fmt.Errorf("%w: login failed after %d attempts", registry.ErrSessionLost, attempts)
}

func (a *Adapter) waitForCaptcha(ctx context.Context) {
	deadline := time.Now().Add(2 * time.Minute)
	for time.Now().Before(deadline) {
		v, err := a.session.SelectedValue(ctx, selCaptcha)
		if err == nil && strings.TrimSpace(v) != "" {
			return
		}
		a.session.Sleep(ctx, time.Second)
		if ctx.Err() != nil {
			return
		}
	}
	a.log.Warn("captcha wait timed out, submitting anyway")
}

// OpenImportModule navigates to the in-state student import form.
func (a *Adapter) OpenImportModule(ctx context.Context) error {
	steps := []struct {
		name string
		sel  browser.Selector
	}{
		{"Student Movement and Progression", selMovementProgression},
		{"Import Module", selImportOption},
		{"Import Within State", selInStateImport},
	}
	for _, step := range steps {
		if err := a.session.Click(ctx, step.sel); err != nil {
			return a.guard(fmt.Errorf("select %s: %w", step.name, err))
		}
		a.log.Info("selected option", zap.String("option", step.name))
		a.session.Sleep(ctx, a.stepDelay)
	}
	return nil
}

// AttemptImport enters the id+dob pair, clicks GO, and waits for either the
// DOB mismatch dialog or the student status panel.
func (a *Adapter) AttemptImport(ctx context.Context, pen, dob string) (registry.ImportResult, error) {
	a.pendingActive = false
	if err := a.session.Input(ctx, selImportPEN, pen); err != nil {
		return registry.ImportResult{}, a.guard(err)
	}
	if err := a.session.Input(ctx, selImportDOB, dob); err != nil {
		return registry.ImportResult{}, a.guard(err)
	}
	if err := a.session.Click(ctx, selImportGo); err != nil {
		return registry.ImportResult{}, a.guard(err)
	}

	label, err := a.session.FirstMatch(ctx, map[string]browser.Selector{
		"dob_error": selDobMismatchMsg,
		"status":    selStudentStatus,
	}, 12*time.Second)
	if err != nil {
		return registry.ImportResult{}, a.guard(err)
	}

	switch label {
	case "dob_error":
		msg, err := a.session.InnerHTML(ctx, selDobMismatchMsg)
		if err != nil {
			return registry.ImportResult{}, a.guard(err)
		}
		if err := a.session.Click(ctx, selDobMismatchOK); err != nil {
			return registry.ImportResult{}, a.guard(err)
		}
		a.session.Sleep(ctx, 2*time.Second)
		return registry.ImportResult{Accepted: false, Message: msg}, nil
	case "status":
		cls, err := a.session.Attribute(ctx, selStudentStatus, "class")
		if err != nil {
			return registry.ImportResult{}, a.guard(err)
		}
		a.pendingActive = strings.Contains(cls, statusClassActive) &&
			!strings.Contains(cls, statusClassImportable)
		return registry.ImportResult{Accepted: true}, nil
	default:
		return registry.ImportResult{}, fmt.Errorf("no status after import attempt for %s", pen)
	}
}

// ActiveStatus reports whether the accepted student is already active.
func (a *Adapter) ActiveStatus(ctx context.Context) (bool, error) {
	return a.pendingActive, nil
}

// CurrentLocation reads the school shown in the Current Schooling Details
// panel.
func (a *Adapter) CurrentLocation(ctx context.Context) (string, error) {
	school, err := a.session.InnerHTML(ctx, selCurrentSchool)
	if err != nil {
		return "", a.guard(err)
	}
	return school, nil
}

// SelectedClass returns the value preselected in the import class dropdown.
func (a *Adapter) SelectedClass(ctx context.Context) (string, error) {
	v, err := a.session.SelectedValue(ctx, selImportClass)
	if err != nil {
		return "", a.guard(err)
	}
	return v, nil
}

// SubmitDetails selects class and section, fills the admission date, and
// confirms the import.
func (a *Adapter) SubmitDetails(ctx context.Context, class, section, admissionDate string) error {
	if err := a.session.SelectValue(ctx, selImportClass, class); err != nil {
		return a.guard(err)
	}
	if err := a.session.SelectValue(ctx, selImportSection, a.sectionValue(section)); err != nil {
		return a.guard(err)
	}
	if err := a.session.Input(ctx, selImportDOA, admissionDate); err != nil {
		return a.guard(err)
	}
	for _, sel := range []browser.Selector{selImportButton, selImportConfirm} {
		if err := a.session.Click(ctx, sel); err != nil {
			return a.guard(err)
		}
	}
	return nil
}

// SubmissionMessage reads the post-submission dialog verbatim and closes it.
func (a *Adapter) SubmissionMessage(ctx context.Context) (string, error) {
	msg, err := a.session.InnerHTML(ctx, selImportMessage)
	if err != nil {
		return "", a.guard(err)
	}
	if err := a.session.Click(ctx, selImportOK); err != nil {
		return "", a.guard(err)
	}
	return msg, nil
}

// SearchIdentity runs one Get PEN & DOB lookup for an Aadhaar + birth-year
// pair.
func (a *Adapter) SearchIdentity(ctx context.Context, alternateID, year string) (registry.SearchResult, error) {
	if err := a.session.Click(ctx, selSearchOpen); err != nil {
		return registry.SearchResult{}, a.guard(err)
	}
	if err := a.session.Input(ctx, selSearchAadhaar, alternateID); err != nil {
		return registry.SearchResult{}, a.guard(err)
	}
	if err := a.session.Input(ctx, selSearchYOB, year); err != nil {
		return registry.SearchResult{}, a.guard(err)
	}
	if err := a.session.Click(ctx, selSearchButton); err != nil {
		return registry.SearchResult{}, a.guard(err)
	}

	label, err := a.session.FirstMatch(ctx, map[string]browser.Selector{
		"error": selSearchError,
		"ok":    selSearchPEN,
	}, 15*time.Second)
	if err != nil {
		return registry.SearchResult{}, a.guard(err)
	}
	defer func() { _ = a.session.Click(ctx, selSearchClose) }()

	if label != "ok" {
		return registry.SearchResult{}, nil
	}
	pen, err := a.session.Text(ctx, selSearchPEN)
	if err != nil {
		return registry.SearchResult{}, a.guard(err)
	}
	dob, err := a.session.Text(ctx, selSearchDOB)
	if err != nil {
		return registry.SearchResult{}, a.guard(err)
	}
	return registry.SearchResult{Found: true, PEN: pen, DOB: dob}, nil
}
