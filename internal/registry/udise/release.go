package udise

import (
	"context"
	"fmt"
	"time"

	"autoedu/internal/browser"

	"go.uber.org/zap"
)

// OpenReleaseModule navigates to the in-state release request form.
func (a *Adapter) OpenReleaseModule(ctx context.Context) error {
	steps := []struct {
		name string
		sel  browser.Selector
	}{
		{"Release Request Management", selReleaseManagement},
		{"Within State", selInStateRelease},
		{"Generate Student Release Request", selGenerateRelease},
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

// GenerateRequest fills the PEN and DOB, fetches the student details and
// returns the student name shown on the form. The caller decides whether
// the record is worth submitting.
func (a *Adapter) GenerateRequest(ctx context.Context, pen, dob string) (string, error) {
	if err := a.session.Input(ctx, selReleasePEN, pen); err != nil {
		return "", a.guard(err)
	}
	if err := a.session.Input(ctx, selReleaseDOB, dob); err != nil {
		return "", a.guard(err)
	}
	if err := a.session.Click(ctx, selGetDetails); err != nil {
		return "", a.guard(err)
	}

	label, err := a.session.FirstMatch(ctx, map[string]browser.Selector{
		"dialog": selReleaseStatus,
		"name":   selReleaseName,
	}, 12*time.Second)
	if err != nil {
		return "", a.guard(err)
	}
	if label == "dialog" {
		msg, _ := a.session.InnerHTML(ctx, selReleaseStatus)
		_ = a.session.Click(ctx, selReleaseOK)
		return "", fmt.Errorf("get details rejected: %s", msg)
	}
	name, err := a.session.Text(ctx, selReleaseName)
	if err != nil {
		return "", a.guard(err)
	}
	return name, nil
}

// SubmitRequest selects the section, fills the admission date and submits
// the release request, returning the portal's dialog message verbatim.
func (a *Adapter) SubmitRequest(ctx context.Context, section, admissionDate string) (string, error) {
	if err := a.session.SelectValue(ctx, selReleaseSection, a.sectionValue(section)); err != nil {
		return "", a.guard(err)
	}
	if err := a.session.Input(ctx, selReleaseDOA, admissionDate); err != nil {
		return "", a.guard(err)
	}
	if err := a.session.Click(ctx, selReleaseGenerate); err != nil {
		return "", a.guard(err)
	}
	msg, err := a.session.InnerHTML(ctx, selReleaseStatus)
	if err != nil {
		return "", a.guard(err)
	}
	if err := a.session.Click(ctx, selReleaseOK); err != nil {
		return "", a.guard(err)
	}
	a.session.Sleep(ctx, a.stepDelay)
	return msg, nil
}
