package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"autoedu/internal/registry"
	"autoedu/internal/student"

	"go.uber.org/zap"
)

// Attempt drives the bounded import sequence for one student: at most two
// id+dob trials (declared DOB, then Aadhaar DOB), then status
// classification, then the detail submission when the student is
// importable.
type Attempt struct {
	adapter registry.ImportAdapter
	school  string
	log     *zap.Logger
}

// NewAttempt builds the state machine over an import adapter. school is the
// logged-in school name used to tell "active here" from "active elsewhere".
func NewAttempt(adapter registry.ImportAdapter, school string, log *zap.Logger) *Attempt {
	if log == nil {
		log = zap.NewNop()
	}
	return &Attempt{adapter: adapter, school: school, log: log}
}

// Result carries the classified outcome and the remark recorded for it.
type Result struct {
	Outcome registry.Outcome
	Remark  string
}

// Run executes the attempt sequence. Per-student adapter failures map to
// UnknownError; only a lost session propagates as an error so the caller
// can stop the whole pass.
func (a *Attempt) Run(ctx context.Context, rec *student.Record) (Result, error) {
	pen := rec.EffectivePEN()
	primary := rec.EffectiveDOB()

	first, err := a.adapter.AttemptImport(ctx, pen, primary)
	if err != nil {
		return a.classifyError(err)
	}

	accepted := primary
	if !first.Accepted {
		alt := rec.AadhaarDOB()
		switch {
		case alt == "":
			return Result{
				Outcome: registry.AlternateDobUnavailable,
				Remark:  fmt.Sprintf("DOB %s rejected and no Aadhaar DOB to retry with", primary),
			}, nil
		case sameDate(alt, primary):
			return Result{
				Outcome: registry.DobRetrySkippedIdentical,
				Remark:  fmt.Sprintf("DOB %s rejected; Aadhaar DOB is identical, retry skipped", primary),
			}, nil
		}

		second, err := a.adapter.AttemptImport(ctx, pen, alt)
		if err != nil {
			return a.classifyError(err)
		}
		if !second.Accepted {
			return Result{
				Outcome: registry.DobMismatch,
				Remark:  fmt.Sprintf("Both DOB %s and Aadhaar DOB %s rejected", primary, alt),
			}, nil
		}
		accepted = alt
	}
	rec.SetConfirmedDOB(accepted)

	active, err := a.adapter.ActiveStatus(ctx)
	if err != nil {
		return a.classifyError(err)
	}
	if active {
		return a.classifyActive(ctx, rec)
	}

	// Importable: the class preselected by the registry must agree with the
	// declared class before anything is written.
	selected, err := a.adapter.SelectedClass(ctx)
	if err != nil {
		return a.classifyError(err)
	}
	if !strings.EqualFold(strings.TrimSpace(selected), strings.TrimSpace(rec.Class())) {
		return Result{
			Outcome: registry.ClassMismatch,
			Remark:  fmt.Sprintf("Declared class %q does not match registry class %q", rec.Class(), selected),
		}, nil
	}

	if err := a.adapter.SubmitDetails(ctx, rec.Class(), rec.Section(), rec.AdmissionDate()); err != nil {
		return a.classifyError(err)
	}
	message, err := a.adapter.SubmissionMessage(ctx)
	if err != nil {
		return a.classifyError(err)
	}
	a.log.Info("import submitted",
		zap.String("pen", pen),
		zap.String("message", message))
	return Result{Outcome: registry.Imported, Remark: message}, nil
}

func (a *Attempt) classifyActive(ctx context.Context, rec *student.Record) (Result, error) {
	location, err := a.adapter.CurrentLocation(ctx)
	if err != nil {
		return a.classifyError(err)
	}
	if strings.EqualFold(strings.TrimSpace(location), strings.TrimSpace(a.school)) {
		return Result{
			Outcome: registry.AlreadyActiveSameLocation,
			Remark:  "Already active in this school",
		}, nil
	}
	rec.SetCurrentSchool(location)
	return Result{
		Outcome: registry.AlreadyActiveElsewhere,
		Remark:  fmt.Sprintf("Active in another school: %s", location),
	}, nil
}

func (a *Attempt) classifyError(err error) (Result, error) {
	if errors.Is(err, registry.ErrSessionLost) {
		return Result{}, err
	}
	a.log.Warn("import attempt failed", zap.Error(err))
	return Result{
		Outcome: registry.UnknownError,
		Remark:  fmt.Sprintf("Unexpected error: %v", err),
	}, nil
}

// sameDate compares two textual dates ignoring case and whitespace.
func sameDate(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
