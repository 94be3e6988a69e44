// Package reconcile is the decision core: it resolves ambiguous student
// identities, drives bounded import attempts, classifies every result into
// the registry.Outcome taxonomy and guarantees each student ends the run
// with exactly one terminal annotation.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"autoedu/internal/registry"
	"autoedu/internal/student"

	"go.uber.org/zap"
)

// Resolution failures are surfaced distinctly so the report never conflates
// "nothing to search with" and "searched and found nothing".
var (
	ErrMissingAlternateID = errors.New("no valid alternate national id")
	ErrNoCandidateMatch   = errors.New("no match after exhausting candidate years")
)

// Resolver recovers a student's registry identity through the alternate
// national-ID search when the PEN is invalid or unconfirmed.
type Resolver struct {
	search     registry.SearchAdapter
	classAge   map[string]int
	trialRange int
	now        func() time.Time
	log        *zap.Logger
}

// NewResolver builds a resolver. classAge maps class level to the expected
// age at that level; trialRange widens the inferred birth-year window by
// that many years in each direction.
func NewResolver(search registry.SearchAdapter, classAge map[string]int, trialRange int, log *zap.Logger) *Resolver {
	if trialRange <= 0 {
		trialRange = 3
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		search:     search,
		classAge:   classAge,
		trialRange: trialRange,
		now:        time.Now,
		log:        log,
	}
}

// CandidateYears returns the birth years to try, most authoritative first:
// the declared DOB year, then the Aadhaar-linked DOB year. Only when no
// direct year is known does it fall back to a window around the
// class-inferred year, ascending from oldest to youngest.
func (r *Resolver) CandidateYears(rec *student.Record) []string {
	seen := map[int]bool{}
	var years []int
	add := func(y int) {
		if y > 0 && !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}

	add(student.YearFromDate(rec.EffectiveDOB()))
	add(student.YearFromDate(rec.AadhaarDOB()))

	if len(years) == 0 {
		if age, ok := r.classAge[rec.Class()]; ok {
			base := r.now().Year() - age
			for y := base - r.trialRange; y <= base+r.trialRange; y++ {
				add(y)
			}
		}
	}

	out := make([]string, len(years))
	for i, y := range years {
		out[i] = strconv.Itoa(y)
	}
	return out
}

// Resolve searches the registry for the student's true PEN and DOB. The
// first matching year wins and its result is written onto the record as the
// authoritative identity. Returns ErrMissingAlternateID when the student
// has no valid Aadhaar number, ErrNoCandidateMatch when every candidate
// year came back empty.
func (r *Resolver) Resolve(ctx context.Context, rec *student.Record) error {
	aadhaar := rec.AadhaarNumber()
	if aadhaar == "" {
		return ErrMissingAlternateID
	}

	years := r.CandidateYears(rec)
	if len(years) == 0 {
		return fmt.Errorf("%w: class %q has no expected-age entry", ErrNoCandidateMatch, rec.Class())
	}

	for _, year := range years {
		result, err := r.search.SearchIdentity(ctx, aadhaar, year)
		if err != nil {
			return err
		}
		if !result.Found {
			r.log.Debug("no identity match",
				zap.String("pen", rec.PEN()),
				zap.String("year", year))
			continue
		}
		dob := result.DOB
		if normalized, err := student.NormalizeDate(dob); err == nil {
			dob = normalized
		}
		rec.SetResolvedIdentity(result.PEN, dob)
		r.log.Info("identity resolved",
			zap.String("pen", rec.PEN()),
			zap.String("resolved_pen", result.PEN),
			zap.String("year", year))
		return nil
	}
	return ErrNoCandidateMatch
}
