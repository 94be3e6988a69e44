package reconcile

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"autoedu/internal/registry"
	"autoedu/internal/student"

	"go.uber.org/zap"
)

// Yes/No terminal flags as they appear in the report.
const (
	StatusComplete   = "Yes"
	StatusIncomplete = "No"
)

var penPattern = regexp.MustCompile(`^\d{11,14}$`)

// ValidPEN reports whether a natural key is structurally plausible: digits
// only, 11 to 14 of them, and not a placeholder token. Anything else is
// rejected before a single adapter call.
func ValidPEN(pen string) bool {
	pen = strings.TrimSpace(pen)
	if student.IsPlaceholder(pen) {
		return false
	}
	return penPattern.MatchString(pen)
}

// Checkpoint persists terminal annotations across runs so an interrupted
// batch can resume without re-driving students the registry already
// answered for.
type Checkpoint interface {
	Done(pen string) (remark, status string, ok bool, err error)
	MarkDone(pen, remark, status string) error
}

// Controller owns one reconciliation run: a full pass over the batch, a
// single bounded re-pass for students whose identity could be recovered by
// the fallback search, and the hand-off to the release-request batch.
type Controller struct {
	data     *student.Data
	attempt  *Attempt
	resolver *Resolver
	store    Checkpoint
	log      *zap.Logger

	releaseQueue []string
	retryQueue   []string
}

// NewController wires the run. store may be nil when resume support is
// disabled.
func NewController(data *student.Data, attempt *Attempt, resolver *Resolver, store Checkpoint, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		data:     data,
		attempt:  attempt,
		resolver: resolver,
		store:    store,
		log:      log,
	}
}

// ReleaseQueue returns the students found active at another school, in the
// order they were discovered.
func (c *Controller) ReleaseQueue() []string { return c.releaseQueue }

// Run drives the batch: one full pass, then exactly one re-pass restricted
// to students whose identity the resolver recovered. A lost session stops
// the run; annotations written so far remain valid for export.
func (c *Controller) Run(ctx context.Context) error {
	for _, pen := range c.data.Keys() {
		if err := c.Step(ctx, pen, false); err != nil {
			return err
		}
	}

	retries := c.retryQueue
	c.retryQueue = nil
	for _, pen := range retries {
		if err := c.Step(ctx, pen, true); err != nil {
			return err
		}
	}
	return nil
}

// Step processes one student. It is idempotent within a pass: a student
// already annotated is never touched again. repass marks the bounded
// second pass, in which identity failures become terminal instead of
// queueing another resolution.
func (c *Controller) Step(ctx context.Context, pen string, repass bool) error {
	if c.data.Annotated(pen) {
		return nil
	}
	rec, ok := c.data.Record(pen)
	if !ok {
		c.log.Warn("unknown student key", zap.String("pen", pen))
		return nil
	}

	if remark, status, ok := c.restoreCheckpoint(pen); ok {
		c.annotateRaw(pen, remark, status)
		return nil
	}

	// Structural rejection and a missing DOB both mean the registry cannot
	// be asked yet; the fallback search is the only way forward.
	if !ValidPEN(rec.EffectivePEN()) {
		return c.resolveOrFail(ctx, rec, repass,
			fmt.Sprintf("PEN %q is not a valid registry id", rec.PEN()))
	}
	if rec.EffectiveDOB() == "" {
		return c.resolveOrFail(ctx, rec, repass, "No usable date of birth on record")
	}

	result, err := c.attempt.Run(ctx, rec)
	if err != nil {
		return err
	}

	switch result.Outcome {
	case registry.AlreadyActiveElsewhere:
		// Annotated later by the release batch, or by the caller when the
		// release step is skipped.
		c.releaseQueue = append(c.releaseQueue, pen)
		return nil
	case registry.DobMismatch:
		// Every DOB on record was rejected, so the identity itself is
		// suspect; give the fallback search one chance.
		return c.resolveOrFail(ctx, rec, repass, result.Remark)
	default:
		c.annotate(pen, result.Remark, result.Outcome)
		return nil
	}
}

// resolveOrFail runs the identity resolver and either queues the student
// for the re-pass or records the failure as terminal. failRemark describes
// why the normal import path was unusable.
func (c *Controller) resolveOrFail(ctx context.Context, rec *student.Record, repass bool, failRemark string) error {
	pen := rec.PEN()
	if repass {
		c.annotate(pen, failRemark, registry.IdentityInvalid)
		return nil
	}

	err := c.resolver.Resolve(ctx, rec)
	switch {
	case err == nil:
		c.log.Info("queued for re-pass", zap.String("pen", pen))
		c.retryQueue = append(c.retryQueue, pen)
		return nil
	case errors.Is(err, ErrMissingAlternateID):
		c.annotate(pen, failRemark+"; no valid Aadhaar number to search with", registry.IdentityInvalid)
		return nil
	case errors.Is(err, ErrNoCandidateMatch):
		c.annotate(pen, failRemark+"; Aadhaar search found no match", registry.IdentityInvalid)
		return nil
	case errors.Is(err, registry.ErrSessionLost):
		return err
	default:
		c.annotate(pen, fmt.Sprintf("%s; search failed: %v", failRemark, err), registry.UnknownError)
		return nil
	}
}

// Annotate records a terminal remark and flag for a student discovered
// outside the normal step flow, such as a release-batch result.
func (c *Controller) Annotate(pen, remark string, outcome registry.Outcome) {
	c.annotate(pen, remark, outcome)
}

func (c *Controller) annotate(pen, remark string, outcome registry.Outcome) {
	status := StatusIncomplete
	if outcome.Success() {
		status = StatusComplete
	}
	c.annotateRaw(pen, remark, status)
}

func (c *Controller) annotateRaw(pen, remark, status string) {
	if c.data.Annotated(pen) {
		return
	}
	c.data.Update(pen, map[string]string{
		student.ColRemark: remark,
		student.ColStatus: status,
	})
	if c.store != nil {
		if err := c.store.MarkDone(pen, remark, status); err != nil {
			c.log.Warn("checkpoint write failed", zap.String("pen", pen), zap.Error(err))
		}
	}
}

func (c *Controller) restoreCheckpoint(pen string) (remark, status string, ok bool) {
	if c.store == nil {
		return "", "", false
	}
	remark, status, ok, err := c.store.Done(pen)
	if err != nil {
		c.log.Warn("checkpoint read failed", zap.String("pen", pen), zap.Error(err))
		return "", "", false
	}
	if ok {
		c.log.Info("restored from checkpoint", zap.String("pen", pen), zap.String("status", status))
	}
	return remark, status, ok
}
