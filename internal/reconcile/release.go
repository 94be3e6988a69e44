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

// ReleaseBatch submits release requests for students found active at
// another school. A release request never counts as an import success, so
// every annotation it writes carries the incomplete flag.
type ReleaseBatch struct {
	adapter registry.ReleaseAdapter
	log     *zap.Logger
}

// NewReleaseBatch builds the batch over a release adapter.
func NewReleaseBatch(adapter registry.ReleaseAdapter, log *zap.Logger) *ReleaseBatch {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReleaseBatch{adapter: adapter, log: log}
}

// Run processes the queued students in order, annotating each through the
// controller. A lost session stops the batch; remaining students keep
// whatever annotation they already have.
func (b *ReleaseBatch) Run(ctx context.Context, ctrl *Controller, data *student.Data, pens []string) error {
	for _, pen := range pens {
		rec, ok := data.Record(pen)
		if !ok {
			b.log.Warn("unknown student in release queue", zap.String("pen", pen))
			continue
		}

		name, err := b.adapter.GenerateRequest(ctx, rec.EffectivePEN(), rec.EffectiveDOB())
		if err != nil {
			if errors.Is(err, registry.ErrSessionLost) {
				return err
			}
			ctrl.Annotate(pen, fmt.Sprintf("Release request failed: %v", err), registry.UnknownError)
			continue
		}

		// The registry answers "NA" when it cannot locate the student even
		// though the import attempt saw it active. Skip, never submit.
		if strings.EqualFold(strings.TrimSpace(name), "NA") {
			b.log.Warn("registry returned no student for release",
				zap.String("pen", pen))
			ctrl.Annotate(pen,
				fmt.Sprintf("Active in another school: %s; release skipped, registry returned no student", rec.CurrentSchool()),
				registry.AlreadyActiveElsewhere)
			continue
		}

		message, err := b.adapter.SubmitRequest(ctx, rec.Section(), rec.AdmissionDate())
		if err != nil {
			if errors.Is(err, registry.ErrSessionLost) {
				return err
			}
			ctrl.Annotate(pen, fmt.Sprintf("Release submission failed: %v", err), registry.UnknownError)
			continue
		}
		b.log.Info("release request submitted",
			zap.String("pen", pen),
			zap.String("student", name),
			zap.String("message", message))
		ctrl.Annotate(pen, message, registry.AlreadyActiveElsewhere)
	}
	return nil
}
