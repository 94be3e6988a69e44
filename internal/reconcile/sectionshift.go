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

// ShiftLog persists the set of students already shifted so a re-run, or a
// later page showing the same student after the table re-sorts, never
// shifts them twice.
type ShiftLog interface {
	Shifted(pen string) (bool, error)
	MarkShifted(pen string) error
}

// SectionStats counts what one section-reconciliation run did.
type SectionStats struct {
	Processed      int
	Shifted        int
	AlreadyCorrect int
	Unknown        int
}

func (s SectionStats) add(o SectionStats) SectionStats {
	return SectionStats{
		Processed:      s.Processed + o.Processed,
		Shifted:        s.Shifted + o.Shifted,
		AlreadyCorrect: s.AlreadyCorrect + o.AlreadyCorrect,
		Unknown:        s.Unknown + o.Unknown,
	}
}

// SectionReconciler walks the registry's paginated section table and moves
// every known student to the section recorded in the batch. The table
// redraws after each successful shift, so row handles are re-fetched
// before every operation.
type SectionReconciler struct {
	adapter registry.SectionAdapter
	data    *student.Data
	log     *zap.Logger

	shiftLog ShiftLog
	shifted  map[string]bool
	handled  map[string]bool
}

// NewSectionReconciler builds the reconciler. shiftLog may be nil; the
// in-memory shifted set still protects a single run.
func NewSectionReconciler(adapter registry.SectionAdapter, data *student.Data, shiftLog ShiftLog, log *zap.Logger) *SectionReconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SectionReconciler{
		adapter:  adapter,
		data:     data,
		log:      log,
		shiftLog: shiftLog,
		shifted:  map[string]bool{},
		handled:  map[string]bool{},
	}
}

// Run reconciles each class in order and returns the combined totals.
func (s *SectionReconciler) Run(ctx context.Context, classes []string) (SectionStats, error) {
	var total SectionStats
	for _, class := range classes {
		stats, err := s.runClass(ctx, class)
		total = total.add(stats)
		if err != nil {
			return total, err
		}
		s.log.Info("class reconciled",
			zap.String("class", class),
			zap.Int("processed", stats.Processed),
			zap.Int("shifted", stats.Shifted),
			zap.Int("already_correct", stats.AlreadyCorrect))
	}
	return total, nil
}

func (s *SectionReconciler) runClass(ctx context.Context, class string) (SectionStats, error) {
	var stats SectionStats
	if err := s.adapter.SelectClass(ctx, class); err != nil {
		return stats, err
	}
	pages, err := s.adapter.PageCount(ctx)
	if err != nil {
		return stats, err
	}

	for page := 1; page <= pages; page++ {
		if err := s.drainPage(ctx, &stats); err != nil {
			return stats, err
		}
		if page < pages {
			if err := s.adapter.NextPage(ctx); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}

// maxRowReadRetries bounds consecutive re-fetches triggered only by row
// read failures. A stale handle recovers on the first fresh fetch; a row
// that keeps failing is not going to start parsing.
const maxRowReadRetries = 3

// drainPage repeats fetch-and-process until a full re-fetch finds no
// eligible row left. A successful shift invalidates every fetched handle,
// so the loop restarts from a fresh fetch after each mutation.
func (s *SectionReconciler) drainPage(ctx context.Context, stats *SectionStats) error {
	staleFetches := 0
	for {
		rows, err := s.adapter.CurrentRows(ctx)
		if err != nil {
			return err
		}

		mutated := false
		stale := false
		eligible := 0
		for _, row := range rows {
			pen, current, err := s.adapter.ReadRow(ctx, row)
			if err != nil {
				if errors.Is(err, registry.ErrSessionLost) {
					return err
				}
				// Stale handle after a redraw; the next fetch sees the
				// fresh table.
				stale = true
				break
			}
			if s.handled[pen] || s.alreadyShifted(pen) {
				continue
			}
			rec, ok := s.data.Record(pen)
			if !ok {
				s.handled[pen] = true
				stats.Unknown++
				continue
			}
			eligible++

			shifted, err := s.processRow(ctx, row, rec, current, stats)
			if err != nil {
				return err
			}
			if shifted {
				mutated = true
				break
			}
		}

		if stale {
			staleFetches++
			if staleFetches >= maxRowReadRetries {
				s.log.Warn("row read kept failing after re-fetch, abandoning page",
					zap.Int("attempts", staleFetches))
				return nil
			}
			continue
		}
		staleFetches = 0

		if !mutated && eligible == 0 {
			return nil
		}
	}
}

// processRow handles one eligible row and reports whether it mutated the
// table.
func (s *SectionReconciler) processRow(ctx context.Context, row registry.Row, rec *student.Record, current string, stats *SectionStats) (bool, error) {
	pen := rec.PEN()
	want := rec.Section()
	stats.Processed++
	s.handled[pen] = true

	if want == "" || strings.EqualFold(strings.TrimSpace(current), strings.TrimSpace(want)) {
		stats.AlreadyCorrect++
		s.annotateShift(pen, fmt.Sprintf("Section already %s", current), StatusComplete)
		return false, nil
	}

	message, err := s.adapter.ShiftRowSection(ctx, row, want)
	if err != nil {
		if errors.Is(err, registry.ErrSessionLost) {
			return false, err
		}
		s.log.Warn("section shift failed",
			zap.String("pen", pen),
			zap.String("section", want),
			zap.Error(err))
		s.annotateShift(pen, fmt.Sprintf("Section shift to %s failed: %v", want, err), StatusIncomplete)
		return false, nil
	}

	stats.Shifted++
	s.markShifted(pen)
	s.annotateShift(pen, fmt.Sprintf("Shifted from %s to %s: %s", current, want, message), StatusComplete)
	s.log.Info("section shifted",
		zap.String("pen", pen),
		zap.String("from", current),
		zap.String("to", want))
	return true, nil
}

func (s *SectionReconciler) alreadyShifted(pen string) bool {
	if s.shifted[pen] {
		return true
	}
	if s.shiftLog == nil {
		return false
	}
	done, err := s.shiftLog.Shifted(pen)
	if err != nil {
		s.log.Warn("shift log read failed", zap.String("pen", pen), zap.Error(err))
		return false
	}
	if done {
		s.shifted[pen] = true
	}
	return done
}

func (s *SectionReconciler) markShifted(pen string) {
	s.shifted[pen] = true
	if s.shiftLog != nil {
		if err := s.shiftLog.MarkShifted(pen); err != nil {
			s.log.Warn("shift log write failed", zap.String("pen", pen), zap.Error(err))
		}
	}
}

func (s *SectionReconciler) annotateShift(pen, remark, status string) {
	if s.data.Annotated(pen) {
		return
	}
	s.data.Update(pen, map[string]string{
		student.ColRemark: remark,
		student.ColStatus: status,
	})
}
