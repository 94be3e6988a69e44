package main

import (
	"errors"
	"fmt"

	"autoedu/internal/logging"
	"autoedu/internal/reconcile"
	"autoedu/internal/registry"
	"autoedu/internal/report"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sectionsCmd = &cobra.Command{
	Use:   "shift-sections",
	Short: "Correct section assignments from the paginated class table",
	Long: `Walks the portal's class/section table page by page and moves every
known student to the section recorded in the input batch. Students already
in the right section are recorded as correct; a student shifted once is
never shifted again in the same run, nor across re-runs with --resume.`,
	RunE: runSections,
}

func runSections(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logging.Get(logging.CategorySectionShift)

	data, batch, err := loadBatch(inputFile)
	if err != nil {
		return err
	}

	classes := cfg.Section.Classes
	if len(classes) == 0 {
		return errors.New("no classes configured under section_shift.classes")
	}

	run, done, err := startPortal(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()

	run.adapter.SetPageDelay(cfg.Section.PageDelayDuration())
	if err := run.adapter.OpenSectionModule(ctx); err != nil {
		return err
	}

	var shiftLog reconcile.ShiftLog
	if run.store != nil {
		shiftLog = run.store
	}
	rec := reconcile.NewSectionReconciler(run.adapter, data, shiftLog, log)

	stats, passErr := rec.Run(ctx, classes)
	if passErr != nil && !errors.Is(passErr, registry.ErrSessionLost) {
		return passErr
	}
	if passErr != nil {
		log.Error("section pass aborted, exporting partial results", zap.Error(passErr))
	}

	exporter := report.NewExporter(cfg.Paths.ReportDir, "section_report_"+run.session.RunID(),
		logging.Get(logging.CategoryReport))
	if err := exporter.Save(data, "PEN", batch.Columns); err != nil {
		return err
	}

	fmt.Printf("processed %d students: %d shifted, %d already correct, %d unknown\n",
		stats.Processed, stats.Shifted, stats.AlreadyCorrect, stats.Unknown)
	return passErr
}
