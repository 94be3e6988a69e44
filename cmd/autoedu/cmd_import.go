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

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the student batch into the logged-in school",
	Long: `Runs the full reconciliation pass: each student is imported with the
declared DOB, retried once with the Aadhaar DOB, recovered through the
Aadhaar identity search when the PEN is unusable, and routed to a release
request when found active at another school. The annotated batch is
exported to Excel and JSON whether or not the pass completes.`,
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logging.Get(logging.CategoryImport)

	data, batch, err := loadBatch(inputFile)
	if err != nil {
		return err
	}

	run, done, err := startPortal(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()

	if err := run.adapter.OpenImportModule(ctx); err != nil {
		return err
	}

	var store reconcile.Checkpoint
	if run.store != nil {
		store = run.store
	}
	attempt := reconcile.NewAttempt(run.adapter, run.school, log)
	resolver := reconcile.NewResolver(run.adapter, cfg.Import.ClassAgeMap, cfg.Import.YOBTrialRange,
		logging.Get(logging.CategorySearch))
	ctrl := reconcile.NewController(data, attempt, resolver, store, log)

	passErr := ctrl.Run(ctx)
	if passErr == nil {
		if queue := ctrl.ReleaseQueue(); len(queue) > 0 {
			releaseLog := logging.Get(logging.CategoryRelease)
			if err := run.adapter.OpenReleaseModule(ctx); err != nil {
				passErr = err
			} else {
				batch := reconcile.NewReleaseBatch(run.adapter, releaseLog)
				passErr = batch.Run(ctx, ctrl, data, queue)
			}
		}
	}
	if passErr != nil && !errors.Is(passErr, registry.ErrSessionLost) {
		return passErr
	}
	if passErr != nil {
		// The session died mid-pass. Whatever was annotated still goes out.
		log.Error("pass aborted, exporting partial results", zap.Error(passErr))
	}

	exporter := report.NewExporter(cfg.Paths.ReportDir, "import_report_"+run.session.RunID(),
		logging.Get(logging.CategoryReport))
	if err := exporter.Save(data, "PEN", batch.Columns); err != nil {
		return err
	}

	annotated := 0
	for _, pen := range data.Keys() {
		if data.Annotated(pen) {
			annotated++
		}
	}
	fmt.Printf("processed %d/%d students\n", annotated, data.Len())
	return passErr
}
