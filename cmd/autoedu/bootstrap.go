package main

import (
	"context"
	"errors"
	"fmt"

	"autoedu/internal/browser"
	"autoedu/internal/checkpoint"
	"autoedu/internal/config"
	"autoedu/internal/logging"
	"autoedu/internal/parse"
	"autoedu/internal/registry/udise"
	"autoedu/internal/student"

	"go.uber.org/zap"
)

// portalRun bundles everything a batch command needs after login.
type portalRun struct {
	session *browser.Session
	adapter *udise.Adapter
	school  string
	store   *checkpoint.Store
}

// startPortal launches the browser, logs in, and opens the checkpoint
// store. The caller owns shutdown via close().
func startPortal(ctx context.Context, cfg *config.Config) (*portalRun, func(), error) {
	log := logging.Get(logging.CategoryBrowser)

	session := browser.New(cfg.Browser, cfg.Import.AdapterTimeoutDuration(), log)
	if err := session.Start(ctx, cfg.Portal.URL); err != nil {
		return nil, nil, fmt.Errorf("start browser: %w", err)
	}
	cleanup := func() { _ = session.Shutdown() }

	adapter := udise.New(session, cfg.Import.StepDelayDuration(), cfg.Import.Sections,
		logging.Get(logging.CategoryBoot))
	school, err := adapter.Login(ctx, cfg.Portal.Username, cfg.Portal.Password, cfg.Portal.LoginAttempts)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	var store *checkpoint.Store
	if cfg.Paths.CheckpointDB != "" {
		store, err = checkpoint.Open(cfg.Paths.CheckpointDB)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		if !cfg.Import.Resume {
			if err := store.Reset(); err != nil {
				store.Close()
				cleanup()
				return nil, nil, err
			}
		}
		shutdown := cleanup
		cleanup = func() {
			_ = store.Close()
			shutdown()
		}
	}

	return &portalRun{session: session, adapter: adapter, school: school, store: store}, cleanup, nil
}

// loadBatch parses the input file into the student aggregate.
func loadBatch(path string) (*student.Data, *parse.Batch, error) {
	if path == "" {
		return nil, nil, errors.New("no input file; pass --input")
	}
	log := logging.Get(logging.CategoryReport)
	batch, err := parse.Load(path, log)
	if err != nil {
		return nil, nil, err
	}
	data := student.NewData(batch.Keys, batch.Rows, log)
	if data.Len() == 0 {
		return nil, nil, fmt.Errorf("input %s contains no students", path)
	}
	for _, pen := range data.Keys() {
		rec, _ := data.Record(pen)
		if doa := rec.AdmissionDate(); doa != "" && !student.ValidAdmissionDate(doa) {
			log.Warn("admission date outside the intake window",
				zap.String("pen", pen), zap.String("admission_date", doa))
		}
	}
	return data, batch, nil
}
