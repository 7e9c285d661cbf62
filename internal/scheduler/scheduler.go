// Package scheduler runs the full ingestion pipeline on a cron spec.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/addispulse/addispulse/internal/logger"
)

type Scheduler struct {
	cron *cron.Cron
}

func New() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// Schedule registers job on the given cron spec. Runs are not guarded
// against overlap; a run that outlasts its interval overlaps the next one.
func (s *Scheduler) Schedule(spec string, job func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		logger.Info("starting scheduled ingestion run")
		if err := job(context.Background()); err != nil {
			logger.Error("scheduled ingestion run failed", "error", err)
		}
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling; a run already in flight finishes on its own.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
