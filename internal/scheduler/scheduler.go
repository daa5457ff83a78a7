// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler owns the repeating background jobs: the periodic price
// catalog refresh, the admin session re-validation poll, scheduled article
// publishing, and the expired verification-code sweep.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job schedules. Seconds-resolution cron: the session poll runs every 2
// seconds, everything else is coarse.
const (
	specCatalogRefresh    = "0 * * * * *"    // every minute
	specSessionRevalidate = "*/2 * * * * *"  // every 2 seconds
	specPublishScheduled  = "0 * * * * *"    // every minute
	specCodeSweep         = "0 0 * * * *"    // hourly
)

const jobTimeout = 30 * time.Second

// Jobs are the callbacks the scheduler drives. Nil members are skipped.
type Jobs struct {
	RefreshCatalog    func(ctx context.Context) error
	RevalidateSession func(ctx context.Context) error
	PublishScheduled  func(ctx context.Context) error
	SweepExpiredCodes func(ctx context.Context) error
}

// Scheduler drives the repeating jobs on a seconds-resolution cron.
type Scheduler struct {
	cron   *cron.Cron
	jobs   Jobs
	logger *slog.Logger
}

// New creates a scheduler. Nothing runs until Start.
func New(jobs Jobs, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		jobs:   jobs,
		logger: logger,
	}
}

// Start registers and begins all configured jobs.
func (s *Scheduler) Start() error {
	register := func(spec, name string, fn func(ctx context.Context) error) error {
		if fn == nil {
			return nil
		}
		_, err := s.cron.AddFunc(spec, func() { s.run(name, fn) })
		return err
	}

	if err := register(specCatalogRefresh, "catalog refresh", s.jobs.RefreshCatalog); err != nil {
		return err
	}
	if err := register(specSessionRevalidate, "session revalidation", s.jobs.RevalidateSession); err != nil {
		return err
	}
	if err := register(specPublishScheduled, "scheduled publishing", s.jobs.PublishScheduled); err != nil {
		return err
	}
	if err := register(specCodeSweep, "code sweep", s.jobs.SweepExpiredCodes); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// run executes one job with a bounded context.
func (s *Scheduler) run(name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		s.logger.Error("scheduled job failed", "job", name, "error", err)
	}
}

// Stop halts scheduling and waits for running jobs to finish, so no job
// outlives the process teardown.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
