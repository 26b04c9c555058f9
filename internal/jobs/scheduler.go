package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the decay sweep on a cron cadence.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler wires the sweep onto the given cron expression.
func NewScheduler(sweep *DecaySweep, schedule string, logger *zap.Logger) (*Scheduler, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		sweep.Run(context.Background())
	}); err != nil {
		return nil, err
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

// Start begins scheduling.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}
