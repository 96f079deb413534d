package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// BillRunner kicks off one billing run. Satisfied by the billing service.
type BillRunner interface {
	CreateBills(ctx context.Context) error
}

// Scheduler drives unattended billing runs on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	runner BillRunner
	logger *zap.Logger
}

// New creates a scheduler for the given cron spec. An empty spec disables
// scheduling; Start becomes a no-op.
func New(spec string, runner BillRunner, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		spec:   spec,
		runner: runner,
		logger: logger,
	}
}

// Start registers the billing job and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.spec == "" {
		s.logger.Info("Billing schedule disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.runBilling); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Billing schedule started", zap.String("spec", s.spec))
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Billing schedule stopped")
}

func (s *Scheduler) runBilling() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	s.logger.Info("Scheduled billing run starting")
	if err := s.runner.CreateBills(ctx); err != nil {
		s.logger.Error("Scheduled billing run failed", zap.Error(err))
		return
	}
	s.logger.Info("Scheduled billing run finished")
}
