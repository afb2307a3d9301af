package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/khamis1992/rental-solutions-out-sub001/internal/config"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs the recurring billing jobs: monthly materialization of
// placeholder records for missed payments and daily overdue reminders.
type Scheduler struct {
	cron *cron.Cron
	svc  *service.Service
	log  *logrus.Logger
	cfg  *config.Config
}

// NewScheduler initializes the cron jobs without starting them
func NewScheduler(svc *service.Service, log *logrus.Logger, cfg *config.Config) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		svc:  svc,
		log:  log,
		cfg:  cfg,
	}

	if _, err := s.cron.AddFunc(cfg.MaterializeSpec, s.materialize); err != nil {
		return nil, fmt.Errorf("invalid materialize cron spec %q: %w", cfg.MaterializeSpec, err)
	}
	if _, err := s.cron.AddFunc(cfg.ReminderSpec, s.remind); err != nil {
		return nil, fmt.Errorf("invalid reminder cron spec %q: %w", cfg.ReminderSpec, err)
	}
	return s, nil
}

// Start launches the cron loop in its own goroutine
func (s *Scheduler) Start() {
	s.log.Infof("Scheduler started (materialize %q, remind %q)", s.cfg.MaterializeSpec, s.cfg.ReminderSpec)
	s.cron.Start()
}

// Stop stops the cron loop and waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) materialize() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	count, err := s.svc.MaterializeMissedPayments(ctx, time.Now())
	if err != nil {
		s.log.Errorf("Materialize job failed: %v", err)
		return
	}
	s.log.Infof("Materialize job finished: %d record(s) created", count)
}

func (s *Scheduler) remind() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sent, err := s.svc.SendOverdueReminders(ctx, time.Now())
	if err != nil {
		s.log.Errorf("Reminder job failed: %v", err)
		return
	}
	if sent > 0 {
		s.log.Infof("Reminder job finished: %d email(s) sent", sent)
	}
}
