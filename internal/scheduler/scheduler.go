package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fieldservice_backend/internal/metrics"
	"fieldservice_backend/platform/clock"
	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/logger"

	"github.com/robfig/cron/v3"
)

// Trigger is a named job fired on a cron schedule.
type Trigger struct {
	Name     string
	Schedule cron.Schedule
	Run      func(ctx context.Context, firedAt time.Time) error
}

// ParseTrigger builds a Trigger from a standard five-field cron expression.
func ParseTrigger(name, spec string, run func(ctx context.Context, firedAt time.Time) error) (Trigger, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return Trigger{}, fmt.Errorf("parse %s schedule %q: %w", name, spec, err)
	}
	return Trigger{Name: name, Schedule: schedule, Run: run}, nil
}

// PrecomputeTriggers returns the daily and weekly snapshot triggers.
func PrecomputeTriggers(cfg config.SchedulerConfig, p *Precomputer) ([]Trigger, error) {
	daily, err := ParseTrigger(string(metrics.Daily), cfg.GetDailyCron(), func(ctx context.Context, firedAt time.Time) error {
		return p.RunFired(ctx, metrics.Daily, firedAt)
	})
	if err != nil {
		return nil, err
	}
	weekly, err := ParseTrigger(string(metrics.Weekly), cfg.GetWeeklyCron(), func(ctx context.Context, firedAt time.Time) error {
		return p.RunFired(ctx, metrics.Weekly, firedAt)
	})
	if err != nil {
		return nil, err
	}
	return []Trigger{daily, weekly}, nil
}

// Scheduler fires triggers until its context is cancelled. Schedules are
// evaluated in the configured location. A failing or panicking run is logged
// and the trigger waits for its next time.
type Scheduler struct {
	triggers []Trigger
	clock    clock.Clock
	location *time.Location
	log      *logger.Logger
}

func New(clk clock.Clock, loc *time.Location, log *logger.Logger, triggers ...Trigger) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		triggers: triggers,
		clock:    clk,
		location: loc,
		log:      log.WithComponent("scheduler"),
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, tr := range s.triggers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.loop(ctx, tr)
		}()
	}
	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, tr Trigger) {
	for {
		now := s.clock.Now().In(s.location)
		next := tr.Schedule.Next(now)
		if next.IsZero() {
			s.log.Warn("trigger has no future run", "trigger", tr.Name)
			return
		}
		s.log.Debug("trigger scheduled", "trigger", tr.Name, "next_run", next)

		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(next.Sub(now)):
		}

		s.fire(ctx, tr, next)
	}
}

func (s *Scheduler) fire(ctx context.Context, tr Trigger, firedAt time.Time) {
	start := s.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("trigger panicked", "trigger", tr.Name, "fired_at", firedAt, "panic", r)
		}
	}()

	s.log.Info("trigger started", "trigger", tr.Name, "fired_at", firedAt)
	if err := tr.Run(ctx, firedAt); err != nil {
		s.log.Error("trigger failed", "trigger", tr.Name, "fired_at", firedAt, "error", err)
		return
	}
	s.log.Info("trigger finished", "trigger", tr.Name, "fired_at", firedAt, "duration_ms", s.clock.Now().Sub(start).Milliseconds())
}
