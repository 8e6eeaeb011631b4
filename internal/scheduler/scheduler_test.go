package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fieldservice_backend/platform/clock"
	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/logger"
)

var ict = time.FixedZone("ICT", 7*3600)

func startScheduler(t *testing.T, s *Scheduler) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Error("scheduler did not stop after cancellation")
		}
	})
	return cancel
}

func receive(t *testing.T, ch <-chan time.Time) time.Time {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("trigger did not fire")
		return time.Time{}
	}
}

func waitFor(t *testing.T, clk *clock.Fake, waiters int) {
	t.Helper()
	if !clk.BlockUntil(waiters, time.Second) {
		t.Fatalf("expected %d pending triggers, got %d", waiters, clk.Waiters())
	}
}

func TestParseTrigger(t *testing.T) {
	if _, err := ParseTrigger("daily", "0 2 * * *", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := ParseTrigger("daily", "every morning", nil)
	if err == nil || !strings.Contains(err.Error(), "daily") {
		t.Fatalf("expected error naming the trigger, got %v", err)
	}
}

func TestPrecomputeTriggersRejectBadCron(t *testing.T) {
	_, err := PrecomputeTriggers(&config.Config{DailyCron: "0 2 * * *", WeeklyCron: "61 2 * * 1"}, nil)
	if err == nil || !strings.Contains(err.Error(), "weekly") {
		t.Fatalf("expected error naming the weekly trigger, got %v", err)
	}
}

func TestSchedulerSurvivesFailuresAndPanics(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 10, 19, 1, 0, 0, 0, ict))
	fired := make(chan time.Time, 3)
	runs := 0

	tr, err := ParseTrigger("daily", "0 2 * * *", func(_ context.Context, firedAt time.Time) error {
		runs++
		fired <- firedAt
		switch runs {
		case 1:
			return errors.New("store unavailable")
		case 2:
			panic("nil payload")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	startScheduler(t, New(clk, ict, logger.Nop(), tr))

	waitFor(t, clk, 1)
	clk.Advance(time.Hour)
	if got := receive(t, fired); !got.Equal(time.Date(2026, 10, 19, 2, 0, 0, 0, ict)) {
		t.Fatalf("unexpected fire time %s", got)
	}

	for day := 20; day <= 21; day++ {
		waitFor(t, clk, 1)
		clk.Advance(24 * time.Hour)
		if got := receive(t, fired); !got.Equal(time.Date(2026, 10, day, 2, 0, 0, 0, ict)) {
			t.Fatalf("day %d: unexpected fire time %s", day, got)
		}
	}
}

func TestSchedulerDoesNotFireEarly(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 10, 19, 1, 0, 0, 0, ict))
	fired := make(chan time.Time, 1)

	tr, err := ParseTrigger("daily", "0 2 * * *", func(_ context.Context, firedAt time.Time) error {
		fired <- firedAt
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	startScheduler(t, New(clk, ict, logger.Nop(), tr))

	waitFor(t, clk, 1)
	clk.Advance(59 * time.Minute)

	select {
	case <-fired:
		t.Fatal("fired before 02:00")
	case <-time.After(50 * time.Millisecond):
	}
	if got := clk.Waiters(); got != 1 {
		t.Fatalf("expected the trigger to keep waiting, got %d waiters", got)
	}
}

func TestSchedulerTriggersAreIndependent(t *testing.T) {
	// Monday 2026-10-19 01:00
	clk := clock.NewFake(time.Date(2026, 10, 19, 1, 0, 0, 0, ict))
	daily := make(chan time.Time, 1)
	weekly := make(chan time.Time, 1)

	d, err := ParseTrigger("daily", "0 2 * * *", func(_ context.Context, firedAt time.Time) error {
		daily <- firedAt
		panic("daily broke")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w, err := ParseTrigger("weekly", "30 2 * * 1", func(_ context.Context, firedAt time.Time) error {
		weekly <- firedAt
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	startScheduler(t, New(clk, ict, logger.Nop(), d, w))

	waitFor(t, clk, 2)
	clk.Advance(time.Hour)
	receive(t, daily)

	waitFor(t, clk, 2)
	clk.Advance(30 * time.Minute)
	if got := receive(t, weekly); !got.Equal(time.Date(2026, 10, 19, 2, 30, 0, 0, ict)) {
		t.Fatalf("unexpected weekly fire time %s", got)
	}
}
