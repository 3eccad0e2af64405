package scheduler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/circlapp/circl-link-agent/internal/metrics"
	"github.com/circlapp/circl-link-agent/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakePush struct {
	calls atomic.Int32
	err   error
}

func (f *fakePush) Sweep(context.Context) (bool, error) {
	f.calls.Add(1)
	return f.err == nil, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSweeper_InvalidExpression(t *testing.T) {
	if _, err := scheduler.NewSweeper(&fakePush{}, "every now and then", discardLogger()); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestSweeper_NextFollowsCron(t *testing.T) {
	s, err := scheduler.NewSweeper(&fakePush{}, "*/15 * * * *", discardLogger())
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}

	now := time.Date(2024, 5, 1, 10, 7, 30, 0, time.UTC)
	want := time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)
	if got := s.Next(now); !got.Equal(want) {
		t.Errorf("Next = %v, want %v", got, want)
	}
	if got := s.Next(want); !got.Equal(want.Add(15 * time.Minute)) {
		t.Errorf("Next on boundary = %v, want %v", got, want.Add(15*time.Minute))
	}
}

func TestSweeper_StartRunsAndStops(t *testing.T) {
	push := &fakePush{err: errors.New("backend down")}
	s, err := scheduler.NewSweeper(push, "@every 1s", discardLogger())
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}
	failedBefore := testutil.ToFloat64(metrics.PushSweepsTotal.WithLabelValues("failed"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(3 * time.Second)
	for push.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
	if push.calls.Load() == 0 {
		t.Fatal("sweep never ran")
	}
	if got := testutil.ToFloat64(metrics.PushSweepsTotal.WithLabelValues("failed")) - failedBefore; got < 1 {
		t.Errorf("failed sweeps counted = %v, want >= 1", got)
	}
}
