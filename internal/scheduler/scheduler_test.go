package scheduler

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vkquanghd/gold-ai-advisor/internal/model"
)

type fakeDaily struct {
	opts    model.RunOptions
	calls   int
	success bool
	err     error
}

func (f *fakeDaily) RunDaily(_ context.Context, opts model.RunOptions) (model.RunSummary, error) {
	f.calls++
	f.opts = opts
	return model.RunSummary{RunID: "run-1", Success: f.success}, f.err
}

func TestDailyJob(t *testing.T) {
	t.Run("runs with scheduler trigger", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		f := &fakeDaily{success: true}

		DailyJob(f, 90, zap.New(core))(context.Background())

		if f.calls != 1 {
			t.Fatalf("Expected one run, got %d", f.calls)
		}
		if f.opts.Trigger != model.TriggerScheduler || f.opts.RetentionDays != 90 {
			t.Errorf("Unexpected options %+v", f.opts)
		}
		if logs.FilterMessage("cron daily update ok").Len() != 1 {
			t.Errorf("Expected success log, got %v", logs.All())
		}
	})

	t.Run("logs failed summary", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		DailyJob(&fakeDaily{}, 0, zap.New(core))(context.Background())

		if logs.FilterMessage("cron daily update failed").Len() != 1 {
			t.Errorf("Expected failure log, got %v", logs.All())
		}
	})

	t.Run("logs rejected run", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		DailyJob(&fakeDaily{err: errors.New("bad window")}, -1, zap.New(core))(context.Background())

		if logs.FilterMessage("cron daily update rejected").Len() != 1 {
			t.Errorf("Expected rejection log, got %v", logs.All())
		}
	})
}

func TestRunner(t *testing.T) {
	t.Run("rejects invalid spec", func(t *testing.T) {
		r := New(context.Background(), nil)
		if _, err := r.Add("every day", func(context.Context) {}); err == nil {
			t.Error("Expected error for invalid spec")
		}
	})

	t.Run("jobs receive the base context", func(t *testing.T) {
		type key struct{}
		base := context.WithValue(context.Background(), key{}, "base")
		r := New(base, nil)

		var got any
		id, err := r.Add("0 30 18 * * *", func(ctx context.Context) { got = ctx.Value(key{}) })
		if err != nil {
			t.Fatalf("Add() returned error: %v", err)
		}

		r.cron.Entry(id).WrappedJob.Run()
		if got != "base" {
			t.Errorf("Expected base context, got %v", got)
		}
	})

	t.Run("recovers from panicking job", func(t *testing.T) {
		r := New(context.Background(), nil)
		id, err := r.Add("@daily", func(context.Context) { panic("boom") })
		if err != nil {
			t.Fatalf("Add() returned error: %v", err)
		}
		r.cron.Entry(id).WrappedJob.Run()
	})
}
