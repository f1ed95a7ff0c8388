package calendar

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kirinyoku/frontdesk/internal/events"
)

const DefaultCheckInterval = time.Minute

// Watcher re-evaluates the booking window on a fixed interval and publishes
// a change whenever it flips. Stored data never changes when the wall clock
// crosses a boundary, so subscribers would otherwise not hear about it.
type Watcher struct {
	cal      *Calendar
	pub      events.Publisher
	interval time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	last *bool
}

func NewWatcher(cal *Calendar, pub events.Publisher, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		cal:      cal,
		pub:      pub,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	w.Check(ctx)

	t := time.NewTicker(w.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.Check(ctx)
		}
	}
}

// Check evaluates the window once. changed is false on the first call.
func (w *Watcher) Check(ctx context.Context) (open bool, changed bool) {
	open = w.cal.IsBookingWindowOpen()

	w.mu.Lock()
	changed = w.last != nil && *w.last != open
	w.last = &open
	w.mu.Unlock()

	if !changed || w.pub == nil {
		return open, changed
	}

	w.logger.Info("booking window changed", "open", open)

	err := w.pub.Publish(ctx, events.Change{
		Kind:   events.KindBookingWindow,
		Open:   open,
		TsUnix: w.cal.Now().Unix(),
	})
	if err != nil {
		w.logger.Error("publish booking window change", "err", err)
	}

	return open, changed
}
