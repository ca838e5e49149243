package sync

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/jobtrail/jobtrail/internal/record"
)

// StateStore persists the record set and the last successful watermark as
// one unit.
type StateStore interface {
	Load() (record.Set, time.Time, error)
	Save(set record.Set, watermark time.Time) error
}

// Notifier is told about records that changed during a pass. Implementations
// must tolerate being called with an empty slice.
type Notifier interface {
	NotifyUpdates(ctx context.Context, updates []record.ApplicationRecord) error
}

// Watcher polls for new mail on a fixed interval. The record set and
// watermark are single-writer: if a pass is still in flight when the timer
// fires again, that tick is skipped rather than queued.
type Watcher struct {
	engine   *Engine
	store    StateStore
	notifier Notifier
	interval time.Duration
	inFlight atomic.Bool
}

// NewWatcher builds a watcher. notifier may be nil.
func NewWatcher(engine *Engine, store StateStore, notifier Notifier, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Watcher{engine: engine, store: store, notifier: notifier, interval: interval}
}

// Run polls until ctx is cancelled. It performs one pass immediately: a
// full sync when no watermark has been persisted yet, incremental after.
func (w *Watcher) Run(ctx context.Context) error {
	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Watcher: stopping")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick runs one sync pass unless the previous one is still in flight.
func (w *Watcher) tick(ctx context.Context) {
	if !w.inFlight.CompareAndSwap(false, true) {
		log.Printf("Watcher: previous pass still in flight, skipping tick")
		return
	}
	defer w.inFlight.Store(false)

	if err := w.pass(ctx); err != nil {
		// Stored state is untouched on failure; the next tick retries.
		log.Printf("Watcher: sync pass failed: %v", err)
	}
}

func (w *Watcher) pass(ctx context.Context) error {
	existing, watermark, err := w.store.Load()
	if err != nil {
		return err
	}

	var result *Result
	if watermark.IsZero() {
		result, err = w.engine.FullSync(ctx)
	} else {
		result, err = w.engine.IncrementalSync(ctx, watermark, existing)
	}
	if err != nil {
		return err
	}

	if err := w.store.Save(result.Records, result.Watermark); err != nil {
		return err
	}

	updates := changedRecords(existing, result.New)
	if len(updates) > 0 {
		log.Printf("Watcher: %d application update(s)", len(updates))
		if w.notifier != nil {
			if err := w.notifier.NotifyUpdates(ctx, updates); err != nil {
				// Notification failure is not a sync failure.
				log.Printf("Watcher: notification failed: %v", err)
			}
		}
	}
	return nil
}

// changedRecords filters a classified batch down to records that are new
// or whose status differs from what was previously stored.
func changedRecords(previous record.Set, batch []record.ApplicationRecord) []record.ApplicationRecord {
	var changed []record.ApplicationRecord
	for _, r := range batch {
		old, ok := previous[r.ID]
		if !ok || old.ApplicationStatus != r.ApplicationStatus {
			changed = append(changed, r)
		}
	}
	return changed
}
