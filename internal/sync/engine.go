// Package sync fetches job-related mail in batches, fans each batch out
// through the classifier, and reconciles the results with the previously
// accumulated record set.
package sync

import (
	"context"
	"fmt"
	"log"
	"sort"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jobtrail/jobtrail/internal/classify"
	"github.com/jobtrail/jobtrail/internal/mail"
	"github.com/jobtrail/jobtrail/internal/record"
)

const (
	// FullSyncCap bounds a baseline sweep.
	FullSyncCap = 100
	// IncrementalSyncCap is higher since the window after downtime may be wide.
	IncrementalSyncCap = 1000

	defaultWorkers = 5
)

// Engine drives full and incremental sync passes. It owns no state across
// calls; the caller holds the record set and watermark and hands them in.
type Engine struct {
	provider   mail.Provider
	classifier *classify.Classifier
	workers    int
	now        func() time.Time
}

// NewEngine builds an engine. workers bounds concurrent per-message detail
// fetches; pass 0 for the default.
func NewEngine(provider mail.Provider, classifier *classify.Classifier, workers int) *Engine {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Engine{
		provider:   provider,
		classifier: classifier,
		workers:    workers,
		now:        time.Now,
	}
}

// Result is the outcome of one successful sync pass.
type Result struct {
	// Records is the reconciled record set after the pass.
	Records record.Set
	// New holds the records classified during this pass.
	New []record.ApplicationRecord
	// Watermark is the pass completion time; it becomes the lower bound of
	// the next incremental query. Only valid after a successful pass.
	Watermark time.Time
}

// FullSync sweeps the mailbox for all job-related messages up to
// FullSyncCap and returns the resulting set as the authoritative baseline.
// The result replaces, rather than merges with, any prior set.
func (e *Engine) FullSync(ctx context.Context) (*Result, error) {
	records, err := e.classifyBatch(ctx, mail.SearchQuery(time.Time{}), FullSyncCap)
	if err != nil {
		return nil, err
	}
	return &Result{
		Records:   record.Merge(record.Set{}, records),
		New:       records,
		Watermark: e.now(),
	}, nil
}

// IncrementalSync queries for messages received after the watermark,
// classifies them, and merges them into existing with new-record-wins
// semantics. The returned watermark is the pass completion time, not the
// newest message date, so mail arriving mid-pass is picked up next time.
// On any error neither a set nor a watermark is returned: the pass failed
// as a unit and the caller keeps its previous state.
func (e *Engine) IncrementalSync(ctx context.Context, since time.Time, existing record.Set) (*Result, error) {
	records, err := e.classifyBatch(ctx, mail.SearchQuery(since), IncrementalSyncCap)
	if err != nil {
		return nil, err
	}
	return &Result{
		Records:   record.Merge(existing, records),
		New:       records,
		Watermark: e.now(),
	}, nil
}

// classifyBatch lists matching message ids and runs detail-fetch-and-classify
// tasks concurrently, bounded by the worker limit. Classification itself
// never fails; only provider errors abort the batch.
func (e *Engine) classifyBatch(ctx context.Context, query string, limit int64) ([]record.ApplicationRecord, error) {
	passID := uuid.NewString()

	ids, err := e.provider.ListMessageIDs(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	log.Printf("Sync [%s]: %d messages match %q", passID, len(ids), query)

	records := make([]record.ApplicationRecord, 0, len(ids))
	var mu stdsync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			msg, err := e.provider.GetMessage(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to fetch message %s: %w", id, err)
			}
			rec := e.classifier.Classify(gctx, msg)
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Completion order is scheduler-dependent; sort so batches are stable.
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	log.Printf("Sync [%s]: classified %d messages", passID, len(records))
	return records, nil
}
