package crawler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/socialcrawl/internal/dedup"
	"github.com/jonesrussell/socialcrawl/internal/domain"
	"github.com/jonesrussell/socialcrawl/internal/logger"
)

// RecordStore is the persistence surface the orchestrator flushes batches to.
type RecordStore interface {
	InsertBatch(ctx context.Context, records []*domain.Record) (succeeded, failed int)
}

// RunLog is the append-only log finalized runs are written to.
type RunLog interface {
	Append(ctx context.Context, run *domain.CrawlRun) error
}

// ArchiveSession is the per-run file archive surface.
type ArchiveSession interface {
	WriteRawPage(page int, items []map[string]any) error
	WriteStructured(records []*domain.Record) error
}

// Policy holds the orchestration knobs. Zero values are replaced with the
// documented defaults.
type Policy struct {
	MaxRetries    int
	BatchSize     int
	RetryDelayMin time.Duration
	RetryDelayMax time.Duration
	PageDelayMin  time.Duration
	PageDelayMax  time.Duration
}

// Default policy values.
const (
	DefaultMaxRetries = 3
	DefaultBatchSize  = 100
)

func (p *Policy) applyDefaults() {
	if p.MaxRetries < 1 {
		p.MaxRetries = DefaultMaxRetries
	}
	if p.BatchSize < 1 {
		p.BatchSize = DefaultBatchSize
	}
}

// Orchestrator drives one crawl run: strictly ordered pages, fetch with
// retry and identity rotation, dedup filtering, batched persistence, and
// session archiving. A single orchestrator owns its dedup index and pending
// batch; everything runs on one logical thread so request ordering stays
// deterministic.
type Orchestrator struct {
	policy   Policy
	index    *dedup.Index
	store    RecordStore
	runLog   RunLog
	identity *IdentityRotator
	logger   logger.Interface
}

// NewOrchestrator creates an orchestrator. The dedup index must already be
// seeded from the persistent store; the caller fails closed if that seed
// read failed.
func NewOrchestrator(
	policy Policy,
	index *dedup.Index,
	store RecordStore,
	runLog RunLog,
	identity *IdentityRotator,
	log logger.Interface,
) *Orchestrator {
	policy.applyDefaults()
	return &Orchestrator{
		policy:   policy,
		index:    index,
		store:    store,
		runLog:   runLog,
		identity: identity,
		logger:   log,
	}
}

// Run crawls pages 1..maxPages for the keyword through the adapter and
// returns the finalized run. The run log always receives a finalized entry,
// on every exit path. Page-level failures never abort the run; only input
// contract violations return an error before any side effect.
func (o *Orchestrator) Run(
	ctx context.Context,
	keyword string,
	maxPages int,
	adapter Adapter,
	session ArchiveSession,
) (*domain.CrawlRun, error) {
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	if maxPages < 1 {
		return nil, ErrInvalidMaxPages
	}
	if adapter == nil {
		return nil, ErrNilAdapter
	}

	run := &domain.CrawlRun{
		ID:             uuid.NewString(),
		Platform:       adapter.Platform(),
		Keyword:        keyword,
		StartTime:      time.Now(),
		PagesRequested: maxPages,
		Status:         domain.RunStatusRunning,
	}

	log := o.logger.WithPlatform(run.Platform.String()).WithRunID(run.ID)
	log.Info("Crawl run starting", "keyword", keyword, "max_pages", maxPages, "seeded_ids", o.index.Len())

	var (
		pending   []*domain.Record
		collected []*domain.Record
	)

	func() {
		defer func() {
			if r := recover(); r != nil {
				run.Status = domain.RunStatusError
				run.ErrorMessage = fmt.Sprintf("panic: %v", r)
				log.Error("Crawl run panicked", "panic", r)
			}
		}()

		for page := 1; page <= maxPages; page++ {
			// Cancellation is cooperative and only takes effect at the
			// page boundary; in-flight fetches and flushes always finish.
			if ctx.Err() != nil {
				log.Info("Cancellation requested, stopping before next page", "next_page", page)
				break
			}

			items := o.fetchWithRetry(ctx, adapter, keyword, page, log)
			if len(items) == 0 {
				log.Warn("No data for page, moving on", "page", page)
				continue
			}
			run.PagesFetched++

			// Raw pages are archived pre-dedup so they can be replayed
			// even if later pipeline steps fail.
			if err := session.WriteRawPage(page, toMaps(items)); err != nil {
				log.Warn("Failed to archive raw page", "page", page, "error", err)
			}

			newCount := 0
			for _, item := range items {
				rec, ok := adapter.Normalize(item, keyword)
				if !ok {
					run.Dropped++
					continue
				}
				o.finishRecord(rec, keyword)

				if o.index.Contains(rec.Platform, rec.ID) {
					continue
				}
				o.index.Add(rec.Platform, rec.ID)

				pending = append(pending, rec)
				collected = append(collected, rec)
				run.TotalNew++
				newCount++
			}
			log.Info("Page processed", "page", page, "items", len(items), "new", newCount)

			for len(pending) >= o.policy.BatchSize {
				o.flush(ctx, pending[:o.policy.BatchSize], run, log)
				pending = pending[o.policy.BatchSize:]
			}

			if page < maxPages {
				o.sleep(ctx, o.policy.PageDelayMin, o.policy.PageDelayMax)
			}
		}
	}()

	// Remaining records are flushed on every exit path, cancelled included:
	// a committed record is never lost to a partial batch.
	for len(pending) > 0 {
		n := min(len(pending), o.policy.BatchSize)
		o.flush(ctx, pending[:n], run, log)
		pending = pending[n:]
	}

	if len(collected) > 0 {
		if err := session.WriteStructured(collected); err != nil {
			log.Warn("Failed to write structured export", "error", err)
		}
	}

	run.EndTime = time.Now()
	if run.Status == domain.RunStatusRunning {
		run.Status = domain.RunStatusCompleted
	}

	// The run log uses a fresh context so a cancelled run still gets its
	// finalized entry.
	logCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.runLog.Append(logCtx, run); err != nil {
		log.Error("Failed to append run log entry", "error", err)
	}

	log.Info("Crawl run finished",
		"status", string(run.Status),
		"pages_fetched", run.PagesFetched,
		"total_new", run.TotalNew,
		"persisted", run.Persisted,
		"failed", run.Failed,
		"dropped", run.Dropped,
		"duration", run.Duration())

	if run.Status == domain.RunStatusError {
		return run, fmt.Errorf("crawl run ended with error: %s", run.ErrorMessage)
	}
	return run, nil
}

// fetchWithRetry requests one page, retrying up to the configured bound
// with a randomized delay and a freshly rotated identity on each attempt.
// All attempts exhausted yields nil; a page-level failure is never fatal.
func (o *Orchestrator) fetchWithRetry(
	ctx context.Context,
	adapter Adapter,
	keyword string,
	page int,
	log logger.Interface,
) []RawItem {
	for attempt := 1; attempt <= o.policy.MaxRetries; attempt++ {
		items, err := adapter.FetchPage(ctx, keyword, page, o.identity.Next())
		if err != nil {
			log.Warn("Fetch attempt failed", "page", page, "attempt", attempt, "error", err)
		} else if len(items) > 0 {
			return items
		} else {
			log.Warn("Fetch attempt returned no items", "page", page, "attempt", attempt)
		}

		if attempt < o.policy.MaxRetries {
			o.sleep(ctx, o.policy.RetryDelayMin, o.policy.RetryDelayMax)
			if ctx.Err() != nil {
				// Cancelled mid-backoff; the page loop boundary exits next.
				return nil
			}
		}
	}

	log.Error("Giving up on page after retries", "page", page, "attempts", o.policy.MaxRetries)
	return nil
}

// flush persists one batch and folds the per-flush outcome into the run
// totals. Persistence failures are recorded, never propagated; the store
// remains the durability source of truth for whatever did commit.
func (o *Orchestrator) flush(ctx context.Context, batch []*domain.Record, run *domain.CrawlRun, log logger.Interface) {
	// A cancelled run still owes the store its pending records. The store
	// call gets a fresh bounded context so cooperative cancellation never
	// interrupts a flush in flight.
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
	}
	succeeded, failed := o.store.InsertBatch(ctx, batch)
	run.Persisted += succeeded
	run.Failed += failed
	log.Info("Batch flushed", "size", len(batch), "succeeded", succeeded, "failed", failed)
}

// finishRecord fills the fields the orchestrator owns regardless of adapter.
func (o *Orchestrator) finishRecord(rec *domain.Record, keyword string) {
	now := time.Now()
	rec.Keyword = keyword
	rec.CrawledAt = now
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	for name, v := range rec.Engagement {
		if v < 0 {
			rec.Engagement[name] = 0
		}
	}
}

// sleep blocks for a uniformly random duration in [lo, hi], returning early
// on context cancellation.
func (o *Orchestrator) sleep(ctx context.Context, lo, hi time.Duration) {
	if hi <= 0 {
		return
	}
	d := lo
	if hi > lo {
		d = lo + time.Duration(rand.Int64N(int64(hi-lo)))
	}
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// toMaps converts raw items for the archive surface.
func toMaps(items []RawItem) []map[string]any {
	out := make([]map[string]any, len(items))
	for i, item := range items {
		out[i] = map[string]any(item)
	}
	return out
}
