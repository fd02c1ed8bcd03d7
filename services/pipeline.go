package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"growth-scraper/models"
	"growth-scraper/storage"
	"growth-scraper/utils"
)

// Collector produces one collection run. scraper/growth.Collector
// satisfies it.
type Collector interface {
	Collect(ctx context.Context) models.CollectResult
}

// CollectStatusError reports that a collection triggered on behalf of a
// reader did not finish ok, so the data it returns (if any) is suspect.
type CollectStatusError struct {
	RunID  string
	Status models.CollectStatus
	Err    error
}

func (e *CollectStatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("collection %s finished %s: %v", e.RunID, e.Status, e.Err)
	}
	return fmt.Sprintf("collection %s finished %s", e.RunID, e.Status)
}

func (e *CollectStatusError) Unwrap() error {
	return e.Err
}

// Pipeline runs Collector → raw store → Normalizer → clean store. Runs are
// serialized; the last result is kept in the cache.
type Pipeline struct {
	collector  Collector
	raw        storage.RawStore
	normalizer *Normalizer
	cache      ResultCache
	logger     *utils.Logger

	mu sync.Mutex

	lastMu sync.RWMutex
	last   *models.RunSummary
}

// NewPipeline wires the stages together. cache may be nil, in which case
// an in-process cache is used.
func NewPipeline(collector Collector, raw storage.RawStore, normalizer *Normalizer,
	cache ResultCache, logger *utils.Logger) *Pipeline {
	if cache == nil {
		cache = NewMemoryResultCache()
	}
	return &Pipeline{
		collector:  collector,
		raw:        raw,
		normalizer: normalizer,
		cache:      cache,
		logger:     logger,
	}
}

// Collect runs the collector and replaces the raw store. A failed run
// leaves the previous raw table in place.
func (p *Pipeline) Collect(ctx context.Context) (models.CollectResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.collectLocked(ctx)
}

func (p *Pipeline) collectLocked(ctx context.Context) (models.CollectResult, error) {
	res := p.collector.Collect(ctx)
	if res.Status == models.CollectFailed {
		p.logger.Error("[pipeline] Collection %s failed: %v", res.RunID, res.Err)
		return res, res.Err
	}

	if err := p.raw.WriteRaw(res.Records); err != nil {
		p.logger.Error("[pipeline] Raw store write failed: %v", err)
		return res, err
	}

	p.logger.Info("[pipeline] Collection %s finished %s: %d records, %d skipped",
		res.RunID, res.Status, len(res.Records), len(res.Skipped))
	return res, nil
}

// Normalize rebuilds the clean table from the current raw store and
// caches it under a fresh run ID.
func (p *Pipeline) Normalize(ctx context.Context) (RunResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	summary := models.RunSummary{RunID: uuid.NewString(), StartedAt: time.Now()}
	return p.normalizeLocked(ctx, summary)
}

func (p *Pipeline) normalizeLocked(ctx context.Context, summary models.RunSummary) (RunResult, error) {
	table, report, err := p.normalizer.Run(ctx)
	summary.Normalize = report
	summary.FinishedAt = time.Now()
	if err != nil {
		summary.Error = err.Error()
		p.setLast(summary)
		return RunResult{Summary: summary}, err
	}

	result := RunResult{Summary: summary, Table: table}
	p.setLast(summary)
	if err := p.cache.Put(ctx, result); err != nil {
		p.logger.Warn("[pipeline] Could not cache run %s: %v", summary.RunID, err)
	}
	return result, nil
}

// Run starts a fresh collection followed by normalization. Cached results
// are invalidated first. An empty or degraded collection is still
// normalized; its status is reported in the summary.
func (p *Pipeline) Run(ctx context.Context) (RunResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runLocked(ctx)
}

func (p *Pipeline) runLocked(ctx context.Context) (RunResult, error) {
	if err := p.cache.Invalidate(ctx); err != nil {
		p.logger.Warn("[pipeline] Cache invalidation failed: %v", err)
	}

	res, err := p.collectLocked(ctx)
	summary := models.RunSummary{
		RunID:     res.RunID,
		Collect:   res.Status,
		Skipped:   len(res.Skipped),
		StartedAt: res.StartedAt,
	}
	if summary.RunID == "" {
		summary.RunID = uuid.NewString()
	}
	if summary.StartedAt.IsZero() {
		summary.StartedAt = time.Now()
	}
	if err != nil {
		summary.Error = err.Error()
		summary.FinishedAt = time.Now()
		p.setLast(summary)
		return RunResult{Summary: summary}, err
	}

	return p.normalizeLocked(ctx, summary)
}

// Load returns the data a reader should see: the cached result if any,
// else the clean table rebuilt from the raw store. When no raw data exists
// yet a collection is triggered; if that collection is not ok the result
// is returned together with a *CollectStatusError.
func (p *Pipeline) Load(ctx context.Context) (RunResult, error) {
	if r, err := p.cache.Latest(ctx); err == nil {
		return r, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		p.logger.Warn("[pipeline] Cache lookup failed: %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another reader may have filled the cache while we waited.
	if r, err := p.cache.Latest(ctx); err == nil {
		return r, nil
	}

	summary := models.RunSummary{RunID: uuid.NewString(), StartedAt: time.Now()}
	r, err := p.normalizeLocked(ctx, summary)
	if !errors.Is(err, storage.ErrNoData) {
		return r, err
	}

	p.logger.Info("[pipeline] No raw data yet, collecting")
	r, err = p.runLocked(ctx)
	if r.Summary.Collect != models.CollectOK {
		return r, &CollectStatusError{RunID: r.Summary.RunID, Status: r.Summary.Collect, Err: err}
	}
	return r, err
}

// LastRun returns the summary of the most recent run, if any.
func (p *Pipeline) LastRun() (models.RunSummary, bool) {
	p.lastMu.RLock()
	defer p.lastMu.RUnlock()
	if p.last == nil {
		return models.RunSummary{}, false
	}
	return *p.last, true
}

func (p *Pipeline) setLast(s models.RunSummary) {
	p.lastMu.Lock()
	defer p.lastMu.Unlock()
	p.last = &s
}
