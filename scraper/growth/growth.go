// Package growth collects product names and price texts from the
// Growth Suplementos listing page.
package growth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"growth-scraper/config"
	"growth-scraper/models"
	apperrors "growth-scraper/pkg/errors"
	"growth-scraper/utils"
)

// Collector renders the target page and extracts one RawRecord per item.
type Collector struct {
	cfg       *config.Config
	selectors config.Selectors
	fetcher   PageFetcher
	logger    *utils.Logger
	metrics   *utils.Metrics
	retry     *utils.RetryConfig
}

// New creates a Collector backed by a headless Chrome.
func New(cfg *config.Config, selectors config.Selectors, logger *utils.Logger, metrics *utils.Metrics) *Collector {
	fetcher := &ChromeFetcher{ChromeBin: cfg.ChromeBin, Headless: cfg.Headless, Settle: 2 * time.Second}
	return NewWithFetcher(cfg, selectors, fetcher, logger, metrics)
}

// NewWithFetcher creates a Collector that renders pages with fetcher.
func NewWithFetcher(cfg *config.Config, selectors config.Selectors, fetcher PageFetcher,
	logger *utils.Logger, metrics *utils.Metrics) *Collector {
	return &Collector{
		cfg:       cfg,
		selectors: selectors,
		fetcher:   fetcher,
		logger:    logger,
		metrics:   metrics,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Collect runs one collection. It never returns an error directly: the
// outcome is carried by CollectResult.Status and CollectResult.Err.
func (c *Collector) Collect(ctx context.Context) (res models.CollectResult) {
	res = models.CollectResult{RunID: uuid.NewString(), StartedAt: time.Now()}
	defer func() {
		res.FinishedAt = time.Now()
		c.observe(&res)
	}()

	c.logger.Info("[collector] Starting run %s: %s (max %d items)", res.RunID, c.cfg.TargetURL, c.cfg.MaxItems)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.CollectTimeout)
	defer cancel()

	var html string
	err := c.retry.Do(ctx, "render-listing", func() error {
		var err error
		html, err = c.fetcher.FetchHTML(ctx, c.cfg.TargetURL, c.selectors.Container)
		return err
	})
	if err != nil {
		res.Status = models.CollectFailed
		res.Err = apperrors.NewCollection("collect", "render listing page", err)
		c.logger.Error("[collector] Run %s failed: %v", res.RunID, err)
		return res
	}

	ex, err := ExtractListings(html, c.selectors, c.cfg.MaxItems)
	if err != nil {
		res.Status = models.CollectFailed
		res.Err = apperrors.NewCollection("collect", "extract listing items", err)
		return res
	}

	res.Records = ex.Records
	res.Skipped = ex.Skipped

	switch {
	case ex.Matched == 0:
		res.Status = models.CollectEmpty
		c.logger.Warn("[collector] Run %s found no listing elements", res.RunID)
	case ex.FailureRate() >= c.cfg.DegradedThreshold:
		res.Status = models.CollectDegraded
		c.logger.Warn("[collector] Run %s degraded: %d of %d items missing fields (%.0f%%); selectors may be stale",
			res.RunID, len(ex.Skipped)+ex.Partial, ex.Matched, ex.FailureRate()*100)
	default:
		res.Status = models.CollectOK
	}

	c.logger.Info("[collector] Run %s done: %d records, %d skipped, status %s",
		res.RunID, len(res.Records), len(res.Skipped), res.Status)
	return res
}

func (c *Collector) observe(res *models.CollectResult) {
	if c.metrics == nil {
		return
	}
	c.metrics.CollectRuns.WithLabelValues(string(res.Status)).Inc()
	c.metrics.CollectDuration.Observe(res.FinishedAt.Sub(res.StartedAt).Seconds())
	c.metrics.ItemsScraped.Add(float64(len(res.Records)))
	c.metrics.ItemsSkipped.Add(float64(len(res.Skipped)))
}
