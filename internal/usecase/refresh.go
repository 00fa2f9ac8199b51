package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/NasaVasa/cratedigger/internal/domain"
	"github.com/NasaVasa/cratedigger/internal/infra/metrics"
	"go.uber.org/zap"
)

// Refresher keeps catalog price stats current and ingests new releases.
type Refresher struct {
	catalog domain.CatalogRepository
	client  domain.CatalogClient
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewRefresher(catalog domain.CatalogRepository, client domain.CatalogClient, m *metrics.Metrics, logger *zap.Logger) *Refresher {
	return &Refresher{
		catalog: catalog,
		client:  client,
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RefreshStale re-fetches prices for entries never priced or priced more than
// maxAge ago. Entries whose fetch fails or that have no price data are
// skipped. It returns the number of entries updated.
func (r *Refresher) RefreshStale(ctx context.Context, maxAge time.Duration) (int, error) {
	stale, err := r.catalog.ListStale(ctx, r.now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("list stale entries: %w", err)
	}

	refreshed := 0
	for _, entry := range stale {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		logger := r.logger.With(zap.Int64("release_id", entry.ReleaseID))

		stats, err := r.client.GetPriceStats(ctx, entry.ReleaseID)
		if err != nil {
			r.metrics.IncRefresh("error")
			logger.Warn("price fetch failed", zap.Error(err))
			continue
		}
		if stats == nil {
			r.metrics.IncRefresh("unpriced")
			continue
		}
		if err := r.catalog.UpdatePrices(ctx, entry.ReleaseID, *stats, r.now()); err != nil {
			r.metrics.IncRefresh("error")
			logger.Warn("price update failed", zap.Error(err))
			continue
		}
		r.metrics.IncRefresh("ok")
		refreshed++
	}

	r.logger.Info("catalog refresh complete", zap.Int("stale", len(stale)), zap.Int("refreshed", refreshed))
	return refreshed, nil
}

// Ingest fetches a release and its price stats and stores them. The release
// is stored even without price data; it then stays stale until a refresh
// finds prices. It reports false when the release does not exist.
func (r *Refresher) Ingest(ctx context.Context, releaseID int64) (bool, error) {
	entry, err := r.client.GetRelease(ctx, releaseID)
	if err != nil {
		return false, fmt.Errorf("fetch release %d: %w", releaseID, err)
	}
	if entry == nil {
		return false, nil
	}

	stats, err := r.client.GetPriceStats(ctx, releaseID)
	if err != nil {
		r.logger.Warn("price fetch failed during ingest", zap.Int64("release_id", releaseID), zap.Error(err))
	}
	if stats != nil {
		median, low := stats.Median, stats.Low
		refreshedAt := r.now()
		entry.MedianPrice = &median
		entry.LowPrice = &low
		entry.RefreshedAt = &refreshedAt
	}

	if err := r.catalog.Upsert(ctx, entry); err != nil {
		return false, fmt.Errorf("store release %d: %w", releaseID, err)
	}
	r.logger.Info("release ingested",
		zap.Int64("release_id", releaseID),
		zap.String("catalog_no", entry.CatalogNo),
		zap.Bool("priced", entry.Priced()),
	)
	return true, nil
}

// Seed ingests each release id, logging failures and continuing. It returns
// the number of releases stored.
func (r *Refresher) Seed(ctx context.Context, releaseIDs []int64) int {
	stored := 0
	for _, id := range releaseIDs {
		if ctx.Err() != nil {
			break
		}
		ok, err := r.Ingest(ctx, id)
		if err != nil {
			r.logger.Warn("seed ingest failed", zap.Int64("release_id", id), zap.Error(err))
			continue
		}
		if !ok {
			r.logger.Warn("seed release not found", zap.Int64("release_id", id))
			continue
		}
		stored++
	}
	return stored
}
