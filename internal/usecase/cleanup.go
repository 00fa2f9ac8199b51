package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NasaVasa/cratedigger/internal/domain"
	"github.com/NasaVasa/cratedigger/internal/infra/metrics"
	"go.uber.org/zap"
)

const (
	DefaultListingRetention = 30 * 24 * time.Hour
	DefaultAlertRetention   = 90 * 24 * time.Hour
)

type Cleaner struct {
	listings         domain.ListingRepository
	alerts           domain.AlertRepository
	listingRetention time.Duration
	alertRetention   time.Duration
	metrics          *metrics.Metrics
	logger           *zap.Logger
	now              func() time.Time
}

func NewCleaner(listings domain.ListingRepository, alerts domain.AlertRepository, listingRetention, alertRetention time.Duration, m *metrics.Metrics, logger *zap.Logger) *Cleaner {
	if listingRetention <= 0 {
		listingRetention = DefaultListingRetention
	}
	if alertRetention <= 0 {
		alertRetention = DefaultAlertRetention
	}
	return &Cleaner{
		listings:         listings,
		alerts:           alerts,
		listingRetention: listingRetention,
		alertRetention:   alertRetention,
		metrics:          m,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Run deletes listings first seen and alerts sent before their retention
// windows. Both deletions are attempted even if one fails.
func (c *Cleaner) Run(ctx context.Context) error {
	now := c.now()
	var errs []error

	listings, err := c.listings.DeleteSeenBefore(ctx, now.Add(-c.listingRetention))
	if err != nil {
		errs = append(errs, fmt.Errorf("delete listings: %w", err))
	} else {
		c.metrics.AddDeleted("listings", listings)
	}

	alerts, err := c.alerts.DeleteSentBefore(ctx, now.Add(-c.alertRetention))
	if err != nil {
		errs = append(errs, fmt.Errorf("delete alerts: %w", err))
	} else {
		c.metrics.AddDeleted("alert_records", alerts)
	}

	c.logger.Info("cleanup complete", zap.Int64("listings_deleted", listings), zap.Int64("alerts_deleted", alerts))
	return errors.Join(errs...)
}
