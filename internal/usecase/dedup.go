package usecase

import (
	"context"
	"time"

	"github.com/NasaVasa/cratedigger/internal/domain"
)

// AlertDeduplicator answers whether a recipient has already been alerted
// about an item. A stored AlertRecord is the only dedup key.
type AlertDeduplicator struct {
	alerts domain.AlertRepository
}

func NewAlertDeduplicator(alerts domain.AlertRepository) *AlertDeduplicator {
	return &AlertDeduplicator{alerts: alerts}
}

func (d *AlertDeduplicator) Seen(ctx context.Context, recipientID int64, itemID string) (bool, error) {
	return d.alerts.Exists(ctx, recipientID, itemID)
}

func (d *AlertDeduplicator) Record(ctx context.Context, recipientID int64, deal domain.Deal, sentAt time.Time) error {
	return d.alerts.Create(ctx, &domain.AlertRecord{
		RecipientID: recipientID,
		ItemID:      deal.ItemID,
		SentAt:      sentAt,
		DealScore:   deal.Score,
	})
}
