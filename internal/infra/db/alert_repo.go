package db

import (
	"context"
	"time"

	"github.com/NasaVasa/cratedigger/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AlertRepository records which recipient was alerted about which item. The
// unique (recipient_id, item_id) index makes the table the dedup authority.
type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Exists(ctx context.Context, recipientID int64, itemID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&alertRecordModel{}).
		Where("recipient_id = ? AND item_id = ?", recipientID, itemID).
		Count(&count).Error
	return count > 0, err
}

// Create is a no-op when the pair is already recorded.
func (r *AlertRepository) Create(ctx context.Context, record *domain.AlertRecord) error {
	model := alertRecordModel{
		RecipientID: record.RecipientID,
		ItemID:      record.ItemID,
		SentAt:      record.SentAt,
		DealScore:   record.DealScore,
	}
	if model.SentAt.IsZero() {
		model.SentAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error
}

func (r *AlertRepository) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("sent_at < ?", cutoff).Delete(&alertRecordModel{})
	return result.RowsAffected, result.Error
}
