package db

import (
	"context"

	"github.com/NasaVasa/cratedigger/internal/domain"
	"gorm.io/gorm"
)

type SavedQueryRepository struct {
	db *gorm.DB
}

func NewSavedQueryRepository(db *gorm.DB) *SavedQueryRepository {
	return &SavedQueryRepository{db: db}
}

func (r *SavedQueryRepository) Create(ctx context.Context, query *domain.SavedQuery) error {
	model := mapSavedQueryToModel(*query)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	query.ID = model.ID
	return nil
}

func (r *SavedQueryRepository) ListActive(ctx context.Context) ([]domain.SavedQuery, error) {
	var models []savedQueryModel
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	return mapSavedQueriesToDomain(models), nil
}

func (r *SavedQueryRepository) ListByRecipient(ctx context.Context, recipientID int64) ([]domain.SavedQuery, error) {
	var models []savedQueryModel
	if err := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	return mapSavedQueriesToDomain(models), nil
}

func (r *SavedQueryRepository) SetActive(ctx context.Context, recipientID int64, queryID uint, active bool) error {
	result := r.db.WithContext(ctx).Model(&savedQueryModel{}).Where("id = ? AND recipient_id = ?", queryID, recipientID).Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetThreshold applies minDealScore to every query of the recipient and
// reports how many were changed.
func (r *SavedQueryRepository) SetThreshold(ctx context.Context, recipientID int64, minDealScore float64) (int64, error) {
	result := r.db.WithContext(ctx).Model(&savedQueryModel{}).
		Where("recipient_id = ?", recipientID).
		Update("min_deal_score", minDealScore)
	return result.RowsAffected, result.Error
}

func mapSavedQueriesToDomain(models []savedQueryModel) []domain.SavedQuery {
	queries := make([]domain.SavedQuery, 0, len(models))
	for _, model := range models {
		queries = append(queries, domain.SavedQuery{
			ID:           model.ID,
			RecipientID:  model.RecipientID,
			Query:        model.Query,
			MinDealScore: model.MinDealScore,
			PollMinutes:  model.PollMinutes,
			Active:       model.Active,
		})
	}
	return queries
}

func mapSavedQueryToModel(query domain.SavedQuery) savedQueryModel {
	return savedQueryModel{
		ID:           query.ID,
		RecipientID:  query.RecipientID,
		Query:        query.Query,
		MinDealScore: query.MinDealScore,
		PollMinutes:  query.PollMinutes,
		Active:       query.Active,
	}
}
