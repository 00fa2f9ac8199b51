package db

import (
	"context"
	"errors"
	"time"

	"github.com/NasaVasa/cratedigger/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// Upsert stores the latest view of a listing. first_seen and notified_at keep
// the values from the first insert.
func (r *ListingRepository) Upsert(ctx context.Context, listing *domain.Listing) error {
	model := mapListingToModel(*listing)
	if model.FirstSeen.IsZero() {
		model.FirstSeen = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "price", "shipping", "currency", "condition", "seller_rating", "url",
			"match_release_id", "match_tier", "match_confidence", "deal_score", "updated_at",
		}),
	}).Create(&model).Error
}

func (r *ListingRepository) Get(ctx context.Context, itemID string) (*domain.Listing, error) {
	var model listingModel
	if err := r.db.WithContext(ctx).Where("item_id = ?", itemID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	listing := mapListingToDomain(model)
	return &listing, nil
}

// ListUnnotified returns scored listings at or above minDealScore that have
// not been alerted yet, best first.
func (r *ListingRepository) ListUnnotified(ctx context.Context, minDealScore float64, limit int) ([]domain.Listing, error) {
	var models []listingModel
	query := r.db.WithContext(ctx).
		Where("deal_score IS NOT NULL AND deal_score >= ? AND notified_at IS NULL", minDealScore).
		Order("deal_score DESC, item_id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	listings := make([]domain.Listing, 0, len(models))
	for _, model := range models {
		listings = append(listings, mapListingToDomain(model))
	}
	return listings, nil
}

func (r *ListingRepository) MarkNotified(ctx context.Context, itemID string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&listingModel{}).Where("item_id = ?", itemID).Update("notified_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) DeleteSeenBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("first_seen < ?", cutoff).Delete(&listingModel{})
	return result.RowsAffected, result.Error
}

func mapListingToDomain(model listingModel) domain.Listing {
	return domain.Listing{
		ItemID:          model.ItemID,
		Title:           model.Title,
		Price:           model.Price,
		Shipping:        model.Shipping,
		Currency:        model.Currency,
		Condition:       model.Condition,
		SellerRating:    model.SellerRating,
		URL:             model.URL,
		FirstSeen:       model.FirstSeen,
		MatchReleaseID:  model.MatchReleaseID,
		MatchTier:       domain.MatchTier(model.MatchTier),
		MatchConfidence: model.MatchConfidence,
		DealScore:       model.DealScore,
		NotifiedAt:      model.NotifiedAt,
	}
}

func mapListingToModel(listing domain.Listing) listingModel {
	return listingModel{
		ItemID:          listing.ItemID,
		Title:           listing.Title,
		Price:           listing.Price,
		Shipping:        listing.Shipping,
		Currency:        listing.Currency,
		Condition:       listing.Condition,
		SellerRating:    listing.SellerRating,
		URL:             listing.URL,
		FirstSeen:       listing.FirstSeen,
		MatchReleaseID:  listing.MatchReleaseID,
		MatchTier:       string(listing.MatchTier),
		MatchConfidence: listing.MatchConfidence,
		DealScore:       listing.DealScore,
		NotifiedAt:      listing.NotifiedAt,
	}
}
