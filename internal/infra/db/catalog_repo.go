package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/NasaVasa/cratedigger/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Upsert inserts or replaces the release metadata. Stored prices are only
// overwritten when the entry carries prices of its own.
func (r *CatalogRepository) Upsert(ctx context.Context, entry *domain.CatalogEntry) error {
	model := mapCatalogEntryToModel(*entry)
	columns := []string{"artist", "title", "catalog_no", "catalog_no_normalized", "barcode", "format", "updated_at"}
	if entry.Priced() {
		columns = append(columns, "median_price", "low_price", "refreshed_at")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "release_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&model).Error
}

func (r *CatalogRepository) Get(ctx context.Context, releaseID int64) (*domain.CatalogEntry, error) {
	return r.first(ctx, "release_id = ?", releaseID)
}

func (r *CatalogRepository) FindByCatalogNo(ctx context.Context, catalogNo string) (*domain.CatalogEntry, error) {
	if catalogNo == "" {
		return nil, domain.ErrNotFound
	}
	return r.first(ctx, "catalog_no = ?", catalogNo)
}

func (r *CatalogRepository) FindByNormalizedCatalogNo(ctx context.Context, normalized string) (*domain.CatalogEntry, error) {
	if normalized == "" {
		return nil, domain.ErrNotFound
	}
	return r.first(ctx, "catalog_no_normalized = ?", normalized)
}

func (r *CatalogRepository) FindByBarcode(ctx context.Context, barcode string) (*domain.CatalogEntry, error) {
	if barcode == "" {
		return nil, domain.ErrNotFound
	}
	return r.first(ctx, "barcode = ?", barcode)
}

// SearchText returns up to limit entries whose artist, title and catalog
// number together contain every word of query, best ranked first.
func (r *CatalogRepository) SearchText(ctx context.Context, query string, limit int) ([]domain.CatalogEntry, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return nil, nil
	}
	var models []catalogEntryModel
	err := r.db.WithContext(ctx).
		Where(searchVector+" @@ plainto_tsquery('simple', ?)", query).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "ts_rank(" + searchVector + ", plainto_tsquery('simple', ?)) DESC, release_id",
			Vars:               []interface{}{query},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return mapCatalogEntriesToDomain(models), nil
}

// ListStale returns entries never priced or priced before refreshedBefore,
// oldest first.
func (r *CatalogRepository) ListStale(ctx context.Context, refreshedBefore time.Time) ([]domain.CatalogEntry, error) {
	var models []catalogEntryModel
	err := r.db.WithContext(ctx).
		Where("refreshed_at IS NULL OR refreshed_at < ?", refreshedBefore).
		Order("refreshed_at NULLS FIRST, release_id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return mapCatalogEntriesToDomain(models), nil
}

func (r *CatalogRepository) UpdatePrices(ctx context.Context, releaseID int64, stats domain.PriceStats, refreshedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&catalogEntryModel{}).Where("release_id = ?", releaseID).Updates(map[string]interface{}{
		"median_price": stats.Median,
		"low_price":    stats.Low,
		"refreshed_at": refreshedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CatalogRepository) first(ctx context.Context, query string, args ...interface{}) (*domain.CatalogEntry, error) {
	var model catalogEntryModel
	if err := r.db.WithContext(ctx).Where(query, args...).Order("release_id").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	entry := mapCatalogEntryToDomain(model)
	return &entry, nil
}

func mapCatalogEntriesToDomain(models []catalogEntryModel) []domain.CatalogEntry {
	entries := make([]domain.CatalogEntry, 0, len(models))
	for _, model := range models {
		entries = append(entries, mapCatalogEntryToDomain(model))
	}
	return entries
}

func mapCatalogEntryToDomain(model catalogEntryModel) domain.CatalogEntry {
	return domain.CatalogEntry{
		ReleaseID:   model.ReleaseID,
		Artist:      model.Artist,
		Title:       model.Title,
		CatalogNo:   model.CatalogNo,
		Barcode:     model.Barcode,
		Format:      model.Format,
		MedianPrice: model.MedianPrice,
		LowPrice:    model.LowPrice,
		RefreshedAt: model.RefreshedAt,
	}
}

func mapCatalogEntryToModel(entry domain.CatalogEntry) catalogEntryModel {
	return catalogEntryModel{
		ReleaseID:           entry.ReleaseID,
		Artist:              entry.Artist,
		Title:               entry.Title,
		CatalogNo:           entry.CatalogNo,
		CatalogNoNormalized: domain.NormalizeCatalogNo(entry.CatalogNo),
		Barcode:             entry.Barcode,
		Format:              entry.Format,
		MedianPrice:         entry.MedianPrice,
		LowPrice:            entry.LowPrice,
		RefreshedAt:         entry.RefreshedAt,
	}
}
