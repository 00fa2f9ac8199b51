package domain

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type CatalogRepository interface {
	Upsert(ctx context.Context, entry *CatalogEntry) error
	Get(ctx context.Context, releaseID int64) (*CatalogEntry, error)
	FindByCatalogNo(ctx context.Context, catalogNo string) (*CatalogEntry, error)
	FindByNormalizedCatalogNo(ctx context.Context, normalized string) (*CatalogEntry, error)
	FindByBarcode(ctx context.Context, barcode string) (*CatalogEntry, error)
	SearchText(ctx context.Context, query string, limit int) ([]CatalogEntry, error)
	ListStale(ctx context.Context, refreshedBefore time.Time) ([]CatalogEntry, error)
	UpdatePrices(ctx context.Context, releaseID int64, stats PriceStats, refreshedAt time.Time) error
}

type ListingRepository interface {
	Upsert(ctx context.Context, listing *Listing) error
	Get(ctx context.Context, itemID string) (*Listing, error)
	ListUnnotified(ctx context.Context, minDealScore float64, limit int) ([]Listing, error)
	MarkNotified(ctx context.Context, itemID string, at time.Time) error
	DeleteSeenBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type SavedQueryRepository interface {
	Create(ctx context.Context, query *SavedQuery) error
	ListActive(ctx context.Context) ([]SavedQuery, error)
	ListByRecipient(ctx context.Context, recipientID int64) ([]SavedQuery, error)
	SetActive(ctx context.Context, recipientID int64, queryID uint, active bool) error
	SetThreshold(ctx context.Context, recipientID int64, minDealScore float64) (int64, error)
}

type AlertRepository interface {
	Exists(ctx context.Context, recipientID int64, itemID string) (bool, error)
	Create(ctx context.Context, record *AlertRecord) error
	DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
