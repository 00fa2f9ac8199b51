package db

import "time"

type catalogEntryModel struct {
	ReleaseID           int64  `gorm:"primaryKey;autoIncrement:false"`
	Artist              string `gorm:"not null"`
	Title               string `gorm:"not null"`
	CatalogNo           string `gorm:"index"`
	CatalogNoNormalized string `gorm:"index"`
	Barcode             string `gorm:"index"`
	Format              string
	MedianPrice         *float64
	LowPrice            *float64
	RefreshedAt         *time.Time `gorm:"index"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (catalogEntryModel) TableName() string { return "catalog_entries" }

type listingModel struct {
	ItemID          string  `gorm:"primaryKey"`
	Title           string  `gorm:"not null"`
	Price           float64 `gorm:"not null"`
	Shipping        float64 `gorm:"not null;default:0"`
	Currency        string
	Condition       *string
	SellerRating    *float64
	URL             string
	FirstSeen       time.Time `gorm:"index;not null"`
	MatchReleaseID  *int64    `gorm:"index"`
	MatchTier       string
	MatchConfidence *float64
	DealScore       *float64   `gorm:"index:idx_listings_unnotified,priority:1"`
	NotifiedAt      *time.Time `gorm:"index:idx_listings_unnotified,priority:2"`
	UpdatedAt       time.Time
}

func (listingModel) TableName() string { return "listings" }

type savedQueryModel struct {
	ID           uint    `gorm:"primaryKey"`
	RecipientID  int64   `gorm:"index:idx_saved_queries_recipient_active,priority:1;not null"`
	Query        string  `gorm:"not null"`
	MinDealScore float64 `gorm:"not null"`
	PollMinutes  int     `gorm:"not null"`
	Active       bool    `gorm:"index:idx_saved_queries_recipient_active,priority:2"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (savedQueryModel) TableName() string { return "saved_queries" }

type alertRecordModel struct {
	ID          uint      `gorm:"primaryKey"`
	RecipientID int64     `gorm:"uniqueIndex:idx_alert_records_recipient_item,priority:1;not null"`
	ItemID      string    `gorm:"uniqueIndex:idx_alert_records_recipient_item,priority:2;not null"`
	SentAt      time.Time `gorm:"index;not null"`
	DealScore   float64
}

func (alertRecordModel) TableName() string { return "alert_records" }
