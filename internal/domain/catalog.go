package domain

import (
	"strings"
	"time"
)

type CatalogEntry struct {
	ReleaseID   int64
	Artist      string
	Title       string
	CatalogNo   string
	Barcode     string
	Format      string
	MedianPrice *float64
	LowPrice    *float64
	RefreshedAt *time.Time
}

// Priced reports whether the entry carries price stats from a refresh.
func (e CatalogEntry) Priced() bool {
	return e.MedianPrice != nil && e.LowPrice != nil
}

type PriceStats struct {
	Median float64
	Low    float64
}

var catalogNoReplacer = strings.NewReplacer(" ", "", "-", "", "_", "", ".", "")

// NormalizeCatalogNo strips spaces, dashes, underscores and dots and uppercases
// the result, so "BLP-4003" and "blp 4003" compare equal.
func NormalizeCatalogNo(catalogNo string) string {
	return strings.ToUpper(catalogNoReplacer.Replace(catalogNo))
}
