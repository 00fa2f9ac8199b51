package domain

type MatchTier string

const (
	TierCatalogNo MatchTier = "catalog_no"
	TierBarcode   MatchTier = "barcode"
	TierFuzzy     MatchTier = "fuzzy"
)

type MatchResult struct {
	ReleaseID   int64
	Artist      string
	Title       string
	MedianPrice *float64
	Tier        MatchTier
	Confidence  float64
}

func NewMatchResult(entry CatalogEntry, tier MatchTier, confidence float64) *MatchResult {
	return &MatchResult{
		ReleaseID:   entry.ReleaseID,
		Artist:      entry.Artist,
		Title:       entry.Title,
		MedianPrice: entry.MedianPrice,
		Tier:        tier,
		Confidence:  confidence,
	}
}
