package usecase

import (
	"sort"

	"github.com/NasaVasa/cratedigger/internal/domain"
)

const (
	HighPriorityScore   = 0.40
	MediumPriorityScore = 0.25
)

// Score computes the discount of a listing against the matched median price.
// It returns nil when the match has no usable median or the listing costs
// more than the median including shipping.
func Score(listing domain.Listing, match domain.MatchResult) *domain.Deal {
	if match.MedianPrice == nil || *match.MedianPrice <= 0 {
		return nil
	}
	median := *match.MedianPrice
	score := (median - listing.Total()) / median
	if score < 0 {
		return nil
	}

	return &domain.Deal{
		ItemID:       listing.ItemID,
		Title:        listing.Title,
		Price:        listing.Price,
		Shipping:     listing.Shipping,
		Condition:    listing.Condition,
		SellerRating: listing.SellerRating,
		Match:        match,
		Score:        score,
		Priority:     PriorityFor(score),
		URL:          listing.URL,
	}
}

func PriorityFor(score float64) domain.Priority {
	switch {
	case score >= HighPriorityScore:
		return domain.PriorityHigh
	case score >= MediumPriorityScore:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// FilterDeals keeps deals scoring at least minScore, best first. The input
// slice is not modified.
func FilterDeals(deals []domain.Deal, minScore float64) []domain.Deal {
	filtered := make([]domain.Deal, 0, len(deals))
	for _, deal := range deals {
		if deal.Score >= minScore {
			filtered = append(filtered, deal)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})
	return filtered
}
