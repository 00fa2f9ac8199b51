package domain

import "time"

type Listing struct {
	ItemID       string
	Title        string
	Price        float64
	Shipping     float64
	Currency     string
	Condition    *string
	SellerRating *float64
	URL          string
	FirstSeen    time.Time

	MatchReleaseID  *int64
	MatchTier       MatchTier
	MatchConfidence *float64
	DealScore       *float64
	NotifiedAt      *time.Time
}

// Total is the price a buyer pays including shipping.
func (l Listing) Total() float64 {
	return l.Price + l.Shipping
}

type ItemAspect struct {
	Name  string
	Value string
}

type ItemDetail struct {
	ItemID     string
	Title      string
	Identifier string
	Aspects    []ItemAspect
}
