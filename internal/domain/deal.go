package domain

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Deal struct {
	ItemID       string
	Title        string
	Price        float64
	Shipping     float64
	Condition    *string
	SellerRating *float64
	Match        MatchResult
	Score        float64
	Priority     Priority
	URL          string
}
