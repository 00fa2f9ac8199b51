package domain

const (
	DefaultMinDealScore = 0.25
	DefaultPollMinutes  = 30
)

type SavedQuery struct {
	ID           uint
	RecipientID  int64
	Query        string
	MinDealScore float64
	PollMinutes  int
	Active       bool
}
