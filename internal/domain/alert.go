package domain

import "time"

type AlertRecord struct {
	RecipientID int64
	ItemID      string
	SentAt      time.Time
	DealScore   float64
}
