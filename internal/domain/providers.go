package domain

import (
	"context"
	"fmt"
)

type ListingSearcher interface {
	SearchListings(ctx context.Context, query string) ([]Listing, error)
	GetItemDetail(ctx context.Context, itemID string) (*ItemDetail, error)
}

type CatalogClient interface {
	GetRelease(ctx context.Context, releaseID int64) (*CatalogEntry, error)
	GetPriceStats(ctx context.Context, releaseID int64) (*PriceStats, error)
}

type MessageMode string

const (
	ModePlain MessageMode = ""
	ModeHTML  MessageMode = "HTML"
)

type Messenger interface {
	Send(ctx context.Context, recipientID int64, text string, mode MessageMode) error
}

// TransportError is returned by provider clients when the remote side answers
// with a status the client does not handle.
type TransportError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s api %d: %s", e.Provider, e.StatusCode, e.Body)
}
