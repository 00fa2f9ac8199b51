package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/NasaVasa/cratedigger/internal/domain"
)

var (
	ErrEmptyQuery       = errors.New("empty query")
	ErrInvalidThreshold = errors.New("threshold must be between 0 and 1")
	ErrSearchNotFound   = errors.New("search not found")
	ErrNoSearches       = errors.New("no saved searches")
)

const DefaultPendingLimit = 10

// SearchUsecase manages a recipient's saved searches.
type SearchUsecase struct {
	queries  domain.SavedQueryRepository
	listings domain.ListingRepository
}

func NewSearchUsecase(queries domain.SavedQueryRepository, listings domain.ListingRepository) *SearchUsecase {
	return &SearchUsecase{queries: queries, listings: listings}
}

func (u *SearchUsecase) AddSearch(ctx context.Context, recipientID int64, query string) (*domain.SavedQuery, error) {
	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return nil, ErrEmptyQuery
	}
	saved := &domain.SavedQuery{
		RecipientID:  recipientID,
		Query:        query,
		MinDealScore: domain.DefaultMinDealScore,
		PollMinutes:  domain.DefaultPollMinutes,
		Active:       true,
	}
	if err := u.queries.Create(ctx, saved); err != nil {
		return nil, err
	}
	return saved, nil
}

func (u *SearchUsecase) ListSearches(ctx context.Context, recipientID int64) ([]domain.SavedQuery, error) {
	return u.queries.ListByRecipient(ctx, recipientID)
}

// RemoveSearch deactivates the search; its alert history is kept.
func (u *SearchUsecase) RemoveSearch(ctx context.Context, recipientID int64, queryID uint) error {
	err := u.queries.SetActive(ctx, recipientID, queryID, false)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrSearchNotFound
	}
	return err
}

func (u *SearchUsecase) SetThreshold(ctx context.Context, recipientID int64, minDealScore float64) (int64, error) {
	if minDealScore < 0 || minDealScore > 1 {
		return 0, ErrInvalidThreshold
	}
	changed, err := u.queries.SetThreshold(ctx, recipientID, minDealScore)
	if err != nil {
		return 0, err
	}
	if changed == 0 {
		return 0, ErrNoSearches
	}
	return changed, nil
}

// PendingDeals lists stored deals nobody has been alerted about yet, at or
// above the lowest threshold among the recipient's active searches.
func (u *SearchUsecase) PendingDeals(ctx context.Context, recipientID int64, limit int) ([]domain.Listing, error) {
	queries, err := u.queries.ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	threshold := -1.0
	for _, query := range queries {
		if query.Active && (threshold < 0 || query.MinDealScore < threshold) {
			threshold = query.MinDealScore
		}
	}
	if threshold < 0 {
		return nil, ErrNoSearches
	}
	if limit <= 0 {
		limit = DefaultPendingLimit
	}
	return u.listings.ListUnnotified(ctx, threshold, limit)
}
