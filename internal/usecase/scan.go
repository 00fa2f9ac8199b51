package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/NasaVasa/cratedigger/internal/domain"
	"github.com/NasaVasa/cratedigger/internal/infra/metrics"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Scanner runs one search through matching and scoring and persists every
// listing that produced a deal.
type Scanner struct {
	searcher domain.ListingSearcher
	matcher  *Matcher
	listings domain.ListingRepository
	// identifiers caches enrichment lookups by item id; nil when disabled.
	identifiers *lru.Cache[string, string]
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewScanner builds a Scanner. cacheSize 0 disables the enrichment cache.
func NewScanner(
	searcher domain.ListingSearcher,
	matcher *Matcher,
	listings domain.ListingRepository,
	cacheSize int,
	m *metrics.Metrics,
	logger *zap.Logger,
) (*Scanner, error) {
	s := &Scanner{
		searcher: searcher,
		matcher:  matcher,
		listings: listings,
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, string](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("enrichment cache: %w", err)
		}
		s.identifiers = cache
	}
	return s, nil
}

// ScanAndScore returns deals in the order the search returned their listings.
// Only the search call itself can fail the scan; per-listing problems are
// logged and the listing is skipped.
func (s *Scanner) ScanAndScore(ctx context.Context, query string) ([]domain.Deal, error) {
	listings, err := s.searcher.SearchListings(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	s.metrics.AddListings(len(listings))
	if len(listings) == 0 {
		return nil, nil
	}

	deals := make([]domain.Deal, 0)
	for _, listing := range listings {
		deal, ok := s.scoreListing(ctx, listing)
		if ok {
			deals = append(deals, *deal)
		}
	}

	s.logger.Info("scan complete",
		zap.String("query", query),
		zap.Int("listings", len(listings)),
		zap.Int("deals", len(deals)),
	)
	return deals, nil
}

func (s *Scanner) scoreListing(ctx context.Context, listing domain.Listing) (*domain.Deal, bool) {
	logger := s.logger.With(zap.String("item_id", listing.ItemID))

	identifier := ""
	if ExtractCatalogNumber(listing.Title) == "" {
		identifier = s.identifier(ctx, listing.ItemID)
	}

	match, err := s.matcher.Resolve(ctx, listing.Title, identifier)
	if err != nil {
		logger.Warn("match failed", zap.Error(err))
		return nil, false
	}
	if match == nil {
		return nil, false
	}
	s.metrics.IncMatch(string(match.Tier))

	deal := Score(listing, *match)
	if deal == nil {
		return nil, false
	}

	releaseID := match.ReleaseID
	confidence := match.Confidence
	score := deal.Score
	listing.FirstSeen = s.now()
	listing.MatchReleaseID = &releaseID
	listing.MatchTier = match.Tier
	listing.MatchConfidence = &confidence
	listing.DealScore = &score
	if err := s.listings.Upsert(ctx, &listing); err != nil {
		logger.Warn("failed to store listing", zap.Error(err))
		return nil, false
	}

	s.metrics.IncDeal(string(deal.Priority))
	return deal, true
}

// identifier fetches the listing's UPC/EAN. Transport failures degrade to no
// identifier and are not cached.
func (s *Scanner) identifier(ctx context.Context, itemID string) string {
	if s.identifiers != nil {
		if cached, ok := s.identifiers.Get(itemID); ok {
			s.metrics.IncEnrichment("cache")
			return cached
		}
	}

	detail, err := s.searcher.GetItemDetail(ctx, itemID)
	if err != nil {
		s.metrics.IncEnrichment("error")
		s.logger.Warn("item enrichment failed", zap.String("item_id", itemID), zap.Error(err))
		return ""
	}
	s.metrics.IncEnrichment("network")

	identifier := ""
	if detail != nil {
		identifier = detail.Identifier
	}
	if s.identifiers != nil {
		s.identifiers.Add(itemID, identifier)
	}
	return identifier
}
