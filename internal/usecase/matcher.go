package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/NasaVasa/cratedigger/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultFuzzyScoreCutoff    = 85.0
	DefaultFuzzyCandidateLimit = 50
)

// Matches label catalog numbers such as "BLP-4003", "MFSL 1-234" or "APP 3014".
var catalogNoPattern = regexp.MustCompile(`\b([A-Z]{1,5}[\s\-]?\d+(?:-\d+)*)\b`)

// ExtractCatalogNumber returns the first catalog-number-shaped token of a
// listing title, or "" when the title has none.
func ExtractCatalogNumber(title string) string {
	match := catalogNoPattern.FindStringSubmatch(title)
	if match == nil {
		return ""
	}
	return match[1]
}

type MatcherConfig struct {
	// ScoreCutoff is the minimum TokenSortRatio (0-100) a fuzzy candidate needs.
	ScoreCutoff float64
	// CandidateLimit caps the text-index candidates compared per title.
	CandidateLimit int
}

type tierFunc func(ctx context.Context, title, identifier string) (*domain.MatchResult, error)

type tier struct {
	name    domain.MatchTier
	resolve tierFunc
}

// Matcher links a listing title to a catalog entry. Tiers run cheapest first
// and the first hit wins.
type Matcher struct {
	catalog domain.CatalogRepository
	cfg     MatcherConfig
	tiers   []tier
	logger  *zap.Logger
}

func NewMatcher(catalog domain.CatalogRepository, cfg MatcherConfig, logger *zap.Logger) *Matcher {
	if cfg.ScoreCutoff <= 0 {
		cfg.ScoreCutoff = DefaultFuzzyScoreCutoff
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = DefaultFuzzyCandidateLimit
	}
	m := &Matcher{catalog: catalog, cfg: cfg, logger: logger}
	m.tiers = []tier{
		{name: domain.TierCatalogNo, resolve: m.matchCatalogNo},
		{name: domain.TierBarcode, resolve: m.matchBarcode},
		{name: domain.TierFuzzy, resolve: m.matchFuzzy},
	}
	return m
}

// Resolve returns nil when no tier matches. Errors are store failures only.
func (m *Matcher) Resolve(ctx context.Context, title, identifier string) (*domain.MatchResult, error) {
	for _, t := range m.tiers {
		result, err := t.resolve(ctx, title, identifier)
		if err != nil {
			return nil, fmt.Errorf("%s tier: %w", t.name, err)
		}
		if result != nil {
			return result, nil
		}
	}
	return nil, nil
}

func (m *Matcher) matchCatalogNo(ctx context.Context, title, _ string) (*domain.MatchResult, error) {
	catalogNo := ExtractCatalogNumber(title)
	if catalogNo == "" {
		return nil, nil
	}

	entry, err := m.catalog.FindByCatalogNo(ctx, catalogNo)
	if errors.Is(err, domain.ErrNotFound) {
		entry, err = m.catalog.FindByNormalizedCatalogNo(ctx, domain.NormalizeCatalogNo(catalogNo))
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return domain.NewMatchResult(*entry, domain.TierCatalogNo, 1.0), nil
}

func (m *Matcher) matchBarcode(ctx context.Context, _, identifier string) (*domain.MatchResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, nil
	}
	entry, err := m.catalog.FindByBarcode(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return domain.NewMatchResult(*entry, domain.TierBarcode, 1.0), nil
}

func (m *Matcher) matchFuzzy(ctx context.Context, title, _ string) (*domain.MatchResult, error) {
	candidates, err := m.catalog.SearchText(ctx, title, m.cfg.CandidateLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	bestIndex := -1
	bestScore := 0.0
	for i, candidate := range candidates {
		score := TokenSortRatio(title, candidate.Artist+" "+candidate.Title)
		if score > bestScore {
			bestIndex = i
			bestScore = score
		}
	}
	if bestIndex < 0 || bestScore < m.cfg.ScoreCutoff {
		m.logger.Debug("fuzzy match below cutoff",
			zap.String("title", title),
			zap.Int("candidates", len(candidates)),
			zap.Float64("best_score", bestScore),
		)
		return nil, nil
	}
	return domain.NewMatchResult(candidates[bestIndex], domain.TierFuzzy, bestScore/100), nil
}
