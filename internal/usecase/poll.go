package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NasaVasa/cratedigger/internal/domain"
	"go.uber.org/zap"
)

// A query is polled when at least its PollMinutes have passed, minus this
// slack so loop timer jitter does not push it into the next cycle.
const pollSlack = time.Minute

type dealScanner interface {
	ScanAndScore(ctx context.Context, query string) ([]domain.Deal, error)
}

type dealDispatcher interface {
	Dispatch(ctx context.Context, deals []domain.Deal) (int, error)
}

// Poller is the body of the poll loop.
type Poller struct {
	queries    domain.SavedQueryRepository
	scanner    dealScanner
	dispatcher dealDispatcher
	logger     *zap.Logger
	now        func() time.Time

	lastPolled map[uint]time.Time
}

func NewPoller(queries domain.SavedQueryRepository, scanner dealScanner, dispatcher dealDispatcher, logger *zap.Logger) *Poller {
	return &Poller{
		queries:    queries,
		scanner:    scanner,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
		lastPolled: make(map[uint]time.Time),
	}
}

// PollOnce scans every due active query, keeps deals at or above the query's
// own threshold and dispatches them. A failing query does not stop the
// others; their errors are joined into the result. Queries with the same text
// share one scan per cycle. PollOnce is not safe for concurrent use.
func (p *Poller) PollOnce(ctx context.Context) error {
	queries, err := p.queries.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("load active queries: %w", err)
	}

	now := p.now()
	scans := make(map[string][]domain.Deal)
	var errs []error
	for _, query := range queries {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if !p.due(query, now) {
			continue
		}
		logger := p.logger.With(zap.Uint("query_id", query.ID), zap.String("query", query.Query))

		key := strings.ToLower(strings.TrimSpace(query.Query))
		deals, scanned := scans[key]
		if !scanned {
			deals, err = p.scanner.ScanAndScore(ctx, query.Query)
			if err != nil {
				logger.Error("scan failed", zap.Error(err))
				errs = append(errs, fmt.Errorf("query %d: %w", query.ID, err))
				continue
			}
			scans[key] = deals
		}
		p.lastPolled[query.ID] = now

		filtered := FilterDeals(deals, query.MinDealScore)
		sent := 0
		if len(filtered) > 0 {
			sent, err = p.dispatcher.Dispatch(ctx, filtered)
			if err != nil {
				logger.Error("dispatch failed", zap.Error(err))
				errs = append(errs, fmt.Errorf("query %d: %w", query.ID, err))
				continue
			}
		}
		logger.Info("query polled",
			zap.Int("deals", len(deals)),
			zap.Int("above_threshold", len(filtered)),
			zap.Int("alerts_sent", sent),
		)
	}
	return errors.Join(errs...)
}

func (p *Poller) due(query domain.SavedQuery, now time.Time) bool {
	last, ok := p.lastPolled[query.ID]
	if !ok || query.PollMinutes <= 0 {
		return true
	}
	return now.Sub(last) >= time.Duration(query.PollMinutes)*time.Minute-pollSlack
}
