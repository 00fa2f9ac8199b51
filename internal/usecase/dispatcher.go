package usecase

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/NasaVasa/cratedigger/internal/domain"
	"github.com/NasaVasa/cratedigger/internal/infra/metrics"
	"go.uber.org/zap"
)

// LinkBuilder turns a listing URL into the link shown in an alert.
type LinkBuilder func(itemURL string) string

type Dispatcher struct {
	queries   domain.SavedQueryRepository
	listings  domain.ListingRepository
	dedup     *AlertDeduplicator
	messenger domain.Messenger
	link      LinkBuilder
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewDispatcher(
	queries domain.SavedQueryRepository,
	listings domain.ListingRepository,
	dedup *AlertDeduplicator,
	messenger domain.Messenger,
	link LinkBuilder,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Dispatcher {
	if link == nil {
		link = func(itemURL string) string { return itemURL }
	}
	return &Dispatcher{
		queries:   queries,
		listings:  listings,
		dedup:     dedup,
		messenger: messenger,
		link:      link,
		metrics:   m,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch alerts every active saved query whose threshold the deal meets,
// once per recipient and item. A failed delivery is logged and left
// unrecorded so a later cycle can retry it. It returns the number of
// messages delivered.
func (d *Dispatcher) Dispatch(ctx context.Context, deals []domain.Deal) (int, error) {
	if len(deals) == 0 {
		return 0, nil
	}
	queries, err := d.queries.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("load active queries: %w", err)
	}

	sent := 0
	for _, deal := range deals {
		delivered := false
		handled := make(map[int64]bool)
		for _, query := range queries {
			if query.MinDealScore > deal.Score || handled[query.RecipientID] {
				continue
			}
			handled[query.RecipientID] = true

			logger := d.logger.With(zap.Int64("recipient_id", query.RecipientID), zap.String("item_id", deal.ItemID))
			seen, err := d.dedup.Seen(ctx, query.RecipientID, deal.ItemID)
			if err != nil {
				logger.Warn("alert dedup lookup failed", zap.Error(err))
				continue
			}
			if seen {
				continue
			}

			text := FormatDealMessage(deal, d.link(deal.URL))
			if err := d.messenger.Send(ctx, query.RecipientID, text, domain.ModeHTML); err != nil {
				d.metrics.IncAlert(false)
				logger.Error("failed to send alert", zap.Error(err))
				continue
			}
			d.metrics.IncAlert(true)
			sent++
			delivered = true

			if err := d.dedup.Record(ctx, query.RecipientID, deal, d.now()); err != nil {
				logger.Error("failed to record alert", zap.Error(err))
			}
		}

		if delivered {
			if err := d.listings.MarkNotified(ctx, deal.ItemID, d.now()); err != nil {
				d.logger.Warn("failed to mark listing notified", zap.String("item_id", deal.ItemID), zap.Error(err))
			}
		}
	}
	return sent, nil
}

// FormatDealMessage renders a deal as Telegram HTML.
func FormatDealMessage(deal domain.Deal, link string) string {
	median := 0.0
	if deal.Match.MedianPrice != nil {
		median = *deal.Match.MedianPrice
	}

	lines := []string{
		fmt.Sprintf("<b>DEAL FOUND</b> [%s]", strings.ToUpper(string(deal.Priority))),
		"",
		fmt.Sprintf("<b>%s - %s</b>", html.EscapeString(deal.Match.Artist), html.EscapeString(deal.Match.Title)),
		fmt.Sprintf("Price: $%.2f + $%.2f shipping", deal.Price, deal.Shipping),
		fmt.Sprintf("Discogs Median: $%.2f", median),
		fmt.Sprintf("<b>You Save: %d%%</b>", int(deal.Score*100)),
	}
	if deal.Condition != nil {
		lines = append(lines, "Condition: "+html.EscapeString(*deal.Condition))
	}
	lines = append(lines,
		fmt.Sprintf("Match: %s (%d%%)", html.EscapeString(string(deal.Match.Tier)), int(deal.Match.Confidence*100)),
		"",
		fmt.Sprintf(`<a href="%s">View on eBay</a>`, html.EscapeString(link)),
	)
	return strings.Join(lines, "\n")
}
