// Package discogs fetches release metadata and marketplace price suggestions
// from the Discogs API.
package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/NasaVasa/cratedigger/internal/domain"
	"github.com/NasaVasa/cratedigger/internal/infra/metrics"
	"github.com/NasaVasa/cratedigger/internal/infra/ratelimit"
	"go.uber.org/zap"
)

const (
	providerName = "discogs"
	userAgent    = "CrateDigger/1.0"
	gradeMedian  = "Very Good Plus (VG+)"
	gradeLow     = "Good (G)"
	maxErrorBody = 512
)

// Discogs disambiguates artists with a numeric suffix such as "Miles Davis (2)".
var artistSuffix = regexp.MustCompile(`\s*\(\d+\)$`)

type Client struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewClient(baseURL, token string, httpClient *http.Client, limiter *ratelimit.Limiter, m *metrics.Metrics, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  httpClient,
		limiter: limiter,
		metrics: m,
		logger:  logger.With(zap.String("provider", providerName)),
	}
}

// GetRelease returns nil without error when the release does not exist.
func (c *Client) GetRelease(ctx context.Context, releaseID int64) (*domain.CatalogEntry, error) {
	var payload releaseResponse
	found, err := c.get(ctx, fmt.Sprintf("/releases/%d", releaseID), &payload)
	if err != nil || !found {
		return nil, err
	}
	return parseRelease(payload), nil
}

// GetPriceStats returns the VG+ suggestion as the median and the Good
// suggestion as the low price. A release without a VG+ suggestion has no
// usable price data and yields nil.
func (c *Client) GetPriceStats(ctx context.Context, releaseID int64) (*domain.PriceStats, error) {
	var payload priceSuggestions
	found, err := c.get(ctx, fmt.Sprintf("/marketplace/price_suggestions/%d", releaseID), &payload)
	if err != nil || !found {
		return nil, err
	}

	median, ok := payload[gradeMedian]
	if !ok || !median.Value.Valid {
		return nil, nil
	}
	stats := &domain.PriceStats{Median: median.Value.Float(), Low: median.Value.Float()}
	if low, ok := payload[gradeLow]; ok && low.Value.Valid {
		stats.Low = low.Value.Float()
	}
	return stats, nil
}

func parseRelease(payload releaseResponse) *domain.CatalogEntry {
	entry := &domain.CatalogEntry{
		ReleaseID: payload.ID,
		Title:     payload.Title,
	}
	if len(payload.Artists) > 0 {
		entry.Artist = artistSuffix.ReplaceAllString(payload.Artists[0].Name, "")
	}
	if len(payload.Labels) > 0 {
		entry.CatalogNo = payload.Labels[0].CatNo
	}
	for _, ident := range payload.Identifiers {
		if ident.Type == "Barcode" && ident.Value != "" {
			entry.Barcode = ident.Value
			break
		}
	}
	if len(payload.Formats) > 0 {
		entry.Format = payload.Formats[0].Name
	}
	return entry
}

func (c *Client) get(ctx context.Context, path string, out any) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, err
	}
	request.Header.Set("Authorization", "Discogs token="+c.token)
	request.Header.Set("User-Agent", userAgent)
	request.Header.Set("Accept", "application/json")

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		c.metrics.ObserveProvider(providerName, "error", time.Since(start))
		c.logger.Error("discogs request failed", zap.String("path", path), zap.Error(err))
		return false, err
	}
	defer response.Body.Close()

	c.metrics.ObserveProvider(providerName, strconv.Itoa(response.StatusCode), time.Since(start))
	c.logger.Debug("discogs request complete",
		zap.String("path", path),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	switch response.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return false, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
		return false, &domain.TransportError{
			Provider:   providerName,
			StatusCode: response.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}
