// Package ebay implements the listing search provider on top of the eBay
// Browse API.
package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/NasaVasa/cratedigger/internal/domain"
	"github.com/NasaVasa/cratedigger/internal/infra/metrics"
	"github.com/NasaVasa/cratedigger/internal/infra/ratelimit"
	"go.uber.org/zap"
)

const (
	providerName      = "ebay"
	tokenPath         = "/identity/v1/oauth2/token"
	searchPath        = "/buy/browse/v1/item_summary/search"
	itemPath          = "/buy/browse/v1/item/"
	oauthScope        = "https://api.ebay.com/oauth/api_scope"
	marketplaceID     = "EBAY_US"
	recordsCategoryID = "176985"
	tokenRefreshSkew  = 60 * time.Second
	maxErrorBody      = 512
)

type Options struct {
	BaseURL     string
	AppID       string
	CertID      string
	Timeout     time.Duration
	SearchLimit int
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

type Client struct {
	baseURL     string
	appID       string
	certID      string
	searchLimit int
	client      *http.Client
	limiter     *ratelimit.Limiter
	metrics     *metrics.Metrics
	logger      *zap.Logger

	tokenMu      sync.Mutex
	accessToken  string
	tokenExpires time.Time
}

func NewClient(opts Options, limiter *ratelimit.Limiter, m *metrics.Metrics, logger *zap.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	limit := opts.SearchLimit
	if limit <= 0 {
		limit = 200
	}
	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		appID:       opts.AppID,
		certID:      opts.CertID,
		searchLimit: limit,
		client:      httpClient,
		limiter:     limiter,
		metrics:     m,
		logger:      logger.With(zap.String("provider", providerName)),
	}
}

// SearchListings returns fixed-price listings in the records category.
func (c *Client) SearchListings(ctx context.Context, query string) ([]domain.Listing, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(c.searchLimit))
	params.Set("filter", "buyingOptions:{FIXED_PRICE}")
	params.Set("category_ids", recordsCategoryID)

	var payload searchResponse
	found, err := c.get(ctx, searchPath, params, &payload)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &domain.TransportError{Provider: providerName, StatusCode: http.StatusNotFound, Body: "search endpoint not found"}
	}

	listings := make([]domain.Listing, 0, len(payload.ItemSummaries))
	for _, item := range payload.ItemSummaries {
		if item.ItemID == "" || !item.Price.Value.Valid {
			c.logger.Debug("search item skipped", zap.String("item_id", item.ItemID))
			continue
		}
		listing := domain.Listing{
			ItemID:       item.ItemID,
			Title:        item.Title,
			Price:        item.Price.Value.Float(),
			Currency:     item.Price.Currency,
			SellerRating: item.Seller.FeedbackPercentage.Ptr(),
			URL:          item.ItemWebURL,
		}
		if len(item.ShippingOptions) > 0 {
			listing.Shipping = item.ShippingOptions[0].ShippingCost.Value.Float()
		}
		if condition := strings.TrimSpace(item.Condition); condition != "" {
			listing.Condition = &condition
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// GetItemDetail fetches one item for identifier enrichment. It returns nil
// without error when the item no longer exists.
func (c *Client) GetItemDetail(ctx context.Context, itemID string) (*domain.ItemDetail, error) {
	var payload itemResponse
	found, err := c.get(ctx, itemPath+url.PathEscape(itemID), nil, &payload)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	detail := &domain.ItemDetail{
		ItemID:  payload.ItemID,
		Title:   payload.Title,
		Aspects: make([]domain.ItemAspect, 0, len(payload.LocalizedAspects)),
	}
	for _, aspect := range payload.LocalizedAspects {
		detail.Aspects = append(detail.Aspects, domain.ItemAspect{Name: aspect.Name, Value: aspect.Value})
	}
	detail.Identifier = ExtractIdentifier(detail.Aspects)
	return detail, nil
}

// ExtractIdentifier returns the first UPC or EAN aspect value.
func ExtractIdentifier(aspects []domain.ItemAspect) string {
	for _, aspect := range aspects {
		name := strings.ToUpper(aspect.Name)
		if !strings.Contains(name, "UPC") && !strings.Contains(name, "EAN") {
			continue
		}
		if value := strings.TrimSpace(aspect.Value); value != "" {
			return value
		}
	}
	return ""
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) (bool, error) {
	token, err := c.token(ctx)
	if err != nil {
		return false, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set("X-EBAY-C-MARKETPLACE-ID", marketplaceID)
	request.Header.Set("Accept", "application/json")

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		c.metrics.ObserveProvider(providerName, "error", time.Since(start))
		c.logger.Error("ebay request failed", zap.String("path", path), zap.Error(err))
		return false, err
	}
	defer response.Body.Close()

	c.metrics.ObserveProvider(providerName, strconv.Itoa(response.StatusCode), time.Since(start))
	c.logger.Debug("ebay request complete",
		zap.String("path", path),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if response.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if response.StatusCode != http.StatusOK {
		return false, transportError(response)
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

// token returns a client-credentials access token, fetching a new one when
// the cached token is missing or within a minute of expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpires.Add(-tokenRefreshSkew)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", oauthScope)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	request.SetBasicAuth(c.appID, c.certID)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Error("ebay token request failed", zap.Error(err))
		return "", err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", transportError(response)
	}
	var payload tokenResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("ebay token response without access_token")
	}

	c.accessToken = payload.AccessToken
	c.tokenExpires = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	c.logger.Info("ebay token refreshed", zap.Time("expires", c.tokenExpires))
	return c.accessToken, nil
}

func transportError(response *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
	return &domain.TransportError{
		Provider:   providerName,
		StatusCode: response.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
