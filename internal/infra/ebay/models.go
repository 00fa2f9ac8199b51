package ebay

import "github.com/NasaVasa/cratedigger/internal/infra/money"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type searchResponse struct {
	Total         int           `json:"total"`
	ItemSummaries []itemSummary `json:"itemSummaries"`
}

type itemSummary struct {
	ItemID          string           `json:"itemId"`
	Title           string           `json:"title"`
	Price           amount           `json:"price"`
	Condition       string           `json:"condition"`
	Seller          seller           `json:"seller"`
	Image           image            `json:"image"`
	ItemWebURL      string           `json:"itemWebUrl"`
	ShippingOptions []shippingOption `json:"shippingOptions"`
}

type amount struct {
	Value    money.NullableDecimal `json:"value"`
	Currency string                `json:"currency"`
}

type seller struct {
	Username           string                `json:"username"`
	FeedbackPercentage money.NullableDecimal `json:"feedbackPercentage"`
}

type image struct {
	ImageURL string `json:"imageUrl"`
}

type shippingOption struct {
	ShippingCostType string `json:"shippingCostType"`
	ShippingCost     amount `json:"shippingCost"`
}

type itemResponse struct {
	ItemID           string            `json:"itemId"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Price            amount            `json:"price"`
	Condition        string            `json:"condition"`
	ItemWebURL       string            `json:"itemWebUrl"`
	LocalizedAspects []localizedAspect `json:"localizedAspects"`
}

type localizedAspect struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}
