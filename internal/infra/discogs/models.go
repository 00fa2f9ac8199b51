package discogs

import "github.com/NasaVasa/cratedigger/internal/infra/money"

type releaseResponse struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Year        int          `json:"year"`
	Artists     []artist     `json:"artists"`
	Labels      []label      `json:"labels"`
	Identifiers []identifier `json:"identifiers"`
	Formats     []format     `json:"formats"`
}

type artist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type label struct {
	Name  string `json:"name"`
	CatNo string `json:"catno"`
}

type identifier struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type format struct {
	Name string `json:"name"`
	Qty  string `json:"qty"`
}

type suggestion struct {
	Currency string                `json:"currency"`
	Value    money.NullableDecimal `json:"value"`
}

// priceSuggestions is keyed by condition grade, e.g. "Very Good Plus (VG+)".
type priceSuggestions map[string]suggestion
