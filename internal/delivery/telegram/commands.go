package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/NasaVasa/cratedigger/internal/domain"
)

const StartText = `Welcome to CrateDigger!

I find underpriced vinyl, CD and cassette deals on eBay by comparing them against Discogs median prices.

`

const HelpText = `Commands:
/start - welcome message
/add_search <query> - add a saved search
/my_searches - list your saved searches
/remove_search <id> - remove a search by ID
/set_threshold <value> - set minimum deal score (0.0 to 1.0)
/add_release <discogs_release_id> - add a release to the price catalog
/pending - show deals not alerted yet
/help - show this help
`

// Telegram rejects messages longer than 4096 characters.
const maxMessageLen = 3800

var ErrInvalidArguments = errors.New("invalid arguments")

func ParseQuery(args string) (string, error) {
	query := strings.Join(strings.Fields(args), " ")
	if query == "" {
		return "", ErrInvalidArguments
	}
	return query, nil
}

func ParseSearchID(args string) (uint, error) {
	idStr := strings.TrimSpace(args)
	if idStr == "" {
		return 0, ErrInvalidArguments
	}
	value, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || value == 0 {
		return 0, ErrInvalidArguments
	}
	return uint(value), nil
}

func ParseThreshold(args string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(args), 64)
	if err != nil {
		return 0, ErrInvalidArguments
	}
	return value, nil
}

// ParseReleaseID accepts a bare id or a Discogs release reference such as
// "r249504" or "[r249504]".
func ParseReleaseID(args string) (int64, error) {
	idStr := strings.TrimSpace(args)
	idStr = strings.TrimPrefix(strings.TrimSuffix(idStr, "]"), "[")
	idStr = strings.TrimPrefix(strings.ToLower(idStr), "r")
	value, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || value <= 0 {
		return 0, ErrInvalidArguments
	}
	return value, nil
}

func formatSearches(searches []domain.SavedQuery) string {
	var builder strings.Builder
	builder.WriteString("Your searches:\n")
	for _, s := range searches {
		status := "inactive"
		if s.Active {
			status = "active"
		}
		builder.WriteString(fmt.Sprintf("[%d] %s (%s, min score %.2f)\n", s.ID, s.Query, status, s.MinDealScore))
	}
	return builder.String()
}

func formatPending(listings []domain.Listing) string {
	header := "Deals not alerted yet:\n"
	var builder strings.Builder
	builder.WriteString(header)
	for i, listing := range listings {
		score := 0.0
		if listing.DealScore != nil {
			score = *listing.DealScore
		}
		block := fmt.Sprintf("%d) %s\n$%.2f + $%.2f shipping, save %d%%\n%s\n\n",
			i+1, listing.Title, listing.Price, listing.Shipping, int(score*100), listing.URL)
		if builder.Len()+len(block) > maxMessageLen {
			builder.WriteString(fmt.Sprintf("...and %d more", len(listings)-i))
			break
		}
		builder.WriteString(block)
	}
	return builder.String()
}
