package ebay

import "net/url"

// AffiliateURL appends eBay Partner Network tracking parameters to a listing
// URL. Existing query parameters are kept; tracking keys are overwritten.
func AffiliateURL(itemURL, campaignID string) string {
	if campaignID == "" || itemURL == "" {
		return itemURL
	}
	parsed, err := url.Parse(itemURL)
	if err != nil {
		return itemURL
	}
	query := parsed.Query()
	query.Set("mkevt", "1")
	query.Set("mkcid", "1")
	query.Set("mkrid", "711-53200-19255-0")
	query.Set("campid", campaignID)
	query.Set("toolid", "10001")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// AffiliateLinker binds AffiliateURL to a campaign for use as a link builder.
func AffiliateLinker(campaignID string) func(string) string {
	return func(itemURL string) string {
		return AffiliateURL(itemURL, campaignID)
	}
}
