package ebay

import (
	"net/url"
	"testing"
)

func TestAffiliateURL(t *testing.T) {
	got := AffiliateURL("https://www.ebay.com/itm/111?hash=abc", "5338000000")
	parsed, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := parsed.Query()
	want := map[string]string{
		"hash":   "abc",
		"mkevt":  "1",
		"mkcid":  "1",
		"mkrid":  "711-53200-19255-0",
		"campid": "5338000000",
		"toolid": "10001",
	}
	for key, value := range want {
		if q.Get(key) != value {
			t.Fatalf("%s = %q, want %q (url %s)", key, q.Get(key), value, got)
		}
	}
}

func TestAffiliateURLWithoutCampaign(t *testing.T) {
	raw := "https://www.ebay.com/itm/111"
	if got := AffiliateURL(raw, ""); got != raw {
		t.Fatalf("AffiliateURL = %q, want unchanged", got)
	}
	if got := AffiliateLinker("")(raw); got != raw {
		t.Fatalf("linker = %q, want unchanged", got)
	}
}
