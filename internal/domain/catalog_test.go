package domain

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestNormalizeCatalogNo(t *testing.T) {
	tests := map[string]string{
		"BLP-4003":   "BLP4003",
		"blp 4003":   "BLP4003",
		"MFSL 1-234": "MFSL1234",
		"cl_1355.":   "CL1355",
		"":           "",
	}
	for in, want := range tests {
		if got := NormalizeCatalogNo(in); got != want {
			t.Fatalf("NormalizeCatalogNo(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeCatalogNoProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("idempotent", prop.ForAll(
		func(s string) bool {
			once := NormalizeCatalogNo(s)
			return NormalizeCatalogNo(once) == once
		},
		gen.RegexMatch(`[a-zA-Z0-9 ._\-]{0,20}`),
	))

	properties.Property("separator insensitive", prop.ForAll(
		func(prefix, digits string, sep int) bool {
			separators := []string{"", " ", "-", "_", "."}
			joined := prefix + separators[sep] + digits
			return NormalizeCatalogNo(joined) == NormalizeCatalogNo(prefix+digits)
		},
		gen.AlphaString(),
		gen.NumString(),
		gen.IntRange(0, 4),
	))

	properties.Property("no separators remain", prop.ForAll(
		func(s string) bool {
			return !strings.ContainsAny(NormalizeCatalogNo(s), " -_.")
		},
		gen.RegexMatch(`[a-zA-Z0-9 ._\-]{0,20}`),
	))

	properties.TestingRun(t)
}

func TestListingTotal(t *testing.T) {
	if got := (Listing{Price: 20, Shipping: 4.5}).Total(); got != 24.5 {
		t.Fatalf("Total = %v, want 24.5", got)
	}
}

func TestCatalogEntryPriced(t *testing.T) {
	median, low := 30.0, 10.0
	if (CatalogEntry{MedianPrice: &median}).Priced() {
		t.Fatal("entry with only a median should not count as priced")
	}
	if !(CatalogEntry{MedianPrice: &median, LowPrice: &low}).Priced() {
		t.Fatal("entry with both prices should be priced")
	}
}
