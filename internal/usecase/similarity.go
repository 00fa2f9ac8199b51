package usecase

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// TokenSortRatio scores two strings on a 0-100 scale, ignoring case,
// punctuation and word order. Both sides are reduced to their sorted
// lowercase alphanumeric tokens and compared with the indel similarity
// 200*LCS/(len(a)+len(b)).
func TokenSortRatio(a, b string) float64 {
	left := tokenSortKey(a)
	right := tokenSortKey(b)
	if left == "" || right == "" {
		return 0
	}
	total := utf8.RuneCountInString(left) + utf8.RuneCountInString(right)
	return 200 * float64(edlib.LCS(left, right)) / float64(total)
}

func tokenSortKey(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	tokens := strings.Fields(cleaned)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
