package quote

import (
	"sort"
	"strings"

	"github.com/mohamedkhairy/stock-pulse/internal/models"
)

// logoSuffixes are corporate designators stripped before guessing a domain
var logoSuffixes = []string{"inc", "inc.", "corp", "corp.", "corporation", "ltd", "ltd.", "co", "co.", "plc", "company"}

// LogoURL guesses a company logo URL from the company name. Best effort: the
// first meaningful word of the name becomes a .com domain on the Clearbit
// logo service. Returns "" when no usable word exists.
func LogoURL(companyName string) string {
	fields := strings.Fields(strings.ToLower(companyName))
	for _, word := range fields {
		word = strings.Trim(word, ".,&()")
		if len(word) <= 2 {
			continue
		}
		skip := false
		for _, suffix := range logoSuffixes {
			if word == suffix {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		return "https://logo.clearbit.com/" + word + ".com"
	}
	return ""
}

const (
	maxPrefixMatches   = 5
	maxContainsMatches = 5
	maxSearchResults   = 10
)

// SearchAssets ranks assets against a free-text query. An exact symbol match
// ranks first, then symbol prefixes, then symbol or name substrings, capped
// at 10 results. Ties within a tier keep alphabetical symbol order.
func SearchAssets(assets []models.Asset, query string) []models.Asset {
	query = strings.ToUpper(strings.TrimSpace(query))
	if query == "" {
		return []models.Asset{}
	}

	var exact, prefix, contains []models.Asset
	for _, asset := range assets {
		symbol := strings.ToUpper(asset.Symbol)
		switch {
		case symbol == query:
			exact = append(exact, asset)
		case strings.HasPrefix(symbol, query):
			prefix = append(prefix, asset)
		case strings.Contains(symbol, query) || strings.Contains(strings.ToUpper(asset.Name), query):
			contains = append(contains, asset)
		}
	}

	bySymbol := func(list []models.Asset) {
		sort.Slice(list, func(i, j int) bool { return list[i].Symbol < list[j].Symbol })
	}
	bySymbol(prefix)
	bySymbol(contains)

	if len(prefix) > maxPrefixMatches {
		prefix = prefix[:maxPrefixMatches]
	}
	if len(contains) > maxContainsMatches {
		contains = contains[:maxContainsMatches]
	}

	results := make([]models.Asset, 0, len(exact)+len(prefix)+len(contains))
	results = append(results, exact...)
	results = append(results, prefix...)
	results = append(results, contains...)
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}
	return results
}
