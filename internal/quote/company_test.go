package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mohamedkhairy/stock-pulse/internal/models"
)

func TestLogoURL(t *testing.T) {
	tests := []struct {
		name     string
		company  string
		expected string
	}{
		{"simple name", "Tesla Inc", "https://logo.clearbit.com/tesla.com"},
		{"multi word", "Advanced Micro Devices, Inc.", "https://logo.clearbit.com/advanced.com"},
		{"short words and designators skipped", "3M Company", ""},
		{"trailing comma stripped", "Apple, Inc.", "https://logo.clearbit.com/apple.com"},
		{"empty name", "", ""},
		{"only designators", "Inc.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LogoURL(tt.company))
		})
	}
}

func TestSearchAssetsRanking(t *testing.T) {
	assets := []models.Asset{
		{Symbol: "AAPL", Name: "Apple Inc"},
		{Symbol: "AAP", Name: "Advance Auto Parts"},
		{Symbol: "AA", Name: "Alcoa Corp"},
		{Symbol: "TSLA", Name: "Tesla Inc"},
		{Symbol: "SNAP", Name: "Snap Inc"},
	}

	results := SearchAssets(assets, "aa")
	// Exact first, then prefixes alphabetically, then substring matches
	assert.Equal(t, "AA", results[0].Symbol)
	assert.Equal(t, "AAP", results[1].Symbol)
	assert.Equal(t, "AAPL", results[2].Symbol)
}

func TestSearchAssetsNameSubstring(t *testing.T) {
	assets := []models.Asset{
		{Symbol: "TSLA", Name: "Tesla Inc"},
		{Symbol: "AAPL", Name: "Apple Inc"},
	}

	results := SearchAssets(assets, "tesla")
	assert.Len(t, results, 1)
	assert.Equal(t, "TSLA", results[0].Symbol)
}

func TestSearchAssetsCapsResults(t *testing.T) {
	var assets []models.Asset
	for _, sym := range []string{"AB", "ABC", "ABCD", "ABCE", "ABCF", "ABCG", "ABCH", "ABCI", "XAB", "YAB", "ZAB"} {
		assets = append(assets, models.Asset{Symbol: sym, Name: sym + " Corp"})
	}

	results := SearchAssets(assets, "AB")
	assert.LessOrEqual(t, len(results), 10)
	assert.Equal(t, "AB", results[0].Symbol)
	// Prefix tier caps at 5 alphabetically
	assert.Equal(t, []string{"ABC", "ABCD", "ABCE", "ABCF", "ABCG"},
		[]string{results[1].Symbol, results[2].Symbol, results[3].Symbol, results[4].Symbol, results[5].Symbol})
}

func TestSearchAssetsEmptyQuery(t *testing.T) {
	assets := []models.Asset{{Symbol: "TSLA", Name: "Tesla Inc"}}
	assert.Empty(t, SearchAssets(assets, "  "))
}
