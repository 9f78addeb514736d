package news

import (
	"strings"

	"github.com/mohamedkhairy/stock-pulse/internal/models"
)

// topKeywords marks an article as "top news" (upgrades, downgrades, earnings,
// analyst actions). This is a best-effort keyword heuristic, not a verified
// classification.
var topKeywords = []string{
	"upgrade", "upgrades", "upgraded",
	"downgrade", "downgrades", "downgraded",
	"rating", "ratings", "price target",
	"earnings", "earnings beat", "earnings miss",
	"analyst", "analysts",
	"buy rating", "sell rating", "hold rating",
	"outperform", "underperform",
	"bullish", "bearish",
	"initiate coverage", "initiated coverage",
	"raises price target", "lowers price target",
	"overweight", "underweight",
	"strong buy", "strong sell",
}

// IsTopNews reports whether an article's title or description hits a top-news
// keyword
func IsTopNews(title, description string) bool {
	text := strings.ToLower(title + " " + description)
	for _, keyword := range topKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// Classify splits articles into top and regular news
func Classify(articles []models.NewsArticle) models.NewsBundle {
	bundle := models.NewsBundle{
		Top:     []models.NewsArticle{},
		Regular: []models.NewsArticle{},
	}
	for _, article := range articles {
		if IsTopNews(article.Title, article.Description) {
			bundle.Top = append(bundle.Top, article)
		} else {
			bundle.Regular = append(bundle.Regular, article)
		}
	}
	return bundle
}
