// Package sentiment turns a symbol's news into a structured trading-insight
// report via an AI chat-completions endpoint.
package sentiment

import (
	"context"
	"fmt"
	"strings"

	"github.com/mohamedkhairy/stock-pulse/internal/models"
)

// Analyzer produces a sentiment report for a symbol's news.
//
// AnalyzeStream is the streaming variant: it emits incremental text chunks
// through onChunk and returns the terminal structured report.
type Analyzer interface {
	Analyze(ctx context.Context, symbol string, news models.NewsBundle) (models.SentimentReport, error)
	AnalyzeStream(ctx context.Context, symbol string, news models.NewsBundle, onChunk func(string)) (models.SentimentReport, error)
}

const (
	maxTopArticles     = 5
	maxRegularArticles = 10
)

// neutralReport is the degraded report used when analysis is unavailable
func neutralReport(summary string) models.SentimentReport {
	return models.SentimentReport{
		Sentiment:      "neutral",
		Summary:        summary,
		KeyPoints:      []string{},
		TradingSignals: []string{},
		Confidence:     "low",
	}
}

// buildPrompt renders the news bundle into the analysis prompt
func buildPrompt(symbol string, news models.NewsBundle) string {
	var b strings.Builder

	if len(news.Top) > 0 {
		b.WriteString("TOP NEWS (Analyst Ratings/Upgrades):\n")
		for i, article := range news.Top {
			if i == maxTopArticles {
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, article.Title)
			if article.Description != "" {
				desc := article.Description
				if len(desc) > 100 {
					desc = desc[:100]
				}
				fmt.Fprintf(&b, "   %s...\n", desc)
			}
		}
		b.WriteString("\n")
	}

	if len(news.Regular) > 0 {
		b.WriteString("RECENT NEWS:\n")
		for i, article := range news.Regular {
			if i == maxRegularArticles {
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, article.Title)
		}
	}

	return fmt.Sprintf(`Analyze these news articles about %s stock and provide:

1. Overall Sentiment (bullish/bearish/neutral)
2. Summary (2-3 sentences)
3. Key Points (3-5 bullet points)
4. Trading Signals (buy/sell/hold with reasoning)

News Articles:
%s

Respond in JSON format:
{
  "sentiment": "bullish/bearish/neutral",
  "summary": "brief summary",
  "key_points": ["point 1", "point 2", "point 3"],
  "trading_signals": ["signal 1", "signal 2"],
  "confidence": "high/medium/low"
}`, symbol, b.String())
}
