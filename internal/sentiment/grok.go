package sentiment

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mohamedkhairy/stock-pulse/internal/config"
	"github.com/mohamedkhairy/stock-pulse/internal/models"
	"github.com/mohamedkhairy/stock-pulse/pkg/logger"
)

const systemPrompt = "You are a financial analyst providing concise stock trading insights based on news."

// GrokAnalyzer calls a Grok-compatible chat-completions endpoint
type GrokAnalyzer struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewGrokAnalyzer creates an analyzer from configuration
func NewGrokAnalyzer(cfg config.SentimentConfig) *GrokAnalyzer {
	return &GrokAnalyzer{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatStreamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (g *GrokAnalyzer) newRequest(ctx context.Context, symbol string, news models.NewsBundle, stream bool) (*http.Request, error) {
	payload := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(symbol, news)},
		},
		Temperature: 0.3,
		MaxTokens:   500,
		Stream:      stream,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func checkStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return models.NewProviderError("sentiment.analyze", fmt.Errorf("invalid API key"))
	case http.StatusTooManyRequests:
		return models.NewProviderError("sentiment.analyze", fmt.Errorf("rate limit exceeded"))
	default:
		return models.NewProviderError("sentiment.analyze", fmt.Errorf("HTTP %d", resp.StatusCode))
	}
}

// parseReport interprets the model output as a structured report. Non-JSON
// content is a parse failure, degraded to a low-confidence report rather than
// propagated.
func parseReport(symbol, content string) models.SentimentReport {
	var report models.SentimentReport
	if err := json.Unmarshal([]byte(content), &report); err != nil {
		logger.Warn("sentiment response was not JSON",
			logger.String("symbol", symbol),
			logger.ErrorField(models.NewParseError("sentiment.parse", err)),
		)
		summary := content
		if len(summary) > 200 {
			summary = summary[:200]
		}
		degraded := neutralReport(summary)
		point := content
		if len(point) > 100 {
			point = point[:100]
		}
		degraded.KeyPoints = []string{point}
		return degraded
	}
	if report.KeyPoints == nil {
		report.KeyPoints = []string{}
	}
	if report.TradingSignals == nil {
		report.TradingSignals = []string{}
	}
	return report
}

// Analyze requests a sentiment report for a symbol's news
func (g *GrokAnalyzer) Analyze(ctx context.Context, symbol string, news models.NewsBundle) (models.SentimentReport, error) {
	if g.apiKey == "" {
		return neutralReport("Sentiment API key not configured"), nil
	}
	if news.Empty() {
		return neutralReport("No news available for analysis"), nil
	}

	req, err := g.newRequest(ctx, symbol, news, false)
	if err != nil {
		return neutralReport("Analysis unavailable"), err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return neutralReport("Analysis unavailable"), models.NewProviderError("sentiment.analyze", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return neutralReport("Analysis unavailable"), err
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return neutralReport("Analysis unavailable"), models.NewParseError("sentiment.decode", err)
	}
	if len(decoded.Choices) == 0 {
		return neutralReport("Analysis unavailable"), models.NewParseError("sentiment.decode", fmt.Errorf("no choices in response"))
	}

	report := parseReport(symbol, decoded.Choices[0].Message.Content)
	logger.Debug("sentiment analysis complete",
		logger.String("symbol", symbol),
		logger.String("sentiment", report.Sentiment),
		logger.String("confidence", report.Confidence),
	)
	return report, nil
}

// AnalyzeStream requests a streaming analysis, emitting incremental text
// chunks through onChunk and returning the terminal structured report parsed
// from the accumulated text
func (g *GrokAnalyzer) AnalyzeStream(ctx context.Context, symbol string, news models.NewsBundle, onChunk func(string)) (models.SentimentReport, error) {
	if g.apiKey == "" {
		return neutralReport("Sentiment API key not configured"), nil
	}
	if news.Empty() {
		return neutralReport("No news available for analysis"), nil
	}

	req, err := g.newRequest(ctx, symbol, news, true)
	if err != nil {
		return neutralReport("Analysis unavailable"), err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return neutralReport("Analysis unavailable"), models.NewProviderError("sentiment.analyze", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return neutralReport("Analysis unavailable"), err
	}

	var accumulated strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var event chatStreamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			logger.Warn("skipping malformed stream event",
				logger.String("symbol", symbol),
				logger.ErrorField(err),
			)
			continue
		}
		if len(event.Choices) == 0 {
			continue
		}
		chunk := event.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		accumulated.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	if err := scanner.Err(); err != nil {
		return neutralReport("Analysis unavailable"), models.NewProviderError("sentiment.stream", err)
	}

	return parseReport(symbol, accumulated.String()), nil
}
