package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/stock-pulse/internal/cache"
	"github.com/mohamedkhairy/stock-pulse/internal/config"
	"github.com/mohamedkhairy/stock-pulse/internal/models"
)

func testNews() models.NewsBundle {
	return models.NewsBundle{
		Top: []models.NewsArticle{
			{Title: "Analyst upgrades TSLA to buy", Description: "Price target raised"},
		},
		Regular: []models.NewsArticle{
			{Title: "Tesla opens new factory"},
		},
	}
}

func newTestAnalyzer(serverURL string) *GrokAnalyzer {
	return NewGrokAnalyzer(config.SentimentConfig{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "grok-beta",
		Timeout: 5 * time.Second,
	})
}

func chatCompletion(content string) chatResponse {
	var resp chatResponse
	resp.Choices = []struct {
		Message chatMessage `json:"message"`
	}{{Message: chatMessage{Role: "assistant", Content: content}}}
	return resp
}

func TestAnalyzeParsesStructuredReport(t *testing.T) {
	report := models.SentimentReport{
		Sentiment:      "bullish",
		Summary:        "Strong upgrade momentum.",
		KeyPoints:      []string{"analyst upgrade", "new factory"},
		TradingSignals: []string{"buy on dips"},
		Confidence:     "high",
	}
	content, err := json.Marshal(report)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "grok-beta", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "TSLA")
		assert.Contains(t, req.Messages[1].Content, "Analyst upgrades TSLA to buy")

		json.NewEncoder(w).Encode(chatCompletion(string(content)))
	}))
	defer server.Close()

	got, err := newTestAnalyzer(server.URL).Analyze(context.Background(), "TSLA", testNews())
	require.NoError(t, err)
	assert.Equal(t, report, got)
}

func TestAnalyzeNonJSONContentDegrades(t *testing.T) {
	content := "The stock looks strong based on recent analyst activity. " + strings.Repeat("x", 300)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatCompletion(content))
	}))
	defer server.Close()

	got, err := newTestAnalyzer(server.URL).Analyze(context.Background(), "TSLA", testNews())
	require.NoError(t, err)

	assert.Equal(t, "neutral", got.Sentiment)
	assert.Equal(t, "low", got.Confidence)
	assert.Equal(t, content[:200], got.Summary)
	require.Len(t, got.KeyPoints, 1)
	assert.Equal(t, content[:100], got.KeyPoints[0])
	assert.Empty(t, got.TradingSignals)
}

func TestAnalyzeWithoutAPIKey(t *testing.T) {
	analyzer := NewGrokAnalyzer(config.SentimentConfig{
		BaseURL: "http://localhost:1",
		Model:   "grok-beta",
		Timeout: time.Second,
	})

	got, err := analyzer.Analyze(context.Background(), "TSLA", testNews())
	require.NoError(t, err)
	assert.Equal(t, "neutral", got.Sentiment)
	assert.Equal(t, "Sentiment API key not configured", got.Summary)
}

func TestAnalyzeEmptyNews(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty news")
	}))
	defer server.Close()

	got, err := newTestAnalyzer(server.URL).Analyze(context.Background(), "TSLA", models.NewsBundle{})
	require.NoError(t, err)
	assert.Equal(t, "No news available for analysis", got.Summary)
	assert.Equal(t, "neutral", got.Sentiment)
}

func TestAnalyzeRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	got, err := newTestAnalyzer(server.URL).Analyze(context.Background(), "TSLA", testNews())
	require.Error(t, err)
	assert.Equal(t, models.FailureProviderUnavailable, models.FailureKindOf(err))
	assert.Equal(t, "Analysis unavailable", got.Summary)
}

func TestAnalyzeUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestAnalyzer(server.URL).Analyze(context.Background(), "TSLA", testNews())
	require.Error(t, err)
	assert.Equal(t, models.FailureProviderUnavailable, models.FailureKindOf(err))
}

func TestAnalyzeStreamAccumulatesChunks(t *testing.T) {
	report := `{"sentiment":"bearish","summary":"Weak demand.","key_points":["slowing sales"],"trading_signals":["sell"],"confidence":"medium"}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		// Split the report into SSE delta events
		half := len(report) / 2
		for _, chunk := range []string{report[:half], report[half:]} {
			event := chatStreamEvent{}
			event.Choices = []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			}{{}}
			event.Choices[0].Delta.Content = chunk
			payload, err := json.Marshal(event)
			require.NoError(t, err)
			fmt.Fprintf(w, "data: %s\n\n", payload)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	var chunks []string
	got, err := newTestAnalyzer(server.URL).AnalyzeStream(context.Background(), "TSLA", testNews(), func(chunk string) {
		chunks = append(chunks, chunk)
	})
	require.NoError(t, err)

	assert.Len(t, chunks, 2)
	assert.Equal(t, report, strings.Join(chunks, ""))
	assert.Equal(t, "bearish", got.Sentiment)
	assert.Equal(t, "Weak demand.", got.Summary)
	assert.Equal(t, []string{"slowing sales"}, got.KeyPoints)
	assert.Equal(t, "medium", got.Confidence)
}

func TestAnalyzeStreamSkipsMalformedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {not json}\n\n")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"content":"plain text analysis"}}]}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	got, err := newTestAnalyzer(server.URL).AnalyzeStream(context.Background(), "TSLA", testNews(), nil)
	require.NoError(t, err)
	assert.Equal(t, "neutral", got.Sentiment)
	assert.Equal(t, "plain text analysis", got.Summary)
}

type countingAnalyzer struct {
	report models.SentimentReport
	err    error
	calls  int
}

func (c *countingAnalyzer) Analyze(ctx context.Context, symbol string, news models.NewsBundle) (models.SentimentReport, error) {
	c.calls++
	return c.report, c.err
}

func (c *countingAnalyzer) AnalyzeStream(ctx context.Context, symbol string, news models.NewsBundle, onChunk func(string)) (models.SentimentReport, error) {
	c.calls++
	if c.err == nil && onChunk != nil {
		onChunk(c.report.Summary)
	}
	return c.report, c.err
}

func TestCachedAnalyzerServesFromCache(t *testing.T) {
	inner := &countingAnalyzer{report: models.SentimentReport{
		Sentiment:  "bullish",
		Summary:    "Up and to the right.",
		Confidence: "high",
	}}
	cached := NewCachedAnalyzer(inner, cache.NewMemoryStore(), 30*time.Minute)

	first, err := cached.Analyze(context.Background(), "tsla", testNews())
	require.NoError(t, err)
	second, err := cached.Analyze(context.Background(), "TSLA", testNews())
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "second call should hit the cache")
	assert.Equal(t, first, second)
}

func TestCachedAnalyzerDoesNotCacheFailures(t *testing.T) {
	inner := &countingAnalyzer{err: errors.New("upstream down")}
	cached := NewCachedAnalyzer(inner, cache.NewMemoryStore(), 30*time.Minute)

	_, err := cached.Analyze(context.Background(), "TSLA", testNews())
	require.Error(t, err)
	_, err = cached.Analyze(context.Background(), "TSLA", testNews())
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedAnalyzerStreamReplaysCachedReport(t *testing.T) {
	inner := &countingAnalyzer{report: models.SentimentReport{
		Sentiment: "neutral",
		Summary:   "Mixed signals.",
	}}
	cached := NewCachedAnalyzer(inner, cache.NewMemoryStore(), 30*time.Minute)

	_, err := cached.Analyze(context.Background(), "TSLA", testNews())
	require.NoError(t, err)

	var chunks []string
	got, err := cached.AnalyzeStream(context.Background(), "TSLA", testNews(), func(chunk string) {
		chunks = append(chunks, chunk)
	})
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "stream should replay from cache")
	assert.Equal(t, []string{"Mixed signals."}, chunks)
	assert.Equal(t, "Mixed signals.", got.Summary)
}
