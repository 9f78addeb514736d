package cache

import (
	"context"
	"testing"
	"time"

	"github.com/mohamedkhairy/stock-pulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	bundle := models.NewsBundle{
		Top: []models.NewsArticle{
			{Title: "Analyst upgrades TSLA", Source: "Reuters"},
		},
		Regular: []models.NewsArticle{
			{Title: "Weekly recap", Source: "Benzinga"},
		},
	}

	require.NoError(t, store.Set(ctx, "news:TSLA", bundle, 10*time.Minute))

	var got models.NewsBundle
	found, err := store.Get(ctx, "news:TSLA", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, bundle, got)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "sentiment:TSLA", models.SentimentReport{Sentiment: "bullish"}, 30*time.Minute))

	// Still live just before the TTL
	now = now.Add(29 * time.Minute)
	var report models.SentimentReport
	found, err := store.Get(ctx, "sentiment:TSLA", &report)
	require.NoError(t, err)
	assert.True(t, found)

	// Dead after it
	now = now.Add(2 * time.Minute)
	found, err = store.Get(ctx, "sentiment:TSLA", &report)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_MissingKey(t *testing.T) {
	store := NewMemoryStore()

	var dest map[string]string
	found, err := store.Get(context.Background(), "nope", &dest)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_OverwriteResetsTTL(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "k", "v1", 10*time.Minute))
	now = now.Add(9 * time.Minute)
	require.NoError(t, store.Set(ctx, "k", "v2", 10*time.Minute))

	now = now.Add(5 * time.Minute)
	var got string
	found, err := store.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v2", got)
}
