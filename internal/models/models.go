package models

import (
	"strings"
	"time"
)

// Timeframe identifies a bar resolution supported by the provider
type Timeframe string

const (
	TimeframeMinute Timeframe = "minute"
	TimeframeHour   Timeframe = "hour"
	TimeframeDay    Timeframe = "day"
)

// Bar represents a single OHLCV bar
type Bar struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// Validate validates a Bar
func (b *Bar) Validate() error {
	if b.Symbol == "" {
		return ErrInvalidSymbol
	}
	if b.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	if b.High < b.Low {
		return ErrInvalidBar
	}
	if b.Volume < 0 {
		return ErrInvalidVolume
	}
	return nil
}

// Trade represents the latest trade for a symbol
type Trade struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Quote represents the latest bid/ask for a symbol
type Quote struct {
	BidPrice  float64   `json:"bid_price"`
	AskPrice  float64   `json:"ask_price"`
	BidSize   int64     `json:"bid_size"`
	AskSize   int64     `json:"ask_size"`
	Timestamp time.Time `json:"timestamp"`
}

// Asset describes a tradable instrument
type Asset struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Class    string `json:"class,omitempty"`
}

// NewsArticle is a single news item for a symbol
type NewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
	Source      string `json:"source"`
}

// NewsBundle groups fetched news into top (ratings/earnings) and regular items
type NewsBundle struct {
	Top     []NewsArticle `json:"top_news"`
	Regular []NewsArticle `json:"regular_news"`
}

// Empty reports whether the bundle contains no articles
func (n NewsBundle) Empty() bool {
	return len(n.Top) == 0 && len(n.Regular) == 0
}

// SentimentReport is the structured output of the AI news analysis
type SentimentReport struct {
	Sentiment      string   `json:"sentiment"`
	Summary        string   `json:"summary"`
	KeyPoints      []string `json:"key_points"`
	TradingSignals []string `json:"trading_signals"`
	Confidence     string   `json:"confidence"`
}

// Crossover directions
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// CrossoverEvent is emitted when the premarket window trades through an EMA level
type CrossoverEvent struct {
	Type      string  `json:"type"` // "cross_above" or "cross_below"
	EMA       string  `json:"ema"`
	EMAValue  float64 `json:"ema_value"`
	Direction string  `json:"direction"` // "up" or "down"
	Message   string  `json:"message"`
}

// PremarketLevels holds the premarket high/low for the current day.
// Proxy is set when the levels were derived from the first 30 minutes of
// regular trading because no extended-hours bars were available.
type PremarketLevels struct {
	High  float64 `json:"PMH"`
	Low   float64 `json:"PML"`
	Proxy bool    `json:"proxy,omitempty"`
}

// Snapshot is the composite per-symbol record the cache stores and the
// serving layer emits
type Snapshot struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"companyName"`
	Exchange    string `json:"exchange"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
	LogoURL     string `json:"logoUrl,omitempty"`

	Price     float64 `json:"price"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	BidSize   int64   `json:"bidSize"`
	AskSize   int64   `json:"askSize"`
	Timestamp string  `json:"timestamp"`

	DayHigh    float64 `json:"dayHigh"`
	DayLow     float64 `json:"dayLow"`
	Week52High float64 `json:"week52High"`
	Week52Low  float64 `json:"week52Low"`

	EMAs            map[string]float64 `json:"emas"`
	PremarketLevels *PremarketLevels   `json:"premarketLevels,omitempty"`
	Crossovers      []CrossoverEvent   `json:"crossovers"`

	TopNews   []NewsArticle    `json:"topNews"`
	News      []NewsArticle    `json:"news"`
	Sentiment *SentimentReport `json:"sentiment,omitempty"`

	Loading bool `json:"loading"`
}

// Validate validates a Snapshot
func (s *Snapshot) Validate() error {
	if s.Symbol == "" {
		return ErrInvalidSymbol
	}
	if s.Symbol != strings.ToUpper(s.Symbol) {
		return ErrInvalidSymbol
	}
	return nil
}
