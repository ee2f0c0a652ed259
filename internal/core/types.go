package core

// Indicator keys shown on the market overview cards.
const (
	IndicatorSP500 = "sp500"
	IndicatorBTC   = "btc"
	IndicatorETH   = "eth"
)

// IndicatorKeys lists the market overview indicators in display order.
var IndicatorKeys = []string{IndicatorSP500, IndicatorBTC, IndicatorETH}

// TradeType is the side of a backtest trade as reported by the backend.
type TradeType string

const (
	TradeBuy  TradeType = "buy"
	TradeSell TradeType = "sell"
)

// BacktestRequest is the body of a backtest run.
type BacktestRequest struct {
	Symbol         string  `json:"symbol"`
	Interval       string  `json:"interval"`
	ShortWindow    int     `json:"short_window"`
	LongWindow     int     `json:"long_window"`
	ForecastDays   int     `json:"forecast_days"`
	InitialCapital float64 `json:"initial_capital"`
	Save           bool    `json:"save"`
}

// Candle is one OHLC bar. Timestamp is kept as sent by the backend.
type Candle struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
}

// ForecastPoint is one predicted price with its confidence band.
type ForecastPoint struct {
	Date            string  `json:"date"`
	Price           float64 `json:"price"`
	ConfidenceUpper float64 `json:"confidence_upper"`
	ConfidenceLower float64 `json:"confidence_lower"`
}

// Trade is an executed backtest trade.
type Trade struct {
	Timestamp string    `json:"timestamp"`
	Price     float64   `json:"price"`
	Type      TradeType `json:"type"`
}

// EquitySample is the account value at a point in time.
type EquitySample struct {
	Timestamp string  `json:"timestamp"`
	Equity    float64 `json:"equity"`
}

// BacktestResult is the backend's answer to a BacktestRequest.
// Sequences are time ordered by the backend; nothing here checks it.
type BacktestResult struct {
	Candles        []Candle           `json:"candles"`
	ForecastPoints []ForecastPoint    `json:"forecast_points"`
	Trades         []Trade            `json:"trades"`
	Equity         []EquitySample     `json:"equity"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
}

// Closes returns the close prices of all candles.
func (r *BacktestResult) Closes() []float64 {
	closes := make([]float64, len(r.Candles))
	for i, c := range r.Candles {
		closes[i] = c.Close
	}
	return closes
}

// Indicator is a single market overview value.
type Indicator struct {
	Value         float64 `json:"value"`
	ChangePercent float64 `json:"change_percent"`
}

// MarketOverview maps indicator key to its latest value.
// Indicators missing from the response are absent.
type MarketOverview map[string]Indicator

// Signal is a recent trading signal.
type Signal struct {
	Asset       string    `json:"asset"`
	SignalType  string    `json:"signal_type"`
	CreatedAt   Timestamp `json:"created_at"`
	EntryPrice  *float64  `json:"entry_price"`
	TargetPrice *float64  `json:"target_price"`
	Confidence  *float64  `json:"confidence"`
	Notes       string    `json:"notes"`
}

// HasEntry reports whether the signal carries a usable entry price.
func (s Signal) HasEntry() bool {
	return s.EntryPrice != nil && *s.EntryPrice != 0
}

// Sentiment is the market sentiment score (0-100) and its level.
type Sentiment struct {
	Score float64 `json:"score"`
	Level string  `json:"level"`
}

// PricePoint is one sample of an asset price series.
type PricePoint struct {
	Timestamp Timestamp `json:"timestamp"`
	Price     float64   `json:"price"`
}
