package core

import (
	"encoding/json"
	"testing"
)

func TestBacktestResult_Closes(t *testing.T) {
	r := BacktestResult{Candles: []Candle{{Close: 1}, {Close: 2.5}, {Close: 3}}}

	closes := r.Closes()
	expected := []float64{1, 2.5, 3}

	if len(closes) != len(expected) {
		t.Fatalf("expected %d closes, got %d", len(expected), len(closes))
	}
	for i, v := range expected {
		if closes[i] != v {
			t.Errorf("closes[%d] = %f, want %f", i, closes[i], v)
		}
	}
}

func TestSignal_HasEntry(t *testing.T) {
	var s Signal
	if err := json.Unmarshal([]byte(`{"asset":"BTC","signal_type":"BUY","created_at":"2024-01-02T03:04:05Z","entry_price":null}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.HasEntry() {
		t.Error("null entry price should not count as entry")
	}

	zero := 0.0
	s.EntryPrice = &zero
	if s.HasEntry() {
		t.Error("zero entry price should not count as entry")
	}

	price := 42000.0
	s.EntryPrice = &price
	if !s.HasEntry() {
		t.Error("expected entry")
	}
}

func TestBacktestRequest_JSONKeys(t *testing.T) {
	req := BacktestRequest{Symbol: "BTCUSDT", Interval: "1d", ShortWindow: 10, LongWindow: 50, ForecastDays: 5, InitialCapital: 10000}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"symbol":"BTCUSDT","interval":"1d","short_window":10,"long_window":50,"forecast_days":5,"initial_capital":10000,"save":false}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}
