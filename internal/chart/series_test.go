package chart

import (
	"testing"
	"time"

	"github.com/newthinker/pulse/internal/core"
)

func TestPriceSeriesFigure(t *testing.T) {
	points := []core.PricePoint{
		{Timestamp: core.Timestamp{Time: time.Date(2024, 1, 1, 15, 4, 5, 0, time.UTC)}, Price: 42000},
		{Timestamp: core.Timestamp{Time: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}, Price: 41000},
	}

	fig := PriceSeriesFigure("BTC/USD", points, time.UTC)

	if len(fig.Data) != 1 {
		t.Fatalf("expected one trace, got %d", len(fig.Data))
	}
	x := fig.Data[0].X
	if x[0] != "3:04:05 PM" || x[1] != "9:00:00 AM" {
		t.Errorf("unexpected labels %v", x)
	}
	if fig.Data[0].Y[0] != 42000.0 {
		t.Errorf("unexpected price %v", fig.Data[0].Y[0])
	}
}
