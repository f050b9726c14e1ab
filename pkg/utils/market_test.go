package utils

import (
	"testing"
	"time"

	"optionchain-trader/internal/models"
)

func ist(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, IndiaLocation)
}

func TestMarketStatusAt(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want models.MarketStatus
	}{
		{"weekday mid-session", ist(2026, 8, 31, 11, 0), models.MarketOpen},
		{"session open minute", ist(2026, 8, 31, 9, 15), models.MarketOpen},
		{"last session minute", ist(2026, 8, 31, 15, 29), models.MarketOpen},
		{"session close", ist(2026, 8, 31, 15, 30), models.MarketClosed},
		{"pre-open", ist(2026, 8, 31, 9, 5), models.MarketPreOpen},
		{"before pre-open", ist(2026, 8, 31, 8, 0), models.MarketClosed},
		{"saturday", ist(2026, 9, 5, 11, 0), models.MarketClosed},
		{"sunday", ist(2026, 9, 6, 11, 0), models.MarketClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MarketStatusAt(tt.t); got != tt.want {
				t.Errorf("MarketStatusAt(%v) = %s, want %s", tt.t, got, tt.want)
			}
		})
	}
}

func TestTradingDay(t *testing.T) {
	if got := TradingDay(ist(2026, 8, 31, 10, 0)); got != "2026-08-31" {
		t.Errorf("TradingDay = %s, want 2026-08-31", got)
	}

	// A UTC instant late in the day is already the next day in IST.
	utc := time.Date(2026, 8, 31, 20, 0, 0, 0, time.UTC)
	if got := TradingDay(utc); got != "2026-09-01" {
		t.Errorf("TradingDay(%v) = %s, want 2026-09-01", utc, got)
	}
}
