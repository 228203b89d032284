package data

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/quantfarm/regime-trader/pkg/types"
)

// ParseTrailingPeriod parses day-denominated periods like "7d" or "180d".
func ParseTrailingPeriod(s string) (time.Duration, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasSuffix(s, "d") {
		return 0, false
	}
	days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
	if err != nil || days <= 0 {
		return 0, false
	}
	return time.Duration(days) * 24 * time.Hour, true
}

// FilterByDateRange keeps bars inside [start, end]. A zero bound is open.
func FilterByDateRange(bars []types.OHLCV, start, end time.Time) []types.OHLCV {
	var out []types.OHLCV
	for _, b := range bars {
		if !start.IsZero() && b.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && b.Timestamp.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// FilterByPeriod keeps the trailing period relative to the last bar.
func FilterByPeriod(bars []types.OHLCV, period time.Duration) []types.OHLCV {
	if len(bars) == 0 || period <= 0 {
		return bars
	}
	cutoff := bars[len(bars)-1].Timestamp.Add(-period)
	return FilterByDateRange(bars, cutoff, time.Time{})
}

// ValidateBars checks ordering and price sanity. Timestamps must be
// strictly increasing; the analysis core assumes no duplicates.
func ValidateBars(bars []types.OHLCV) error {
	if len(bars) == 0 {
		return ErrNoData
	}
	for i, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("bar %d: prices must be positive", i)
		}
		if b.High < b.Low {
			return fmt.Errorf("bar %d: high %.4f below low %.4f", i, b.High, b.Low)
		}
		if i > 0 && !bars[i-1].Timestamp.Before(b.Timestamp) {
			return fmt.Errorf("bar %d: timestamp %s not after previous %s", i, b.Timestamp, bars[i-1].Timestamp)
		}
	}
	return nil
}
