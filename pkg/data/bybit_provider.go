package data

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/quantfarm/regime-trader/pkg/types"
)

const bybitPageLimit = 1000 // API maximum per kline request

// BybitProvider fetches klines from the Bybit v5 market API. Public kline
// endpoints need no credentials, but a key pair is accepted for accounts
// with elevated rate limits.
type BybitProvider struct {
	client   *bybit_api.Client
	category string
}

// NewBybitProvider creates a provider for the given market category
// ("spot", "linear" or "inverse"; empty defaults to spot).
func NewBybitProvider(apiKey, apiSecret, category string) *BybitProvider {
	if category == "" {
		category = "spot"
	}
	client := bybit_api.NewBybitHttpClient(apiKey, apiSecret, bybit_api.WithBaseURL(bybit_api.MAINNET))
	return &BybitProvider{client: client, category: category}
}

func (p *BybitProvider) Name() string { return "bybit" }

// Fetch pages backwards through kline history until the start bound is
// covered, then returns the bars in chronological order.
func (p *BybitProvider) Fetch(ctx context.Context, symbol string, start, end time.Time, interval string) ([]types.OHLCV, error) {
	if end.IsZero() {
		end = time.Now()
	}
	apiInterval, err := toBybitInterval(interval)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{})
	var bars []types.OHLCV
	cursor := end

	for {
		page, err := p.fetchPage(ctx, symbol, apiInterval, start, cursor)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		oldest := page[0].Timestamp
		added := 0
		for _, b := range page {
			key := b.Timestamp.UnixMilli()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			bars = append(bars, b)
			added++
			if b.Timestamp.Before(oldest) {
				oldest = b.Timestamp
			}
		}
		if added == 0 || !start.IsZero() && !oldest.After(start) {
			break
		}
		cursor = oldest.Add(-time.Millisecond)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	if !start.IsZero() {
		bars = FilterByDateRange(bars, start, end)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("bybit %s %s: %w", symbol, interval, ErrNoData)
	}
	return bars, nil
}

func (p *BybitProvider) fetchPage(ctx context.Context, symbol, interval string, start, end time.Time) ([]types.OHLCV, error) {
	params := map[string]interface{}{
		"category": p.category,
		"symbol":   symbol,
		"interval": interval,
		"limit":    bybitPageLimit,
		"end":      end.UnixMilli(),
	}
	if !start.IsZero() {
		params["start"] = start.UnixMilli()
	}

	result, err := p.client.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	if err != nil {
		return nil, fmt.Errorf("bybit kline request: %w", err)
	}
	return parseKlineResponse(result)
}

func parseKlineResponse(response interface{}) ([]types.OHLCV, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return nil, fmt.Errorf("bybit kline: unexpected response type %T", response)
	}
	if serverResp.RetCode != 0 {
		return nil, fmt.Errorf("bybit API error %d: %s", serverResp.RetCode, serverResp.RetMsg)
	}

	raw, err := json.Marshal(serverResp.Result)
	if err != nil {
		return nil, fmt.Errorf("bybit kline: marshal result: %w", err)
	}
	var klines struct {
		List [][]string `json:"list"`
	}
	if err := json.Unmarshal(raw, &klines); err != nil {
		return nil, fmt.Errorf("bybit kline: unmarshal result: %w", err)
	}

	// Response rows are [startTime, open, high, low, close, volume, turnover],
	// newest first.
	var bars []types.OHLCV
	for _, item := range klines.List {
		if len(item) < 6 {
			continue
		}
		ms, err := strconv.ParseInt(item[0], 10, 64)
		if err != nil {
			continue
		}
		bars = append(bars, types.OHLCV{
			Timestamp: time.UnixMilli(ms),
			Open:      parseFloat(item[1]),
			High:      parseFloat(item[2]),
			Low:       parseFloat(item[3]),
			Close:     parseFloat(item[4]),
			Volume:    parseFloat(item[5]),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars, nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// toBybitInterval maps friendly interval names onto the API values.
func toBybitInterval(interval string) (string, error) {
	switch interval {
	case "1m":
		return "1", nil
	case "3m":
		return "3", nil
	case "5m":
		return "5", nil
	case "15m":
		return "15", nil
	case "30m":
		return "30", nil
	case "1h":
		return "60", nil
	case "2h":
		return "120", nil
	case "4h":
		return "240", nil
	case "6h":
		return "360", nil
	case "12h":
		return "720", nil
	case "1d", "D":
		return "D", nil
	case "1w", "W":
		return "W", nil
	case "1", "3", "5", "15", "30", "60", "120", "240", "360", "720", "M":
		return interval, nil
	default:
		return "", fmt.Errorf("unsupported interval %q", interval)
	}
}
