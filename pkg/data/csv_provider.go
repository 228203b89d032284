package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/quantfarm/regime-trader/pkg/types"
)

// CSVColumnMapping defines the column positions of a CSV bar file.
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
}

// DefaultCSVFormat matches the exchange download scripts:
// timestamp,open,high,low,close,volume with a second-resolution timestamp.
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "2006-01-02 15:04:05",
}

// CSVProvider reads bars from a local CSV file. Malformed lines are
// skipped with a warning; structural problems are errors.
type CSVProvider struct {
	path   string
	format CSVColumnMapping
}

// NewCSVProvider creates a provider over one file with the default format.
func NewCSVProvider(path string) *CSVProvider {
	return &CSVProvider{path: path, format: DefaultCSVFormat}
}

// NewCSVProviderWithFormat creates a provider with a custom column layout.
func NewCSVProviderWithFormat(path string, format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{path: path, format: format}
}

func (p *CSVProvider) Name() string { return "csv" }

// Fetch loads the file and trims to [start, end]. The interval argument is
// ignored; the file's own bar spacing applies.
func (p *CSVProvider) Fetch(_ context.Context, _ string, start, end time.Time, _ string) ([]types.OHLCV, error) {
	bars, err := p.load()
	if err != nil {
		return nil, err
	}
	if !start.IsZero() || !end.IsZero() {
		bars = FilterByDateRange(bars, start, end)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", p.path, ErrNoData)
	}
	return bars, nil
}

func (p *CSVProvider) load() ([]types.OHLCV, error) {
	file, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil { // header
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	var bars []types.OHLCV
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read CSV line %d: %w", lineNum, err)
		}
		lineNum++

		if len(record) < p.format.MinColumns {
			log.Printf("⚠️ line %d: expected %d columns, got %d, skipping", lineNum, p.format.MinColumns, len(record))
			continue
		}
		timestamp, err := time.Parse(p.format.DateFormat, record[p.format.TimestampCol])
		if err != nil {
			log.Printf("⚠️ line %d: invalid timestamp %q, skipping", lineNum, record[p.format.TimestampCol])
			continue
		}
		open, err1 := strconv.ParseFloat(record[p.format.OpenCol], 64)
		high, err2 := strconv.ParseFloat(record[p.format.HighCol], 64)
		low, err3 := strconv.ParseFloat(record[p.format.LowCol], 64)
		closePrice, err4 := strconv.ParseFloat(record[p.format.CloseCol], 64)
		volume, err5 := strconv.ParseFloat(record[p.format.VolumeCol], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			log.Printf("⚠️ line %d: unparseable numeric field, skipping", lineNum)
			continue
		}
		if open <= 0 || high <= 0 || low <= 0 || closePrice <= 0 {
			log.Printf("⚠️ line %d: non-positive price, skipping", lineNum)
			continue
		}
		if high < low || high < open || high < closePrice || low > open || low > closePrice {
			log.Printf("⚠️ line %d: inconsistent OHLC, skipping", lineNum)
			continue
		}
		bars = append(bars, types.OHLCV{
			Timestamp: timestamp,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		})
	}
	return bars, nil
}
