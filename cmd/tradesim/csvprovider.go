package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aristath/tradesim/internal/marketdata"
)

// csvDataProvider loads one file per symbol from a flat directory,
// <dataDir>/<ticker>.csv with columns date,open,high,low,close,volume
// (date as YYYY-MM-DD). Concrete market-data file readers are explicitly
// out of this engine's scope; this is the minimum glue cmd/tradesim
// needs to run a backtest against real files, not a domain module.
type csvDataProvider struct {
	dataDir string
}

func newCSVDataProvider(dataDir string) *csvDataProvider {
	return &csvDataProvider{dataDir: dataDir}
}

func (p *csvDataProvider) Load(cfg marketdata.SubscriptionConfig, start, end time.Time) ([]marketdata.BaseData, error) {
	path := filepath.Join(p.dataDir, cfg.Symbol.Ticker+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvprovider: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []marketdata.BaseData
	period := cfg.Period()
	first := true
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		if first {
			first = false
			if _, convErr := strconv.ParseFloat(record[1], 64); convErr != nil {
				continue // header row
			}
		}
		bar, ok := parseCSVRow(cfg.Symbol, record, period)
		if !ok {
			continue
		}
		if bar.EndTime.Before(start) || bar.EndTime.After(end) {
			continue
		}
		out = append(out, bar)
	}
	return out, nil
}

func parseCSVRow(sym marketdata.Symbol, record []string, period time.Duration) (marketdata.BaseData, bool) {
	if len(record) < 6 {
		return marketdata.BaseData{}, false
	}
	day, err := time.Parse("2006-01-02", record[0])
	if err != nil {
		return marketdata.BaseData{}, false
	}
	open, err1 := strconv.ParseFloat(record[1], 64)
	high, err2 := strconv.ParseFloat(record[2], 64)
	low, err3 := strconv.ParseFloat(record[3], 64)
	close, err4 := strconv.ParseFloat(record[4], 64)
	volume, err5 := strconv.ParseFloat(record[5], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return marketdata.BaseData{}, false
	}
	return marketdata.TradeBar(sym, day, day.Add(period), open, high, low, close, volume), true
}
