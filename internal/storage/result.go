// Package storage persists a finished run's Result document (spec §6):
// once as JSON matching spec.md's literal layout, and once as rows in a
// PRAGMA-tuned sqlite database for queryable history — the direct
// generalization of the teacher's internal/database.DB wrapper and its
// "ledger" profile (maximum-safety, append-only audit trail) to a
// single-run order/equity-curve ledger.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EquityPoint is a single (time, value) sample of the equity curve.
type EquityPoint struct {
	Time  time.Time `json:"t"`
	Value float64   `json:"value"`
}

// ChartPoint is a single (time, y) sample of a named chart series.
type ChartPoint struct {
	Time  time.Time `json:"t"`
	Value float64   `json:"y"`
}

// Chart is a collection of named point series.
type Chart struct {
	Series map[string][]ChartPoint `json:"series"`
}

// OrderRecord is the persisted fact of one filled (or rejected) order —
// deliberately narrower than internal/orders.Order: only the fields the
// result document needs to survive the run.
type OrderRecord struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Type       string    `json:"type"`
	Direction  string    `json:"direction"`
	Quantity   float64   `json:"quantity"`
	FillPrice  float64   `json:"fill_price,omitempty"`
	FillTime   time.Time `json:"fill_time,omitempty"`
	Status     string    `json:"status"`
	Commission float64   `json:"commission,omitempty"`
}

// Result is the complete output of a backtest run, matching spec.md §6's
// persisted-state layout.
type Result struct {
	Statistics  map[string]string `json:"statistics"`
	EquityCurve []EquityPoint     `json:"equityCurve"`
	Orders      []OrderRecord     `json:"orders"`
	Charts      map[string]Chart  `json:"charts"`
}

// NewResult returns an empty Result ready to be populated incrementally.
func NewResult() *Result {
	return &Result{
		Statistics: make(map[string]string),
		Charts:     make(map[string]Chart),
	}
}

// AddEquityPoint appends a sample to the equity curve.
func (r *Result) AddEquityPoint(t time.Time, value float64) {
	r.EquityCurve = append(r.EquityCurve, EquityPoint{Time: t, Value: value})
}

// AddChartPoint appends a sample to a named chart/series, creating both
// if they don't exist yet.
func (r *Result) AddChartPoint(chartName, seriesName string, t time.Time, value float64) {
	chart, ok := r.Charts[chartName]
	if !ok {
		chart = Chart{Series: make(map[string][]ChartPoint)}
	}
	chart.Series[seriesName] = append(chart.Series[seriesName], ChartPoint{Time: t, Value: value})
	r.Charts[chartName] = chart
}

// WriteJSON writes the Result document as pretty-printed JSON to path,
// creating parent directories as needed.
func (r *Result) WriteJSON(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage: failed to create results directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: failed to create result file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("storage: failed to encode result: %w", err)
	}
	return nil
}

// ReadResultJSON reads back a Result document written by WriteJSON.
func ReadResultJSON(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to read result file: %w", err)
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("storage: failed to decode result: %w", err)
	}
	return &r, nil
}
