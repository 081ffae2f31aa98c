package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResultWriteAndReadJSONRoundTrip(t *testing.T) {
	r := NewResult()
	r.Statistics["sharpe"] = "1.23"
	r.AddEquityPoint(time.Date(2024, 1, 2, 16, 0, 0, 0, time.UTC), 100000)
	r.AddChartPoint("strategy equity", "equity", time.Date(2024, 1, 2, 16, 0, 0, 0, time.UTC), 100000)
	r.Orders = append(r.Orders, OrderRecord{ID: "1", Symbol: "AAPL", Type: "market", Direction: "buy", Quantity: 10, Status: "filled"})

	path := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, r.WriteJSON(path))

	loaded, err := ReadResultJSON(path)
	require.NoError(t, err)
	require.Equal(t, "1.23", loaded.Statistics["sharpe"])
	require.Len(t, loaded.EquityCurve, 1)
	require.Len(t, loaded.Orders, 1)
	require.Equal(t, "AAPL", loaded.Orders[0].Symbol)
}

func TestDBAppendAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := Open(Config{Path: path, Profile: ProfileLedger, Name: "ledger"})
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2024, 1, 2, 16, 0, 0, 0, time.UTC)
	require.NoError(t, db.AppendEquityPoint(EquityPoint{Time: ts, Value: 100000}))
	require.NoError(t, db.UpsertOrder(OrderRecord{ID: "1", Symbol: "AAPL", Type: "market", Direction: "buy", Quantity: 10, Status: "submitted"}))
	require.NoError(t, db.UpsertOrder(OrderRecord{ID: "1", Symbol: "AAPL", Type: "market", Direction: "buy", Quantity: 10, Status: "filled", FillPrice: 101.5, FillTime: ts}))

	result, err := db.LoadResult()
	require.NoError(t, err)
	require.Len(t, result.EquityCurve, 1)
	require.Len(t, result.Orders, 1)
	require.Equal(t, "filled", result.Orders[0].Status)
	require.Equal(t, 101.5, result.Orders[0].FillPrice)
}
