package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct{}

func (fakeProvider) Status() StatusSnapshot {
	return StatusSnapshot{Mode: "backtest", CurrentTime: time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)}
}

func (fakeProvider) Portfolio() PortfolioSnapshot {
	return PortfolioSnapshot{
		TotalPortfolioValue: 100000,
		CashByCurrency:      map[string]float64{"USD": 50000},
		Positions: []PositionSnapshot{
			{Symbol: "AAPL", HoldingsQty: 10, AvgPrice: 150, LastPrice: 155},
		},
	}
}

func (fakeProvider) Orders() []OrderSnapshot {
	return []OrderSnapshot{{ID: 1, Symbol: "AAPL", Type: "market", Status: "filled"}}
}

func TestHealthzReturnsOK(t *testing.T) {
	s := New(":0", fakeProvider{}, zerolog.Nop())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "data")
	assert.Contains(t, body, "metadata")
}

func TestStatusReturnsEnvelopedSnapshot(t *testing.T) {
	s := New(":0", fakeProvider{}, zerolog.Nop())
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Mode string `json:"mode"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "backtest", body.Data.Mode)
}

func TestPortfolioReturnsPositions(t *testing.T) {
	s := New(":0", fakeProvider{}, zerolog.Nop())
	req := httptest.NewRequest(http.MethodGet, "/portfolio", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var body struct {
		Data PortfolioSnapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Positions, 1)
	assert.Equal(t, "AAPL", body.Data.Positions[0].Symbol)
}

func TestOrdersReturnsOrderList(t *testing.T) {
	s := New(":0", fakeProvider{}, zerolog.Nop())
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var body struct {
		Data []OrderSnapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, int64(1), body.Data[0].ID)
}
