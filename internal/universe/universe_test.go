package universe

import (
	"testing"
	"time"

	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/aristath/tradesim/internal/scheduler"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// everyInstant fires every call, for tests driving Evaluate/EvaluateAll
// directly rather than through a real simulated clock.
func everyInstant() (scheduler.DateRule, scheduler.TimeRule) {
	return scheduler.EveryDay(), scheduler.Every(0)
}

type fakeRegistrar struct {
	ensured, subscribed, untradable, canceled []marketdata.Symbol
}

func (f *fakeRegistrar) EnsureSecurity(sym marketdata.Symbol) error {
	f.ensured = append(f.ensured, sym)
	return nil
}
func (f *fakeRegistrar) RegisterSubscription(sym marketdata.Symbol) error {
	f.subscribed = append(f.subscribed, sym)
	return nil
}
func (f *fakeRegistrar) MarkUntradable(sym marketdata.Symbol) error {
	f.untradable = append(f.untradable, sym)
	return nil
}
func (f *fakeRegistrar) CancelOpenOrders(sym marketdata.Symbol) error {
	f.canceled = append(f.canceled, sym)
	return nil
}

func TestUniverseEvaluateDiffsMembership(t *testing.T) {
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	msft := marketdata.NewEquitySymbol("MSFT", "usa")

	dateRule, timeRule := everyInstant()
	calls := 0
	u := New("test", func(slice *marketdata.Slice) []marketdata.Symbol {
		calls++
		if calls == 1 {
			return []marketdata.Symbol{aapl}
		}
		return []marketdata.Symbol{msft}
	}, dateRule, timeRule, testStart)

	changes := u.Evaluate(nil)
	assert.Equal(t, []marketdata.Symbol{aapl}, changes.Added)
	assert.Empty(t, changes.Removed)

	changes = u.Evaluate(nil)
	assert.Equal(t, []marketdata.Symbol{msft}, changes.Added)
	assert.Equal(t, []marketdata.Symbol{aapl}, changes.Removed)
}

func TestUniverseUnchangedSkipsDiff(t *testing.T) {
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	dateRule, timeRule := everyInstant()
	first := true
	u := New("test", func(slice *marketdata.Slice) []marketdata.Symbol {
		if first {
			first = false
			return []marketdata.Symbol{aapl}
		}
		return Unchanged
	}, dateRule, timeRule, testStart)

	changes := u.Evaluate(nil)
	assert.False(t, changes.IsEmpty())

	changes = u.Evaluate(nil)
	assert.True(t, changes.IsEmpty())
	assert.Equal(t, []marketdata.Symbol{aapl}, u.Members())
}

func TestEngineWeakReferenceKeepsSecurityWhileAnotherUniverseHoldsIt(t *testing.T) {
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	reg := &fakeRegistrar{}

	dateRule, timeRule := everyInstant()
	uA := New("a", func(*marketdata.Slice) []marketdata.Symbol { return []marketdata.Symbol{aapl} }, dateRule, timeRule, testStart)
	uB := New("b", func(*marketdata.Slice) []marketdata.Symbol { return []marketdata.Symbol{aapl} }, dateRule, timeRule, testStart)

	e := NewEngine(reg, nil, nil, zerolog.Nop())
	e.Register(uA)
	e.Register(uB)

	slice1 := marketdata.NewSlice(testStart)
	require.NoError(t, e.EvaluateAll(slice1))
	assert.Len(t, reg.ensured, 1, "security should be created once even though two universes add it")

	// Universe A drops aapl; B still holds it, so it must not be marked untradable.
	uA.Selector = func(*marketdata.Slice) []marketdata.Symbol { return nil }
	slice2 := marketdata.NewSlice(testStart.AddDate(0, 0, 1))
	require.NoError(t, e.EvaluateAll(slice2))
	assert.Empty(t, reg.untradable)

	// Universe B also drops it: now it should be marked untradable.
	uB.Selector = func(*marketdata.Slice) []marketdata.Symbol { return nil }
	slice3 := marketdata.NewSlice(testStart.AddDate(0, 0, 2))
	require.NoError(t, e.EvaluateAll(slice3))
	assert.Len(t, reg.untradable, 1)
}
