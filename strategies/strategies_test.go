package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sim"
)

func barAt(day int, close float64) market.Bar {
	return market.Bar{
		Symbol: "TEST",
		Time:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		Open:   close,
		High:   close + 1,
		Low:    close - 1,
		Close:  close,
		Volume: 1000,
	}
}

// feed appends closes to a history wired with the strategy's indicators and
// returns the signal for the final bar.
func feed(t *testing.T, strat Strategy, positions []sim.Position, closes ...float64) market.Signal {
	t.Helper()

	var h *indicators.History
	if p, ok := strat.(Indicators); ok {
		h = indicators.NewHistory(p.Indicators()...)
	} else {
		h = indicators.NewHistory()
	}

	var (
		sig market.Signal
		err error
	)
	for i, c := range closes {
		b := barAt(i, c)
		h.Append(b)
		sig, err = strat.GenerateSignal(b, h, positions, nil)
		require.NoError(t, err)
	}
	return sig
}

func TestNoopNeverTrades(t *testing.T) {
	sig := feed(t, NoopStrategy{}, nil, 100, 110, 90, 120)
	assert.Equal(t, market.SignalNoAction, sig.Type)
	assert.False(t, sig.Actionable())
}

func TestOpenOnceBuysFirstBarOnly(t *testing.T) {
	strat := &OpenOnce{Quantity: 100}

	sig, err := strat.GenerateSignal(barAt(0, 100), indicators.NewHistory(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, market.SignalBuy, sig.Type)
	assert.Equal(t, int64(100), sig.Quantity)

	// Holding a position, it goes quiet.
	held := []sim.Position{{Symbol: "TEST", Quantity: 100}}
	sig, err = strat.GenerateSignal(barAt(1, 105), indicators.NewHistory(), held, nil)
	require.NoError(t, err)
	assert.False(t, sig.Actionable())

	// A pending entry also suppresses re-entry.
	pending := []market.Order{{Status: market.OrderPending}}
	sig, err = strat.GenerateSignal(barAt(1, 105), indicators.NewHistory(), nil, pending)
	require.NoError(t, err)
	assert.False(t, sig.Actionable())
}

func TestMACrossEntersOnBullCross(t *testing.T) {
	strat := NewMACross(MACrossConfig{FastPeriod: 2, SlowPeriod: 4, Quantity: 100})

	// Downtrend keeps fast below slow, then a sharp rally crosses it above.
	sig := feed(t, strat, nil, 110, 108, 106, 104, 102, 100, 140)
	assert.Equal(t, market.SignalBuy, sig.Type)
	assert.Equal(t, int64(100), sig.Quantity)
	assert.Greater(t, sig.Confidence, 0.0)
}

func TestMACrossExitsOnBearCross(t *testing.T) {
	strat := NewMACross(MACrossConfig{FastPeriod: 2, SlowPeriod: 4, Quantity: 100})
	held := []sim.Position{{Symbol: "TEST", Quantity: 100}}

	// Uptrend keeps fast above slow, then a sharp drop crosses it below.
	sig := feed(t, strat, held, 100, 102, 104, 106, 108, 110, 70)
	assert.Equal(t, market.SignalSell, sig.Type)
	assert.Equal(t, int64(100), sig.Quantity, "exit sells the whole position")
}

func TestMACrossQuietDuringWarmup(t *testing.T) {
	strat := NewMACross(MACrossConfig{FastPeriod: 2, SlowPeriod: 4, Quantity: 100})
	sig := feed(t, strat, nil, 100, 102, 104)
	assert.False(t, sig.Actionable())
}

func TestMACrossHoldsWithoutCross(t *testing.T) {
	strat := NewMACross(MACrossConfig{FastPeriod: 2, SlowPeriod: 4, Quantity: 100})

	// Steady uptrend: fast stays above slow, no fresh cross to act on after
	// the initial one.
	held := []sim.Position{{Symbol: "TEST", Quantity: 100}}
	sig := feed(t, strat, held, 100, 102, 104, 106, 108, 110, 112)
	assert.False(t, sig.Actionable())
}

func TestEMACrossADXEntersInTrendingRegime(t *testing.T) {
	strat := NewEMACrossADX(EMACrossADXConfig{
		FastPeriod: 2, SlowPeriod: 4, ADXPeriod: 2, MinADX: 25, Quantity: 100,
	})

	// Steady downtrend drives ADX up and keeps fast under slow; the rally
	// crosses it above while the regime is still trending.
	sig := feed(t, strat, nil, 110, 108, 106, 104, 102, 100, 140)
	assert.Equal(t, market.SignalBuy, sig.Type)
	assert.Equal(t, int64(100), sig.Quantity)
}

func TestEMACrossADXQuietUntilFilterReady(t *testing.T) {
	// Same cross, but the ADX needs more bars than the series has: the
	// regime filter silences the entry the plain crossover would take.
	strat := NewEMACrossADX(EMACrossADXConfig{
		FastPeriod: 2, SlowPeriod: 4, ADXPeriod: 6, MinADX: 25, Quantity: 100,
	})
	sig := feed(t, strat, nil, 110, 108, 106, 104, 102, 100, 140)
	assert.False(t, sig.Actionable())
}

func TestEMACrossADXExitsOnBearCross(t *testing.T) {
	strat := NewEMACrossADX(EMACrossADXConfig{
		FastPeriod: 2, SlowPeriod: 4, ADXPeriod: 2, MinADX: 25, Quantity: 100,
	})
	held := []sim.Position{{Symbol: "TEST", Quantity: 100}}

	sig := feed(t, strat, held, 100, 102, 104, 106, 108, 110, 70)
	assert.Equal(t, market.SignalSell, sig.Type)
	assert.Equal(t, int64(100), sig.Quantity)
}

func TestBreakoutBuysAboveChannel(t *testing.T) {
	strat := NewBreakout(BreakoutConfig{Lookback: 3, Quantity: 50})

	// Channel high is 105+1; the last close clears it.
	sig := feed(t, strat, nil, 100, 105, 102, 120)
	assert.Equal(t, market.SignalBuy, sig.Type)
	assert.Equal(t, int64(50), sig.Quantity)
}

func TestBreakoutSellsBelowChannel(t *testing.T) {
	strat := NewBreakout(BreakoutConfig{Lookback: 3, Quantity: 50})
	held := []sim.Position{{Symbol: "TEST", Quantity: 50}}

	// Channel low is 100-1; the last close breaks under it.
	sig := feed(t, strat, held, 100, 105, 102, 90)
	assert.Equal(t, market.SignalSell, sig.Type)
	assert.Equal(t, int64(50), sig.Quantity)
}

func TestBreakoutQuietInsideChannel(t *testing.T) {
	strat := NewBreakout(BreakoutConfig{Lookback: 3, Quantity: 50})
	sig := feed(t, strat, nil, 100, 105, 102, 103)
	assert.False(t, sig.Actionable())
}

func TestRegistry(t *testing.T) {
	for _, name := range []string{"noop", "open-once", "ma-cross", "ema-cross-adx", "breakout"} {
		strat, err := ByName(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, strat.Name())
	}

	// Lookup is case-insensitive and trims whitespace.
	_, err := ByName("  MA-CROSS ")
	assert.NoError(t, err)

	_, err = ByName("does-not-exist")
	assert.Error(t, err)

	names := Names()
	assert.Contains(t, names, "breakout")
	assert.IsIncreasing(t, names)
}
