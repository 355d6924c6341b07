package fees

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchedule(exempt ...string) *Schedule {
	return NewSchedule([]Component{
		{
			Name:     "commission",
			Rate:     decimal.RequireFromString("0.001425"),
			Minimum:  decimal.RequireFromString("20"),
			Decimals: 2,
		},
		{
			Name:       "transaction_tax",
			Rate:       decimal.RequireFromString("0.003"),
			SellOnly:   true,
			CeilToUnit: true,
			Exemptible: true,
		},
	}, exempt)
}

func TestComputeBuy(t *testing.T) {
	s := testSchedule()

	// 100 shares at 300: value 30000, commission 42.75, no tax on buys.
	b := s.Compute(decimal.NewFromInt(30000), 100, "2330", false)

	require.False(t, b.NonTradable)
	assert.True(t, b.Amount("commission").Equal(decimal.RequireFromString("42.75")),
		"commission = %s", b.Amount("commission"))
	assert.True(t, b.Amount("transaction_tax").IsZero())
	assert.True(t, b.Total.Equal(decimal.RequireFromString("42.75")))
}

func TestComputeSellAddsTax(t *testing.T) {
	s := testSchedule()

	// value 30000: tax = 90 exactly; commission 42.75.
	b := s.Compute(decimal.NewFromInt(30000), 100, "2330", true)

	assert.True(t, b.Amount("transaction_tax").Equal(decimal.NewFromInt(90)))
	assert.True(t, b.Total.Equal(decimal.RequireFromString("132.75")))
}

func TestTaxRoundsUpNeverDown(t *testing.T) {
	s := testSchedule()

	// value 10001: tax raw = 30.003, must round UP to 31, not down to 30.
	b := s.Compute(decimal.NewFromInt(10001), 10, "2330", true)
	assert.True(t, b.Amount("transaction_tax").Equal(decimal.NewFromInt(31)),
		"tax = %s", b.Amount("transaction_tax"))

	// An exact whole-unit tax stays put.
	b = s.Compute(decimal.NewFromInt(10000), 10, "2330", true)
	assert.True(t, b.Amount("transaction_tax").Equal(decimal.NewFromInt(30)))
}

func TestCommissionFloor(t *testing.T) {
	s := testSchedule()

	// value 1000: raw commission 1.43 < minimum 20, floor applies.
	b := s.Compute(decimal.NewFromInt(1000), 10, "2330", false)
	assert.True(t, b.Amount("commission").Equal(decimal.NewFromInt(20)))

	// Every component is at or above its configured floor.
	for _, c := range s.Components() {
		if c.Minimum.Sign() > 0 && !c.SellOnly {
			assert.True(t, b.Amount(c.Name).GreaterThanOrEqual(c.Minimum))
		}
	}
}

func TestCommissionRoundsHalfUpBeforeFloor(t *testing.T) {
	s := testSchedule()

	// value 20000: raw 28.5, stays 28.50 (already 2dp).
	// value 17545: raw 25.0016..., rounds to 25.00.
	b := s.Compute(decimal.NewFromInt(17545), 50, "2330", false)
	assert.True(t, b.Amount("commission").Equal(decimal.NewFromInt(25)),
		"commission = %s", b.Amount("commission"))
}

func TestExemptInstrumentPaysNoTax(t *testing.T) {
	s := testSchedule("0050")

	b := s.Compute(decimal.NewFromInt(30000), 100, "0050", true)
	require.False(t, b.NonTradable)
	assert.True(t, b.Amount("transaction_tax").IsZero(), "exempt instrument must pay zero tax")
	// Commission is unaffected by the exemption.
	assert.True(t, b.Amount("commission").Equal(decimal.RequireFromString("42.75")))
}

func TestInvalidInputsAreNonTradable(t *testing.T) {
	s := testSchedule()

	cases := []struct {
		name  string
		value decimal.Decimal
		qty   int64
		instr string
	}{
		{"zero quantity", decimal.NewFromInt(1000), 0, "2330"},
		{"negative quantity", decimal.NewFromInt(1000), -5, "2330"},
		{"zero value", decimal.Zero, 100, "2330"},
		{"negative value", decimal.NewFromInt(-1), 100, "2330"},
		{"empty instrument", decimal.NewFromInt(1000), 100, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := s.Compute(tc.value, tc.qty, tc.instr, true)
			assert.True(t, b.NonTradable)
			assert.True(t, b.Total.IsZero())
			assert.Empty(t, b.Lines)
		})
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	s := testSchedule()

	a := s.Compute(decimal.NewFromInt(31415), 100, "2330", true)
	b := s.Compute(decimal.NewFromInt(31415), 100, "2330", true)

	require.Equal(t, len(a.Lines), len(b.Lines))
	for i := range a.Lines {
		assert.Equal(t, a.Lines[i].Name, b.Lines[i].Name)
		assert.True(t, a.Lines[i].Amount.Equal(b.Lines[i].Amount))
	}
	assert.True(t, a.Total.Equal(b.Total))
}
