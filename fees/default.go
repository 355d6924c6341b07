package fees

import "github.com/shopspring/decimal"

// DefaultComponents is a retail equity fee schedule: brokerage commission
// with a per-trade minimum, a sell-side transaction tax rounded up to the
// whole currency unit, and a small clearing fee. Every rate, floor, and
// rounding precision here is configuration, not an invariant; see
// config.FeesConfig.
func DefaultComponents() []Component {
	return []Component{
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
		{
			Name:     "clearing_fee",
			Rate:     decimal.RequireFromString("0.0000341"),
			Decimals: 2,
		},
	}
}
