package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/backtester/market"
)

// ADX implements Wilder's Average Directional Index (trend strength).
// Usage:
//
//	adx := indicators.NewADX(14)
//	adx.Update(bar)
//	if adx.Ready() && adx.Value() >= 20 { ... }
type ADX struct {
	period int

	prev     market.Bar
	havePrev bool

	// Wilder-smoothed values after warmup:
	tr14  float64
	pdm14 float64
	mdm14 float64

	adx     float64
	dxSum   float64
	dxCount int

	// count of bars processed (including the first prev seed)
	count int
	ready bool
}

func NewADX(period int) *ADX {
	return &ADX{period: period}
}

func (a *ADX) Name() string {
	return fmt.Sprintf("ADX(%d)", a.period)
}

// Warmup: Period bars to seed smoothed TR/+DM/-DM, then Period DX samples to
// seed ADX, plus the initial prev bar. Bars with no directional movement
// yield no DX sample, so this is a lower bound.
func (a *ADX) Warmup() int {
	return 2*a.period + 1
}

func (a *ADX) Reset() {
	*a = ADX{period: a.period}
}

func (a *ADX) Ready() bool {
	return a.ready
}

func (a *ADX) Value() float64 {
	if !a.ready {
		return 0
	}
	return a.adx
}

func (a *ADX) Update(b market.Bar) {
	// Seed previous bar
	if !a.havePrev {
		a.prev = b
		a.havePrev = true
		a.count = 1
		return
	}

	// 1) Directional movement using current vs previous highs/lows
	upMove := b.High - a.prev.High
	downMove := a.prev.Low - b.Low

	var pdm, mdm float64
	if upMove > downMove && upMove > 0 {
		pdm = upMove
	}
	if downMove > upMove && downMove > 0 {
		mdm = downMove
	}

	// 2) True Range
	tr := trueRange(b, a.prev)

	a.prev = b
	a.count++

	// Warmup Phase A: accumulate initial averages up to period.
	// Samples for TR/DM begin on the second bar, so count==period+1 closes it.
	if a.count <= a.period+1 {
		a.tr14 += tr
		a.pdm14 += pdm
		a.mdm14 += mdm

		if a.count == a.period+1 {
			p := float64(a.period)
			a.tr14 /= p
			a.pdm14 /= p
			a.mdm14 /= p
		}
		return
	}

	// 3) Wilder smoothing for TR/+DM/-DM
	p := float64(a.period)
	a.tr14 = (a.tr14*(p-1) + tr) / p
	a.pdm14 = (a.pdm14*(p-1) + pdm) / p
	a.mdm14 = (a.mdm14*(p-1) + mdm) / p

	// Guard: avoid divide-by-zero if data is pathological
	if a.tr14 == 0 {
		return
	}

	// 4) DI and DX
	pdi := 100.0 * (a.pdm14 / a.tr14)
	mdi := 100.0 * (a.mdm14 / a.tr14)
	den := pdi + mdi
	if den == 0 {
		return
	}

	dx := 100 * math.Abs(pdi-mdi) / den

	// Warmup Phase B: seed ADX with the average of the first period DX
	// samples. Bars with no directional movement (den == 0 above) yield no
	// sample, so seeding counts samples rather than bars: with clean data
	// the seed completes at count == 2*period+1, otherwise as soon as the
	// missing samples arrive.
	if !a.ready {
		a.dxSum += dx
		a.dxCount++
		if a.dxCount == a.period {
			a.adx = a.dxSum / p
			a.ready = true
		}
		return
	}

	// 5) Wilder smoothing for ADX
	a.adx = (a.adx*(p-1) + dx) / p
}
