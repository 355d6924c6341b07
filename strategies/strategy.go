// Package strategies defines the strategy collaborator interface the engine
// depends on, a registry of built-in strategies, and reference
// implementations.
package strategies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sim"
)

// Strategy is the single capability the engine requires of a decision
// algorithm. GenerateSignal is called once per bar with the engine-owned
// indicator history, the open positions, and the orders still pending.
//
// Implementations must be referentially transparent: the signal may depend
// only on the arguments and the strategy's configuration, never on wall
// clock, randomness, or state outside the run. That is what makes two runs
// of the same request byte-identical.
type Strategy interface {
	Name() string
	GenerateSignal(bar market.Bar, history *indicators.History, positions []sim.Position, pending []market.Order) (market.Signal, error)
}

// Indicators is implemented by strategies that need specific indicators
// computed in the run's History. The engine collects these at setup.
type Indicators interface {
	Indicators() []indicators.Indicator
}

var registry = make(map[string]func() Strategy)

// Register adds a strategy constructor under a name. Later registrations
// replace earlier ones.
func Register(name string, ctor func() Strategy) {
	registry[strings.ToLower(name)] = ctor
}

// ByName builds a registered strategy with its default configuration.
func ByName(name string) (Strategy, error) {
	ctor, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(), nil
}

// Names lists registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("noop", func() Strategy { return NoopStrategy{} })
	Register("open-once", func() Strategy { return &OpenOnce{Quantity: 1} })
	Register("ma-cross", func() Strategy { return NewMACross(MACrossDefaults()) })
	Register("ema-cross-adx", func() Strategy { return NewEMACrossADX(EMACrossADXDefaults()) })
	Register("breakout", func() Strategy { return NewBreakout(BreakoutDefaults()) })
}
