// Package strategies contains the built-in decision policies a replay can
// run, plus the name-based lookup the CLI uses.
package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/tradereplay/session"
)

// Params carries every tunable a built-in strategy understands. Strategies
// read only the fields they care about.
type Params struct {
	Fast       int
	Slow       int
	StopPct    float64
	RiskReward float64
	Quantity   float64
	Lookback   int
}

// Defaults mirrors the reference EMA crossover configuration.
func Defaults() Params {
	return Params{
		Fast:       5,
		Slow:       20,
		StopPct:    0.02,
		RiskReward: 2.0,
		Quantity:   1,
		Lookback:   5,
	}
}

// Factory builds a strategy from parameters. External packages add their
// own strategies to the lookup with Register.
type Factory func(Params) (session.Strategy, error)

var registry = map[string]Factory{}

// Register adds a named strategy factory. Registering over an existing
// name replaces it, builtins included.
func Register(name string, f Factory) {
	registry[strings.ToLower(strings.TrimSpace(name))] = f
}

// ByName resolves a strategy by name, checking registered factories before
// the builtins. Unknown names are an error so a mistyped config fails
// before the replay starts.
func ByName(name string, p Params) (session.Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if f, ok := registry[key]; ok {
		return f(p)
	}

	switch key {
	case "noop", "none":
		return Noop{}, nil

	case "ema-cross", "emacross":
		return NewEMACross(p)

	case "momentum":
		return NewMomentum(p)

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, ema-cross, momentum)", name)
	}
}
