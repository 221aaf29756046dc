package strategies

import (
	"github.com/rustyeddy/tradereplay/indicators"
	"github.com/rustyeddy/tradereplay/market"
	"github.com/rustyeddy/tradereplay/session"
)

// Noop never trades. Useful as a baseline and in loop tests.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) RegisterIndicators(*indicators.Engine) error { return nil }

func (Noop) Decide(*session.Session, map[string]market.Bar) {}
