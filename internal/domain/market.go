package domain

import "time"

// Side is one of the two outcomes of an up/down market.
type Side string

const (
	SideUp   Side = "UP"
	SideDown Side = "DOWN"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideUp {
		return SideDown
	}
	return SideUp
}

// ActiveMarket is one short-lived binary market the bot is trading.
// Immutable once created; its lifetime is a single trading cycle.
type ActiveMarket struct {
	Symbol      string // "BTC", "ETH", ...
	Slug        string
	ConditionID string
	EndTime     time.Time // UTC
	UpToken     string
	DownToken   string
}

// TokenFor returns the outcome token id for the given side.
func (m ActiveMarket) TokenFor(side Side) string {
	if side == SideUp {
		return m.UpToken
	}
	return m.DownToken
}

// Expired reports whether the market is past its end time plus grace.
func (m ActiveMarket) Expired(now time.Time, grace time.Duration) bool {
	return !m.EndTime.IsZero() && now.After(m.EndTime.Add(grace))
}
