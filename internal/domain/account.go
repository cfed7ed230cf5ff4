package domain

// Position is the accumulated holding in one outcome token.
type Position struct {
	Shares  float64
	CostUSD float64
}

// AvgPrice returns cost/shares, or 0 for an empty position.
func (p Position) AvgPrice() float64 {
	if p.Shares <= 0 {
		return 0
	}
	return p.CostUSD / p.Shares
}

// Account is the paper cash balance and positions for one symbol.
// It is pure data: only the ledger mutates it.
type Account struct {
	Symbol    string
	Cash      float64
	Positions map[string]Position // token id → position
}

// NewAccount creates an account with the given starting balance.
func NewAccount(symbol string, startingCash float64) *Account {
	return &Account{
		Symbol:    symbol,
		Cash:      startingCash,
		Positions: make(map[string]Position),
	}
}

// Position returns the position for a token id (zero value if none).
func (a *Account) Position(tokenID string) Position {
	return a.Positions[tokenID]
}
