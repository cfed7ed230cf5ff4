package domain

import "time"

// Fill is one simulated buy. Append-only audit record, never mutated.
type Fill struct {
	ID      string
	TS      time.Time
	Slug    string
	Symbol  string
	TokenID string
	Side    Side
	Price   float64 // average price over consumed depth
	Shares  float64
	USD     float64
	Note    string // free-text reason ("UP_entry_or_dca", "hedge_chunk_sumcap_ok", ...)
}

// MarketResult is the settlement record of one completed market.
type MarketResult struct {
	TS           time.Time
	Slug         string
	Symbol       string
	EndTime      time.Time
	Winner       Side
	UpToken      string
	DownToken    string
	UpShares     float64
	DownShares   float64
	UpCost       float64
	DownCost     float64
	PnL          float64
	BalanceAfter float64
}
