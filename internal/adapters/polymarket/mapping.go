package polymarket

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/updownbot/internal/domain"
)

// mapGammaMarket converts a Gamma DTO to a domain.ActiveMarket.
// Symbol stays empty; the driver assigns it from the slug prefix.
func mapGammaMarket(gm gammaMarket) domain.ActiveMarket {
	tokens := parseTokenIDs(gm.ClobTokenIDs)

	m := domain.ActiveMarket{
		Slug:        gm.Slug,
		ConditionID: gm.ConditionID,
		EndTime:     parseEndTime(gm.EndDateISO, gm.EndDate),
	}
	if len(tokens) >= 2 {
		m.UpToken = tokens[0]
		m.DownToken = tokens[1]
	}
	return m
}

// parseTokenIDs decodes clobTokenIds, which Gamma returns either as a JSON
// array or as a string containing a JSON array (and occasionally a comma
// list). Unparseable input yields nil.
func parseTokenIDs(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if strings.HasPrefix(s, "[") {
		if err := json.Unmarshal([]byte(s), &arr); err == nil {
			return arr
		}
	}

	var ids []string
	for _, part := range strings.Split(s, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

// parseEndTime tries the date formats Gamma is known to emit.
func parseEndTime(candidates ...string) time.Time {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
		"2006-01-02",
	}
	for _, s := range candidates {
		if s == "" {
			continue
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

// mapOrderBook converts raw bid/ask arrays to a sorted domain.OrderBook.
// Levels with unparseable or non-positive price/size are dropped.
func mapOrderBook(assetID string, bids, asks []bookEntryRaw) domain.OrderBook {
	return domain.OrderBook{
		TokenID:   assetID,
		Bids:      mapBookEntries(bids, false),
		Asks:      mapBookEntries(asks, true),
		UpdatedAt: time.Now().UTC(),
	}
}

// mapBookEntries converts raw entries and sorts them. Outcome prices live
// in (0, 1], so levels outside that range are dropped with the unparseable
// ones. ascending=true → lowest first (asks); false → highest first (bids).
func mapBookEntries(raw []bookEntryRaw, ascending bool) []domain.BookEntry {
	entries := make([]domain.BookEntry, 0, len(raw))
	for _, r := range raw {
		price, err := strconv.ParseFloat(r.Price, 64)
		if err != nil {
			continue
		}
		size, err := strconv.ParseFloat(r.Size, 64)
		if err != nil {
			continue
		}
		if price <= 0 || price > 1 || size <= 0 {
			continue
		}
		entries = append(entries, domain.BookEntry{Price: price, Size: size})
	}

	sort.Slice(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Price < entries[j].Price
		}
		return entries[i].Price > entries[j].Price
	})

	return entries
}
