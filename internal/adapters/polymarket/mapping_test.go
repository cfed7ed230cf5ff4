package polymarket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTokenIDs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"json array", `["111","222"]`, []string{"111", "222"}},
		{"string-wrapped array", `"[\"111\", \"222\"]"`, []string{"111", "222"}},
		{"comma list", `"111, 222"`, []string{"111", "222"}},
		{"empty string", `""`, nil},
		{"garbage", `42`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTokenIDs(json.RawMessage(tt.raw))
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Nil(t, parseTokenIDs(nil))
}

func TestParseEndTime(t *testing.T) {
	want := time.Date(2025, 6, 1, 12, 15, 0, 0, time.UTC)

	assert.Equal(t, want, parseEndTime("2025-06-01T12:15:00Z"))
	assert.Equal(t, want, parseEndTime("2025-06-01T12:15:00.000Z"))
	assert.Equal(t, want, parseEndTime("", "2025-06-01T12:15:00Z")) // fallback candidate
	assert.True(t, parseEndTime("not-a-date").IsZero())
	assert.True(t, parseEndTime().IsZero())
}

func TestMapGammaMarket(t *testing.T) {
	gm := gammaMarket{
		Slug:         "btc-updown-15m-1700000000",
		ConditionID:  "0xcond",
		EndDateISO:   "2025-06-01T12:15:00Z",
		ClobTokenIDs: json.RawMessage(`["tok-up","tok-dn"]`),
	}

	m := mapGammaMarket(gm)

	assert.Equal(t, "btc-updown-15m-1700000000", m.Slug)
	assert.Equal(t, "0xcond", m.ConditionID)
	assert.Equal(t, "tok-up", m.UpToken)
	assert.Equal(t, "tok-dn", m.DownToken)
	assert.Empty(t, m.Symbol) // assigned later from the slug prefix
	assert.False(t, m.EndTime.IsZero())
}

func TestMapBookEntries_SortsAndDrops(t *testing.T) {
	raw := []bookEntryRaw{
		{Price: "0.48", Size: "30"},
		{Price: "0.46", Size: "80"},
		{Price: "bogus", Size: "10"},
		{Price: "0.50", Size: "-5"},
		{Price: "0", Size: "10"},
		{Price: "1.20", Size: "10"}, // outcome prices never exceed $1
	}

	asks := mapBookEntries(raw, true)
	require.Len(t, asks, 2)
	assert.Equal(t, 0.46, asks[0].Price)
	assert.Equal(t, 0.48, asks[1].Price)

	bids := mapBookEntries(raw, false)
	require.Len(t, bids, 2)
	assert.Equal(t, 0.48, bids[0].Price)
	assert.Equal(t, 0.46, bids[1].Price)
}

func TestDecodeBookEvents(t *testing.T) {
	single := []byte(`{"event_type":"book","asset_id":"tok-1","bids":[{"price":"0.4","size":"10"}],"asks":[{"price":"0.45","size":"10"}]}`)

	events := decodeBookEvents(single)
	require.Len(t, events, 1)
	assert.Equal(t, "book", events[0].EventType)
	assert.Equal(t, "tok-1", events[0].AssetID)

	batch := []byte(`[{"event_type":"book","asset_id":"a"},{"event_type":"price_change","asset_id":"b"}]`)
	events = decodeBookEvents(batch)
	require.Len(t, events, 2)

	assert.Nil(t, decodeBookEvents([]byte(`"pong"`)))
}
