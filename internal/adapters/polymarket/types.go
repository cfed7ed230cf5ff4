package polymarket

import "encoding/json"

// Raw Polymarket API DTOs, used only inside this package.
// Conversion to domain entities lives in mapping.go.

// --- Gamma API ---

// gammaMarket is one market from GET /markets. Gamma encodes clobTokenIds
// either as a JSON array or as a JSON-array-in-a-string, so it stays raw
// until mapping.
type gammaMarket struct {
	ConditionID  string          `json:"conditionId"`
	Slug         string          `json:"slug"`
	EndDateISO   string          `json:"endDateIso"`
	EndDate      string          `json:"endDate"`
	ClobTokenIDs json.RawMessage `json:"clobTokenIds"`
	Active       bool            `json:"active"`
	Closed       bool            `json:"closed"`
}

// --- CLOB API ---

// orderBookRequest is one item of the POST /books batch body.
type orderBookRequest struct {
	TokenID string `json:"token_id"`
}

// orderBookResponse is one book in the POST /books response.
type orderBookResponse struct {
	AssetID string         `json:"asset_id"`
	Bids    []bookEntryRaw `json:"bids"`
	Asks    []bookEntryRaw `json:"asks"`
}

// bookEntryRaw is a raw price level (the API uses strings for precision).
type bookEntryRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// --- websocket market channel ---

// wsSubscribe is the client→server subscription message.
type wsSubscribe struct {
	AssetsIDs []string `json:"assets_ids"`
	Type      string   `json:"type"`
}

// wsBookEvent is a server→client book snapshot event.
type wsBookEvent struct {
	EventType string         `json:"event_type"`
	AssetID   string         `json:"asset_id"`
	Bids      []bookEntryRaw `json:"bids"`
	Asks      []bookEntryRaw `json:"asks"`
}
