package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alejandrodnm/updownbot/internal/domain"
)

const (
	wsMarketPath     = "/ws/market"
	handshakeTimeout = 10 * time.Second
	readTimeout      = 60 * time.Second
	pingInterval     = 30 * time.Second
)

// WSStreamer subscribes to the CLOB market websocket channel and forwards
// every book snapshot. One Stream call covers one connection lifetime; the
// feed supervises reconnects.
type WSStreamer struct {
	url string
}

// NewWSStreamer derives the websocket URL from the CLOB base URL.
func NewWSStreamer(clobBase string) *WSStreamer {
	if clobBase == "" {
		clobBase = defaultCLOBBase
	}
	url := strings.Replace(clobBase, "https://", "wss://", 1)
	url = strings.Replace(url, "http://", "ws://", 1)
	return &WSStreamer{url: url + wsMarketPath}
}

// Stream dials, subscribes to the token set and pumps book events into
// apply until the connection dies or ctx is cancelled. Unparseable
// messages are skipped; only transport errors end the call.
func (s *WSStreamer) Stream(ctx context.Context, tokenIDs []string, apply func(domain.OrderBook)) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("polymarket.Stream: dial %s: %w", s.url, err)
	}
	defer conn.Close()

	// unblock the read loop when ctx is cancelled
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	sub := wsSubscribe{AssetsIDs: tokenIDs, Type: "market"}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("polymarket.Stream: subscribe: %w", err)
	}
	slog.Debug("market stream subscribed", "assets", len(tokenIDs))

	go pingLoop(ctx, conn, done)

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("polymarket.Stream: read: %w", err)
		}

		for _, ev := range decodeBookEvents(msg) {
			if ev.EventType != "book" || ev.AssetID == "" {
				continue
			}
			apply(mapOrderBook(ev.AssetID, ev.Bids, ev.Asks))
		}
	}
}

// decodeBookEvents handles both framings the server uses: a single event
// object or an array of events. Anything else decodes to nothing.
func decodeBookEvents(msg []byte) []wsBookEvent {
	var batch []wsBookEvent
	if err := json.Unmarshal(msg, &batch); err == nil {
		return batch
	}

	var single wsBookEvent
	if err := json.Unmarshal(msg, &single); err == nil {
		return []wsBookEvent{single}
	}
	return nil
}

func pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
