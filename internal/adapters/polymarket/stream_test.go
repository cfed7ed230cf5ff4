package polymarket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/updownbot/internal/domain"
)

func TestWSStreamer_Stream(t *testing.T) {
	upgrader := websocket.Upgrader{}
	subscribed := make(chan wsSubscribe, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wsMarketPath, r.URL.Path)

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var sub wsSubscribe
		require.NoError(t, conn.ReadJSON(&sub))
		subscribed <- sub

		require.NoError(t, conn.WriteJSON(wsBookEvent{
			EventType: "book",
			AssetID:   "tok-up",
			Bids:      []bookEntryRaw{{Price: "0.40", Size: "100"}},
			Asks:      []bookEntryRaw{{Price: "0.42", Size: "80"}},
		}))

		// hold the connection open until the client hangs up
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	books := make(chan domain.OrderBook, 1)
	errc := make(chan error, 1)

	streamer := NewWSStreamer(srv.URL)
	go func() {
		errc <- streamer.Stream(ctx, []string{"tok-up", "tok-dn"}, func(ob domain.OrderBook) {
			select {
			case books <- ob:
			default:
			}
		})
	}()

	select {
	case sub := <-subscribed:
		assert.Equal(t, "market", sub.Type)
		assert.Equal(t, []string{"tok-up", "tok-dn"}, sub.AssetsIDs)
	case <-time.After(time.Second):
		t.Fatal("no subscription received")
	}

	select {
	case ob := <-books:
		assert.Equal(t, "tok-up", ob.TokenID)
		assert.Equal(t, 0.40, ob.BestBid())
		assert.Equal(t, 0.42, ob.BestAsk())
	case <-time.After(time.Second):
		t.Fatal("no book received")
	}

	cancel()
	select {
	case err := <-errc:
		assert.Error(t, err) // cancellation surfaces as an error for the supervisor
	case <-time.After(time.Second):
		t.Fatal("stream did not stop on cancellation")
	}
}

func TestNewWSStreamer_URLDerivation(t *testing.T) {
	s := NewWSStreamer("https://clob.polymarket.com")
	assert.Equal(t, "wss://clob.polymarket.com/ws/market", s.url)

	s = NewWSStreamer("")
	assert.Equal(t, "wss://clob.polymarket.com/ws/market", s.url)
}
