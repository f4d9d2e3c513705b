package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

var testUpgrader = websocket.Upgrader{}

func newFeedServer(t *testing.T, handle func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		handle(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func feedURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// ackSubscribe reads the subscribe request and echoes the ack. Returns
// the requested symbols.
func ackSubscribe(t *testing.T, conn *websocket.Conn) []string {
	t.Helper()

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg wireMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, typeSubscribe, msg.Type)
	require.NotEmpty(t, msg.ID)

	var sub wireSubscribe
	require.NoError(t, json.Unmarshal(msg.Payload, &sub))

	ack, err := json.Marshal(wireMessage{ID: msg.ID, Type: typeSubscribed})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, ack))

	return sub.Symbols
}

func sendQuote(t *testing.T, conn *websocket.Conn, symbol string, ts time.Time, bid, ask float64) {
	t.Helper()

	payload, err := json.Marshal(wireQuote{
		Symbol:    symbol,
		TimeStamp: ts.UnixNano(),
		Bid:       bid,
		Ask:       ask,
		BidVolume: 10,
		AskVolume: 10,
	})
	require.NoError(t, err)

	data, err := json.Marshal(wireMessage{Type: typeQuote, Payload: payload})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// holdOpen blocks until the peer goes away, keeping the handler alive.
func holdOpen(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func nextQuote(t *testing.T, c *Client) timeseries.Quote {
	t.Helper()
	select {
	case q, ok := <-c.Quotes():
		require.True(t, ok, "stream closed early")
		return q
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for quote")
		return timeseries.Quote{}
	}
}

func TestStream_SubscribeAndReceive(t *testing.T) {
	ts := time.Date(2025, 3, 7, 14, 30, 0, 0, time.UTC)

	srv := newFeedServer(t, func(conn *websocket.Conn) {
		symbols := ackSubscribe(t, conn)
		assert.Equal(t, []string{"ACME"}, symbols)

		sendQuote(t, conn, "ACME", ts, 99.98, 100.02)
		sendQuote(t, conn, "ACME", ts.Add(time.Second), 100.08, 100.12)
		holdOpen(conn)
	})

	client, err := Dial(context.Background(), zap.NewNop(), feedURL(srv), []string{"ACME"})
	require.NoError(t, err)
	defer client.Close()

	q1 := nextQuote(t, client)
	assert.Equal(t, "ACME", q1.Symbol)
	assert.Equal(t, quoteClientComponentName, q1.Source)
	assert.True(t, q1.TimeStamp.Equal(ts))

	bid, _ := q1.Bid.Float64()
	ask, _ := q1.Ask.Float64()
	assert.InDelta(t, 99.98, bid, 1e-9)
	assert.InDelta(t, 100.02, ask, 1e-9)

	q2 := nextQuote(t, client)
	assert.True(t, q2.TimeStamp.Equal(ts.Add(time.Second)))
}

func TestStream_GetNextSatisfiesQuoteSource(t *testing.T) {
	ts := time.Date(2025, 3, 7, 14, 30, 0, 0, time.UTC)

	srv := newFeedServer(t, func(conn *websocket.Conn) {
		ackSubscribe(t, conn)
		sendQuote(t, conn, "ACME", ts, 99.0, 101.0)
		holdOpen(conn)
	})

	client, err := Dial(context.Background(), zap.NewNop(), feedURL(srv), []string{"ACME"})
	require.NoError(t, err)

	q, err := client.GetNext()
	require.NoError(t, err)
	assert.True(t, q.Mid().Eq(q.Bid.Add(q.Ask).DivInt64(2)))

	client.Close()

	for {
		if _, err := client.GetNext(); err != nil {
			assert.ErrorIs(t, err, ErrClosed)
			break
		}
	}
}

func TestStream_ReconnectsAfterDrop(t *testing.T) {
	ts := time.Date(2025, 3, 7, 14, 30, 0, 0, time.UTC)

	var mu sync.Mutex
	dials := 0

	srv := newFeedServer(t, func(conn *websocket.Conn) {
		mu.Lock()
		dials++
		n := dials
		mu.Unlock()

		ackSubscribe(t, conn)
		if n == 1 {
			// Drop right after the ack to force a redial.
			return
		}
		sendQuote(t, conn, "ACME", ts, 99.0, 101.0)
		holdOpen(conn)
	})

	client, err := Dial(context.Background(), zap.NewNop(), feedURL(srv), []string{"ACME"},
		WithBackoff(10*time.Millisecond, 100*time.Millisecond))
	require.NoError(t, err)
	defer client.Close()

	q := nextQuote(t, client)
	assert.Equal(t, "ACME", q.Symbol)

	mu.Lock()
	assert.GreaterOrEqual(t, dials, 2)
	mu.Unlock()
}

func TestStream_SubscribeRejected(t *testing.T) {
	srv := newFeedServer(t, func(conn *websocket.Conn) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg wireMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}

		payload, _ := json.Marshal(wireError{Code: 403, Description: "unknown symbol"})
		reject, _ := json.Marshal(wireMessage{ID: msg.ID, Type: typeError, Payload: payload})
		_ = conn.WriteMessage(websocket.TextMessage, reject)
	})

	_, err := Dial(context.Background(), zap.NewNop(), feedURL(srv), []string{"BOGUS"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown symbol")
}

func TestStream_DialFailsFast(t *testing.T) {
	_, err := Dial(context.Background(), zap.NewNop(), "ws://127.0.0.1:1/feed", []string{"ACME"})
	assert.Error(t, err)
}

func TestStream_KeepaliveSendsPing(t *testing.T) {
	pings := make(chan struct{}, 1)

	srv := newFeedServer(t, func(conn *websocket.Conn) {
		ackSubscribe(t, conn)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg wireMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			if msg.Type == typePing {
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	})

	client, err := Dial(context.Background(), zap.NewNop(), feedURL(srv), []string{"ACME"},
		WithPingInterval(20*time.Millisecond))
	require.NoError(t, err)
	defer client.Close()

	select {
	case <-pings:
	case <-time.After(3 * time.Second):
		t.Fatal("no ping received")
	}
}
