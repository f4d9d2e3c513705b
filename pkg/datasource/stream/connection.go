package stream

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
	"github.com/peter-kozarec/solstice/pkg/utility"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

const quoteClientComponentName = "datasource.stream.client"

type connection struct {
	conn   *websocket.Conn
	logger *zap.Logger

	ctx       context.Context
	ctxCancel context.CancelFunc
	wg        sync.WaitGroup

	writeChan chan wireMessage
	quotes    chan<- timeseries.Quote

	pending sync.Map // map[string]chan wireMessage
}

func newConnection(parent context.Context, conn *websocket.Conn, logger *zap.Logger, quotes chan<- timeseries.Quote) *connection {
	ctx, cancel := context.WithCancel(parent)

	c := &connection{
		conn:      conn,
		logger:    logger,
		ctx:       ctx,
		ctxCancel: cancel,
		writeChan: make(chan wireMessage, 100),
		quotes:    quotes,
	}
	return c
}

func (c *connection) start() {
	c.wg.Add(2)
	go c.read()
	go c.write()
}

func (c *connection) stop() {
	c.ctxCancel()
	_ = c.conn.Close()
}

func (c *connection) read() {
	defer c.wg.Done()
	defer c.ctxCancel()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			_, message, err := c.conn.ReadMessage()
			if err != nil {
				c.logger.Warn("cannot read data", zap.Error(err))
				return
			}

			var msg wireMessage
			if err := json.Unmarshal(message, &msg); err != nil {
				c.logger.Warn("unmarshal failed",
					zap.ByteString("raw", message),
					zap.Error(err))
				continue
			}

			c.logger.Debug("read", zap.String("type", msg.Type), zap.String("id", msg.ID))
			c.handleMessage(msg)
		}
	}
}

func (c *connection) handleMessage(msg wireMessage) {
	switch msg.Type {
	case typeQuote:
		c.handleQuote(msg)
	case typePong:
		// keepalive response, nothing to do
	default:
		if msg.ID != "" {
			if ch, ok := c.pending.LoadAndDelete(msg.ID); ok {
				select {
				case ch.(chan wireMessage) <- msg:
				default: // drop if blocked
				}
				return
			}
		}
		if msg.Type == typeError {
			var e wireError
			_ = json.Unmarshal(msg.Payload, &e)
			c.logger.Warn("feed error",
				zap.Int("code", e.Code),
				zap.String("description", e.Description))
		}
	}
}

func (c *connection) handleQuote(msg wireMessage) {
	var wq wireQuote
	if err := json.Unmarshal(msg.Payload, &wq); err != nil {
		c.logger.Warn("unable to unmarshal quote", zap.Error(err))
		return
	}

	quote := timeseries.Quote{
		Ask:       fixed.FromFloat64(wq.Ask),
		Bid:       fixed.FromFloat64(wq.Bid),
		AskVolume: fixed.FromFloat64(wq.AskVolume),
		BidVolume: fixed.FromFloat64(wq.BidVolume),
		Source:    quoteClientComponentName,
		Symbol:    wq.Symbol,
		RunID:     utility.GetRunID(),
		TraceID:   utility.CreateTraceID(),
		TimeStamp: time.Unix(0, wq.TimeStamp).UTC(),
	}

	select {
	case c.quotes <- quote:
	default: // drop if blocked
		c.logger.Debug("quote dropped, consumer is slow")
	}
}

func (c *connection) write() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case msg, ok := <-c.writeChan:
			if !ok {
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				c.logger.Warn("failed to marshal message", zap.Error(err))
				continue
			}

			c.logger.Debug("write", zap.String("type", msg.Type), zap.String("id", msg.ID))

			if err = c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warn("failed to write to connection", zap.Error(err))
				continue
			}
		}
	}
}

// request writes msg and blocks until the feed echoes the correlation
// id back, the context expires or the connection dies.
func (c *connection) request(ctx context.Context, msg wireMessage) (wireMessage, error) {
	respChan := make(chan wireMessage, 1)
	c.pending.Store(msg.ID, respChan)
	defer c.pending.Delete(msg.ID)

	select {
	case c.writeChan <- msg:
	case <-ctx.Done():
		return wireMessage{}, ctx.Err()
	case <-c.ctx.Done():
		return wireMessage{}, ErrClosed
	}

	select {
	case resp := <-respChan:
		return resp, nil
	case <-ctx.Done():
		return wireMessage{}, ctx.Err()
	case <-c.ctx.Done():
		return wireMessage{}, ErrClosed
	}
}
