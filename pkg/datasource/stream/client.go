// Package stream subscribes to a websocket quote feed. The client
// keeps a single connection alive, redials with exponential backoff
// when it drops and restores subscriptions after every reconnect, so
// the quote channel survives feed restarts.
package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

var ErrClosed = errors.New("stream closed")

type Option func(*Client)

// WithBackoff overrides the redial backoff bounds.
func WithBackoff(initial, max time.Duration) Option {
	return func(c *Client) {
		c.backoffMin = initial
		c.backoffMax = max
	}
}

// WithPingInterval overrides the keepalive interval.
func WithPingInterval(interval time.Duration) Option {
	return func(c *Client) {
		c.pingInterval = interval
	}
}

type Client struct {
	logger  *zap.Logger
	url     string
	symbols []string

	dialer       *websocket.Dialer
	pingInterval time.Duration
	backoffMin   time.Duration
	backoffMax   time.Duration

	ctx       context.Context
	ctxCancel context.CancelFunc

	mu   sync.RWMutex
	conn *connection

	quotes chan timeseries.Quote
}

// Dial connects to the feed and subscribes to the given symbols. The
// initial dial fails fast, later drops are redialed in the background
// until ctx is canceled or Close is called.
func Dial(ctx context.Context, logger *zap.Logger, url string, symbols []string, options ...Option) (*Client, error) {
	clientCtx, cancel := context.WithCancel(ctx)

	c := &Client{
		logger:  logger,
		url:     url,
		symbols: symbols,

		dialer:       &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		pingInterval: 30 * time.Second,
		backoffMin:   time.Second,
		backoffMax:   30 * time.Second,

		ctx:       clientCtx,
		ctxCancel: cancel,

		quotes: make(chan timeseries.Quote, 1024),
	}
	for _, option := range options {
		option(c)
	}

	conn, err := c.connect()
	if err != nil {
		cancel()
		return nil, err
	}
	c.setConn(conn)

	go c.supervise()
	return c, nil
}

func (c *Client) Close() {
	c.ctxCancel()
	if conn := c.getConn(); conn != nil {
		conn.stop()
	}
}

// Quotes exposes the raw quote channel. The channel is closed once the
// client shuts down.
func (c *Client) Quotes() <-chan timeseries.Quote {
	return c.quotes
}

// GetNext blocks until the next quote arrives. Returns ErrClosed once
// the client is closed and the buffer is drained.
func (c *Client) GetNext() (timeseries.Quote, error) {
	quote, ok := <-c.quotes
	if !ok {
		return timeseries.Quote{}, ErrClosed
	}
	return quote, nil
}

func (c *Client) connect() (*connection, error) {
	wsConn, _, err := c.dialer.DialContext(c.ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to dial %q: %w", c.url, err)
	}

	conn := newConnection(c.ctx, wsConn, c.logger, c.quotes)
	conn.start()
	c.keepAlive(conn)

	if len(c.symbols) > 0 {
		subCtx, subCancel := context.WithTimeout(c.ctx, 5*time.Second)
		defer subCancel()

		if err := subscribe(subCtx, conn, c.symbols); err != nil {
			conn.stop()
			return nil, err
		}
	}
	return conn, nil
}

// supervise redials when the active connection dies. Quotes are closed
// exactly once, after the last read pump has exited.
func (c *Client) supervise() {
	shutdown := func() {
		if conn := c.getConn(); conn != nil {
			conn.stop()
			conn.wg.Wait()
		}
		close(c.quotes)
	}

	backoff := c.backoffMin
	for {
		current := c.getConn()

		select {
		case <-c.ctx.Done():
			shutdown()
			return
		case <-current.ctx.Done():
		}

		for {
			select {
			case <-c.ctx.Done():
				shutdown()
				return
			case <-time.After(backoff):
			}

			conn, err := c.connect()
			if err != nil {
				c.logger.Warn("redial failed",
					zap.Error(err),
					zap.Duration("backoff", backoff))
				backoff *= 2
				if backoff > c.backoffMax {
					backoff = c.backoffMax
				}
				continue
			}

			c.logger.Info("stream reconnected", zap.String("url", c.url))
			c.setConn(conn)
			backoff = c.backoffMin
			break
		}
	}
}

func (c *Client) keepAlive(conn *connection) {
	ticker := time.NewTicker(c.pingInterval)
	go func() {
		for {
			select {
			case <-conn.ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				select {
				case conn.writeChan <- wireMessage{Type: typePing}:
				default: // drop if blocked
				}
			}
		}
	}()
}

func (c *Client) setConn(conn *connection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
}

func (c *Client) getConn() *connection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

func subscribe(ctx context.Context, conn *connection, symbols []string) error {
	payload, err := json.Marshal(wireSubscribe{Symbols: symbols})
	if err != nil {
		return fmt.Errorf("unable to marshal subscribe payload: %w", err)
	}

	msg := wireMessage{
		ID:      uuid.NewString(),
		Type:    typeSubscribe,
		Payload: payload,
	}

	resp, err := conn.request(ctx, msg)
	if err != nil {
		return fmt.Errorf("subscribe request failed: %w", err)
	}

	if resp.Type != typeSubscribed {
		var e wireError
		_ = json.Unmarshal(resp.Payload, &e)
		return fmt.Errorf("subscribe rejected: %s", e.Description)
	}
	return nil
}
