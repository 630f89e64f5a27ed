package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"SignalFlow/internal/domain/models"
	applogger "SignalFlow/pkg/logger"
)

type frame struct {
	Type    string                 `json:"type"`
	OwnerID string                 `json:"owner_id"`
	Payload map[string]interface{} `json:"payload"`
}

// Client streams signal payloads from a provider over WebSocket.
type Client struct {
	url            string
	token          string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	logger         *applogger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

func NewClient(url, token string, reconnectDelay, pingInterval time.Duration, l *applogger.Logger) *Client {
	return &Client{
		url:            url,
		token:          token,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		logger:         l,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := c.url
	if c.token != "" {
		u = fmt.Sprintf("%s?token=%s", c.url, c.token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("feed connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	c.logger.Info("provider feed connected", applogger.String("url", c.url))
	return nil
}

func (c *Client) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// Read streams envelopes and errors for the current connection. Both channels
// close when the read loop exits; a receive error means the caller should
// reconnect. The ping loop lives only as long as this read session.
func (c *Client) Read(ctx context.Context) (<-chan *models.FeedEnvelope, <-chan error) {
	envelopes := make(chan *models.FeedEnvelope, 256)
	errs := make(chan error, 1)
	done := make(chan struct{})

	conn := c.current()

	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	go func() {
		defer close(envelopes)
		defer close(errs)
		defer close(done)
		if conn == nil {
			errs <- fmt.Errorf("feed conn nil")
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			default:
				_, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("feed read: %w", err)
					return
				}

				var f frame
				if err := json.Unmarshal(b, &f); err != nil {
					// ignore non-JSON frames
					continue
				}
				if f.Type != "signal" || f.OwnerID == "" {
					continue
				}

				select {
				case envelopes <- &models.FeedEnvelope{OwnerID: f.OwnerID, Payload: f.Payload}:
				default:
					c.logger.Warn("feed backpressure, dropping frame",
						applogger.String("owner_id", f.OwnerID))
				}
			}
		}
	}()

	return envelopes, errs
}

// Reconnect closes and reconnects after the configured delay.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.reconnectDelay):
	}
	return c.Connect(ctx)
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// IsConnected reports connection status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
