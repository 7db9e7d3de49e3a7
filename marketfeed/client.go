// Package marketfeed implements the realtime ingestion producer: a
// reconnecting WebSocket client that subscribes to a configured ticker set,
// throttles trade frames with latest-wins semantics, and publishes
// binary-encoded envelopes to the log.
package marketfeed

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// minSubscribeIntervalMs is the minimum pacing between subscribe frames, so the
// fan-out doesn't trip server-side throttling.
const minSubscribeIntervalMs = 500

// Client wraps a single WebSocket connection to the vendor feed.
type Client struct {
	url     string
	writeMu sync.Mutex
	conn    *websocket.Conn
}

// NewClient builds a Client for the given vendor URL and auth token. The
// token travels in the query string, matching the vendor's documented
// WebSocket contract (§6): wss://<host>/?token=<API_TOKEN>.
func NewClient(wsURL, token string) (*Client, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("marketfeed: invalid url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return &Client{url: u.String()}, nil
}

// Connect dials the WebSocket endpoint.
func (c *Client) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, http.Header{})
	if err != nil {
		return fmt.Errorf("marketfeed: connect: %w", err)
	}
	c.conn = conn
	return nil
}

// SubscribeFrame is the JSON subscribe message shape, per §6.
type SubscribeFrame struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

// WriteJSON sends a JSON message thread-safely over the shared connection.
func (c *Client) WriteJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("marketfeed: not connected")
	}
	return c.conn.WriteJSON(v)
}

// ReadMessage reads one raw text/binary frame from the connection.
func (c *Client) ReadMessage() ([]byte, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("marketfeed: not connected")
	}
	_, data, err := c.conn.ReadMessage()
	return data, err
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
