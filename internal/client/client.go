package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/models"
	"github.com/rs/zerolog"
)

var (
	ErrConnection   = errors.New("connection error")
	ErrInvalidState = errors.New("invalid client state")
)

// Client performs one request/response streaming exchange over a WebSocket.
// It is not safe for concurrent use.
type Client struct {
	dialer *websocket.Dialer
	conn   Conn
	state  State
	logger *zerolog.Logger
}

func NewClient(logger *zerolog.Logger) *Client {
	return &Client{
		dialer: websocket.DefaultDialer,
		state:  StateDisconnected,
		logger: logger,
	}
}

// newWithConn wraps an already established connection.
func newWithConn(conn Conn, logger *zerolog.Logger) *Client {
	return &Client{
		dialer: websocket.DefaultDialer,
		conn:   conn,
		state:  StateConnected,
		logger: logger,
	}
}

func (c *Client) State() State {
	return c.state
}

// Connect opens the connection. Failures wrap ErrConnection and are not retried.
func (c *Client) Connect(ctx context.Context, endpoint string) error {
	if c.state != StateDisconnected {
		return fmt.Errorf("%w: connect while %s", ErrInvalidState, c.state)
	}

	conn, resp, err := c.dialer.DialContext(ctx, endpoint, http.Header{})
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return fmt.Errorf("%w: handshake with %s rejected with status %d: %v", ErrConnection, endpoint, resp.StatusCode, err)
		}
		return fmt.Errorf("%w: unable to reach %s: %v", ErrConnection, endpoint, err)
	}

	c.conn = conn
	c.state = StateConnected
	c.logger.Debug().Str("endpoint", endpoint).Msg("Connected")
	return nil
}

// Send serializes the request and writes it as a single text message.
func (c *Client) Send(req models.Request) error {
	if c.state != StateConnected {
		return fmt.Errorf("%w: send while %s", ErrInvalidState, c.state)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, body); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	c.state = StateStreaming
	c.logger.Debug().
		Str("model_id", req.Parameters.ModelID).
		Int("prompt_len", len(req.Prompt)).
		Msg("Request sent")
	return nil
}

// Receive writes every text fragment to w as it arrives, without separators,
// and returns once the sentinel is read. The sentinel itself is not written.
// Binary frames are skipped.
// Without a deadline on ctx the read blocks for as long as the peer is silent.
func (c *Client) Receive(ctx context.Context, w io.Writer) (int, error) {
	if c.state != StateStreaming {
		return 0, fmt.Errorf("%w: receive while %s", ErrInvalidState, c.state)
	}

	stop := context.AfterFunc(ctx, func() {
		c.conn.Close()
	})
	defer stop()

	fragments := 0
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return fragments, ctx.Err()
			}
			return fragments, fmt.Errorf("failed to read fragment: %w", err)
		}
		if messageType != websocket.TextMessage {
			c.logger.Debug().Int("message_type", messageType).Msg("Skipping non-text frame")
			continue
		}

		fragment := string(data)
		if models.IsSentinel(fragment) {
			c.logger.Debug().Int("fragments", fragments).Msg("End of response")
			return fragments, nil
		}

		if _, err := io.WriteString(w, fragment); err != nil {
			return fragments, fmt.Errorf("failed to write fragment: %w", err)
		}
		fragments++
	}
}

// Close releases the connection. Calling it on a disconnected client is a no-op.
func (c *Client) Close() error {
	if c.state == StateDisconnected || c.conn == nil {
		c.state = StateDisconnected
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	c.state = StateDisconnected
	return err
}

// Stream runs Connect, Send and Receive, closing the connection on every path.
func (c *Client) Stream(ctx context.Context, endpoint string, req models.Request, w io.Writer) (err error) {
	if err := c.Connect(ctx, endpoint); err != nil {
		return err
	}
	defer func() {
		if closeErr := c.Close(); closeErr != nil && err == nil {
			c.logger.Debug().Err(closeErr).Msg("Close after stream failed")
		}
	}()

	if err := c.Send(req); err != nil {
		return err
	}

	_, err = c.Receive(ctx, w)
	return err
}

// Collect runs Stream and returns the concatenated fragments.
func (c *Client) Collect(ctx context.Context, endpoint string, req models.Request) (string, error) {
	var sb strings.Builder
	if err := c.Stream(ctx, endpoint, req, &sb); err != nil {
		return sb.String(), err
	}
	return sb.String(), nil
}
