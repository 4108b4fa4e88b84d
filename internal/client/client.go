package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/attrstore/internal/attribute"
	"github.com/muurk/attrstore/internal/logging"
	"github.com/muurk/attrstore/internal/protocol"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single request when the context has no deadline.
const DefaultTimeout = 10 * time.Second

// Options configures Dial.
type Options struct {
	// TLSConfig is used for wss:// URLs. Nil uses the system defaults.
	TLSConfig *tls.Config

	// Timeout bounds the handshake and each request when the context has
	// no deadline. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Client talks to an attribute server over one WebSocket connection.
// Requests are sent one at a time; a Client is safe for concurrent use.
type Client struct {
	url     string
	timeout time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

// Dial connects to the server at url (e.g. "ws://localhost:8080/ws").
func Dial(ctx context.Context, url string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = &Options{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
		TLSClientConfig:  opts.TLSConfig,
	}

	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	conn.SetReadLimit(16 * protocol.MaxMessageSize)

	logging.Debug("Connected to attribute server", zap.String("url", url))

	return &Client{url: url, timeout: timeout, conn: conn}, nil
}

// URL returns the server URL.
func (c *Client) URL() string {
	return c.url
}

// Do sends req and waits for its response. A response carrying an error is
// returned as a *RemoteError.
func (c *Client) Do(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("client is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	_ = c.conn.SetWriteDeadline(deadline)
	_ = c.conn.SetReadDeadline(deadline)

	// Unblock a pending read if ctx is cancelled before the deadline.
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := c.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("failed to send %s request: %w", req.Op, err)
	}

	var resp protocol.Response
	if err := c.conn.ReadJSON(&resp); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to read %s response: %w", req.Op, err)
	}

	if resp.ID != req.ID {
		return nil, fmt.Errorf("response id %q does not match request id %q", resp.ID, req.ID)
	}
	if resp.Error != nil {
		return &resp, &RemoteError{
			Op:      req.Op,
			Name:    req.Name,
			Code:    resp.Error.Code,
			Message: resp.Error.Message,
		}
	}

	return &resp, nil
}

// List returns every attribute descriptor in registration order.
func (c *Client) List(ctx context.Context) ([]attribute.Descriptor, error) {
	resp, err := c.Do(ctx, protocol.BuildList())
	if err != nil {
		return nil, err
	}
	return resp.Attributes, nil
}

// Describe returns one attribute descriptor.
func (c *Client) Describe(ctx context.Context, name string) (attribute.Descriptor, error) {
	resp, err := c.Do(ctx, protocol.BuildDescribe(name))
	if err != nil {
		return attribute.Descriptor{}, err
	}
	if len(resp.Attributes) != 1 {
		return attribute.Descriptor{}, fmt.Errorf("describe %q: expected 1 descriptor, got %d", name, len(resp.Attributes))
	}
	return resp.Attributes[0], nil
}

// Read returns the attribute's typed value as sent by the server: a JSON
// boolean, integer, number or string.
func (c *Client) Read(ctx context.Context, name string) (json.RawMessage, error) {
	resp, err := c.Do(ctx, protocol.BuildRead(name))
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// ReadText returns the attribute's value in text form.
func (c *Client) ReadText(ctx context.Context, name string) (string, error) {
	raw, err := c.Read(ctx, name)
	if err != nil {
		return "", err
	}
	return ValueText(raw)
}

// Write stores value as the attribute's new raw text.
func (c *Client) Write(ctx context.Context, name, value string) error {
	req, err := protocol.BuildWrite(name, value)
	if err != nil {
		return err
	}
	_, err = c.Do(ctx, req)
	return err
}

// Snapshot lists every attribute and reads the readable ones. A failed read
// leaves the value out of the map and its error in errs.
func (c *Client) Snapshot(ctx context.Context) (descs []attribute.Descriptor, values map[string]string, errs map[string]error, err error) {
	descs, err = c.List(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	values = make(map[string]string, len(descs))
	errs = make(map[string]error)
	for _, d := range descs {
		if !d.Access.CanRead() {
			continue
		}
		text, readErr := c.ReadText(ctx, d.Name)
		if readErr != nil {
			if _, ok := AsRemoteError(readErr); !ok {
				return nil, nil, nil, readErr
			}
			errs[d.Name] = readErr
			continue
		}
		values[d.Name] = text
	}

	return descs, values, errs, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := c.conn.Close()
	c.conn = nil
	return err
}

// ValueText converts a JSON scalar value to text. Numbers keep their
// literal form.
func ValueText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("malformed value: %w", err)
	}
	text, ok := attribute.ScalarText(v)
	if !ok {
		return "", fmt.Errorf("value is not a scalar: %s", raw)
	}
	return text, nil
}
