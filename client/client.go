// Package client provides a one-shot request client for the reqserver wire
// protocol: connect, send a single delimiter-terminated request, read the
// reply until the server closes the connection.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/cyberinferno/reqserver/server"
)

// Config holds configuration for the one-shot request client.
type Config struct {
	// Address is the "host:port" to connect to (e.g. "localhost:9000").
	Address string
	// DialTimeout is the max duration for establishing the connection.
	DialTimeout time.Duration
	// WriteTimeout is the max duration for sending the request; 0 means no timeout.
	WriteTimeout time.Duration
	// ReadTimeout is the max duration to wait for the full reply; 0 means no timeout.
	ReadTimeout time.Duration
}

// DefaultConfig returns a Config with default values for the given address.
// Override fields as needed before passing to New.
//
// Parameters:
//   - address: The "host:port" to connect to
//
// Returns:
//   - A Config with defaults: DialTimeout 10s, WriteTimeout 10s, ReadTimeout 10s
func DefaultConfig(address string) Config {
	return Config{
		Address:      address,
		DialTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
}

// Client sends one request per connection and collects the reply. It holds
// no connection state between calls, so it is safe for concurrent use.
type Client struct {
	config Config
}

// New creates a new one-shot request client with the given config.
//
// Parameters:
//   - config: Connection and timeout settings (e.g. from DefaultConfig)
//
// Returns:
//   - A new *Client ready to use
func New(config Config) *Client {
	return &Client{config: config}
}

// Do sends one request and returns the server's reply. The request
// delimiter is appended when the payload does not already end with it.
// The reply is everything the server writes before closing the
// connection; an empty reply with a nil error means the server chose to
// send nothing.
//
// Parameters:
//   - ctx: Context for cancelling the dial
//   - request: The request payload, with or without the trailing delimiter
//
// Returns:
//   - The reply bytes, which may be empty
//   - An error if the dial, write, or read failed
func (c *Client) Do(ctx context.Context, request []byte) ([]byte, error) {
	dialer := net.Dialer{Timeout: c.config.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.config.Address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.config.Address, err)
	}
	defer func() {
		_ = conn.Close()
	}()

	payload := request
	if !bytes.HasSuffix(payload, []byte(server.Delimiter)) {
		payload = append(append(make([]byte, 0, len(request)+len(server.Delimiter)), request...), server.Delimiter...)
	}

	if c.config.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout)); err != nil {
			return nil, err
		}
	}

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	if c.config.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout)); err != nil {
			return nil, err
		}
	}

	reply, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}

	return reply, nil
}
