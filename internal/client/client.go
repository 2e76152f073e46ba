// Package client is the local-side counterpart of the agent server: it
// dials the unix socket, sends one framed request, and reads the framed
// response. Used by the CLI subcommands.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"aios/internal/protocol"
)

// Client talks to a running agent daemon.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// New creates a client for the daemon at socketPath.
func New(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    60 * time.Second,
	}
}

// Call performs one request/response round trip on a fresh connection.
func (c *Client) Call(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("failed to reach agent at %s: %w", c.socketPath, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return protocol.Response{}, fmt.Errorf("failed to set deadline: %w", err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("failed to marshal request: %w", err)
	}
	if err := protocol.WriteFrame(conn, payload); err != nil {
		return protocol.Response{}, fmt.Errorf("failed to send request: %w", err)
	}

	data, err := protocol.ReadFrame(conn)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("failed to read response: %w", err)
	}

	var resp protocol.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return protocol.Response{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return resp, nil
}

// Chat sends user text for chat processing.
func (c *Client) Chat(ctx context.Context, text string) (protocol.Response, error) {
	return c.Call(ctx, protocol.Request{Cmd: protocol.CmdChat, Text: text})
}

// Action executes a raw action descriptor directly.
func (c *Client) Action(ctx context.Context, descriptor json.RawMessage) (protocol.Response, error) {
	return c.Call(ctx, protocol.Request{Cmd: protocol.CmdAction, Action: descriptor})
}

// Status queries daemon liveness and host info.
func (c *Client) Status(ctx context.Context) (protocol.Response, error) {
	return c.Call(ctx, protocol.Request{Cmd: protocol.CmdStatus})
}

// Clear empties the daemon's conversation history.
func (c *Client) Clear(ctx context.Context) (protocol.Response, error) {
	return c.Call(ctx, protocol.Request{Cmd: protocol.CmdClear})
}
