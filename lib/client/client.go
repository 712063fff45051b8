// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lion-device/lion/lib/protocol"
	"github.com/lion-device/lion/transport"
)

// dialTimeout bounds connection establishment when the caller's
// context has no deadline.
const dialTimeout = 5 * time.Second

// Error is returned by Get and Set when the daemon answers FAIL.
type Error struct {
	Request  *protocol.Request
	Response *protocol.Response
}

func (e *Error) Error() string {
	detail, ok := e.Response.Payload.AsText()
	if !ok {
		detail = "request failed"
	}
	return fmt.Sprintf("%s %s: %s", e.Request.Command, e.Request.Resource, detail)
}

// Client is a connection to a daemon frontend. Safe for concurrent
// use; requests are serialized.
type Client struct {
	transport *transport.Context
	conn      *transport.Conn
	endpoint  string

	mu     sync.Mutex
	broken error
}

// Dial connects to the frontend at endpoint (tcp:// or ipc://).
func Dial(ctx context.Context, endpoint string) (*Client, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dialTimeout)
		defer cancel()
	}

	transportContext := transport.NewContext()
	conn, err := transportContext.Dial(ctx, endpoint)
	if err != nil {
		transportContext.Terminate()
		return nil, err
	}
	return &Client{transport: transportContext, conn: conn, endpoint: endpoint}, nil
}

// Do sends request and waits for the response. If ctx ends first the
// connection is closed and the client becomes unusable, since the late
// response would otherwise be read as the answer to the next request.
func (c *Client) Do(ctx context.Context, request *protocol.Request) (*protocol.Response, error) {
	body, err := protocol.EncodeRequest(request)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken != nil {
		return nil, fmt.Errorf("client unusable after earlier failure: %w", c.broken)
	}

	stop := context.AfterFunc(ctx, c.transport.Terminate)
	reply, err := c.exchange(body)
	if err != nil {
		stop()
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		c.broken = err
		c.transport.Terminate()
		return nil, fmt.Errorf("%s %s via %s: %w", request.Command, request.Resource, c.endpoint, err)
	}
	c.release(ctx, stop)

	response, err := protocol.DecodeResponse(reply)
	if err != nil {
		return nil, err
	}
	return response, nil
}

// release detaches the cancellation callback after a completed
// exchange. If ctx ended in the meantime the callback has already
// terminated the transport, and the reply in hand is the last one this
// client will get. Called with c.mu held.
func (c *Client) release(ctx context.Context, stop func() bool) {
	if !stop() {
		c.broken = ctx.Err()
	}
}

func (c *Client) exchange(body []byte) ([]byte, error) {
	if err := c.conn.Send(transport.Message{body}); err != nil {
		return nil, err
	}
	reply, err := c.conn.Recv()
	if err != nil {
		return nil, err
	}
	if len(reply) != 1 {
		return nil, fmt.Errorf("%w: reply has %d frames, want 1", transport.ErrProtocol, len(reply))
	}
	return reply[0], nil
}

// Get runs a sysinfo query and returns the payload of a successful
// response.
func (c *Client) Get(ctx context.Context, sysInfoType protocol.SysInfoType) (*protocol.Payload, error) {
	request := &protocol.Request{Command: protocol.CommandGet, Resource: protocol.SysInfo(sysInfoType)}
	response, err := c.Do(ctx, request)
	if err != nil {
		return nil, err
	}
	if !response.OK() {
		return nil, &Error{Request: request, Response: response}
	}
	return response.Payload, nil
}

// Set requests a power operation. confirm is sent as the bval payload;
// the daemon ignores requests without confirm.
func (c *Client) Set(ctx context.Context, powerType protocol.PowerType, confirm bool) error {
	request := &protocol.Request{
		Command:  protocol.CommandSet,
		Resource: protocol.Power(powerType),
		Payload:  protocol.Bool(confirm),
	}
	response, err := c.Do(ctx, request)
	if err != nil {
		return err
	}
	if !response.OK() {
		return &Error{Request: request, Response: response}
	}
	return nil
}

// Close releases the connection.
func (c *Client) Close() error {
	c.transport.Terminate()
	return nil
}

// IsFailure reports whether err is a FAIL answer from the daemon, as
// opposed to a transport or encoding problem.
func IsFailure(err error) bool {
	var failure *Error
	return errors.As(err, &failure)
}
