// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrTerminated is returned by every operation on a Listener or Conn
// whose Context has been terminated.
var ErrTerminated = errors.New("transport: context terminated")

// ErrClosed is returned by operations on a Conn or Listener after its
// own Close.
var ErrClosed = errors.New("transport: closed")

// Message is an ordered list of frames. The broker prepends an
// identity frame to route replies; applications see only their body
// frames.
type Message [][]byte

// Context is the shared transport state for one daemon or client. The
// zero value is not usable; call NewContext.
type Context struct {
	mu         sync.Mutex
	terminated bool
	done       chan struct{}

	listeners map[*Listener]struct{}
	conns     map[*Conn]struct{}

	// inproc maps inproc endpoint names to their listener.
	inproc map[string]*Listener
}

// NewContext creates a transport context.
func NewContext() *Context {
	return &Context{
		done:      make(chan struct{}),
		listeners: make(map[*Listener]struct{}),
		conns:     make(map[*Conn]struct{}),
		inproc:    make(map[string]*Listener),
	}
}

// Listen binds endpoint. The listener accepts connections as soon as
// Listen returns.
func (c *Context) Listen(endpoint string) (*Listener, error) {
	parsed, err := ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	var listener *Listener
	switch parsed.Scheme {
	case SchemeInproc:
		listener, err = c.listenInproc(parsed)
	default:
		listener, err = listenNetwork(c, parsed)
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminated {
		listener.release()
		return nil, ErrTerminated
	}
	c.listeners[listener] = struct{}{}
	return listener, nil
}

// Dial connects to endpoint. ctx bounds connection establishment only.
func (c *Context) Dial(ctx context.Context, endpoint string) (*Conn, error) {
	parsed, err := ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	if c.Terminated() {
		return nil, ErrTerminated
	}

	switch parsed.Scheme {
	case SchemeInproc:
		return c.dialInproc(ctx, parsed)
	default:
		netConn, err := dialNetwork(ctx, parsed)
		if err != nil {
			return nil, fmt.Errorf("dialing %s: %w", parsed, err)
		}
		return c.track(newConn(c, netConn, parsed.String()))
	}
}

// Terminate closes every listener and connection of the context.
// Blocked and subsequent operations return ErrTerminated. Safe to call
// more than once.
func (c *Context) Terminate() {
	c.mu.Lock()
	if c.terminated {
		c.mu.Unlock()
		return
	}
	c.terminated = true
	close(c.done)

	listeners := make([]*Listener, 0, len(c.listeners))
	for listener := range c.listeners {
		listeners = append(listeners, listener)
	}
	conns := make([]*Conn, 0, len(c.conns))
	for conn := range c.conns {
		conns = append(conns, conn)
	}
	c.listeners = nil
	c.conns = nil
	c.inproc = nil
	c.mu.Unlock()

	for _, listener := range listeners {
		listener.release()
	}
	for _, conn := range conns {
		conn.release()
	}
}

// Done is closed when the context is terminated.
func (c *Context) Done() <-chan struct{} {
	return c.done
}

// Terminated reports whether Terminate has been called.
func (c *Context) Terminated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminated
}

// track registers conn so Terminate can close it. A conn created
// concurrently with Terminate is closed immediately.
func (c *Context) track(conn *Conn) (*Conn, error) {
	c.mu.Lock()
	if c.terminated {
		c.mu.Unlock()
		conn.release()
		return nil, ErrTerminated
	}
	c.conns[conn] = struct{}{}
	c.mu.Unlock()
	return conn, nil
}

func (c *Context) forgetConn(conn *Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.conns, conn)
}

func (c *Context) forgetListener(listener *Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.listeners, listener)
	if listener.endpoint.Scheme == SchemeInproc && c.inproc[listener.endpoint.Address] == listener {
		delete(c.inproc, listener.endpoint.Address)
	}
}
