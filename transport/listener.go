// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
)

// Listener accepts connections on a bound endpoint.
type Listener struct {
	context  *Context
	endpoint Endpoint

	// network is the OS listener for tcp and ipc endpoints.
	network net.Listener

	// incoming hands server-side pipe ends from dialInproc to Accept.
	// Unbuffered: a dial completes only once Accept takes it.
	incoming chan net.Conn

	closeOnce sync.Once
	closed    chan struct{}
}

// Accept waits for the next connection. Returns ErrTerminated once the
// context is terminated and ErrClosed after Close.
func (l *Listener) Accept() (*Conn, error) {
	if l.network != nil {
		netConn, err := l.network.Accept()
		if err != nil {
			return nil, l.closeError(err)
		}
		return l.context.track(newConn(l.context, netConn, netConn.RemoteAddr().String()))
	}

	select {
	case netConn := <-l.incoming:
		return l.context.track(newConn(l.context, netConn, l.endpoint.String()))
	case <-l.closed:
		return nil, l.closeError(net.ErrClosed)
	}
}

// Endpoint returns the bound endpoint. For "tcp://*:0" it reports the
// port the kernel chose.
func (l *Listener) Endpoint() string {
	return l.endpoint.String()
}

// Close stops accepting. Established connections stay open.
func (l *Listener) Close() error {
	l.release()
	l.context.forgetListener(l)
	return nil
}

func (l *Listener) release() {
	l.closeOnce.Do(func() {
		close(l.closed)
		if l.network == nil {
			return
		}
		l.network.Close()
		if l.endpoint.Scheme == SchemeIPC {
			os.Remove(l.endpoint.Address)
		}
	})
}

func (l *Listener) closeError(err error) error {
	if l.context.Terminated() {
		return ErrTerminated
	}
	select {
	case <-l.closed:
		return ErrClosed
	default:
	}
	return fmt.Errorf("accepting on %s: %w", l.endpoint, err)
}

// listenNetwork binds a tcp or ipc endpoint. A stale ipc socket file is
// removed first.
func listenNetwork(c *Context, endpoint Endpoint) (*Listener, error) {
	network := "tcp"
	if endpoint.Scheme == SchemeIPC {
		network = "unix"
		if err := os.Remove(endpoint.Address); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("removing stale socket %s: %w", endpoint.Address, err)
		}
	}

	netListener, err := net.Listen(network, endpoint.Address)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", endpoint, err)
	}
	// The ipc listener removes the socket file itself in release.
	if unixListener, ok := netListener.(*net.UnixListener); ok {
		unixListener.SetUnlinkOnClose(false)
	}

	bound := endpoint
	if endpoint.Scheme == SchemeTCP {
		bound.Address = netListener.Addr().String()
	}
	return &Listener{
		context:  c,
		endpoint: bound,
		network:  netListener,
		closed:   make(chan struct{}),
	}, nil
}

func dialNetwork(ctx context.Context, endpoint Endpoint) (net.Conn, error) {
	network := "tcp"
	if endpoint.Scheme == SchemeIPC {
		network = "unix"
	}
	var dialer net.Dialer
	return dialer.DialContext(ctx, network, endpoint.Address)
}

func (c *Context) listenInproc(endpoint Endpoint) (*Listener, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminated {
		return nil, ErrTerminated
	}
	if _, exists := c.inproc[endpoint.Address]; exists {
		return nil, fmt.Errorf("listening on %s: address already in use", endpoint)
	}
	listener := &Listener{
		context:  c,
		endpoint: endpoint,
		incoming: make(chan net.Conn),
		closed:   make(chan struct{}),
	}
	c.inproc[endpoint.Address] = listener
	return listener, nil
}

// errNoListener is returned when dialing an inproc name nobody bound.
var errNoListener = errors.New("no listener bound")

func (c *Context) dialInproc(ctx context.Context, endpoint Endpoint) (*Conn, error) {
	c.mu.Lock()
	if c.terminated {
		c.mu.Unlock()
		return nil, ErrTerminated
	}
	listener := c.inproc[endpoint.Address]
	c.mu.Unlock()
	if listener == nil {
		return nil, fmt.Errorf("dialing %s: %w", endpoint, errNoListener)
	}

	client, server := net.Pipe()
	select {
	case listener.incoming <- server:
	case <-listener.closed:
		client.Close()
		server.Close()
		return nil, listener.closeError(net.ErrClosed)
	case <-ctx.Done():
		client.Close()
		server.Close()
		return nil, fmt.Errorf("dialing %s: %w", endpoint, ctx.Err())
	}
	return c.track(newConn(c, client, endpoint.String()))
}
