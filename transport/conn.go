// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/lion-device/lion/lib/codec"
	"github.com/lion-device/lion/lib/netutil"
)

// ErrProtocol reports a peer that sent something other than a valid
// message. The connection should be closed.
var ErrProtocol = errors.New("transport: protocol error")

// headerSize is the length prefix of every message.
const headerSize = 4

// Conn is a message-oriented connection. Send may be called from any
// goroutine; Recv must be called from one goroutine at a time.
type Conn struct {
	context *Context
	conn    net.Conn
	reader  *bufio.Reader
	peer    string

	writeMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
}

func newConn(c *Context, netConn net.Conn, peer string) *Conn {
	return &Conn{
		context: c,
		conn:    netConn,
		reader:  bufio.NewReader(netConn),
		peer:    peer,
		closed:  make(chan struct{}),
	}
}

// Peer describes the remote end for logging.
func (c *Conn) Peer() string {
	return c.peer
}

// Send writes message as one unit. Messages outside CheckLimits are
// rejected before anything is written.
func (c *Conn) Send(message Message) error {
	if err := CheckLimits(message); err != nil {
		return err
	}
	body, err := codec.Marshal([][]byte(message))
	if err != nil {
		return fmt.Errorf("transport: encoding message: %w", err)
	}

	buffer := make([]byte, headerSize+len(body))
	binary.BigEndian.PutUint32(buffer, uint32(len(body)))
	copy(buffer[headerSize:], body)

	c.writeMu.Lock()
	_, err = c.conn.Write(buffer)
	c.writeMu.Unlock()
	if err != nil {
		return c.failure("sending to", err)
	}
	return nil
}

// Recv reads the next message. A peer that hangs up yields an error
// for which IsDisconnect reports true.
func (c *Conn) Recv() (Message, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(c.reader, header[:]); err != nil {
		return nil, c.failure("receiving from", err)
	}
	size := binary.BigEndian.Uint32(header[:])
	if size == 0 || size > codec.MaxMessageSize {
		return nil, fmt.Errorf("%w: %s announced a message of %d bytes", ErrProtocol, c.peer, size)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(c.reader, body); err != nil {
		return nil, c.failure("receiving from", err)
	}

	var frames [][]byte
	if err := codec.UnmarshalLimited(body, &frames); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProtocol, c.peer, err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: %s sent a message with no frames", ErrProtocol, c.peer)
	}
	return Message(frames), nil
}

// Close closes the connection. Safe to call more than once.
func (c *Conn) Close() error {
	c.release()
	c.context.forgetConn(c)
	return nil
}

func (c *Conn) release() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

// failure maps an I/O error to ErrTerminated or ErrClosed when the
// connection was shut down on this side.
func (c *Conn) failure(operation string, err error) error {
	if c.context.Terminated() {
		return ErrTerminated
	}
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	return fmt.Errorf("%s %s: %w", operation, c.peer, err)
}

// IsDisconnect reports whether err means the peer went away.
func IsDisconnect(err error) bool {
	return netutil.IsExpectedCloseError(err) || errors.Is(err, io.ErrUnexpectedEOF)
}
