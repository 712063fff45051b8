// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lion-device/lion/lib/metrics"
	"github.com/lion-device/lion/lib/protocol"
	"github.com/lion-device/lion/transport"
)

// Dispatcher executes a decoded request. *dispatch.Dispatcher
// implements it.
type Dispatcher interface {
	Dispatch(request *protocol.Request) *protocol.Response
}

// Worker serves requests from one backend connection.
type Worker struct {
	id         int
	conn       *transport.Conn
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Collector
}

// New creates a worker on an established backend connection.
func New(id int, conn *transport.Conn, dispatcher Dispatcher, logger *slog.Logger, collector *metrics.Collector) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		id:         id,
		conn:       conn,
		dispatcher: dispatcher,
		logger:     logger.With("worker", id),
		metrics:    collector,
	}
}

// Run serves requests until the connection ends. Returns nil when the
// transport context is terminated or the connection was closed on
// this side; any other failure is returned.
func (w *Worker) Run() error {
	w.logger.Debug("worker started")
	for {
		message, err := w.conn.Recv()
		if err != nil {
			return w.stop(err)
		}
		if err := w.conn.Send(w.handle(message)); err != nil {
			return w.stop(err)
		}
	}
}

func (w *Worker) stop(err error) error {
	if errors.Is(err, transport.ErrTerminated) || errors.Is(err, transport.ErrClosed) {
		w.logger.Debug("worker stopped")
		return nil
	}
	return fmt.Errorf("worker %d: %w", w.id, err)
}

// handle turns one [identity, request] message into the reply.
func (w *Worker) handle(message transport.Message) transport.Message {
	identity := message[0]
	logger := w.logger.With("trace", newTraceID())

	if len(message) != 2 {
		logger.Warn("malformed envelope", "frames", len(message))
		return w.reply(logger, identity, protocol.Failure(
			fmt.Sprintf("malformed envelope: want identity and one body frame, got %d frames", len(message))))
	}

	request, err := protocol.DecodeRequest(message[1])
	if err != nil {
		w.metrics.DecodeFailure()
		logger.Warn("rejecting request", "error", err, "size", len(message[1]))
		return w.reply(logger, identity, protocol.Failure(err.Error()))
	}

	logger.Debug("request received", "request", request)
	response := w.dispatcher.Dispatch(request)
	logger.Debug("request handled", "status", response.Status, "payload", response.Payload)
	return w.reply(logger, identity, response)
}

func (w *Worker) reply(logger *slog.Logger, identity []byte, response *protocol.Response) transport.Message {
	body, err := protocol.EncodeResponse(response)
	if err != nil {
		logger.Error("encoding response", "error", err, "response", response)
		body, err = protocol.EncodeResponse(protocol.Failure(err.Error()))
		if err != nil {
			panic("worker: encoding a failure response: " + err.Error())
		}
	}
	return transport.Message{identity, body}
}
