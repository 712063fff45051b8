// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lion-device/lion/lib/codec"
	"github.com/lion-device/lion/lib/metrics"
	"github.com/lion-device/lion/lib/protocol"
	"github.com/lion-device/lion/lib/testutil"
	"github.com/lion-device/lion/transport"
)

const testTimeout = 5 * time.Second

type testBroker struct {
	transport *transport.Context
	broker    *Broker
	cancel    context.CancelFunc
	done      chan error
}

func startBroker(t *testing.T) *testBroker {
	t.Helper()
	transportContext := transport.NewContext()
	t.Cleanup(transportContext.Terminate)

	logger, _ := testutil.NewLogger()
	broker, err := Listen(transportContext, Config{
		Frontend: "inproc://" + testutil.UniqueID("frontend"),
		Backend:  "inproc://" + testutil.UniqueID("backend"),
		Logger:   logger,
		Metrics:  metrics.New(),
	})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan error, 1)
	go func() { done <- broker.Serve(ctx) }()

	return &testBroker{transport: transportContext, broker: broker, cancel: cancel, done: done}
}

func (b *testBroker) dial(t *testing.T, endpoint string) *transport.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	conn, err := b.transport.Dial(ctx, endpoint)
	if err != nil {
		t.Fatalf("Dial(%s): %v", endpoint, err)
	}
	return conn
}

// recv receives one message within the test timeout.
func recv(t *testing.T, conn *transport.Conn) transport.Message {
	t.Helper()
	message, err := testutil.RequireReturn(t, conn.Recv, testTimeout, "receiving from %s", conn.Peer())
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	return message
}

func send(t *testing.T, conn *transport.Conn, frames ...string) {
	t.Helper()
	message := make(transport.Message, len(frames))
	for i, frame := range frames {
		message[i] = []byte(frame)
	}
	if err := conn.Send(message); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

// sendAsync sends from a goroutine. Inproc sends block until the peer
// reads, and the peer here may be a fake worker the test drives later.
func sendAsync(t *testing.T, conn *transport.Conn, message transport.Message) {
	t.Helper()
	go func() {
		if err := conn.Send(message); err != nil && !errors.Is(err, transport.ErrTerminated) {
			t.Errorf("Send: %v", err)
		}
	}()
}

func requireFrames(t *testing.T, message transport.Message, frames ...string) {
	t.Helper()
	if len(message) != len(frames) {
		t.Fatalf("got %d frames %q, want %q", len(message), message, frames)
	}
	for i, frame := range frames {
		if !bytes.Equal(message[i], []byte(frame)) {
			t.Errorf("frame %d = %q, want %q", i, message[i], frame)
		}
	}
}

// echoReply answers request by upper-casing the body, keeping the
// identity frame.
func echoReply(request transport.Message) transport.Message {
	return transport.Message{request[0], bytes.ToUpper(request[1])}
}

func TestRepliesRouteByIdentity(t *testing.T) {
	b := startBroker(t)
	worker := b.dial(t, b.broker.Backend())
	alice := b.dial(t, b.broker.Frontend())
	bob := b.dial(t, b.broker.Frontend())

	send(t, alice, "from alice")
	first := recv(t, worker)
	if len(first) != 2 || len(first[0]) != 16 {
		t.Fatalf("worker got %q, want [16-byte identity, body]", first)
	}
	requireFrames(t, first[1:], "from alice")

	send(t, bob, "from bob")
	sendAsync(t, worker, echoReply(first))
	requireFrames(t, recv(t, alice), "FROM ALICE")

	second := recv(t, worker)
	requireFrames(t, second[1:], "from bob")
	if bytes.Equal(first[0], second[0]) {
		t.Error("two clients share an identity")
	}
	sendAsync(t, worker, echoReply(second))
	requireFrames(t, recv(t, bob), "FROM BOB")
}

func TestRequestsQueueUntilWorkerConnects(t *testing.T) {
	b := startBroker(t)
	client := b.dial(t, b.broker.Frontend())

	send(t, client, "early", "multi-frame")

	worker := b.dial(t, b.broker.Backend())
	request := recv(t, worker)
	requireFrames(t, request[1:], "early", "multi-frame")

	sendAsync(t, worker, transport.Message{request[0], []byte("late reply")})
	requireFrames(t, recv(t, client), "late reply")
}

func TestLoadBalancesAcrossReadyWorkers(t *testing.T) {
	b := startBroker(t)
	first := b.dial(t, b.broker.Backend())
	second := b.dial(t, b.broker.Backend())
	alice := b.dial(t, b.broker.Frontend())
	bob := b.dial(t, b.broker.Frontend())

	// Both requests are outstanding at once, so each idle worker must
	// receive one of them.
	send(t, alice, "a")
	send(t, bob, "b")

	requestA := recv(t, first)
	requestB := recv(t, second)
	bodies := map[string]bool{string(requestA[1]): true, string(requestB[1]): true}
	if !bodies["a"] || !bodies["b"] {
		t.Fatalf("workers got %q and %q, want one each of a and b", requestA[1], requestB[1])
	}

	sendAsync(t, first, echoReply(requestA))
	sendAsync(t, second, echoReply(requestB))
	requireFrames(t, recv(t, alice), "A")
	requireFrames(t, recv(t, bob), "B")
}

func TestWorkerReceivesNextRequestAfterReply(t *testing.T) {
	b := startBroker(t)
	worker := b.dial(t, b.broker.Backend())
	client := b.dial(t, b.broker.Frontend())

	for _, body := range []string{"one", "two", "three"} {
		send(t, client, body)
		request := recv(t, worker)
		requireFrames(t, request[1:], body)
		sendAsync(t, worker, echoReply(request))
		requireFrames(t, recv(t, client), string(bytes.ToUpper([]byte(body))))
	}
}

func TestClientClosedWhenWorkerLost(t *testing.T) {
	b := startBroker(t)
	worker := b.dial(t, b.broker.Backend())
	client := b.dial(t, b.broker.Frontend())

	send(t, client, "doomed")
	recv(t, worker)
	worker.Close()

	_, err := testutil.RequireReturn(t, client.Recv, testTimeout, "client error after worker loss")
	if err == nil || !transport.IsDisconnect(err) {
		t.Errorf("client Recv = %v, want a disconnect", err)
	}
}

func TestReplyForDepartedClientIsDropped(t *testing.T) {
	b := startBroker(t)
	worker := b.dial(t, b.broker.Backend())
	departing := b.dial(t, b.broker.Frontend())
	staying := b.dial(t, b.broker.Frontend())

	send(t, departing, "bye")
	request := recv(t, worker)
	departing.Close()

	sendAsync(t, worker, echoReply(request))

	// The worker is ready again and serves the next client.
	send(t, staying, "hello")
	next := recv(t, worker)
	requireFrames(t, next[1:], "hello")
	sendAsync(t, worker, echoReply(next))
	requireFrames(t, recv(t, staying), "HELLO")
}

// requireFailure decodes message as a FAIL response and returns its
// text.
func requireFailure(t *testing.T, message transport.Message) string {
	t.Helper()
	if len(message) != 1 {
		t.Fatalf("got %d frames, want one response body", len(message))
	}
	response, err := protocol.DecodeResponse(message[0])
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if response.Status != protocol.StatusFail {
		t.Fatalf("status = %s, want FAIL", response.Status)
	}
	text, _ := response.Payload.AsText()
	return text
}

func TestOversizedRequestAnsweredByBroker(t *testing.T) {
	// Exactly the transport limit on the client's side; the identity
	// frame pushes it over.
	atLimit := transport.Message{make([]byte, codec.MaxMessageSize-6)}
	if err := transport.CheckLimits(atLimit); err != nil {
		t.Fatalf("test message does not fit the client limit: %v", err)
	}
	tooManyFrames := make(transport.Message, codec.MaxFrames)
	for i := range tooManyFrames {
		tooManyFrames[i] = []byte("frame")
	}

	tests := []struct {
		name    string
		message transport.Message
	}{
		{"body at size limit", atLimit},
		{"frames at frame limit", tooManyFrames},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := startBroker(t)
			worker := b.dial(t, b.broker.Backend())
			client := b.dial(t, b.broker.Frontend())

			sendAsync(t, client, test.message)
			if text := requireFailure(t, recv(t, client)); !strings.Contains(text, "request too large") {
				t.Errorf("failure text = %q, want it to mention the size", text)
			}

			// The worker never saw the oversized request, and the
			// client's connection is still usable.
			send(t, client, "small")
			request := recv(t, worker)
			requireFrames(t, request[1:], "small")
			sendAsync(t, worker, echoReply(request))
			requireFrames(t, recv(t, client), "SMALL")
		})
	}
}

func TestServeReturnsNilOnTerminate(t *testing.T) {
	b := startBroker(t)
	b.dial(t, b.broker.Backend())
	b.dial(t, b.broker.Frontend())

	b.transport.Terminate()
	if err := testutil.RequireReceive(t, b.done, testTimeout, "broker exit"); err != nil {
		t.Errorf("Serve after Terminate = %v, want nil", err)
	}
}

func TestServeReturnsNilOnCancel(t *testing.T) {
	b := startBroker(t)
	worker := b.dial(t, b.broker.Backend())

	b.cancel()
	if err := testutil.RequireReceive(t, b.done, testTimeout, "broker exit"); err != nil {
		t.Errorf("Serve after cancel = %v, want nil", err)
	}

	// The broker closed its side of every connection.
	if _, err := testutil.RequireReturn(t, worker.Recv, testTimeout, "worker Recv"); err == nil {
		t.Error("worker Recv succeeded after broker stopped")
	}
}

func TestListenRejectsBadEndpoints(t *testing.T) {
	transportContext := transport.NewContext()
	defer transportContext.Terminate()

	if _, err := Listen(transportContext, Config{Frontend: "bogus", Backend: "inproc://b"}); err == nil {
		t.Error("Listen accepted a bad frontend endpoint")
	}
	if _, err := Listen(transportContext, Config{Frontend: "inproc://f", Backend: "bogus"}); err == nil {
		t.Error("Listen accepted a bad backend endpoint")
	}
	// The failed attempt released the frontend name.
	if _, err := Listen(transportContext, Config{Frontend: "inproc://f", Backend: "inproc://b"}); err != nil {
		t.Errorf("Listen after a failed attempt: %v", err)
	}
}
