// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/lion-device/lion/lib/codec"
)

// NotSupported is the payload text for requests whose resource carries
// neither a power nor a sysinfo variant.
const NotSupported = "Not supported"

// Request is a client command. Immutable once decoded.
type Request struct {
	Command  Command  `cbor:"command"`
	Resource Resource `cbor:"resource"`
	Payload  *Payload `cbor:"payload,omitempty"`
}

// Response answers a Request. Command and Resource always echo the
// request, whatever the outcome.
type Response struct {
	Command  Command  `cbor:"command"`
	Resource Resource `cbor:"resource"`
	Status   Status   `cbor:"status"`
	Payload  *Payload `cbor:"payload,omitempty"`
}

// NewResponse returns the default reply for request: command and
// resource echoed, status FAIL, no payload. Dispatch promotes it to OK
// only on an explicit success.
func NewResponse(request *Request) *Response {
	return &Response{
		Command:  request.Command,
		Resource: request.Resource.Clone(),
		Status:   StatusFail,
	}
}

// Failure returns a FAIL response carrying message as its payload.
// Used when a request could not be decoded and nothing can be echoed.
func Failure(message string) *Response {
	return &Response{Status: StatusFail, Payload: Text(message)}
}

// OK reports whether the response status is OK.
func (r *Response) OK() bool {
	return r.Status == StatusOK
}

func (r *Request) String() string {
	return fmt.Sprintf("%s %s payload=%s", r.Command, r.Resource, r.Payload)
}

func (r *Response) String() string {
	return fmt.Sprintf("%s %s %s payload=%s", r.Command, r.Resource, r.Status, r.Payload)
}

// DecodeError reports a malformed envelope. It is request-scoped: the
// worker answers it with a FAIL response and keeps serving.
type DecodeError struct {
	// Envelope is "request" or "response".
	Envelope string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Envelope, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (r *Request) validate() error {
	if !r.Command.Valid() {
		return fmt.Errorf("unknown command %d", uint8(r.Command))
	}
	if err := r.Resource.validate(); err != nil {
		return err
	}
	payload, err := normalizePayload(r.Payload)
	if err != nil {
		return err
	}
	r.Payload = payload
	return nil
}

func (r *Response) validate() error {
	if !r.Command.Valid() {
		return fmt.Errorf("unknown command %d", uint8(r.Command))
	}
	if !r.Status.Valid() {
		return fmt.Errorf("unknown status %d", uint8(r.Status))
	}
	if err := r.Resource.validate(); err != nil {
		return err
	}
	payload, err := normalizePayload(r.Payload)
	if err != nil {
		return err
	}
	r.Payload = payload
	return nil
}

// EncodeRequest validates and serializes request.
func EncodeRequest(request *Request) ([]byte, error) {
	if request == nil {
		return nil, fmt.Errorf("encoding request: nil request")
	}
	validated := *request
	if err := validated.validate(); err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return codec.Marshal(&validated)
}

// DecodeRequest parses and validates a serialized request. Every
// failure is a *DecodeError.
func DecodeRequest(data []byte) (*Request, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Envelope: "request", Err: fmt.Errorf("empty message")}
	}
	var request Request
	if err := codec.Unmarshal(data, &request); err != nil {
		return nil, &DecodeError{Envelope: "request", Err: err}
	}
	if err := request.validate(); err != nil {
		return nil, &DecodeError{Envelope: "request", Err: err}
	}
	return &request, nil
}

// EncodeResponse validates and serializes response.
func EncodeResponse(response *Response) ([]byte, error) {
	if response == nil {
		return nil, fmt.Errorf("encoding response: nil response")
	}
	validated := *response
	if err := validated.validate(); err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	return codec.Marshal(&validated)
}

// DecodeResponse parses and validates a serialized response.
func DecodeResponse(data []byte) (*Response, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Envelope: "response", Err: fmt.Errorf("empty message")}
	}
	var response Response
	if err := codec.Unmarshal(data, &response); err != nil {
		return nil, &DecodeError{Envelope: "response", Err: err}
	}
	if err := response.validate(); err != nil {
		return nil, &DecodeError{Envelope: "response", Err: err}
	}
	return &response, nil
}
