// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// MaxMessageSize bounds a single CBOR data item received from a peer.
// Requests and responses are a few dozen bytes; 1 MiB leaves room for
// large string payloads such as DISK_INFO on hosts with many mounts.
const MaxMessageSize = 1024 * 1024

// MaxFrames bounds the number of elements in any CBOR array, which for
// the transport layer is the number of frames in one message.
const MaxFrames = 16

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2).
var encMode cbor.EncMode

// decMode decodes buffers. Unknown fields are silently ignored so that
// newer clients can talk to older daemons.
var decMode cbor.DecMode

// limitedDecMode decodes peer input and enforces the array limit.
var limitedDecMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decOptions := cbor.DecOptions{
		// Lion never uses non-string map keys. Decoding into any
		// yields map[string]any so values render as JSON unchanged.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// Duplicate keys would let a request carry two resource tags
		// that decode differently depending on key order.
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}
	decMode, err = decOptions.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}

	decOptions.MaxArrayElements = MaxFrames
	limitedDecMode, err = decOptions.DecMode()
	if err != nil {
		panic("codec: CBOR limited decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// UnmarshalLimited decodes data into v with the stream limits applied.
// Use it for buffers received from peers.
func UnmarshalLimited(data []byte, v any) error {
	if len(data) > MaxMessageSize {
		return fmt.Errorf("cbor item of %d bytes exceeds limit of %d", len(data), MaxMessageSize)
	}
	return limitedDecMode.Unmarshal(data, v)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for the
// entire contents of data.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
