// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Lion's standard CBOR encoding configuration.
//
// CBOR is the only serialization format on the wire. It is used at two
// layers:
//
//   - The transport layer encodes each multipart message as a CBOR
//     array of byte strings (see package transport).
//   - The protocol layer encodes the request and response envelopes
//     carried inside those frames (see package protocol).
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. The
// same logical request always produces identical bytes, which keeps
// test fixtures stable.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Input received from peers goes through [UnmarshalLimited], which is
// bounded by [MaxMessageSize] and [MaxFrames] so a misbehaving peer
// cannot make the daemon allocate without limit. [Diagnose] renders
// encoded bytes in CBOR diagnostic notation for debugging output.
//
// Types that travel on the wire use `cbor` struct tags only.
package codec
