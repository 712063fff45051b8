// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Package protocol defines the request and response envelopes that
// clients exchange with the Lion daemon, and their CBOR encoding.
//
// A [Request] names a [Command] (SET or GET), a [Resource] identifying
// the capability domain and operation, and an optional [Payload]. A
// [Response] echoes the request's command and resource, adds a
// [Status], and carries either the result or an error description in
// its payload.
//
// Resource and Payload are tagged unions. On the wire each variant is
// an optional map key; decoding rejects envelopes that set more than
// one variant or carry an enum value this version does not know. All
// decoding failures are returned as [*DecodeError] so the worker can
// answer with a FAIL response instead of dropping the request.
package protocol
