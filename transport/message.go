// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"fmt"

	"github.com/lion-device/lion/lib/codec"
)

// EncodedSize returns the number of bytes m occupies on the wire after
// the length prefix: one CBOR array of byte strings.
func (m Message) EncodedSize() int {
	size := cborHeaderSize(len(m))
	for _, frame := range m {
		size += cborHeaderSize(len(frame)) + len(frame)
	}
	return size
}

// CheckLimits reports why m cannot be sent, or nil if it can. A
// message needs at least one frame, at most codec.MaxFrames frames, and
// must encode to at most codec.MaxMessageSize bytes.
func CheckLimits(m Message) error {
	if len(m) == 0 {
		return errors.New("transport: message has no frames")
	}
	if len(m) > codec.MaxFrames {
		return fmt.Errorf("transport: message has %d frames, limit is %d", len(m), codec.MaxFrames)
	}
	if size := m.EncodedSize(); size > codec.MaxMessageSize {
		return fmt.Errorf("transport: message of %d bytes exceeds limit of %d", size, codec.MaxMessageSize)
	}
	return nil
}

// cborHeaderSize is the length of the head of a CBOR array or byte
// string with n elements or bytes.
func cborHeaderSize(n int) int {
	switch {
	case n < 24:
		return 1
	case n <= 0xff:
		return 2
	case n <= 0xffff:
		return 3
	case uint64(n) <= 0xffffffff:
		return 5
	default:
		return 9
	}
}
