// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"strconv"
)

// Payload carries a single typed value. At most one field is set; a
// request or response without a value has a nil *Payload.
//
// LVal holds storage sizes, which do not fit in UVal.
type Payload struct {
	BVal *bool    `cbor:"bval,omitempty"`
	UVal *uint32  `cbor:"uval,omitempty"`
	LVal *uint64  `cbor:"lval,omitempty"`
	RVal *float64 `cbor:"rval,omitempty"`
	SVal *string  `cbor:"sval,omitempty"`
}

// Bool returns a payload holding a boolean.
func Bool(value bool) *Payload { return &Payload{BVal: &value} }

// Uint returns a payload holding a 32-bit unsigned integer.
func Uint(value uint32) *Payload { return &Payload{UVal: &value} }

// Uint64 returns a payload holding a 64-bit unsigned integer.
func Uint64(value uint64) *Payload { return &Payload{LVal: &value} }

// Real returns a payload holding a double.
func Real(value float64) *Payload { return &Payload{RVal: &value} }

// Text returns a payload holding a string.
func Text(value string) *Payload { return &Payload{SVal: &value} }

// AsBool returns the boolean value and whether that variant is set.
// Safe to call on a nil payload.
func (p *Payload) AsBool() (bool, bool) {
	if p == nil || p.BVal == nil {
		return false, false
	}
	return *p.BVal, true
}

// AsText returns the string value and whether that variant is set.
func (p *Payload) AsText() (string, bool) {
	if p == nil || p.SVal == nil {
		return "", false
	}
	return *p.SVal, true
}

// Value returns the set variant as a plain Go value, or nil.
func (p *Payload) Value() any {
	switch {
	case p == nil:
		return nil
	case p.BVal != nil:
		return *p.BVal
	case p.UVal != nil:
		return *p.UVal
	case p.LVal != nil:
		return *p.LVal
	case p.RVal != nil:
		return *p.RVal
	case p.SVal != nil:
		return *p.SVal
	default:
		return nil
	}
}

// Variant names the set field ("bval", "uval", ...), or "" when empty.
func (p *Payload) Variant() string {
	switch {
	case p == nil:
		return ""
	case p.BVal != nil:
		return "bval"
	case p.UVal != nil:
		return "uval"
	case p.LVal != nil:
		return "lval"
	case p.RVal != nil:
		return "rval"
	case p.SVal != nil:
		return "sval"
	default:
		return ""
	}
}

func (p *Payload) String() string {
	switch value := p.Value().(type) {
	case nil:
		return "<none>"
	case bool:
		return strconv.FormatBool(value)
	case uint32:
		return strconv.FormatUint(uint64(value), 10)
	case uint64:
		return strconv.FormatUint(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}

func (p *Payload) count() int {
	if p == nil {
		return 0
	}
	count := 0
	for _, set := range []bool{p.BVal != nil, p.UVal != nil, p.LVal != nil, p.RVal != nil, p.SVal != nil} {
		if set {
			count++
		}
	}
	return count
}

// normalizePayload validates the one-of constraint and collapses an
// empty payload map to nil.
func normalizePayload(p *Payload) (*Payload, error) {
	switch p.count() {
	case 0:
		return nil, nil
	case 1:
		return p, nil
	default:
		return nil, fmt.Errorf("payload sets %d variants, want at most one", p.count())
	}
}
