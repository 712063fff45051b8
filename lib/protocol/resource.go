// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import "fmt"

// ResourceKind is the tag of a Resource.
type ResourceKind uint8

const (
	// ResourceNone means neither variant is set. Requests with no
	// resource are answered with "Not supported".
	ResourceNone ResourceKind = iota
	ResourcePower
	ResourceSysInfo
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceNone:
		return "none"
	case ResourcePower:
		return "power"
	case ResourceSysInfo:
		return "sysinfo"
	default:
		return fmt.Sprintf("ResourceKind(%d)", uint8(k))
	}
}

// PowerResource targets a power-control operation.
type PowerResource struct {
	Type PowerType `cbor:"type"`
}

// SysInfoResource targets a system-information query.
type SysInfoResource struct {
	Type SysInfoType `cbor:"type"`
}

// Resource identifies the capability domain and operation a request
// targets. At most one field is set.
type Resource struct {
	Power   *PowerResource   `cbor:"power,omitempty"`
	SysInfo *SysInfoResource `cbor:"sysinfo,omitempty"`
}

// Power returns a resource targeting the given power operation.
func Power(powerType PowerType) Resource {
	return Resource{Power: &PowerResource{Type: powerType}}
}

// SysInfo returns a resource targeting the given query.
func SysInfo(sysInfoType SysInfoType) Resource {
	return Resource{SysInfo: &SysInfoResource{Type: sysInfoType}}
}

// Kind returns which variant is set. A resource with both variants set
// never survives decoding; Kind reports the power variant for it.
func (r Resource) Kind() ResourceKind {
	switch {
	case r.Power != nil:
		return ResourcePower
	case r.SysInfo != nil:
		return ResourceSysInfo
	default:
		return ResourceNone
	}
}

// Subtype returns the enum value within the set variant, or 0.
func (r Resource) Subtype() uint8 {
	switch r.Kind() {
	case ResourcePower:
		return uint8(r.Power.Type)
	case ResourceSysInfo:
		return uint8(r.SysInfo.Type)
	default:
		return 0
	}
}

// Equal reports whether r and other have the same tag and sub-type.
func (r Resource) Equal(other Resource) bool {
	return r.Kind() == other.Kind() && r.Subtype() == other.Subtype()
}

// Clone returns a deep copy so a response never aliases the request.
func (r Resource) Clone() Resource {
	var clone Resource
	if r.Power != nil {
		power := *r.Power
		clone.Power = &power
	}
	if r.SysInfo != nil {
		sysInfo := *r.SysInfo
		clone.SysInfo = &sysInfo
	}
	return clone
}

func (r Resource) String() string {
	switch r.Kind() {
	case ResourcePower:
		return "power/" + r.Power.Type.String()
	case ResourceSysInfo:
		return "sysinfo/" + r.SysInfo.Type.String()
	default:
		return "none"
	}
}

func (r Resource) validate() error {
	if r.Power != nil && r.SysInfo != nil {
		return fmt.Errorf("resource sets both power and sysinfo")
	}
	if r.Power != nil && !r.Power.Type.Valid() {
		return fmt.Errorf("unknown power type %d", uint8(r.Power.Type))
	}
	if r.SysInfo != nil && !r.SysInfo.Type.Valid() {
		return fmt.Errorf("unknown sysinfo type %d", uint8(r.SysInfo.Type))
	}
	return nil
}
