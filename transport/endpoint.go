// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"fmt"
	"net"
	"strings"
)

// Endpoint schemes.
const (
	SchemeTCP    = "tcp"
	SchemeIPC    = "ipc"
	SchemeInproc = "inproc"
)

// Endpoint is a parsed endpoint URL.
type Endpoint struct {
	Scheme string

	// Address is host:port for tcp (host empty for "*"), a filesystem
	// path for ipc, and a name for inproc.
	Address string
}

// ParseEndpoint parses "scheme://address".
func ParseEndpoint(raw string) (Endpoint, error) {
	scheme, address, found := strings.Cut(raw, "://")
	if !found {
		return Endpoint{}, fmt.Errorf("endpoint %q: missing scheme (want tcp://, ipc:// or inproc://)", raw)
	}
	switch scheme {
	case SchemeTCP:
		host, port, err := net.SplitHostPort(address)
		if err != nil {
			return Endpoint{}, fmt.Errorf("endpoint %q: %w", raw, err)
		}
		if port == "" {
			return Endpoint{}, fmt.Errorf("endpoint %q: missing port", raw)
		}
		if host == "*" {
			host = ""
		}
		return Endpoint{Scheme: scheme, Address: net.JoinHostPort(host, port)}, nil
	case SchemeIPC, SchemeInproc:
		if address == "" {
			return Endpoint{}, fmt.Errorf("endpoint %q: empty %s address", raw, scheme)
		}
		return Endpoint{Scheme: scheme, Address: address}, nil
	default:
		return Endpoint{}, fmt.Errorf("endpoint %q: unsupported scheme %q", raw, scheme)
	}
}

func (e Endpoint) String() string {
	if e.Scheme == SchemeTCP && strings.HasPrefix(e.Address, ":") {
		return e.Scheme + "://*" + e.Address
	}
	return e.Scheme + "://" + e.Address
}
