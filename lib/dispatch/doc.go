// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch maps decoded requests onto capability calls.
//
// Routing is a table keyed by (command, resource kind, sub-type). Each
// entry names the [capability.Provider] method to call and how its
// result becomes a response payload: strings travel as sval, counts as
// uval, storage sizes as lval, measurements as rval. Power entries
// additionally require the request payload to carry bval == true;
// anything else is a no-op answered with FAIL.
//
// [Dispatcher.Dispatch] never fails. Whatever happens (an unknown
// combination, a capability error, a panicking provider) it returns a
// response whose command and resource echo the request, with status
// OK only when the capability call succeeded.
package dispatch
