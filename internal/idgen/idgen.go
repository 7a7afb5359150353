// Package idgen wraps the UUID generator so it can be stubbed in tests.
// Callers must treat the produced identifiers as opaque strings; they name
// build sessions and events, never contexts (context ids are monotone
// integers owned by the registry).
package idgen

import "github.com/google/uuid"

// NewFunc produces a new globally unique identifier. Override in tests for
// determinism.
var NewFunc = func() string { return uuid.New().String() }

// New is a thin wrapper around NewFunc.
func New() string { return NewFunc() }
