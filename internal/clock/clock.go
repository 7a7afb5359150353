// Package clock isolates time acquisition so tests can run deterministically.
package clock

import "time"

// NowFunc returns the current time. Override in tests.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }
