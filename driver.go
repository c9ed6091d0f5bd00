package cppdbc

import "context"

// Driver is the capability surface every backend implementation must
// provide. A driver is registered against one or more URL schemes via
// registry.Register and is never used directly by application code —
// the pool and the registry sit between a driver and its callers.
//
// Implementations must be safe for concurrent Connect calls; a single
// Connection returned from Connect is not required to be used from more
// than one goroutine at a time.
type Driver interface {
	// Connect opens one physical connection using the options parsed
	// from a registration URL, merged with any per-call overrides.
	Connect(ctx context.Context, url, user, password string, opts *Options) (Connection, error)

	// Accepts peeks at a URL's scheme only, without attempting to
	// connect. The registry uses it to pick the first matching driver.
	Accepts(url string) bool

	// SupportedIsolationLevels reports the isolation levels this driver
	// can honor. Connection.SetTransactionIsolation fails with
	// dberr.CodeUnsupportedIsolationSet for any level absent here.
	SupportedIsolationLevels() []IsolationLevel

	// Validate runs a cheap liveness check against an open connection
	// (e.g. "SELECT 1"). The pool calls this before handing a pooled
	// connection back to a caller and on its idle-validation sweep.
	Validate(ctx context.Context, conn Connection) error
}
