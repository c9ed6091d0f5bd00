// Package registry dispatches connection URLs to a registered Driver by
// scheme, the way database/sql dispatches by driver name but keyed off the
// URL itself rather than a separate registration string.
package registry

import (
	"context"
	"strings"
	"sync"

	"github.com/sirlordt/cppdbc-go"
	"github.com/sirlordt/cppdbc-go/dberr"
)

// Registry holds a set of named drivers and resolves a connection URL to
// a live Connection by finding the first registered driver whose
// Accepts(url) returns true.
//
// URL grammar: cpp_dbc:<type>://<authority>/<database>[?<opts>]. The
// registry itself only ever looks at the <type> token between the first
// and second colon; everything past that is the driver's concern.
type Registry struct {
	mu      sync.RWMutex
	schemes []string // registration order, for first-match semantics
	drivers map[string]cppdbc.Driver
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{drivers: make(map[string]cppdbc.Driver)}
}

// Register binds scheme to driver. Idempotent by scheme name: a second
// Register call for the same scheme replaces the first, as spec'd, and
// does not change that scheme's position in first-match order.
func (r *Registry) Register(scheme string, driver cppdbc.Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[scheme]; !exists {
		r.schemes = append(r.schemes, scheme)
	}
	r.drivers[scheme] = driver
}

// Scheme extracts the <type> token from a cpp_dbc:<type>://... URL
// without delegating to any driver. Returns an error if the URL does not
// contain at least two colon-delimited segments.
func Scheme(url string) (string, error) {
	first := strings.IndexByte(url, ':')
	if first < 0 {
		return "", dberr.New(dberr.CodeBadURL, dberr.Configuration, "connection url missing scheme separator: "+url)
	}
	rest := url[first+1:]
	second := strings.IndexByte(rest, ':')
	if second < 0 {
		return "", dberr.New(dberr.CodeBadURL, dberr.Configuration, "connection url missing type token: "+url)
	}
	return rest[:second], nil
}

// GetConnection finds the first registered driver whose Accepts(url)
// returns true and asks it to connect. Fails with CodeUnknownScheme if no
// driver accepts the URL.
func (r *Registry) GetConnection(ctx context.Context, url, user, password string, opts *cppdbc.Options) (cppdbc.Connection, error) {
	driver, err := r.resolve(url)
	if err != nil {
		return nil, err
	}

	conn, err := driver.Connect(ctx, url, user, password, opts)
	if err != nil {
		return nil, dberr.Wrap(dberr.CodeDriverConnect, dberr.Driver, err, "driver connect failed for "+url)
	}
	return conn, nil
}

// Driver returns the first registered driver that accepts url, without
// connecting. Used by the pool, which constructs many connections from
// one resolved driver rather than re-resolving on every acquire.
func (r *Registry) Driver(url string) (cppdbc.Driver, error) {
	return r.resolve(url)
}

func (r *Registry) resolve(url string) (cppdbc.Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, scheme := range r.schemes {
		d := r.drivers[scheme]
		if d.Accepts(url) {
			return d, nil
		}
	}
	return nil, dberr.New(dberr.CodeUnknownScheme, dberr.Configuration, "no registered driver accepts url: "+url)
}
