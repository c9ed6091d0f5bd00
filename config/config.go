// Package config defines the plain, serializable records describing one
// target database and one connection pool. Neither type
// imports anything outside this package's own validation helpers; YAML
// loading lives in load.go as a separate, optional convenience that
// nothing in the core depends on.
package config

import (
	"strconv"
	"time"

	"github.com/sirlordt/cppdbc-go/dberr"
)

// Database describes one connection target: enough to build a
// cpp_dbc:<type>://<authority>/<database> URL plus credentials and
// driver-specific options.
type Database struct {
	Name         string // lookup key only, not part of the URL
	Type         string // mysql | postgresql | sqlite | ...
	Host         string
	Port         int
	DatabaseName string
	Username     string
	Password     string
	Options      map[string]string
}

// URL renders the cpp_dbc connection URL for this target.
func (d Database) URL() string {
	authority := d.Host
	if d.Port != 0 {
		authority = d.Host + ":" + strconv.Itoa(d.Port)
	}
	return "cpp_dbc:" + d.Type + "://" + authority + "/" + d.DatabaseName
}

// Pool describes one connection pool's sizing, timeouts, and defaults.
type Pool struct {
	InitialSize        int
	MinIdle            int
	MaxSize            int
	AcquireTimeout     time.Duration
	IdleTimeout        time.Duration
	ValidationInterval time.Duration
	ValidationQuery    string
	DefaultIsolation   string // one of the IsolationLevel.String() values
	DefaultAutoCommit  bool
	Options            map[string]string
}

// DefaultPool returns sane defaults: a pool usable out of the box for
// local development, tightened for production by the caller.
func DefaultPool() Pool {
	return Pool{
		InitialSize:        2,
		MinIdle:            2,
		MaxSize:            10,
		AcquireTimeout:     5 * time.Second,
		IdleTimeout:        10 * time.Minute,
		ValidationInterval: 30 * time.Second,
		ValidationQuery:    "SELECT 1",
		DefaultIsolation:   "READ_COMMITTED",
		DefaultAutoCommit:  true,
		Options:            map[string]string{},
	}
}

// Validate enforces the pool's sizing invariants: maxSize = 0 is
// rejected, initialSize > maxSize is rejected, minIdle may not exceed
// maxSize.
func (p Pool) Validate() error {
	if p.MaxSize == 0 {
		return dberr.New(dberr.CodeMaxSizeZero, dberr.Configuration, "pool max_size must be greater than zero")
	}
	if p.InitialSize > p.MaxSize {
		return dberr.New(dberr.CodeInitialGTMax, dberr.Configuration, "pool initial_size exceeds max_size")
	}
	if p.MinIdle > p.MaxSize {
		return dberr.New(dberr.CodePoolSizing, dberr.Configuration, "pool min_idle exceeds max_size")
	}
	if p.InitialSize < 0 || p.MinIdle < 0 {
		return dberr.New(dberr.CodePoolSizing, dberr.Configuration, "pool sizes must be non-negative")
	}
	return nil
}
