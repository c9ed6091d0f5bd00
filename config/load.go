package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the on-disk shape: a database target plus a connection_pool
// block. This is the only place in the module that
// imports an encoding library — no core package (registry, pool, txn)
// ever sees *File or touches YAML; they consume Database and Pool values
// directly, constructed however the caller likes.
type File struct {
	Database struct {
		Name     string            `yaml:"name"`
		Type     string            `yaml:"type"`
		Host     string            `yaml:"host"`
		Port     int               `yaml:"port"`
		Database string            `yaml:"database"`
		Username string            `yaml:"username"`
		Password string            `yaml:"password"`
		Options  map[string]string `yaml:"options"`
	} `yaml:"database"`
	ConnectionPool struct {
		InitialSize             int               `yaml:"initial_size"`
		MinIdle                 int               `yaml:"min_idle"`
		MaxSize                 int               `yaml:"max_size"`
		AcquireTimeoutMillis    int               `yaml:"acquire_timeout_millis"`
		IdleTimeoutMillis       int               `yaml:"idle_timeout_millis"`
		ValidationIntervalMs    int               `yaml:"validation_interval_millis"`
		ValidationQuery         string            `yaml:"validation_query"`
		DefaultIsolation        string            `yaml:"default_isolation"`
		DefaultAutoCommit       bool              `yaml:"default_auto_commit"`
		Options                 map[string]string `yaml:"options"`
	} `yaml:"connection_pool"`
}

// LoadFile reads and parses a YAML configuration file at path into plain
// Database and Pool records. Convenience only: nothing in the core calls
// this, and a caller is free to build Database/Pool values by hand
// instead.
func LoadFile(path string) (Database, Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Database{}, Pool{}, err
	}
	return Load(data)
}

// Load parses raw YAML bytes into Database and Pool records.
func Load(data []byte) (Database, Pool, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Database{}, Pool{}, err
	}

	db := Database{
		Name:         f.Database.Name,
		Type:         f.Database.Type,
		Host:         f.Database.Host,
		Port:         f.Database.Port,
		DatabaseName: f.Database.Database,
		Username:     f.Database.Username,
		Password:     f.Database.Password,
		Options:      f.Database.Options,
	}

	pool := Pool{
		InitialSize:        f.ConnectionPool.InitialSize,
		MinIdle:            f.ConnectionPool.MinIdle,
		MaxSize:            f.ConnectionPool.MaxSize,
		AcquireTimeout:     time.Duration(f.ConnectionPool.AcquireTimeoutMillis) * time.Millisecond,
		IdleTimeout:        time.Duration(f.ConnectionPool.IdleTimeoutMillis) * time.Millisecond,
		ValidationInterval: time.Duration(f.ConnectionPool.ValidationIntervalMs) * time.Millisecond,
		ValidationQuery:    f.ConnectionPool.ValidationQuery,
		DefaultIsolation:   f.ConnectionPool.DefaultIsolation,
		DefaultAutoCommit:  f.ConnectionPool.DefaultAutoCommit,
		Options:            f.ConnectionPool.Options,
	}
	if pool.ValidationQuery == "" {
		pool = DefaultPool()
		pool.InitialSize = f.ConnectionPool.InitialSize
		pool.MinIdle = f.ConnectionPool.MinIdle
		pool.MaxSize = f.ConnectionPool.MaxSize
	}

	return db, pool, nil
}
