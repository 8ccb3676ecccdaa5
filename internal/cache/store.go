// Package cache implements the content-addressed caches that sit in front of
// PDF text extraction and the structuring service.
//
// One generic Cache[V] provides get-or-compute semantics over any Store.
// Stores are namespaced key/value backends (filesystem, SQLite, Redis); the
// text cache and the response cache always use separate namespaces.
package cache

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Namespaces used by the pipeline.
const (
	NamespaceText      = "text"
	NamespaceResponses = "responses"
)

// Backend names accepted by Open.
const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// ErrNotFound is returned by a Store when no entry exists for a key.
var ErrNotFound = errors.New("cache entry not found")

// ErrInvalidKey is returned when a key contains characters a store cannot address safely.
var ErrInvalidKey = errors.New("invalid cache key")

var keyPattern = regexp.MustCompile(`^[0-9a-z]{8,128}$`)

// Store is a namespaced key/value backend. Implementations must make each Put
// a single atomic replacement of one entry so that a crash or cancellation
// never leaves another entry damaged.
type Store interface {
	// Get returns the stored bytes, ErrNotFound on a miss, or another error when
	// the entry exists but cannot be read.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Len returns the number of entries in the namespace.
	Len(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error

	// Backend returns the backend name ("fs", "sqlite", "redis").
	Backend() string
}

// Config selects and configures a backing store.
type Config struct {
	Backend       string // "fs" (default), "sqlite" or "redis"
	Dir           string // filesystem root; each namespace is a subdirectory
	SQLitePath    string // database file for the sqlite backend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string // key prefix, default "bulletin"
}

// Open creates the store for a namespace.
func Open(cfg Config, namespace string) (Store, error) {
	if !validNamespace(namespace) {
		return nil, fmt.Errorf("invalid cache namespace %q", namespace)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendFS:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("cache dir is required for the %s backend", BackendFS)
		}
		return NewFileStore(cfg.Dir, namespace)
	case BackendSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is required for the %s backend", BackendSQLite)
		}
		return NewSQLiteStore(cfg.SQLitePath, namespace)
	case BackendRedis:
		return NewRedisStore(RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		}, namespace)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func validKey(key string) bool {
	return keyPattern.MatchString(key)
}

func validNamespace(ns string) bool {
	if ns == "" {
		return false
	}
	for _, r := range ns {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '_' && r != '-' {
			return false
		}
	}
	return true
}
