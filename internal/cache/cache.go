package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/jackzampolin/bulletin/internal/fingerprint"
)

// Outcome describes how GetOrCompute produced its value.
type Outcome int

const (
	// Miss means no entry existed and compute ran.
	Miss Outcome = iota
	// Hit means the stored value was returned and compute did not run.
	Hit
	// Recovered means an entry existed but could not be read, decoded or
	// validated; compute ran and the entry was rewritten.
	Recovered
	// Shared means another caller in this process was already computing the
	// same key and its value was returned; this caller's compute did not run.
	Shared
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Recovered:
		return "recovered"
	case Shared:
		return "shared"
	default:
		return "miss"
	}
}

// MarshalText lets outcomes appear as words in YAML/JSON output.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// ReadError reports an entry that exists but is unusable. GetOrCompute logs it
// and treats the lookup as a miss.
type ReadError struct {
	Namespace string
	Key       fingerprint.Fingerprint
	Err       error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("cache %s: unreadable entry %s: %v", e.Namespace, e.Key.Short(), e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Codec converts values to and from their stored form.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// JSONCodec stores values as JSON.
type JSONCodec[V any] struct{}

// Encode marshals v.
func (JSONCodec[V]) Encode(v V) ([]byte, error) {
	return json.Marshal(v)
}

// Decode unmarshals b.
func (JSONCodec[V]) Decode(b []byte) (V, error) {
	var v V
	if err := json.Unmarshal(b, &v); err != nil {
		return v, err
	}
	return v, nil
}

// Options tune a Cache.
type Options[V any] struct {
	// Namespace labels log lines and errors. Defaults to "cache".
	Namespace string

	// Validate, when set, runs on every value read from the store and on every
	// computed value before it is written. Values that fail are never returned
	// from the store and never persisted.
	Validate func(V) error

	Logger *slog.Logger
}

// Stats reports cache activity since construction.
type Stats struct {
	Namespace     string `json:"namespace" yaml:"namespace"`
	Backend       string `json:"backend" yaml:"backend"`
	Hits          int64  `json:"hits" yaml:"hits"`
	Misses        int64  `json:"misses" yaml:"misses"`
	Recovered     int64  `json:"recovered" yaml:"recovered"`
	Writes        int64  `json:"writes" yaml:"writes"`
	WriteErrors   int64  `json:"write_errors" yaml:"write_errors"`
	ComputeErrors int64  `json:"compute_errors" yaml:"compute_errors"`
}

// Cache is a persistent get-or-compute map from fingerprints to values.
//
// It holds no in-memory copy of entries. Concurrent computes for one key in
// this process are collapsed and the waiters get outcome Shared; across
// processes a same-key race may compute twice, and the later write wins.
type Cache[V any] struct {
	namespace string
	store     Store
	codec     Codec[V]
	validate  func(V) error
	logger    *slog.Logger
	group     singleflight.Group

	hits          atomic.Int64
	misses        atomic.Int64
	recovered     atomic.Int64
	writes        atomic.Int64
	writeErrors   atomic.Int64
	computeErrors atomic.Int64
}

// New creates a cache over store.
func New[V any](store Store, codec Codec[V], opts Options[V]) *Cache[V] {
	if opts.Namespace == "" {
		opts.Namespace = "cache"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache[V]{
		namespace: opts.Namespace,
		store:     store,
		codec:     codec,
		validate:  opts.Validate,
		logger:    logger.With("cache", opts.Namespace, "backend", store.Backend()),
	}
}

// GetOrCompute returns the value stored under key, or runs compute, persists
// its result and returns it. compute is never called on a hit. A compute
// error, or a computed value rejected by Validate, is returned and nothing is
// written. A failed write is logged; the computed value is still returned.
func (c *Cache[V]) GetOrCompute(
	ctx context.Context,
	key fingerprint.Fingerprint,
	compute func(ctx context.Context) (V, error),
) (V, Outcome, error) {
	var zero V
	if !key.Valid() {
		return zero, Miss, fmt.Errorf("cache %s: %w: %q", c.namespace, ErrInvalidKey, key)
	}

	v, err := c.Get(ctx, key)
	if err == nil {
		c.hits.Add(1)
		c.logger.Debug("cache hit", "key", key.Short())
		return v, Hit, nil
	}

	outcome := Miss
	var readErr *ReadError
	switch {
	case errors.Is(err, ErrNotFound):
		c.misses.Add(1)
		c.logger.Debug("cache miss", "key", key.Short())
	case errors.As(err, &readErr):
		outcome = Recovered
		c.recovered.Add(1)
		c.logger.Warn("cache entry unreadable, recomputing", "key", key.Short(), "error", readErr.Err)
	default:
		return zero, Miss, err
	}

	if err := ctx.Err(); err != nil {
		return zero, outcome, err
	}

	// The first caller's compute serves every waiter on the key, so it must
	// not inherit that caller's cancellation. Each caller still stops waiting
	// when its own ctx ends.
	led := false
	ch := c.group.DoChan(string(key), func() (any, error) {
		led = true
		val, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			c.computeErrors.Add(1)
			return nil, err
		}
		if c.validate != nil {
			if err := c.validate(val); err != nil {
				c.computeErrors.Add(1)
				return nil, fmt.Errorf("cache %s: computed value rejected: %w", c.namespace, err)
			}
		}
		c.put(context.WithoutCancel(ctx), key, val)
		return val, nil
	})

	select {
	case <-ctx.Done():
		return zero, outcome, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, outcome, res.Err
		}
		if !led {
			outcome = Shared
		}
		return res.Val.(V), outcome, nil
	}
}

// Get returns the stored value for key. It returns ErrNotFound on a miss and
// a *ReadError when the entry exists but is unusable.
func (c *Cache[V]) Get(ctx context.Context, key fingerprint.Fingerprint) (V, error) {
	var zero V
	raw, err := c.store.Get(ctx, string(key))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return zero, ErrNotFound
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		return zero, &ReadError{Namespace: c.namespace, Key: key, Err: err}
	}

	v, err := c.codec.Decode(raw)
	if err != nil {
		return zero, &ReadError{Namespace: c.namespace, Key: key, Err: fmt.Errorf("decode: %w", err)}
	}
	if c.validate != nil {
		if err := c.validate(v); err != nil {
			return zero, &ReadError{Namespace: c.namespace, Key: key, Err: fmt.Errorf("validate: %w", err)}
		}
	}
	return v, nil
}

func (c *Cache[V]) put(ctx context.Context, key fingerprint.Fingerprint, v V) {
	raw, err := c.codec.Encode(v)
	if err != nil {
		c.writeErrors.Add(1)
		c.logger.Error("failed to encode cache value", "key", key.Short(), "error", err)
		return
	}
	if err := c.store.Put(ctx, string(key), raw); err != nil {
		c.writeErrors.Add(1)
		c.logger.Error("failed to write cache entry", "key", key.Short(), "error", err)
		return
	}
	c.writes.Add(1)
}

// Len returns the number of persisted entries.
func (c *Cache[V]) Len(ctx context.Context) (int, error) {
	return c.store.Len(ctx)
}

// Stats returns activity counters.
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Namespace:     c.namespace,
		Backend:       c.store.Backend(),
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Recovered:     c.recovered.Load(),
		Writes:        c.writes.Load(),
		WriteErrors:   c.writeErrors.Load(),
		ComputeErrors: c.computeErrors.Load(),
	}
}

// Close closes the backing store.
func (c *Cache[V]) Close() error {
	return c.store.Close()
}
