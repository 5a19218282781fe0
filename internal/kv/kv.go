// Package kv is the state store behind every workflow: per-key documents with
// optional expiry plus capped append-only lists.
package kv

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("kv: key not found")
	ErrConflict = errors.New("kv: too many concurrent modifications")
)

// UpdateFunc receives the current value and returns the value to write.
// Returning a nil slice leaves the key untouched. Returning an error aborts
// the update and is passed through to the caller unchanged.
type UpdateFunc func(current []byte) ([]byte, error)

type Store interface {
	// Get returns ErrNotFound for absent and expired keys.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value; ttl <= 0 means the key never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Take atomically reads and deletes key. Only one of several concurrent
	// callers observes the value, the others get ErrNotFound.
	Take(ctx context.Context, key string) ([]byte, error)
	// Update applies fn to the current value as a single read-check-write step,
	// keeping the key's expiry. Absent keys yield ErrNotFound without calling fn.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	// Push appends value to the list at key and keeps only the newest max
	// entries (max <= 0 keeps everything).
	Push(ctx context.Context, key string, value []byte, max int64) error
	// List returns list entries in insertion order.
	List(ctx context.Context, key string) ([][]byte, error)
	// Remove drops every occurrence of value from the list at key.
	Remove(ctx context.Context, key string, value []byte) error
}

const defaultUpdateRetries = 16
