// Package metadata implements the key-value store that holds every persisted
// session record: credential, profile, rate-limit records and the activity
// record. All processes pointed at the same SQLite file or Redis namespace
// share these records.
package metadata

import (
	"context"
)

// Repository is a byte-oriented key-value store.
//
// Get returns (nil, nil) when the key does not exist. Delete ignores
// missing keys. List returns every pair whose key starts with prefix.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context, prefix string) (map[string][]byte, error)
	Clear(ctx context.Context) error
}

// UpdateFunc receives the current value (nil when absent) and returns the
// value to store. Returning a nil value deletes the key.
type UpdateFunc func(current []byte) ([]byte, error)

// Updater is implemented by repositories that can apply a read-modify-write
// atomically with respect to every other process sharing the store.
// Implementations retry on concurrent modification and give up with
// common.ErrVersionConflict.
type Updater interface {
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// maxUpdateAttempts bounds optimistic retries in Update implementations.
const maxUpdateAttempts = 8
