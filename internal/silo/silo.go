// Package silo is the shared-store facade: named handles onto the
// Redis-shaped shared store the Job Queue and Node Heartbeat read and
// write. A Store is resolved by logical name (harvest-tasks,
// harvest-task-queue, harvest-nodes, harvest-templates,
// harvest-task-results) against a connection directory fetched from the
// coordinator at startup.
package silo

import (
	"context"
	"strconv"
	"time"
)

// Store is the vocabulary the core consumes from the shared store: list,
// hash, key/value, and scan operations. A single implementation
// (RedisStore) backs production use; MemoryStore backs tests.
type Store interface {
	// LLen returns the length of the list at key.
	LLen(ctx context.Context, key string) (int64, error)
	// RPop removes and returns the rightmost element of the list at key.
	// Returns ErrNotFound if the list is empty.
	RPop(ctx context.Context, key string) (string, error)
	// LPush prepends value to the list at key.
	LPush(ctx context.Context, key string, value string) error

	// HSet sets a single field on the hash at key.
	HSet(ctx context.Context, key, field, value string) error
	// HSetAll sets every field in mapping on the hash at key.
	HSetAll(ctx context.Context, key string, mapping map[string]string) error
	// HGet returns one field from the hash at key. Returns ErrNotFound if
	// the key or field is absent.
	HGet(ctx context.Context, key, field string) (string, error)
	// HGetAll returns every field of the hash at key. Returns an empty,
	// non-nil map (not an error) if the key does not exist.
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// Get returns the string value at key. Returns ErrNotFound if absent.
	Get(ctx context.Context, key string) (string, error)
	// Set sets key unconditionally, with no expiration.
	Set(ctx context.Context, key, value string) error
	// SetEx sets key with an expiration.
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	// Expire sets a new TTL on an existing key. A no-op (ok=false) if the
	// key does not exist.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Delete removes key, if present.
	Delete(ctx context.Context, key string) error

	// Scan iterates keys matching pattern, using count as a hint for the
	// underlying store's page size.
	Scan(ctx context.Context, pattern string, count int64) ([]string, error)
}

// Directory resolves logical silo names to Stores, built from the
// connection directory the coordinator returns from GET /silos/get_all.
type Directory struct {
	stores map[string]Store
}

// NewDirectory wraps an already-resolved name->Store map.
func NewDirectory(stores map[string]Store) *Directory {
	return &Directory{stores: stores}
}

// Get returns the named Store, or false if the name is unknown.
func (d *Directory) Get(name string) (Store, bool) {
	s, ok := d.stores[name]
	return s, ok
}

// MustGet returns the named Store, or panics if unknown. Intended for
// names the agent cannot run without (harvest-tasks, harvest-nodes), so a
// missing one is a startup bug, not a steady-state condition to recover
// from.
func (d *Directory) MustGet(name string) Store {
	s, ok := d.stores[name]
	if !ok {
		panic("silo: unknown store " + name)
	}
	return s
}

// Well-known silo names used throughout the agent.
const (
	Tasks       = "harvest-tasks"
	TaskQueue   = "harvest-task-queue"
	Nodes       = "harvest-nodes"
	Templates   = "harvest-templates"
	TaskResults = "harvest-task-results"
)

// QueueKey builds the priority-list key for a given priority level.
func QueueKey(priority int) string {
	return "queue::" + strconv.Itoa(priority)
}
