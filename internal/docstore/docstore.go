// Package docstore defines the contract every document-store backend
// implements: named collections of JSON-shaped documents keyed by an opaque
// string id, single-document listeners, and multi-document transactions.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// Driver identifies a concrete backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverPostgres Driver = "postgres"
	DriverMongo    Driver = "mongo"
)

// ParseDriver validates a STORE_DRIVER value.
func ParseDriver(s string) (Driver, error) {
	switch Driver(s) {
	case DriverMemory, DriverPostgres, DriverMongo:
		return Driver(s), nil
	default:
		return "", fmt.Errorf("unknown store driver %q", s)
	}
}

// Document is one stored record. Data never contains the id.
type Document struct {
	ID   string
	Data map[string]any
}

// Fields is a partial set of top-level fields merged by Update.
type Fields map[string]any

// Ops is the set of operations available both on a Store and inside a
// transaction.
type Ops interface {
	// Get returns (nil, nil) when the document does not exist.
	Get(ctx context.Context, collection, id string) (*Document, error)
	List(ctx context.Context, collection string) ([]Document, error)
	Query(ctx context.Context, collection string, f Filter) ([]Document, error)

	// Add stores data under a new store-assigned id.
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	// Set creates or replaces the document stored under id.
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// Update merges fields into an existing document; ErrNotFound if absent.
	Update(ctx context.Context, collection, id string, fields Fields) error
	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
}

// Tx is the view of the store handed to a transaction function.
type Tx interface {
	Ops
}

// Store is a document-store backend.
type Store interface {
	Ops

	// RunInTransaction applies fn atomically. The ctx passed to fn must be
	// used for every operation on tx. Returning an error rolls back.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Listen delivers the current state of one document and every later
	// change (nil when deleted) until the subscription is closed.
	Listen(ctx context.Context, collection, id string, fn func(*Document)) (*Subscription, error)

	Ping(ctx context.Context) error
	Close() error
	Driver() Driver
}

// Normalize converts v into its JSON-decoded form (strings, float64, bool,
// nil, []any, map[string]any) so that typed values compare the way they are
// stored.
func Normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool, float64:
		return t, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// NormalizeMap normalizes every value of m into a fresh map.
func NormalizeMap(m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		n, err := Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

// Clone deep-copies a document.
func (d Document) Clone() Document {
	return Document{ID: d.ID, Data: cloneMap(d.Data)}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		cp := make([]any, len(t))
		for i := range t {
			cp[i] = cloneValue(t[i])
		}
		return cp
	default:
		return t
	}
}
