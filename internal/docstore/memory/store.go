// Package memory provides an in-process implementation of the document store
// used for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/aftras/crm/internal/docstore"
)

// Compile-time contract assertion.
var _ docstore.Store = (*Store)(nil)

// Op names an operation for fault injection.
type Op string

const (
	OpGet    Op = "get"
	OpList   Op = "list"
	OpQuery  Op = "query"
	OpAdd    Op = "add"
	OpSet    Op = "set"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpListen Op = "listen"
)

// FaultFunc lets tests make operations fail. Returning nil lets the
// operation proceed.
type FaultFunc func(op Op, collection, id string) error

type docKey struct {
	collection string
	id         string
}

// Store keeps every collection in memory. Transactions hold the store lock
// for their whole duration, so fn must only use the Tx it is given.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	watchers    map[docKey]map[*docstore.Subscription]struct{}
	fault       FaultFunc
	closed      bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		collections: make(map[string]map[string]map[string]any),
		watchers:    make(map[docKey]map[*docstore.Subscription]struct{}),
	}
}

// SetFault installs (or clears, with nil) a fault hook.
func (s *Store) SetFault(fn FaultFunc) {
	s.mu.Lock()
	s.fault = fn
	s.mu.Unlock()
}

func (s *Store) Driver() docstore.Driver { return docstore.DriverMemory }

func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return docstore.ErrUnavailable
	}
	return nil
}

// Close makes every later operation fail with ErrUnavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// -------------------------- Ops (auto-commit) --------------------------

func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	var out *docstore.Document
	err := s.RunInTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		var err error
		out, err = tx.Get(ctx, collection, id)
		return err
	})
	return out, err
}

func (s *Store) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	var out []docstore.Document
	err := s.RunInTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		var err error
		out, err = tx.List(ctx, collection)
		return err
	})
	return out, err
}

func (s *Store) Query(ctx context.Context, collection string, f docstore.Filter) ([]docstore.Document, error) {
	var out []docstore.Document
	err := s.RunInTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		var err error
		out, err = tx.Query(ctx, collection, f)
		return err
	})
	return out, err
}

func (s *Store) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	var id string
	err := s.RunInTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		var err error
		id, err = tx.Add(ctx, collection, data)
		return err
	})
	return id, err
}

func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any) error {
	return s.RunInTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		return tx.Set(ctx, collection, id, data)
	})
}

func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	return s.RunInTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		return tx.Update(ctx, collection, id, fields)
	})
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.RunInTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		return tx.Delete(ctx, collection, id)
	})
}

// -------------------------- transactions --------------------------

// RunInTransaction stages fn's writes in an overlay and applies them only
// when fn returns nil.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx docstore.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("memory store closed: %w", docstore.ErrUnavailable)
	}
	tx := &memTx{s: s, writes: make(map[docKey]*write)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.apply(tx.writes)
	return nil
}

type write struct {
	data    map[string]any // nil when deleted
	deleted bool
}

func (s *Store) apply(writes map[docKey]*write) {
	for k, w := range writes {
		coll := s.collections[k.collection]
		if w.deleted {
			if coll != nil {
				delete(coll, k.id)
			}
		} else {
			if coll == nil {
				coll = make(map[string]map[string]any)
				s.collections[k.collection] = coll
			}
			coll[k.id] = w.data
		}
		s.notifyLocked(k)
	}
}

func (s *Store) notifyLocked(k docKey) {
	subs := s.watchers[k]
	if len(subs) == 0 {
		return
	}
	doc := s.snapshotLocked(k)
	for sub := range subs {
		sub.Deliver(doc)
	}
}

func (s *Store) snapshotLocked(k docKey) *docstore.Document {
	data, ok := s.collections[k.collection][k.id]
	if !ok {
		return nil
	}
	d := docstore.Document{ID: k.id, Data: data}.Clone()
	return &d
}

func (s *Store) checkFault(op Op, collection, id string) error {
	if s.fault == nil {
		return nil
	}
	return s.fault(op, collection, id)
}

// -------------------------- listeners --------------------------

func (s *Store) Listen(ctx context.Context, collection, id string, fn func(*docstore.Document)) (*docstore.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("memory store closed: %w", docstore.ErrUnavailable)
	}
	if err := s.checkFault(OpListen, collection, id); err != nil {
		return nil, err
	}
	k := docKey{collection, id}
	sub := docstore.NewSubscription(ctx, fn)
	if s.watchers[k] == nil {
		s.watchers[k] = make(map[*docstore.Subscription]struct{})
	}
	s.watchers[k][sub] = struct{}{}
	sub.Deliver(s.snapshotLocked(k))

	sub.Go(func(ctx context.Context) {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers[k], sub)
		if len(s.watchers[k]) == 0 {
			delete(s.watchers, k)
		}
		s.mu.Unlock()
	})
	return sub, nil
}

// -------------------------- tx view --------------------------

type memTx struct {
	s      *Store
	writes map[docKey]*write
}

func (t *memTx) lookup(k docKey) (map[string]any, bool) {
	if w, ok := t.writes[k]; ok {
		if w.deleted {
			return nil, false
		}
		return w.data, true
	}
	data, ok := t.s.collections[k.collection][k.id]
	return data, ok
}

func (t *memTx) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	if err := t.s.checkFault(OpGet, collection, id); err != nil {
		return nil, err
	}
	data, ok := t.lookup(docKey{collection, id})
	if !ok {
		return nil, nil
	}
	d := docstore.Document{ID: id, Data: data}.Clone()
	return &d, nil
}

func (t *memTx) snapshot(collection string) []docstore.Document {
	ids := make(map[string]struct{})
	for id := range t.s.collections[collection] {
		ids[id] = struct{}{}
	}
	for k := range t.writes {
		if k.collection == collection {
			ids[k.id] = struct{}{}
		}
	}
	out := make([]docstore.Document, 0, len(ids))
	for id := range ids {
		if data, ok := t.lookup(docKey{collection, id}); ok {
			out = append(out, docstore.Document{ID: id, Data: data}.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *memTx) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	if err := t.s.checkFault(OpList, collection, ""); err != nil {
		return nil, err
	}
	return t.snapshot(collection), nil
}

func (t *memTx) Query(ctx context.Context, collection string, f docstore.Filter) ([]docstore.Document, error) {
	if err := t.s.checkFault(OpQuery, collection, ""); err != nil {
		return nil, err
	}
	vf, err := f.Validate()
	if err != nil {
		return nil, err
	}
	var out []docstore.Document
	for _, d := range t.snapshot(collection) {
		if vf.Match(d.Data) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (t *memTx) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	if err := t.s.checkFault(OpAdd, collection, id); err != nil {
		return "", err
	}
	if err := t.put(collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (t *memTx) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if err := t.s.checkFault(OpSet, collection, id); err != nil {
		return err
	}
	return t.put(collection, id, data)
}

func (t *memTx) put(collection, id string, data map[string]any) error {
	if id == "" {
		return fmt.Errorf("memory set %s: empty id", collection)
	}
	norm, err := docstore.NormalizeMap(data)
	if err != nil {
		return fmt.Errorf("memory set %s/%s: %w", collection, id, err)
	}
	t.writes[docKey{collection, id}] = &write{data: norm}
	return nil
}

func (t *memTx) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	if err := t.s.checkFault(OpUpdate, collection, id); err != nil {
		return err
	}
	k := docKey{collection, id}
	current, ok := t.lookup(k)
	if !ok {
		return fmt.Errorf("memory update %s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	norm, err := docstore.NormalizeMap(fields)
	if err != nil {
		return fmt.Errorf("memory update %s/%s: %w", collection, id, err)
	}
	merged := docstore.Document{Data: current}.Clone().Data
	for f, v := range norm {
		merged[f] = v
	}
	t.writes[k] = &write{data: merged}
	return nil
}

func (t *memTx) Delete(ctx context.Context, collection, id string) error {
	if err := t.s.checkFault(OpDelete, collection, id); err != nil {
		return err
	}
	t.writes[docKey{collection, id}] = &write{deleted: true}
	return nil
}
