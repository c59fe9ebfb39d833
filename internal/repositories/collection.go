package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/sirupsen/logrus"

	"github.com/aftras/crm/internal/docstore"
	"github.com/aftras/crm/internal/metrics"
	"github.com/aftras/crm/internal/utils"
)

/*
Entity:

  - `comparable` → lets a nil pointer stand for "not found"
  - GetID / SetID → the store-assigned id travels outside the document body
*/
type Entity interface {
	comparable
	GetID() string
	SetID(string)
}

/*
Collection is the typed accessor for one named collection. It gives you:

  - lenient reads (GetAll, GetByID, GetByQuery) that never fail and report
    store trouble in their result
  - strict reads (Find, List, Where) for workflows that must not act on a
    degraded view
  - writes (Add, Set, Update, Delete) that always propagate failures
  - ListenByID for a single-document subscription
*/
type Collection[T Entity] struct {
	name  string
	ops   docstore.Ops
	store docstore.Store
	quiet map[string]bool
}

// NewCollection binds name on store. Permission-denied reads of any quietIDs
// degrade without logging.
func NewCollection[T Entity](store docstore.Store, name string, quietIDs ...string) *Collection[T] {
	quiet := make(map[string]bool, len(quietIDs))
	for _, id := range quietIDs {
		quiet[id] = true
	}
	return &Collection[T]{name: name, ops: store, store: store, quiet: quiet}
}

func (c *Collection[T]) Name() string { return c.name }

// In returns a copy of c whose operations run inside tx.
func (c *Collection[T]) In(tx docstore.Tx) *Collection[T] {
	cp := *c
	cp.ops = tx
	return &cp
}

// -------------------------- strict reads --------------------------

// Find returns the zero T (nil) when the document does not exist.
func (c *Collection[T]) Find(ctx context.Context, id string) (T, error) {
	var zero T
	doc, err := c.ops.Get(ctx, c.name, id)
	if err != nil || doc == nil {
		return zero, err
	}
	return c.decode(*doc)
}

func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	docs, err := c.ops.List(ctx, c.name)
	if err != nil {
		return nil, err
	}
	return c.decodeAll(docs), nil
}

func (c *Collection[T]) Where(ctx context.Context, field string, op docstore.Op, value any) ([]T, error) {
	docs, err := c.ops.Query(ctx, c.name, docstore.Where(field, op, value))
	if err != nil {
		return nil, err
	}
	return c.decodeAll(docs), nil
}

// -------------------------- lenient reads --------------------------

func (c *Collection[T]) GetAll(ctx context.Context) ReadResult[T] {
	items, err := c.List(ctx)
	if err != nil {
		c.degraded("getAll", "", err)
		return ReadResult[T]{Items: []T{}, Err: err}
	}
	return ReadResult[T]{Items: items}
}

func (c *Collection[T]) GetByID(ctx context.Context, id string) Lookup[T] {
	item, err := c.Find(ctx, id)
	if err != nil {
		c.degraded("getById", id, err)
		var zero T
		return Lookup[T]{Item: zero, Err: err}
	}
	return Lookup[T]{Item: item}
}

func (c *Collection[T]) GetByQuery(ctx context.Context, field string, op docstore.Op, value any) ReadResult[T] {
	items, err := c.Where(ctx, field, op, value)
	if err != nil {
		c.degraded("getByQuery", "", err)
		return ReadResult[T]{Items: []T{}, Err: err}
	}
	return ReadResult[T]{Items: items}
}

func (c *Collection[T]) degraded(op, id string, err error) {
	reason := docstore.Reason(err)
	metrics.DegradedReads.WithLabelValues(c.name, reason).Inc()

	if id != "" && c.quiet[id] && errors.Is(err, docstore.ErrPermissionDenied) {
		return
	}
	entry := utils.Logger.WithFields(logrus.Fields{
		"collection": c.name,
		"op":         op,
		"reason":     reason,
	}).WithError(err)
	if id != "" {
		entry = entry.WithField("id", id)
	}
	if docstore.Expected(err) {
		entry.Debug("Document store read degraded")
	} else {
		entry.Error("Document store read failed")
	}
}

// -------------------------- writes --------------------------

// Add stores entity under a new id, which is set on entity.
func (c *Collection[T]) Add(ctx context.Context, entity T) (T, error) {
	data, err := c.encode(entity)
	if err != nil {
		return entity, err
	}
	id, err := c.ops.Add(ctx, c.name, data)
	if err != nil {
		c.logWrite("add", "", err)
		return entity, err
	}
	entity.SetID(id)
	return entity, nil
}

// Set creates or replaces the document under entity.GetID().
func (c *Collection[T]) Set(ctx context.Context, entity T) error {
	data, err := c.encode(entity)
	if err != nil {
		return err
	}
	if err := c.ops.Set(ctx, c.name, entity.GetID(), data); err != nil {
		c.logWrite("set", entity.GetID(), err)
		return err
	}
	return nil
}

// Update merges fields into the document. The caller's map is left untouched.
func (c *Collection[T]) Update(ctx context.Context, id string, fields docstore.Fields) error {
	fields = maps.Clone(fields)
	delete(fields, "id")
	if err := c.ops.Update(ctx, c.name, id, fields); err != nil {
		c.logWrite("update", id, err)
		return err
	}
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := c.ops.Delete(ctx, c.name, id); err != nil {
		c.logWrite("delete", id, err)
		return err
	}
	return nil
}

func (c *Collection[T]) logWrite(op, id string, err error) {
	if errors.Is(err, docstore.ErrNotFound) || errors.Is(err, docstore.ErrConflict) {
		return
	}
	utils.Logger.WithFields(logrus.Fields{
		"collection": c.name,
		"op":         op,
		"id":         id,
	}).WithError(err).Error("Document store write failed")
}

// -------------------------- listeners --------------------------

// ListenByID calls fn with the current entity and every later change; nil
// when the document is absent or deleted. Permission-denied is reported as
// nil instead of an error.
func (c *Collection[T]) ListenByID(ctx context.Context, id string, fn func(T)) (*docstore.Subscription, error) {
	var zero T
	if c.store == nil {
		return nil, fmt.Errorf("listen %s/%s: collection is bound to a transaction", c.name, id)
	}
	sub, err := c.store.Listen(ctx, c.name, id, func(doc *docstore.Document) {
		if doc == nil {
			fn(zero)
			return
		}
		item, err := c.decode(*doc)
		if err != nil {
			utils.Logger.WithError(err).WithField("collection", c.name).Warn("Dropping undecodable snapshot")
			return
		}
		fn(item)
	})
	if err != nil {
		if errors.Is(err, docstore.ErrPermissionDenied) {
			if !c.quiet[id] {
				utils.Logger.WithField("collection", c.name).WithError(err).Debug("Listen denied; reporting absent")
			}
			fn(zero)
			sub = docstore.NewSubscription(ctx, func(*docstore.Document) {})
			return sub, nil
		}
		return nil, err
	}
	return sub, nil
}

// -------------------------- codec --------------------------

func (c *Collection[T]) encode(entity T) (map[string]any, error) {
	b, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.name, err)
	}
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.name, err)
	}
	delete(data, "id")
	return data, nil
}

func (c *Collection[T]) decode(doc docstore.Document) (T, error) {
	var out T
	data := make(map[string]any, len(doc.Data)+1)
	for k, v := range doc.Data {
		data[k] = v
	}
	data["id"] = doc.ID
	b, err := json.Marshal(data)
	if err != nil {
		return out, fmt.Errorf("decode %s/%s: %w", c.name, doc.ID, err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode %s/%s: %w", c.name, doc.ID, err)
	}
	return out, nil
}

func (c *Collection[T]) decodeAll(docs []docstore.Document) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		item, err := c.decode(d)
		if err != nil {
			utils.Logger.WithError(err).WithField("collection", c.name).Warn("Skipping undecodable document")
			continue
		}
		out = append(out, item)
	}
	return out
}
