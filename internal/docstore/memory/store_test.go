package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aftras/crm/internal/docstore"
)

func TestCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	id, err := s.Add(ctx, "prospects", map[string]any{"name": "Kouassi", "status": "PENDING"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := s.Get(ctx, "prospects", id)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Kouassi", doc.Data["name"])
	_, hasID := doc.Data["id"]
	assert.False(t, hasID)

	require.NoError(t, s.Update(ctx, "prospects", id, docstore.Fields{"status": "CONVERTED"}))
	doc, err = s.Get(ctx, "prospects", id)
	require.NoError(t, err)
	assert.Equal(t, "CONVERTED", doc.Data["status"])
	assert.Equal(t, "Kouassi", doc.Data["name"])

	require.NoError(t, s.Delete(ctx, "prospects", id))
	doc, err = s.Get(ctx, "prospects", id)
	require.NoError(t, err)
	assert.Nil(t, doc)

	// Deleting again is fine.
	require.NoError(t, s.Delete(ctx, "prospects", id))
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	err := NewStore().Update(context.Background(), "clients", "nope", docstore.Fields{"a": 1})
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestSetReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Set(ctx, "settings", "app_config", map[string]any{"companyName": "A", "currency": "FCFA"}))
	require.NoError(t, s.Set(ctx, "settings", "app_config", map[string]any{"companyName": "B"}))

	doc, err := s.Get(ctx, "settings", "app_config")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"companyName": "B"}, doc.Data)
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Set(ctx, "c", "1", map[string]any{"tags": []any{"a"}}))

	doc, err := s.Get(ctx, "c", "1")
	require.NoError(t, err)
	doc.Data["tags"].([]any)[0] = "mutated"

	again, err := s.Get(ctx, "c", "1")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Data["tags"].([]any)[0])
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for i, agent := range []string{"a1", "a2", "a1"} {
		_, err := s.Add(ctx, "sales", map[string]any{"agentId": agent, "amount": (i + 1) * 1000})
		require.NoError(t, err)
	}

	docs, err := s.Query(ctx, "sales", docstore.Where("agentId", docstore.OpEqual, "a1"))
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = s.Query(ctx, "sales", docstore.Where("amount", docstore.OpGreaterEqual, 2000))
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, err = s.Query(ctx, "sales", docstore.Where("", docstore.OpEqual, "x"))
	require.ErrorIs(t, err, docstore.ErrInvalidFilter)

	all, err := s.List(ctx, "sales")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	empty, err := s.List(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTransactionCommitAndRollback(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Set(ctx, "clients", "c1", map[string]any{"status": "PENDING"}))

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		require.NoError(t, tx.Update(ctx, "clients", "c1", docstore.Fields{"status": "SALE_CONCLUDED"}))
		_, err := tx.Add(ctx, "sales", map[string]any{"clientId": "c1"})
		require.NoError(t, err)

		// Reads inside the transaction see its own writes.
		doc, err := tx.Get(ctx, "clients", "c1")
		require.NoError(t, err)
		assert.Equal(t, "SALE_CONCLUDED", doc.Data["status"])
		return boom
	})
	require.ErrorIs(t, err, boom)

	doc, err := s.Get(ctx, "clients", "c1")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", doc.Data["status"])
	sales, err := s.List(ctx, "sales")
	require.NoError(t, err)
	assert.Empty(t, sales)

	err = s.RunInTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		if err := tx.Update(ctx, "clients", "c1", docstore.Fields{"status": "SALE_CONCLUDED"}); err != nil {
			return err
		}
		_, err := tx.Add(ctx, "sales", map[string]any{"clientId": "c1"})
		return err
	})
	require.NoError(t, err)

	doc, err = s.Get(ctx, "clients", "c1")
	require.NoError(t, err)
	assert.Equal(t, "SALE_CONCLUDED", doc.Data["status"])
	sales, err = s.List(ctx, "sales")
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestFaultInjection(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.SetFault(func(op Op, collection, id string) error {
		if op == OpList && collection == "prospects" {
			return docstore.ErrUnavailable
		}
		return nil
	})

	_, err := s.List(ctx, "prospects")
	require.ErrorIs(t, err, docstore.ErrUnavailable)
	_, err = s.List(ctx, "clients")
	require.NoError(t, err)

	s.SetFault(nil)
	_, err = s.List(ctx, "prospects")
	require.NoError(t, err)
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Close())
	_, err := s.Get(context.Background(), "c", "1")
	require.ErrorIs(t, err, docstore.ErrUnavailable)
	require.ErrorIs(t, s.Ping(context.Background()), docstore.ErrUnavailable)
}

type recorder struct {
	mu   sync.Mutex
	docs []*docstore.Document
}

func (r *recorder) record(d *docstore.Document) {
	r.mu.Lock()
	r.docs = append(r.docs, d)
	r.mu.Unlock()
}

func (r *recorder) last() (*docstore.Document, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.docs) == 0 {
		return nil, 0
	}
	return r.docs[len(r.docs)-1], len(r.docs)
}

func TestListen(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Set(ctx, "settings", "app_config", map[string]any{"companyName": "A"}))

	rec := &recorder{}
	sub, err := s.Listen(ctx, "settings", "app_config", rec.record)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		d, n := rec.last()
		return n >= 1 && d != nil && d.Data["companyName"] == "A"
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Update(ctx, "settings", "app_config", docstore.Fields{"companyName": "B"}))
	require.Eventually(t, func() bool {
		d, _ := rec.last()
		return d != nil && d.Data["companyName"] == "B"
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Delete(ctx, "settings", "app_config"))
	require.Eventually(t, func() bool {
		d, n := rec.last()
		return n >= 2 && d == nil
	}, time.Second, 5*time.Millisecond)

	sub.Close()
	_, before := rec.last()
	require.NoError(t, s.Set(ctx, "settings", "app_config", map[string]any{"companyName": "C"}))
	time.Sleep(20 * time.Millisecond)
	_, after := rec.last()
	assert.Equal(t, before, after, "no callback after Close")
}

func TestListenMissingDeliversNil(t *testing.T) {
	defer goleak.VerifyNone(t)
	s := NewStore()
	rec := &recorder{}
	sub, err := s.Listen(context.Background(), "remote_prospects", "x", rec.record)
	require.NoError(t, err)
	defer sub.Close()

	require.Eventually(t, func() bool {
		d, n := rec.last()
		return n == 1 && d == nil
	}, time.Second, 5*time.Millisecond)
}

func TestListenRollbackDoesNotNotify(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Set(ctx, "c", "1", map[string]any{"v": 1}))
	rec := &recorder{}
	sub, err := s.Listen(ctx, "c", "1", rec.record)
	require.NoError(t, err)
	defer sub.Close()
	require.Eventually(t, func() bool { _, n := rec.last(); return n == 1 }, time.Second, 5*time.Millisecond)

	_ = s.RunInTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		_ = tx.Update(ctx, "c", "1", docstore.Fields{"v": 2})
		return errors.New("rollback")
	})
	time.Sleep(20 * time.Millisecond)
	_, n := rec.last()
	assert.Equal(t, 1, n)
}

func TestListenPermissionFault(t *testing.T) {
	s := NewStore()
	s.SetFault(func(op Op, _, _ string) error {
		if op == OpListen {
			return docstore.ErrPermissionDenied
		}
		return nil
	})
	_, err := s.Listen(context.Background(), "c", "1", func(*docstore.Document) {})
	require.ErrorIs(t, err, docstore.ErrPermissionDenied)
}
