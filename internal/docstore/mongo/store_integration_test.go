//go:build integration

package mongo

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aftras/crm/internal/docstore"
)

func TestIntegrationMongoStore(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	name := "crm_it_" + uuid.NewString()[:8]
	s, err := Connect(ctx, uri, name)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close()
	})

	id, err := s.Add(ctx, "prospects", map[string]any{"agentId": "a1", "status": "PENDING"})
	require.NoError(t, err)

	docs, err := s.Query(ctx, "prospects", docstore.Where("agentId", docstore.OpEqual, "a1"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].ID)

	require.NoError(t, s.Update(ctx, "prospects", id, docstore.Fields{"status": "CONVERTED"}))
	doc, err := s.Get(ctx, "prospects", id)
	require.NoError(t, err)
	assert.Equal(t, "CONVERTED", doc.Data["status"])

	require.ErrorIs(t, s.Update(ctx, "prospects", "nope", docstore.Fields{"a": 1}), docstore.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "prospects", id))
	doc, err = s.Get(ctx, "prospects", id)
	require.NoError(t, err)
	assert.Nil(t, doc)
}
