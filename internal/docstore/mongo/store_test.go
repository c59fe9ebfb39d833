package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/aftras/crm/internal/docstore"
)

func TestFilterDoc(t *testing.T) {
	f, err := docstore.Where("status", docstore.OpNotEqual, "ARCHIVED").Validate()
	require.NoError(t, err)
	assert.Equal(t, bson.M{"status": bson.M{"$ne": "ARCHIVED", "$exists": true}}, filterDoc(f))

	f, err = docstore.Where("agentId", docstore.OpIn, []string{"a", "b"}).Validate()
	require.NoError(t, err)
	assert.Equal(t, bson.M{"agentId": bson.M{"$in": []any{"a", "b"}}}, filterDoc(f))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	doc, err := encode("p1", map[string]any{"id": "ignored", "name": "Awa", "amount": 1500})
	require.NoError(t, err)
	assert.Equal(t, "p1", doc["_id"])

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	out, err := decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "p1", out.ID)
	assert.Equal(t, "Awa", out.Data["name"])
	assert.EqualValues(t, 1500, out.Data["amount"])
	assert.NotContains(t, out.Data, "_id")
	assert.NotContains(t, out.Data, "id")
}

func TestClassify(t *testing.T) {
	denied := mongo.CommandError{Code: codeUnauthorized, Message: "not authorized"}
	assert.ErrorIs(t, classify("get", denied), docstore.ErrPermissionDenied)

	conflict := mongo.CommandError{Code: codeWriteConflict}
	assert.ErrorIs(t, classify("update", conflict), docstore.ErrConflict)

	assert.ErrorIs(t, classify("get", context.DeadlineExceeded), docstore.ErrUnavailable)
	assert.ErrorIs(t, classify("get", mongo.ErrClientDisconnected), docstore.ErrUnavailable)
}

func TestListenerDeliversAbsentWhenStreamIsDenied(t *testing.T) {
	got := make(chan *docstore.Document, 1)
	sub := docstore.NewSubscription(context.Background(), func(d *docstore.Document) { got <- d })
	defer sub.Close()

	sub.End(classify("listen", mongo.CommandError{Code: codeUnauthorized, Message: "not authorized"}))

	select {
	case d := <-got:
		assert.Nil(t, d)
	case <-time.After(time.Second):
		t.Fatal("denied stream delivered nothing")
	}
}

func TestListenerKeepsLastSnapshotOnOtherStreamErrors(t *testing.T) {
	got := make(chan *docstore.Document, 1)
	sub := docstore.NewSubscription(context.Background(), func(d *docstore.Document) { got <- d })
	defer sub.Close()

	sub.End(classify("listen", nil))
	sub.End(classify("listen", context.Canceled))

	select {
	case d := <-got:
		t.Fatalf("unexpected snapshot %v", d)
	case <-time.After(20 * time.Millisecond):
	}
}
