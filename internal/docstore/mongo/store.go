// Package mongo backs the document store with MongoDB. Transactions and
// listeners need a replica set.
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aftras/crm/internal/docstore"
)

var _ docstore.Store = (*Store)(nil)

// Store is the MongoDB backend.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	ops
}

// Connect dials uri and selects database name.
func Connect(ctx context.Context, uri, name string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, classify("connect", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, classify("ping", err)
	}
	return New(client, name), nil
}

// New wraps a connected client.
func New(client *mongo.Client, name string) *Store {
	db := client.Database(name)
	return &Store{client: client, db: db, ops: ops{db: db}}
}

func (s *Store) Driver() docstore.Driver { return docstore.DriverMongo }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return classify("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// RunInTransaction runs fn inside a session transaction. The driver may
// re-run fn on transient errors.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx docstore.Tx) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return classify("start session", err)
	}
	defer sess.EndSession(context.Background())

	var fnErr error
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		fnErr = fn(sc, &s.ops)
		return nil, fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return classify("transaction", err)
	}
	return nil
}

type changeEvent struct {
	OperationType string   `bson:"operationType"`
	FullDocument  bson.Raw `bson:"fullDocument"`
}

// Listen opens a change stream filtered to one document key.
func (s *Store) Listen(ctx context.Context, collection, id string, fn func(*docstore.Document)) (*docstore.Subscription, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: id}}}}}
	stream, err := s.db.Collection(collection).Watch(ctx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, classify("listen", err)
	}
	current, err := s.Get(ctx, collection, id)
	if err != nil {
		_ = stream.Close(context.Background())
		return nil, err
	}

	sub := docstore.NewSubscription(ctx, fn)
	sub.Deliver(current)
	sub.Go(func(ctx context.Context) {
		defer stream.Close(context.Background()) //nolint:errcheck
		for stream.Next(ctx) {
			var ev changeEvent
			if err := stream.Decode(&ev); err != nil {
				continue
			}
			if ev.OperationType == "delete" || len(ev.FullDocument) == 0 {
				sub.Deliver(nil)
				continue
			}
			doc, err := decode(ev.FullDocument)
			if err != nil {
				continue
			}
			sub.Deliver(&doc)
		}
		sub.End(classify("listen", stream.Err()))
	})
	return sub, nil
}

// -------------------------- operations --------------------------

type ops struct {
	db *mongo.Database
}

func (o *ops) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	var raw bson.Raw
	err := o.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, classify("get", err)
	}
	doc, err := decode(raw)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (o *ops) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	return o.find(ctx, "list", collection, bson.M{})
}

var operators = map[docstore.Op]string{
	docstore.OpEqual:        "$eq",
	docstore.OpNotEqual:     "$ne",
	docstore.OpLess:         "$lt",
	docstore.OpLessEqual:    "$lte",
	docstore.OpGreater:      "$gt",
	docstore.OpGreaterEqual: "$gte",
	docstore.OpIn:           "$in",
}

func (o *ops) Query(ctx context.Context, collection string, f docstore.Filter) ([]docstore.Document, error) {
	vf, err := f.Validate()
	if err != nil {
		return nil, err
	}
	return o.find(ctx, "query", collection, filterDoc(vf))
}

// filterDoc renders a validated filter. $ne also requires the field to
// exist so that missing fields never match.
func filterDoc(f docstore.Filter) bson.M {
	cond := bson.M{operators[f.Op]: f.Value}
	if f.Op == docstore.OpNotEqual {
		cond["$exists"] = true
	}
	return bson.M{f.Field: cond}
}

func (o *ops) find(ctx context.Context, op, collection string, filter bson.M) ([]docstore.Document, error) {
	cursor, err := o.db.Collection(collection).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, classify(op, err)
	}
	var raws []bson.Raw
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, classify(op, err)
	}
	out := make([]docstore.Document, 0, len(raws))
	for _, raw := range raws {
		doc, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (o *ops) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	doc, err := encode(id, data)
	if err != nil {
		return "", err
	}
	if _, err := o.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return "", classify("add", err)
	}
	return id, nil
}

func (o *ops) Set(ctx context.Context, collection, id string, data map[string]any) error {
	doc, err := encode(id, data)
	if err != nil {
		return err
	}
	_, err = o.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return classify("set", err)
	}
	return nil
}

func (o *ops) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	norm, err := docstore.NormalizeMap(fields)
	if err != nil {
		return err
	}
	delete(norm, "id")
	delete(norm, "_id")
	res, err := o.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": norm})
	if err != nil {
		return classify("update", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mongo update %s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	return nil
}

func (o *ops) Delete(ctx context.Context, collection, id string) error {
	if _, err := o.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return classify("delete", err)
	}
	return nil
}

func encode(id string, data map[string]any) (bson.M, error) {
	norm, err := docstore.NormalizeMap(data)
	if err != nil {
		return nil, err
	}
	delete(norm, "id")
	out := bson.M(norm)
	out["_id"] = id
	return out, nil
}

// decode turns a raw BSON document into JSON-shaped data.
func decode(raw bson.Raw) (docstore.Document, error) {
	id, ok := raw.Lookup("_id").StringValueOK()
	if !ok {
		return docstore.Document{}, fmt.Errorf("mongo decode: _id is not a string")
	}
	ext, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("mongo decode %s: %w", id, err)
	}
	var data map[string]any
	if err := json.Unmarshal(ext, &data); err != nil {
		return docstore.Document{}, fmt.Errorf("mongo decode %s: %w", id, err)
	}
	delete(data, "_id")
	return docstore.Document{ID: id, Data: data}, nil
}

const (
	codeUnauthorized  = 13
	codeWriteConflict = 112
)

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, mongo.ErrClientDisconnected), mongo.IsNetworkError(err), mongo.IsTimeout(err):
		return fmt.Errorf("mongo %s: %w: %v", op, docstore.ErrUnavailable, err)
	}
	var se mongo.ServerError
	if errors.As(err, &se) {
		switch {
		case se.HasErrorCode(codeUnauthorized):
			return fmt.Errorf("mongo %s: %w: %v", op, docstore.ErrPermissionDenied, err)
		case se.HasErrorCode(codeWriteConflict), se.HasErrorLabel("TransientTransactionError"):
			return fmt.Errorf("mongo %s: %w: %v", op, docstore.ErrConflict, err)
		}
	}
	return fmt.Errorf("mongo %s: %w", op, err)
}
