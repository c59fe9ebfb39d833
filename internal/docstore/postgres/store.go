// Package postgres stores documents as JSONB rows of a single table and
// signals changes with LISTEN/NOTIFY.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/aftras/crm/internal/docstore"
)

var _ docstore.Store = (*Store)(nil)

// Channel is the NOTIFY channel carrying "collection/id" payloads.
const Channel = "docstore_changes"

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection  TEXT        NOT NULL,
    id          TEXT        NOT NULL,
    data        JSONB       NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    row_version BIGINT      NOT NULL DEFAULT 1,
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_data_idx ON documents USING GIN (data);
`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Store is the Postgres backend.
type Store struct {
	pool *pgxpool.Pool
	ops
}

// NewPool constructs a pgx pool with keep-alive settings suitable for
// proxied deployments.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
	return pgxpool.ConnectConfig(ctx, cfg)
}

// New wraps an existing pool. EnsureSchema must have run once against the
// database.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, ops: ops{q: pool}}
}

// EnsureSchema creates the documents table if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return classify("ensure schema", err)
	}
	return nil
}

func (s *Store) Driver() docstore.Driver { return docstore.DriverPostgres }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// RunInTransaction runs fn in a SERIALIZABLE transaction. Serialization
// failures surface as docstore.ErrConflict.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx docstore.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return classify("begin", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, &ops{q: tx, lock: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return classify("commit", err)
	}
	return nil
}

// Listen holds one pooled connection per subscription for LISTEN.
func (s *Store) Listen(ctx context.Context, collection, id string, fn func(*docstore.Document)) (*docstore.Subscription, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, classify("listen", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{Channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, classify("listen", err)
	}
	current, err := s.Get(ctx, collection, id)
	if err != nil {
		conn.Release()
		return nil, err
	}

	sub := docstore.NewSubscription(ctx, fn)
	sub.Deliver(current)
	want := collection + "/" + id

	sub.Go(func(ctx context.Context) {
		defer func() {
			cleanup, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_, _ = conn.Exec(cleanup, "UNLISTEN *")
			conn.Release()
		}()
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				sub.End(classify("listen", err))
				return
			}
			if n.Payload != want {
				continue
			}
			doc, err := s.Get(ctx, collection, id)
			if err != nil {
				continue
			}
			sub.Deliver(doc)
		}
	})
	return sub, nil
}

// -------------------------- operations --------------------------

type ops struct {
	q    querier
	lock bool // SELECT ... FOR UPDATE on single-document reads
}

func (o *ops) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	query := `SELECT data::text FROM documents WHERE collection = $1 AND id = $2`
	if o.lock {
		query += ` FOR UPDATE`
	}
	var raw string
	err := o.q.QueryRow(ctx, query, collection, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get", err)
	}
	doc, err := decode(id, raw)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (o *ops) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	return o.scanAll(ctx, "list",
		`SELECT id, data::text FROM documents WHERE collection = $1 ORDER BY id`, collection)
}

func (o *ops) Query(ctx context.Context, collection string, f docstore.Filter) ([]docstore.Document, error) {
	vf, err := f.Validate()
	if err != nil {
		return nil, err
	}
	value, err := json.Marshal(vf.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", docstore.ErrInvalidFilter, err)
	}
	where, err := predicate(vf.Op)
	if err != nil {
		return nil, err
	}
	sql := `SELECT id, data::text FROM documents WHERE collection = $1 AND ` + where + ` ORDER BY id`
	return o.scanAll(ctx, "query", sql, collection, vf.Field, string(value))
}

// predicate renders the comparison for field $2 against JSON value $3.
// Range operators only match values of the same JSON type.
func predicate(op docstore.Op) (string, error) {
	switch op {
	case docstore.OpEqual:
		return `data->$2 = $3::jsonb`, nil
	case docstore.OpNotEqual:
		return `data->$2 <> $3::jsonb`, nil
	case docstore.OpLess, docstore.OpLessEqual, docstore.OpGreater, docstore.OpGreaterEqual:
		return `jsonb_typeof(data->$2) = jsonb_typeof($3::jsonb) AND jsonb_typeof($3::jsonb) IN ('number','string') AND data->$2 ` + string(op) + ` $3::jsonb`, nil
	case docstore.OpIn:
		return `data->$2 IS NOT NULL AND $3::jsonb @> jsonb_build_array(data->$2)`, nil
	default:
		return "", fmt.Errorf("%w: operator %q", docstore.ErrInvalidFilter, op)
	}
}

func (o *ops) scanAll(ctx context.Context, op, sql string, args ...interface{}) ([]docstore.Document, error) {
	rows, err := o.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var out []docstore.Document
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, classify(op, err)
		}
		doc, err := decode(id, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

func (o *ops) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	payload, err := encode(data)
	if err != nil {
		return "", err
	}
	_, err = o.q.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
		collection, id, payload)
	if err != nil {
		return "", classify("add", err)
	}
	if err := o.notify(ctx, collection, id); err != nil {
		return "", err
	}
	return id, nil
}

func (o *ops) Set(ctx context.Context, collection, id string, data map[string]any) error {
	payload, err := encode(data)
	if err != nil {
		return err
	}
	_, err = o.q.Exec(ctx, `
        INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
        ON CONFLICT (collection, id) DO UPDATE
        SET data = EXCLUDED.data, updated_at = NOW(), row_version = documents.row_version + 1`,
		collection, id, payload)
	if err != nil {
		return classify("set", err)
	}
	return o.notify(ctx, collection, id)
}

func (o *ops) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	payload, err := encode(fields)
	if err != nil {
		return err
	}
	tag, err := o.q.Exec(ctx, `
        UPDATE documents
        SET data = data || $3::jsonb, updated_at = NOW(), row_version = row_version + 1
        WHERE collection = $1 AND id = $2`,
		collection, id, payload)
	if err != nil {
		return classify("update", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres update %s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	return o.notify(ctx, collection, id)
}

func (o *ops) Delete(ctx context.Context, collection, id string) error {
	tag, err := o.q.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return classify("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	return o.notify(ctx, collection, id)
}

// notify is transactional: inside a transaction it is delivered on commit.
func (o *ops) notify(ctx context.Context, collection, id string) error {
	if _, err := o.q.Exec(ctx, `SELECT pg_notify($1, $2)`, Channel, collection+"/"+id); err != nil {
		return classify("notify", err)
	}
	return nil
}

func encode(data map[string]any) (string, error) {
	norm, err := docstore.NormalizeMap(data)
	if err != nil {
		return "", err
	}
	delete(norm, "id")
	b, err := json.Marshal(norm)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decode(id, raw string) (docstore.Document, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return docstore.Document{}, fmt.Errorf("decode %s: %w", id, err)
	}
	return docstore.Document{ID: id, Data: data}, nil
}

// classify maps driver failures onto docstore error kinds.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("postgres %s: %w: %v", op, docstore.ErrUnavailable, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42501":
			return fmt.Errorf("postgres %s: %w: %v", op, docstore.ErrPermissionDenied, err)
		case pgErr.Code == "40001" || pgErr.Code == "40P01":
			return fmt.Errorf("postgres %s: %w: %v", op, docstore.ErrConflict, err)
		case strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "57P01" || pgErr.Code == "57P03":
			return fmt.Errorf("postgres %s: %w: %v", op, docstore.ErrUnavailable, err)
		}
		return fmt.Errorf("postgres %s: %w", op, err)
	}
	var netErr net.Error
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) || errors.As(err, &netErr) {
		return fmt.Errorf("postgres %s: %w: %v", op, docstore.ErrUnavailable, err)
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return fmt.Errorf("postgres %s: %w: %v", op, docstore.ErrUnavailable, err)
	}
	return fmt.Errorf("postgres %s: %w", op, err)
}
