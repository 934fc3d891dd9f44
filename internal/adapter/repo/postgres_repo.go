package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/flyder-sync-service/internal/domain"
)

const DefaultMaxOps = 500

// PostgresDocumentStore — хранилище документов Repaart в одной jsonb-таблице documents.
type PostgresDocumentStore struct {
	Pool   *pgxpool.Pool
	MaxOps int
}

func NewPostgresDocumentStore(pool *pgxpool.Pool, maxOps int) *PostgresDocumentStore {
	if maxOps <= 0 {
		maxOps = DefaultMaxOps
	}
	return &PostgresDocumentStore{Pool: pool, MaxOps: maxOps}
}

func (r *PostgresDocumentStore) MaxOpsPerCommit() int { return r.MaxOps }

func (r *PostgresDocumentStore) Exists(ctx context.Context, collection, id string) (bool, error) {
	var ok bool
	err := r.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM documents WHERE collection = $1 AND id = $2)`,
		collection, id).Scan(&ok)
	return ok, err
}

func (r *PostgresDocumentStore) List(ctx context.Context, collection string, fn func(id string, raw []byte) error) error {
	rows, err := r.Pool.Query(ctx, `SELECT id, doc FROM documents WHERE collection = $1 ORDER BY id`, collection)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return err
		}
		if err := fn(id, raw); err != nil {
			return err
		}
	}
	return rows.Err()
}

const upsertDocument = `INSERT INTO documents(collection, id, doc, updated_at) VALUES($1, $2, $3::jsonb, now())
ON CONFLICT (collection, id) DO UPDATE
SET doc = jsonb_deep_merge(documents.doc, EXCLUDED.doc), updated_at = now()`

// Commit применяет все записи в одной транзакции: либо все, либо ни одной.
func (r *PostgresDocumentStore) Commit(ctx context.Context, writes []domain.Write) error {
	if len(writes) > r.MaxOps {
		return fmt.Errorf("batch of %d writes exceeds limit %d", len(writes), r.MaxOps)
	}
	if len(writes) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, w := range writes {
		raw, err := json.Marshal(w.Fields)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", w.Collection, w.ID, err)
		}
		b.Queue(upsertDocument, w.Collection, w.ID, string(raw))
	}
	return pgx.BeginFunc(ctx, r.Pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, b).Close()
	})
}

var _ domain.DocumentStore = (*PostgresDocumentStore)(nil)

// EnsureSchema — создать таблицу документов и функцию слияния, если отсутствуют.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS documents (
  collection text NOT NULL,
  id text NOT NULL,
  doc jsonb NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT now(),
  PRIMARY KEY (collection, id)
);`); err != nil {
		return err
	}
	_, err := pool.Exec(ctx, `
CREATE OR REPLACE FUNCTION jsonb_deep_merge(a jsonb, b jsonb) RETURNS jsonb
LANGUAGE plpgsql IMMUTABLE AS $$
BEGIN
  RETURN (
    SELECT COALESCE(jsonb_object_agg(
      COALESCE(ka, kb),
      CASE
        WHEN va IS NULL THEN vb
        WHEN vb IS NULL THEN va
        WHEN jsonb_typeof(va) = 'object' AND jsonb_typeof(vb) = 'object' THEN jsonb_deep_merge(va, vb)
        ELSE vb
      END), '{}'::jsonb)
    FROM jsonb_each(COALESCE(a, '{}'::jsonb)) e1(ka, va)
    FULL JOIN jsonb_each(COALESCE(b, '{}'::jsonb)) e2(kb, vb) ON ka = kb
  );
END
$$;`)
	return err
}
