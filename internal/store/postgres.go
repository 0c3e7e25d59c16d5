package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps documents in a single JSONB table. The jsonb
// concatenation in the upsert gives per-document atomic merge-write without
// explicit locking.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore instantiates the adapter over an established pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	const query = `SELECT doc FROM documents WHERE collection=$1 AND id=$2`

	var raw []byte
	if err := s.pool.QueryRow(ctx, query, collection, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s/%s: %w", collection, id, err)
	}
	doc["id"] = id
	return doc, nil
}

func (s *PostgresStore) MergeWrite(ctx context.Context, collection, id string, fields Document) error {
	const query = `
        INSERT INTO documents (collection, id, doc, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (collection, id)
        DO UPDATE SET doc = documents.doc || EXCLUDED.doc, updated_at = NOW()`

	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}
	_, err = s.pool.Exec(ctx, query, collection, id, raw)
	return err
}

func (s *PostgresStore) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	id := uuid.NewString()
	return id, s.MergeWrite(ctx, collection, id, doc)
}

func (s *PostgresStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	base := `SELECT id, doc FROM documents WHERE collection=$1`
	args := []any{collection}

	for _, f := range q.Filters {
		args = append(args, f.Field)
		fieldArg := len(args)
		args = append(args, fmt.Sprint(f.Value))
		clause := fmt.Sprintf(" AND doc->>($%d::text) = $%d", fieldArg, len(args))
		base += clause
	}

	if q.OrderBy != "" {
		args = append(args, q.OrderBy)
		direction := "ASC"
		if q.Descending {
			direction = "DESC"
		}
		base += fmt.Sprintf(" ORDER BY doc->>($%d::text) %s", len(args), direction)
	}
	if q.Limit > 0 {
		base += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.pool.Query(ctx, base, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode document %s/%s: %w", collection, id, err)
		}
		doc["id"] = id
		result = append(result, doc)
	}
	return result, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	const query = `DELETE FROM documents WHERE collection=$1 AND id=$2`
	_, err := s.pool.Exec(ctx, query, collection, id)
	return err
}
