// Package postgres implements store.Store on PostgreSQL via pgx. Documents
// are kept whole as JSONB rows; the runtime never queries inside them.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nodeflowlabs/nodeflow/internal/store"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS graph_documents (
    id         TEXT PRIMARY KEY,
    doc        JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// PGStore persists documents in a graph_documents table.
type PGStore struct {
	db *pgxpool.Pool
}

// New creates a PGStore backed by the given pgx connection pool.
func New(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// CreateSchema creates the graph_documents table if it doesn't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// Save upserts one document.
func (s *PGStore) Save(ctx context.Context, id string, doc []byte) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO graph_documents (id, doc, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`,
		id, doc,
	)
	if err != nil {
		return fmt.Errorf("store: save document: %w", err)
	}
	return nil
}

// Load fetches one document by id.
func (s *PGStore) Load(ctx context.Context, id string) ([]byte, error) {
	var doc []byte
	err := s.db.QueryRow(ctx,
		`SELECT doc FROM graph_documents WHERE id = $1`, id,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("store: load document: %w", err)
	}
	return doc, nil
}

// List returns all stored document ids, newest first.
func (s *PGStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id FROM graph_documents ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan document id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	return ids, nil
}

// Delete removes one document. Deleting an unknown id returns
// store.ErrNotFound.
func (s *PGStore) Delete(ctx context.Context, id string) error {
	ct, err := s.db.Exec(ctx, `DELETE FROM graph_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete document: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
