package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements DocumentStore
var _ DocumentStore = (*pgStore)(nil)

// NewStore returns a DocumentStore backed by the documents table.
func NewStore(conn *sqlx.DB) DocumentStore {
	return &pgStore{db: conn}
}

func (s *pgStore) ListIDs(ctx context.Context, collection string, limit int) ([]string, error) {
	ids := []string{}
	query := `
	SELECT id
	FROM documents
	WHERE collection = $1
	ORDER BY id
	LIMIT $2;`

	if err := s.db.SelectContext(ctx, &ids, query, collection, limit); err != nil {
		log.Error().Err(err).Str("collection", collection).Msg("Failed to list document ids")
		return nil, err
	}
	return ids, nil
}

func (s *pgStore) DeleteBatch(ctx context.Context, collection string, ids []string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = ANY($2);`,
		collection, pq.Array(ids),
	)
	if err != nil {
		log.Error().Err(err).Str("collection", collection).Msg("Failed to delete documents")
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *pgStore) CommitBatch(ctx context.Context, collection string, docs []Document) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
	INSERT INTO documents
	(collection, id, body, created_at, updated_at)
	VALUES
	($1,         $2, $3,   now(),      now())
	ON CONFLICT (collection, id) DO UPDATE
	SET
	body       = EXCLUDED.body,
	updated_at = now();`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		if _, err := stmt.ExecContext(ctx, collection, d.ID, []byte(d.Body)); err != nil {
			log.Error().Err(err).Str("id", d.ID).Msg("Failed to write document")
			return fmt.Errorf("write %s: %w", d.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func (s *pgStore) Count(ctx context.Context, collection string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT count(*) FROM documents WHERE collection = $1;`, collection); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *pgStore) Sample(ctx context.Context, collection string, n int) ([]Document, error) {
	docs := []Document{}
	query := `
	SELECT
	id,
	body,
	created_at,
	updated_at
	FROM documents
	WHERE collection = $1
	ORDER BY id
	LIMIT $2;`

	if err := s.db.SelectContext(ctx, &docs, query, collection, n); err != nil {
		log.Error().Err(err).Str("collection", collection).Msg("Failed to sample documents")
		return nil, err
	}
	return docs, nil
}
