package db

import (
	"context"
	"encoding/json"
	"time"
)

// Document is one stored JSON body keyed by (collection, id).
type Document struct {
	ID        string          `db:"id"         json:"id"`
	Body      json.RawMessage `db:"body"       json:"body"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// DocumentStore is the contract the importer needs from a document database.
type DocumentStore interface {
	// ListIDs returns up to limit ids from collection.
	ListIDs(ctx context.Context, collection string, limit int) ([]string, error)
	// DeleteBatch removes ids and reports how many existed.
	DeleteBatch(ctx context.Context, collection string, ids []string) (int, error)
	// CommitBatch upserts docs in one atomic write.
	CommitBatch(ctx context.Context, collection string, docs []Document) error
	Count(ctx context.Context, collection string) (int, error)
	Sample(ctx context.Context, collection string, n int) ([]Document, error)
}
