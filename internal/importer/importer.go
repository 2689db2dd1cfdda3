package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/salah/internal/clock"
	"github.com/Nixie-Tech-LLC/salah/internal/db"
	"github.com/Nixie-Tech-LLC/salah/internal/hadith"
	"github.com/Nixie-Tech-LLC/salah/internal/model"
)

const (
	DefaultCollection     = "hadiths"
	DefaultIDPrefix       = "bukhari"
	DefaultDataFile       = "data/realistic-bukhari.json"
	DefaultDeletePageSize = 100
	DefaultWriteBatchSize = 500
)

// Source opens a named input file.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

type Options struct {
	Store          db.DocumentStore
	Collection     string
	IDPrefix       string
	DeletePageSize int
	WriteBatchSize int
	Clock          clock.Clock
	NewRunID       func() string
}

// Importer replaces a collection's contents with a record file.
type Importer struct {
	store      db.DocumentStore
	collection string
	prefix     string
	pageSize   int
	batchSize  int
	clock      clock.Clock
	newRunID   func() string
}

// Report summarises one run. Counts reflect work committed before any failure.
type Report struct {
	RunID         string        `json:"runId"`
	Collection    string        `json:"collection"`
	Deleted       int           `json:"deleted"`
	DeleteBatches int           `json:"deleteBatches"`
	Imported      int           `json:"imported"`
	WriteBatches  int           `json:"writeBatches"`
	Duration      time.Duration `json:"duration"`
}

// Verification is a count plus a few sample documents.
type Verification struct {
	Collection string        `json:"collection"`
	Count      int           `json:"count"`
	Samples    []db.Document `json:"samples"`
}

func New(opts Options) *Importer {
	im := &Importer{
		store:      opts.Store,
		collection: opts.Collection,
		prefix:     opts.IDPrefix,
		pageSize:   opts.DeletePageSize,
		batchSize:  opts.WriteBatchSize,
		clock:      opts.Clock,
		newRunID:   opts.NewRunID,
	}
	if im.collection == "" {
		im.collection = DefaultCollection
	}
	if im.prefix == "" {
		im.prefix = DefaultIDPrefix
	}
	if im.pageSize <= 0 {
		im.pageSize = DefaultDeletePageSize
	}
	if im.batchSize <= 0 {
		im.batchSize = DefaultWriteBatchSize
	}
	if im.clock == nil {
		im.clock = clock.RealClock{}
	}
	if im.newRunID == nil {
		im.newRunID = uuid.NewString
	}
	return im
}

func (im *Importer) Collection() string { return im.collection }

// RunFile parses name from src and runs a full clear-and-import.
func (im *Importer) RunFile(ctx context.Context, src Source, name string) (Report, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %s: %v", hadith.ErrFileRead, name, err)
	}
	defer rc.Close()

	records, err := hadith.ParseRecords(rc)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", name, err)
	}
	log.Info().Str("file", name).Int("records", len(records)).Msg("parsed hadith file")
	return im.Run(ctx, records)
}

// Run clears the collection then writes records. A failure stops the run;
// batches already committed stay committed.
func (im *Importer) Run(ctx context.Context, records []model.HadithRecord) (Report, error) {
	start := im.clock.Now()
	rep := Report{RunID: im.newRunID(), Collection: im.collection}
	logger := log.With().Str("run_id", rep.RunID).Str("collection", im.collection).Logger()

	var err error
	rep.Deleted, rep.DeleteBatches, err = im.Clear(ctx)
	if err == nil {
		rep.Imported, rep.WriteBatches, err = im.Import(ctx, records)
	}
	rep.Duration = im.clock.Now().Sub(start)

	if err != nil {
		logger.Error().Err(err).
			Int("deleted", rep.Deleted).
			Int("imported", rep.Imported).
			Int("write_batches", rep.WriteBatches).
			Msg("import failed")
		return rep, err
	}
	logger.Info().
		Int("deleted", rep.Deleted).
		Int("delete_batches", rep.DeleteBatches).
		Int("imported", rep.Imported).
		Int("write_batches", rep.WriteBatches).
		Dur("duration", rep.Duration).
		Msg("import completed")
	return rep, nil
}

// Clear deletes every document in the collection, one page at a time, until
// a listing comes back empty.
func (im *Importer) Clear(ctx context.Context) (deleted, batches int, err error) {
	for {
		if err := ctx.Err(); err != nil {
			return deleted, batches, err
		}
		ids, err := im.store.ListIDs(ctx, im.collection, im.pageSize)
		if err != nil {
			return deleted, batches, fmt.Errorf("listing %s: %w", im.collection, err)
		}
		if len(ids) == 0 {
			return deleted, batches, nil
		}
		n, err := im.store.DeleteBatch(ctx, im.collection, ids)
		if err != nil {
			return deleted, batches, fmt.Errorf("delete batch %d: %w", batches+1, err)
		}
		if n == 0 {
			return deleted, batches, fmt.Errorf("delete batch %d removed nothing from %s", batches+1, im.collection)
		}
		deleted += n
		batches++
		log.Debug().Int("batch", batches).Int("total_deleted", deleted).Msg("deleted batch")
	}
}

// Import writes records in file order, in batches of at most the configured
// size. Each batch is one atomic commit.
func (im *Importer) Import(ctx context.Context, records []model.HadithRecord) (imported, batches int, err error) {
	total := (len(records) + im.batchSize - 1) / im.batchSize
	for i := 0; i < len(records); i += im.batchSize {
		if err := ctx.Err(); err != nil {
			return imported, batches, err
		}
		end := min(i+im.batchSize, len(records))
		docs, err := im.documents(records[i:end])
		if err != nil {
			return imported, batches, err
		}
		if err := im.store.CommitBatch(ctx, im.collection, docs); err != nil {
			return imported, batches, fmt.Errorf("write batch %d/%d: %w", batches+1, total, err)
		}
		imported += len(docs)
		batches++
		log.Info().Msgf("batch %d/%d: %d/%d imported", batches, total, imported, len(records))
	}
	return imported, batches, nil
}

// AssignIDs sets each record's ID to the document id Import writes it under.
func (im *Importer) AssignIDs(records []model.HadithRecord) {
	for i := range records {
		records[i].ID = hadith.DocumentID(im.prefix, records[i])
	}
}

// Verify reports the collection size and its first n documents.
func (im *Importer) Verify(ctx context.Context, n int) (Verification, error) {
	count, err := im.store.Count(ctx, im.collection)
	if err != nil {
		return Verification{}, fmt.Errorf("counting %s: %w", im.collection, err)
	}
	samples, err := im.store.Sample(ctx, im.collection, n)
	if err != nil {
		return Verification{}, fmt.Errorf("sampling %s: %w", im.collection, err)
	}
	return Verification{Collection: im.collection, Count: count, Samples: samples}, nil
}

type document struct {
	model.HadithRecord
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (im *Importer) documents(records []model.HadithRecord) ([]db.Document, error) {
	now := im.clock.Now().UTC()
	out := make([]db.Document, 0, len(records))
	for _, rec := range records {
		rec.ID = hadith.DocumentID(im.prefix, rec)
		body, err := json.Marshal(document{HadithRecord: rec, CreatedAt: now, UpdatedAt: now})
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", rec.ID, err)
		}
		out = append(out, db.Document{ID: rec.ID, Body: body})
	}
	return out, nil
}
