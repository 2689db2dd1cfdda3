package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/salah/internal/clock"
	"github.com/Nixie-Tech-LLC/salah/internal/db"
	"github.com/Nixie-Tech-LLC/salah/internal/hadith"
	"github.com/Nixie-Tech-LLC/salah/internal/model"
)

// countingStore records batch sizes and can fail a chosen write batch.
type countingStore struct {
	*db.MemoryStore
	deleteCalls []int
	writeCalls  []int
	failWriteAt int
}

func (c *countingStore) DeleteBatch(ctx context.Context, collection string, ids []string) (int, error) {
	c.deleteCalls = append(c.deleteCalls, len(ids))
	return c.MemoryStore.DeleteBatch(ctx, collection, ids)
}

func (c *countingStore) CommitBatch(ctx context.Context, collection string, docs []db.Document) error {
	c.writeCalls = append(c.writeCalls, len(docs))
	if c.failWriteAt == len(c.writeCalls) {
		return errors.New("deadline exceeded")
	}
	return c.MemoryStore.CommitBatch(ctx, collection, docs)
}

func records(n int) []model.HadithRecord {
	out := make([]model.HadithRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.HadithRecord{
			Collection:   "Sahih al-Bukhari",
			BookNumber:   i/100 + 1,
			HadithNumber: i + 1,
			EnglishText:  fmt.Sprintf("narration %d", i+1),
			Narrator:     "Abu Huraira",
			Grade:        "Sahih",
		})
	}
	return out
}

func newTestImporter(store db.DocumentStore) *Importer {
	return New(Options{
		Store:    store,
		Clock:    clock.NewStubClock(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)),
		NewRunID: func() string { return "run-1" },
	})
}

func TestImportWritesBatchesOfFiveHundred(t *testing.T) {
	store := &countingStore{MemoryStore: db.NewMemoryStore(nil)}
	im := newTestImporter(store)

	imported, batches, err := im.Import(context.Background(), records(1200))
	require.NoError(t, err)
	assert.Equal(t, 1200, imported)
	assert.Equal(t, 3, batches)
	assert.Equal(t, []int{500, 500, 200}, store.writeCalls)
}

func TestClearDeletesInPagesOfOneHundred(t *testing.T) {
	for _, n := range []int{0, 1, 100, 250, 1200} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			store := &countingStore{MemoryStore: db.NewMemoryStore(nil)}
			im := newTestImporter(store)
			ctx := context.Background()
			_, _, err := im.Import(ctx, records(n))
			require.NoError(t, err)

			deleted, batches, err := im.Clear(ctx)
			require.NoError(t, err)
			assert.Equal(t, n, deleted)
			assert.Equal(t, (n+99)/100, batches)
			assert.Len(t, store.deleteCalls, batches)

			left, err := store.Count(ctx, DefaultCollection)
			require.NoError(t, err)
			assert.Zero(t, left)
		})
	}
}

func TestRunIsIdempotent(t *testing.T) {
	store := db.NewMemoryStore(nil)
	im := newTestImporter(store)
	ctx := context.Background()
	input := records(730)

	first, err := im.Run(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, Report{RunID: "run-1", Collection: "hadiths", Imported: 730, WriteBatches: 2}, first)
	idsAfterFirst, err := store.ListIDs(ctx, DefaultCollection, -1)
	require.NoError(t, err)

	second, err := im.Run(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, 730, second.Deleted)
	assert.Equal(t, 8, second.DeleteBatches)
	idsAfterSecond, err := store.ListIDs(ctx, DefaultCollection, -1)
	require.NoError(t, err)

	assert.Len(t, idsAfterSecond, 730)
	assert.Equal(t, idsAfterFirst, idsAfterSecond)
}

func TestFailedBatchKeepsEarlierBatches(t *testing.T) {
	store := &countingStore{MemoryStore: db.NewMemoryStore(nil), failWriteAt: 2}
	im := newTestImporter(store)
	ctx := context.Background()

	rep, err := im.Run(ctx, records(1200))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write batch 2/3")
	assert.Equal(t, 500, rep.Imported)
	assert.Equal(t, 1, rep.WriteBatches)
	assert.Equal(t, []int{500, 500}, store.writeCalls, "no retry and no resume after failure")

	left, err := store.Count(ctx, DefaultCollection)
	require.NoError(t, err)
	assert.Equal(t, 500, left)
}

func TestDocumentBody(t *testing.T) {
	store := db.NewMemoryStore(nil)
	im := New(Options{
		Store:    store,
		IDPrefix: "muslim",
		Clock:    clock.NewStubClock(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)),
	})
	rec := model.HadithRecord{Collection: "Sahih Muslim", BookNumber: 5, HadithNumber: 2219, EnglishText: "Charity does not decrease wealth."}

	_, _, err := im.Import(context.Background(), []model.HadithRecord{rec})
	require.NoError(t, err)

	doc, ok := store.Get(DefaultCollection, "muslim_5_2219")
	require.True(t, ok)
	var body map[string]any
	require.NoError(t, json.Unmarshal(doc.Body, &body))
	assert.Equal(t, "muslim_5_2219", body["id"])
	assert.Equal(t, "Sahih Muslim", body["collection"])
	assert.Equal(t, float64(5), body["book_number"])
	assert.Equal(t, "2026-10-15T09:00:00Z", body["createdAt"])
	assert.Equal(t, "2026-10-15T09:00:00Z", body["updatedAt"])
}

func TestVerify(t *testing.T) {
	store := db.NewMemoryStore(nil)
	im := newTestImporter(store)
	ctx := context.Background()
	_, err := im.Run(ctx, records(10))
	require.NoError(t, err)

	v, err := im.Verify(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 10, v.Count)
	assert.Len(t, v.Samples, 3)
}

type stringSource map[string]string

func (s stringSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	body, ok := s[name]
	if !ok {
		return nil, errors.New("no such file")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestRunFile(t *testing.T) {
	src := stringSource{
		"good.json": `[{"collection":"Sahih al-Bukhari","book_number":1,"hadith_number":1,"translation_en":"Actions are by intentions."}]`,
		"bad.json":  `[{"collection":"Sahih al-Bukhari","book_number":1,"hadith_number":0,"translation_en":"x"}]`,
	}
	store := db.NewMemoryStore(nil)
	im := newTestImporter(store)
	ctx := context.Background()

	rep, err := im.RunFile(ctx, src, "good.json")
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Imported)

	_, err = im.RunFile(ctx, src, "bad.json")
	assert.ErrorIs(t, err, hadith.ErrValidation)
	n, _ := store.Count(ctx, DefaultCollection)
	assert.Equal(t, 1, n, "validation failure leaves the collection untouched")

	_, err = im.RunFile(ctx, src, "missing.json")
	assert.ErrorIs(t, err, hadith.ErrFileRead)
}

func TestAssignIDsMatchesWrittenDocuments(t *testing.T) {
	store := db.NewMemoryStore(nil)
	im := New(Options{Store: store, IDPrefix: "muslim"})
	recs := records(3)
	recs[0].ID = "from-file"

	_, _, err := im.Import(context.Background(), recs)
	require.NoError(t, err)

	im.AssignIDs(recs)
	ids, err := store.ListIDs(context.Background(), DefaultCollection, -1)
	require.NoError(t, err)
	for _, rec := range recs {
		assert.Contains(t, ids, rec.ID)
	}
	assert.Equal(t, "muslim_1_1", recs[0].ID)
}
