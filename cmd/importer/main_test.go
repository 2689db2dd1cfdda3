package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/salah/internal/config"
	"github.com/Nixie-Tech-LLC/salah/internal/db"
)

func useMemoryStore(t *testing.T) *db.MemoryStore {
	t.Helper()
	store := db.NewMemoryStore(nil)
	prev := openStore
	openStore = func(*config.Config) (db.DocumentStore, func(), error) {
		return store, func() {}, nil
	}
	t.Cleanup(func() { openStore = prev })
	return store
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportCommand(t *testing.T) {
	store := useMemoryStore(t)
	file := filepath.Join(t.TempDir(), "bukhari.json")
	require.NoError(t, os.WriteFile(file, []byte(`[
		{"collection":"Sahih al-Bukhari","book_number":1,"hadith_number":1,"text_arabic":"إِنَّمَا الأَعْمَالُ بِالنِّيَّاتِ","translation_en":"Actions are by intentions.","narrator":"Umar bin Al-Khattab","grade":"Sahih"},
		{"collection":"Sahih al-Bukhari","book_number":1,"hadith_number":2,"translation_en":"Revelation came like daybreak."}
	]`), 0o644))

	out, err := execute(t, "--file", file, "--collection", "hadiths_cli")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 documents in 1 batches")
	assert.Contains(t, out, "ID:       bukhari_1_1")
	assert.Contains(t, out, "Narrator: Umar bin Al-Khattab")
	assert.Contains(t, out, "Arabic:   N/A")

	n, err := store.Count(context.Background(), "hadiths_cli")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	out, err = execute(t, "clear", "--collection", "hadiths_cli")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 2 documents from hadiths_cli in 1 batches")
}

func TestImportCommandFailsOnInvalidFile(t *testing.T) {
	useMemoryStore(t)
	file := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"collection":"Sahih al-Bukhari"}]`), 0o644))

	_, err := execute(t, "--file", file)
	assert.Error(t, err)

	_, err = execute(t, "--file", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "N/A", truncate("", 5))
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	assert.Equal(t, "إِ...", truncate("إِنَّمَا", 2))
}

func TestVerifyCommand(t *testing.T) {
	store := useMemoryStore(t)
	require.NoError(t, store.CommitBatch(context.Background(), "hadiths_verify", []db.Document{
		{ID: "bukhari_1_1", Body: []byte(`{"hadith_number":1,"book_number":1,"narrator":"Umar bin Al-Khattab","translation_en":"Actions are by intentions."}`)},
		{ID: "bukhari_1_2", Body: []byte(`not json`)},
	}))

	out, err := execute(t, "verify", "--collection", "hadiths_verify", "--samples", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "hadiths_verify: 2 documents")
	assert.Contains(t, out, "English:  Actions are by intentions.")
	assert.Contains(t, out, "bukhari_1_2: unreadable body")
}

func TestCommandsRequireDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := execute(t, "clear", "--collection", "hadiths_cli")
	assert.ErrorContains(t, err, "DATABASE_URL is required")
}
