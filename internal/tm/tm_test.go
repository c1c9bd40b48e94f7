package tm

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mvp-joe/msgforge/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestTM(t *testing.T) *TM {
	t.Helper()
	mem, err := Open(Options{Location: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { mem.Close() })
	return mem
}

func testCatalog(lang string) *catalog.Catalog {
	c := catalog.New()
	c.Header.Set("Language", lang)
	c.Header.Set("Plural-Forms", "nplurals=2; plural=(n != 1);")
	return c
}

func TestSuggestExact(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := openTestTM(t)

	require.NoError(t, mem.Learn(ctx, "fr", "Open file", "Ouvrir le fichier"))

	suggestions, err := mem.Suggest(ctx, "Open file", "fr")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Ouvrir le fichier", suggestions[0].Text)
	assert.Equal(t, 1.0, suggestions[0].Score)
	assert.Equal(t, "exact", suggestions[0].Origin)
}

func TestSuggestFuzzy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := openTestTM(t)

	require.NoError(t, mem.Learn(ctx, "fr", "Open file", "Ouvrir le fichier"))

	suggestions, err := mem.Suggest(ctx, "Open fil", "fr")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Ouvrir le fichier", suggestions[0].Text)
	assert.Equal(t, "fuzzy", suggestions[0].Origin)
	assert.InDelta(t, 1-1.0/9, suggestions[0].Score, 0.001)
}

func TestSuggestNoMatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := openTestTM(t)

	require.NoError(t, mem.Learn(ctx, "fr", "Open file", "Ouvrir le fichier"))

	suggestions, err := mem.Suggest(ctx, "Save document", "fr")
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestSuggestWrongLanguage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := openTestTM(t)

	require.NoError(t, mem.Learn(ctx, "fr", "Open file", "Ouvrir le fichier"))

	suggestions, err := mem.Suggest(ctx, "Open file", "de")
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestSuggestScoreFloor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := openTestTM(t)

	// Shares the "open" term, so the index returns it as a candidate, but
	// the edit-distance score stays far below the floor.
	require.NoError(t, mem.Learn(ctx, "fr", "Open file directly", "Ouvrir le fichier directement"))

	suggestions, err := mem.Suggest(ctx, "Open remote", "fr")
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestSuggestEmptyInputs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := openTestTM(t)

	suggestions, err := mem.Suggest(ctx, "", "fr")
	require.NoError(t, err)
	assert.Nil(t, suggestions)

	suggestions, err = mem.Suggest(ctx, "   ", "fr")
	require.NoError(t, err)
	assert.Nil(t, suggestions)

	suggestions, err = mem.Suggest(ctx, "Open file", "")
	require.NoError(t, err)
	assert.Nil(t, suggestions)
}

func TestSuggestTimeoutIsNoMatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mem, err := Open(Options{Location: t.TempDir(), Timeout: time.Nanosecond})
	require.NoError(t, err)
	t.Cleanup(func() { mem.Close() })

	require.NoError(t, mem.Learn(ctx, "fr", "Open file", "Ouvrir le fichier"))

	suggestions, err := mem.Suggest(ctx, "Open file", "fr")
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestLearnOverwrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := openTestTM(t)

	require.NoError(t, mem.Learn(ctx, "fr", "Open file", "Ouvrir"))

	// Populate the lookup cache, then learn a replacement.
	suggestions, err := mem.Suggest(ctx, "Open file", "fr")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Ouvrir", suggestions[0].Text)

	require.NoError(t, mem.Learn(ctx, "fr", "Open file", "Ouvrir le fichier"))

	suggestions, err = mem.Suggest(ctx, "Open file", "fr")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Ouvrir le fichier", suggestions[0].Text)

	stats, err := mem.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Pairs)
}

func TestLearnValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := openTestTM(t)

	assert.Error(t, mem.Learn(ctx, "", "Open file", "Ouvrir"))
	assert.Error(t, mem.Learn(ctx, "fr", "", "Ouvrir"))
	assert.Error(t, mem.Learn(ctx, "fr", "Open file", ""))
}

func TestBest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := openTestTM(t)

	require.NoError(t, mem.Learn(ctx, "fr", "Open file", "Ouvrir le fichier"))

	text, score, err := mem.Best(ctx, "Open file", "fr")
	require.NoError(t, err)
	assert.Equal(t, "Ouvrir le fichier", text)
	assert.Equal(t, 1.0, score)

	text, score, err = mem.Best(ctx, "Save document", "fr")
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Zero(t, score)
}

func TestLearnCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := openTestTM(t)

	cat := testCatalog("fr")
	cat.Append(&catalog.Item{ID: "Hello", Translations: []string{"Bonjour"}})
	cat.Append(&catalog.Item{ID: "Draft", Translations: []string{"Brouillon"}, Fuzzy: true})
	cat.Append(&catalog.Item{ID: "Empty", Translations: []string{""}})
	cat.Append(&catalog.Item{
		ID:           "%d file",
		PluralID:     "%d files",
		Translations: []string{"%d fichier", "%d fichiers"},
	})

	learned, err := mem.LearnCatalog(ctx, cat)
	require.NoError(t, err)
	assert.Equal(t, 1, learned)

	suggestions, err := mem.Suggest(ctx, "Hello", "fr")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Bonjour", suggestions[0].Text)

	suggestions, err = mem.Suggest(ctx, "Draft", "fr")
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestLearnCatalogNoLanguage(t *testing.T) {
	t.Parallel()
	mem := openTestTM(t)

	cat := catalog.New()
	cat.Append(&catalog.Item{ID: "Hello", Translations: []string{"Bonjour"}})

	_, err := mem.LearnCatalog(context.Background(), cat)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "language")
}

func TestImportCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := openTestTM(t)

	cat := testCatalog("fr")
	cat.Append(&catalog.Item{ID: "Hello", Translations: []string{"Bonjour"}})
	cat.Append(&catalog.Item{ID: "Goodbye", Translations: []string{"Au revoir"}})
	cat.Append(&catalog.Item{ID: "Draft", Translations: []string{"Brouillon"}, Fuzzy: true})

	path := filepath.Join(t.TempDir(), "fr.po")
	require.NoError(t, cat.Save(path))

	imported, err := mem.ImportCatalog(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	text, _, err := mem.Best(ctx, "Goodbye", "fr")
	require.NoError(t, err)
	assert.Equal(t, "Au revoir", text)
}

func TestImportCatalogMissingFile(t *testing.T) {
	t.Parallel()
	mem := openTestTM(t)

	_, err := mem.ImportCatalog(context.Background(), filepath.Join(t.TempDir(), "missing.po"))
	require.Error(t, err)
}

func TestStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := openTestTM(t)

	require.NoError(t, mem.Learn(ctx, "fr", "Open file", "Ouvrir le fichier"))
	require.NoError(t, mem.Learn(ctx, "fr", "Hello", "Bonjour"))
	require.NoError(t, mem.Learn(ctx, "de", "Hello", "Hallo"))

	stats, err := mem.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Pairs)
	require.Len(t, stats.Languages, 2)
	assert.Equal(t, LanguageStat{Lang: "de", Pairs: 1}, stats.Languages[0])
	assert.Equal(t, LanguageStat{Lang: "fr", Pairs: 2}, stats.Languages[1])
}

func TestReopenPersists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	location := t.TempDir()

	mem, err := Open(Options{Location: location})
	require.NoError(t, err)
	require.NoError(t, mem.Learn(ctx, "fr", "Open file", "Ouvrir le fichier"))
	require.NoError(t, mem.Close())

	mem, err = Open(Options{Location: location})
	require.NoError(t, err)
	t.Cleanup(func() { mem.Close() })

	suggestions, err := mem.Suggest(ctx, "Open file", "fr")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "exact", suggestions[0].Origin)

	suggestions, err = mem.Suggest(ctx, "Open fil", "fr")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "fuzzy", suggestions[0].Origin)
}

func TestReopenRebuildsLostIndex(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	location := t.TempDir()

	mem, err := Open(Options{Location: location})
	require.NoError(t, err)
	require.NoError(t, mem.Learn(ctx, "fr", "Open file", "Ouvrir le fichier"))
	require.NoError(t, mem.Close())

	require.NoError(t, os.RemoveAll(filepath.Join(location, "index.bleve")))

	mem, err = Open(Options{Location: location})
	require.NoError(t, err)
	t.Cleanup(func() { mem.Close() })

	// Fuzzy retrieval needs the index, so a hit proves the rebuild.
	suggestions, err := mem.Suggest(ctx, "Open fil", "fr")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Ouvrir le fichier", suggestions[0].Text)
}
