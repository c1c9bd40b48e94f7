// Package tm implements the translation memory: a durable store of
// approved translation pairs with fuzzy candidate retrieval.
//
// Pairs live in a SQLite database; a bleve full-text index over the source
// strings supplies candidates, which are re-ranked by edit-distance
// similarity. Repeated lookups are served from an in-process cache. The
// memory owns its lookup timeout: a lookup that cannot answer in time
// reports no matches rather than an error, so a slow or broken memory can
// never fail a catalog update.
package tm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/maypok86/otter"

	"github.com/mvp-joe/msgforge/internal/catalog"
	"github.com/mvp-joe/msgforge/internal/merge"
)

const (
	// DefaultMinScore is the suggestion acceptance floor used when the
	// options carry none.
	DefaultMinScore = 0.7

	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 500 * time.Millisecond

	candidateLimit  = 20
	maxSuggestions  = 5
	lookupCacheSize = 4096
)

// Suggestion is one candidate translation for a source string.
type Suggestion struct {
	Text   string
	Score  float64 // 1.0 for exact matches, similarity otherwise
	Origin string  // "exact" or "fuzzy"
}

// Options configures an opened translation memory.
type Options struct {
	// Location is the storage directory. Empty means DefaultLocation().
	Location string

	// MinScore drops suggestions scoring below it. Zero means
	// DefaultMinScore.
	MinScore float64

	// Timeout bounds each lookup. Zero means DefaultTimeout.
	Timeout time.Duration
}

// TM is an open translation memory. Safe for concurrent use.
type TM struct {
	store    *store
	index    bleve.Index
	cache    otter.Cache[string, []Suggestion]
	minScore float64
	timeout  time.Duration
	mu       sync.RWMutex
}

var _ merge.TranslationSource = (*TM)(nil)

// DefaultLocation returns the per-user translation memory directory.
func DefaultLocation() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".msgforge", "tm")
}

// Open opens (or creates) the translation memory at the configured
// location. When the candidate index is missing but the store has rows,
// the index is rebuilt from the rows.
func Open(opts Options) (*TM, error) {
	location := opts.Location
	if location == "" {
		location = DefaultLocation()
	}
	if err := os.MkdirAll(location, 0755); err != nil {
		return nil, fmt.Errorf("failed to create translation memory directory: %w", err)
	}

	st, err := openStore(filepath.Join(location, "tm.db"))
	if err != nil {
		return nil, err
	}

	index, err := openIndex(filepath.Join(location, "index.bleve"))
	if err != nil {
		st.Close()
		return nil, err
	}

	if docs, err := index.DocCount(); err == nil && docs == 0 {
		if n, err := st.count(context.Background()); err == nil && n > 0 {
			if err := reindexPairs(context.Background(), index, st); err != nil {
				index.Close()
				st.Close()
				return nil, err
			}
		}
	}

	cache, err := otter.MustBuilder[string, []Suggestion](lookupCacheSize).Build()
	if err != nil {
		index.Close()
		st.Close()
		return nil, fmt.Errorf("failed to create lookup cache: %w", err)
	}

	minScore := opts.MinScore
	if minScore == 0 {
		minScore = DefaultMinScore
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &TM{
		store:    st,
		index:    index,
		cache:    cache,
		minScore: minScore,
		timeout:  timeout,
	}, nil
}

// Close releases the index, the store and the cache.
func (t *TM) Close() error {
	t.cache.Close()
	indexErr := t.index.Close()
	storeErr := t.store.Close()
	if indexErr != nil {
		return indexErr
	}
	return storeErr
}

// Suggest returns candidate translations for a source string in the target
// language, best first, at most five. An exact stored match short-circuits
// with score 1.0; otherwise indexed candidates are re-ranked by
// edit-distance similarity and those under the score floor are dropped.
func (t *TM) Suggest(ctx context.Context, source, lang string) ([]Suggestion, error) {
	if strings.TrimSpace(source) == "" || lang == "" {
		return nil, nil
	}

	hash := hashSource(source)
	cacheKey := lang + "\x00" + hash
	if cached, ok := t.cache.Get(cacheKey); ok {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	suggestions, err := t.lookup(ctx, source, lang, hash)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("Warning: translation memory lookup timed out for %q", source)
			return nil, nil
		}
		return nil, err
	}

	t.cache.Set(cacheKey, suggestions)
	return suggestions, nil
}

func (t *TM) lookup(ctx context.Context, source, lang, hash string) ([]Suggestion, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	translation, ok, err := t.store.exact(ctx, lang, hash)
	if err != nil {
		return nil, err
	}
	if ok {
		return []Suggestion{{Text: translation, Score: 1, Origin: "exact"}}, nil
	}

	candidates, err := searchCandidates(ctx, t.index, source, lang, candidateLimit)
	if err != nil {
		return nil, err
	}

	var suggestions []Suggestion
	for _, cand := range candidates {
		score := merge.Similarity(source, cand.Source)
		if score < t.minScore {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Text:   cand.Translation,
			Score:  score,
			Origin: "fuzzy",
		})
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions, nil
}

// Best returns the top suggestion's text and score, or empty when the
// memory has no match. It satisfies the merge engine's translation source
// contract.
func (t *TM) Best(ctx context.Context, source, lang string) (string, float64, error) {
	suggestions, err := t.Suggest(ctx, source, lang)
	if err != nil {
		return "", 0, err
	}
	if len(suggestions) == 0 {
		return "", 0, nil
	}
	return suggestions[0].Text, suggestions[0].Score, nil
}

// Learn stores one approved translation pair.
func (t *TM) Learn(ctx context.Context, lang, source, translation string) error {
	if lang == "" || source == "" || translation == "" {
		return fmt.Errorf("translation pair needs a language, a source and a translation")
	}

	hash := hashSource(source)
	p := pair{Lang: lang, SourceHash: hash, Source: source, Translation: translation}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.upsert(ctx, p); err != nil {
		return err
	}
	if err := t.index.Index(docID(lang, hash), pairToDocument(p)); err != nil {
		return fmt.Errorf("failed to index translation pair: %w", err)
	}
	t.cache.Delete(lang + "\x00" + hash)
	return nil
}

// LearnCatalog stores every translated, non-fuzzy singular entry of a
// catalog and returns the number of pairs stored. Plural entries are
// skipped: their translation slots are language-specific forms, not a
// single pair.
func (t *TM) LearnCatalog(ctx context.Context, cat *catalog.Catalog) (int, error) {
	lang := cat.Header.Language()
	if lang == "" {
		return 0, fmt.Errorf("catalog has no language header")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var pairs []pair
	for _, it := range cat.Items {
		if it.ID == "" || it.Fuzzy || it.HasPlural() || !it.IsTranslated() {
			continue
		}
		pairs = append(pairs, pair{
			Lang:        lang,
			SourceHash:  hashSource(it.ID),
			Source:      it.ID,
			Translation: it.Translation(0),
		})
	}
	if len(pairs) == 0 {
		return 0, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.upsertAll(ctx, pairs); err != nil {
		return 0, err
	}

	batch := t.index.NewBatch()
	for _, p := range pairs {
		if err := batch.Index(docID(p.Lang, p.SourceHash), pairToDocument(p)); err != nil {
			return 0, fmt.Errorf("failed to add pair to batch: %w", err)
		}
		if batch.Size() >= indexBatchSize {
			if err := t.index.Batch(batch); err != nil {
				return 0, fmt.Errorf("failed to execute batch: %w", err)
			}
			batch = t.index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := t.index.Batch(batch); err != nil {
			return 0, fmt.Errorf("failed to execute batch: %w", err)
		}
	}

	t.cache.Clear()
	return len(pairs), nil
}

// ImportCatalog loads a PO file and stores its translated entries.
func (t *TM) ImportCatalog(ctx context.Context, path string) (int, error) {
	cat, err := catalog.Load(path)
	if err != nil {
		return 0, err
	}
	return t.LearnCatalog(ctx, cat)
}

// LanguageStat is the pair count of one target language.
type LanguageStat struct {
	Lang  string
	Pairs int64
}

// Stats describes the stored pairs.
type Stats struct {
	Pairs     int64
	Languages []LanguageStat
}

// Stats reports the total pair count and the per-language breakdown.
func (t *TM) Stats(ctx context.Context) (*Stats, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	total, err := t.store.count(ctx)
	if err != nil {
		return nil, err
	}
	byLang, err := t.store.countByLang(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{Pairs: total, Languages: byLang}, nil
}
