package tm

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

const indexBatchSize = 1000

// buildIndexMapping creates the index mapping for translation pair
// documents. The source text is the search target; language is a keyword
// filter; the translation is stored for retrieval only.
func buildIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	sourceMapping := bleve.NewTextFieldMapping()
	sourceMapping.Analyzer = "standard"
	sourceMapping.Store = true
	sourceMapping.Index = true

	langMapping := bleve.NewTextFieldMapping()
	langMapping.Analyzer = "keyword"
	langMapping.Store = true
	langMapping.Index = true

	translationMapping := bleve.NewTextFieldMapping()
	translationMapping.Store = true
	translationMapping.Index = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("source", sourceMapping)
	docMapping.AddFieldMappingsAt("lang", langMapping)
	docMapping.AddFieldMappingsAt("translation", translationMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// openIndex opens the on-disk candidate index, creating it when absent.
func openIndex(path string) (bleve.Index, error) {
	index, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(path, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open translation index: %w", err)
	}
	return index, nil
}

func docID(lang, sourceHash string) string {
	return lang + ":" + sourceHash
}

func pairToDocument(p pair) map[string]interface{} {
	return map[string]interface{}{
		"source":      p.Source,
		"lang":        p.Lang,
		"translation": p.Translation,
	}
}

// reindexPairs rebuilds the candidate index from the stored pairs, used
// when the index directory was lost while the store survived.
func reindexPairs(ctx context.Context, index bleve.Index, s *store) error {
	batch := index.NewBatch()
	n := 0
	err := s.all(ctx, func(p pair) error {
		if n%indexBatchSize == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		n++

		if err := batch.Index(docID(p.Lang, p.SourceHash), pairToDocument(p)); err != nil {
			return fmt.Errorf("failed to add pair to batch: %w", err)
		}
		if batch.Size() >= indexBatchSize {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("failed to execute batch: %w", err)
			}
			batch = index.NewBatch()
		}
		return nil
	})
	if err != nil {
		return err
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to execute final batch: %w", err)
		}
	}
	return nil
}

// searchCandidates returns stored pairs whose source text shares terms
// with the query string, restricted to one target language.
func searchCandidates(ctx context.Context, index bleve.Index, source, lang string, limit int) ([]pair, error) {
	sourceQuery := bleve.NewMatchQuery(source)
	sourceQuery.SetField("source")
	langQuery := bleve.NewMatchQuery(lang)
	langQuery.SetField("lang")
	finalQuery := bleve.NewConjunctionQuery(sourceQuery, langQuery)

	searchRequest := bleve.NewSearchRequestOptions(finalQuery, limit, 0, false)
	searchRequest.Fields = []string{"source", "lang", "translation"}

	searchResult, err := index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("candidate search failed: %w", err)
	}

	candidates := make([]pair, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		src, _ := hit.Fields["source"].(string)
		hitLang, _ := hit.Fields["lang"].(string)
		translation, _ := hit.Fields["translation"].(string)
		candidates = append(candidates, pair{
			Lang:        hitLang,
			SourceHash:  hashSource(src),
			Source:      src,
			Translation: translation,
		})
	}
	return candidates, nil
}
