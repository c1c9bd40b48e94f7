// Package merge implements catalog merging: matching an existing
// translation catalog against a freshly extracted or supplied set of
// template strings, carrying translations over, fuzzy-matching what moved
// and retiring what disappeared.
package merge

import (
	"context"
	"fmt"

	"github.com/mvp-joe/msgforge/internal/catalog"
)

// Behavior selects how entries that are new to the catalog get candidate
// translations.
type Behavior int

const (
	// None leaves new entries untranslated.
	None Behavior = iota

	// FuzzyMatch copies the translation of the most similar removed entry
	// and flags the result fuzzy.
	FuzzyMatch

	// UseTM asks the translation memory for a best match and flags the
	// result fuzzy and pre-translated.
	UseTM
)

func (b Behavior) String() string {
	switch b {
	case None:
		return "none"
	case FuzzyMatch:
		return "fuzzy"
	case UseTM:
		return "tm"
	default:
		return fmt.Sprintf("behavior(%d)", int(b))
	}
}

// ParseBehavior parses the configuration form of a merge behavior.
func ParseBehavior(s string) (Behavior, error) {
	switch s {
	case "", "fuzzy":
		return FuzzyMatch, nil
	case "none":
		return None, nil
	case "tm":
		return UseTM, nil
	default:
		return None, fmt.Errorf("unknown merge behavior %q", s)
	}
}

// DefaultMinSimilarity is the fuzzy-match acceptance threshold used when
// the options carry none.
const DefaultMinSimilarity = 0.75

// TranslationSource is the translation-memory collaborator. Best returns
// the top suggestion for a source string, or an empty text when there is
// no acceptable match. Lookup failures and timeouts mean "no match".
type TranslationSource interface {
	Best(ctx context.Context, source, lang string) (text string, score float64, err error)
}

// Options configure one merge.
type Options struct {
	Behavior Behavior

	// MinSimilarity is the fuzzy-match acceptance threshold in (0,1],
	// DefaultMinSimilarity when zero.
	MinSimilarity float64

	// TM serves UseTM lookups. A nil TM degrades UseTM to None.
	TM TranslationSource
}

// Stats summarize one merge. Added counts keys new to the catalog,
// including the fuzzy-filled ones; Fuzzied counts entries that received a
// candidate translation; Updated counts entries carried over by exact
// match.
type Stats struct {
	Added    int
	Obsolete int
	Fuzzied  int
	Updated  int

	// Changed reports whether any entry's translated or fuzzy status
	// differs from the old catalog, the signal for callers to refresh.
	Changed bool
}

// Issue is a non-fatal per-entry anomaly found while merging.
type Issue struct {
	Key     catalog.Key
	Message string
}

// Result of a merge. The catalog is a fresh instance; the inputs are not
// mutated. It is structurally valid even when issues were recorded.
type Result struct {
	Catalog *catalog.Catalog
	Stats   Stats
	Issues  []Issue
}

// candidate is a retired old entry eligible for fuzzy matching.
type candidate struct {
	item  *catalog.Item
	index int
}

// Merge builds a new catalog from the old one and the template's string
// set. Template order defines the new item order. Exact key matches carry
// their translations and flags over with refreshed references; keys
// missing from the template become obsolete entries; template keys missing
// from the catalog are filled per the configured behavior. Old obsolete
// entries whose key reappears are revived with their translation intact.
func Merge(ctx context.Context, old, tmpl *catalog.Catalog, opts Options) (*Result, error) {
	if old == nil {
		return nil, fmt.Errorf("merge: no catalog")
	}
	if tmpl == nil {
		return nil, fmt.Errorf("merge: no template")
	}
	minSim := opts.MinSimilarity
	if minSim == 0 {
		minSim = DefaultMinSimilarity
	}

	res := &Result{
		Catalog: &catalog.Catalog{
			Header:        old.Header,
			HeaderComment: old.HeaderComment,
			Path:          old.Path,
		},
	}
	lang := old.Header.Language()

	oldByKey := make(map[catalog.Key]*catalog.Item, len(old.Items))
	for _, it := range old.Items {
		if _, dup := oldByKey[it.Key()]; !dup {
			oldByKey[it.Key()] = it
		}
	}
	obsByKey := make(map[catalog.Key]*catalog.Item, len(old.Obsolete))
	for _, it := range old.Obsolete {
		if _, dup := obsByKey[it.Key()]; !dup {
			obsByKey[it.Key()] = it
		}
	}

	newKeys := make(map[catalog.Key]bool, len(tmpl.Items))
	for _, it := range tmpl.Items {
		newKeys[it.Key()] = true
	}

	// Entries about to be retired, in catalog order, then old obsolete
	// entries. They form the fuzzy-match candidate pool.
	var candidates []candidate
	for i, it := range old.Items {
		if !newKeys[it.Key()] && hasAnyTranslation(it) {
			candidates = append(candidates, candidate{item: it, index: i})
		}
	}
	for i, it := range old.Obsolete {
		if !newKeys[it.Key()] && hasAnyTranslation(it) {
			candidates = append(candidates, candidate{item: it, index: len(old.Items) + i})
		}
	}

	outByKey := make(map[catalog.Key]*catalog.Item, len(tmpl.Items))
	revived := make(map[catalog.Key]bool)

	for _, newIt := range tmpl.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := newIt.Key()

		if prev, dup := outByKey[key]; dup {
			prev.References = mergeRefs(prev.References, newIt.References)
			res.Issues = append(res.Issues, Issue{
				Key:     key,
				Message: "duplicate entry in template, references merged",
			})
			continue
		}

		if oldIt, ok := oldByKey[key]; ok {
			out := carryOver(res, oldIt, newIt)
			outByKey[key] = out
			res.Catalog.Append(out)
			res.Stats.Updated++
			continue
		}

		out := newEntry(newIt)
		if oldObs, ok := obsByKey[key]; ok {
			// The string came back: restore its retired translation as a
			// non-fuzzy entry.
			out.Translations = append([]string(nil), oldObs.Translations...)
			out.Fuzzy = oldObs.Fuzzy
			revived[key] = true
		} else {
			switch opts.Behavior {
			case FuzzyMatch:
				if cand := bestMatch(newIt.ID, candidates, minSim); cand != nil {
					fillFromCandidate(out, cand.item)
					res.Stats.Fuzzied++
				}
			case UseTM:
				if opts.TM != nil {
					text, _, err := opts.TM.Best(ctx, newIt.ID, lang)
					if err == nil && text != "" {
						out.SetTranslation(0, text)
						out.Fuzzy = true
						out.PreTranslated = true
						res.Stats.Fuzzied++
					}
				}
			}
		}
		outByKey[key] = out
		res.Catalog.Append(out)
		res.Stats.Added++
		res.Stats.Changed = true
	}

	// Old obsolete entries stay retired unless revived above.
	for _, it := range old.Obsolete {
		if !revived[it.Key()] {
			res.Catalog.Obsolete = append(res.Catalog.Obsolete, it.Clone())
		}
	}
	for _, it := range old.Items {
		if newKeys[it.Key()] {
			continue
		}
		res.Catalog.Obsolete = append(res.Catalog.Obsolete, it.Clone())
		res.Stats.Obsolete++
		res.Stats.Changed = true
	}

	res.Catalog.NormalizePlurals()
	return res, nil
}

// carryOver clones an exact-key match, refreshing only what the sources
// define: the reference locations and, on anomaly, the plural form.
func carryOver(res *Result, oldIt, newIt *catalog.Item) *catalog.Item {
	out := oldIt.Clone()
	out.References = append([]string(nil), newIt.References...)
	if out.PluralID != newIt.PluralID {
		res.Issues = append(res.Issues, Issue{
			Key:     newIt.Key(),
			Message: fmt.Sprintf("plural form changed from %q to %q", out.PluralID, newIt.PluralID),
		})
		out.PluralID = newIt.PluralID
		if out.IsTranslated() {
			out.Fuzzy = true
		}
		res.Stats.Changed = true
	}
	return out
}

// newEntry clones a template item stripped down to an untranslated entry.
func newEntry(newIt *catalog.Item) *catalog.Item {
	out := newIt.Clone()
	out.Translations = nil
	out.Fuzzy = false
	out.PreTranslated = false
	out.Modified = false
	out.OldID = ""
	out.OldContext = ""
	return out
}

// fillFromCandidate copies a retired entry's translation into a new one,
// flagging it fuzzy and recording the previous source string.
func fillFromCandidate(out *catalog.Item, cand *catalog.Item) {
	out.Translations = append([]string(nil), cand.Translations...)
	out.Fuzzy = true
	out.OldID = cand.ID
	out.OldContext = cand.Context
}

func hasAnyTranslation(it *catalog.Item) bool {
	for _, t := range it.Translations {
		if t != "" {
			return true
		}
	}
	return false
}

func mergeRefs(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, r := range a {
		seen[r] = true
	}
	for _, r := range b {
		if !seen[r] {
			a = append(a, r)
			seen[r] = true
		}
	}
	return a
}

// ComputeStats previews what a merge would change without performing it:
// how many template keys are new and how many catalog keys would retire.
func ComputeStats(old, tmpl *catalog.Catalog) Stats {
	var s Stats
	if old == nil || tmpl == nil {
		return s
	}
	oldKeys := make(map[catalog.Key]bool, len(old.Items))
	for _, it := range old.Items {
		oldKeys[it.Key()] = true
	}
	newKeys := make(map[catalog.Key]bool, len(tmpl.Items))
	for _, it := range tmpl.Items {
		k := it.Key()
		if newKeys[k] {
			continue
		}
		newKeys[k] = true
		if !oldKeys[k] {
			s.Added++
		}
	}
	for _, it := range old.Items {
		if !newKeys[it.Key()] {
			s.Obsolete++
		}
	}
	s.Changed = s.Added > 0 || s.Obsolete > 0
	return s
}
