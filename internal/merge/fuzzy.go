package merge

import (
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Similarity scores how alike two strings are in [0,1]: the Levenshtein
// distance over their diff, normalized by the longer string's rune count.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	dist := dmp.DiffLevenshtein(diffs)

	longest := utf8.RuneCountInString(a)
	if lb := utf8.RuneCountInString(b); lb > longest {
		longest = lb
	}
	if dist >= longest {
		return 0
	}
	return 1 - float64(dist)/float64(longest)
}

// bestMatch returns the candidate most similar to source, at or above
// minSim. Equal scores prefer the earlier candidate, which keeps the
// result deterministic.
func bestMatch(source string, cands []candidate, minSim float64) *candidate {
	var best *candidate
	bestSim := 0.0
	for i := range cands {
		sim := Similarity(source, cands[i].item.ID)
		if sim < minSim {
			continue
		}
		if best == nil || sim > bestSim {
			best = &cands[i]
			bestSim = sim
		}
	}
	return best
}
