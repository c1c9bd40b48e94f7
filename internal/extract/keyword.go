package extract

import (
	"strconv"
	"strings"
)

// Keyword is a parsed xgettext-style keyword spec, e.g. "_", "ngettext:1,2"
// or "pgettext:1c,2". Argument positions are 1-based; 0 means absent.
type Keyword struct {
	Name        string
	SingularArg int
	PluralArg   int
	ContextArg  int
}

// Spec renders the keyword back into xgettext "-k" syntax.
func (k Keyword) Spec() string {
	var args []string
	if k.ContextArg > 0 {
		args = append(args, strconv.Itoa(k.ContextArg)+"c")
	}
	if k.SingularArg > 0 && (k.SingularArg != 1 || len(args) > 0 || k.PluralArg > 0) {
		args = append(args, strconv.Itoa(k.SingularArg))
	}
	if k.PluralArg > 0 {
		args = append(args, strconv.Itoa(k.PluralArg))
	}
	if len(args) == 0 {
		return k.Name
	}
	return k.Name + ":" + strings.Join(args, ",")
}

// ParseKeyword parses one keyword spec. Unparseable argument parts (total
// counts, quoted comment hints) are skipped rather than rejected, matching
// how xgettext tolerates them. An empty name yields a zero Keyword.
func ParseKeyword(spec string) Keyword {
	name, args, _ := strings.Cut(spec, ":")
	k := Keyword{Name: strings.TrimSpace(name), SingularArg: 1}
	if k.Name == "" {
		return Keyword{}
	}
	if args == "" {
		return k
	}

	k.SingularArg = 0
	for _, part := range strings.Split(args, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case strings.HasSuffix(part, "c"):
			if n, err := strconv.Atoi(strings.TrimSuffix(part, "c")); err == nil && n > 0 {
				k.ContextArg = n
			}
		case strings.HasSuffix(part, "t"), strings.HasPrefix(part, `"`):
			// total-arg markers and comment hints do not affect matching
		default:
			n, err := strconv.Atoi(part)
			if err != nil || n <= 0 {
				continue
			}
			if k.SingularArg == 0 {
				k.SingularArg = n
			} else if k.PluralArg == 0 {
				k.PluralArg = n
			}
		}
	}
	if k.SingularArg == 0 {
		k.SingularArg = 1
	}
	return k
}

// ParseKeywords parses a list of keyword specs, dropping empty entries.
func ParseKeywords(specs []string) []Keyword {
	var out []Keyword
	for _, s := range specs {
		k := ParseKeyword(s)
		if k.Name != "" {
			out = append(out, k)
		}
	}
	return out
}

// DefaultKeywords is the marker set used when neither the catalog header
// nor the configuration supplies one.
func DefaultKeywords() []Keyword {
	return []Keyword{
		{Name: "_", SingularArg: 1},
		{Name: "gettext", SingularArg: 1},
		{Name: "ngettext", SingularArg: 1, PluralArg: 2},
		{Name: "pgettext", ContextArg: 1, SingularArg: 2},
		{Name: "npgettext", ContextArg: 1, SingularArg: 2, PluralArg: 3},
	}
}
