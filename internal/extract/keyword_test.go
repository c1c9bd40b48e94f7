package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spec string
		want Keyword
	}{
		{
			name: "bare name",
			spec: "_",
			want: Keyword{Name: "_", SingularArg: 1},
		},
		{
			name: "bare name with colon",
			spec: "gettext:",
			want: Keyword{Name: "gettext", SingularArg: 1},
		},
		{
			name: "explicit singular",
			spec: "dgettext:2",
			want: Keyword{Name: "dgettext", SingularArg: 2},
		},
		{
			name: "plural pair",
			spec: "ngettext:1,2",
			want: Keyword{Name: "ngettext", SingularArg: 1, PluralArg: 2},
		},
		{
			name: "context then singular",
			spec: "pgettext:1c,2",
			want: Keyword{Name: "pgettext", SingularArg: 2, ContextArg: 1},
		},
		{
			name: "context plural triple",
			spec: "npgettext:1c,2,3",
			want: Keyword{Name: "npgettext", SingularArg: 2, PluralArg: 3, ContextArg: 1},
		},
		{
			name: "total marker skipped",
			spec: "translate:1,2,3t",
			want: Keyword{Name: "translate", SingularArg: 1, PluralArg: 2},
		},
		{
			name: "comment hint skipped",
			spec: `i18n:1,"hint"`,
			want: Keyword{Name: "i18n", SingularArg: 1},
		},
		{
			name: "whitespace tolerated",
			spec: " tr : 1 , 2 ",
			want: Keyword{Name: "tr", SingularArg: 1, PluralArg: 2},
		},
		{
			name: "garbage arg ignored",
			spec: "tr:x,2",
			want: Keyword{Name: "tr", SingularArg: 2},
		},
		{
			name: "empty spec",
			spec: "",
			want: Keyword{},
		},
		{
			name: "blank name",
			spec: "  :1",
			want: Keyword{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, ParseKeyword(tt.spec))
		})
	}
}

func TestKeywordSpecRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec string
		want string
	}{
		{"_", "_"},
		{"_:1", "_"},
		{"dgettext:2", "dgettext:2"},
		{"ngettext:1,2", "ngettext:1,2"},
		{"pgettext:1c,2", "pgettext:1c,2"},
		{"npgettext:1c,2,3", "npgettext:1c,2,3"},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, ParseKeyword(tt.spec).Spec())
		})
	}
}

func TestParseKeywords(t *testing.T) {
	t.Parallel()

	got := ParseKeywords([]string{"_", "", "ngettext:1,2", "   "})
	require.Len(t, got, 2)
	assert.Equal(t, "_", got[0].Name)
	assert.Equal(t, "ngettext", got[1].Name)
}

func TestDefaultKeywords(t *testing.T) {
	t.Parallel()

	defaults := DefaultKeywords()
	require.NotEmpty(t, defaults)

	names := make(map[string]Keyword, len(defaults))
	for _, k := range defaults {
		names[k.Name] = k
	}
	assert.Contains(t, names, "_")
	assert.Contains(t, names, "gettext")
	assert.Equal(t, 2, names["ngettext"].PluralArg)
	assert.Equal(t, 1, names["pgettext"].ContextArg)
}
