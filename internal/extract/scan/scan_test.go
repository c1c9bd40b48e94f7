package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultKeywords() []Keyword {
	return []Keyword{
		{Name: "_", SingularArg: 1},
		{Name: "gettext", SingularArg: 1},
		{Name: "ngettext", SingularArg: 1, PluralArg: 2},
		{Name: "pgettext", ContextArg: 1, SingularArg: 2},
	}
}

func scanSource(t *testing.T, lang, source string) []Message {
	t.Helper()
	s, err := New(lang)
	require.NoError(t, err)
	msgs, err := s.ScanFile("test."+lang, []byte(source), defaultKeywords())
	require.NoError(t, err)
	return msgs
}

func TestSupported(t *testing.T) {
	t.Parallel()

	for _, lang := range []string{"c", "python", "php", "ruby", "rust", "java", "typescript", "tsx", "javascript"} {
		assert.True(t, Supported(lang), lang)
	}
	assert.False(t, Supported("cobol"))
	assert.NotEmpty(t, Languages())
}

func TestScanC(t *testing.T) {
	t.Parallel()

	src := `
#include <stdio.h>

int main(void) {
    printf("%s\n", _("Hello, world"));
    printf(gettext("Second"));
    return 0;
}
`
	msgs := scanSource(t, "c", src)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Hello, world", msgs[0].ID)
	assert.Equal(t, 5, msgs[0].Line)
	assert.Equal(t, "Second", msgs[1].ID)
}

func TestScanCPlural(t *testing.T) {
	t.Parallel()

	src := `
void f(int n) {
    puts(ngettext("%d file", "%d files", n));
}
`
	msgs := scanSource(t, "c", src)
	require.Len(t, msgs, 1)
	assert.Equal(t, "%d file", msgs[0].ID)
	assert.Equal(t, "%d files", msgs[0].PluralID)
}

func TestScanCContext(t *testing.T) {
	t.Parallel()

	src := `
void f(void) {
    puts(pgettext("verb", "Open"));
}
`
	msgs := scanSource(t, "c", src)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Open", msgs[0].ID)
	assert.Equal(t, "verb", msgs[0].Context)
}

func TestScanCTranslatorsComment(t *testing.T) {
	t.Parallel()

	src := `
void f(void) {
    /* TRANSLATORS: %s is a filename */
    printf(_("Saving %s"));
}
`
	msgs := scanSource(t, "c", src)
	require.Len(t, msgs, 1)
	assert.Equal(t, "TRANSLATORS: %s is a filename", msgs[0].Comment)
}

func TestScanCEscapes(t *testing.T) {
	t.Parallel()

	src := `
void f(void) {
    puts(_("line one\nline two\t\"quoted\""));
}
`
	msgs := scanSource(t, "c", src)
	require.Len(t, msgs, 1)
	assert.Equal(t, "line one\nline two\t\"quoted\"", msgs[0].ID)
}

func TestScanPython(t *testing.T) {
	t.Parallel()

	src := `
import gettext

def greet(name):
    print(_("Hello"))
    print(i18n.gettext("Qualified"))
    label = _('single quotes')
`
	msgs := scanSource(t, "python", src)
	require.Len(t, msgs, 3)
	assert.Equal(t, "Hello", msgs[0].ID)
	assert.Equal(t, "Qualified", msgs[1].ID)
	assert.Equal(t, "single quotes", msgs[2].ID)
}

func TestScanPythonSkipsInterpolation(t *testing.T) {
	t.Parallel()

	src := `
def f(name):
    print(_(f"Hello {name}"))
    print(_("plain"))
`
	msgs := scanSource(t, "python", src)
	require.Len(t, msgs, 1)
	assert.Equal(t, "plain", msgs[0].ID)
}

func TestScanPHP(t *testing.T) {
	t.Parallel()

	src := `<?php
echo _("Hello");
echo gettext('World');
$n = ngettext("One", "Many", $count);
`
	msgs := scanSource(t, "php", src)
	require.Len(t, msgs, 3)
	assert.Equal(t, "Hello", msgs[0].ID)
	assert.Equal(t, "World", msgs[1].ID)
	assert.Equal(t, "One", msgs[2].ID)
	assert.Equal(t, "Many", msgs[2].PluralID)
}

func TestScanPHPSkipsInterpolation(t *testing.T) {
	t.Parallel()

	src := `<?php
echo _("Hello $name");
echo _("plain");
`
	msgs := scanSource(t, "php", src)
	require.Len(t, msgs, 1)
	assert.Equal(t, "plain", msgs[0].ID)
}

func TestScanRuby(t *testing.T) {
	t.Parallel()

	src := `
def greet
  puts _("Hello")
  puts ngettext("%d item", "%d items", n)
end
`
	msgs := scanSource(t, "ruby", src)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Hello", msgs[0].ID)
	assert.Equal(t, "%d items", msgs[1].PluralID)
}

func TestScanRust(t *testing.T) {
	t.Parallel()

	src := `
fn main() {
    let s = gettext("Hello");
    println!("{}", s);
}
`
	msgs := scanSource(t, "rust", src)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Hello", msgs[0].ID)
}

func TestScanJava(t *testing.T) {
	t.Parallel()

	src := `
class Main {
    void run() {
        System.out.println(gettext("Hello"));
        String s = i18n.pgettext("menu", "Open");
    }
}
`
	msgs := scanSource(t, "java", src)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Hello", msgs[0].ID)
	assert.Equal(t, "Open", msgs[1].ID)
	assert.Equal(t, "menu", msgs[1].Context)
}

func TestScanTypeScript(t *testing.T) {
	t.Parallel()

	src := `
function greet(name: string) {
    console.log(_("Hello"));
    console.log(_('single'));
    console.log(_(` + "`template ${name}`" + `));
}
`
	msgs := scanSource(t, "typescript", src)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Hello", msgs[0].ID)
	assert.Equal(t, "single", msgs[1].ID)
}

func TestScanTSX(t *testing.T) {
	t.Parallel()

	src := `
export function Button() {
    return <button>{_("Click me")}</button>;
}
`
	msgs := scanSource(t, "tsx", src)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Click me", msgs[0].ID)
}

func TestScanNoKeywords(t *testing.T) {
	t.Parallel()

	s, err := New("c")
	require.NoError(t, err)
	msgs, err := s.ScanFile("x.c", []byte(`int main(void){return 0;}`), nil)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestUnknownLanguage(t *testing.T) {
	t.Parallel()

	_, err := New("fortran")
	require.Error(t, err)
}
