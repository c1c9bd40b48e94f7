package extract

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/msgforge/internal/catalog"
)

type fakeEntry struct {
	msgid   string
	context string
	ref     string
}

// fakeExtractor writes a fixed set of entries into its scratch directory,
// or fails with a canned error. It records what it was invoked with.
type fakeExtractor struct {
	extractorBase
	entries  []fakeEntry
	diags    []Diagnostic
	err      error
	gotFiles []string
	gotDir   string
}

func newFakeExtractor(id string, priority Priority, exts ...string) *fakeExtractor {
	e := &fakeExtractor{extractorBase: newExtractorBase(id, priority)}
	e.addExtensions(exts...)
	return e
}

func (e *fakeExtractor) Extract(ctx context.Context, scratchDir string, spec *SourceSpec, files []string) (*Output, error) {
	e.gotFiles = append([]string(nil), files...)
	e.gotDir = scratchDir
	if e.err != nil {
		return &Output{Diagnostics: e.diags}, e.err
	}
	if len(e.entries) == 0 {
		return &Output{Diagnostics: e.diags}, nil
	}

	out := catalog.New()
	for _, en := range e.entries {
		it := &catalog.Item{ID: en.msgid, Context: en.context}
		if en.ref != "" {
			it.References = []string{en.ref}
		}
		out.Append(it)
	}
	path := filepath.Join(scratchDir, "fake.pot")
	if err := out.Save(path); err != nil {
		return nil, err
	}
	return &Output{TemplateFile: path, Diagnostics: e.diags}, nil
}

func TestRegistryExtractEndToEnd(t *testing.T) {
	t.Parallel()

	py := newFakeExtractor("fake-py", PriorityDefault, "py")
	py.entries = []fakeEntry{
		{msgid: "Hello", ref: "app.py:1"},
		{msgid: "Goodbye", ref: "app.py:2"},
	}
	c := newFakeExtractor("fake-c", PriorityDefault, "c")
	c.entries = []fakeEntry{{msgid: "Open file", ref: "main.c:10"}}

	reg := &Registry{}
	reg.Add(py)
	reg.Add(c)

	out, err := reg.Extract(context.Background(), t.TempDir(), &SourceSpec{}, []string{"/s/app.py", "/s/main.c"}, 0)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Empty(t, out.Diagnostics)
	require.NotEmpty(t, out.TemplateFile)

	cat, err := catalog.Load(out.TemplateFile)
	require.NoError(t, err)
	require.Len(t, cat.Items, 3)
	assert.Equal(t, "Hello", cat.Items[0].ID)
	assert.Equal(t, "Goodbye", cat.Items[1].ID)
	assert.Equal(t, "Open file", cat.Items[2].ID)

	assert.Equal(t, []string{"/s/app.py"}, py.gotFiles)
	assert.Equal(t, []string{"/s/main.c"}, c.gotFiles)
	assert.NotEqual(t, py.gotDir, c.gotDir)
}

func TestRegistryExtractNothingClaimed(t *testing.T) {
	t.Parallel()

	py := newFakeExtractor("fake-py", PriorityDefault, "py")

	reg := &Registry{}
	reg.Add(py)

	out, err := reg.Extract(context.Background(), t.TempDir(), &SourceSpec{}, []string{"/s/readme.md"}, 0)
	require.NoError(t, err)
	assert.True(t, out.Empty())
	assert.Empty(t, py.gotFiles)
}

func TestRegistryExtractNoStringsFound(t *testing.T) {
	t.Parallel()

	py := newFakeExtractor("fake-py", PriorityDefault, "py")

	reg := &Registry{}
	reg.Add(py)

	out, err := reg.Extract(context.Background(), t.TempDir(), &SourceSpec{}, []string{"/s/empty.py"}, 0)
	require.NoError(t, err)
	assert.True(t, out.Empty())
	assert.Empty(t, out.Diagnostics)
	assert.Equal(t, []string{"/s/empty.py"}, py.gotFiles)
}

func TestRegistryExtractReusesSingleTemplate(t *testing.T) {
	t.Parallel()

	py := newFakeExtractor("fake-py", PriorityDefault, "py")
	py.entries = []fakeEntry{{msgid: "Hello"}}

	reg := &Registry{}
	reg.Add(py)

	out, err := reg.Extract(context.Background(), t.TempDir(), &SourceSpec{}, []string{"/s/a.py"}, 0)
	require.NoError(t, err)
	// A single partial output needs no rewrite.
	assert.True(t, strings.HasSuffix(out.TemplateFile, "fake.pot"))
}

func TestRegistryExtractMergesDuplicateEntries(t *testing.T) {
	t.Parallel()

	py := newFakeExtractor("fake-py", PriorityDefault, "py")
	py.entries = []fakeEntry{
		{msgid: "Shared", ref: "app.py:3"},
		{msgid: "Only Python", ref: "app.py:4"},
	}
	c := newFakeExtractor("fake-c", PriorityDefault, "c")
	c.entries = []fakeEntry{
		{msgid: "Shared", ref: "main.c:7"},
		{msgid: "Only C", ref: "main.c:8"},
	}

	reg := &Registry{}
	reg.Add(py)
	reg.Add(c)

	out, err := reg.Extract(context.Background(), t.TempDir(), &SourceSpec{}, []string{"/s/app.py", "/s/main.c"}, 0)
	require.NoError(t, err)

	cat, err := catalog.Load(out.TemplateFile)
	require.NoError(t, err)
	require.Len(t, cat.Items, 3)
	assert.Equal(t, "Shared", cat.Items[0].ID)
	assert.Equal(t, []string{"app.py:3", "main.c:7"}, cat.Items[0].References)
	assert.Equal(t, "Only Python", cat.Items[1].ID)
	assert.Equal(t, "Only C", cat.Items[2].ID)
}

func TestConcatTemplatesWithItself(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cat := catalog.New()
	cat.Append(&catalog.Item{ID: "Hello", References: []string{"a.py:1"}})
	cat.Append(&catalog.Item{ID: "Goodbye", References: []string{"a.py:2"}})
	path := filepath.Join(dir, "partial.pot")
	require.NoError(t, cat.Save(path))

	merged, err := concatTemplates(dir, []*Output{
		{TemplateFile: path},
		{TemplateFile: path},
	})
	require.NoError(t, err)

	got, err := catalog.Load(merged)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Hello", got.Items[0].ID)
	assert.Equal(t, []string{"a.py:1"}, got.Items[0].References)
	assert.Equal(t, "Goodbye", got.Items[1].ID)
	assert.Equal(t, []string{"a.py:2"}, got.Items[1].References)
}

func TestRegistryExtractFailedExtractorBecomesDiagnostic(t *testing.T) {
	t.Parallel()

	bad := newFakeExtractor("fake-bad", PriorityDefault, "py")
	bad.err = errors.New("tool exploded")
	bad.diags = []Diagnostic{{Severity: SeverityError, File: "a.py", Line: 3, Message: "bad syntax"}}
	good := newFakeExtractor("fake-good", PriorityDefault, "c")
	good.entries = []fakeEntry{{msgid: "Open file"}}

	reg := &Registry{}
	reg.Add(bad)
	reg.Add(good)

	out, err := reg.Extract(context.Background(), t.TempDir(), &SourceSpec{}, []string{"/s/a.py", "/s/main.c"}, 0)
	require.NoError(t, err)
	require.NotEmpty(t, out.TemplateFile)

	require.Len(t, out.Diagnostics, 2)
	assert.Equal(t, "bad syntax", out.Diagnostics[0].Message)
	assert.Contains(t, out.Diagnostics[1].Message, "fake-bad")
	assert.Contains(t, out.Diagnostics[1].Message, "tool exploded")
	assert.Equal(t, SeverityError, out.Diagnostics[1].Severity)
}

func TestRegistryExtractAllFailedIsFatal(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	bad := newFakeExtractor("fake-bad", PriorityDefault, "py")
	bad.err = boom

	reg := &Registry{}
	reg.Add(bad)

	_, err := reg.Extract(context.Background(), t.TempDir(), &SourceSpec{}, []string{"/s/a.py"}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "extraction failed")
}

func TestRegistryExtractCancelled(t *testing.T) {
	t.Parallel()

	py := newFakeExtractor("fake-py", PriorityDefault, "py")
	py.entries = []fakeEntry{{msgid: "Hello"}}

	reg := &Registry{}
	reg.Add(py)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reg.Extract(ctx, t.TempDir(), &SourceSpec{}, []string{"/s/a.py"}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, py.gotFiles)
}
