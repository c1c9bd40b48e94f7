package update

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mvp-joe/msgforge/internal/catalog"
	"github.com/mvp-joe/msgforge/internal/extract"
	"github.com/mvp-joe/msgforge/internal/merge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	phases  []string
	files   int
	preview merge.Stats
}

func (r *recordingReporter) OnPhase(message string)          { r.phases = append(r.phases, message) }
func (r *recordingReporter) OnCollectComplete(fileCount int) { r.files = fileCount }
func (r *recordingReporter) OnPreview(stats merge.Stats)     { r.preview = stats }

type recordingLearner struct {
	learned *catalog.Catalog
	err     error
}

func (l *recordingLearner) LearnCatalog(_ context.Context, cat *catalog.Catalog) (int, error) {
	l.learned = cat
	if l.err != nil {
		return 0, l.err
	}
	return len(cat.Items), nil
}

// phaseHook runs fn when a phase message with the given prefix arrives.
type phaseHook struct {
	NoOpProgressReporter
	prefix string
	fn     func()
}

func (p *phaseHook) OnPhase(message string) {
	if strings.HasPrefix(message, p.prefix) {
		p.fn()
	}
}

// sourceCatalog builds a project tree with one Python source file and a
// catalog whose headers point at it.
func sourceCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	proj := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(proj, "src"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(proj, "po"), 0755))

	py := "print(_(\"Hello\"))\nprint(_(\"Open file\"))\n"
	require.NoError(t, os.WriteFile(filepath.Join(proj, "src", "app.py"), []byte(py), 0644))

	cat := catalog.New()
	cat.Path = filepath.Join(proj, "po", "fr.po")
	cat.Header.Set("Language", "fr")
	cat.Header.Set("Plural-Forms", "nplurals=2; plural=(n != 1);")
	cat.Header.Set(catalog.HeaderBasepath, "..")
	cat.Header.SetSearchPaths([]string{"src"})
	cat.Append(&catalog.Item{ID: "Hello", Translations: []string{"Bonjour"}})
	cat.Append(&catalog.Item{ID: "Quit", Translations: []string{"Quitter"}})
	return cat
}

func TestRunFromSources(t *testing.T) {
	t.Parallel()

	cat := sourceCatalog(t)
	reporter := &recordingReporter{}

	res, err := RunFromSources(context.Background(), cat, Options{Progress: reporter})
	require.NoError(t, err)

	assert.Equal(t, merge.Stats{Added: 1, Updated: 1, Obsolete: 1, Changed: true}, res.Stats)
	assert.Empty(t, res.Diagnostics)

	require.Len(t, res.Catalog.Items, 2)
	hello := res.Catalog.Items[0]
	assert.Equal(t, "Hello", hello.ID)
	assert.Equal(t, []string{"Bonjour"}, hello.Translations)
	assert.Equal(t, []string{"src/app.py:1"}, hello.References)

	added := res.Catalog.Items[1]
	assert.Equal(t, "Open file", added.ID)
	assert.Equal(t, []string{""}, added.Translations)
	assert.Equal(t, []string{"src/app.py:2"}, added.References)

	require.Len(t, res.Catalog.Obsolete, 1)
	assert.Equal(t, "Quit", res.Catalog.Obsolete[0].ID)

	// The input catalog stays untouched; the caller owns saving the copy.
	require.Len(t, cat.Items, 2)
	assert.Empty(t, cat.Obsolete)

	assert.Equal(t, 1, reporter.files)
	assert.Equal(t, merge.Stats{Added: 1, Obsolete: 1, Changed: true}, reporter.preview)
	require.Len(t, reporter.phases, 4)
	assert.Equal(t, "Collecting source files...", reporter.phases[0])
	assert.Equal(t, "Extracting translatable strings from 1 files...", reporter.phases[1])
	assert.Equal(t, "Determining differences...", reporter.phases[2])
	assert.Equal(t, "Merging differences...", reporter.phases[3])
}

func TestRunFromSourcesNoSources(t *testing.T) {
	t.Parallel()

	proj := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(proj, "po"), 0755))

	cat := catalog.New()
	cat.Path = filepath.Join(proj, "po", "fr.po")
	cat.Header.Set(catalog.HeaderBasepath, "..")
	cat.Header.SetSearchPaths([]string{"src"})

	res, err := RunFromSources(context.Background(), cat, Options{})
	require.ErrorIs(t, err, extract.ErrNoSourcesFound)
	assert.Nil(t, res)
}

func TestRunFromSourcesNilCatalog(t *testing.T) {
	t.Parallel()

	_, err := RunFromSources(context.Background(), nil, Options{})
	require.Error(t, err)
}

func TestRunFromSourcesCancelledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := RunFromSources(ctx, sourceCatalog(t), Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestRunFromSourcesCancelledAtExtractionBoundary(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hook := &phaseHook{prefix: "Extracting", fn: cancel}

	res, err := RunFromSources(ctx, sourceCatalog(t), Options{Progress: hook})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestRunFromReference(t *testing.T) {
	t.Parallel()

	ref := catalog.New()
	ref.Append(&catalog.Item{ID: "Hello", References: []string{"ui.c:3"}})
	ref.Append(&catalog.Item{ID: "Save"})
	refPath := filepath.Join(t.TempDir(), "ref.pot")
	require.NoError(t, ref.Save(refPath))

	cat := catalog.New()
	cat.Header.Set("Language", "fr")
	cat.Append(&catalog.Item{ID: "Hello", Translations: []string{"Bonjour"}})

	res, err := RunFromReference(context.Background(), cat, refPath, Options{})
	require.NoError(t, err)

	assert.Equal(t, merge.Stats{Added: 1, Updated: 1, Changed: true}, res.Stats)
	assert.Empty(t, res.Diagnostics)
	require.Len(t, res.Catalog.Items, 2)
	assert.Equal(t, []string{"Bonjour"}, res.Catalog.Items[0].Translations)
	assert.Equal(t, []string{"ui.c:3"}, res.Catalog.Items[0].References)
	assert.Equal(t, "Save", res.Catalog.Items[1].ID)
}

func TestRunFromReferenceUnparsable(t *testing.T) {
	t.Parallel()

	refPath := filepath.Join(t.TempDir(), "broken.pot")
	require.NoError(t, os.WriteFile(refPath, []byte("msgid \"unterminated\n"), 0644))

	cat := catalog.New()
	res, err := RunFromReference(context.Background(), cat, refPath, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reference")
	assert.Nil(t, res)
}

func TestRunLearnsAfterMerge(t *testing.T) {
	t.Parallel()

	ref := catalog.New()
	ref.Append(&catalog.Item{ID: "Hello"})
	refPath := filepath.Join(t.TempDir(), "ref.pot")
	require.NoError(t, ref.Save(refPath))

	cat := catalog.New()
	cat.Header.Set("Language", "fr")
	cat.Append(&catalog.Item{ID: "Hello", Translations: []string{"Bonjour"}})

	learner := &recordingLearner{}
	res, err := RunFromReference(context.Background(), cat, refPath, Options{Learn: learner})
	require.NoError(t, err)
	assert.Same(t, res.Catalog, learner.learned)
}

func TestRunLearnFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	ref := catalog.New()
	ref.Append(&catalog.Item{ID: "Hello"})
	refPath := filepath.Join(t.TempDir(), "ref.pot")
	require.NoError(t, ref.Save(refPath))

	cat := catalog.New()
	cat.Header.Set("Language", "fr")

	learner := &recordingLearner{err: assert.AnError}
	res, err := RunFromReference(context.Background(), cat, refPath, Options{Learn: learner})
	require.NoError(t, err)
	assert.NotNil(t, res)
}
