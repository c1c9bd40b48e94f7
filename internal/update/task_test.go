package update

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mvp-joe/msgforge/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceFixture(t *testing.T) (*catalog.Catalog, string) {
	t.Helper()
	ref := catalog.New()
	ref.Append(&catalog.Item{ID: "Hello"})
	refPath := filepath.Join(t.TempDir(), "ref.pot")
	require.NoError(t, ref.Save(refPath))

	cat := catalog.New()
	cat.Header.Set("Language", "fr")
	return cat, refPath
}

func TestTaskWait(t *testing.T) {
	t.Parallel()

	cat, refPath := referenceFixture(t)
	task := StartFromReference(context.Background(), cat, refPath, Options{})

	res, err := task.Wait()
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Stats.Added)

	// Repeated waits hand back the same outcome.
	again, err := task.Wait()
	require.NoError(t, err)
	assert.Same(t, res, again)
}

func TestTaskOutcomeChannel(t *testing.T) {
	t.Parallel()

	cat, refPath := referenceFixture(t)
	task := StartFromReference(context.Background(), cat, refPath, Options{})

	out := <-task.Outcome()
	require.NoError(t, out.Err)
	require.NotNil(t, out.Result)
	assert.Equal(t, 1, out.Result.Stats.Added)
}

func TestTaskParentContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := StartFromSources(ctx, sourceCatalog(t), Options{})
	res, err := task.Wait()
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestTaskCancelMidRun(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	hook := &phaseHook{prefix: "Extracting", fn: func() {
		close(entered)
		<-release
	}}

	task := StartFromSources(context.Background(), sourceCatalog(t), Options{Progress: hook})
	<-entered
	task.Cancel()
	close(release)

	res, err := task.Wait()
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}
