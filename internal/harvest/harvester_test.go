package harvest

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// keyedFetcher maps item keys to fixed outcomes and can run a hook when a
// key is fetched (used to cancel the run mid-stream).
type keyedFetcher struct {
	mu       sync.Mutex
	outcomes map[string]Outcome
	hooks    map[string]func()
	fetched  []string
}

func (f *keyedFetcher) Fetch(_ context.Context, item WorkItem) (Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, item.Key)
	if hook, ok := f.hooks[item.Key]; ok {
		hook()
	}
	out, ok := f.outcomes[item.Key]
	if !ok {
		return Outcome{}, errors.New("no scripted outcome for " + item.Key)
	}
	return out, nil
}

func (f *keyedFetcher) fetchedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

func fiveItems() SliceSource {
	return SliceSource{
		{Key: "A"}, {Key: "B"}, {Key: "C"}, {Key: "D"}, {Key: "E"},
	}
}

func TestHarvesterInterruptedRunThenResume(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	storePath := filepath.Join(dir, "progress.json")
	cpPath := filepath.Join(dir, ".checkpoint.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := &keyedFetcher{
		outcomes: map[string]Outcome{
			"A": Success(json.RawMessage(`"a"`)),
			"B": Success(json.RawMessage(`"b"`)),
			"C": NotFound(),
			"D": TransientFailure("retries exhausted"),
		},
		// Interrupt while D is in flight; D must still be recorded.
		hooks: map[string]func(){"D": cancel},
	}

	store, err := OpenStore(storePath, cpPath, zap.NewNop())
	require.NoError(t, err)

	h := New(fiveItems(), fetcher, store, Config{SaveInterval: 10}, zap.NewNop())
	summary, err := h.Run(ctx)
	require.NoError(t, err, "interruption is a supported outcome, not an error")

	require.Equal(t, StateInterrupted, summary.State)
	require.Equal(t, 5, summary.Total)
	require.Equal(t, 2, summary.Succeeded)
	require.Equal(t, 1, summary.NotFound)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, 1, summary.Remaining)
	require.Equal(t, []string{"A", "B", "C", "D"}, fetcher.fetchedKeys())

	// The interrupted run persisted everything it processed and left the
	// checkpoint side-file behind.
	persisted, err := OpenStore(storePath, "", zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 4, persisted.Len())
	rec, ok := persisted.Get("D")
	require.True(t, ok)
	require.Equal(t, OutcomeTransient, rec.Status)
	require.Equal(t, "retries exhausted", rec.Error)
	_, err = os.Stat(cpPath)
	require.NoError(t, err)

	// Resume: only E is attempted, A-D stay untouched.
	resumeFetcher := &keyedFetcher{outcomes: map[string]Outcome{
		"E": Success(json.RawMessage(`"e"`)),
	}}
	resumeStore, err := OpenStore(storePath, cpPath, zap.NewNop())
	require.NoError(t, err)

	h = New(fiveItems(), resumeFetcher, resumeStore, Config{SaveInterval: 10}, zap.NewNop())
	summary, err = h.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, StateCompleted, summary.State)
	require.Equal(t, 4, summary.Skipped)
	require.Equal(t, 1, summary.Succeeded)
	require.Equal(t, []string{"E"}, resumeFetcher.fetchedKeys())

	final, err := OpenStore(storePath, "", zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 5, final.Len())
	rec, _ = final.Get("A")
	require.Equal(t, json.RawMessage(`"a"`), rec.Result)

	// Completion removes the advisory checkpoint.
	_, err = os.Stat(cpPath)
	require.True(t, os.IsNotExist(err))
}

func TestHarvesterIdempotentResume(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	storePath := filepath.Join(dir, "progress.json")

	outcomes := map[string]Outcome{
		"A": Success(json.RawMessage(`"a"`)),
		"B": NotFound(),
	}
	source := SliceSource{{Key: "A"}, {Key: "B"}}

	store, err := OpenStore(storePath, "", zap.NewNop())
	require.NoError(t, err)
	_, err = New(source, &keyedFetcher{outcomes: outcomes}, store, Config{}, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	first, err := os.ReadFile(storePath)
	require.NoError(t, err)

	// Second run fetches nothing and leaves the store byte-identical.
	second := &keyedFetcher{outcomes: nil}
	store2, err := OpenStore(storePath, "", zap.NewNop())
	require.NoError(t, err)
	summary, err := New(source, second, store2, Config{}, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateCompleted, summary.State)
	require.Empty(t, second.fetchedKeys())

	after, err := os.ReadFile(storePath)
	require.NoError(t, err)
	require.Equal(t, first, after)
}

func TestHarvesterEmptyInput(t *testing.T) {
	t.Parallel()
	storePath := filepath.Join(t.TempDir(), "progress.json")
	store, err := OpenStore(storePath, "", zap.NewNop())
	require.NoError(t, err)

	fetcher := &keyedFetcher{}
	summary, err := New(SliceSource{}, fetcher, store, Config{}, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateCompleted, summary.State)
	require.Zero(t, summary.Total)
	require.Empty(t, fetcher.fetchedKeys())

	// Nothing to do means no store file is even created.
	_, err = os.Stat(storePath)
	require.True(t, os.IsNotExist(err))
}

func TestHarvesterRetryFailedReattemptsCachedFailures(t *testing.T) {
	t.Parallel()
	storePath := filepath.Join(t.TempDir(), "progress.json")
	store, err := OpenStore(storePath, "", zap.NewNop())
	require.NoError(t, err)
	store.Record("A", ProgressRecord{Status: OutcomeSuccess})
	store.Record("B", ProgressRecord{Status: OutcomeNotFound})
	require.NoError(t, store.Save())

	fetcher := &keyedFetcher{outcomes: map[string]Outcome{
		"B": Success(json.RawMessage(`"found after all"`)),
	}}
	source := SliceSource{{Key: "A"}, {Key: "B"}}

	reopened, err := OpenStore(storePath, "", zap.NewNop())
	require.NoError(t, err)
	summary, err := New(source, fetcher, reopened, Config{RetryFailed: true}, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{"B"}, fetcher.fetchedKeys())
	require.Equal(t, 1, summary.Skipped)
	rec, _ := reopened.Get("B")
	require.Equal(t, OutcomeSuccess, rec.Status)
}

func TestHarvesterFetcherErrorRecordedAsTransient(t *testing.T) {
	t.Parallel()
	storePath := filepath.Join(t.TempDir(), "progress.json")
	store, err := OpenStore(storePath, "", zap.NewNop())
	require.NoError(t, err)

	// No scripted outcome: the fetcher returns an error, which the loop
	// converts into a transient record instead of aborting.
	fetcher := &keyedFetcher{}
	summary, err := New(SliceSource{{Key: "A"}}, fetcher, store, Config{}, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateCompleted, summary.State)
	require.Equal(t, 1, summary.Failed)

	rec, ok := store.Get("A")
	require.True(t, ok)
	require.Equal(t, OutcomeTransient, rec.Status)
}

type failingSource struct{}

func (failingSource) Enumerate() ([]WorkItem, error) {
	return nil, errors.New("input dataset unreadable")
}

func TestHarvesterEnumerateErrorAborts(t *testing.T) {
	t.Parallel()
	store, err := OpenStore(filepath.Join(t.TempDir(), "progress.json"), "", zap.NewNop())
	require.NoError(t, err)

	summary, err := New(failingSource{}, &keyedFetcher{}, store, Config{}, zap.NewNop()).Run(context.Background())
	require.Error(t, err)
	require.Equal(t, StateAborted, summary.State)
}
