package harvest

import "context"

// Fetcher performs the remote operation for one WorkItem.
//
// Implementations classify definitive conditions themselves (a 404 becomes
// NotFound, a parsed result becomes Success) and may either return a
// TransientFailure outcome or a non-nil error for conditions worth retrying;
// the wrapping RateLimitedFetcher treats both the same way.
type Fetcher interface {
	Fetch(ctx context.Context, item WorkItem) (Outcome, error)
}

// Source enumerates the work items to attempt, in an order that is stable
// across runs, with duplicate keys already collapsed (first occurrence wins).
type Source interface {
	Enumerate() ([]WorkItem, error)
}

// SliceSource is a Source over a pre-built item slice.
type SliceSource []WorkItem

// Enumerate returns the items de-duplicated by key, preserving first-seen
// order. Repeated keys in the input keep the first occurrence, matching how
// the pipeline collapses bib IDs repeated across search-result files.
func (s SliceSource) Enumerate() ([]WorkItem, error) {
	seen := make(map[string]struct{}, len(s))
	items := make([]WorkItem, 0, len(s))
	for _, item := range s {
		if item.Key == "" {
			continue
		}
		if _, dup := seen[item.Key]; dup {
			continue
		}
		seen[item.Key] = struct{}{}
		items = append(items, item)
	}
	return items, nil
}

// Filter removes items that a previous run already settled. Successful items
// are always skipped. Failed items (cached not-found or an exhausted
// transient failure) are skipped too unless retryFailed is set, in which
// case they are attempted again. Returns the remaining items plus the number
// skipped.
func Filter(items []WorkItem, store *FileStore, retryFailed bool) ([]WorkItem, int) {
	remaining := make([]WorkItem, 0, len(items))
	skipped := 0
	for _, item := range items {
		rec, ok := store.Get(item.Key)
		if !ok {
			remaining = append(remaining, item)
			continue
		}
		if rec.Status != OutcomeSuccess && retryFailed {
			remaining = append(remaining, item)
			continue
		}
		skipped++
	}
	return remaining, skipped
}
