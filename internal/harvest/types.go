// Package harvest implements the resumable batch harvest loop shared by the
// dataset pipeline commands: enumerate work items, call a rate-limited remote
// service once per item, and persist every outcome so an interrupted run can
// pick up where it left off.
package harvest

import (
	"encoding/json"
	"time"
)

// OutcomeKind classifies the result of one fetch attempt.
type OutcomeKind string

// Outcome kinds persisted in the progress store.
const (
	OutcomeSuccess   OutcomeKind = "success"
	OutcomeNotFound  OutcomeKind = "not_found"
	OutcomeTransient OutcomeKind = "transient_error"
)

// WorkItem is one unit of harvesting work: an opaque key (a QID, an HDL URL,
// a bib ID) plus whatever extra inputs the fetcher needs, carried through
// from the source record.
type WorkItem struct {
	Key     string
	Payload json.RawMessage
}

// Outcome is the result of fetching one WorkItem. Exactly one of Payload or
// Reason is meaningful, depending on Kind.
type Outcome struct {
	Kind    OutcomeKind
	Payload json.RawMessage
	Reason  string

	// Attempts is how many fetch attempts were spent, filled in by
	// RateLimitedFetcher.
	Attempts int
}

// Success wraps a fetched result payload.
func Success(payload json.RawMessage) Outcome {
	return Outcome{Kind: OutcomeSuccess, Payload: payload}
}

// NotFound marks the remote resource as definitively absent. It is cached so
// resumed runs do not repeat the call.
func NotFound() Outcome {
	return Outcome{Kind: OutcomeNotFound}
}

// TransientFailure marks a retryable failure after the retry budget is spent.
func TransientFailure(reason string) Outcome {
	return Outcome{Kind: OutcomeTransient, Reason: reason}
}

// ProgressRecord is the persisted outcome of one WorkItem, keyed by the item
// key in the progress store file.
type ProgressRecord struct {
	Status    OutcomeKind     `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	Attempts  int             `json:"attempts,omitempty"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Checkpoint is the advisory side-file written next to the progress store.
// It is never consulted for resume decisions; the store itself is the source
// of truth, and deleting the checkpoint is always safe.
type Checkpoint struct {
	RunID     string    `json:"run_id"`
	Processed int       `json:"processed_count"`
	LastKey   string    `json:"last_processed"`
	UpdatedAt time.Time `json:"updated_at"`
}
