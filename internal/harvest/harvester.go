package harvest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the lifecycle state of a harvest run.
type State string

// Harvest run states.
const (
	StateIdle        State = "idle"
	StateRunning     State = "running"
	StateCompleted   State = "completed"
	StateInterrupted State = "interrupted"
	StateAborted     State = "aborted"
)

const defaultSaveInterval = 10

// Config controls Harvester behavior.
type Config struct {
	// SaveInterval is how many processed items elapse between store saves.
	SaveInterval int
	// RetryFailed re-attempts items whose cached record is a failure.
	RetryFailed bool
}

// Summary reports the result of a run.
type Summary struct {
	State     State
	Total     int
	Skipped   int
	Succeeded int
	NotFound  int
	Failed    int
	Remaining int
	StorePath string
}

// Harvester drives the enumerate -> filter -> fetch -> record loop with
// periodic checkpointing. Cancellation is cooperative: the context is polled
// between items only, so the in-flight item always finishes its fetch and
// has its outcome recorded before the loop exits.
type Harvester struct {
	source  Source
	fetcher Fetcher
	store   *FileStore
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Harvester.
func New(source Source, fetcher Fetcher, store *FileStore, cfg Config, logger *zap.Logger) *Harvester {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SaveInterval <= 0 {
		cfg.SaveInterval = defaultSaveInterval
	}
	return &Harvester{
		source:  source,
		fetcher: fetcher,
		store:   store,
		cfg:     cfg,
		logger:  logger,
	}
}

// Run executes the harvest until the work list is exhausted or the context
// is canceled. Per-item failures never abort the run; only failing to
// enumerate the input or to write the progress store returns an error.
func (h *Harvester) Run(ctx context.Context) (Summary, error) {
	summary := Summary{State: StateRunning, StorePath: h.store.Path()}

	items, err := h.source.Enumerate()
	if err != nil {
		summary.State = StateAborted
		return summary, fmt.Errorf("enumerate work items: %w", err)
	}
	summary.Total = len(items)

	remaining, skipped := Filter(items, h.store, h.cfg.RetryFailed)
	summary.Skipped = skipped
	skippedTotal.Add(float64(skipped))

	if len(remaining) == 0 {
		h.logger.Info("All items already processed",
			zap.Int("total", len(items)),
			zap.String("store", h.store.Path()),
		)
		summary.State = StateCompleted
		return summary, nil
	}

	h.logger.Info("Starting harvest",
		zap.Int("total", len(items)),
		zap.Int("skipped", skipped),
		zap.Int("remaining", len(remaining)),
	)

	runID := uuid.NewString()
	processed := 0
	lastKey := ""
	interrupted := false

	for i, item := range remaining {
		if ctx.Err() != nil {
			interrupted = true
			break
		}

		// The in-flight item runs to completion even if the run is being
		// canceled; a finished fetch is never left un-persisted. Fetchers
		// carry their own timeouts.
		out, ferr := h.fetcher.Fetch(context.WithoutCancel(ctx), item)
		if ferr != nil {
			out = TransientFailure(ferr.Error())
		}

		h.store.Record(item.Key, ProgressRecord{
			Status:    out.Kind,
			Result:    out.Payload,
			Error:     out.Reason,
			Attempts:  out.Attempts,
			FetchedAt: time.Now().UTC(),
		})
		processed++
		lastKey = item.Key

		switch out.Kind {
		case OutcomeSuccess:
			summary.Succeeded++
		case OutcomeNotFound:
			summary.NotFound++
		default:
			summary.Failed++
		}

		h.logger.Info("Processed item",
			zap.String("key", item.Key),
			zap.String("status", string(out.Kind)),
			zap.Int("done", i+1),
			zap.Int("left", len(remaining)-i-1),
		)

		if processed%h.cfg.SaveInterval == 0 {
			if err := h.persist(runID, lastKey); err != nil {
				summary.State = StateAborted
				return summary, err
			}
		}
	}

	summary.Remaining = len(remaining) - processed

	if err := h.persist(runID, lastKey); err != nil {
		summary.State = StateAborted
		return summary, err
	}

	if interrupted {
		summary.State = StateInterrupted
		h.logger.Info("Harvest interrupted, progress saved",
			zap.Int("processed", processed),
			zap.Int("remaining", summary.Remaining),
		)
		return summary, nil
	}

	// The store now covers the whole work list, so the advisory side-file
	// has nothing left to add.
	h.store.RemoveCheckpoint()
	summary.State = StateCompleted
	h.logger.Info("Harvest complete",
		zap.Int("processed", processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("not_found", summary.NotFound),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (h *Harvester) persist(runID, lastKey string) error {
	if err := h.store.Save(); err != nil {
		return fmt.Errorf("save progress store: %w", err)
	}
	h.store.SaveCheckpoint(Checkpoint{
		RunID:     runID,
		Processed: h.store.Len(),
		LastKey:   lastKey,
		UpdatedAt: time.Now().UTC(),
	})
	return nil
}
