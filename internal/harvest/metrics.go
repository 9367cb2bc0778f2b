package harvest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// fetchSuccessTotal tracks items that produced a usable result.
	fetchSuccessTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvest_fetch_success_total",
		Help: "The total number of work items fetched successfully.",
	})
	// fetchNotFoundTotal tracks items the remote service definitively lacks.
	fetchNotFoundTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvest_fetch_not_found_total",
		Help: "The total number of work items reported not found by the remote service.",
	})
	// fetchFailureTotal tracks items that exhausted their retry budget.
	fetchFailureTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvest_fetch_failures_total",
		Help: "The total number of work items that failed after all retries.",
	})
	// retryTotal tracks individual retry attempts across all items.
	retryTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvest_retries_total",
		Help: "The total number of retry attempts.",
	})
	// skippedTotal tracks items skipped because a previous run settled them.
	skippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvest_items_skipped_total",
		Help: "The total number of work items skipped as already processed.",
	})
)
