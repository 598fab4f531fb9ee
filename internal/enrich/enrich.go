// Package enrich implements the asynchronous enrichment workers that consume
// jobs from the queue and write results back onto posts.
//
// Four kinds exist. Thumbnail and sentiment are fire-and-forget: they take a
// job, compute, and write the result into the posts table via single-row
// conditional updates (a missing post is a silent no-op, concurrent writes
// are last-write-wins). Translation and generation follow request/response:
// they publish a reply onto the kind's response subject, correlated by
// request id.
//
// Error policy per job:
//   - A malformed payload can never succeed on redelivery, so it is dropped.
//   - A failed computation is acked and the job abandoned; the post simply
//     keeps its pre-enrichment state (sentiment instead writes NEUTRAL).
//   - Only infrastructure-level consume errors lead to redelivery.
package enrich

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-social-backend/internal/queue"
)

var (
	// jobsTotal counts processed jobs by kind and handler decision.
	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_jobs_total",
			Help: "Total number of enrichment jobs processed.",
		},
		[]string{"kind", "outcome"},
	)

	// jobDuration records job processing time in seconds by kind.
	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "enrichment_job_duration_seconds",
			Help:    "Duration of enrichment job processing in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(jobsTotal, jobDuration)
}

// Worker couples a job kind with its handler.
type Worker struct {
	Kind   queue.Kind
	Handle queue.Handler
}

// Runner consumes jobs for a set of workers until its context is cancelled.
type Runner struct {
	Consumer queue.Consumer
	Workers  []Worker
	// Durable prefixes the per-kind durable consumer names.
	Durable string
}

// NewRunner constructs a Runner with the default durable name prefix.
func NewRunner(c queue.Consumer, workers ...Worker) *Runner {
	return &Runner{Consumer: c, Workers: workers, Durable: "enrich"}
}

// Run starts one consume loop per worker and blocks until ctx is cancelled
// or a loop fails.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range r.Workers {
		g.Go(func() error {
			durable := r.Durable + "-" + string(w.Kind)
			log.Info().Str("kind", string(w.Kind)).Str("durable", durable).Msg("enrichment worker started")
			return r.Consumer.Consume(ctx, w.Kind.Subject(), durable, instrument(w.Kind, w.Handle))
		})
	}
	return g.Wait()
}

// instrument wraps a handler with per-kind metrics.
func instrument(kind queue.Kind, h queue.Handler) queue.Handler {
	return func(ctx context.Context, body []byte) queue.Decision {
		start := time.Now()
		d := h(ctx, body)
		jobDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
		jobsTotal.WithLabelValues(string(kind), d.String()).Inc()
		return d
	}
}
