// Package dispatch invokes the selected specialists concurrently and merges
// their shared-index contributions in one serialized step. Specialists are
// isolated: each reads its own payload and writes to its own store region,
// and one specialist failing or timing out never blocks or cancels siblings.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/robertoallende/coderipple-sub001/internal/docstore"
	"github.com/robertoallende/coderipple-sub001/internal/genai"
	"github.com/robertoallende/coderipple-sub001/internal/specialist"
	"github.com/robertoallende/coderipple-sub001/pkg/observability"
	"github.com/robertoallende/coderipple-sub001/pkg/routing"
)

// ErrUnknownSpecialist means the routing decision named a specialist with no
// registered writer.
var ErrUnknownSpecialist = errors.New("unknown specialist")

// Status is the terminal state of one specialist invocation.
type Status string

const (
	// StatusSucceeded: prose generated and stored.
	StatusSucceeded Status = "succeeded"
	// StatusFailed: all attempts errored.
	StatusFailed Status = "failed"
	// StatusTimedOut: the final attempt hit the invocation timeout.
	StatusTimedOut Status = "timed_out"
	// StatusCancelled: the event was cancelled before this invocation ran.
	StatusCancelled Status = "cancelled"
)

// EventStatus summarizes the whole dispatch.
type EventStatus string

const (
	// EventSucceeded: every selected specialist succeeded.
	EventSucceeded EventStatus = "succeeded"
	// EventPartialFailure: at least one specialist did not succeed. This is
	// a completed dispatch, not a hard error.
	EventPartialFailure EventStatus = "partial_failure"
)

// Outcome reports one specialist invocation for logging and observability.
type Outcome struct {
	Specialist routing.Specialist
	Status     Status
	Attempts   int
	Duration   time.Duration
	Err        error
}

// Report is the dispatch result handed back to the caller.
type Report struct {
	Status   EventStatus
	Outcomes []Outcome
}

// Config bounds the dispatcher's concurrency and retry behavior.
type Config struct {
	// Workers caps concurrent specialist invocations.
	Workers int
	// InvocationTimeout bounds one attempt, not the whole retry loop.
	InvocationTimeout time.Duration
	// MaxAttempts caps attempts per specialist, including the first.
	MaxAttempts int
	// RetryBackoff is the initial backoff, doubled per attempt.
	RetryBackoff time.Duration
	// RequestsPerSecond throttles collaborator calls across all workers.
	// Zero disables throttling.
	RequestsPerSecond float64
	// Burst is the limiter burst size; defaults to Workers.
	Burst int
}

// DefaultConfig returns dispatch bounds suitable for one event at a time.
func DefaultConfig() Config {
	return Config{
		Workers:           3,
		InvocationTimeout: 90 * time.Second,
		MaxAttempts:       3,
		RetryBackoff:      2 * time.Second,
		RequestsPerSecond: 1,
		Burst:             3,
	}
}

// Dispatcher runs routing decisions against the collaborators.
type Dispatcher struct {
	cfg     Config
	gen     genai.Generator
	store   docstore.Store
	logger  *slog.Logger
	metrics *observability.DispatchMetrics
	limiter *rate.Limiter
}

// New creates a Dispatcher. Metrics may be nil.
func New(cfg Config, gen genai.Generator, store docstore.Store, logger *slog.Logger, metrics *observability.DispatchMetrics) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = cfg.Workers
		}

		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Dispatcher{
		cfg:     cfg,
		gen:     gen,
		store:   store,
		logger:  logger,
		metrics: metrics,
		limiter: limiter,
	}
}

// Dispatch invokes every specialist in the decision through a bounded worker
// pool, then applies all index contributions sequentially. Cancellation is
// cooperative: it is checked before each invocation starts, never mid-call
// beyond the per-attempt timeout context.
func (d *Dispatcher) Dispatch(ctx context.Context, decision routing.Decision) (Report, error) {
	sem := semaphore.NewWeighted(int64(d.cfg.Workers))

	var (
		wg            sync.WaitGroup
		mu            sync.Mutex
		outcomes      []Outcome
		contributions []docstore.IndexContribution
	)

	for _, payload := range decision.Payloads {
		writer, ok := specialist.For(payload.Specialist)
		if !ok {
			return Report{}, fmt.Errorf("%w: %s", ErrUnknownSpecialist, payload.Specialist)
		}

		// Cooperative cancellation: checked between invocations.
		if ctx.Err() != nil {
			mu.Lock()
			outcomes = append(outcomes, Outcome{
				Specialist: payload.Specialist,
				Status:     StatusCancelled,
				Err:        ctx.Err(),
			})
			mu.Unlock()

			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			outcomes = append(outcomes, Outcome{
				Specialist: payload.Specialist,
				Status:     StatusCancelled,
				Err:        err,
			})
			mu.Unlock()

			continue
		}

		wg.Add(1)

		go func(writer specialist.Writer, payload routing.ContextPayload) {
			defer wg.Done()
			defer sem.Release(1)

			outcome, result := d.invoke(ctx, writer, payload)

			mu.Lock()
			defer mu.Unlock()

			outcomes = append(outcomes, outcome)

			if outcome.Status == StatusSucceeded {
				contributions = append(contributions, result.Index)
			}
		}(writer, payload)
	}

	wg.Wait()

	// Single serialized merge of the shared index, after all workers settle.
	if len(contributions) > 0 {
		if err := d.store.MergeIndex(ctx, contributions); err != nil {
			d.logWarn(ctx, "index merge failed", slog.Any("error", err))

			return Report{Status: EventPartialFailure, Outcomes: outcomes}, nil
		}
	}

	return Report{Status: eventStatus(outcomes), Outcomes: outcomes}, nil
}

// invoke runs the retry loop for one specialist. Each attempt gets its own
// timeout context; backoff doubles between attempts and aborts on event
// cancellation.
func (d *Dispatcher) invoke(ctx context.Context, writer specialist.Writer, payload routing.ContextPayload) (Outcome, specialist.Result) {
	started := time.Now()
	release := d.metrics.TrackInflight(ctx, string(writer.ID))
	defer release()

	var lastErr error

	backoff := d.cfg.RetryBackoff

	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if err := d.waitForSlot(ctx); err != nil {
			return d.finish(ctx, writer, started, attempt, StatusCancelled, err), specialist.Result{}
		}

		result, err := d.attempt(ctx, writer, payload)
		if err == nil {
			return d.finish(ctx, writer, started, attempt, StatusSucceeded, nil), result
		}

		lastErr = err

		d.logWarn(ctx, "specialist attempt failed",
			slog.String("specialist", string(writer.ID)),
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)

		if attempt < d.cfg.MaxAttempts && backoff > 0 {
			select {
			case <-ctx.Done():
				return d.finish(ctx, writer, started, attempt, StatusCancelled, ctx.Err()), specialist.Result{}
			case <-time.After(backoff):
			}

			backoff *= 2
		}
	}

	status := StatusFailed
	if errors.Is(lastErr, context.DeadlineExceeded) {
		status = StatusTimedOut
	}

	return d.finish(ctx, writer, started, d.cfg.MaxAttempts, status, lastErr), specialist.Result{}
}

// attempt is one bounded call: generate prose, store the document.
func (d *Dispatcher) attempt(ctx context.Context, writer specialist.Writer, payload routing.ContextPayload) (specialist.Result, error) {
	attemptCtx := ctx

	if d.cfg.InvocationTimeout > 0 {
		var cancel context.CancelFunc

		attemptCtx, cancel = context.WithTimeout(ctx, d.cfg.InvocationTimeout)
		defer cancel()
	}

	result, err := writer.Run(attemptCtx, d.gen, payload)
	if err != nil {
		return specialist.Result{}, err
	}

	if err := d.store.WriteDocument(attemptCtx, writer.Region, result.Document); err != nil {
		return specialist.Result{}, fmt.Errorf("store document: %w", err)
	}

	return result, nil
}

func (d *Dispatcher) waitForSlot(ctx context.Context) error {
	if d.limiter == nil {
		return nil
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	return nil
}

func (d *Dispatcher) finish(ctx context.Context, writer specialist.Writer, started time.Time, attempts int, status Status, err error) Outcome {
	duration := time.Since(started)

	metricStatus := string(status)
	if status != StatusSucceeded {
		metricStatus = "error"
	}

	d.metrics.RecordInvocation(ctx, string(writer.ID), metricStatus, duration)

	if d.logger != nil {
		d.logger.LogAttrs(ctx, slog.LevelInfo, "specialist finished",
			slog.String("specialist", string(writer.ID)),
			slog.String("status", string(status)),
			slog.Int("attempts", attempts),
			slog.Duration("duration", duration),
		)
	}

	return Outcome{
		Specialist: writer.ID,
		Status:     status,
		Attempts:   attempts,
		Duration:   duration,
		Err:        err,
	}
}

func (d *Dispatcher) logWarn(ctx context.Context, msg string, attrs ...slog.Attr) {
	if d.logger != nil {
		d.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
	}
}

func eventStatus(outcomes []Outcome) EventStatus {
	for _, outcome := range outcomes {
		if outcome.Status != StatusSucceeded {
			return EventPartialFailure
		}
	}

	return EventSucceeded
}
