package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertoallende/coderipple-sub001/internal/dispatch"
	"github.com/robertoallende/coderipple-sub001/internal/docstore"
	"github.com/robertoallende/coderipple-sub001/internal/genai"
	"github.com/robertoallende/coderipple-sub001/pkg/classify"
	"github.com/robertoallende/coderipple-sub001/pkg/routing"
	"github.com/robertoallende/coderipple-sub001/pkg/significance"
)

// fakeGenerator implements genai.Generator with a test function.
type fakeGenerator struct {
	fn func(ctx context.Context, req genai.Request) (string, error)
}

func (f *fakeGenerator) Generate(ctx context.Context, req genai.Request) (string, error) {
	return f.fn(ctx, req)
}

func okGenerator() *fakeGenerator {
	return &fakeGenerator{fn: func(_ context.Context, _ genai.Request) (string, error) {
		return "generated prose", nil
	}}
}

func decisionFor(specs ...routing.Specialist) routing.Decision {
	classification := classify.Classification{
		Confidence: map[classify.Category]float64{classify.CategoryFeature: 1.0},
		Primary:    classify.CategoryFeature,
	}

	payloads := make([]routing.ContextPayload, len(specs))
	for i, spec := range specs {
		payloads[i] = routing.ContextPayload{
			Specialist:     spec,
			Classification: classification,
			Score:          significance.Score{Value: 40, Bucket: significance.BucketModerate},
		}
	}

	return routing.Decision{Payloads: payloads}
}

func fastConfig() dispatch.Config {
	return dispatch.Config{
		Workers:           3,
		InvocationTimeout: time.Second,
		MaxAttempts:       3,
		RetryBackoff:      time.Millisecond,
	}
}

func TestDispatchAllSucceed(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	d := dispatch.New(fastConfig(), okGenerator(), store, nil, nil)

	report, err := d.Dispatch(context.Background(),
		decisionFor(routing.SpecialistUserGuide, routing.SpecialistArchitectureState))
	require.NoError(t, err)

	assert.Equal(t, dispatch.EventSucceeded, report.Status)
	require.Len(t, report.Outcomes, 2)

	for _, outcome := range report.Outcomes {
		assert.Equal(t, dispatch.StatusSucceeded, outcome.Status)
		assert.Equal(t, 1, outcome.Attempts)
	}

	assert.Len(t, store.Documents("user-guide"), 1)
	assert.Len(t, store.Documents("architecture"), 1)
	assert.Len(t, store.Index(), 2, "both specialists contribute to the shared index")
}

func TestDispatchOneFailureDoesNotBlockSiblings(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{fn: func(_ context.Context, req genai.Request) (string, error) {
		if req.MaxTokens == 2000 { // The decision-record writer.
			return "", errors.New("provider exploded")
		}

		return "prose", nil
	}}

	store := docstore.NewMemoryStore()
	d := dispatch.New(fastConfig(), gen, store, nil, nil)

	report, err := d.Dispatch(context.Background(),
		decisionFor(routing.SpecialistUserGuide, routing.SpecialistDecisionRecord))
	require.NoError(t, err)

	assert.Equal(t, dispatch.EventPartialFailure, report.Status)

	byStatus := map[dispatch.Status]int{}
	for _, outcome := range report.Outcomes {
		byStatus[outcome.Status]++
	}

	assert.Equal(t, 1, byStatus[dispatch.StatusSucceeded])
	assert.Equal(t, 1, byStatus[dispatch.StatusFailed])

	assert.Len(t, store.Documents("user-guide"), 1)
	assert.Empty(t, store.Documents("decisions"))
	assert.Len(t, store.Index(), 1, "failed specialists contribute nothing to the index")
}

func TestDispatchRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	gen := &fakeGenerator{fn: func(_ context.Context, _ genai.Request) (string, error) {
		if calls.Add(1) < 3 {
			return "", errors.New("transient")
		}

		return "third time lucky", nil
	}}

	store := docstore.NewMemoryStore()
	d := dispatch.New(fastConfig(), gen, store, nil, nil)

	report, err := d.Dispatch(context.Background(), decisionFor(routing.SpecialistUserGuide))
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, dispatch.StatusSucceeded, report.Outcomes[0].Status)
	assert.Equal(t, 3, report.Outcomes[0].Attempts)
}

func TestDispatchTimeoutMarksTimedOut(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{fn: func(ctx context.Context, _ genai.Request) (string, error) {
		<-ctx.Done()

		return "", ctx.Err()
	}}

	cfg := fastConfig()
	cfg.InvocationTimeout = 10 * time.Millisecond
	cfg.MaxAttempts = 2

	store := docstore.NewMemoryStore()
	d := dispatch.New(cfg, gen, store, nil, nil)

	report, err := d.Dispatch(context.Background(), decisionFor(routing.SpecialistUserGuide))
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, dispatch.StatusTimedOut, report.Outcomes[0].Status)
	assert.Equal(t, dispatch.EventPartialFailure, report.Status)
}

func TestDispatchCancelledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := docstore.NewMemoryStore()
	d := dispatch.New(fastConfig(), okGenerator(), store, nil, nil)

	report, err := d.Dispatch(ctx, decisionFor(routing.SpecialistUserGuide, routing.SpecialistArchitectureState))
	require.NoError(t, err)

	for _, outcome := range report.Outcomes {
		assert.Equal(t, dispatch.StatusCancelled, outcome.Status)
	}

	assert.Empty(t, store.Index())
}

func TestDispatchUnknownSpecialistIsHardError(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	d := dispatch.New(fastConfig(), okGenerator(), store, nil, nil)

	decision := routing.Decision{Payloads: []routing.ContextPayload{{Specialist: "mystery"}}}

	_, err := d.Dispatch(context.Background(), decision)
	require.ErrorIs(t, err, dispatch.ErrUnknownSpecialist)
}

func TestDispatchRespectsWorkerBound(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		current int
		peak    int
	)

	gen := &fakeGenerator{fn: func(_ context.Context, _ genai.Request) (string, error) {
		mu.Lock()
		current++
		if current > peak {
			peak = current
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		current--
		mu.Unlock()

		return "prose", nil
	}}

	cfg := fastConfig()
	cfg.Workers = 1

	store := docstore.NewMemoryStore()
	d := dispatch.New(cfg, gen, store, nil, nil)

	_, err := d.Dispatch(context.Background(), decisionFor(
		routing.SpecialistUserGuide,
		routing.SpecialistArchitectureState,
		routing.SpecialistDecisionRecord,
	))
	require.NoError(t, err)

	assert.Equal(t, 1, peak, "excess invocations must queue, not run")
}
