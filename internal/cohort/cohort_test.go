package cohort

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biosimlabs/textode/pkg/model"
)

func patients(n int) []Patient {
	out := make([]Patient, n)
	for i := range out {
		out[i] = Patient{
			ID:    fmt.Sprintf("patient_%d", i+1),
			Input: "A binds B --> AB",
		}
	}
	return out
}

func TestPool_ResultsInInputOrder(t *testing.T) {
	runner := RunnerFunc(func(ctx context.Context, id string, m *model.Model) error {
		return nil
	})
	pool := New(runner, WithWorkers(4))

	results, err := pool.Run(context.Background(), patients(10))
	require.NoError(t, err)
	require.Len(t, results, 10)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("patient_%d", i+1), r.Patient)
		assert.NoError(t, r.Err)
	}
}

func TestPool_FailureIsolation(t *testing.T) {
	boom := errors.New("solver diverged")
	runner := RunnerFunc(func(ctx context.Context, id string, m *model.Model) error {
		if id == "patient_2" {
			return boom
		}
		return nil
	})
	pool := New(runner, WithWorkers(2))

	results, err := pool.Run(context.Background(), patients(4))
	require.NoError(t, err, "one patient's failure must not abort the cohort")

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			assert.Equal(t, "patient_2", r.Patient)
			assert.ErrorIs(t, r.Err, boom)
		}
	}
	assert.Equal(t, 1, failed)
}

func TestPool_CompileFailureIsRecorded(t *testing.T) {
	runner := RunnerFunc(func(ctx context.Context, id string, m *model.Model) error {
		return nil
	})
	pool := New(runner, WithWorkers(1))

	pts := []Patient{
		{ID: "ok", Input: "A binds B --> AB"},
		{ID: "bad", Input: "A glows"},
	}
	results, err := pool.Run(context.Background(), pts)
	require.NoError(t, err)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
}

func TestPool_DuplicatePatients(t *testing.T) {
	pool := New(RunnerFunc(func(context.Context, string, *model.Model) error { return nil }))

	pts := []Patient{
		{ID: "patient_1", Input: "A is degraded"},
		{ID: "patient_1", Input: "B is degraded"},
	}
	_, err := pool.Run(context.Background(), pts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate patient identifier")
}

func TestPool_EmptyIdentifier(t *testing.T) {
	pool := New(RunnerFunc(func(context.Context, string, *model.Model) error { return nil }))
	_, err := pool.Run(context.Background(), []Patient{{ID: "", Input: "A is degraded"}})
	require.Error(t, err)
}

func TestPool_RespectsWorkerLimit(t *testing.T) {
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	runner := RunnerFunc(func(ctx context.Context, id string, m *model.Model) error {
		mu.Lock()
		active++
		if active > maxSeen {
			maxSeen = active
		}
		mu.Unlock()
		defer func() {
			mu.Lock()
			active--
			mu.Unlock()
		}()
		return nil
	})
	pool := New(runner, WithWorkers(2))

	_, err := pool.Run(context.Background(), patients(16))
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, maxSeen, 2)
}

func TestPool_ContextCancellation(t *testing.T) {
	var ran atomic.Int32
	runner := RunnerFunc(func(ctx context.Context, id string, m *model.Model) error {
		ran.Add(1)
		return nil
	})
	pool := New(runner, WithWorkers(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pool.Run(ctx, patients(8))
	require.Error(t, err)
}

func TestDefaultWorkers(t *testing.T) {
	assert.GreaterOrEqual(t, DefaultWorkers(), 1)
}
