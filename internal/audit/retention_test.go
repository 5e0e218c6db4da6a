package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSweeper_SweepDeletesInBatches(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	var cutoffs []time.Time
	batches := []int64{500, 500, 137}
	store := &memoryAuditStore{
		pruneFn: func(before time.Time, limit int) (int64, error) {
			cutoffs = append(cutoffs, before)
			if len(cutoffs) > len(batches) {
				t.Fatalf("unexpected extra prune call %d", len(cutoffs))
			}
			require.Equal(t, 500, limit)
			return batches[len(cutoffs)-1], nil
		},
	}

	s := NewSweeper(store, time.Minute, 90*24*time.Hour, 500)
	s.nowFn = func() time.Time { return now }

	s.sweep(context.Background())

	// Three batches: two full ones, then a short batch that stops the loop.
	require.Len(t, cutoffs, 3)
	for _, cutoff := range cutoffs {
		require.Equal(t, now.Add(-90*24*time.Hour), cutoff)
	}
}

func TestSweeper_SweepStopsOnError(t *testing.T) {
	calls := 0
	store := &memoryAuditStore{
		pruneFn: func(time.Time, int) (int64, error) {
			calls++
			return 0, errors.New("deadlock detected")
		},
	}

	s := NewSweeper(store, time.Minute, time.Hour, 500)
	s.sweep(context.Background())

	require.Equal(t, 1, calls)
}

func TestSweeper_SweepHonorsBatchSafetyLimit(t *testing.T) {
	calls := 0
	store := &memoryAuditStore{
		pruneFn: func(_ time.Time, limit int) (int64, error) {
			calls++
			// Always a full batch: only the safety limit stops the loop.
			return int64(limit), nil
		},
	}

	s := NewSweeper(store, time.Minute, time.Hour, 500)
	s.sweep(context.Background())

	require.Equal(t, 100, calls)
}

func TestSweeper_SweepRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	store := &memoryAuditStore{
		pruneFn: func(_ time.Time, limit int) (int64, error) {
			calls++
			cancel()
			return int64(limit), nil
		},
	}

	s := NewSweeper(store, time.Minute, time.Hour, 500)
	s.sweep(ctx)

	// The cancellation check runs before the second prune.
	require.Equal(t, 1, calls)
}

func TestSweeper_StartIdlesWithoutStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- NewSweeper(nil, time.Minute, time.Hour, 500).Start(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}

func TestSweeper_StartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	store := &memoryAuditStore{
		pruneFn: func(time.Time, int) (int64, error) { return 0, nil },
	}

	done := make(chan error, 1)
	go func() {
		done <- NewSweeper(store, time.Hour, time.Hour, 500).Start(ctx)
	}()

	// Give the initial sweep a moment, then cancel.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}
