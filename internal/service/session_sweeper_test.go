package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/courseshop/internal/domain/session"
	"github.com/target/courseshop/internal/mocks/memory"
	"github.com/target/courseshop/internal/observability/metrics"
)

type failingCleaner struct{ err error }

func (f failingCleaner) Cleanup(context.Context) (int64, error) { return 0, f.err }

func TestNewSessionSweeper_Validation(t *testing.T) {
	_, err := NewSessionSweeper(SessionSweeperOptions{Interval: time.Minute})
	require.Error(t, err)
	_, err = NewSessionSweeper(SessionSweeperOptions{Cleaner: memory.NewSessionStore()})
	require.Error(t, err)
}

func TestSessionSweeper_Sweep(t *testing.T) {
	store := memory.NewSessionStore()
	now := time.Now()
	store.Put(session.Record{ID: "live", ExpiresAt: now.Add(time.Hour)})
	store.Put(session.Record{ID: "dead", ExpiresAt: now.Add(-time.Hour)})

	reg := metrics.New()
	sweeper, err := NewSessionSweeper(SessionSweeperOptions{
		Cleaner:  store,
		Interval: time.Minute,
		Observe:  SessionObservability{Metrics: reg},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), sweeper.Sweep(context.Background()))
	assert.Equal(t, 1, store.Len())

	mfs, err := reg.Gatherer().Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range mfs {
		if mf.GetName() == "courseshop_sessions_swept_total" {
			found = true
			assert.InDelta(t, 1, mf.GetMetric()[0].GetCounter().GetValue(), 0)
		}
	}
	assert.True(t, found)
}

func TestSessionSweeper_SweepError(t *testing.T) {
	reg := metrics.New()
	sweeper, err := NewSessionSweeper(SessionSweeperOptions{
		Cleaner:  failingCleaner{err: errors.New("db down")},
		Interval: time.Minute,
		Observe:  SessionObservability{Metrics: reg},
	})
	require.NoError(t, err)

	assert.Zero(t, sweeper.Sweep(context.Background()))
	count, err := testutil.GatherAndCount(reg.Gatherer(), "courseshop_session_store_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSessionSweeper_RunStopsOnCancel(t *testing.T) {
	sweeper, err := NewSessionSweeper(SessionSweeperOptions{
		Cleaner:  memory.NewSessionStore(),
		Interval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
