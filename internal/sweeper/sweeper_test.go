package sweeper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	calls atomic.Int32
	idle  atomic.Int64
	err   error
}

func (f *fakeSweeper) SweepAbandoned(_ context.Context, idle time.Duration) (int, error) {
	f.calls.Add(1)
	f.idle.Store(int64(idle))
	return 2, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweepOnce(t *testing.T) {
	f := &fakeSweeper{}
	s := New(f, nil, Config{AbandonAfter: 30 * time.Minute, SweepEvery: time.Minute}, discardLogger())
	defer s.Stop()

	s.SweepOnce()
	assert.EqualValues(t, 1, f.calls.Load())
	assert.Equal(t, int64(30*time.Minute), f.idle.Load())

	f.err = errors.New("store down")
	s.SweepOnce()
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestStartRunsJobs(t *testing.T) {
	f := &fakeSweeper{}
	var syncs atomic.Int32
	sync := SyncFunc(func(ctx context.Context) error {
		syncs.Add(1)
		return nil
	})

	s := New(f, sync, Config{
		AbandonAfter: time.Hour,
		SweepEvery:   50 * time.Millisecond,
		SyncEvery:    50 * time.Millisecond,
	}, discardLogger())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return f.calls.Load() > 0 && syncs.Load() > 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := New(&fakeSweeper{}, nil, Config{}, discardLogger())
	defer s.Stop()
	assert.Error(t, s.Start())
}
