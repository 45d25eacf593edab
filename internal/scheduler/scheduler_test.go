package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (s *countingSweeper) Sweep(ctx context.Context) (*services.SweepResult, error) {
	s.calls.Add(1)
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &services.SweepResult{Checked: 1, Credited: 1}, nil
}

func TestScheduler_RunsSweep(t *testing.T) {
	sweeper := &countingSweeper{}
	s := New(sweeper, "@every 1s")
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := New(&countingSweeper{}, "every now and then")
	assert.Error(t, s.Start(context.Background()))
}

func TestScheduler_StopCancelsRunningSweep(t *testing.T) {
	sweeper := &countingSweeper{block: make(chan struct{})}
	s := New(sweeper, "@every 1s")
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	select {
	case <-s.Stop().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("running sweep was not cancelled")
	}
}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	core, logs := observer.New(zap.DebugLevel)
	prev := logger.Log
	logger.Log = zap.New(core).Sugar()
	t.Cleanup(func() { logger.Log = prev })
	return logs
}

func TestScheduler_RunSweepLogging(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected []string
	}{
		{name: "success logs nothing of its own", expected: []string{}},
		{name: "error", err: errors.New("db down"), expected: []string{"reconciliation sweep failed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := observeLogs(t)
			sweeper := &countingSweeper{err: tt.err}
			s := New(sweeper, "@every 1s")
			s.ctx = context.Background()

			assert.NotPanics(t, s.runSweep)
			assert.Equal(t, int32(1), sweeper.calls.Load())

			messages := []string{}
			for _, entry := range logs.All() {
				messages = append(messages, entry.Message)
			}
			assert.Equal(t, tt.expected, messages)
		})
	}
}
