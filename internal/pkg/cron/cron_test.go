package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRun(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	var calls atomic.Int32
	s.Register(Job{Name: "ok", Interval: time.Hour, Fn: func(context.Context) error { calls.Add(1); return nil }})
	s.Register(Job{Name: "bad", Interval: time.Hour, Fn: func(context.Context) error { return errors.New("nope") }})

	require.NoError(t, s.Run(context.Background(), "ok"))
	assert.EqualError(t, s.Run(context.Background(), "bad"), "nope")
	assert.Error(t, s.Run(context.Background(), "missing"))
	assert.Equal(t, int32(1), calls.Load())

	states := s.States()
	require.Len(t, states, 2)
	assert.Equal(t, "bad", states[0].Name)
	assert.Equal(t, StatusFailed, states[0].Status)
	assert.Equal(t, "nope", states[0].Message)
	assert.Equal(t, StatusOK, states[1].Status)
	assert.NotNil(t, states[1].LastRunAt)
}

func TestStart_Ticks(t *testing.T) {
	s := New(nil)
	var calls atomic.Int32
	s.Register(Job{Name: "tick", Interval: 10 * time.Millisecond, Fn: func(context.Context) error { calls.Add(1); return nil }})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}
