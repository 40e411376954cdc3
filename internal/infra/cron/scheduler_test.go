package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryRunsJob(t *testing.T) {
	s := New(context.Background(), time.Second, nil)
	var runs atomic.Int32
	require.NoError(t, s.Every("@every 1s", "tick", func(context.Context) error {
		runs.Add(1)
		return errors.New("ignored")
	}))
	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	<-s.Stop().Done()
}

func TestEveryRejectsBadSpec(t *testing.T) {
	s := New(context.Background(), 0, nil)
	assert.Error(t, s.Every("every five minutes", "bad", func(context.Context) error { return nil }))
}

func TestJobSeesTimeout(t *testing.T) {
	s := New(context.Background(), 10*time.Millisecond, nil)
	done := make(chan error, 1)
	s.run("slow", func(ctx context.Context) error {
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	})
	assert.ErrorIs(t, <-done, context.DeadlineExceeded)
}
