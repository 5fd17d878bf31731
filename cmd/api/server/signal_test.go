package server

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithSignal(t *testing.T) {
	ctx, stop := WithSignal(context.Background())
	defer stop()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context was not canceled by SIGTERM")
	}
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestWithSignal_StopReleases(t *testing.T) {
	ctx, stop := WithSignal(context.Background())
	stop()
	<-ctx.Done()
	assert.Error(t, ctx.Err())
}
