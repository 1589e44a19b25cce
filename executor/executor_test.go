package executor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallReturnsValue(t *testing.T) {
	p := New(2)
	defer p.Close()

	v, err := Call(context.Background(), p, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestRunPropagatesError(t *testing.T) {
	p := New(1)
	defer p.Close()

	boom := errors.New("boom")
	err := p.Run(context.Background(), func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestRunRecoversPanic(t *testing.T) {
	p := New(1)
	defer p.Close()

	err := p.Run(context.Background(), func() error { panic("kaboom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestPoolBoundsConcurrency(t *testing.T) {
	p := New(2)
	defer p.Close()

	var running, peak int32
	errs := make(chan error, 6)
	for i := 0; i < 6; i++ {
		go func() {
			errs <- p.Run(context.Background(), func() error {
				n := atomic.AddInt32(&running, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			})
		}()
	}
	for i := 0; i < 6; i++ {
		require.NoError(t, <-errs)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRunHonorsContext(t *testing.T) {
	p := New(1)
	defer p.Close()

	release := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Run(ctx, func() error {
		<-release
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestClosedPoolRejectsWork(t *testing.T) {
	p := New(1)
	p.Close()

	err := p.Run(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 1, p.Workers())
}
