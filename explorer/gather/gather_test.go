package gather_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/gather"
	"github.com/zeebo/assert"
)

func TestSettle_KeepsOrderAndSurvivesFailures(t *testing.T) {
	boom := errors.New("boom")

	results := gather.Settle[int](context.Background(),
		func(ctx context.Context) (int, error) {
			time.Sleep(20 * time.Millisecond)
			return 1, nil
		},
		func(ctx context.Context) (int, error) { return 0, boom },
		func(ctx context.Context) (int, error) { return 3, nil },
		func(ctx context.Context) (int, error) { panic("bad task") },
	)

	assert.Equal(t, len(results), 4)
	assert.Equal(t, results[0].Value, 1)
	assert.True(t, results[0].OK())
	assert.True(t, errors.Is(results[1].Err, boom))
	assert.Equal(t, results[1].Or(-1), -1)
	assert.Equal(t, results[2].Or(-1), 3)
	assert.Error(t, results[3].Err)
}

func TestSettle_RunsConcurrently(t *testing.T) {
	var inFlight, peak int32
	task := func(ctx context.Context) (struct{}, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}, nil
	}

	gather.Settle[struct{}](context.Background(), task, task, task, task)
	assert.True(t, atomic.LoadInt32(&peak) > 1)
}

func TestSettleLimit_BoundsConcurrency(t *testing.T) {
	var inFlight, peak int32
	task := func(ctx context.Context) (int, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return 0, nil
	}

	results := gather.SettleLimit[int](context.Background(), 2, task, task, task, task, task)
	assert.Equal(t, len(results), 5)
	assert.True(t, atomic.LoadInt32(&peak) <= 2)
}

func TestSettle_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	results := gather.Settle[int](ctx, func(ctx context.Context) (int, error) {
		called = true
		return 1, nil
	})
	assert.False(t, called)
	assert.True(t, errors.Is(results[0].Err, context.Canceled))
}
