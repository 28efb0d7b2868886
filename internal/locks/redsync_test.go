package locks

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usps-gateway/internal/redis"
)

func newTestLocker(t *testing.T) (*RedsyncLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(&redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	locker, err := NewRedsyncLocker(client)
	require.NoError(t, err)
	return locker, mr
}

func TestRedsyncLocker_AcquireRelease(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "token:labels", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("usps:lock:token:labels"))

	release()
	assert.False(t, mr.Exists("usps:lock:token:labels"))
}

func TestRedsyncLocker_MutualExclusion(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	var inside int32
	var maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(ctx, "shared", 5*time.Second)
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInside))
}

func TestRedsyncLocker_ContextCancelled(t *testing.T) {
	locker, _ := newTestLocker(t)

	release, err := locker.Acquire(context.Background(), "busy", 5*time.Second)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, "busy", 5*time.Second)
	assert.Error(t, err)
}

func TestNewRedsyncLocker_NilClient(t *testing.T) {
	_, err := NewRedsyncLocker(nil)
	assert.Error(t, err)
}

func TestNoopLocker(t *testing.T) {
	release, err := NoopLocker{}.Acquire(context.Background(), "x", time.Second)
	require.NoError(t, err)
	release()
}
