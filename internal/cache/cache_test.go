package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestSetGet_RoundTrip(t *testing.T) {
	clock := newFakeClock()
	c := New(DefaultCapacity, time.Minute, WithClock(clock.Now))

	c.Set("k", "v", 10*time.Second)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestGet_ExpiredEntryIsPurged(t *testing.T) {
	clock := newFakeClock()
	c := New(DefaultCapacity, time.Minute, WithClock(clock.Now))

	c.Set("k", "v", 10*time.Second)

	clock.Advance(10 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok, "entry is visible while now - timestamp <= ttl")

	clock.Advance(time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestSet_DefaultTTL(t *testing.T) {
	clock := newFakeClock()
	c := New(DefaultCapacity, time.Minute, WithClock(clock.Now))

	c.Set("k", 1, 0)
	clock.Advance(59 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestSet_EvictsEarliestInserted(t *testing.T) {
	c := New(100, time.Hour)

	for i := 0; i < 100; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i, 0)
	}
	// reading does not change eviction order
	_, _ = c.Get("key-0")

	c.Set("key-100", 100, 0)

	assert.Equal(t, 100, c.Len())
	_, ok := c.Get("key-0")
	assert.False(t, ok)
	for i := 1; i <= 100; i++ {
		_, ok := c.Get(fmt.Sprintf("key-%d", i))
		assert.True(t, ok, "key-%d should be retained", i)
	}
}

func TestSet_OverwriteKeepsPosition(t *testing.T) {
	c := New(2, time.Hour)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("a", 3, 0)
	c.Set("c", 4, 0)

	_, ok := c.Get("a")
	assert.False(t, ok, "a was inserted first and is evicted even though it was overwritten")
	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestInvalidatePrefixAndContaining(t *testing.T) {
	c := New(DefaultCapacity, time.Hour)
	user := uuid.New()

	c.Set(JobListPrefix+"a", 1, 0)
	c.Set(JobListPrefix+"b", 2, 0)
	c.Set(JobStatsKey(user), 3, 0)
	c.Set(JobDetailKey(uuid.New()), 4, 0)

	assert.Equal(t, 2, c.InvalidatePrefix(JobListPrefix))
	assert.Equal(t, 1, c.InvalidateContaining(user.String()))
	assert.Equal(t, 1, c.Len())
}

func TestInvalidateJobPosting(t *testing.T) {
	c := New(DefaultCapacity, time.Hour)
	job, owner, other := uuid.New(), uuid.New(), uuid.New()

	c.Set(JobListKey(map[string]string{"department": "CS"}), 1, 0)
	c.Set(JobDepartmentsKey, []string{"CS"}, 0)
	c.Set(JobDetailKey(job), 2, 0)
	c.Set(JobStatsKey(owner), 3, 0)
	c.Set(JobDetailKey(other), 4, 0)
	c.Set(ApplicationStatsKey(job), 5, 0)

	c.InvalidateJobPosting(job, owner)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(JobDetailKey(other))
	assert.True(t, ok)

	c.InvalidateApplications(job)
	assert.Equal(t, 1, c.Len())
}

func TestPurgeExpired(t *testing.T) {
	clock := newFakeClock()
	c := New(DefaultCapacity, time.Minute, WithClock(clock.Now))

	c.Set("short", 1, time.Second)
	c.Set("long", 2, time.Hour)
	clock.Advance(2 * time.Second)

	assert.Equal(t, 1, c.PurgeExpired())
	assert.Equal(t, 1, c.Len())
}

func TestStartSweeper_StopsWithContext(t *testing.T) {
	c := New(DefaultCapacity, time.Nanosecond)
	c.Set("k", 1, time.Nanosecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := c.StartSweeper(ctx, time.Millisecond)

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestFetch(t *testing.T) {
	c := New(DefaultCapacity, time.Hour)
	calls := 0
	producer := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := Fetch(c, "answer", 0, producer)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = Fetch(c, "answer", 0, producer)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestFetch_ErrorIsNotCached(t *testing.T) {
	c := New(DefaultCapacity, time.Hour)
	boom := errors.New("boom")

	_, err := Fetch(c, "k", 0, func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestNilCache(t *testing.T) {
	var c *Cache

	c.Set("k", 1, 0)
	_, ok := c.Get("k")
	assert.False(t, ok)
	c.InvalidateJobPosting(uuid.New(), uuid.New())

	v, err := Fetch(c, "k", 0, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
