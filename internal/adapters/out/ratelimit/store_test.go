package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/appupdate/internal/logging"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestStore(t *testing.T, rate float64, burst int) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store, err := NewStore(t.TempDir(), rate, burst, time.Minute, logging.Discard(), WithClock(clock.now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func allow(t *testing.T, s *Store, id string) bool {
	t.Helper()
	ok, err := s.Allow(id)
	require.NoError(t, err)
	return ok
}

func TestStore_BurstThenDeny(t *testing.T) {
	store, _ := newTestStore(t, 1, 3)

	assert.True(t, allow(t, store, "10.0.0.1"))
	assert.True(t, allow(t, store, "10.0.0.1"))
	assert.True(t, allow(t, store, "10.0.0.1"))
	assert.False(t, allow(t, store, "10.0.0.1"))

	assert.True(t, allow(t, store, "10.0.0.2"), "other identifiers have their own bucket")
}

func TestStore_Refill(t *testing.T) {
	store, clock := newTestStore(t, 2, 1)

	assert.True(t, allow(t, store, "client"))
	assert.False(t, allow(t, store, "client"))

	clock.t = clock.t.Add(500 * time.Millisecond)
	assert.True(t, allow(t, store, "client"))
}

func TestStore_ExpiredBucketStartsFull(t *testing.T) {
	store, clock := newTestStore(t, 0, 2)

	assert.True(t, allow(t, store, "client"))
	assert.True(t, allow(t, store, "client"))
	assert.False(t, allow(t, store, "client"))

	clock.t = clock.t.Add(2 * time.Minute)
	assert.True(t, allow(t, store, "client"))
}

func TestStore_Reset(t *testing.T) {
	store, _ := newTestStore(t, 0, 1)

	assert.True(t, allow(t, store, "client"))
	assert.False(t, allow(t, store, "client"))

	require.NoError(t, store.Reset("client"))
	assert.True(t, allow(t, store, "client"))
}

func TestNewStore_InvalidBurst(t *testing.T) {
	_, err := NewStore(t.TempDir(), 1, 0, time.Minute, logging.Discard())
	assert.Error(t, err)
}
