package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock lets tests move time without sleeping
type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newWithClock[K comparable, V any](ttl time.Duration, max int) (*Cache[K, V], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[K, V](ttl, max)
	c.now = clock.now
	return c, clock
}

func TestCache_SetGet(t *testing.T) {
	c := New[string, int](time.Minute, 0)
	c.Set("a", 3)

	val, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 3, val)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c, clock := newWithClock[string, string](time.Minute, 0)
	c.Set("a", "value")
	clock.advance(2 * time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entries are evicted on read")
}

func TestCache_Touch(t *testing.T) {
	c, clock := newWithClock[string, bool](time.Minute, 0)
	c.Set("s", true)

	clock.advance(50 * time.Second)
	assert.True(t, c.Touch("s"))
	clock.advance(50 * time.Second)
	_, ok := c.Get("s")
	assert.True(t, ok, "touch restarts the TTL")

	clock.advance(2 * time.Minute)
	assert.False(t, c.Touch("s"))
	assert.False(t, c.Touch("never-set"))
}

func TestCache_MaxEntriesEvictsOldest(t *testing.T) {
	c, clock := newWithClock[string, int](time.Hour, 2)
	c.Set("first", 1)
	clock.advance(time.Second)
	c.Set("second", 2)
	clock.advance(time.Second)
	c.Set("third", 3)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("first")
	assert.False(t, ok)
	_, ok = c.Get("third")
	assert.True(t, ok)

	// Overwriting an existing key never evicts
	c.Set("second", 20)
	assert.Equal(t, 2, c.Len())
}

func TestCache_PruneDeleteClear(t *testing.T) {
	c, clock := newWithClock[string, int](time.Minute, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	clock.advance(2 * time.Minute)
	c.Set("c", 3)

	assert.Equal(t, 2, c.Prune())
	assert.Equal(t, 1, c.Len())

	c.Delete("c")
	assert.Equal(t, 0, c.Len())

	c.Set("d", 4)
	c.Clear()
	assert.Equal(t, 0, c.Len())
}
