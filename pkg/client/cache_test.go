package client

import (
	"fmt"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func intPtr(v int) *int { return &v }

func page(n int64) *ArticlePage {
	return &ArticlePage{Articles: []Article{}, ArticlesCount: n}
}

func TestKeyIsCanonical(t *testing.T) {
	c := qt.New(t)

	c.Assert(Key(ListParams{}), qt.Equals, `{}`)
	c.Assert(Key(ListParams{Tag: "go", Limit: intPtr(10), Author: "ada"}), qt.Equals,
		`{"author":"ada","limit":10,"tag":"go"}`)
	c.Assert(Key(ListParams{Offset: intPtr(0)}), qt.Equals, `{"offset":0}`)
	c.Assert(Key(ListParams{Tag: "go"}), qt.Not(qt.Equals), Key(ListParams{Search: "go"}))
}

func TestCacheTTL(t *testing.T) {
	c := qt.New(t)
	clock := newFakeClock()
	cache := NewArticleCache(WithClock(clock.Now))

	params := ListParams{Tag: "go"}
	_, ok := cache.Get(params)
	c.Assert(ok, qt.IsFalse)

	stored := page(3)
	cache.Put(params, stored)

	clock.Advance(4 * time.Minute)
	got, ok := cache.Get(params)
	c.Assert(ok, qt.IsTrue)
	c.Assert(got, qt.Equals, stored)

	clock.Advance(time.Minute)
	_, ok = cache.Get(params)
	c.Assert(ok, qt.IsFalse)
	c.Assert(cache.Len(), qt.Equals, 0)
}

func TestCacheBatchEviction(t *testing.T) {
	c := qt.New(t)
	clock := newFakeClock()
	cache := NewArticleCache(WithClock(clock.Now))

	for i := 0; i < 20; i++ {
		cache.Put(ListParams{Offset: intPtr(i)}, page(int64(i)))
		clock.Advance(time.Second)
	}
	c.Assert(cache.Len(), qt.Equals, 20)

	// Overwriting an existing key never evicts.
	cache.Put(ListParams{Offset: intPtr(19)}, page(19))
	c.Assert(cache.Len(), qt.Equals, 20)

	cache.Put(ListParams{Offset: intPtr(20)}, page(20))
	c.Assert(cache.Len(), qt.Equals, 16)

	for i := 0; i < 5; i++ {
		_, ok := cache.Get(ListParams{Offset: intPtr(i)})
		c.Assert(ok, qt.IsFalse, qt.Commentf("offset %d", i))
	}
	for i := 5; i <= 20; i++ {
		_, ok := cache.Get(ListParams{Offset: intPtr(i)})
		c.Assert(ok, qt.IsTrue, qt.Commentf("offset %d", i))
	}
}

func TestCacheInvalidateClearPrune(t *testing.T) {
	c := qt.New(t)
	clock := newFakeClock()
	cache := NewArticleCache(WithClock(clock.Now), WithTTL(time.Minute))

	for i := 0; i < 3; i++ {
		cache.Put(ListParams{Tag: fmt.Sprintf("t%d", i)}, page(int64(i)))
	}
	cache.Invalidate(ListParams{Tag: "t0"})
	_, ok := cache.Get(ListParams{Tag: "t0"})
	c.Assert(ok, qt.IsFalse)
	c.Assert(cache.Len(), qt.Equals, 2)

	clock.Advance(2 * time.Minute)
	cache.Put(ListParams{Tag: "fresh"}, page(9))
	c.Assert(cache.Prune(), qt.Equals, 2)
	c.Assert(cache.Len(), qt.Equals, 1)

	cache.Clear()
	c.Assert(cache.Len(), qt.Equals, 0)
}
