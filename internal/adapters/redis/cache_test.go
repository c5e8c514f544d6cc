package redisad

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	return New(mr.Addr(), "", 0)
}

func TestCacheRoundTrip(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	type page struct {
		Free int `json:"free"`
	}

	var out page
	if ok, err := c.Get(ctx, "avail:1", &out); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, "avail:1", page{Free: 7}, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	ok, err := c.Get(ctx, "avail:1", &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out.Free != 7 {
		t.Fatalf("free = %d", out.Free)
	}

	if err := c.Del(ctx, "avail:1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if ok, _ := c.Get(ctx, "avail:1", &out); ok {
		t.Fatalf("expected miss after del")
	}
}

func TestGenerationCounter(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	if n, err := c.Generation(ctx, "inv:gen:1"); err != nil || n != 0 {
		t.Fatalf("unset generation: n=%d err=%v", n, err)
	}

	n, err := c.Bump(ctx, "inv:gen:1")
	if err != nil || n != 1 {
		t.Fatalf("bump: n=%d err=%v", n, err)
	}
	if n, _ = c.Bump(ctx, "inv:gen:1"); n != 2 {
		t.Fatalf("second bump: n=%d", n)
	}
	if n, _ = c.Generation(ctx, "inv:gen:1"); n != 2 {
		t.Fatalf("generation after bumps: n=%d", n)
	}
}
