// SPDX-License-Identifier: MPL-2.0

package memo

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestCache_ComputesOncePerKey(t *testing.T) {
	t.Parallel()

	var c Cache[string, int]
	var calls atomic.Int32
	start := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]int, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = c.Get("k", func() int {
				calls.Add(1)
				return 42
			})
		}(i)
	}
	close(start)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("compute called %d times, want 1", n)
	}
	for i, r := range results {
		if r != 42 {
			t.Fatalf("results[%d] = %d, want 42", i, r)
		}
	}
}

func TestCache_NegativeResultNotRetained(t *testing.T) {
	t.Parallel()

	var c Cache[string, string]
	calls := 0
	miss := func() (string, bool) {
		calls++
		return "", false
	}

	if _, ok := c.Lookup("k", miss); ok {
		t.Fatal("expected miss")
	}
	if _, ok := c.Lookup("k", miss); ok {
		t.Fatal("expected miss")
	}
	if calls != 2 {
		t.Errorf("compute called %d times, want 2", calls)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}

	v, ok := c.Lookup("k", func() (string, bool) { return "hit", true })
	if !ok || v != "hit" {
		t.Fatalf("Lookup() = %q, %v", v, ok)
	}
	if got, ok := c.Peek("k"); !ok || got != "hit" {
		t.Errorf("Peek() = %q, %v", got, ok)
	}
}

func TestCache_DeleteFunc(t *testing.T) {
	t.Parallel()

	var c Cache[string, string]
	c.Get("a", func() string { return "owner-x" })
	c.Get("b", func() string { return "owner-y" })
	c.Get("c", func() string { return "owner-x" })

	c.DeleteFunc(func(_ string, v string) bool { return v == "owner-x" })

	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	if _, ok := c.Peek("b"); !ok {
		t.Error("b should be retained")
	}

	c.Delete("b")
	if _, ok := c.Peek("b"); ok {
		t.Error("b should be gone after Delete")
	}

	c.Get("d", func() string { return "d" })
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}
