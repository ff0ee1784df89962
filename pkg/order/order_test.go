// SPDX-License-Identifier: MPL-2.0

package order

import (
	"slices"
	"sync"
	"sync/atomic"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	s := New(nil, 2, nil)
	if s.GlobalOrder != UnspecifiedGlobalOrder {
		t.Errorf("GlobalOrder = %d, want %d", s.GlobalOrder, UnspecifiedGlobalOrder)
	}
	if s.OrderInModule != UnspecifiedOrder {
		t.Errorf("OrderInModule = %d, want %d", s.OrderInModule, UnspecifiedOrder)
	}
	if s.ModuleIndex != 2 {
		t.Errorf("ModuleIndex = %d, want 2", s.ModuleIndex)
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Specifier
		want int
	}{
		{"explicit global before unspecified", New(intPtr(LowestPrecedence), 9, nil), New(nil, 0, nil), -1},
		{"global order dominates module index", New(intPtr(1), 5, nil), New(intPtr(2), 0, nil), -1},
		{"module index breaks global ties", New(nil, 0, nil), New(nil, 1, nil), -1},
		{"order in module breaks remaining ties", New(nil, 1, intPtr(5)), New(nil, 1, intPtr(-5)), 1},
		{"highest precedence first", New(intPtr(HighestPrecedence), 3, nil), New(intPtr(0), 0, nil), -1},
		{"equal", New(nil, 1, nil), New(nil, 1, nil), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSort_StableForTies(t *testing.T) {
	t.Parallel()

	type item struct {
		name string
		spec Specifier
	}
	items := []item{
		{"late", New(nil, 2, nil)},
		{"tie-1", New(nil, 1, nil)},
		{"first", New(intPtr(-10), 3, nil)},
		{"tie-2", New(nil, 1, nil)},
	}

	Sort(items, func(i item) Specifier { return i.spec })

	var got []string
	for _, i := range items {
		got = append(got, i.name)
	}
	want := []string{"first", "tie-1", "tie-2", "late"}
	if !slices.Equal(got, want) {
		t.Errorf("sorted = %v, want %v", got, want)
	}
}

func TestCache_ComputesOnceAndInvalidates(t *testing.T) {
	t.Parallel()

	var c Cache
	var calls atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Get("core@db", func() Specifier {
				calls.Add(1)
				return New(nil, 0, nil)
			})
		}()
	}
	wg.Wait()
	if calls.Load() != 1 {
		t.Errorf("compute called %d times, want 1", calls.Load())
	}

	c.Get("web@handler", func() Specifier { return New(nil, 1, nil) })
	c.InvalidateModule("core")
	if c.Len() != 1 {
		t.Errorf("Len() = %d after invalidating core, want 1", c.Len())
	}
}

func TestCache_InvalidateModuleKeepsPrefixNeighbours(t *testing.T) {
	t.Parallel()

	var c Cache
	for _, key := range []string{"core@db", "core@cache", "corex@db", "score@db"} {
		c.Get(key, func() Specifier { return New(nil, 0, nil) })
	}
	c.InvalidateModule("core")
	if c.Len() != 2 {
		t.Errorf("Len() = %d after invalidating core, want 2", c.Len())
	}
}
