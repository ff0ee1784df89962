// SPDX-License-Identifier: MPL-2.0

// Package order computes the sort key used for ordered component
// collections. A Specifier combines a global order, the owning module's
// bootstrap position and an order within the module; collections are sorted
// stably by that triple so discovery order breaks remaining ties.
package order

import (
	"cmp"
	"math"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/bootkit/bootkit/internal/memo"
)

const (
	// HighestPrecedence sorts before every other explicit order.
	HighestPrecedence = math.MinInt32
	// LowestPrecedence sorts after every other explicit order.
	LowestPrecedence = math.MaxInt32

	// UnspecifiedGlobalOrder is used when a component declares no global
	// order. It sorts after every explicit value, LowestPrecedence included,
	// so that explicitly ordered components always come first.
	UnspecifiedGlobalOrder int64 = LowestPrecedence + 1
	// UnspecifiedOrder is used when a component declares no order within
	// its module.
	UnspecifiedOrder int64 = LowestPrecedence
)

type (
	// Specifier is the sort key of one component.
	Specifier struct {
		GlobalOrder   int64
		ModuleIndex   int
		OrderInModule int64
	}

	// Cache memoizes specifiers per component identity.
	Cache struct {
		entries memo.Cache[string, Specifier]
	}
)

// New builds a Specifier, applying defaults for unspecified orders.
func New(globalOrder *int, moduleIndex int, orderInModule *int) Specifier {
	s := Specifier{
		GlobalOrder:   UnspecifiedGlobalOrder,
		ModuleIndex:   moduleIndex,
		OrderInModule: UnspecifiedOrder,
	}
	if globalOrder != nil {
		s.GlobalOrder = int64(*globalOrder)
	}
	if orderInModule != nil {
		s.OrderInModule = int64(*orderInModule)
	}
	return s
}

// Compare orders a before b by global order, then module index, then order
// within the module.
func Compare(a, b Specifier) int {
	if c := cmp.Compare(a.GlobalOrder, b.GlobalOrder); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ModuleIndex, b.ModuleIndex); c != 0 {
		return c
	}
	return cmp.Compare(a.OrderInModule, b.OrderInModule)
}

// Less reports whether s sorts before o.
func (s Specifier) Less(o Specifier) bool { return Compare(s, o) < 0 }

// Sort sorts items stably by the specifier spec returns for each item.
func Sort[T any](items []T, spec func(T) Specifier) {
	slices.SortStableFunc(items, func(a, b T) int {
		return Compare(spec(a), spec(b))
	})
}

// Get returns the cached specifier for key, computing it on first use.
func (c *Cache) Get(key string, compute func() Specifier) Specifier {
	return c.entries.Get(key, compute)
}

// InvalidateModule forgets every specifier whose key belongs to module.
// Keys are expected in the "module@name" form; module names never
// contain "@", so the prefix cannot match a neighbouring module.
func (c *Cache) InvalidateModule(module string) {
	prefix := module + "@"
	c.entries.DeleteFunc(func(key string, _ Specifier) bool {
		return strings.HasPrefix(key, prefix)
	})
}

// Len returns the number of cached specifiers.
func (c *Cache) Len() int { return c.entries.Len() }
