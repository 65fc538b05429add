// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cache holds the read-through cache sitting between the state and its committed store.
package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
)

// LRU is a typed, read-through view of a golang-lru cache.
type LRU[K comparable, V any] struct {
	c         *lru.Cache
	hit, miss atomic.Int64
}

// NewLRU fails unless size is positive.
func NewLRU[K comparable, V any](size int) (*LRU[K, V], error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{c: c}, nil
}

// GetOrLoad returns the cached value of key, calling load on a miss.
// Failed loads are not cached.
func (l *LRU[K, V]) GetOrLoad(key K, load func(K) (V, error)) (V, error) {
	if v, ok := l.c.Get(key); ok {
		l.hit.Add(1)
		return v.(V), nil
	}
	l.miss.Add(1)
	v, err := load(key)
	if err != nil {
		return v, err
	}
	l.c.Add(key, v)
	return v, nil
}

func (l *LRU[K, V]) Contains(key K) bool {
	return l.c.Contains(key)
}

func (l *LRU[K, V]) Len() int {
	return l.c.Len()
}

// Purge drops every entry. Stats are kept.
func (l *LRU[K, V]) Purge() {
	l.c.Purge()
}

// Stats returns the hit and miss counts of GetOrLoad.
func (l *LRU[K, V]) Stats() (hit, miss int64) {
	return l.hit.Load(), l.miss.Load()
}
