// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import lru "github.com/hashicorp/golang-lru"

// Records caches raw ledger records by key. A nil value caches absence.
type Records struct {
	lru   *lru.Cache
	stats Stats
}

// NewRecords creates a record cache holding at most size entries.
func NewRecords(size int) (*Records, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Records{lru: c}, nil
}

// Load returns the cached record of key, calling fetch on a miss.
// Failed fetches are not cached.
func (r *Records) Load(key string, fetch func(key string) ([]byte, error)) ([]byte, error) {
	if v, ok := r.lru.Get(key); ok {
		r.stats.hit()
		return v.([]byte), nil
	}
	r.stats.miss()
	val, err := fetch(key)
	if err != nil {
		return nil, err
	}
	r.lru.Add(key, val)
	return val, nil
}

// Store replaces the cached record of key.
func (r *Records) Store(key string, val []byte) {
	r.lru.Add(key, val)
}

// Len returns the number of cached records.
func (r *Records) Len() int {
	return r.lru.Len()
}

// Stats returns the lookup stats of Load.
func (r *Records) Stats() *Stats {
	return &r.stats
}
