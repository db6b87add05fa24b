// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import "sync/atomic"

// Stats counts cache lookups.
type Stats struct {
	hits, misses atomic.Int64
	lastRate     atomic.Int32
}

func (s *Stats) hit()  { s.hits.Add(1) }
func (s *Stats) miss() { s.misses.Add(1) }

// Hits returns the number of lookups served from the cache.
func (s *Stats) Hits() int64 { return s.hits.Load() }

// Misses returns the number of lookups that fell through to the store.
func (s *Stats) Misses() int64 { return s.misses.Load() }

// HitRate returns the hit rate in per mille, and whether it moved since the
// previous call.
func (s *Stats) HitRate() (perMille int32, moved bool) {
	hits, misses := s.Hits(), s.Misses()
	if total := hits + misses; total > 0 {
		perMille = int32(hits * 1000 / total)
	}
	return perMille, s.lastRate.Swap(perMille) != perMille
}
