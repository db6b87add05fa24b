// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsHitRate(t *testing.T) {
	var s Stats
	rate, moved := s.HitRate()
	assert.Equal(t, int32(0), rate)
	assert.False(t, moved)

	s.hit()
	s.miss()
	rate, moved = s.HitRate()
	assert.Equal(t, int32(500), rate)
	assert.True(t, moved)

	_, moved = s.HitRate()
	assert.False(t, moved)

	s.hit()
	s.hit()
	rate, moved = s.HitRate()
	assert.Equal(t, int32(750), rate)
	assert.True(t, moved)
	assert.Equal(t, int64(3), s.Hits())
	assert.Equal(t, int64(1), s.Misses())
}
