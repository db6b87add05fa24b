// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadefi/shade/shade"
)

func TestEventWith(t *testing.T) {
	ev := New(KindStaked, shade.Bytes32{1}, shade.Address{2}).
		With("stakedAmount", uint64(0), uint64(100)).
		With("tier", "None", "Bronze")

	assert.Equal(t, []Change{
		{Field: "stakedAmount", Before: "0", After: "100"},
		{Field: "tier", Before: "None", After: "Bronze"},
	}, ev.Changes)
}

func TestFeed(t *testing.T) {
	var feed Feed
	defer feed.Close()

	ch := make(chan *Event, 4)
	sub := feed.Subscribe(ch)
	defer sub.Unsubscribe()

	evs := []*Event{{Seq: 1, Kind: KindStaked}, {Seq: 2, Kind: KindSpent}}
	require.NoError(t, feed.Publish(context.Background(), evs))

	assert.Equal(t, uint64(1), (<-ch).Seq)
	assert.Equal(t, uint64(2), (<-ch).Seq)
}

func TestRecorder(t *testing.T) {
	var rec Recorder
	assert.Nil(t, rec.Last())

	require.NoError(t, rec.Publish(context.Background(), []*Event{{Seq: 1}, {Seq: 2}}))
	assert.Len(t, rec.Events(), 2)
	assert.Equal(t, uint64(2), rec.Last().Seq)
}
