// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/shadefi/shade/builtin/shade/tier"
	"github.com/shadefi/shade/shade"
)

// Staker is the staking position of one owner.
type Staker struct {
	Owner            shade.Address `json:"owner"`
	StakedAmount     uint64        `json:"stakedAmount"`
	PendingRewards   uint64        `json:"pendingRewards"`
	Tier             tier.Tier     `json:"tier"`
	LastFeesSnapshot uint64        `json:"lastFeesSnapshot"` // global fees collected at the last distribution
	LastClaimTime    uint64        `json:"lastClaimTime"`    // unix seconds, zero if never claimed
}

// Key returns the record key of the owner's staker.
func Key(owner shade.Address) shade.Bytes32 {
	return shade.Blake2b([]byte("staker"), owner.Bytes())
}
