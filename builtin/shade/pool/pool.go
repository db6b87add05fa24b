// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/shadefi/shade/asset"
	"github.com/shadefi/shade/shade"
)

// Pool is a shared reservoir that authorizations draw from.
type Pool struct {
	Seed                 shade.Bytes32 `json:"seed"`
	Controller           shade.Address `json:"controller"`
	Vault                shade.Address `json:"vault"`
	TotalDeposited       uint64        `json:"totalDeposited"`
	TotalSpent           uint64        `json:"totalSpent"`
	TotalFeesGenerated   uint64        `json:"totalFeesGenerated"`
	ActiveAuthorizations uint64        `json:"activeAuthorizations"`
}

// Key returns the record key of the pool created from seed.
func Key(seed shade.Bytes32) shade.Bytes32 {
	return shade.Blake2b([]byte("fog-pool"), seed.Bytes())
}

// VaultOf returns the asset account holding the pool's liquidity.
func VaultOf(seed shade.Bytes32) shade.Address {
	k := Key(seed)
	return asset.Derive([]byte("pool-vault"), k.Bytes())
}
