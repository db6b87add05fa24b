// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package records

import "github.com/shadefi/shade/shade"

// Tier is the tier standing of a staker.
type Tier struct {
	Tier         string `json:"tier"`
	StakedAmount uint64 `json:"stakedAmount"`
	MaxCap       uint64 `json:"maxCap"`
}

type Balance struct {
	Address shade.Address `json:"address"`
	Balance uint64        `json:"balance"`
}
