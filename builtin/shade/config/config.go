// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package config

import (
	"github.com/shadefi/shade/builtin/shade/tier"
	"github.com/shadefi/shade/shade"
)

// Config is the protocol wide configuration and running totals.
type Config struct {
	Admin          shade.Address   `json:"admin"`
	FeeBasisPoints uint64          `json:"feeBasisPoints"`
	Thresholds     tier.Thresholds `json:"thresholds"`
	CapLimits      tier.CapLimits  `json:"capLimits"`
	FeeVault       shade.Address   `json:"feeVault"`
	StakingVault   shade.Address   `json:"stakingVault"`

	TotalStaked          uint64 `json:"totalStaked"`
	TotalFeesCollected   uint64 `json:"totalFeesCollected"`
	TotalFeesDistributed uint64 `json:"totalFeesDistributed"`
}

// ValidateFee rejects fees above the protocol maximum.
func ValidateFee(bp uint64) error {
	if bp > shade.MaxFeeBasisPoints {
		return feeTooHigh(bp)
	}
	return nil
}
