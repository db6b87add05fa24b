// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tier classifies stakers by staked balance.
package tier

import (
	"github.com/shadefi/shade/amount"
	"github.com/shadefi/shade/builtin/reverts"
	"github.com/shadefi/shade/shade"
)

type Tier uint8

const (
	None Tier = iota
	Bronze
	Silver
	Gold
)

func (t Tier) String() string {
	switch t {
	case None:
		return "None"
	case Bronze:
		return "Bronze"
	case Silver:
		return "Silver"
	case Gold:
		return "Gold"
	default:
		return "Unknown"
	}
}

// Thresholds are the minimum staked balances of each tier.
type Thresholds struct {
	Bronze uint64 `json:"bronze" yaml:"bronze"`
	Silver uint64 `json:"silver" yaml:"silver"`
	Gold   uint64 `json:"gold" yaml:"gold"`
}

// DefaultThresholds are 100, 1000 and 10000 tokens.
var DefaultThresholds = Thresholds{
	Bronze: 100 * amount.Unit,
	Silver: 1_000 * amount.Unit,
	Gold:   10_000 * amount.Unit,
}

// Validate requires strictly ascending thresholds.
func (t Thresholds) Validate() error {
	if t.Bronze >= t.Silver || t.Silver >= t.Gold {
		return reverts.Newf(reverts.InvalidThresholds, "bronze %d, silver %d, gold %d", t.Bronze, t.Silver, t.Gold)
	}
	return nil
}

// Of returns the tier of a staked balance. Boundaries are inclusive.
func Of(staked uint64, t Thresholds) Tier {
	switch {
	case staked >= t.Gold:
		return Gold
	case staked >= t.Silver:
		return Silver
	case staked >= t.Bronze:
		return Bronze
	default:
		return None
	}
}

// CapLimits bound the spending cap an authorization may grant to a spender
// of a given tier. Multipliers are percentages of BaseCap.
type CapLimits struct {
	BaseCap uint64 `json:"baseCap" yaml:"base-cap"`
	None    uint64 `json:"none" yaml:"none"`
	Bronze  uint64 `json:"bronze" yaml:"bronze"`
	Silver  uint64 `json:"silver" yaml:"silver"`
	Gold    uint64 `json:"gold" yaml:"gold"`
}

// DefaultCapLimits allow 500, 1000, 5000 and 10000 tokens from None to Gold.
var DefaultCapLimits = CapLimits{
	BaseCap: 1_000 * amount.Unit,
	None:    50,
	Bronze:  100,
	Silver:  500,
	Gold:    1000,
}

// Validate requires a non-zero base cap and non-decreasing multipliers.
func (l CapLimits) Validate() error {
	if l.BaseCap == 0 {
		return reverts.New(reverts.InvalidAmount, "zero base cap")
	}
	if l.None > l.Bronze || l.Bronze > l.Silver || l.Silver > l.Gold {
		return reverts.Newf(reverts.InvalidThresholds,
			"cap multipliers must not decrease: none %d, bronze %d, silver %d, gold %d",
			l.None, l.Bronze, l.Silver, l.Gold)
	}
	return nil
}

// Multiplier returns the multiplier of the tier.
func (l CapLimits) Multiplier(t Tier) uint64 {
	switch t {
	case Bronze:
		return l.Bronze
	case Silver:
		return l.Silver
	case Gold:
		return l.Gold
	default:
		return l.None
	}
}

// MaxCap returns the largest spending cap a spender of the tier may be granted.
func MaxCap(t Tier, l CapLimits) (uint64, error) {
	return amount.MulDiv(l.BaseCap, l.Multiplier(t), shade.CapMultiplierDenominator)
}
