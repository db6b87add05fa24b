// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package shade

// protocol constants
const (
	BasisPointsDenominator uint64 = 10000 // 100%
	MaxFeeBasisPoints      uint64 = 1000  // 10%

	MaxPurposeLength = 64 // in bytes

	// percentages of the base cap
	CapMultiplierDenominator uint64 = 100
)

// well known seeds for accounts and records that are not keyed by a participant
var (
	ProtocolConfigSeed = []byte("protocol-config")
	FeeVaultSeed       = []byte("fee-vault")
	StakingVaultSeed   = []byte("staking-vault")
)
