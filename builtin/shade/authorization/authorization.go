// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package authorization

import (
	"encoding/binary"

	"github.com/shadefi/shade/shade"
)

// Authorization lets a spender draw up to SpendingCap from one pool until ExpiresAt.
type Authorization struct {
	Pool        shade.Bytes32 `json:"pool"` // key of the pool
	Spender     shade.Address `json:"spender"`
	Issuer      shade.Address `json:"issuer"`
	Nonce       uint64        `json:"nonce"`
	SpendingCap uint64        `json:"spendingCap"`
	AmountSpent uint64        `json:"amountSpent"`
	CreatedAt   uint64        `json:"createdAt"` // unix seconds
	ExpiresAt   uint64        `json:"expiresAt"` // unix seconds
	Purpose     string        `json:"purpose"`
	Active      bool          `json:"active"`
}

// Remaining returns the amount still spendable under the cap.
func (a *Authorization) Remaining() uint64 {
	if a.AmountSpent >= a.SpendingCap {
		return 0
	}
	return a.SpendingCap - a.AmountSpent
}

// Expired reports whether the authorization is past its expiry at now.
func (a *Authorization) Expired(now uint64) bool {
	return now > a.ExpiresAt
}

// Key returns the record key of the authorization.
func Key(pool shade.Bytes32, spender shade.Address, nonce uint64) shade.Bytes32 {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], nonce)
	return shade.Blake2b([]byte("authorization"), pool.Bytes(), spender.Bytes(), n[:])
}

// Grant describes an authorization to create.
type Grant struct {
	Seed        shade.Bytes32 // seed of the pool
	Spender     shade.Address
	Nonce       uint64
	SpendingCap uint64
	ExpiresAt   uint64
	Purpose     string
	// BoundByTier limits SpendingCap by the tier of the spender.
	BoundByTier bool
}

// Receipt is the outcome of a spend.
type Receipt struct {
	Authorization shade.Bytes32 `json:"authorization"`
	Recipient     shade.Address `json:"recipient"`
	Amount        uint64        `json:"amount"`
	Fee           uint64        `json:"fee"`
	Net           uint64        `json:"net"`
	Remaining     uint64        `json:"remaining"`
}
