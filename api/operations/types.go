// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package operations

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/shadefi/shade/builtin/shade/authorization"
	"github.com/shadefi/shade/builtin/shade/tier"
	"github.com/shadefi/shade/shade"
)

// Envelope is a signed operation request.
// Each (Caller, Nonce) is admitted once, and only until ExpiresAt (unix seconds).
type Envelope struct {
	Kind      string          `json:"kind"`
	Caller    shade.Address   `json:"caller"`
	Nonce     uint64          `json:"nonce"`
	ExpiresAt uint64          `json:"expiresAt"`
	Args      json.RawMessage `json:"args"`
	Signature hexutil.Bytes   `json:"signature"`
}

// SigningMessage returns the message the caller signs for an operation.
// tag identifies the deployment, so a request signed for one ledger is invalid on another.
func SigningMessage(tag shade.Bytes32, kind string, nonce, expiresAt uint64, args []byte) []byte {
	msg, err := rlp.EncodeToBytes([]any{
		tag,
		kind,
		nonce,
		expiresAt,
		args,
	})
	if err != nil {
		panic(err) // fixed shape, cannot fail
	}
	return msg
}

// SigningMessage returns the message the envelope must be signed over.
func (e *Envelope) SigningMessage(tag shade.Bytes32) []byte {
	return SigningMessage(tag, e.Kind, e.Nonce, e.ExpiresAt, e.Args)
}

// Tag is the deployment tag envelopes are signed for.
type Tag struct {
	Tag shade.Bytes32 `json:"tag"`
}

type InitializeArgs struct {
	FeeBasisPoints uint64          `json:"feeBasisPoints"`
	Thresholds     tier.Thresholds `json:"thresholds"`
}

type UpdateFeeArgs struct {
	FeeBasisPoints uint64 `json:"feeBasisPoints"`
}

type UpdateTiersArgs struct {
	Thresholds tier.Thresholds `json:"thresholds"`
}

type UpdateCapLimitsArgs struct {
	CapLimits tier.CapLimits `json:"capLimits"`
}

type AmountArgs struct {
	Amount uint64 `json:"amount"`
}

type CreatePoolArgs struct {
	Seed shade.Bytes32 `json:"seed"`
}

type DepositArgs struct {
	Seed   shade.Bytes32 `json:"seed"`
	Amount uint64        `json:"amount"`
}

type CreateAuthorizationArgs struct {
	Seed        shade.Bytes32 `json:"seed"`
	Spender     shade.Address `json:"spender"`
	Nonce       uint64        `json:"nonce"`
	SpendingCap uint64        `json:"spendingCap"`
	ExpiresAt   uint64        `json:"expiresAt"`
	Purpose     string        `json:"purpose"`
	BoundByTier bool          `json:"boundByTier"`
}

func (a *CreateAuthorizationArgs) grant() authorization.Grant {
	return authorization.Grant{
		Seed:        a.Seed,
		Spender:     a.Spender,
		Nonce:       a.Nonce,
		SpendingCap: a.SpendingCap,
		ExpiresAt:   a.ExpiresAt,
		Purpose:     a.Purpose,
		BoundByTier: a.BoundByTier,
	}
}

type CreateAuthorizationResult struct {
	Key           shade.Bytes32                `json:"key"`
	Authorization *authorization.Authorization `json:"authorization"`
}

type RevokeAuthorizationArgs struct {
	Authorization shade.Bytes32 `json:"authorization"`
}

type SpendArgs struct {
	Authorization shade.Bytes32 `json:"authorization"`
	Amount        uint64        `json:"amount"`
	Recipient     shade.Address `json:"recipient"`
}

type DistributeFeesArgs struct {
	Owner shade.Address `json:"owner"`
}

type ClaimRewardsArgs struct {
	Recipient shade.Address `json:"recipient"`
}

// AmountResult carries the amount moved by distribute and claim.
type AmountResult struct {
	Amount uint64 `json:"amount"`
}
