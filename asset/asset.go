// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package asset keeps balances of the fungible asset pooled and staked by the protocol.
package asset

import (
	"github.com/pkg/errors"

	"github.com/shadefi/shade/amount"
	"github.com/shadefi/shade/builtin/reverts"
	"github.com/shadefi/shade/events"
	"github.com/shadefi/shade/kv"
	"github.com/shadefi/shade/ledger"
	"github.com/shadefi/shade/shade"
)

var balancesBucket = kv.Bucket("b")

// well known accounts
var (
	FeeVault     = Derive(shade.FeeVaultSeed)
	StakingVault = Derive(shade.StakingVaultSeed)
)

// Derive derives an account address that no participant holds a key for.
func Derive(parts ...[]byte) shade.Address {
	h := shade.Blake2b(append([][]byte{[]byte("asset-account")}, parts...)...)
	return shade.BytesToAddress(h[12:])
}

// Transferrer moves assets between accounts within a unit of work.
type Transferrer interface {
	Transfer(tx *ledger.Tx, from, to shade.Address, value uint64) error
}

type balance struct {
	Amount uint64
}

var _ Transferrer = Bank{}

// Bank is the ledger-backed Transferrer.
type Bank struct{}

// BalanceOf returns the balance of the account.
func (Bank) BalanceOf(tx *ledger.Tx, addr shade.Address) (uint64, error) {
	b, err := ledger.NewMapping[shade.Address, *balance](tx, balancesBucket).Get(addr)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get balance")
	}
	if b == nil {
		return 0, nil
	}
	return b.Amount, nil
}

// Transfer moves value from one account to another.
// It fails with InsufficientFunds when the sender balance is too low.
func (bank Bank) Transfer(tx *ledger.Tx, from, to shade.Address, value uint64) error {
	if value == 0 || from == to {
		return nil
	}
	balances := ledger.NewMapping[shade.Address, *balance](tx, balancesBucket)

	src, err := bank.BalanceOf(tx, from)
	if err != nil {
		return err
	}
	if src < value {
		return reverts.Newf(reverts.InsufficientFunds, "account %v holds %v, needs %v", from, src, value)
	}
	dst, err := bank.BalanceOf(tx, to)
	if err != nil {
		return err
	}
	newDst, err := amount.Add(dst, value)
	if err != nil {
		return err
	}

	if err := balances.Upsert(from, &balance{src - value}); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	if err := balances.Upsert(to, &balance{newDst}); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	return nil
}

// Credit mints value into the account. Used by genesis only.
func (bank Bank) Credit(tx *ledger.Tx, to shade.Address, value uint64) error {
	if value == 0 {
		return reverts.New(reverts.InvalidAmount, "credit of zero")
	}
	bal, err := bank.BalanceOf(tx, to)
	if err != nil {
		return err
	}
	newBal, err := amount.Add(bal, value)
	if err != nil {
		return err
	}
	if err := ledger.NewMapping[shade.Address, *balance](tx, balancesBucket).Upsert(to, &balance{newBal}); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}

	var subject shade.Bytes32
	copy(subject[12:], to.Bytes())
	tx.Emit(events.New(events.KindCredited, subject, to).With("balance", bal, newBal))
	return nil
}
