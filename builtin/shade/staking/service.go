// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/pkg/errors"

	"github.com/shadefi/shade/amount"
	"github.com/shadefi/shade/asset"
	"github.com/shadefi/shade/builtin/reverts"
	"github.com/shadefi/shade/builtin/shade/config"
	"github.com/shadefi/shade/builtin/shade/tier"
	"github.com/shadefi/shade/events"
	"github.com/shadefi/shade/kv"
	"github.com/shadefi/shade/ledger"
	"github.com/shadefi/shade/shade"
)

var bucket = kv.Bucket("s")

type Service struct {
	tx      *ledger.Tx
	config  *config.Service
	bank    asset.Transferrer
	stakers *ledger.Mapping[shade.Bytes32, *Staker]
}

func New(tx *ledger.Tx, cfg *config.Service, bank asset.Transferrer) *Service {
	return &Service{
		tx:      tx,
		config:  cfg,
		bank:    bank,
		stakers: ledger.NewMapping[shade.Bytes32, *Staker](tx, bucket),
	}
}

// Get returns the staker of owner, or nil if owner never staked.
func (s *Service) Get(owner shade.Address) (*Staker, error) {
	st, err := s.stakers.Get(Key(owner))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get staker")
	}
	return st, nil
}

// GetExisting returns the staker of owner, failing with NotFound if absent.
func (s *Service) GetExisting(owner shade.Address) (*Staker, error) {
	st, err := s.Get(owner)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, reverts.Newf(reverts.NotFound, "staker %v", owner)
	}
	return st, nil
}

// Set persists the staker.
func (s *Service) Set(st *Staker) error {
	if err := s.stakers.Upsert(Key(st.Owner), st); err != nil {
		return errors.Wrap(err, "failed to set staker")
	}
	return nil
}

// Stake moves value from owner into the staking vault and raises the owner's position.
func (s *Service) Stake(owner shade.Address, value uint64) (*Staker, error) {
	if value == 0 {
		return nil, reverts.New(reverts.InvalidAmount, "stake of zero")
	}
	cfg, err := s.config.GetInitialized()
	if err != nil {
		return nil, err
	}
	st, err := s.Get(owner)
	if err != nil {
		return nil, err
	}
	if st == nil {
		// a fresh staker has no claim on fees collected before it joined
		st = &Staker{Owner: owner, LastFeesSnapshot: cfg.TotalFeesCollected}
	}

	staked, err := amount.Add(st.StakedAmount, value)
	if err != nil {
		return nil, err
	}
	total, err := amount.Add(cfg.TotalStaked, value)
	if err != nil {
		return nil, err
	}
	if err := s.bank.Transfer(s.tx, owner, cfg.StakingVault, value); err != nil {
		return nil, err
	}

	ev := events.New(events.KindStaked, Key(owner), owner).
		With("stakedAmount", st.StakedAmount, staked).
		With("totalStaked", cfg.TotalStaked, total)
	return s.apply(cfg, st, staked, total, ev)
}

// Unstake returns value from the staking vault to owner and lowers the owner's position.
func (s *Service) Unstake(owner shade.Address, value uint64) (*Staker, error) {
	if value == 0 {
		return nil, reverts.New(reverts.InvalidAmount, "unstake of zero")
	}
	cfg, err := s.config.GetInitialized()
	if err != nil {
		return nil, err
	}
	st, err := s.GetExisting(owner)
	if err != nil {
		return nil, err
	}
	if value > st.StakedAmount {
		return nil, reverts.Newf(reverts.InsufficientStake, "staked %d, requested %d", st.StakedAmount, value)
	}

	staked := st.StakedAmount - value
	total, err := amount.Sub(cfg.TotalStaked, value)
	if err != nil {
		return nil, err
	}
	if err := s.bank.Transfer(s.tx, cfg.StakingVault, owner, value); err != nil {
		return nil, err
	}

	ev := events.New(events.KindUnstaked, Key(owner), owner).
		With("stakedAmount", st.StakedAmount, staked).
		With("totalStaked", cfg.TotalStaked, total)
	return s.apply(cfg, st, staked, total, ev)
}

// apply writes the new balances, recomputes the tier and emits ev.
func (s *Service) apply(cfg *config.Config, st *Staker, staked, total uint64, ev *events.Event) (*Staker, error) {
	newTier := tier.Of(staked, cfg.Thresholds)
	ev.With("tier", st.Tier, newTier)

	st.StakedAmount = staked
	st.Tier = newTier
	cfg.TotalStaked = total

	if err := s.Set(st); err != nil {
		return nil, err
	}
	if err := s.config.Set(cfg); err != nil {
		return nil, err
	}
	s.tx.Emit(ev)
	return st, nil
}
