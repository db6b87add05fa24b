// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package distribution credits stakers with their share of collected fees.
//
// Each staker remembers the global fees-collected counter at its last
// distribution. Distributing credits the staker with its stake-weighted share
// of everything collected since, then moves the snapshot to the current
// counter, so repeated calls between spends credit nothing.
package distribution

import (
	"github.com/shadefi/shade/amount"
	"github.com/shadefi/shade/asset"
	"github.com/shadefi/shade/builtin/reverts"
	"github.com/shadefi/shade/builtin/shade/config"
	"github.com/shadefi/shade/builtin/shade/staking"
	"github.com/shadefi/shade/events"
	"github.com/shadefi/shade/ledger"
	"github.com/shadefi/shade/shade"
)

type Service struct {
	tx      *ledger.Tx
	config  *config.Service
	stakers *staking.Service
	bank    asset.Transferrer
}

func New(tx *ledger.Tx, cfg *config.Service, stakers *staking.Service, bank asset.Transferrer) *Service {
	return &Service{
		tx:      tx,
		config:  cfg,
		stakers: stakers,
		bank:    bank,
	}
}

// Share returns floor(undistributed * staked / totalStaked), zero when nothing is staked.
func Share(undistributed, staked, totalStaked uint64) (uint64, error) {
	if totalStaked == 0 {
		return 0, nil
	}
	return amount.MulDiv(undistributed, staked, totalStaked)
}

// Distribute credits owner with its share of fees collected since its snapshot.
// Anyone may distribute on behalf of any staker.
func (s *Service) Distribute(caller, owner shade.Address) (uint64, error) {
	cfg, err := s.config.GetInitialized()
	if err != nil {
		return 0, err
	}
	st, err := s.stakers.GetExisting(owner)
	if err != nil {
		return 0, err
	}
	if cfg.TotalStaked == 0 {
		return 0, nil
	}

	undistributed, err := amount.Sub(cfg.TotalFeesCollected, st.LastFeesSnapshot)
	if err != nil {
		return 0, err
	}
	share, err := Share(undistributed, st.StakedAmount, cfg.TotalStaked)
	if err != nil {
		return 0, err
	}
	pending, err := amount.Add(st.PendingRewards, share)
	if err != nil {
		return 0, err
	}

	s.tx.Emit(events.New(events.KindFeesDistributed, staking.Key(owner), caller).
		With("pendingRewards", st.PendingRewards, pending).
		With("lastFeesSnapshot", st.LastFeesSnapshot, cfg.TotalFeesCollected))

	st.PendingRewards = pending
	st.LastFeesSnapshot = cfg.TotalFeesCollected
	if err := s.stakers.Set(st); err != nil {
		return 0, err
	}
	return share, nil
}

// Claim pays the pending rewards of caller out of the fee vault to recipient.
func (s *Service) Claim(caller, recipient shade.Address) (uint64, error) {
	cfg, err := s.config.GetInitialized()
	if err != nil {
		return 0, err
	}
	st, err := s.stakers.GetExisting(caller)
	if err != nil {
		return 0, err
	}
	pending := st.PendingRewards
	if pending == 0 {
		return 0, reverts.New(reverts.NoRewardsToClaim, "")
	}
	distributed, err := amount.Add(cfg.TotalFeesDistributed, pending)
	if err != nil {
		return 0, err
	}
	if err := s.bank.Transfer(s.tx, cfg.FeeVault, recipient, pending); err != nil {
		return 0, err
	}

	now := uint64(s.tx.Now().Unix())
	s.tx.Emit(events.New(events.KindRewardsClaimed, staking.Key(caller), caller).
		With("pendingRewards", pending, 0).
		With("totalFeesDistributed", cfg.TotalFeesDistributed, distributed).
		With("lastClaimTime", st.LastClaimTime, now))

	st.PendingRewards = 0
	st.LastClaimTime = now
	cfg.TotalFeesDistributed = distributed
	if err := s.stakers.Set(st); err != nil {
		return 0, err
	}
	if err := s.config.Set(cfg); err != nil {
		return 0, err
	}
	return pending, nil
}
