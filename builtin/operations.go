// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"context"

	"github.com/shadefi/shade/amount"
	"github.com/shadefi/shade/asset"
	"github.com/shadefi/shade/builtin/reverts"
	"github.com/shadefi/shade/builtin/shade/authorization"
	"github.com/shadefi/shade/builtin/shade/config"
	"github.com/shadefi/shade/builtin/shade/pool"
	"github.com/shadefi/shade/builtin/shade/staking"
	"github.com/shadefi/shade/builtin/shade/tier"
	"github.com/shadefi/shade/identity"
	"github.com/shadefi/shade/ledger"
	"github.com/shadefi/shade/shade"
)

// Operation names, as used by metrics and the operations API.
const (
	OpInitialize          = "initialize"
	OpUpdateFee           = "update_fee"
	OpUpdateTiers         = "update_tiers"
	OpUpdateCapLimits     = "update_cap_limits"
	OpStake               = "stake"
	OpUnstake             = "unstake"
	OpCreatePool          = "create_pool"
	OpDeposit             = "deposit"
	OpCreateAuthorization = "create_authorization"
	OpRevokeAuthorization = "revoke_authorization"
	OpSpend               = "spend"
	OpDistributeFees      = "distribute_fees"
	OpClaimRewards        = "claim_rewards"
)

//
// Admin
//

// Initialize creates the protocol config with caller as admin.
func (s *Shade) Initialize(ctx context.Context, caller identity.Verified, feeBP uint64, thresholds tier.Thresholds) (cfg *config.Config, err error) {
	logger.Debug("initializing", "admin", caller, "fee", feeBP, "thresholds", thresholds)

	err = s.execute(ctx, OpInitialize, caller, func(svc *services) error {
		cfg, err = svc.config.Initialize(caller.Address(), feeBP, thresholds)
		return err
	})
	if err != nil {
		logger.Info("initialize failed", "admin", caller, "error", err)
		return nil, err
	}

	logger.Info("initialized", "admin", caller)
	return cfg, nil
}

// UpdateFee sets the spend fee in basis points.
func (s *Shade) UpdateFee(ctx context.Context, caller identity.Verified, bp uint64) (cfg *config.Config, err error) {
	logger.Debug("updating fee", "caller", caller, "fee", bp)

	err = s.execute(ctx, OpUpdateFee, caller, func(svc *services) error {
		cfg, err = svc.config.UpdateFee(caller.Address(), bp)
		return err
	})
	if err != nil {
		logger.Info("update fee failed", "caller", caller, "error", err)
		return nil, err
	}

	logger.Info("updated fee", "fee", bp)
	return cfg, nil
}

// UpdateTiers sets the tier thresholds.
func (s *Shade) UpdateTiers(ctx context.Context, caller identity.Verified, thresholds tier.Thresholds) (cfg *config.Config, err error) {
	logger.Debug("updating tiers", "caller", caller, "thresholds", thresholds)

	err = s.execute(ctx, OpUpdateTiers, caller, func(svc *services) error {
		cfg, err = svc.config.UpdateTiers(caller.Address(), thresholds)
		return err
	})
	if err != nil {
		logger.Info("update tiers failed", "caller", caller, "error", err)
		return nil, err
	}

	logger.Info("updated tiers", "thresholds", thresholds)
	return cfg, nil
}

// UpdateCapLimits sets the tier cap limits.
func (s *Shade) UpdateCapLimits(ctx context.Context, caller identity.Verified, limits tier.CapLimits) (cfg *config.Config, err error) {
	logger.Debug("updating cap limits", "caller", caller, "limits", limits)

	err = s.execute(ctx, OpUpdateCapLimits, caller, func(svc *services) error {
		cfg, err = svc.config.UpdateCapLimits(caller.Address(), limits)
		return err
	})
	if err != nil {
		logger.Info("update cap limits failed", "caller", caller, "error", err)
		return nil, err
	}

	logger.Info("updated cap limits", "limits", limits)
	return cfg, nil
}

//
// Staking
//

// Stake moves value from caller into the staking vault.
func (s *Shade) Stake(ctx context.Context, caller identity.Verified, value uint64) (st *staking.Staker, err error) {
	logger.Debug("staking", "owner", caller, "amount", amount.Format(value))

	err = s.execute(ctx, OpStake, caller, func(svc *services) error {
		st, err = svc.stakers.Stake(caller.Address(), value)
		return err
	})
	if err != nil {
		logger.Info("stake failed", "owner", caller, "error", err)
		return nil, err
	}

	logger.Info("staked", "owner", caller, "staked", amount.Format(st.StakedAmount), "tier", st.Tier)
	return st, nil
}

// Unstake returns value from the staking vault to caller.
func (s *Shade) Unstake(ctx context.Context, caller identity.Verified, value uint64) (st *staking.Staker, err error) {
	logger.Debug("unstaking", "owner", caller, "amount", amount.Format(value))

	err = s.execute(ctx, OpUnstake, caller, func(svc *services) error {
		st, err = svc.stakers.Unstake(caller.Address(), value)
		return err
	})
	if err != nil {
		logger.Info("unstake failed", "owner", caller, "error", err)
		return nil, err
	}

	logger.Info("unstaked", "owner", caller, "staked", amount.Format(st.StakedAmount), "tier", st.Tier)
	return st, nil
}

//
// Pools and authorizations
//

// CreatePool creates the pool of seed controlled by caller.
func (s *Shade) CreatePool(ctx context.Context, caller identity.Verified, seed shade.Bytes32) (p *pool.Pool, err error) {
	logger.Debug("creating pool", "controller", caller, "seed", seed)

	err = s.execute(ctx, OpCreatePool, caller, func(svc *services) error {
		p, err = svc.pools.Create(caller.Address(), seed)
		return err
	})
	if err != nil {
		logger.Info("create pool failed", "seed", seed, "error", err)
		return nil, err
	}

	logger.Info("created pool", "pool", pool.Key(seed), "vault", p.Vault)
	return p, nil
}

// Deposit moves value from caller into the pool of seed.
func (s *Shade) Deposit(ctx context.Context, caller identity.Verified, seed shade.Bytes32, value uint64) (p *pool.Pool, err error) {
	logger.Debug("depositing", "depositor", caller, "seed", seed, "amount", amount.Format(value))

	err = s.execute(ctx, OpDeposit, caller, func(svc *services) error {
		p, err = svc.pools.Deposit(caller.Address(), seed, value)
		return err
	})
	if err != nil {
		logger.Info("deposit failed", "seed", seed, "error", err)
		return nil, err
	}

	logger.Info("deposited", "pool", pool.Key(seed), "total", amount.Format(p.TotalDeposited))
	return p, nil
}

// CreateAuthorization grants a spender a capped, expiring right to draw from a pool of caller.
func (s *Shade) CreateAuthorization(ctx context.Context, caller identity.Verified, g authorization.Grant) (key shade.Bytes32, a *authorization.Authorization, err error) {
	logger.Debug("creating authorization", "issuer", caller, "seed", g.Seed, "spender", g.Spender, "nonce", g.Nonce,
		"cap", amount.Format(g.SpendingCap), "expiresAt", g.ExpiresAt, "boundByTier", g.BoundByTier)

	err = s.execute(ctx, OpCreateAuthorization, caller, func(svc *services) error {
		key, a, err = svc.authorizations.Create(caller.Address(), g)
		return err
	})
	if err != nil {
		logger.Info("create authorization failed", "spender", g.Spender, "error", err)
		return shade.Bytes32{}, nil, err
	}

	logger.Info("created authorization", "authorization", key, "spender", a.Spender)
	return key, a, nil
}

// RevokeAuthorization deactivates an authorization issued by caller.
func (s *Shade) RevokeAuthorization(ctx context.Context, caller identity.Verified, key shade.Bytes32) (a *authorization.Authorization, err error) {
	logger.Debug("revoking authorization", "caller", caller, "authorization", key)

	err = s.execute(ctx, OpRevokeAuthorization, caller, func(svc *services) error {
		a, err = svc.authorizations.Revoke(caller.Address(), key)
		return err
	})
	if err != nil {
		logger.Info("revoke authorization failed", "authorization", key, "error", err)
		return nil, err
	}

	logger.Info("revoked authorization", "authorization", key)
	return a, nil
}

// Spend draws value under an authorization held by caller and pays recipient net of fee.
func (s *Shade) Spend(ctx context.Context, caller identity.Verified, key shade.Bytes32, value uint64, recipient shade.Address) (r *authorization.Receipt, err error) {
	logger.Debug("spending", "spender", caller, "authorization", key, "amount", amount.Format(value), "recipient", recipient)

	err = s.execute(ctx, OpSpend, caller, func(svc *services) error {
		r, err = svc.authorizations.Spend(caller.Address(), key, value, recipient)
		return err
	})
	if err != nil {
		logger.Info("spend failed", "authorization", key, "error", err)
		return nil, err
	}
	metricSpendAmount().Observe(int64(value))

	logger.Info("spent", "authorization", key, "net", amount.Format(r.Net), "fee", amount.Format(r.Fee))
	return r, nil
}

//
// Rewards
//

// DistributeFees credits owner with its share of fees collected since its last distribution.
// Anyone may call it.
func (s *Shade) DistributeFees(ctx context.Context, caller identity.Verified, owner shade.Address) (share uint64, err error) {
	logger.Debug("distributing fees", "caller", caller, "owner", owner)

	err = s.execute(ctx, OpDistributeFees, caller, func(svc *services) error {
		share, err = svc.distribution.Distribute(caller.Address(), owner)
		return err
	})
	if err != nil {
		logger.Info("distribute fees failed", "owner", owner, "error", err)
		return 0, err
	}

	logger.Info("distributed fees", "owner", owner, "share", amount.Format(share))
	return share, nil
}

// ClaimRewards pays the pending rewards of caller to recipient.
func (s *Shade) ClaimRewards(ctx context.Context, caller identity.Verified, recipient shade.Address) (claimed uint64, err error) {
	logger.Debug("claiming rewards", "owner", caller, "recipient", recipient)

	err = s.execute(ctx, OpClaimRewards, caller, func(svc *services) error {
		claimed, err = svc.distribution.Claim(caller.Address(), recipient)
		return err
	})
	if err != nil {
		logger.Info("claim rewards failed", "owner", caller, "error", err)
		return 0, err
	}

	logger.Info("claimed rewards", "owner", caller, "amount", amount.Format(claimed))
	return claimed, nil
}

//
// Genesis
//

// Credit mints value into addr. It is only meant for genesis allocation and
// must not be reachable from external callers.
func (s *Shade) Credit(ctx context.Context, addr shade.Address, value uint64) error {
	if addr.IsZero() {
		return reverts.New(reverts.Unauthorized, "credit to zero address")
	}
	return s.ledger.Execute(ctx, func(tx *ledger.Tx) error {
		return asset.Bank{}.Credit(tx, addr, value)
	})
}
