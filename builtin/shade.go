// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin binds the shade protocol services to a ledger.
// Every state changing method runs as one atomic unit of work.
package builtin

import (
	"context"
	"math"

	"github.com/shadefi/shade/asset"
	"github.com/shadefi/shade/builtin/reverts"
	"github.com/shadefi/shade/builtin/shade/authorization"
	"github.com/shadefi/shade/builtin/shade/config"
	"github.com/shadefi/shade/builtin/shade/distribution"
	"github.com/shadefi/shade/builtin/shade/pool"
	"github.com/shadefi/shade/builtin/shade/replay"
	"github.com/shadefi/shade/builtin/shade/staking"
	"github.com/shadefi/shade/builtin/shade/tier"
	"github.com/shadefi/shade/identity"
	"github.com/shadefi/shade/ledger"
	"github.com/shadefi/shade/log"
	"github.com/shadefi/shade/metrics"
	"github.com/shadefi/shade/shade"
)

var (
	logger = log.WithContext("pkg", "shade")

	metricOperations         = metrics.LazyLoadCounterVec("operations_count", []string{"op", "status"})
	metricTotalStaked        = metrics.LazyLoadGauge("total_staked")
	metricTotalFeesCollected = metrics.LazyLoadGauge("total_fees_collected")
	metricSpendAmount        = metrics.LazyLoadHistogram("spend_amount", metrics.BucketAmounts)
)

func SetLogger(l log.Logger) {
	logger = l
}

// Shade is the call surface of the protocol.
type Shade struct {
	ledger *ledger.Ledger
	bank   asset.Transferrer
}

// New creates the protocol on the ledger with ledger-backed balances.
func New(l *ledger.Ledger) *Shade {
	return NewWithTransferrer(l, asset.Bank{})
}

// NewWithTransferrer creates the protocol moving assets through bank.
func NewWithTransferrer(l *ledger.Ledger, bank asset.Transferrer) *Shade {
	return &Shade{ledger: l, bank: bank}
}

// Ledger returns the underlying ledger.
func (s *Shade) Ledger() *ledger.Ledger {
	return s.ledger
}

type services struct {
	tx             *ledger.Tx
	config         *config.Service
	stakers        *staking.Service
	pools          *pool.Service
	authorizations *authorization.Service
	distribution   *distribution.Service
	requests       *replay.Service
}

func (s *Shade) services(tx *ledger.Tx) *services {
	cfg := config.New(tx)
	stakers := staking.New(tx, cfg, s.bank)
	pools := pool.New(tx, s.bank)
	return &services{
		tx:             tx,
		config:         cfg,
		stakers:        stakers,
		pools:          pools,
		authorizations: authorization.New(tx, cfg, pools, stakers, s.bank),
		distribution:   distribution.New(tx, cfg, stakers, s.bank),
		requests:       replay.New(tx),
	}
}

// execute runs fn as one unit of work on behalf of caller.
// Unless op is the initialization, the protocol must be initialized.
// A request stamped on ctx is consumed in the same unit of work.
func (s *Shade) execute(ctx context.Context, op string, caller identity.Verified, fn func(svc *services) error) (err error) {
	defer func() {
		metricOperations().AddWithLabel(1, map[string]string{"op": op, "status": statusOf(err)})
	}()

	if caller.IsZero() {
		return reverts.New(reverts.Unauthorized, "anonymous caller")
	}

	req, signed := requestFrom(ctx)

	var cfg *config.Config
	err = s.ledger.Execute(ctx, func(tx *ledger.Tx) error {
		svc := s.services(tx)
		if signed {
			if err := svc.requests.Consume(caller.Address(), req.Nonce, req.ExpiresAt); err != nil {
				return err
			}
		}
		if op != OpInitialize {
			if _, err := svc.config.GetInitialized(); err != nil {
				return err
			}
		}
		if err := fn(svc); err != nil {
			return err
		}
		var err error
		cfg, err = svc.config.Get()
		return err
	})
	if err == nil && cfg != nil {
		metricTotalStaked().Set(gaugeValue(cfg.TotalStaked))
		metricTotalFeesCollected().Set(gaugeValue(cfg.TotalFeesCollected))
	}
	return err
}

func (s *Shade) view(ctx context.Context, fn func(svc *services) error) error {
	return s.ledger.View(ctx, func(tx *ledger.Tx) error {
		return fn(s.services(tx))
	})
}

// gaugeValue clamps v to the int64 range of the gauges.
func gaugeValue(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

func statusOf(err error) string {
	if err == nil {
		return "success"
	}
	if kind, ok := reverts.KindOf(err); ok {
		return string(kind)
	}
	return "error"
}

//
// Getters - no state change
//

// Config returns the protocol config.
func (s *Shade) Config(ctx context.Context) (cfg *config.Config, err error) {
	err = s.view(ctx, func(svc *services) error {
		cfg, err = svc.config.GetInitialized()
		return err
	})
	return
}

// Pool returns the pool created from seed.
func (s *Shade) Pool(ctx context.Context, seed shade.Bytes32) (p *pool.Pool, err error) {
	err = s.view(ctx, func(svc *services) error {
		p, err = svc.pools.GetExisting(pool.Key(seed))
		return err
	})
	return
}

// Staker returns the staker of owner.
func (s *Shade) Staker(ctx context.Context, owner shade.Address) (st *staking.Staker, err error) {
	err = s.view(ctx, func(svc *services) error {
		st, err = svc.stakers.GetExisting(owner)
		return err
	})
	return
}

// TierInfo is the tier standing of an owner.
type TierInfo struct {
	Tier         tier.Tier `json:"tier"`
	StakedAmount uint64    `json:"stakedAmount"`
	MaxCap       uint64    `json:"maxCap"` // largest tier-bound spending cap
}

// TierOf returns the tier standing of owner. Owners that never staked are None.
func (s *Shade) TierOf(ctx context.Context, owner shade.Address) (info *TierInfo, err error) {
	err = s.view(ctx, func(svc *services) error {
		cfg, err := svc.config.GetInitialized()
		if err != nil {
			return err
		}
		st, err := svc.stakers.Get(owner)
		if err != nil {
			return err
		}
		info = &TierInfo{Tier: tier.None}
		if st != nil {
			info.Tier = st.Tier
			info.StakedAmount = st.StakedAmount
		}
		info.MaxCap, err = tier.MaxCap(info.Tier, cfg.CapLimits)
		return err
	})
	return
}

// Authorization returns the authorization stored under key.
func (s *Shade) Authorization(ctx context.Context, key shade.Bytes32) (a *authorization.Authorization, err error) {
	err = s.view(ctx, func(svc *services) error {
		a, err = svc.authorizations.GetExisting(key)
		return err
	})
	return
}

// Balance returns the asset balance of addr.
func (s *Shade) Balance(ctx context.Context, addr shade.Address) (bal uint64, err error) {
	err = s.ledger.View(ctx, func(tx *ledger.Tx) error {
		bal, err = (asset.Bank{}).BalanceOf(tx, addr)
		return err
	})
	return
}
