// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package authorization

import (
	"github.com/pkg/errors"

	"github.com/shadefi/shade/amount"
	"github.com/shadefi/shade/asset"
	"github.com/shadefi/shade/builtin/reverts"
	"github.com/shadefi/shade/builtin/shade/config"
	"github.com/shadefi/shade/builtin/shade/pool"
	"github.com/shadefi/shade/builtin/shade/staking"
	"github.com/shadefi/shade/builtin/shade/tier"
	"github.com/shadefi/shade/events"
	"github.com/shadefi/shade/kv"
	"github.com/shadefi/shade/ledger"
	"github.com/shadefi/shade/log"
	"github.com/shadefi/shade/shade"
)

var (
	logger = log.WithContext("pkg", "authorization")
	bucket = kv.Bucket("a")
)

type Service struct {
	tx             *ledger.Tx
	config         *config.Service
	pools          *pool.Service
	stakers        *staking.Service
	bank           asset.Transferrer
	authorizations *ledger.Mapping[shade.Bytes32, *Authorization]
}

func New(
	tx *ledger.Tx,
	cfg *config.Service,
	pools *pool.Service,
	stakers *staking.Service,
	bank asset.Transferrer,
) *Service {
	return &Service{
		tx:             tx,
		config:         cfg,
		pools:          pools,
		stakers:        stakers,
		bank:           bank,
		authorizations: ledger.NewMapping[shade.Bytes32, *Authorization](tx, bucket),
	}
}

// Get returns the authorization stored under key, or nil.
func (s *Service) Get(key shade.Bytes32) (*Authorization, error) {
	a, err := s.authorizations.Get(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get authorization")
	}
	return a, nil
}

// GetExisting returns the authorization stored under key, failing with NotFound if absent.
func (s *Service) GetExisting(key shade.Bytes32) (*Authorization, error) {
	a, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, reverts.Newf(reverts.NotFound, "authorization %v", key)
	}
	return a, nil
}

func (s *Service) set(key shade.Bytes32, a *Authorization) error {
	if err := s.authorizations.Upsert(key, a); err != nil {
		return errors.Wrap(err, "failed to set authorization")
	}
	return nil
}

// Create issues an authorization against a pool controlled by issuer.
func (s *Service) Create(issuer shade.Address, g Grant) (shade.Bytes32, *Authorization, error) {
	poolKey := pool.Key(g.Seed)
	p, err := s.pools.GetExisting(poolKey)
	if err != nil {
		return shade.Bytes32{}, nil, err
	}
	if issuer != p.Controller {
		return shade.Bytes32{}, nil, reverts.Newf(reverts.Unauthorized, "%v does not control pool %v", issuer, poolKey)
	}
	if g.SpendingCap == 0 {
		return shade.Bytes32{}, nil, reverts.New(reverts.InvalidAmount, "zero spending cap")
	}
	if len(g.Purpose) > shade.MaxPurposeLength {
		return shade.Bytes32{}, nil, reverts.Newf(reverts.PurposeTooLong, "%d bytes, max %d", len(g.Purpose), shade.MaxPurposeLength)
	}
	now := uint64(s.tx.Now().Unix())
	if g.ExpiresAt <= now {
		return shade.Bytes32{}, nil, reverts.Newf(reverts.InvalidExpiry, "expires at %d, now %d", g.ExpiresAt, now)
	}

	key := Key(poolKey, g.Spender, g.Nonce)
	exists, err := s.authorizations.Exists(key)
	if err != nil {
		return shade.Bytes32{}, nil, errors.Wrap(err, "failed to get authorization")
	}
	if exists {
		return shade.Bytes32{}, nil, reverts.Newf(reverts.AlreadyExists, "authorization %v", key)
	}

	if g.BoundByTier {
		if err := s.checkTierLimit(g.Spender, g.SpendingCap); err != nil {
			return shade.Bytes32{}, nil, err
		}
	} else {
		logger.Debug("spending cap not bound by tier", "authorization", key, "cap", g.SpendingCap)
	}

	active, err := amount.Add(p.ActiveAuthorizations, 1)
	if err != nil {
		return shade.Bytes32{}, nil, err
	}

	a := &Authorization{
		Pool:        poolKey,
		Spender:     g.Spender,
		Issuer:      issuer,
		Nonce:       g.Nonce,
		SpendingCap: g.SpendingCap,
		CreatedAt:   now,
		ExpiresAt:   g.ExpiresAt,
		Purpose:     g.Purpose,
		Active:      true,
	}
	if err := s.set(key, a); err != nil {
		return shade.Bytes32{}, nil, err
	}

	s.tx.Emit(events.New(events.KindAuthorizationCreated, key, issuer).
		With("spendingCap", 0, a.SpendingCap).
		With("expiresAt", 0, a.ExpiresAt).
		With("active", false, true).
		With("pool.activeAuthorizations", p.ActiveAuthorizations, active))

	p.ActiveAuthorizations = active
	if err := s.pools.Set(p); err != nil {
		return shade.Bytes32{}, nil, err
	}
	return key, a, nil
}

func (s *Service) checkTierLimit(spender shade.Address, spendingCap uint64) error {
	st, err := s.stakers.GetExisting(spender)
	if err != nil {
		return err
	}
	cfg, err := s.config.GetInitialized()
	if err != nil {
		return err
	}
	maxCap, err := tier.MaxCap(st.Tier, cfg.CapLimits)
	if err != nil {
		return err
	}
	if spendingCap > maxCap {
		return reverts.Newf(reverts.ExceedsTierLimit, "cap %d above %d allowed for tier %v", spendingCap, maxCap, st.Tier)
	}
	return nil
}

// Revoke deactivates the authorization. Only its issuer may revoke it.
func (s *Service) Revoke(caller shade.Address, key shade.Bytes32) (*Authorization, error) {
	a, err := s.GetExisting(key)
	if err != nil {
		return nil, err
	}
	if caller != a.Issuer {
		return nil, reverts.Newf(reverts.Unauthorized, "%v did not issue authorization %v", caller, key)
	}
	if !a.Active {
		return nil, reverts.Newf(reverts.AuthorizationInactive, "authorization %v", key)
	}
	p, err := s.pools.GetExisting(a.Pool)
	if err != nil {
		return nil, err
	}

	active, err := amount.Sub(p.ActiveAuthorizations, 1)
	if err != nil {
		return nil, err
	}
	s.tx.Emit(events.New(events.KindAuthorizationRevoked, key, caller).
		With("active", true, false).
		With("pool.activeAuthorizations", p.ActiveAuthorizations, active))

	a.Active = false
	p.ActiveAuthorizations = active
	if err := s.set(key, a); err != nil {
		return nil, err
	}
	if err := s.pools.Set(p); err != nil {
		return nil, err
	}
	return a, nil
}

// Spend draws value from the pool of the authorization. The fee goes to the
// fee vault and the rest to recipient. The gross value counts against the cap.
func (s *Service) Spend(caller shade.Address, key shade.Bytes32, value uint64, recipient shade.Address) (*Receipt, error) {
	a, err := s.GetExisting(key)
	if err != nil {
		return nil, err
	}
	if !a.Active {
		return nil, reverts.Newf(reverts.AuthorizationInactive, "authorization %v", key)
	}
	if now := uint64(s.tx.Now().Unix()); a.Expired(now) {
		return nil, reverts.Newf(reverts.AuthorizationExpired, "expired at %d, now %d", a.ExpiresAt, now)
	}
	if value == 0 {
		return nil, reverts.New(reverts.InvalidAmount, "spend of zero")
	}
	if caller != a.Spender {
		return nil, reverts.Newf(reverts.Unauthorized, "%v is not the spender of %v", caller, key)
	}

	cfg, err := s.config.GetInitialized()
	if err != nil {
		return nil, err
	}
	fee, err := amount.MulDiv(value, cfg.FeeBasisPoints, shade.BasisPointsDenominator)
	if err != nil {
		return nil, err
	}
	net := value - fee

	spent, err := amount.Add(a.AmountSpent, value)
	if err != nil {
		return nil, err
	}
	if spent > a.SpendingCap {
		return nil, reverts.Newf(reverts.ExceedsSpendingCap, "spent %d + %d exceeds cap %d", a.AmountSpent, value, a.SpendingCap)
	}

	p, err := s.pools.GetExisting(a.Pool)
	if err != nil {
		return nil, err
	}
	poolSpent, err := amount.Add(p.TotalSpent, value)
	if err != nil {
		return nil, err
	}
	poolFees, err := amount.Add(p.TotalFeesGenerated, fee)
	if err != nil {
		return nil, err
	}
	collected, err := amount.Add(cfg.TotalFeesCollected, fee)
	if err != nil {
		return nil, err
	}

	if err := s.bank.Transfer(s.tx, p.Vault, recipient, net); err != nil {
		return nil, err
	}
	if fee > 0 {
		if err := s.bank.Transfer(s.tx, p.Vault, cfg.FeeVault, fee); err != nil {
			return nil, err
		}
	}

	s.tx.Emit(events.New(events.KindSpent, key, caller).
		With("amountSpent", a.AmountSpent, spent).
		With("pool.totalSpent", p.TotalSpent, poolSpent).
		With("pool.totalFeesGenerated", p.TotalFeesGenerated, poolFees).
		With("totalFeesCollected", cfg.TotalFeesCollected, collected))

	a.AmountSpent = spent
	p.TotalSpent = poolSpent
	p.TotalFeesGenerated = poolFees
	cfg.TotalFeesCollected = collected

	if err := s.set(key, a); err != nil {
		return nil, err
	}
	if err := s.pools.Set(p); err != nil {
		return nil, err
	}
	if err := s.config.Set(cfg); err != nil {
		return nil, err
	}

	return &Receipt{
		Authorization: key,
		Recipient:     recipient,
		Amount:        value,
		Fee:           fee,
		Net:           net,
		Remaining:     a.Remaining(),
	}, nil
}
