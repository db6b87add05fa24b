// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package authorization

import (
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadefi/shade/asset"
	"github.com/shadefi/shade/builtin/reverts"
	"github.com/shadefi/shade/builtin/shade/config"
	"github.com/shadefi/shade/builtin/shade/pool"
	"github.com/shadefi/shade/builtin/shade/staking"
	"github.com/shadefi/shade/builtin/shade/tier"
	"github.com/shadefi/shade/ledger"
	"github.com/shadefi/shade/ledger/ledgertest"
	"github.com/shadefi/shade/shade"
)

var (
	admin      = shade.BytesToAddress([]byte("admin"))
	controller = shade.BytesToAddress([]byte("controller"))
	spender    = shade.BytesToAddress([]byte("spender"))
	recipient  = shade.BytesToAddress([]byte("recipient"))
	stranger   = shade.BytesToAddress([]byte("stranger"))
	seed       = shade.Blake2b([]byte("fog"))
	poolKey    = pool.Key(seed)
)

const (
	liquidity = 1_000_000
	hour      = 3600
)

type fixture struct {
	t     *testing.T
	l     *ledger.Ledger
	clock *clockwork.FakeClock
	bank  asset.Transferrer
}

func newFixture(t *testing.T) *fixture {
	l, clock := ledgertest.New(t)
	bank := asset.Bank{}
	ledgertest.MustExec(t, l, func(tx *ledger.Tx) error {
		if _, err := config.New(tx).Initialize(admin, 10, tier.Thresholds{Bronze: 100, Silver: 1000, Gold: 10000}); err != nil {
			return err
		}
		if err := bank.Credit(tx, controller, liquidity); err != nil {
			return err
		}
		if err := bank.Credit(tx, spender, 100_000); err != nil {
			return err
		}
		pools := pool.New(tx, bank)
		if _, err := pools.Create(controller, seed); err != nil {
			return err
		}
		_, err := pools.Deposit(controller, seed, liquidity)
		return err
	})
	return &fixture{t: t, l: l, clock: clock, bank: bank}
}

func (f *fixture) now() uint64 {
	return uint64(f.clock.Now().Unix())
}

func (f *fixture) exec(fn func(s *Service) error) error {
	return ledgertest.Exec(f.t, f.l, func(tx *ledger.Tx) error {
		cfg := config.New(tx)
		stakers := staking.New(tx, cfg, f.bank)
		return fn(New(tx, cfg, pool.New(tx, f.bank), stakers, f.bank))
	})
}

func (f *fixture) grant(g Grant) (shade.Bytes32, error) {
	var key shade.Bytes32
	err := f.exec(func(s *Service) error {
		var err error
		key, _, err = s.Create(controller, g)
		return err
	})
	return key, err
}

func (f *fixture) mustGrant(spendingCap uint64) shade.Bytes32 {
	key, err := f.grant(Grant{
		Seed:        seed,
		Spender:     spender,
		Nonce:       f.now(),
		SpendingCap: spendingCap,
		ExpiresAt:   f.now() + hour,
		Purpose:     "groceries",
	})
	require.NoError(f.t, err)
	return key
}

func (f *fixture) spend(caller shade.Address, key shade.Bytes32, value uint64) (*Receipt, error) {
	var r *Receipt
	err := f.exec(func(s *Service) error {
		var err error
		r, err = s.Spend(caller, key, value, recipient)
		return err
	})
	return r, err
}

func (f *fixture) revoke(caller shade.Address, key shade.Bytes32) error {
	return f.exec(func(s *Service) error {
		_, err := s.Revoke(caller, key)
		return err
	})
}

func (f *fixture) state() (p *pool.Pool, cfg *config.Config, balances map[shade.Address]uint64) {
	balances = make(map[shade.Address]uint64)
	ledgertest.MustExec(f.t, f.l, func(tx *ledger.Tx) error {
		var err error
		if cfg, err = config.New(tx).GetInitialized(); err != nil {
			return err
		}
		if p, err = pool.New(tx, f.bank).GetExisting(poolKey); err != nil {
			return err
		}
		for _, addr := range []shade.Address{p.Vault, cfg.FeeVault, recipient} {
			if balances[addr], err = (asset.Bank{}).BalanceOf(tx, addr); err != nil {
				return err
			}
		}
		return nil
	})
	return
}

func (f *fixture) get(key shade.Bytes32) *Authorization {
	var a *Authorization
	require.NoError(f.t, f.exec(func(s *Service) error {
		var err error
		a, err = s.GetExisting(key)
		return err
	}))
	return a
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	now := f.now()
	valid := Grant{Seed: seed, Spender: spender, Nonce: 1, SpendingCap: 500, ExpiresAt: now + hour, Purpose: "rent"}

	tests := []struct {
		name   string
		issuer shade.Address
		modify func(g *Grant)
		want   error
	}{
		{"unknown pool", controller, func(g *Grant) { g.Seed = shade.Bytes32{1} }, reverts.NotFound},
		{"not controller", stranger, func(g *Grant) {}, reverts.Unauthorized},
		{"zero cap", controller, func(g *Grant) { g.SpendingCap = 0 }, reverts.InvalidAmount},
		{"purpose too long", controller, func(g *Grant) { g.Purpose = strings.Repeat("x", 65) }, reverts.PurposeTooLong},
		{"expires now", controller, func(g *Grant) { g.ExpiresAt = now }, reverts.InvalidExpiry},
		{"expired", controller, func(g *Grant) { g.ExpiresAt = now - 1 }, reverts.InvalidExpiry},
		{"unauthorized before zero cap", stranger, func(g *Grant) { g.SpendingCap = 0 }, reverts.Unauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := valid
			tt.modify(&g)
			err := f.exec(func(s *Service) error {
				_, _, err := s.Create(tt.issuer, g)
				return err
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	g := valid
	g.Purpose = strings.Repeat("x", 64)
	key, err := f.grant(g)
	require.NoError(t, err)
	assert.Equal(t, Key(poolKey, spender, 1), key)

	a := f.get(key)
	assert.True(t, a.Active)
	assert.Zero(t, a.AmountSpent)
	assert.Equal(t, controller, a.Issuer)
	assert.Equal(t, now, a.CreatedAt)

	_, err = f.grant(g)
	assert.ErrorIs(t, err, reverts.AlreadyExists)

	p, _, _ := f.state()
	assert.Equal(t, uint64(1), p.ActiveAuthorizations)
}

func TestCreateBoundByTier(t *testing.T) {
	f := newFixture(t)
	g := Grant{
		Seed:        seed,
		Spender:     spender,
		SpendingCap: tier.DefaultCapLimits.BaseCap,
		ExpiresAt:   f.now() + hour,
		BoundByTier: true,
	}

	// no staker record
	_, err := f.grant(g)
	assert.ErrorIs(t, err, reverts.NotFound)

	// None tier allows half the base cap
	ledgertest.MustExec(t, f.l, func(tx *ledger.Tx) error {
		_, err := staking.New(tx, config.New(tx), f.bank).Stake(spender, 10)
		return err
	})
	_, err = f.grant(g)
	assert.ErrorIs(t, err, reverts.ExceedsTierLimit)

	g.SpendingCap = tier.DefaultCapLimits.BaseCap / 2
	_, err = f.grant(g)
	assert.NoError(t, err)

	// Bronze allows the full base cap
	ledgertest.MustExec(t, f.l, func(tx *ledger.Tx) error {
		_, err := staking.New(tx, config.New(tx), f.bank).Stake(spender, 90)
		return err
	})
	g.Nonce, g.SpendingCap = 1, tier.DefaultCapLimits.BaseCap
	_, err = f.grant(g)
	assert.NoError(t, err)

	// unbound grants accept any cap
	g.Nonce, g.SpendingCap, g.BoundByTier = 2, 1<<60, false
	_, err = f.grant(g)
	assert.NoError(t, err)
}

func TestSpendFeeAndCap(t *testing.T) {
	f := newFixture(t)
	key := f.mustGrant(1500)

	r, err := f.spend(spender, key, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.Fee)
	assert.Equal(t, uint64(999), r.Net)
	assert.Equal(t, uint64(500), r.Remaining)

	// exact remainder succeeds
	r, err = f.spend(spender, key, 500)
	require.NoError(t, err)
	assert.Zero(t, r.Remaining)

	// one more unit fails
	_, err = f.spend(spender, key, 1)
	assert.ErrorIs(t, err, reverts.ExceedsSpendingCap)

	a := f.get(key)
	assert.Equal(t, uint64(1500), a.AmountSpent)

	p, cfg, balances := f.state()
	assert.Equal(t, uint64(1500), p.TotalSpent)
	assert.Equal(t, uint64(1), p.TotalFeesGenerated)
	assert.Equal(t, uint64(1), cfg.TotalFeesCollected)
	assert.Equal(t, uint64(1), balances[cfg.FeeVault])
	assert.Equal(t, uint64(1499), balances[recipient])
	assert.Equal(t, uint64(liquidity-1500), balances[p.Vault])
}

func TestSpendTinyAmountCarriesNoFee(t *testing.T) {
	f := newFixture(t)
	key := f.mustGrant(10_000)

	r, err := f.spend(spender, key, 999)
	require.NoError(t, err)
	assert.Zero(t, r.Fee)
	assert.Equal(t, uint64(999), r.Net)

	_, cfg, balances := f.state()
	assert.Zero(t, cfg.TotalFeesCollected)
	assert.Zero(t, balances[cfg.FeeVault])
}

func TestSpendRejections(t *testing.T) {
	f := newFixture(t)
	key := f.mustGrant(10_000)

	_, err := f.spend(spender, shade.Bytes32{9}, 1)
	assert.ErrorIs(t, err, reverts.NotFound)

	_, err = f.spend(spender, key, 0)
	assert.ErrorIs(t, err, reverts.InvalidAmount)

	_, err = f.spend(stranger, key, 1)
	assert.ErrorIs(t, err, reverts.Unauthorized)

	// expiry is inclusive of ExpiresAt
	f.clock.Advance(time.Hour)
	_, err = f.spend(spender, key, 1)
	assert.NoError(t, err)

	f.clock.Advance(time.Second)
	_, err = f.spend(spender, key, 1)
	assert.ErrorIs(t, err, reverts.AuthorizationExpired)
}

func TestRevoke(t *testing.T) {
	f := newFixture(t)
	key := f.mustGrant(10_000)

	assert.ErrorIs(t, f.revoke(spender, key), reverts.Unauthorized)
	assert.ErrorIs(t, f.revoke(controller, shade.Bytes32{9}), reverts.NotFound)

	require.NoError(t, f.revoke(controller, key))
	assert.False(t, f.get(key).Active)

	assert.ErrorIs(t, f.revoke(controller, key), reverts.AuthorizationInactive)

	_, err := f.spend(spender, key, 1)
	assert.ErrorIs(t, err, reverts.AuthorizationInactive)

	p, _, _ := f.state()
	assert.Zero(t, p.ActiveAuthorizations)
}

func TestSpendOfZeroChecksStateFirst(t *testing.T) {
	f := newFixture(t)
	revoked := f.mustGrant(10_000)
	require.NoError(t, f.revoke(controller, revoked))
	_, err := f.spend(spender, revoked, 0)
	assert.ErrorIs(t, err, reverts.AuthorizationInactive)

	f.clock.Advance(time.Second)
	expired := f.mustGrant(10_000)
	f.clock.Advance(time.Hour + time.Second)
	_, err = f.spend(spender, expired, 0)
	assert.ErrorIs(t, err, reverts.AuthorizationExpired)
}

func TestRevokeWithCorruptPoolCounter(t *testing.T) {
	f := newFixture(t)
	key := f.mustGrant(10_000)

	ledgertest.MustExec(t, f.l, func(tx *ledger.Tx) error {
		pools := pool.New(tx, f.bank)
		p, err := pools.GetExisting(poolKey)
		if err != nil {
			return err
		}
		p.ActiveAuthorizations = 0
		return pools.Set(p)
	})

	assert.ErrorIs(t, f.revoke(controller, key), reverts.Overflow)
	assert.True(t, f.get(key).Active)
}

type failingBank struct{}

func (failingBank) Transfer(*ledger.Tx, shade.Address, shade.Address, uint64) error {
	return reverts.New(reverts.InsufficientFunds, "always")
}

func TestSpendFailedTransferKeepsCounters(t *testing.T) {
	f := newFixture(t)
	key := f.mustGrant(10_000)
	_, err := f.spend(spender, key, 2000)
	require.NoError(t, err)

	p0, cfg0, bal0 := f.state()
	before := f.get(key)

	f.bank = failingBank{}
	_, err = f.spend(spender, key, 1000)
	assert.ErrorIs(t, err, reverts.InsufficientFunds)

	f.bank = asset.Bank{}
	p1, cfg1, bal1 := f.state()
	assert.Equal(t, p0, p1)
	assert.Equal(t, cfg0, cfg1)
	assert.Equal(t, bal0, bal1)
	assert.Equal(t, before, f.get(key))
}

func TestSpendBeyondLiquidity(t *testing.T) {
	f := newFixture(t)
	key := f.mustGrant(liquidity * 2)

	_, err := f.spend(spender, key, liquidity+1)
	assert.ErrorIs(t, err, reverts.InsufficientFunds)
	assert.Zero(t, f.get(key).AmountSpent)
}

func TestPoolTotalSpentIsSumOfAuthorizations(t *testing.T) {
	f := newFixture(t)

	var keys []shade.Bytes32
	for i := range 3 {
		key, err := f.grant(Grant{
			Seed:        seed,
			Spender:     spender,
			Nonce:       uint64(i),
			SpendingCap: 50_000,
			ExpiresAt:   f.now() + hour,
		})
		require.NoError(t, err)
		keys = append(keys, key)
	}

	for i, value := range []uint64{1000, 2345, 17, 40_000, 9999, 3} {
		_, err := f.spend(spender, keys[i%len(keys)], value)
		require.NoError(t, err)
	}
	require.NoError(t, f.revoke(controller, keys[1]))
	_, err := f.spend(spender, keys[1], 1)
	require.Error(t, err)

	var sum uint64
	for _, key := range keys {
		sum += f.get(key).AmountSpent
	}
	p, _, _ := f.state()
	assert.Equal(t, sum, p.TotalSpent)
	assert.Equal(t, uint64(2), p.ActiveAuthorizations)
}
