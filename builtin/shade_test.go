// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadefi/shade/asset"
	"github.com/shadefi/shade/builtin/reverts"
	"github.com/shadefi/shade/builtin/shade/authorization"
	"github.com/shadefi/shade/builtin/shade/pool"
	"github.com/shadefi/shade/builtin/shade/tier"
	"github.com/shadefi/shade/events"
	"github.com/shadefi/shade/identity"
	"github.com/shadefi/shade/ledger/ledgertest"
	"github.com/shadefi/shade/shade"
)

var (
	admin      = identity.Trusted(shade.BytesToAddress([]byte("admin")))
	alice      = identity.Trusted(shade.BytesToAddress([]byte("alice")))
	bob        = identity.Trusted(shade.BytesToAddress([]byte("bob")))
	controller = identity.Trusted(shade.BytesToAddress([]byte("controller")))
	spender    = identity.Trusted(shade.BytesToAddress([]byte("spender")))
	recipient  = shade.BytesToAddress([]byte("recipient"))
	seed       = shade.Blake2b([]byte("fog"))

	thresholds = tier.Thresholds{Bronze: 100, Silver: 1000, Gold: 10000}
)

func newTestShade(t *testing.T) (*Shade, *clockwork.FakeClock, *events.Recorder) {
	l, clock := ledgertest.New(t)
	rec := &events.Recorder{}
	l.AddSink(rec)
	s := New(l)

	ctx := context.Background()
	for _, c := range []identity.Verified{alice, bob, controller} {
		require.NoError(t, s.Credit(ctx, c.Address(), 1_000_000))
	}
	return s, clock, rec
}

func initialize(t *testing.T, s *Shade, feeBP uint64) {
	_, err := s.Initialize(context.Background(), admin, feeBP, thresholds)
	require.NoError(t, err)
}

func TestShade_RequiresInitialization(t *testing.T) {
	s, _, _ := newTestShade(t)
	ctx := context.Background()

	_, err := s.Stake(ctx, alice, 100)
	assert.ErrorIs(t, err, reverts.NotInitialized)
	_, err = s.CreatePool(ctx, controller, seed)
	assert.ErrorIs(t, err, reverts.NotInitialized)
	_, err = s.DistributeFees(ctx, alice, alice.Address())
	assert.ErrorIs(t, err, reverts.NotInitialized)
	_, err = s.Config(ctx)
	assert.ErrorIs(t, err, reverts.NotInitialized)

	initialize(t, s, 10)
	_, err = s.Initialize(ctx, admin, 10, thresholds)
	assert.ErrorIs(t, err, reverts.AlreadyInitialized)
}

func TestShade_AnonymousCaller(t *testing.T) {
	s, _, _ := newTestShade(t)
	ctx := context.Background()

	_, err := s.Initialize(ctx, identity.Verified{}, 10, thresholds)
	assert.ErrorIs(t, err, reverts.Unauthorized)
	assert.ErrorIs(t, s.Credit(ctx, shade.Address{}, 1), reverts.Unauthorized)
}

func TestShade_Admin(t *testing.T) {
	s, _, rec := newTestShade(t)
	ctx := context.Background()
	initialize(t, s, 10)

	_, err := s.UpdateFee(ctx, admin, 1001)
	assert.ErrorIs(t, err, reverts.FeeTooHigh)
	_, err = s.UpdateFee(ctx, alice, 20)
	assert.ErrorIs(t, err, reverts.Unauthorized)

	cfg, err := s.UpdateFee(ctx, admin, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), cfg.FeeBasisPoints)
	assert.Equal(t, events.KindFeeUpdated, rec.Last().Kind)

	_, err = s.UpdateTiers(ctx, admin, tier.Thresholds{Bronze: 10, Silver: 10, Gold: 20})
	assert.ErrorIs(t, err, reverts.InvalidThresholds)
	cfg, err = s.UpdateTiers(ctx, admin, tier.Thresholds{Bronze: 10, Silver: 20, Gold: 30})
	require.NoError(t, err)
	assert.Equal(t, uint64(30), cfg.Thresholds.Gold)

	limits := tier.DefaultCapLimits
	limits.Gold = 2000
	cfg, err = s.UpdateCapLimits(ctx, admin, limits)
	require.NoError(t, err)
	assert.Equal(t, limits, cfg.CapLimits)

	got, err := s.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestShade_Tiers(t *testing.T) {
	s, _, _ := newTestShade(t)
	ctx := context.Background()
	initialize(t, s, 10)

	info, err := s.TierOf(ctx, alice.Address())
	require.NoError(t, err)
	assert.Equal(t, tier.None, info.Tier)

	st, err := s.Stake(ctx, alice, 12000)
	require.NoError(t, err)
	assert.Equal(t, tier.Gold, st.Tier)

	st, err = s.Stake(ctx, bob, 7000)
	require.NoError(t, err)
	assert.Equal(t, tier.Silver, st.Tier)

	st, err = s.Unstake(ctx, alice, 2001)
	require.NoError(t, err)
	assert.Equal(t, tier.Silver, st.Tier)

	info, err = s.TierOf(ctx, alice.Address())
	require.NoError(t, err)
	assert.Equal(t, tier.Silver, info.Tier)
	assert.Equal(t, uint64(9999), info.StakedAmount)
	maxCap, err := tier.MaxCap(tier.Silver, tier.DefaultCapLimits)
	require.NoError(t, err)
	assert.Equal(t, maxCap, info.MaxCap)

	_, err = s.Unstake(ctx, bob, 7001)
	assert.ErrorIs(t, err, reverts.InsufficientStake)

	cfg, err := s.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(9999+7000), cfg.TotalStaked)

	bal, err := s.Balance(ctx, asset.StakingVault)
	require.NoError(t, err)
	assert.Equal(t, cfg.TotalStaked, bal)
}

func TestShade_SpendAndRewards(t *testing.T) {
	s, clock, rec := newTestShade(t)
	ctx := context.Background()
	initialize(t, s, 100)

	_, err := s.Stake(ctx, alice, 5000)
	require.NoError(t, err)
	_, err = s.Stake(ctx, bob, 5000)
	require.NoError(t, err)

	_, err = s.CreatePool(ctx, controller, seed)
	require.NoError(t, err)
	_, err = s.CreatePool(ctx, controller, seed)
	assert.ErrorIs(t, err, reverts.AlreadyExists)
	_, err = s.Deposit(ctx, controller, seed, 500_000)
	require.NoError(t, err)

	now := uint64(clock.Now().Unix())
	key, a, err := s.CreateAuthorization(ctx, controller, authorization.Grant{
		Seed:        seed,
		Spender:     spender.Address(),
		Nonce:       1,
		SpendingCap: 20_000,
		ExpiresAt:   now + 3600,
		Purpose:     "groceries",
	})
	require.NoError(t, err)
	assert.Equal(t, authorization.Key(pool.Key(seed), spender.Address(), 1), key)
	assert.True(t, a.Active)

	_, err = s.Spend(ctx, alice, key, 10_000, recipient)
	assert.ErrorIs(t, err, reverts.Unauthorized)

	r, err := s.Spend(ctx, spender, key, 10_000, recipient)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), r.Fee)
	assert.Equal(t, uint64(9900), r.Net)
	assert.Equal(t, uint64(10_000), r.Remaining)
	assert.Equal(t, events.KindSpent, rec.Last().Kind)

	bal, err := s.Balance(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, uint64(9900), bal)

	_, err = s.Spend(ctx, spender, key, 10_001, recipient)
	assert.ErrorIs(t, err, reverts.ExceedsSpendingCap)

	p, err := s.Pool(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), p.TotalSpent)
	assert.Equal(t, uint64(100), p.TotalFeesGenerated)
	assert.Equal(t, uint64(1), p.ActiveAuthorizations)

	// each staker holds half of the stake
	for _, c := range []identity.Verified{alice, bob} {
		share, err := s.DistributeFees(ctx, controller, c.Address())
		require.NoError(t, err)
		assert.Equal(t, uint64(50), share)

		share, err = s.DistributeFees(ctx, controller, c.Address())
		require.NoError(t, err)
		assert.Zero(t, share)
	}

	claimed, err := s.ClaimRewards(ctx, alice, recipient)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), claimed)
	_, err = s.ClaimRewards(ctx, alice, recipient)
	assert.ErrorIs(t, err, reverts.NoRewardsToClaim)

	st, err := s.Staker(ctx, alice.Address())
	require.NoError(t, err)
	assert.Zero(t, st.PendingRewards)
	assert.Equal(t, uint64(clock.Now().Unix()), st.LastClaimTime)

	cfg, err := s.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), cfg.TotalFeesCollected)
	assert.Equal(t, uint64(50), cfg.TotalFeesDistributed)

	bal, err = s.Balance(ctx, asset.FeeVault)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), bal)

	// expiry is inclusive
	clock.Advance(3600 * time.Second)
	_, err = s.Spend(ctx, spender, key, 1, recipient)
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = s.Spend(ctx, spender, key, 1, recipient)
	assert.ErrorIs(t, err, reverts.AuthorizationExpired)

	_, err = s.RevokeAuthorization(ctx, spender, key)
	assert.ErrorIs(t, err, reverts.Unauthorized)
	a, err = s.RevokeAuthorization(ctx, controller, key)
	require.NoError(t, err)
	assert.False(t, a.Active)
	_, err = s.RevokeAuthorization(ctx, controller, key)
	assert.ErrorIs(t, err, reverts.AuthorizationInactive)

	a, err = s.Authorization(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_001), a.AmountSpent)
}

func TestShade_TierBoundAuthorization(t *testing.T) {
	s, _, _ := newTestShade(t)
	ctx := context.Background()
	initialize(t, s, 10)

	limits := tier.CapLimits{BaseCap: 1000, None: 50, Bronze: 100, Silver: 500, Gold: 1000}
	_, err := s.UpdateCapLimits(ctx, admin, limits)
	require.NoError(t, err)

	_, err = s.CreatePool(ctx, controller, seed)
	require.NoError(t, err)

	now := uint64(ledgertest.Genesis.Unix())
	grant := authorization.Grant{
		Seed:        seed,
		Spender:     alice.Address(),
		SpendingCap: 5000,
		ExpiresAt:   now + 60,
		BoundByTier: true,
	}
	_, _, err = s.CreateAuthorization(ctx, controller, grant)
	assert.ErrorIs(t, err, reverts.NotFound)

	// bronze caps at 1000
	_, err = s.Stake(ctx, alice, 100)
	require.NoError(t, err)
	_, _, err = s.CreateAuthorization(ctx, controller, grant)
	assert.ErrorIs(t, err, reverts.ExceedsTierLimit)

	_, err = s.Stake(ctx, alice, 9900)
	require.NoError(t, err)
	_, _, err = s.CreateAuthorization(ctx, controller, grant)
	require.NoError(t, err)

	// unbound caps are not checked against the tier
	grant.Nonce = 1
	grant.SpendingCap = 1_000_000
	grant.BoundByTier = false
	_, _, err = s.CreateAuthorization(ctx, controller, grant)
	require.NoError(t, err)
}

func TestShade_FailedOperationKeepsState(t *testing.T) {
	s, _, rec := newTestShade(t)
	ctx := context.Background()
	initialize(t, s, 10)

	before := len(rec.Events())
	_, err := s.Stake(ctx, alice, 2_000_000)
	assert.ErrorIs(t, err, reverts.InsufficientFunds)
	assert.Len(t, rec.Events(), before)

	_, err = s.Staker(ctx, alice.Address())
	assert.ErrorIs(t, err, reverts.NotFound)

	cfg, err := s.Config(ctx)
	require.NoError(t, err)
	assert.Zero(t, cfg.TotalStaked)
}

func TestShade_Events(t *testing.T) {
	s, _, rec := newTestShade(t)
	ctx := context.Background()
	initialize(t, s, 10)
	_, err := s.Stake(ctx, alice, 100)
	require.NoError(t, err)

	var kinds []events.Kind
	var last uint64
	for _, ev := range rec.Events() {
		kinds = append(kinds, ev.Kind)
		assert.Greater(t, ev.Seq, last)
		last = ev.Seq
	}
	assert.Equal(t, []events.Kind{
		events.KindCredited,
		events.KindCredited,
		events.KindCredited,
		events.KindProtocolInitialized,
		events.KindStaked,
	}, kinds)
	assert.Equal(t, alice.Address(), rec.Last().Actor)
}

func TestShade_SignedRequestAdmittedOnce(t *testing.T) {
	s, clock, _ := newTestShade(t)
	initialize(t, s, 10)

	ctx := WithRequest(context.Background(), Request{Nonce: 7, ExpiresAt: uint64(clock.Now().Unix()) + 60})
	_, err := s.Stake(ctx, alice, 100)
	require.NoError(t, err)

	// same request, any operation
	_, err = s.Stake(ctx, alice, 100)
	assert.ErrorIs(t, err, reverts.NonceUsed)
	_, err = s.Unstake(ctx, alice, 1)
	assert.ErrorIs(t, err, reverts.NonceUsed)

	// the nonce is per caller
	_, err = s.Stake(ctx, bob, 100)
	require.NoError(t, err)

	st, err := s.Staker(context.Background(), alice.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), st.StakedAmount)

	clock.Advance(2 * time.Minute)
	_, err = s.Stake(WithRequest(context.Background(), Request{Nonce: 8, ExpiresAt: uint64(clock.Now().Unix()) - 1}), alice, 1)
	assert.ErrorIs(t, err, reverts.RequestExpired)
}

func TestGaugeValue(t *testing.T) {
	assert.Equal(t, int64(0), gaugeValue(0))
	assert.Equal(t, int64(42), gaugeValue(42))
	assert.Equal(t, int64(math.MaxInt64), gaugeValue(math.MaxInt64))
	assert.Equal(t, int64(math.MaxInt64), gaugeValue(math.MaxUint64))
}
